package entity

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// Port flags that matter to calculators.
const (
	FlagUneditable = "uneditable"
	FlagInvisible  = "invisible"
)

// PortType is one accepted (type, subtypes) pair of a port.
type PortType struct {
	Type     string   `json:"Type"`
	SubTypes []string `json:"SubTypes,omitempty"`
}

// PortDef is a mount point declared by an item or a structural part.
type PortDef struct {
	Name    string     `json:"Name"`
	MinSize int        `json:"MinSize"`
	MaxSize int        `json:"MaxSize"`
	Types   []PortType `json:"Types,omitempty"`
	Flags   []string   `json:"Flags,omitempty"`
}

// HasFlag reports whether the port carries flag, case-insensitively.
func (p PortDef) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// Accepts reports whether the port lists typ among its compatible types.
func (p PortDef) Accepts(typ string) bool {
	for _, t := range p.Types {
		if strings.EqualFold(t.Type, typ) {
			return true
		}
	}
	return false
}

// TypeNames renders the compatible types as "Type" or "Type.SubType".
func (p PortDef) TypeNames() []string {
	var out []string
	for _, t := range p.Types {
		if len(t.SubTypes) == 0 {
			out = append(out, t.Type)
			continue
		}
		for _, s := range t.SubTypes {
			out = append(out, t.Type+"."+s)
		}
	}
	return out
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '|' || r == ';'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// parseItemPort reads an SItemPortDef element.
func parseItemPort(n record.Accessor) PortDef {
	p := PortDef{
		Name:    strings.TrimSpace(n.Attr("Name")),
		MinSize: n.Int("MinSize", 0),
		MaxSize: n.Int("MaxSize", 0),
		Flags:   splitList(n.Attr("Flags")),
	}
	for _, t := range n.Child("Types").Children("SItemPortDefTypes") {
		if typ := t.Attr("Type"); typ != "" {
			p.Types = append(p.Types, PortType{Type: typ, SubTypes: splitList(t.Attr("SubTypes"))})
		}
	}
	return p
}

// parsePartPort reads the anonymous ItemPort of a structural part. The port
// takes its name from the owning part.
func parsePartPort(partName string, n record.Accessor) PortDef {
	p := PortDef{
		Name:    partName,
		MinSize: n.Int("minSize", 0),
		MaxSize: n.Int("maxSize", 0),
		Flags:   splitList(n.Attr("flags")),
	}
	for _, t := range n.Child("Types").Children("Type") {
		if typ := t.Attr("type"); typ != "" {
			p.Types = append(p.Types, PortType{Type: typ, SubTypes: splitList(t.Attr("subtypes"))})
		}
	}
	return p
}
