package entity

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// PartDef is one node of a vehicle's static structural hierarchy.
type PartDef struct {
	ID                         string
	Name                       string
	Mass                       *float64
	MaxDamage                  float64
	DestructionDamageThreshold float64
	DetachDamageThreshold      float64
	Port                       *PortDef
	Parts                      []PartDef
}

// Implementation is a VehicleDefinition record: the vehicle's physical parts
// and movement parameters.
type Implementation struct {
	Reference string
	ClassName string
	Parts     []PartDef
	// Movement is the MovementParams block, possibly missing.
	Movement record.Accessor

	root *record.Node
}

// DecodeImplementation maps a VehicleDefinition record.
//
// Postcondition: Returns a non-nil Implementation.
func DecodeImplementation(rec *record.Record) (*Implementation, error) {
	return decodeImplementation(rec.Reference, rec.ClassName, rec.Root), nil
}

func decodeImplementation(ref, class string, root *record.Node) *Implementation {
	return &Implementation{
		Reference: ref,
		ClassName: class,
		Parts:     parseParts(root.ChildNode("Parts")),
		Movement:  root.ChildNode("MovementParams"),
		root:      root,
	}
}

func parseParts(parts *record.Node) []PartDef {
	var out []PartDef
	for _, p := range parts.ChildNodes("Part") {
		def := PartDef{
			ID:                         p.Attr("id"),
			Name:                       strings.TrimSpace(p.Attr("name")),
			MaxDamage:                  p.Float("damageMax", 0),
			DestructionDamageThreshold: p.Float("destructionDamageThreshold", 0),
			DetachDamageThreshold:      p.Float("detachDamageThreshold", 0),
			Parts:                      parseParts(p.ChildNode("Parts")),
		}
		if _, ok := p.LookupAttr("mass"); ok {
			m := p.Float("mass", 0)
			def.Mass = &m
		}
		if port := p.ChildNode("ItemPort"); port != nil {
			pd := parsePartPort(def.Name, port)
			def.Port = &pd
		}
		out = append(out, def)
	}
	return out
}

// Modifications lists the modification names the record declares.
func (impl *Implementation) Modifications() []string {
	var out []string
	for _, m := range impl.root.ChildNode("Modifications").ChildNodes("Modification") {
		out = append(out, m.Attr("name"))
	}
	return out
}

// WithModification returns a copy of impl with the named modification's
// element overrides applied. Each <Elem idRef name value> overwrites
// attribute name on the element whose id (or, failing that, name) equals
// idRef. Unknown modifications return impl unchanged with ok false.
//
// Postcondition: impl itself is never modified.
func (impl *Implementation) WithModification(name string) (merged *Implementation, ok bool) {
	if name == "" {
		return impl, true
	}
	var mod *record.Node
	for _, m := range impl.root.ChildNode("Modifications").ChildNodes("Modification") {
		if strings.EqualFold(m.Attr("name"), name) {
			mod = m
			break
		}
	}
	if mod == nil {
		return impl, false
	}

	root := impl.root.Clone()
	byID := make(map[string]*record.Node)
	byName := make(map[string]*record.Node)
	root.Walk(func(n *record.Node) bool {
		if n.Name == "Modifications" {
			return false
		}
		if id := n.Attr("id"); id != "" {
			byID[strings.ToLower(id)] = n
		}
		if nm := n.Attr("name"); nm != "" {
			if _, seen := byName[strings.ToLower(nm)]; !seen {
				byName[strings.ToLower(nm)] = n
			}
		}
		return true
	})
	for _, elem := range mod.ChildNode("Elems").ChildNodes("Elem") {
		key := strings.ToLower(elem.Attr("idRef"))
		target, found := byID[key]
		if !found {
			target, found = byName[key]
		}
		if !found {
			continue
		}
		target.SetAttr(elem.Attr("name"), elem.Attr("value"))
	}
	return decodeImplementation(impl.Reference, impl.ClassName, root), true
}
