// Package entity maps parsed source records onto the structured records the
// engine works with. The mappers here are deliberately shallow: they lift
// identity, attachment, port and loadout data, and leave component
// parameter blocks to calculators through record.Accessor.
package entity

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// Classifier maps an item's (type, subtype) pair to a dotted classification.
type Classifier func(typ, subType string) string

// Item is the standard view of an attachable item.
type Item struct {
	Reference      string   `json:"Reference,omitempty"`
	ClassName      string   `json:"ClassName"`
	Name           string   `json:"Name,omitempty"`
	Type           string   `json:"Type,omitempty"`
	SubType        string   `json:"SubType,omitempty"`
	Classification string   `json:"Classification,omitempty"`
	Size           int      `json:"Size,omitempty"`
	Grade          int      `json:"Grade,omitempty"`
	Manufacturer   string   `json:"Manufacturer,omitempty"`
	Mass           float64  `json:"Mass,omitempty"`
	Tags           []string `json:"Tags,omitempty"`

	Ports          []PortDef       `json:"-"`
	DefaultLoadout []LoadoutEntry  `json:"-"`
	Components     record.Accessor `json:"-"`
}

// Identity returns the key used to detect an item recurring along one
// assembly path: its reference id, or its class name when it has none.
func (it *Item) Identity() string {
	if it.Reference != "" {
		return it.Reference
	}
	return it.ClassName
}

// Component returns the named component parameter block.
func (it *Item) Component(name string) record.Accessor {
	return it.Components.Child(name)
}

// IsType reports whether the item's type equals any of types, case-insensitively.
func (it *Item) IsType(types ...string) bool {
	for _, t := range types {
		if strings.EqualFold(it.Type, t) {
			return true
		}
	}
	return false
}

// DecodeItem maps an EntityClassDefinition record to an Item. classify may
// be nil, in which case Classification is left empty.
//
// Precondition: rec must be non-nil.
// Postcondition: Returns a non-nil Item; never fails on missing components.
func DecodeItem(rec *record.Record, classify Classifier) (*Item, error) {
	comps := rec.Root.ChildNode("Components")
	attach := comps.Child("SAttachableComponentParams/AttachDef")
	it := &Item{
		Reference:    rec.Reference,
		ClassName:    rec.ClassName,
		Name:         attach.Child("Localization").Attr("Name"),
		Type:         attach.Attr("Type"),
		SubType:      attach.Attr("SubType"),
		Size:         attach.Int("Size", 0),
		Grade:        attach.Int("Grade", 0),
		Manufacturer: record.NormalizeRef(attach.Attr("Manufacturer")),
		Mass:         comps.Find("SEntityRigidPhysicsControllerParams").Float("Mass", 0),
		Tags:         splitList(attach.Attr("Tags")),
		Components:   comps,
	}
	if classify != nil && it.Type != "" {
		it.Classification = classify(it.Type, it.SubType)
	}
	for _, p := range comps.Child("SItemPortContainerComponentParams/Ports").Children("SItemPortDef") {
		it.Ports = append(it.Ports, parseItemPort(p))
	}
	it.DefaultLoadout = ParseLoadout(comps.Child("SEntityComponentDefaultLoadoutParams"))
	return it, nil
}
