package assembly

import (
	"github.com/cory-johannsen/shipyard/internal/entity"
)

// Part is a structural node of the assembled tree.
type Part struct {
	Name string `json:"Name"`

	// Mass is nil for virtual parts synthesised from unmatched loadout entries.
	Mass                       *float64 `json:"Mass,omitempty"`
	MaxDamage                  float64  `json:"MaxDamage,omitempty"`
	DestructionDamageThreshold float64  `json:"DestructionDamageThreshold,omitempty"`
	DetachDamageThreshold      float64  `json:"DetachDamageThreshold,omitempty"`
	Port                       *Port    `json:"Port,omitempty"`
	Parts                      []*Part  `json:"Parts,omitempty"`
}

// Virtual reports whether the part has no static definition.
func (p *Part) Virtual() bool { return p.Mass == nil }

// Port is a mount point on a part or on an installed item.
type Port struct {
	Name          string         `json:"PortName"`
	MinSize       int            `json:"MinSize,omitempty"`
	MaxSize       int            `json:"MaxSize,omitempty"`
	Types         []string       `json:"Types,omitempty"`
	Flags         []string       `json:"Flags,omitempty"`
	Category      string         `json:"Category,omitempty"`
	InstalledItem *InstalledItem `json:"InstalledItem,omitempty"`

	// Def is the declared port. Virtual ports have only a name.
	Def entity.PortDef `json:"-"`

	// Virtual is set on ports synthesised from unmatched loadout entries.
	Virtual bool `json:"-"`
}

// HasFlag reports whether the port carries flag.
func (p *Port) HasFlag(flag string) bool { return p.Def.HasFlag(flag) }

// InstalledItem is an item resolved into a port.
type InstalledItem struct {
	*entity.Item
	Ports []*Port `json:"Ports,omitempty"`

	// Terminal marks an item installed as a leaf because it already appears
	// higher up the same path.
	Terminal bool `json:"-"`
}

func newPort(def entity.PortDef) *Port {
	return &Port{
		Name:    def.Name,
		MinSize: def.MinSize,
		MaxSize: def.MaxSize,
		Types:   def.TypeNames(),
		Flags:   def.Flags,
		Def:     def,
	}
}

// WalkPorts visits every port of the tree depth-first, parts before their
// children and ports before the ports of their installed items. fn receives
// the part owning the subtree the port belongs to. Returning false skips
// the port's installed item.
func WalkPorts(parts []*Part, fn func(owner *Part, port *Port) bool) {
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.Port != nil {
			walkPort(p, p.Port, fn)
		}
		WalkPorts(p.Parts, fn)
	}
}

func walkPort(owner *Part, port *Port, fn func(*Part, *Port) bool) {
	if !fn(owner, port) || port.InstalledItem == nil {
		return
	}
	for _, child := range port.InstalledItem.Ports {
		walkPort(owner, child, fn)
	}
}

// WalkParts visits every part depth-first.
func WalkParts(parts []*Part, fn func(*Part)) {
	for _, p := range parts {
		if p == nil {
			continue
		}
		fn(p)
		WalkParts(p.Parts, fn)
	}
}

// Ports flattens the tree into its ports, in WalkPorts order.
func Ports(parts []*Part) []*Port {
	var out []*Port
	WalkPorts(parts, func(_ *Part, port *Port) bool {
		out = append(out, port)
		return true
	})
	return out
}

// HullMass sums the mass of every static part.
func HullMass(parts []*Part) float64 {
	var sum float64
	WalkParts(parts, func(p *Part) {
		if p.Mass != nil {
			sum += *p.Mass
		}
	})
	return sum
}

// LoadoutMass sums the mass of every installed item.
func LoadoutMass(parts []*Part) float64 {
	var sum float64
	WalkPorts(parts, func(_ *Part, port *Port) bool {
		if port.InstalledItem != nil && port.InstalledItem.Item != nil {
			sum += port.InstalledItem.Mass
		}
		return true
	})
	return sum
}
