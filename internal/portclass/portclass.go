// Package portclass sorts assembled ports into human-facing categories and
// groups them into the port summary calculators read.
package portclass

import (
	"sort"
	"strings"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/resolve"
)

// Categories assigned by the default rules.
const (
	WeaponHardpoints     = "Weapon hardpoints"
	Turrets              = "Turrets"
	MissileRacks         = "Missile racks"
	MiningHardpoints     = "Mining hardpoints"
	ShieldGenerators     = "Shield generators"
	PowerPlants          = "Power plants"
	Coolers              = "Coolers"
	QuantumDrives        = "Quantum drives"
	QuantumFuelTanks     = "Quantum fuel tanks"
	FuelTanks            = "Hydrogen fuel tanks"
	FuelIntakes          = "Hydrogen fuel intakes"
	MainThrusters        = "Main thrusters"
	ManeuveringThrusters = "Maneuvering thrusters"
	Radars               = "Radars"
	Armor                = "Armor"
	FlightControllers    = "Flight controllers"
	CargoGrids           = "Cargo grids"
	LifeSupport          = "Life support"
	Countermeasures      = "Countermeasures"
	Interdiction         = "Quantum interdiction"
	Seats                = "Seats"
	Other                = "Other"
)

// Rule maps a port to a category.
type Rule = resolve.Rule[*assembly.Port, string]

// ByType returns a rule matching ports whose installed item has one of
// types, or, for empty ports, that accept one of types.
func ByType(category string, types ...string) Rule {
	return resolve.RuleFunc[*assembly.Port, string]{
		Name: category,
		When: func(p *assembly.Port) bool {
			if p.InstalledItem != nil && p.InstalledItem.Item != nil {
				return p.InstalledItem.IsType(types...)
			}
			for _, t := range types {
				if p.Def.Accepts(t) {
					return true
				}
			}
			return false
		},
		Then: func(*assembly.Port) string { return category },
	}
}

// ByName returns a rule matching ports whose name contains fragment.
func ByName(category, fragment string) Rule {
	fragment = strings.ToLower(fragment)
	return resolve.RuleFunc[*assembly.Port, string]{
		Name: category,
		When: func(p *assembly.Port) bool { return strings.Contains(strings.ToLower(p.Name), fragment) },
		Then: func(*assembly.Port) string { return category },
	}
}

// DefaultRules is the built-in ordered rule list.
func DefaultRules() []Rule {
	return []Rule{
		ByType(WeaponHardpoints, "WeaponGun"),
		ByType(MiningHardpoints, "WeaponMining"),
		ByType(Turrets, "Turret", "TurretBase"),
		ByType(MissileRacks, "MissileLauncher", "Missile", "BombLauncher"),
		ByType(ShieldGenerators, "Shield"),
		ByType(PowerPlants, "PowerPlant"),
		ByType(Coolers, "Cooler"),
		ByType(QuantumDrives, "QuantumDrive"),
		ByType(QuantumFuelTanks, "QuantumFuelTank"),
		ByType(FuelTanks, "FuelTank"),
		ByType(FuelIntakes, "FuelIntake"),
		ByType(MainThrusters, "MainThruster"),
		ByType(ManeuveringThrusters, "ManneuverThruster"),
		ByType(Radars, "Radar"),
		ByType(Armor, "Armor"),
		ByType(FlightControllers, "FlightController"),
		ByType(CargoGrids, "CargoGrid", "Cargo"),
		ByType(LifeSupport, "LifeSupportGenerator"),
		ByType(Countermeasures, "WeaponDefensive"),
		ByType(Interdiction, "QuantumInterdictionGenerator", "EMP"),
		ByType(Seats, "Seat", "SeatAccess"),
		ByName(Seats, "seat"),
	}
}

// Classifier applies an ordered rule list; the first match wins and ports
// no rule matches fall into Other.
type Classifier struct {
	rules resolve.Rules[*assembly.Port, string]
}

// New returns a Classifier over rules.
func New(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefault returns a Classifier over DefaultRules.
func NewDefault() *Classifier {
	return New(DefaultRules()...)
}

// Categorize returns the category of p.
func (c *Classifier) Categorize(p *assembly.Port) string {
	if cat, ok := c.rules.First(p); ok && cat != "" {
		return cat
	}
	return Other
}

// Annotate sets Category on every port of the tree and returns the summary.
func (c *Classifier) Annotate(parts []*assembly.Part) Summary {
	s := make(Summary)
	assembly.WalkPorts(parts, func(_ *assembly.Part, p *assembly.Port) bool {
		p.Category = c.Categorize(p)
		s[p.Category] = append(s[p.Category], p)
		return true
	})
	return s
}

// Summary groups ports by category, in tree order within each category.
type Summary map[string][]*assembly.Port

// Ports returns the ports of category.
func (s Summary) Ports(category string) []*assembly.Port {
	return s[category]
}

// Items returns the items installed in ports of the given categories.
func (s Summary) Items(categories ...string) []*assembly.InstalledItem {
	var out []*assembly.InstalledItem
	for _, cat := range categories {
		for _, p := range s[cat] {
			if p.InstalledItem != nil && p.InstalledItem.Item != nil {
				out = append(out, p.InstalledItem)
			}
		}
	}
	return out
}

// AllItems returns every installed item, ordered by category name.
func (s Summary) AllItems() []*assembly.InstalledItem {
	return s.Items(s.Categories()...)
}

// Categories returns the non-empty categories, sorted.
func (s Summary) Categories() []string {
	out := make([]string, 0, len(s))
	for cat, ports := range s {
		if len(ports) > 0 {
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

// Counts returns the number of ports per category.
func (s Summary) Counts() map[string]int {
	out := make(map[string]int, len(s))
	for cat, ports := range s {
		out[cat] = len(ports)
	}
	return out
}
