package classify

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/resolve"
)

// shipTypes are item types installed on vehicles.
var shipTypes = map[string]bool{
	"Armor":                        true,
	"BombLauncher":                 true,
	"Cargo":                        true,
	"CargoGrid":                    true,
	"Cooler":                       true,
	"EMP":                          true,
	"FlightController":             true,
	"FuelIntake":                   true,
	"FuelTank":                     true,
	"LifeSupportGenerator":         true,
	"MainThruster":                 true,
	"ManneuverThruster":            true,
	"Missile":                      true,
	"MissileLauncher":              true,
	"MiningModifier":               true,
	"Paints":                       true,
	"PowerPlant":                   true,
	"QuantumDrive":                 true,
	"QuantumFuelTank":              true,
	"QuantumInterdictionGenerator": true,
	"Radar":                        true,
	"SelfDestruct":                 true,
	"Shield":                       true,
	"ShieldController":             true,
	"ToolArm":                      true,
	"Turret":                       true,
	"TurretBase":                   true,
	"WeaponDefensive":              true,
	"WeaponGun":                    true,
	"WeaponMining":                 true,
	"WeaponRegenPool":              true,
}

// fpsWeaponTypes are hand-held weapon and attachment types.
var fpsWeaponTypes = map[string]bool{
	"WeaponPersonal":   true,
	"WeaponAttachment": true,
	"Grenade":          true,
	"Knife":            true,
}

func dotted(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

func typeIn(set map[string]bool) func(Key) bool {
	return func(k Key) bool { return set[k.Type] }
}

func prefixed(prefix string) func(Key) bool {
	return func(k Key) bool { return strings.HasPrefix(k.Type, prefix) }
}

func under(root string) func(Key) string {
	return func(k Key) string { return dotted(root, k.Type, k.SubType) }
}

// DefaultRules is the built-in ordered rule list.
func DefaultRules() []Rule {
	return []Rule{
		resolve.RuleFunc[Key, string]{
			Name: "vehicle",
			When: func(k Key) bool { return k.Type == "NOITEM_Vehicle" },
			Then: func(k Key) string { return dotted("Vehicle", strings.TrimPrefix(k.SubType, "Vehicle_")) },
		},
		resolve.RuleFunc[Key, string]{Name: "ship", When: typeIn(shipTypes), Then: under("Ship")},
		resolve.RuleFunc[Key, string]{
			Name: "fps weapon",
			When: typeIn(fpsWeaponTypes),
			Then: func(k Key) string { return dotted("FPS", "Weapon", k.Type, k.SubType) },
		},
		resolve.RuleFunc[Key, string]{
			Name: "character armor",
			When: prefixed("Char_Armor"),
			Then: func(k Key) string {
				return dotted("FPS", "Armor", strings.TrimPrefix(k.Type, "Char_Armor_"), k.SubType)
			},
		},
		resolve.RuleFunc[Key, string]{
			Name: "character clothing",
			When: prefixed("Char_Clothing"),
			Then: func(k Key) string {
				return dotted("FPS", "Clothing", strings.TrimPrefix(k.Type, "Char_Clothing_"), k.SubType)
			},
		},
		resolve.RuleFunc[Key, string]{
			Name: "unclassified",
			When: func(k Key) bool { return k.Type == "" || strings.HasPrefix(k.Type, "NOITEM") },
			Then: func(Key) string { return "" },
		},
		resolve.RuleFunc[Key, string]{Name: "other", Then: func(k Key) string { return dotted(k.Type, k.SubType) }},
	}
}

// NewDefault returns an Engine over DefaultRules.
func NewDefault() *Engine {
	return New(DefaultRules()...)
}
