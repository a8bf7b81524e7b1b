package entity

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// Damage types carried by ammunition and resistance records.
var DamageTypes = []string{"Physical", "Energy", "Distortion", "Thermal", "Biochemical", "Stun"}

// Ammo is an AmmoParams record.
type Ammo struct {
	Reference string             `json:"Reference,omitempty"`
	ClassName string             `json:"ClassName"`
	Speed     float64            `json:"Speed,omitempty"`
	Lifetime  float64            `json:"Lifetime,omitempty"`
	Range     float64            `json:"Range,omitempty"`
	Damage    map[string]float64 `json:"Damage,omitempty"`
}

// TotalDamage sums every damage type.
func (a *Ammo) TotalDamage() float64 {
	var sum float64
	for _, v := range a.Damage {
		sum += v
	}
	return sum
}

// DecodeAmmo maps an AmmoParams record.
func DecodeAmmo(rec *record.Record) (*Ammo, error) {
	root := rec.Root
	a := &Ammo{
		Reference: rec.Reference,
		ClassName: rec.ClassName,
		Speed:     root.Float("speed", 0),
		Lifetime:  root.Float("lifetime", 0),
	}
	a.Range = a.Speed * a.Lifetime
	info := root.Find("DamageInfo")
	for _, dt := range DamageTypes {
		if v := info.Float("Damage"+dt, 0); v != 0 {
			if a.Damage == nil {
				a.Damage = make(map[string]float64)
			}
			a.Damage[dt] = v
		}
	}
	return a, nil
}

// Manufacturer is an SCItemManufacturer record.
type Manufacturer struct {
	Reference string `json:"Reference,omitempty"`
	ClassName string `json:"ClassName"`
	Code      string `json:"Code,omitempty"`
	Name      string `json:"Name,omitempty"`
}

// DecodeManufacturer maps an SCItemManufacturer record.
func DecodeManufacturer(rec *record.Record) (*Manufacturer, error) {
	return &Manufacturer{
		Reference: rec.Reference,
		ClassName: rec.ClassName,
		Code:      rec.Root.Attr("Code"),
		Name:      rec.Root.Child("Localization").Attr("Name"),
	}, nil
}

// DamageResistance is a DamageResistanceMacro record: per damage type
// multipliers applied to incoming damage.
type DamageResistance struct {
	Reference   string             `json:"Reference,omitempty"`
	ClassName   string             `json:"ClassName"`
	Multipliers map[string]float64 `json:"Multipliers,omitempty"`
}

// DecodeDamageResistance maps a DamageResistanceMacro record.
func DecodeDamageResistance(rec *record.Record) (*DamageResistance, error) {
	dr := &DamageResistance{Reference: rec.Reference, ClassName: rec.ClassName}
	block := rec.Root.ChildNode("damageResistance")
	for _, dt := range DamageTypes {
		n := block.ChildNode(dt + "Resistance")
		if n == nil {
			continue
		}
		if dr.Multipliers == nil {
			dr.Multipliers = make(map[string]float64)
		}
		dr.Multipliers[dt] = n.Float("Multiplier", 1)
	}
	return dr, nil
}

// Ingredient is one input of a crafting blueprint.
type Ingredient struct {
	ClassName      string  `json:"ClassName,omitempty"`
	ClassReference string  `json:"ClassReference,omitempty"`
	Quantity       float64 `json:"Quantity"`
}

// Blueprint is a CraftingBlueprintRecord.
type Blueprint struct {
	Reference   string       `json:"Reference,omitempty"`
	ClassName   string       `json:"ClassName"`
	Output      string       `json:"Output,omitempty"`
	CraftTime   float64      `json:"CraftTime,omitempty"`
	Ingredients []Ingredient `json:"Ingredients,omitempty"`
}

// DecodeBlueprint maps a CraftingBlueprintRecord.
func DecodeBlueprint(rec *record.Record) (*Blueprint, error) {
	root := rec.Root
	bp := &Blueprint{
		Reference: rec.Reference,
		ClassName: rec.ClassName,
		Output:    strings.TrimSpace(root.Attr("outputEntity")),
		CraftTime: root.Float("craftTime", 0),
	}
	for _, in := range root.ChildNode("ingredients").ChildNodes("Ingredient") {
		ing := Ingredient{Quantity: in.Float("quantity", 1)}
		class := strings.TrimSpace(in.Attr("entityClass"))
		if record.IsReference(class) {
			ing.ClassReference = record.NormalizeRef(class)
		} else {
			ing.ClassName = class
		}
		bp.Ingredients = append(bp.Ingredients, ing)
	}
	return bp, nil
}
