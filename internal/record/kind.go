package record

// Kind is the declared type of a record, encoded in its root element.
type Kind string

// Declared kinds understood by the loaders.
const (
	KindEntity           Kind = "EntityClassDefinition"
	KindVehicle          Kind = "VehicleDefinition"
	KindAmmo             Kind = "AmmoParams"
	KindManufacturer     Kind = "SCItemManufacturer"
	KindDamageResistance Kind = "DamageResistanceMacro"
	KindBlueprint        Kind = "CraftingBlueprintRecord"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }
