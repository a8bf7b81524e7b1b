package entity

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// Vehicle flags derived from the definition.
const (
	FlagGravlev   = "Gravlev"
	FlagGround    = "GroundVehicle"
	FlagSpaceship = "Spaceship"
	FlagNoParts   = "NoParts"
)

// Vehicle is the entity definition of a ship or ground vehicle.
type Vehicle struct {
	Reference    string `json:"Reference,omitempty"`
	ClassName    string `json:"ClassName"`
	Name         string `json:"Name,omitempty"`
	Type         string `json:"Type,omitempty"`
	SubType      string `json:"SubType,omitempty"`
	Size         int    `json:"Size,omitempty"`
	Manufacturer string `json:"Manufacturer,omitempty"`
	CrewSize     int    `json:"CrewSize,omitempty"`
	Career       string `json:"Career,omitempty"`
	Role         string `json:"Role,omitempty"`
	IsGravlev    bool   `json:"IsGravlev,omitempty"`

	// Definition is the reference id, class name or file path of the
	// implementation.
	Definition     string  `json:"-"`
	Modification   string  `json:"Modification,omitempty"`
	WeaponPoolSize float64 `json:"-"`

	DefaultLoadout []LoadoutEntry  `json:"-"`
	Components     record.Accessor `json:"-"`
}

// ErrNotAVehicle is returned when an entity declares no VehicleComponentParams.
type ErrNotAVehicle struct {
	ClassName string
}

func (e *ErrNotAVehicle) Error() string {
	return fmt.Sprintf("entity: %s declares no VehicleComponentParams", e.ClassName)
}

// DecodeVehicle maps an EntityClassDefinition record carrying
// VehicleComponentParams to a Vehicle.
//
// Postcondition: Returns a Vehicle, or *ErrNotAVehicle.
func DecodeVehicle(rec *record.Record) (*Vehicle, error) {
	comps := rec.Root.ChildNode("Components")
	params := comps.Child("VehicleComponentParams")
	if !params.Exists() {
		return nil, &ErrNotAVehicle{ClassName: rec.ClassName}
	}
	attach := comps.Child("SAttachableComponentParams/AttachDef")
	v := &Vehicle{
		Reference:      rec.Reference,
		ClassName:      rec.ClassName,
		Name:           params.Attr("vehicleName"),
		Type:           attach.Attr("Type"),
		SubType:        attach.Attr("SubType"),
		Size:           attach.Int("Size", 0),
		Manufacturer:   record.NormalizeRef(params.Attr("manufacturer")),
		CrewSize:       params.Int("crewSize", 0),
		Career:         params.Attr("vehicleCareer"),
		Role:           params.Attr("vehicleRole"),
		IsGravlev:      params.Bool("isGravlevVehicle"),
		Definition:     strings.TrimSpace(params.Attr("vehicleDefinition")),
		Modification:   strings.TrimSpace(params.Attr("modification")),
		WeaponPoolSize: comps.Child("SVehiclePowerPoolParams").Float("weaponPoolSize", 0),
		DefaultLoadout: ParseLoadout(comps.Child("SEntityComponentDefaultLoadoutParams")),
		Components:     comps,
	}
	if v.Manufacturer == "" {
		v.Manufacturer = record.NormalizeRef(attach.Attr("Manufacturer"))
	}
	return v, nil
}
