package loader

import (
	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/index"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// Services bundles one loader per record kind. It is the read-only context
// handed to every resolver; nothing in it is mutated after construction.
type Services struct {
	Index             *index.Index
	Items             *Loader[*entity.Item]
	Vehicles          *Loader[*entity.Vehicle]
	Implementations   *Loader[*entity.Implementation]
	Ammunition        *Loader[*entity.Ammo]
	Manufacturers     *Loader[*entity.Manufacturer]
	DamageResistances *Loader[*entity.DamageResistance]
	Blueprints        *Loader[*entity.Blueprint]
}

// NewServices wires loaders for every kind over ix. classify is applied to
// each loaded item and may be nil.
//
// Precondition: ix must be non-nil.
// Postcondition: every loader field is non-nil.
func NewServices(ix *index.Index, classify entity.Classifier) *Services {
	return &Services{
		Index: ix,
		Items: New(ix, record.KindEntity, func(rec *record.Record) (*entity.Item, error) {
			return entity.DecodeItem(rec, classify)
		}),
		Vehicles:          New(ix, record.KindEntity, entity.DecodeVehicle),
		Implementations:   New(ix, record.KindVehicle, entity.DecodeImplementation),
		Ammunition:        New(ix, record.KindAmmo, entity.DecodeAmmo),
		Manufacturers:     New(ix, record.KindManufacturer, entity.DecodeManufacturer),
		DamageResistances: New(ix, record.KindDamageResistance, entity.DecodeDamageResistance),
		Blueprints:        New(ix, record.KindBlueprint, entity.DecodeBlueprint),
	}
}
