package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/loader"
)

// BlueprintItem is a resolved blueprint output or ingredient. Only Class is
// set when the item could not be loaded.
type BlueprintItem struct {
	Class    string  `json:"Class"`
	Name     string  `json:"Name,omitempty"`
	Type     string  `json:"Type,omitempty"`
	Quantity float64 `json:"Quantity,omitempty"`
}

// BlueprintReport is the resolved form of one crafting blueprint.
type BlueprintReport struct {
	Blueprint   string          `json:"Blueprint"`
	Output      *BlueprintItem  `json:"Output,omitempty"`
	CraftTime   float64         `json:"CraftTime,omitempty"`
	Ingredients []BlueprintItem `json:"Ingredients,omitempty"`
}

// Blueprints resolves blueprint reports through the loader services.
type Blueprints struct {
	svc    *loader.Services
	logger *zap.Logger
}

// NewBlueprints wires a blueprint report builder.
//
// Precondition: svc and logger must be non-nil.
func NewBlueprints(svc *loader.Services, logger *zap.Logger) *Blueprints {
	return &Blueprints{svc: svc, logger: logger}
}

// Build resolves the blueprint named by key.
//
// Postcondition: returns an error when the blueprint record itself cannot
// be loaded or any source file is unreadable. Unresolvable items are kept
// with their class only.
func (b *Blueprints) Build(key string) (*BlueprintReport, error) {
	bp, err := b.svc.Blueprints.ByReferenceOrClass(key)
	if err != nil {
		return nil, fmt.Errorf("importer: Blueprints.Build: %s: %w", key, err)
	}
	r := &BlueprintReport{Blueprint: bp.ClassName, CraftTime: bp.CraftTime}
	if bp.Output != "" {
		out, err := b.item(bp.ClassName, bp.Output)
		if err != nil {
			return nil, fmt.Errorf("importer: Blueprints.Build: %s: %w", bp.ClassName, err)
		}
		r.Output = &out
	}
	for _, in := range bp.Ingredients {
		class := in.ClassName
		if class == "" {
			class = in.ClassReference
		}
		it, err := b.item(bp.ClassName, class)
		if err != nil {
			return nil, fmt.Errorf("importer: Blueprints.Build: %s: %w", bp.ClassName, err)
		}
		it.Quantity = in.Quantity
		r.Ingredients = append(r.Ingredients, it)
	}
	return r, nil
}

func (b *Blueprints) item(blueprint, key string) (BlueprintItem, error) {
	it, err := b.svc.Items.ByReferenceOrClass(key)
	if err != nil {
		if errors.Is(err, loader.ErrUnreadableSource) {
			return BlueprintItem{}, err
		}
		if !loader.IsAbsent(err) {
			b.logger.Warn("loading blueprint item",
				zap.String("blueprint", blueprint),
				zap.String("item", key),
				zap.Error(err),
			)
		}
		return BlueprintItem{Class: key}, nil
	}
	return BlueprintItem{Class: it.ClassName, Name: it.Name, Type: it.Type}, nil
}
