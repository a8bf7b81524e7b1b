// Package vehicle resolves one vehicle end to end: definition and
// implementation records, the assembled part tree, and the derived stats.
package vehicle

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/calc"
	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/portclass"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// Report is the resolved form of one vehicle.
type Report struct {
	Vehicle        *entity.Vehicle      `json:"Vehicle"`
	Manufacturer   *entity.Manufacturer `json:"Manufacturer,omitempty"`
	Implementation string               `json:"Implementation,omitempty"`
	Flags          []string             `json:"Flags,omitempty"`
	Parts          []*assembly.Part     `json:"Parts,omitempty"`
	Stats          calc.Result          `json:"Stats,omitempty"`
}

// Builder produces Reports. It holds only read-only collaborators and is
// safe for concurrent use as long as its calculators are.
type Builder struct {
	svc       *loader.Services
	assembler *assembly.Assembler
	ports     *portclass.Classifier
	pipeline  *calc.Orchestrator
	constants calc.Constants
	logger    *zap.Logger
}

// NewBuilder wires a Builder.
//
// Precondition: every argument must be non-nil.
func NewBuilder(
	svc *loader.Services,
	assembler *assembly.Assembler,
	ports *portclass.Classifier,
	pipeline *calc.Orchestrator,
	constants calc.Constants,
	logger *zap.Logger,
) *Builder {
	return &Builder{
		svc:       svc,
		assembler: assembler,
		ports:     ports,
		pipeline:  pipeline,
		constants: constants,
		logger:    logger,
	}
}

// Build resolves the vehicle named by key, a reference id or class name.
//
// Postcondition: returns loader.ErrNotFound, a *loader.TypeMismatchError or
// *entity.ErrNotAVehicle (wrapped) when the vehicle record itself cannot be
// used. A missing implementation yields a report without parts. Any
// unreadable source file met on the way is returned wrapping
// loader.ErrUnreadableSource.
func (b *Builder) Build(key string) (*Report, error) {
	v, err := b.svc.Vehicles.ByReferenceOrClass(key)
	if err != nil {
		return nil, fmt.Errorf("vehicle: Builder.Build: %s: %w", key, err)
	}
	log := b.logger.With(zap.String("vehicle", v.ClassName))

	impl, err := b.implementation(v)
	if err != nil {
		return nil, fmt.Errorf("vehicle: Builder.Build: %s: %w", v.ClassName, err)
	}
	if impl != nil && v.Modification != "" {
		modified, ok := impl.WithModification(v.Modification)
		if !ok {
			log.Warn("unknown modification", zap.String("modification", v.Modification))
		}
		impl = modified
	}

	var parts []entity.PartDef
	if impl != nil {
		parts = impl.Parts
	}
	tree, err := b.assembler.Assemble(parts, v.DefaultLoadout)
	if err != nil {
		return nil, fmt.Errorf("vehicle: Builder.Build: %s: %w", v.ClassName, err)
	}
	summary := b.ports.Annotate(tree)

	report := &Report{
		Vehicle: v,
		Flags:   Flags(v, impl),
		Parts:   tree,
	}
	if impl != nil {
		report.Implementation = impl.ClassName
	}
	if report.Manufacturer, err = b.manufacturer(v, log); err != nil {
		return nil, fmt.Errorf("vehicle: Builder.Build: %s: %w", v.ClassName, err)
	}

	ctx := &calc.Context{
		Vehicle:        v,
		Implementation: impl,
		Tree:           tree,
		Ports:          summary,
		Mass:           assembly.HullMass(tree),
		LoadoutMass:    assembly.LoadoutMass(tree),
		Flags:          report.Flags,
		Services:       b.svc,
		Constants:      b.constants,
	}
	stats, err := b.pipeline.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("vehicle: Builder.Build: %s: %w", v.ClassName, err)
	}
	report.Stats = stats
	log.Debug("vehicle built", zap.Int("ports", len(assembly.Ports(tree))), zap.Int("stats", len(stats)))
	return report, nil
}

// implementation resolves the vehicle's implementation record. The
// definition attribute names it by reference, class or file path; a path is
// retried by its base name, and the vehicle's own class name is tried last.
// Absence is not an error.
func (b *Builder) implementation(v *entity.Vehicle) (*entity.Implementation, error) {
	for _, key := range implementationKeys(v) {
		impl, err := b.svc.Implementations.ByReferenceOrClass(key)
		if err == nil {
			return impl, nil
		}
		if !loader.IsAbsent(err) {
			return nil, err
		}
	}
	b.logger.Debug("vehicle has no implementation",
		zap.String("vehicle", v.ClassName),
		zap.String("definition", v.Definition),
	)
	return nil, nil
}

// implementationKeys lists the lookup keys for v's implementation in the
// order they are tried, without duplicates.
func implementationKeys(v *entity.Vehicle) []string {
	var keys []string
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		for _, have := range keys {
			if strings.EqualFold(have, k) {
				return
			}
		}
		keys = append(keys, k)
	}
	add(v.Definition)
	if v.Definition != "" && !record.IsReference(v.Definition) {
		base := path.Base(strings.ReplaceAll(v.Definition, `\`, "/"))
		if ext := path.Ext(base); strings.EqualFold(ext, ".xml") {
			base = strings.TrimSuffix(base, ext)
		}
		add(base)
	}
	add(v.ClassName)
	return keys
}

func (b *Builder) manufacturer(v *entity.Vehicle, log *zap.Logger) (*entity.Manufacturer, error) {
	if v.Manufacturer == "" {
		return nil, nil
	}
	m, err := b.svc.Manufacturers.ByReferenceOrClass(v.Manufacturer)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, loader.ErrUnreadableSource):
		return nil, err
	case !loader.IsAbsent(err):
		log.Warn("loading manufacturer", zap.Error(err))
	}
	return nil, nil
}

// Flags derives the vehicle flags calculators branch on.
func Flags(v *entity.Vehicle, impl *entity.Implementation) []string {
	var flags []string
	ground := v.IsGravlev || strings.Contains(strings.ToLower(v.SubType), "ground")
	if !ground && impl != nil && impl.Movement != nil {
		for _, mode := range []string{calc.DriveArcade, calc.DrivePhysical, calc.DriveTracked} {
			if impl.Movement.Child(mode).Exists() {
				ground = true
				break
			}
		}
	}
	if ground {
		flags = append(flags, entity.FlagGround)
	} else {
		flags = append(flags, entity.FlagSpaceship)
	}
	if v.IsGravlev {
		flags = append(flags, entity.FlagGravlev)
	}
	if impl == nil || len(impl.Parts) == 0 {
		flags = append(flags, entity.FlagNoParts)
	}
	return flags
}
