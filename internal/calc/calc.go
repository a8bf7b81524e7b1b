// Package calc runs the ordered calculator pipeline over an assembled
// vehicle tree and collects each calculator's named output.
package calc

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/cargo"
	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// Priority bands. A calculator may only read prior results produced by a
// lower band.
const (
	BandFoundational = 0
	BandDependent    = 100
	BandIndependent  = 200
)

// Result maps output keys to calculator values.
type Result map[string]any

// Lookup returns r[key] as a T.
func Lookup[T any](r Result, key string) (T, bool) {
	v, ok := r[key].(T)
	return v, ok
}

// Constants holds the empirical tuning values calculators use.
type Constants struct {
	ShieldRegenFactor      float64
	FrictionCap            float64
	SuspensionStiffnessCap float64
	TorqueScaleCap         float64
}

// DefaultConstants returns the stock tuning values.
func DefaultConstants() Constants {
	return Constants{
		ShieldRegenFactor:      0.66,
		FrictionCap:            3,
		SuspensionStiffnessCap: 150000,
		TorqueScaleCap:         4,
	}
}

// Context is the read-only input to every calculator, plus the results
// accumulated so far in one pipeline execution.
type Context struct {
	Vehicle        *entity.Vehicle
	Implementation *entity.Implementation
	Tree           []*assembly.Part
	Ports          portclass.Summary
	// Mass is the hull mass; LoadoutMass the mass of every installed item.
	Mass        float64
	LoadoutMass float64
	Flags       []string
	Prior       Result

	Services  *loader.Services
	Constants Constants
}

// HasFlag reports whether the vehicle carries flag.
func (c *Context) HasFlag(flag string) bool {
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Calculator produces one named slice of the derived stats.
type Calculator interface {
	// Name identifies the calculator in logs.
	Name() string
	// Priority places the calculator in a band; lower runs first.
	Priority() int
	// CanRun reports whether the vehicle carries the data the calculator needs.
	CanRun(ctx *Context) bool
	// Run computes the calculator's output keys.
	Run(ctx *Context) (Result, error)
}

// Orchestrator runs calculators in ascending priority. Calculators sharing
// a priority keep their registration order.
type Orchestrator struct {
	calculators []Calculator
	logger      *zap.Logger
}

// NewOrchestrator sorts calculators by priority.
//
// Precondition: logger must be non-nil.
func NewOrchestrator(logger *zap.Logger, calculators ...Calculator) *Orchestrator {
	sorted := make([]Calculator, len(calculators))
	copy(sorted, calculators)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Orchestrator{calculators: sorted, logger: logger}
}

// Calculators returns the calculators in execution order.
func (o *Orchestrator) Calculators() []Calculator {
	out := make([]Calculator, len(o.calculators))
	copy(out, o.calculators)
	return out
}

// Run executes the pipeline against ctx.
//
// Postcondition: ctx.Prior holds every output produced; the returned Result
// is the same mapping with nil values omitted. A calculator error aborts
// the pipeline.
func (o *Orchestrator) Run(ctx *Context) (Result, error) {
	if ctx.Prior == nil {
		ctx.Prior = make(Result)
	}
	out := make(Result)
	for _, c := range o.calculators {
		if !c.CanRun(ctx) {
			o.logger.Debug("calculator skipped", zap.String("calculator", c.Name()))
			continue
		}
		res, err := c.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("calc: Orchestrator.Run: %s: %w", c.Name(), err)
		}
		for k, v := range res {
			if isNil(v) {
				continue
			}
			out[k] = v
			ctx.Prior[k] = v
		}
	}
	return out, nil
}

// Standard returns the built-in calculators. Cargo capacity is reported
// through resolver; a nil resolver leaves Resources idle.
func Standard(resolver *cargo.Resolver) []Calculator {
	return []Calculator{
		Mass{},
		Propulsion{},
		Flight{},
		Drive{},
		QuantumTravel{},
		Emission{},
		Health{},
		Shields{},
		Weapons{},
		Resources{Cargo: resolver},
	}
}
