package calc

import (
	"github.com/cory-johannsen/shipyard/internal/cargo"
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// Resources reports cargo capacity through the injected resolver. Without
// one the calculator does not run.
type Resources struct {
	Cargo *cargo.Resolver
}

func (Resources) Name() string  { return "Resources" }
func (Resources) Priority() int { return BandIndependent }

// CanRun requires a cargo resolver.
func (r Resources) CanRun(*Context) bool { return r.Cargo != nil }

// Run implements Calculator.
func (r Resources) Run(ctx *Context) (Result, error) {
	if r.Cargo == nil {
		return nil, nil
	}
	in := cargo.Input{Ports: ctx.Ports.Ports(portclass.CargoGrids)}
	if ctx.Vehicle != nil {
		in.VehicleClass = ctx.Vehicle.ClassName
	}
	capacity, _ := r.Cargo.Resolve(in)
	if capacity.Total <= 0 {
		return nil, nil
	}
	return Result{"Cargo": capacity}, nil
}
