package calc

import (
	"sort"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// FlightStats is the output of Flight.
type FlightStats struct {
	Controller         string  `json:"Controller"`
	ScmSpeed           float64 `json:"ScmSpeed"`
	MaxSpeed           float64 `json:"MaxSpeed"`
	BoostSpeedForward  float64 `json:"BoostSpeedForward,omitempty"`
	BoostSpeedBackward float64 `json:"BoostSpeedBackward,omitempty"`
	Pitch              float64 `json:"Pitch"`
	Yaw                float64 `json:"Yaw"`
	Roll               float64 `json:"Roll"`

	// Acceleration and AccelerationG are keyed by thruster class.
	Acceleration  map[string]float64 `json:"Acceleration,omitempty"`
	AccelerationG map[string]float64 `json:"AccelerationG,omitempty"`
}

// Flight reads the flight controller and derives accelerations from the
// Propulsion and Mass outputs.
type Flight struct{}

func (Flight) Name() string  { return "FlightCharacteristics" }
func (Flight) Priority() int { return BandDependent }

// CanRun requires an installed flight controller.
func (Flight) CanRun(ctx *Context) bool {
	return flightController(ctx) != nil
}

// Run implements Calculator.
func (Flight) Run(ctx *Context) (Result, error) {
	ctl := flightController(ctx)
	ifcs := ctl.Component("IFCSParams")
	ang := ifcs.Child("maxAngularVelocity")
	s := &FlightStats{
		Controller:         ctl.ClassName,
		ScmSpeed:           ifcs.Float("scmSpeed", 0),
		MaxSpeed:           ifcs.Float("maxSpeed", 0),
		BoostSpeedForward:  ifcs.Float("boostSpeedForward", 0),
		BoostSpeedBackward: ifcs.Float("boostSpeedBackward", 0),
		Pitch:              ang.Float("x", 0),
		Yaw:                ang.Float("z", 0),
		Roll:               ang.Float("y", 0),
	}

	prop, okProp := Lookup[*PropulsionStats](ctx.Prior, "Propulsion")
	mass, okMass := Lookup[*MassStats](ctx.Prior, "Mass")
	if okProp && okMass {
		classes := make([]string, 0, len(prop.ThrustCapacity))
		for class := range prop.ThrustCapacity {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		for _, class := range classes {
			a := ratio(prop.ThrustCapacity[class], mass.Total)
			if a == nil {
				continue
			}
			if s.Acceleration == nil {
				s.Acceleration = make(map[string]float64)
				s.AccelerationG = make(map[string]float64)
			}
			s.Acceleration[class] = round(*a, 3)
			s.AccelerationG[class] = round(*a/Gravity, 3)
		}
	}
	return Result{"FlightCharacteristics": s}, nil
}

func flightController(ctx *Context) *assembly.InstalledItem {
	items := ctx.Ports.Items(portclass.FlightControllers)
	if len(items) == 0 {
		return nil
	}
	return items[0]
}
