package calc

import (
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// QuantumStats is the output of QuantumTravel.
type QuantumStats struct {
	Drive           string   `json:"Drive"`
	Speed           float64  `json:"Speed"`
	SpoolUpTime     float64  `json:"SpoolUpTime,omitempty"`
	CooldownTime    float64  `json:"CooldownTime,omitempty"`
	FuelRequirement float64  `json:"FuelRequirement"`
	JumpRange       float64  `json:"JumpRange,omitempty"`
	Range           *float64 `json:"Range,omitempty"`
}

// QuantumTravel reads the quantum drive and derives its range from the
// quantum fuel capacity reported by Propulsion.
type QuantumTravel struct{}

func (QuantumTravel) Name() string  { return "QuantumTravel" }
func (QuantumTravel) Priority() int { return BandDependent }

// CanRun requires an installed quantum drive.
func (QuantumTravel) CanRun(ctx *Context) bool {
	return len(ctx.Ports.Items(portclass.QuantumDrives)) > 0
}

// Run implements Calculator.
func (QuantumTravel) Run(ctx *Context) (Result, error) {
	qd := ctx.Ports.Items(portclass.QuantumDrives)[0]
	params := qd.Component("SCItemQuantumDriveParams")
	drive := params.Child("params")
	s := &QuantumStats{
		Drive:           qd.ClassName,
		Speed:           drive.Float("driveSpeed", 0),
		SpoolUpTime:     drive.Float("spoolUpTime", 0),
		CooldownTime:    drive.Float("cooldownTime", 0),
		FuelRequirement: params.Float("quantumFuelRequirement", 0),
		JumpRange:       params.Float("jumpRange", 0),
	}
	if prop, ok := Lookup[*PropulsionStats](ctx.Prior, "Propulsion"); ok && prop.QuantumFuelCapacity > 0 {
		s.Range = roundPtr(ratio(prop.QuantumFuelCapacity, s.FuelRequirement))
	}
	return Result{"QuantumTravel": s}, nil
}
