package calc

import (
	"math"

	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// Drive modes.
const (
	DriveArcade   = "ArcadeWheeled"
	DrivePhysical = "PhysicalWheeled"
	DriveTracked  = "TankTracked"
)

// DriveStats is the output of Drive.
type DriveStats struct {
	Mode          string   `json:"Mode"`
	TopSpeed      float64  `json:"TopSpeed"`
	ReverseSpeed  float64  `json:"ReverseSpeed,omitempty"`
	Acceleration  float64  `json:"Acceleration,omitempty"`
	Deceleration  float64  `json:"Deceleration,omitempty"`
	ZeroToMax     *float64 `json:"ZeroToMax,omitempty"`
	ZeroToReverse *float64 `json:"ZeroToReverse,omitempty"`
	Agility       *Agility `json:"Agility,omitempty"`
}

// Agility scores physical handling in [0, 1], normalised by the configured
// caps.
type Agility struct {
	Friction   float64 `json:"Friction"`
	Suspension float64 `json:"Suspension"`
	Torque     float64 `json:"Torque"`
	Overall    float64 `json:"Overall"`
}

// Drive describes ground-vehicle handling.
type Drive struct{}

func (Drive) Name() string  { return "DriveCharacteristics" }
func (Drive) Priority() int { return BandDependent }

// CanRun requires a ground vehicle with movement parameters.
func (Drive) CanRun(ctx *Context) bool {
	if !ctx.HasFlag(entity.FlagGround) || ctx.Implementation == nil {
		return false
	}
	mode, _ := driveMode(ctx.Implementation.Movement)
	return mode != ""
}

// Run implements Calculator.
func (Drive) Run(ctx *Context) (Result, error) {
	mode, params := driveMode(ctx.Implementation.Movement)
	power := params.Child("Power")
	s := &DriveStats{
		Mode:         mode,
		TopSpeed:     power.Float("topSpeed", 0),
		ReverseSpeed: power.Float("reverseSpeed", 0),
		Acceleration: power.Float("acceleration", 0),
		Deceleration: power.Float("deceleration", power.Float("decceleration", 0)),
	}
	s.ZeroToMax = roundPtr(ratio(s.TopSpeed, s.Acceleration))
	s.ZeroToReverse = roundPtr(ratio(s.ReverseSpeed, s.Acceleration))
	if mode == DrivePhysical {
		s.Agility = agility(params.Child("Wheels").Children("Wheel"), ctx.Constants)
	}
	return Result{"DriveCharacteristics": s}, nil
}

// driveMode returns the first movement mode declared, in dispatch order.
func driveMode(movement record.Accessor) (string, record.Accessor) {
	if movement == nil {
		return "", (*record.Node)(nil)
	}
	for _, mode := range []string{DriveArcade, DrivePhysical, DriveTracked} {
		if p := movement.Child(mode); p.Exists() {
			return mode, p
		}
	}
	return "", movement
}

func agility(wheels []record.Accessor, k Constants) *Agility {
	if len(wheels) == 0 {
		return nil
	}
	var friction, suspension, torque float64
	for _, w := range wheels {
		friction += w.Float("friction", 0)
		suspension += w.Float("suspensionStiffness", 0)
		torque += w.Float("torqueScale", 0)
	}
	n := float64(len(wheels))
	a := &Agility{
		Friction:   normalise(friction/n, k.FrictionCap),
		Suspension: normalise(suspension/n, k.SuspensionStiffnessCap),
		Torque:     normalise(torque/n, k.TorqueScaleCap),
	}
	a.Overall = round((a.Friction+a.Suspension+a.Torque)/3, 3)
	return a
}

// normalise maps v onto [0, 1] against limit.
func normalise(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return round(math.Max(0, math.Min(1, v/limit)), 3)
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(round(*v, 3))
}
