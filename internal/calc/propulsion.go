package calc

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// Thruster classes.
const (
	ThrustMain        = "Main"
	ThrustRetro       = "Retro"
	ThrustVTOL        = "VTOL"
	ThrustManeuvering = "Maneuvering"
)

// PropulsionStats is the output of Propulsion. Ratio fields are always
// emitted, as null when undefined.
type PropulsionStats struct {
	FuelCapacity        float64            `json:"FuelCapacity"`
	FuelIntakeRate      float64            `json:"FuelIntakeRate"`
	QuantumFuelCapacity float64            `json:"QuantumFuelCapacity,omitempty"`
	ThrustCapacity      map[string]float64 `json:"ThrustCapacity"`
	FuelUsage           map[string]float64 `json:"FuelUsage"`

	IntakeToMainFuelRatio     *float64 `json:"IntakeToMainFuelRatio"`
	IntakeToTankCapacityRatio *float64 `json:"IntakeToTankCapacityRatio"`
	TimeForIntakesToFillTank  *float64 `json:"TimeForIntakesToFillTank"`
	MainTimeTillEmpty         *float64 `json:"MainTimeTillEmpty"`
	ManeuveringTimeTillEmpty  *float64 `json:"ManeuveringTimeTillEmpty"`
}

// Propulsion aggregates thrusters, fuel tanks and fuel intakes.
type Propulsion struct{}

func (Propulsion) Name() string         { return "Propulsion" }
func (Propulsion) Priority() int        { return BandFoundational }
func (Propulsion) CanRun(*Context) bool { return true }

// Run implements Calculator.
func (Propulsion) Run(ctx *Context) (Result, error) {
	s := &PropulsionStats{
		ThrustCapacity: make(map[string]float64),
		FuelUsage:      make(map[string]float64),
	}
	for _, inst := range thrusters(ctx) {
		params := inst.Component("SCItemThrusterParams")
		thrust := params.Float("thrustCapacity", 0)
		burn := params.Float("fuelBurnRatePer10KNewton", 0)
		class := thrusterClass(params.Attr("thrusterType"), inst)
		s.ThrustCapacity[class] += thrust
		s.FuelUsage[class] += burn * thrust / 10000
	}
	for _, inst := range ctx.Ports.Items(portclass.FuelTanks) {
		s.FuelCapacity += inst.Component("SCItemFuelTankParams").Float("capacity", 0)
	}
	for _, inst := range ctx.Ports.Items(portclass.QuantumFuelTanks) {
		s.QuantumFuelCapacity += inst.Component("SCItemFuelTankParams").Float("capacity", 0)
	}
	for _, inst := range ctx.Ports.Items(portclass.FuelIntakes) {
		s.FuelIntakeRate += inst.Component("SCItemFuelIntakeParams").Float("fuelPushRate", 0)
	}

	mainUsage := s.FuelUsage[ThrustMain]
	maneuverUsage := s.FuelUsage[ThrustManeuvering]
	s.IntakeToMainFuelRatio = ratio(s.FuelIntakeRate, mainUsage)
	if s.FuelCapacity > 0 {
		s.IntakeToTankCapacityRatio = ratio(s.FuelIntakeRate, s.FuelCapacity)
		s.TimeForIntakesToFillTank = ratio(s.FuelCapacity, s.FuelIntakeRate)
		s.MainTimeTillEmpty = ratio(s.FuelCapacity, mainUsage)
		s.ManeuveringTimeTillEmpty = ratio(s.FuelCapacity, maneuverUsage)
	}
	return Result{"Propulsion": s}, nil
}

func thrusters(ctx *Context) []*assembly.InstalledItem {
	return ctx.Ports.Items(portclass.MainThrusters, portclass.ManeuveringThrusters)
}

// thrusterClass buckets a thruster by its declared type, falling back to
// its item type.
func thrusterClass(declared string, inst *assembly.InstalledItem) string {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "main":
		return ThrustMain
	case "retro":
		return ThrustRetro
	case "vtol":
		return ThrustVTOL
	case "maneuver", "maneuvering", "manneuver":
		return ThrustManeuvering
	}
	if inst.IsType("MainThruster") {
		return ThrustMain
	}
	return ThrustManeuvering
}
