package calc

import (
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// Power scenarios. Each scenario is the base load plus the items that run
// in that flight mode.
const (
	ScenarioShields = "Shields"
	ScenarioQuantum = "Quantum"
)

// PowerStats is the "power" output of Emission.
type PowerStats struct {
	Generation float64            `json:"Generation"`
	Usage      map[string]float64 `json:"Usage"`
	Categories map[string]float64 `json:"Categories,omitempty"`

	WeaponPoolSize float64 `json:"WeaponPoolSize,omitempty"`
	WeaponDemand   float64 `json:"WeaponDemand,omitempty"`
	WeaponUsage    float64 `json:"WeaponUsage,omitempty"`
}

// CoolingStats is the "cooling" output of Emission.
type CoolingStats struct {
	Generation float64            `json:"Generation"`
	Usage      map[string]float64 `json:"Usage"`
}

// EmissionStats is the "emission" output of Emission.
type EmissionStats struct {
	EM      map[string]float64 `json:"EM"`
	IR      map[string]float64 `json:"IR"`
	ArmorEM float64            `json:"ArmorEM"`
	ArmorIR float64            `json:"ArmorIR"`
}

// load is the resource use and signature of one group of items.
type load struct {
	power, coolant, em, ir float64
}

func (l load) plus(o load) load {
	return load{power: l.power + o.power, coolant: l.coolant + o.coolant, em: l.em + o.em, ir: l.ir + o.ir}
}

// Emission aggregates power, cooling and signatures across scenarios.
type Emission struct{}

func (Emission) Name() string         { return "Emission" }
func (Emission) Priority() int        { return BandIndependent }
func (Emission) CanRun(*Context) bool { return true }

// Run implements Calculator.
func (Emission) Run(ctx *Context) (Result, error) {
	power := &PowerStats{Usage: make(map[string]float64), Categories: make(map[string]float64)}
	cooling := &CoolingStats{Usage: make(map[string]float64)}
	emission := &EmissionStats{EM: make(map[string]float64), IR: make(map[string]float64), ArmorEM: 1, ArmorIR: 1}

	var base, shields, weapons, quantum load
	for _, cat := range ctx.Ports.Categories() {
		for _, inst := range ctx.Ports.Items(cat) {
			if cat == portclass.Armor {
				armor := inst.Component("SCItemVehicleArmorParams")
				emission.ArmorEM *= armor.Float("signalElectromagnetic", 1)
				emission.ArmorIR *= armor.Float("signalInfrared", 1)
				continue
			}
			state := onlineState(inst)
			consumed := resourceFlow(state, "consumption")
			generated := resourceFlow(state, "generation")
			power.Generation += generated["Power"]
			cooling.Generation += generated["Coolant"]

			l := load{power: consumed["Power"], coolant: consumed["Coolant"]}
			l.em, l.ir = signature(state)
			if l.power > 0 {
				power.Categories[cat] += l.power
			}
			switch cat {
			case portclass.ShieldGenerators:
				shields = shields.plus(l)
			case portclass.WeaponHardpoints:
				weapons = weapons.plus(l)
			case portclass.QuantumDrives:
				quantum = quantum.plus(l)
			default:
				base = base.plus(l)
			}
		}
	}

	power.WeaponPoolSize = weaponPool(ctx)
	power.WeaponDemand = weapons.power
	power.WeaponUsage = weapons.power
	if power.WeaponPoolSize > 0 && weapons.power > power.WeaponPoolSize {
		weapons.em *= power.WeaponPoolSize / weapons.power
		power.WeaponUsage = power.WeaponPoolSize
	}

	combat := base.plus(shields)
	travel := base.plus(quantum)
	power.Usage[ScenarioShields] = round(combat.power+power.WeaponUsage, 3)
	power.Usage[ScenarioQuantum] = round(travel.power, 3)
	cooling.Usage[ScenarioShields] = round(combat.coolant+weapons.coolant, 3)
	cooling.Usage[ScenarioQuantum] = round(travel.coolant, 3)
	emission.EM[ScenarioShields] = round((combat.em+weapons.em)*emission.ArmorEM, 3)
	emission.EM[ScenarioQuantum] = round(travel.em*emission.ArmorEM, 3)
	emission.IR[ScenarioShields] = round((combat.ir+weapons.ir)*emission.ArmorIR, 3)
	emission.IR[ScenarioQuantum] = round(travel.ir*emission.ArmorIR, 3)

	return Result{"power": power, "cooling": cooling, "emission": emission}, nil
}

func weaponPool(ctx *Context) float64 {
	if ctx.Vehicle == nil {
		return 0
	}
	return ctx.Vehicle.WeaponPoolSize
}
