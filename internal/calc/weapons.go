package calc

import (
	"fmt"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// GunStats describes one installed gun.
type GunStats struct {
	Port     string             `json:"Port"`
	Class    string             `json:"Class"`
	Size     int                `json:"Size"`
	FireRate float64            `json:"FireRate,omitempty"`
	Ammo     string             `json:"Ammo,omitempty"`
	Damage   map[string]float64 `json:"Damage,omitempty"`
	Alpha    float64            `json:"Alpha,omitempty"`
	DPS      float64            `json:"DPS,omitempty"`
	Speed    float64            `json:"Speed,omitempty"`
	Range    float64            `json:"Range,omitempty"`
}

// WeaponStats is the output of Weapons.
type WeaponStats struct {
	Guns     []GunStats `json:"Guns,omitempty"`
	Missiles int        `json:"Missiles,omitempty"`
	Alpha    float64    `json:"Alpha"`
	DPS      float64    `json:"DPS"`
}

// Weapons lists guns with their ammunition damage, and counts missiles.
type Weapons struct{}

func (Weapons) Name() string  { return "Weapons" }
func (Weapons) Priority() int { return BandIndependent }

// CanRun requires a weapon or missile port.
func (Weapons) CanRun(ctx *Context) bool {
	return len(ctx.Ports.Ports(portclass.WeaponHardpoints)) > 0 ||
		len(ctx.Ports.Ports(portclass.MissileRacks)) > 0
}

// Run implements Calculator.
func (Weapons) Run(ctx *Context) (Result, error) {
	s := &WeaponStats{}
	for _, port := range ctx.Ports.Ports(portclass.WeaponHardpoints) {
		inst := port.InstalledItem
		if inst == nil || inst.Item == nil || !inst.IsType("WeaponGun") {
			continue
		}
		g, err := gunStats(ctx, port, inst)
		if err != nil {
			return nil, err
		}
		s.Alpha += g.Alpha
		s.DPS += g.DPS
		s.Guns = append(s.Guns, g)
	}
	for _, inst := range ctx.Ports.Items(portclass.MissileRacks) {
		if inst.IsType("Missile") {
			s.Missiles++
		}
	}
	s.Alpha = round(s.Alpha, 3)
	s.DPS = round(s.DPS, 3)
	return Result{"Weapons": s}, nil
}

func gunStats(ctx *Context, port *assembly.Port, inst *assembly.InstalledItem) (GunStats, error) {
	g := GunStats{
		Port:     port.Name,
		Class:    inst.ClassName,
		Size:     inst.Size,
		FireRate: inst.Component("SCItemWeaponComponentParams").Float("fireRate", 0),
	}
	key := inst.Component("SAmmoContainerComponentParams").Attr("ammoParamsRecord")
	if key == "" || ctx.Services == nil {
		return g, nil
	}
	ammo, err := ctx.Services.Ammunition.ByReferenceOrClass(key)
	if err != nil {
		if loader.IsAbsent(err) {
			return g, nil
		}
		return g, fmt.Errorf("calc: Weapons.Run: %s: %w", inst.ClassName, err)
	}
	applyAmmo(&g, ammo)
	return g, nil
}

func applyAmmo(g *GunStats, ammo *entity.Ammo) {
	g.Ammo = ammo.ClassName
	g.Damage = ammo.Damage
	g.Speed = ammo.Speed
	g.Range = round(ammo.Range, 3)
	g.Alpha = round(ammo.TotalDamage(), 3)
	g.DPS = round(g.Alpha*g.FireRate/60, 3)
}
