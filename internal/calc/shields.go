package calc

import (
	"fmt"

	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/portclass"
)

// ShieldStats is the output of Shields.
type ShieldStats struct {
	Generators        int                `json:"Generators"`
	MaxHealth         float64            `json:"MaxHealth"`
	Regen             float64            `json:"Regen"`
	DamagedRegenDelay float64            `json:"DamagedRegenDelay,omitempty"`
	DownedRegenDelay  float64            `json:"DownedRegenDelay,omitempty"`
	Resistance        map[string]float64 `json:"Resistance,omitempty"`
}

// Shields sums shield generator capacity. Regeneration is scaled by the
// configured shield regen factor.
type Shields struct{}

func (Shields) Name() string  { return "Shields" }
func (Shields) Priority() int { return BandIndependent }

// CanRun requires an installed shield generator.
func (Shields) CanRun(ctx *Context) bool {
	return len(ctx.Ports.Items(portclass.ShieldGenerators)) > 0
}

// Run implements Calculator.
func (Shields) Run(ctx *Context) (Result, error) {
	s := &ShieldStats{}
	for _, inst := range ctx.Ports.Items(portclass.ShieldGenerators) {
		params := inst.Component("SCItemShieldGeneratorParams")
		s.Generators++
		s.MaxHealth += params.Float("MaxShieldHealth", 0)
		s.Regen += params.Float("MaxShieldRegen", 0) * ctx.Constants.ShieldRegenFactor
		s.DamagedRegenDelay = max(s.DamagedRegenDelay, params.Float("DamagedRegenDelay", 0))
		s.DownedRegenDelay = max(s.DownedRegenDelay, params.Float("DownedRegenDelay", 0))

		key := params.Attr("DamageResistance")
		if s.Resistance != nil || key == "" || ctx.Services == nil {
			continue
		}
		dr, err := ctx.Services.DamageResistances.ByReferenceOrClass(key)
		switch {
		case err == nil:
			s.Resistance = dr.Multipliers
		case !loader.IsAbsent(err):
			return nil, fmt.Errorf("calc: Shields.Run: %s: %w", inst.ClassName, err)
		}
	}
	s.MaxHealth = round(s.MaxHealth, 3)
	s.Regen = round(s.Regen, 3)
	return Result{"Shields": s}, nil
}
