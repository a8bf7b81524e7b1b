package calc

import (
	"math"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/entity"
)

// HealthStats is the output of Health.
type HealthStats struct {
	Total float64               `json:"Total"`
	Parts map[string]PartHealth `json:"Parts,omitempty"`
}

// PartHealth describes one damageable part. MinRatio is the lower of its
// detach and destruction thresholds relative to its max damage.
type PartHealth struct {
	MaxDamage float64  `json:"MaxDamage"`
	MinRatio  *float64 `json:"MinRatio,omitempty"`
}

// Health sums part hit points.
type Health struct{}

func (Health) Name() string  { return "Health" }
func (Health) Priority() int { return BandIndependent }

// CanRun requires at least one static part.
func (Health) CanRun(ctx *Context) bool { return len(ctx.Tree) > 0 }

// Run implements Calculator.
func (Health) Run(ctx *Context) (Result, error) {
	s := &HealthStats{Parts: make(map[string]PartHealth)}
	assembly.WalkParts(ctx.Tree, func(p *assembly.Part) {
		if p.MaxDamage <= 0 || p.Virtual() || hiddenPropulsionPort(p.Port) {
			return
		}
		s.Total += p.MaxDamage
		ph := PartHealth{MaxDamage: p.MaxDamage}
		ph.MinRatio = minThresholdRatio(p)
		s.Parts[p.Name] = ph
	})
	s.Total = round(s.Total, 3)
	return Result{"Health": s}, nil
}

// hiddenPropulsionPort reports a thruster or fuel intake port flagged
// uneditable or invisible. Their parts are not counted.
func hiddenPropulsionPort(port *assembly.Port) bool {
	if port == nil {
		return false
	}
	if !port.HasFlag(entity.FlagUneditable) && !port.HasFlag(entity.FlagInvisible) {
		return false
	}
	propulsion := []string{"MainThruster", "ManneuverThruster", "FuelIntake"}
	if inst := port.InstalledItem; inst != nil && inst.Item != nil {
		return inst.IsType(propulsion...)
	}
	for _, t := range propulsion {
		if port.Def.Accepts(t) {
			return true
		}
	}
	return false
}

func minThresholdRatio(p *assembly.Part) *float64 {
	lowest := math.Inf(1)
	for _, t := range []float64{p.DetachDamageThreshold, p.DestructionDamageThreshold} {
		if t > 0 && t < lowest {
			lowest = t
		}
	}
	if math.IsInf(lowest, 1) {
		return nil
	}
	return roundPtr(ratio(lowest, p.MaxDamage))
}
