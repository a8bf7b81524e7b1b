package calc

// MassStats is the output of Mass.
type MassStats struct {
	Hull    float64 `json:"Hull"`
	Loadout float64 `json:"Loadout"`
	Total   float64 `json:"Total"`
}

// Mass reports hull and loadout mass.
type Mass struct{}

func (Mass) Name() string         { return "Mass" }
func (Mass) Priority() int        { return BandFoundational }
func (Mass) CanRun(*Context) bool { return true }

// Run implements Calculator.
func (Mass) Run(ctx *Context) (Result, error) {
	return Result{"Mass": &MassStats{
		Hull:    round(ctx.Mass, 3),
		Loadout: round(ctx.LoadoutMass, 3),
		Total:   round(ctx.Mass+ctx.LoadoutMass, 3),
	}}, nil
}
