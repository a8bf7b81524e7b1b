package resolve

// Strategy contributes to an accumulating result. Strategies may add to acc
// and fill gaps, but must not remove or override what earlier strategies
// recorded.
type Strategy[In, Acc any] interface {
	Name() string
	Contribute(in In, acc Acc)
}

// StrategyFunc adapts a named function to Strategy.
type StrategyFunc[In, Acc any] struct {
	Label string
	Fn    func(In, Acc)
}

// Name returns the strategy label.
func (s StrategyFunc[In, Acc]) Name() string { return s.Label }

// Contribute calls Fn.
func (s StrategyFunc[In, Acc]) Contribute(in In, acc Acc) { s.Fn(in, acc) }

// Chain runs strategies in order until Satisfied holds.
type Chain[In, Acc any] struct {
	Strategies []Strategy[In, Acc]
	// Satisfied is checked after each strategy. A nil Satisfied runs every
	// strategy.
	Satisfied func(Acc) bool
}

// Run applies the strategies to acc in order and returns the names of the
// strategies that ran.
//
// Precondition: acc must be a reference type (pointer, map) the strategies
// can mutate.
// Postcondition: no strategy after the first one leaving acc satisfied runs.
func (c Chain[In, Acc]) Run(in In, acc Acc) []string {
	var ran []string
	for _, s := range c.Strategies {
		s.Contribute(in, acc)
		ran = append(ran, s.Name())
		if c.Satisfied != nil && c.Satisfied(acc) {
			break
		}
	}
	return ran
}
