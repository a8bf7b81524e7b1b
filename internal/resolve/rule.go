// Package resolve holds the two ordered-list patterns shared by the
// classifiers and resolvers: first-match rule lists and strategy chains that
// stop once a satisfied predicate holds.
package resolve

// Rule is one entry of an ordered rule list.
type Rule[In, Out any] interface {
	// Match reports whether the rule applies to in.
	Match(in In) bool
	// Apply produces the rule's output. It is only called after Match
	// returned true.
	Apply(in In) Out
}

// RuleFunc adapts a pair of functions to Rule.
type RuleFunc[In, Out any] struct {
	Name string
	When func(In) bool
	Then func(In) Out
}

// Match calls When. A nil When matches everything.
func (r RuleFunc[In, Out]) Match(in In) bool {
	return r.When == nil || r.When(in)
}

// Apply calls Then. A nil Then yields the zero value.
func (r RuleFunc[In, Out]) Apply(in In) Out {
	var zero Out
	if r.Then == nil {
		return zero
	}
	return r.Then(in)
}

// Rules is an ordered rule list; the first matching rule wins.
type Rules[In, Out any] []Rule[In, Out]

// First applies the first rule whose Match holds.
//
// Postcondition: ok is false and out is the zero value when no rule matches.
func (rs Rules[In, Out]) First(in In) (out Out, ok bool) {
	for _, r := range rs {
		if r.Match(in) {
			return r.Apply(in), true
		}
	}
	return out, false
}
