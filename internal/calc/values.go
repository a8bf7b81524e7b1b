package calc

import (
	"math"
	"reflect"
	"strings"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// Gravity is standard gravity in m/s².
const Gravity = 9.80665

// isNil reports whether v is nil or an empty container, so the orchestrator
// can drop absent outputs.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	}
	return false
}

// ratio returns num/den, or nil when den is zero or the result is not finite.
func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

func ptr(v float64) *float64 { return &v }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// onlineState returns the "Online" state of an item's resource component,
// or the first state when none is named Online.
func onlineState(inst *assembly.InstalledItem) record.Accessor {
	states := inst.Component("ItemResourceComponentParams").Child("states").Children("ItemResourceState")
	for _, s := range states {
		if strings.EqualFold(s.Attr("name"), "Online") {
			return s
		}
	}
	if len(states) > 0 {
		return states[0]
	}
	return (*record.Node)(nil)
}

// resourceFlow sums the rates of every element named kind ("consumption"
// or "generation") in state, per resource.
func resourceFlow(state record.Accessor, kind string) map[string]float64 {
	out := make(map[string]float64)
	var visit func(n record.Accessor)
	visit = func(n record.Accessor) {
		for _, c := range n.Children("") {
			if strings.EqualFold(c.Tag(), kind) {
				if res := c.Attr("resource"); res != "" {
					out[res] += c.Float("rate", 0)
				}
			}
			visit(c)
		}
	}
	visit(state.Child("deltas"))
	return out
}

// signature returns the item's nominal EM and IR signature in state.
func signature(state record.Accessor) (em, ir float64) {
	sig := state.Child("signatureParams")
	return sig.Child("EMSignature").Float("nominalSignature", 0),
		sig.Child("IRSignature").Float("nominalSignature", 0)
}
