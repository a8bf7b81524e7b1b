// Package classify maps item (type, subtype) pairs onto dotted
// classification strings.
package classify

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cory-johannsen/shipyard/internal/resolve"
)

// UndefinedSuffix is trimmed from every classification result.
const UndefinedSuffix = ".UNDEFINED"

// Key is the memoisation key of one classification.
type Key struct {
	Type    string
	SubType string
}

// Rule classifies a Key. An empty result means "unclassified".
type Rule = resolve.Rule[Key, string]

// Engine evaluates an ordered rule list and memoises the result per Key.
//
// Engine is safe for concurrent use. Entries are only ever added to the
// memo, and a key always maps to the same value.
type Engine struct {
	rules resolve.Rules[Key, string]

	mu   sync.RWMutex
	memo map[Key]string

	evaluations atomic.Int64
}

// New returns an Engine over rules, evaluated in order.
func New(rules ...Rule) *Engine {
	return &Engine{rules: rules, memo: make(map[Key]string)}
}

// Classify returns the classification of (typ, subType).
//
// Postcondition: the result never ends in UndefinedSuffix, and repeated calls
// with the same pair do not re-evaluate the rules.
func (e *Engine) Classify(typ, subType string) string {
	key := Key{Type: strings.TrimSpace(typ), SubType: strings.TrimSpace(subType)}

	e.mu.RLock()
	v, ok := e.memo[key]
	e.mu.RUnlock()
	if ok {
		return v
	}

	e.evaluations.Add(1)
	v, _ = e.rules.First(key)
	v = trimUndefined(v)

	e.mu.Lock()
	if prev, ok := e.memo[key]; ok {
		v = prev
	} else {
		e.memo[key] = v
	}
	e.mu.Unlock()
	return v
}

// Evaluations returns how many times the rule list has been evaluated.
func (e *Engine) Evaluations() int64 {
	return e.evaluations.Load()
}

// Len returns the number of memoised pairs.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.memo)
}

func trimUndefined(s string) string {
	for len(s) >= len(UndefinedSuffix) && strings.EqualFold(s[len(s)-len(UndefinedSuffix):], UndefinedSuffix) {
		s = s[:len(s)-len(UndefinedSuffix)]
	}
	return s
}
