// Package scripting hosts user-supplied Lua calculators in sandboxed
// GopherLua states. Each script file gets its own state; calculators built
// from them plug into the calc pipeline.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the number of Lua opcodes one calculator call
// may execute when no limit is configured.
const DefaultInstructionLimit = 100_000

// calculatorLibs are the only standard libraries a calculator script sees.
var calculatorLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// strippedGlobals are base functions that reach the file system, the module
// loader or the process streams. Scripts log through shipyard.log.
var strippedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"collectgarbage", "print", "_printregs", "getfenv", "setfenv",
}

// opBudget is a context that cancels itself once Done has been called
// limit times. GopherLua polls Done once per opcode while a context is set,
// so the budget counts executed instructions exactly.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newOpBudget(limit int) *opBudget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b
}

// Done implements context.Context.
func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func (b *opBudget) spent() bool { return b.left.Load() < 0 }

// Sandbox is one calculator's Lua state together with its per-call
// instruction budget. A Sandbox is not safe for concurrent use.
type Sandbox struct {
	L      *lua.LState
	limit  int
	budget *opBudget
}

// NewSandbox creates a Lua state that loads only the calculator libraries,
// has the stripped globals removed, and stops any call after limit opcodes.
//
// Precondition: limit >= 0; 0 selects DefaultInstructionLimit.
// Postcondition: the returned Sandbox is armed; the caller must Close it.
func NewSandbox(limit int) *Sandbox {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range calculatorLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	s := &Sandbox{L: L, limit: limit}
	s.Arm()
	return s
}

// Arm replaces the instruction budget with a full one. Calculators arm the
// sandbox before every script call.
func (s *Sandbox) Arm() {
	if s.budget != nil {
		s.budget.cancel()
	}
	s.budget = newOpBudget(s.limit)
	s.L.SetContext(s.budget)
}

// Exhausted reports whether the last call ran out of instructions.
func (s *Sandbox) Exhausted() bool { return s.budget.spent() }

// Close releases the Lua state.
func (s *Sandbox) Close() {
	s.budget.cancel()
	s.L.Close()
}
