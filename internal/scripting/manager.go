package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/calc"
)

// Manager owns the scripted calculators loaded from a script directory.
//
// Manager is safe for concurrent use after LoadDir returns.
type Manager struct {
	mu          sync.RWMutex
	calculators []*Calculator
	logger      *zap.Logger
}

// NewManager creates an empty Manager.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadDir loads every *.lua file in dir, in lexicographic order, as one
// calculator each.
//
// A script must define a global function run(ctx) returning a table of
// output keys. It may define name (default: file name), priority (default:
// calc.BandIndependent) and can_run(ctx).
//
// Precondition: dir must be a readable directory.
// Postcondition: on error no calculator from dir is registered.
func (m *Manager) LoadDir(dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var loaded []*Calculator
	for _, path := range files {
		c, err := m.load(path, instLimit)
		if err != nil {
			for _, prev := range loaded {
				prev.Close()
			}
			return err
		}
		loaded = append(loaded, c)
	}

	m.mu.Lock()
	m.calculators = append(m.calculators, loaded...)
	m.mu.Unlock()
	m.logger.Info("scripted calculators loaded", zap.String("dir", dir), zap.Int("count", len(loaded)))
	return nil
}

func (m *Manager) load(path string, instLimit int) (*Calculator, error) {
	script := strings.TrimSuffix(filepath.Base(path), ".lua")
	sb := NewSandbox(instLimit)
	RegisterModules(sb.L, script, m.logger)
	fail := func(err error) (*Calculator, error) {
		sb.Close()
		return nil, err
	}
	if err := sb.L.DoFile(path); err != nil {
		if sb.Exhausted() {
			return fail(fmt.Errorf("scripting: loading %q: instruction budget exhausted: %w", path, err))
		}
		return fail(fmt.Errorf("scripting: loading %q: %w", path, err))
	}
	if _, ok := sb.L.GetGlobal("run").(*lua.LFunction); !ok {
		return fail(fmt.Errorf("scripting: %q defines no run function", path))
	}
	c := &Calculator{
		name:     script,
		priority: calc.BandIndependent,
		sb:       sb,
		logger:   m.logger,
	}
	if name, ok := sb.L.GetGlobal("name").(lua.LString); ok && name != "" {
		c.name = string(name)
	}
	if prio, ok := sb.L.GetGlobal("priority").(lua.LNumber); ok {
		c.priority = int(prio)
	}
	return c, nil
}

// Calculators returns the loaded calculators in load order.
func (m *Manager) Calculators() []calc.Calculator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]calc.Calculator, 0, len(m.calculators))
	for _, c := range m.calculators {
		out = append(out, c)
	}
	return out
}

// Close releases every Lua state.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calculators {
		c.Close()
	}
	m.calculators = nil
}

// Calculator is a calc.Calculator backed by one Lua state. Calls are
// serialised; a Lua state is single-threaded.
type Calculator struct {
	name     string
	priority int

	mu     sync.Mutex
	sb     *Sandbox
	logger *zap.Logger
}

// Name implements calc.Calculator.
func (c *Calculator) Name() string { return c.name }

// Priority implements calc.Calculator.
func (c *Calculator) Priority() int { return c.priority }

// CanRun calls the script's can_run, when defined. Script errors count as
// false.
func (c *Calculator) CanRun(ctx *calc.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, ok := c.sb.L.GetGlobal("can_run").(*lua.LFunction)
	if !ok {
		return true
	}
	ret, err := c.call(fn, ctx)
	if err != nil {
		return false
	}
	return lua.LVAsBool(ret)
}

// Run calls the script's run and converts the returned table into output
// keys. Lua runtime errors are logged at Warn level and yield no output.
func (c *Calculator) Run(ctx *calc.Context) (calc.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, ok := c.sb.L.GetGlobal("run").(*lua.LFunction)
	if !ok {
		return nil, nil
	}
	ret, err := c.call(fn, ctx)
	if err != nil {
		return nil, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, nil
	}
	out := make(calc.Result)
	tbl.ForEach(func(k, v lua.LValue) {
		if key, ok := k.(lua.LString); ok {
			out[string(key)] = fromLua(v)
		}
	})
	return out, nil
}

// call invokes fn with a fresh instruction budget.
//
// Precondition: c.mu must be held.
func (c *Calculator) call(fn *lua.LFunction, ctx *calc.Context) (lua.LValue, error) {
	L := c.sb.L
	c.sb.Arm()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, toLua(L, contextView(ctx))); err != nil {
		msg := "scripting: Lua runtime error"
		if c.sb.Exhausted() {
			msg = "scripting: instruction budget exhausted"
		}
		c.logger.Warn(msg,
			zap.String("calculator", c.name),
			zap.Error(err),
		)
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases the Lua state.
func (c *Calculator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sb.Close()
}
