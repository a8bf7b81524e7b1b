package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the shipyard.* helper table into L. Log output
// from scripts is tagged with script.
//
// Precondition: L must belong to a Sandbox from NewSandbox.
// Postcondition: shipyard global is defined in L.
func RegisterModules(L *lua.LState, script string, logger *zap.Logger) {
	mod := L.NewTable()
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Info("script log", zap.String("script", script), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(mod, "round", L.NewFunction(func(L *lua.LState) int {
		v := float64(L.CheckNumber(1))
		places := L.OptInt(2, 0)
		p := math.Pow(10, float64(places))
		L.Push(lua.LNumber(math.Round(v*p) / p))
		return 1
	}))
	L.SetField(mod, "ratio", L.NewFunction(func(L *lua.LState) int {
		num, den := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
		if den == 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(num / den))
		return 1
	}))
	L.SetGlobal("shipyard", mod)
}
