package scripting

import (
	"encoding/json"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/shipyard/internal/calc"
)

// contextView flattens a calculation context into plain values scripts can
// read: vehicle identity, masses, flags, per-category items and the prior
// results in their JSON form.
func contextView(ctx *calc.Context) map[string]any {
	view := map[string]any{
		"mass":         ctx.Mass,
		"loadout_mass": ctx.LoadoutMass,
	}
	flags := make([]any, 0, len(ctx.Flags))
	for _, f := range ctx.Flags {
		flags = append(flags, f)
	}
	view["flags"] = flags
	if v := ctx.Vehicle; v != nil {
		view["vehicle"] = map[string]any{
			"class":     v.ClassName,
			"name":      v.Name,
			"size":      float64(v.Size),
			"career":    v.Career,
			"role":      v.Role,
			"crew_size": float64(v.CrewSize),
		}
	}

	ports := make(map[string]any)
	for _, cat := range ctx.Ports.Categories() {
		var items []any
		for _, inst := range ctx.Ports.Items(cat) {
			items = append(items, map[string]any{
				"class": inst.ClassName,
				"type":  inst.Type,
				"size":  float64(inst.Size),
				"grade": float64(inst.Grade),
				"mass":  inst.Mass,
			})
		}
		ports[cat] = map[string]any{
			"count": float64(len(ctx.Ports.Ports(cat))),
			"items": items,
		}
	}
	view["ports"] = ports

	if len(ctx.Prior) > 0 {
		if raw, err := json.Marshal(ctx.Prior); err == nil {
			var prior map[string]any
			if json.Unmarshal(raw, &prior) == nil {
				view["prior"] = prior
			}
		}
	}
	return view
}

// toLua converts plain Go values into Lua values.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case float64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []any:
		t := L.CreateTable(len(x), 0)
		for _, e := range x {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, x[k]))
		}
		return t
	}
	return lua.LNil
}

// fromLua converts a Lua value into plain Go values. Tables with a
// non-empty array part become slices; other tables become maps keyed by
// their string keys.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if n := x.MaxN(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		x.ForEach(func(k, val lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				out[string(key)] = fromLua(val)
			}
		})
		return out
	}
	return nil
}
