package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/calc"
	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/portclass"
	"github.com/cory-johannsen/shipyard/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeScripts(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	}
	return dir
}

func testContext() *calc.Context {
	shield := &assembly.Port{
		Name:          "hardpoint_shield",
		InstalledItem: &assembly.InstalledItem{Item: &entity.Item{ClassName: "SHLD_S1", Type: "Shield", Size: 1}},
	}
	tree := []*assembly.Part{{Name: "hardpoint_shield", Port: shield}}
	return &calc.Context{
		Vehicle: &entity.Vehicle{ClassName: "TEST_Ship", CrewSize: 2},
		Tree:    tree,
		Ports:   portclass.NewDefault().Annotate(tree),
		Mass:    1000,
		Flags:   []string{entity.FlagSpaceship},
		Prior:   calc.Result{"Mass": &calc.MassStats{Hull: 1000, Total: 1250}},
	}
}

func TestManager_LoadDir_RunsCalculator(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeScripts(t, map[string]string{"crew.lua": `
		name = "CrewLoad"
		priority = 150
		function run(ctx)
			local shields = ctx.ports["Shield generators"]
			return {
				CrewLoad = {
					PerCrew = shipyard.round(ctx.prior.Mass.Total / ctx.vehicle.crew_size, 1),
					Shields = shields.count,
					FirstShield = shields.items[1].class,
					Spaceship = ctx.flags[1] == "Spaceship",
				},
			}
		end
	`})
	require.NoError(t, mgr.LoadDir(dir, 0))

	calcs := mgr.Calculators()
	require.Len(t, calcs, 1)
	c := calcs[0]
	assert.Equal(t, "CrewLoad", c.Name())
	assert.Equal(t, 150, c.Priority())
	require.True(t, c.CanRun(testContext()))

	out, err := c.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"PerCrew":     625.0,
		"Shields":     1.0,
		"FirstShield": "SHLD_S1",
		"Spaceship":   true,
	}, out["CrewLoad"])
}

func TestManager_DefaultsNameAndPriority(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeScripts(t, map[string]string{"plain.lua": `function run(ctx) return { Plain = { 1, 2, 3 } } end`})
	require.NoError(t, mgr.LoadDir(dir, 0))
	c := mgr.Calculators()[0]
	assert.Equal(t, "plain", c.Name())
	assert.Equal(t, calc.BandIndependent, c.Priority())

	out, err := c.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, out["Plain"])
}

func TestManager_CanRunFromScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeScripts(t, map[string]string{"ground.lua": `
		function can_run(ctx)
			for _, f in ipairs(ctx.flags) do
				if f == "GroundVehicle" then return true end
			end
			return false
		end
		function run(ctx) return { Ground = true } end
	`})
	require.NoError(t, mgr.LoadDir(dir, 0))
	assert.False(t, mgr.Calculators()[0].CanRun(testContext()))
}

func TestManager_MissingRunIsALoadError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeScripts(t, map[string]string{
		"a_good.lua": `function run(ctx) return {} end`,
		"b_bad.lua":  `name = "Broken"`,
	})
	err := mgr.LoadDir(dir, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b_bad.lua")
	assert.Empty(t, mgr.Calculators())
}

func TestManager_RuntimeErrorLogsAndYieldsNothing(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeScripts(t, map[string]string{"bad.lua": `function run(ctx) error("intentional error") end`})
	require.NoError(t, mgr.LoadDir(dir, 0))

	out, err := mgr.Calculators()[0].Run(testContext())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_InstructionBudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeScripts(t, map[string]string{"loop.lua": `
		function run(ctx)
			local n = 0
			for i = 1, 200 do n = n + i end
			return { Sum = n }
		end
	`})
	require.NoError(t, mgr.LoadDir(dir, 5000))
	c := mgr.Calculators()[0]
	for i := 0; i < 10; i++ {
		out, err := c.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, 20100.0, out["Sum"])
	}
}

func TestManager_RunawayScriptIsStopped(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeScripts(t, map[string]string{"spin.lua": `function run(ctx) while true do end end`})
	require.NoError(t, mgr.LoadDir(dir, 1000))

	out, err := mgr.Calculators()[0].Run(testContext())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, logs.FilterMessage("scripting: instruction budget exhausted").Len())
	assert.Zero(t, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_ConcurrentRunsAreSerialised(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeScripts(t, map[string]string{"mass.lua": `function run(ctx) return { Twice = ctx.mass * 2 } end`})
	require.NoError(t, mgr.LoadDir(dir, 0))
	c := mgr.Calculators()[0]

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.Run(testContext())
			assert.NoError(t, err)
			assert.Equal(t, 2000.0, out["Twice"])
		}()
	}
	wg.Wait()
}

func TestManager_LoadDir_MissingDir(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadDir(filepath.Join(t.TempDir(), "absent"), 0))
}
