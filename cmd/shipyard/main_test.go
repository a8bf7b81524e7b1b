package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/shipyard/internal/record"
	"github.com/cory-johannsen/shipyard/internal/testutil"
)

func writeConfig(t *testing.T, dataDir, outDir, scriptDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipyard.yaml")
	content := fmt.Sprintf(`
data:
  dir: %s
output:
  dir: %s
run:
  workers: 2
logging:
  level: error
  format: json
scripting:
  dir: %q
`, dataDir, outDir, scriptDir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func sampleData(t *testing.T) *testutil.Corpus {
	c := testutil.NewCorpus(t)
	c.Item(testutil.Item{Class: "SHLD_S1", Type: "Shield", Size: 1, Mass: 300})
	c.Vehicle(testutil.Vehicle{
		Class: "ANVL_Arrow",
		Parts: []testutil.Part{{
			Name: "Body", Mass: 5000, DamageMax: 1000,
			Children: []testutil.Part{{Name: "hardpoint_shield", Mass: 1, Port: &testutil.Port{MaxSize: 1, Types: []string{"Shield"}}}},
		}},
		Loadout: []testutil.Entry{{Port: "hardpoint_shield", Class: "SHLD_S1"}},
	})
	c.Record(record.KindBlueprint, "BP_SHLD_S1", "",
		`<ingredients><Ingredient entityClass="Copper" quantity="3"/></ingredients>`)
	return c
}

func TestCLI_IndexThenVehicles(t *testing.T) {
	c := sampleData(t)
	out := t.TempDir()
	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "mass.lua"), []byte(`
		name = "MassPerCrew"
		function run(ctx) return { MassPerCrew = ctx.mass } end
	`), 0644))
	cfg := writeConfig(t, c.Dir, out, scripts)

	_, err := execute(t, "--config", cfg, "index")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(c.Dir, "class_to_path.json"))

	stdout, err := execute(t, "--config", cfg, "vehicles")
	require.NoError(t, err)
	assert.Contains(t, stdout, "vehicles: 1 written, 1 skipped, 0 failed")

	raw, err := os.ReadFile(filepath.Join(out, "vehicles", "anvl_arrow.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	stats := doc["Stats"].(map[string]any)
	assert.Equal(t, 5001.0, stats["MassPerCrew"])
}

func TestCLI_VehiclesByClassReportsFailures(t *testing.T) {
	c := sampleData(t)
	cfg := writeConfig(t, c.Dir, t.TempDir(), "")
	_, err := execute(t, "--config", cfg, "index")
	require.NoError(t, err)

	stdout, err := execute(t, "--config", cfg, "vehicles", "ANVL_Arrow", "NOPE")
	require.NoError(t, err)
	assert.Contains(t, stdout, "vehicles: 1 written, 0 skipped, 1 failed")
	assert.Contains(t, stdout, "NOPE")
}

func TestCLI_Blueprints(t *testing.T) {
	c := sampleData(t)
	out := t.TempDir()
	cfg := writeConfig(t, c.Dir, out, "")
	_, err := execute(t, "--config", cfg, "index")
	require.NoError(t, err)

	stdout, err := execute(t, "--config", cfg, "blueprints")
	require.NoError(t, err)
	assert.Contains(t, stdout, "blueprints: 1 written")
	assert.FileExists(t, filepath.Join(out, "blueprints", "bp_shld_s1.json"))
}

func TestCLI_VehiclesWithoutIndexFails(t *testing.T) {
	c := sampleData(t)
	cfg := writeConfig(t, c.Dir, t.TempDir(), "")
	_, err := execute(t, "--config", cfg, "vehicles")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading index")
}

func TestCLI_BadConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
