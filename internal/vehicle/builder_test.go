package vehicle_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/calc"
	"github.com/cory-johannsen/shipyard/internal/cargo"
	"github.com/cory-johannsen/shipyard/internal/classify"
	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/portclass"
	"github.com/cory-johannsen/shipyard/internal/record"
	"github.com/cory-johannsen/shipyard/internal/testutil"
	"github.com/cory-johannsen/shipyard/internal/vehicle"
)

const manufacturerRef = "c0000000-0000-4000-8000-000000000001"

func thrusterItem(class string) testutil.Item {
	return testutil.Item{
		Class: class, Type: "MainThruster", SubType: "FixedThruster", Mass: 50,
		Components: `<SCItemThrusterParams thrusterType="Main" thrustCapacity="1000" fuelBurnRatePer10KNewton="5"/>`,
	}
}

func shipCorpus(t *testing.T) *testutil.Corpus {
	c := testutil.NewCorpus(t)
	c.Record(record.KindManufacturer, "ANVL", manufacturerRef, `<Localization Name="Anvil Aerospace"/>`)
	c.Item(thrusterItem("THR_Main_A"))
	c.Item(thrusterItem("THR_Main_B"))
	c.Item(testutil.Item{
		Class: "IFCS_Test", Type: "FlightController",
		Components: `<IFCSParams scmSpeed="200" maxSpeed="1100"><maxAngularVelocity x="50" y="120" z="40"/></IFCSParams>`,
	})
	c.Item(testutil.Item{
		Class: "TANK_Test", Type: "FuelTank",
		Components: `<SCItemFuelTankParams capacity="400"/>`,
	})
	mainPort := func(name string) testutil.Part {
		return testutil.Part{Name: name, Mass: 5, DamageMax: 100, Port: &testutil.Port{MaxSize: 2, Types: []string{"MainThruster"}}}
	}
	c.Vehicle(testutil.Vehicle{
		Class:        "ANVL_Test",
		Modification: "Heavy",
		VehicleAttrs: `crewSize="2" manufacturer="` + manufacturerRef + `"`,
		Parts: []testutil.Part{{
			Name: "Body", Mass: 8000, DamageMax: 5000,
			Children: []testutil.Part{
				mainPort("Main1"),
				mainPort("Main2"),
				{Name: "hardpoint_controller", Mass: 1, Port: &testutil.Port{Types: []string{"FlightController"}}},
				{Name: "hardpoint_fuel_tank", Mass: 1, Port: &testutil.Port{Types: []string{"FuelTank"}}},
			},
		}},
		Loadout: []testutil.Entry{
			{Port: "Main1", Class: "THR_Main_A"},
			{Port: "Main2", Class: "THR_Main_B"},
			{Port: "hardpoint_controller", Class: "IFCS_Test"},
			{Port: "hardpoint_fuel_tank", Class: "TANK_Test"},
		},
		Implementation: `<Modifications><Modification name="Heavy"><Elems><Elem idRef="Body" name="damageMax" value="9000"/></Elems></Modification></Modifications>`,
	})
	return c
}

func newBuilder(t *testing.T, c *testutil.Corpus) *vehicle.Builder {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := loader.NewServices(c.Index(), classify.NewDefault().Classify)
	table, err := cargo.DefaultTable()
	require.NoError(t, err)
	return vehicle.NewBuilder(
		svc,
		assembly.New(svc.Items, 0, logger),
		portclass.NewDefault(),
		calc.NewOrchestrator(logger, calc.Standard(cargo.NewResolver(table))...),
		calc.DefaultConstants(),
		logger,
	)
}

func TestBuild_EndToEnd(t *testing.T) {
	r, err := newBuilder(t, shipCorpus(t)).Build("ANVL_Test")
	require.NoError(t, err)

	assert.Equal(t, "ANVL_Test", r.Vehicle.ClassName)
	assert.Equal(t, "ANVL_Test", r.Implementation)
	assert.Equal(t, []string{entity.FlagSpaceship}, r.Flags)
	require.NotNil(t, r.Manufacturer)
	assert.Equal(t, "Anvil Aerospace", r.Manufacturer.Name)

	prop, ok := calc.Lookup[*calc.PropulsionStats](r.Stats, "Propulsion")
	require.True(t, ok)
	assert.Equal(t, 2000.0, prop.ThrustCapacity[calc.ThrustMain])
	assert.InDelta(t, 1.0, prop.FuelUsage[calc.ThrustMain], 1e-9)
	require.NotNil(t, prop.MainTimeTillEmpty)
	assert.InDelta(t, 400.0, *prop.MainTimeTillEmpty, 1e-9)
	assert.Nil(t, prop.TimeForIntakesToFillTank)
	assert.Nil(t, prop.ManeuveringTimeTillEmpty)

	mass, ok := calc.Lookup[*calc.MassStats](r.Stats, "Mass")
	require.True(t, ok)
	assert.Equal(t, 8012.0, mass.Hull)
	assert.Equal(t, 100.0, mass.Loadout)

	flight, ok := calc.Lookup[*calc.FlightStats](r.Stats, "FlightCharacteristics")
	require.True(t, ok)
	assert.Equal(t, 200.0, flight.ScmSpeed)
	assert.InDelta(t, 2000.0/8112, flight.Acceleration[calc.ThrustMain], 1e-3)

	health, ok := calc.Lookup[*calc.HealthStats](r.Stats, "Health")
	require.True(t, ok)
	assert.Equal(t, 9000.0, health.Parts["Body"].MaxDamage, "modification applied")

	assert.NotContains(t, r.Stats, "DriveCharacteristics")
	assert.NotContains(t, r.Stats, "Cargo")
}

func TestBuild_PortsAreCategorised(t *testing.T) {
	r, err := newBuilder(t, shipCorpus(t)).Build("ANVL_Test")
	require.NoError(t, err)
	cats := map[string]string{}
	for _, p := range assembly.Ports(r.Parts) {
		cats[p.Name] = p.Category
	}
	assert.Equal(t, portclass.MainThrusters, cats["Main1"])
	assert.Equal(t, portclass.FlightControllers, cats["hardpoint_controller"])
	assert.Equal(t, portclass.FuelTanks, cats["hardpoint_fuel_tank"])
}

func TestBuild_ReportJSON(t *testing.T) {
	r, err := newBuilder(t, shipCorpus(t)).Build("ANVL_Test")
	require.NoError(t, err)
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "Vehicle")
	assert.Contains(t, doc, "Parts")
	stats := doc["Stats"].(map[string]any)
	prop := stats["Propulsion"].(map[string]any)
	assert.Contains(t, prop, "TimeForIntakesToFillTank")
	assert.Nil(t, prop["TimeForIntakesToFillTank"])

	body := doc["Parts"].([]any)[0].(map[string]any)
	main1 := body["Parts"].([]any)[0].(map[string]any)
	port := main1["Port"].(map[string]any)
	assert.Equal(t, "Main1", port["PortName"])
	assert.Equal(t, portclass.MainThrusters, port["Category"])
	installed := port["InstalledItem"].(map[string]any)
	assert.Equal(t, "Ship.MainThruster.FixedThruster", installed["Classification"])
}

func TestBuild_MissingVehicle(t *testing.T) {
	_, err := newBuilder(t, shipCorpus(t)).Build("NOPE")
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

func TestBuild_NonVehicleEntity(t *testing.T) {
	_, err := newBuilder(t, shipCorpus(t)).Build("THR_Main_A")
	var notVehicle *entity.ErrNotAVehicle
	assert.True(t, errors.As(err, &notVehicle))
}

func TestBuild_MissingImplementationHasNoParts(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Item(testutil.Item{Class: "GRIN_Rover", Type: "NOITEM_Vehicle", SubType: "Vehicle_GroundVehicle",
		Components: `<VehicleComponentParams vehicleDefinition="GRIN_Rover_Missing"/>`})
	r, err := newBuilder(t, c).Build("GRIN_Rover")
	require.NoError(t, err)
	assert.Empty(t, r.Parts)
	assert.Equal(t, []string{entity.FlagGround, entity.FlagNoParts}, r.Flags)
}

func TestFlags(t *testing.T) {
	assert.Equal(t, []string{entity.FlagGround, entity.FlagGravlev, entity.FlagNoParts},
		vehicle.Flags(&entity.Vehicle{IsGravlev: true}, nil))
	assert.Equal(t, []string{entity.FlagSpaceship},
		vehicle.Flags(&entity.Vehicle{}, &entity.Implementation{Parts: []entity.PartDef{{Name: "Body"}}}))
}

func TestNewBuilder_NopLogger(t *testing.T) {
	svc := loader.NewServices(shipCorpus(t).Index(), nil)
	b := vehicle.NewBuilder(svc, assembly.New(svc.Items, 0, zap.NewNop()), portclass.NewDefault(),
		calc.NewOrchestrator(zap.NewNop()), calc.DefaultConstants(), zap.NewNop())
	r, err := b.Build("ANVL_Test")
	require.NoError(t, err)
	assert.Empty(t, r.Stats)
}

func TestBuild_DefinitionPathFallsBackToBaseName(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Item(testutil.Item{Class: "AEGS_Path", Type: "NOITEM_Vehicle", SubType: "Vehicle_Spaceship",
		Components: `<VehicleComponentParams vehicleDefinition="Scripts\Loadouts\Vehicles\AEGS_Path_Impl.xml"/>`})
	c.Record(record.KindVehicle, "AEGS_Path_Impl", "", testutil.PartsXML([]testutil.Part{{Name: "Body", Mass: 100}}))

	r, err := newBuilder(t, c).Build("AEGS_Path")
	require.NoError(t, err)
	assert.Equal(t, "AEGS_Path_Impl", r.Implementation)
	require.Len(t, r.Parts, 1)
	assert.Equal(t, "Body", r.Parts[0].Name)
}

func TestBuild_UnknownDefinitionFallsBackToClassName(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Item(testutil.Item{Class: "AEGS_Self", Type: "NOITEM_Vehicle", SubType: "Vehicle_Spaceship",
		Components: `<VehicleComponentParams vehicleDefinition="vehicles/aegs_gone.xml"/>`})
	c.Record(record.KindVehicle, "AEGS_Self", "", testutil.PartsXML([]testutil.Part{{Name: "Body", Mass: 100}}))

	r, err := newBuilder(t, c).Build("AEGS_Self")
	require.NoError(t, err)
	assert.Equal(t, "AEGS_Self", r.Implementation)
	assert.NotContains(t, r.Flags, entity.FlagNoParts)
}

func TestBuild_UnreadableSourceFails(t *testing.T) {
	c := shipCorpus(t)
	b := newBuilder(t, c)
	entry, ok := c.Index().Lookup(record.KindEntity, "THR_Main_B")
	require.True(t, ok)
	require.NoError(t, os.Remove(entry.Path))

	_, err := b.Build("ANVL_Test")
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrUnreadableSource)
	var unreadable *loader.UnreadableSourceError
	require.True(t, errors.As(err, &unreadable))
	assert.Equal(t, entry.Path, unreadable.Path)
}

func TestBuild_UnreadableManufacturerFails(t *testing.T) {
	c := shipCorpus(t)
	b := newBuilder(t, c)
	entry, ok := c.Index().Lookup(record.KindManufacturer, "ANVL")
	require.True(t, ok)
	require.NoError(t, os.Remove(entry.Path))

	_, err := b.Build("ANVL_Test")
	assert.ErrorIs(t, err, loader.ErrUnreadableSource)
}
