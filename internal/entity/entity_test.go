package entity_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/record"
	"github.com/cory-johannsen/shipyard/internal/testutil"
)

func mustRecord(t *testing.T, kind record.Kind, class, ref, body string) *record.Record {
	t.Helper()
	doc := "<" + string(kind) + "." + class + ` __type="` + string(kind) + `" __ref="` + ref + `">` +
		body + "</" + string(kind) + "." + class + ">"
	root, err := record.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return record.New(root, "mem://"+class)
}

func TestMergeLoadouts_OuterWins(t *testing.T) {
	defaults := []entity.LoadoutEntry{
		{PortName: "P", ClassName: "DefaultGun"},
		{PortName: "Q", ClassName: "DefaultMissile"},
	}
	outer := []entity.LoadoutEntry{
		{PortName: "p", ClassName: "OuterGun"},
		{PortName: "R", ClassName: "OuterShield"},
	}
	merged := entity.MergeLoadouts(outer, defaults)
	require.Len(t, merged, 3)

	p, ok := entity.FindEntry(merged, "P")
	require.True(t, ok)
	assert.Equal(t, "OuterGun", p.ClassName)

	q, ok := entity.FindEntry(merged, "Q")
	require.True(t, ok)
	assert.Equal(t, "DefaultMissile", q.ClassName)

	r, ok := entity.FindEntry(merged, "r")
	require.True(t, ok)
	assert.Equal(t, "OuterShield", r.ClassName)

	assert.Equal(t, "DefaultGun", defaults[0].ClassName, "inputs must not be modified")
}

func TestMergeLoadouts_EmptyOuterEntryStillOverrides(t *testing.T) {
	defaults := []entity.LoadoutEntry{{PortName: "P", ClassName: "DefaultGun"}}
	outer := []entity.LoadoutEntry{{PortName: "P"}}
	merged := entity.MergeLoadouts(outer, defaults)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].Empty())
}

func TestMergeLoadouts_Properties(t *testing.T) {
	portGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "e", "f"})
	entriesGen := func(label string) *rapid.Generator[[]entity.LoadoutEntry] {
		return rapid.Custom(func(rt *rapid.T) []entity.LoadoutEntry {
			ports := rapid.SliceOfDistinct(portGen, func(s string) string { return s }).Draw(rt, label+"Ports")
			out := make([]entity.LoadoutEntry, len(ports))
			for i, p := range ports {
				out[i] = entity.LoadoutEntry{PortName: p, ClassName: label + "_" + p}
			}
			return out
		})
	}
	rapid.Check(t, func(rt *rapid.T) {
		outer := entriesGen("outer").Draw(rt, "outer")
		defaults := entriesGen("default").Draw(rt, "defaults")
		merged := entity.MergeLoadouts(outer, defaults)

		seen := make(map[string]bool)
		for _, m := range merged {
			assert.False(rt, seen[m.PortName], "port %q appears twice", m.PortName)
			seen[m.PortName] = true
		}
		for _, o := range outer {
			got, ok := entity.FindEntry(merged, o.PortName)
			require.True(rt, ok)
			assert.Equal(rt, o.ClassName, got.ClassName)
		}
		for _, d := range defaults {
			got, ok := entity.FindEntry(merged, d.PortName)
			require.True(rt, ok)
			if _, overridden := entity.FindEntry(outer, d.PortName); !overridden {
				assert.Equal(rt, d.ClassName, got.ClassName)
			}
		}
	})
}

func TestParseLoadout_Nested(t *testing.T) {
	body := "<Components><SEntityComponentDefaultLoadoutParams>" + testutil.LoadoutXML([]testutil.Entry{
		{Port: "hardpoint_turret", Class: "Turret_S3", Nested: []testutil.Entry{
			{Port: "gun_left", Class: "Gun_S3", Ref: "11111111-1111-1111-1111-111111111111"},
		}},
	}) + "</SEntityComponentDefaultLoadoutParams></Components>"
	it, err := entity.DecodeItem(mustRecord(t, record.KindEntity, "Ship", "", body), nil)
	require.NoError(t, err)
	require.Len(t, it.DefaultLoadout, 1)
	turret := it.DefaultLoadout[0]
	assert.Equal(t, "hardpoint_turret", turret.PortName)
	require.Len(t, turret.Entries, 1)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", turret.Entries[0].ClassReference)
}

func TestDecodeItem_StandardView(t *testing.T) {
	body := testutil.ItemBody(testutil.Item{
		Class: "SHLD_S2", Type: "Shield", SubType: "UNDEFINED", Size: 2, Grade: 3, Mass: 1250,
		Ports: []testutil.Port{{Name: "slot", MinSize: 1, MaxSize: 2, Types: []string{"Misc.Utility"}, Flags: "uneditable invisible"}},
	})
	it, err := entity.DecodeItem(mustRecord(t, record.KindEntity, "SHLD_S2", "22222222-2222-2222-2222-222222222222", body),
		func(typ, sub string) string { return "Ship." + typ })
	require.NoError(t, err)
	assert.Equal(t, "Shield", it.Type)
	assert.Equal(t, 2, it.Size)
	assert.Equal(t, 3, it.Grade)
	assert.Equal(t, 1250.0, it.Mass)
	assert.Equal(t, "Ship.Shield", it.Classification)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", it.Identity())
	require.Len(t, it.Ports, 1)
	assert.True(t, it.Ports[0].HasFlag("UNEDITABLE"))
	assert.True(t, it.Ports[0].HasFlag(entity.FlagInvisible))
	assert.Equal(t, []string{"Misc.Utility"}, it.Ports[0].TypeNames())
}

func TestItem_JSONOmitsZeroSizeAndGrade(t *testing.T) {
	raw, err := json.Marshal(&entity.Item{ClassName: "Gun"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"Size"`)
	assert.NotContains(t, string(raw), `"Grade"`)

	raw, err = json.Marshal(&entity.Item{ClassName: "Gun", Size: 3, Grade: 1})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Size":3`)
	assert.Contains(t, string(raw), `"Grade":1`)
}

func TestItem_IdentityFallsBackToClass(t *testing.T) {
	it := &entity.Item{ClassName: "Gun"}
	assert.Equal(t, "Gun", it.Identity())
}

func TestDecodeVehicle_RequiresVehicleParams(t *testing.T) {
	rec := mustRecord(t, record.KindEntity, "NotShip", "", testutil.ItemBody(testutil.Item{Class: "NotShip", Type: "Cooler"}))
	_, err := entity.DecodeVehicle(rec)
	var notVehicle *entity.ErrNotAVehicle
	assert.ErrorAs(t, err, &notVehicle)
}

const implBody = `<Parts>
  <Part name="Body" mass="1000" damageMax="5000">
    <Parts>
      <Part id="wing_l" name="Wing_Left" mass="200" damageMax="800" detachDamageThreshold="0.5"/>
      <Part name="hardpoint_gun" damageMax="50">
        <ItemPort minSize="1" maxSize="3" flags="uneditable"><Types><Type type="WeaponGun" subtypes="Gun"/></Types></ItemPort>
      </Part>
    </Parts>
  </Part>
</Parts>
<Modifications>
  <Modification name="Heavy">
    <Elems>
      <Elem idRef="wing_l" name="mass" value="400"/>
      <Elem idRef="Body" name="damageMax" value="9000"/>
    </Elems>
  </Modification>
</Modifications>`

func TestDecodeImplementation_Parts(t *testing.T) {
	impl, err := entity.DecodeImplementation(mustRecord(t, record.KindVehicle, "Ship_Impl", "", implBody))
	require.NoError(t, err)
	require.Len(t, impl.Parts, 1)
	body := impl.Parts[0]
	require.NotNil(t, body.Mass)
	assert.Equal(t, 1000.0, *body.Mass)
	require.Len(t, body.Parts, 2)
	gun := body.Parts[1]
	assert.Nil(t, gun.Mass, "mass attribute absent")
	require.NotNil(t, gun.Port)
	assert.Equal(t, "hardpoint_gun", gun.Port.Name, "port takes its name from the part")
	assert.Equal(t, 3, gun.Port.MaxSize)
	assert.Equal(t, []string{"WeaponGun.Gun"}, gun.Port.TypeNames())
	assert.Equal(t, 0.5, body.Parts[0].DetachDamageThreshold)
	assert.Equal(t, []string{"Heavy"}, impl.Modifications())
}

func TestImplementation_WithModification(t *testing.T) {
	impl, err := entity.DecodeImplementation(mustRecord(t, record.KindVehicle, "Ship_Impl", "", implBody))
	require.NoError(t, err)

	heavy, ok := impl.WithModification("heavy")
	require.True(t, ok)
	assert.Equal(t, 9000.0, heavy.Parts[0].MaxDamage)
	assert.Equal(t, 400.0, *heavy.Parts[0].Parts[0].Mass)

	assert.Equal(t, 5000.0, impl.Parts[0].MaxDamage, "original untouched")
	assert.Equal(t, 200.0, *impl.Parts[0].Parts[0].Mass)

	same, ok := impl.WithModification("Missing")
	assert.False(t, ok)
	assert.Same(t, impl, same)
}

func TestDecodeAmmo(t *testing.T) {
	rec := mustRecord(t, record.KindAmmo, "Ammo_Laser", "", "")
	rec.Root.Attrs = append(rec.Root.Attrs, record.Attr{Name: "speed", Value: "1800"}, record.Attr{Name: "lifetime", Value: "2"})
	rec.Root.Elems = []*record.Node{{Name: "damage", Elems: []*record.Node{{
		Name:  "DamageInfo",
		Attrs: []record.Attr{{Name: "DamageEnergy", Value: "30"}, {Name: "DamagePhysical", Value: "5"}},
	}}}}
	a, err := entity.DecodeAmmo(rec)
	require.NoError(t, err)
	assert.Equal(t, 3600.0, a.Range)
	assert.Equal(t, 35.0, a.TotalDamage())
	assert.NotContains(t, a.Damage, "Thermal")
}

func TestDecodeBlueprint_IngredientReferences(t *testing.T) {
	body := `<ingredients><Ingredient entityClass="33333333-3333-3333-3333-333333333333" quantity="2"/><Ingredient entityClass="Copper" quantity="4"/></ingredients>`
	rec := mustRecord(t, record.KindBlueprint, "BP_Gun", "", body)
	rec.Root.SetAttr("outputEntity", "Gun_S1")
	bp, err := entity.DecodeBlueprint(rec)
	require.NoError(t, err)
	assert.Equal(t, "Gun_S1", bp.Output)
	require.Len(t, bp.Ingredients, 2)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", bp.Ingredients[0].ClassReference)
	assert.Equal(t, "Copper", bp.Ingredients[1].ClassName)
	assert.Equal(t, 4.0, bp.Ingredients[1].Quantity)
}
