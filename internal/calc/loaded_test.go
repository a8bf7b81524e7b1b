package calc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/shipyard/internal/calc"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/record"
	"github.com/cory-johannsen/shipyard/internal/testutil"
)

const (
	resistRef = "b0000000-0000-4000-8000-000000000001"
	ammoRef   = "b0000000-0000-4000-8000-000000000002"
)

func services(t *testing.T) *loader.Services {
	t.Helper()
	c := testutil.NewCorpus(t)
	c.Record(record.KindDamageResistance, "SHIELD_Resist", resistRef,
		`<damageResistance><PhysicalResistance Multiplier="0.8"/><EnergyResistance Multiplier="0.5"/></damageResistance>`)
	c.Record(record.KindAmmo, "AMMO_Laser_S1", ammoRef, `<damage><DamageInfo DamageEnergy="30" DamagePhysical="10"/></damage>`)
	return loader.NewServices(c.Index(), nil)
}

func TestShields_SumsGeneratorsAndScalesRegen(t *testing.T) {
	shield := `<SCItemShieldGeneratorParams MaxShieldHealth="1000" MaxShieldRegen="100" DamagedRegenDelay="5" DownedRegenDelay="10" DamageResistance="` + resistRef + `"/>`
	ctx := newContext(
		mount("hardpoint_shield_1", installed(t, "SHLD_A", "Shield", shield)),
		mount("hardpoint_shield_2", installed(t, "SHLD_B", "Shield", shield)),
	)
	ctx.Services = services(t)

	res, err := calc.Shields{}.Run(ctx)
	require.NoError(t, err)
	s := res["Shields"].(*calc.ShieldStats)
	assert.Equal(t, 2, s.Generators)
	assert.Equal(t, 2000.0, s.MaxHealth)
	assert.Equal(t, 132.0, s.Regen)
	assert.Equal(t, 10.0, s.DownedRegenDelay)
	assert.Equal(t, 0.5, s.Resistance["Energy"])
	assert.Len(t, s.Resistance, 2)
}

func TestShields_MissingResistanceIsAbsent(t *testing.T) {
	ctx := newContext(mount("hardpoint_shield", installed(t, "SHLD", "Shield",
		`<SCItemShieldGeneratorParams MaxShieldHealth="10" DamageResistance="NO_SUCH_MACRO"/>`)))
	ctx.Services = services(t)
	res, err := calc.Shields{}.Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, res["Shields"].(*calc.ShieldStats).Resistance)
}

func TestWeapons_DamageFromAmmunition(t *testing.T) {
	gun := `<SCItemWeaponComponentParams fireRate="600"/><SAmmoContainerComponentParams ammoParamsRecord="` + ammoRef + `"/>`
	ctx := newContext(
		mount("hardpoint_weapon_left", installed(t, "GUN_S1", "WeaponGun", gun)),
		mount("hardpoint_weapon_right", installed(t, "GUN_S1", "WeaponGun", gun)),
		mount("hardpoint_weapon_empty", nil),
		mount("hardpoint_missile_rack", installed(t, "MSSL", "Missile", "")),
	)
	ctx.Services = services(t)

	res, err := calc.Weapons{}.Run(ctx)
	require.NoError(t, err)
	w := res["Weapons"].(*calc.WeaponStats)
	require.Len(t, w.Guns, 2)
	assert.Equal(t, "AMMO_Laser_S1", w.Guns[0].Ammo)
	assert.Equal(t, 40.0, w.Guns[0].Alpha)
	assert.Equal(t, 400.0, w.Guns[0].DPS)
	assert.Equal(t, 800.0, w.DPS)
	assert.Equal(t, 1, w.Missiles)
}
