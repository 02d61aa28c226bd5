package resolve

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FieldByFieldInheritance(t *testing.T) {
	raw := &RawConfig{
		Defaults: GlobalDefaults{
			Runtime:    "nodejs22.x",
			Timeout:    30,
			MemorySize: 256,
			Layers:     []string{"shared-layer"},
		},
		Functions: map[string]*FunctionSpec{
			// Scenario from the project docs: unset timeout inherits, explicit
			// timeout overrides, each independently of the other fields.
			"webhook": {},
			"cron":    {Timeout: lo.ToPtr(300)},
			"heavy":   {MemorySize: lo.ToPtr(1024), Runtime: lo.ToPtr("nodejs20.x")},
		},
	}

	entities := Normalize(raw)
	byName := lo.KeyBy(entities, func(e *Entity) string { return e.Name })

	assert.Equal(t, 30, byName["webhook"].Timeout)
	assert.Equal(t, 300, byName["cron"].Timeout)
	assert.Equal(t, 256, byName["cron"].MemorySize, "cron overrides timeout but inherits memory")
	assert.Equal(t, 1024, byName["heavy"].MemorySize)
	assert.Equal(t, "nodejs20.x", byName["heavy"].Runtime)
	assert.Equal(t, "nodejs22.x", byName["cron"].Runtime)
	assert.Equal(t, []string{"shared-layer"}, byName["webhook"].Layers)
}

func TestNormalize_BoolOrStringThreeStates(t *testing.T) {
	g := GlobalDefaults{Env: EnvSpec{Node: BoolValue(true)}}
	raw := &RawConfig{
		Defaults: g,
		Functions: map[string]*FunctionSpec{
			"inherits": {},
			"disables": {EntityOverrides: EntityOverrides{Env: EnvSpec{Node: BoolValue(false)}}},
			"renames":  {EntityOverrides: EntityOverrides{Env: EnvSpec{Node: StringValue("staging")}}},
		},
	}

	byName := lo.KeyBy(Normalize(raw), func(e *Entity) string { return e.Name })

	assert.True(t, byName["inherits"].Env.Node.Enabled(), "unset must inherit the enabled global")
	assert.False(t, byName["disables"].Env.Node.Enabled(), "explicit false must not collapse into inherit")
	assert.Equal(t, "staging", byName["renames"].Env.Node.StringOr(""))
}

func TestNormalize_SortedAndStable(t *testing.T) {
	raw := &RawConfig{
		Services: map[string]*ServiceSpec{
			"zeta": {Image: "img"}, "alpha": {Image: "img"},
		},
		Functions: map[string]*FunctionSpec{"mid": {}},
	}

	first := Normalize(raw)
	second := Normalize(raw)

	require.Len(t, first, 3)
	names := lo.Map(first, func(e *Entity, _ int) string { return e.Name })
	assert.Equal(t, []string{"alpha", "zeta", "mid"}, names, "services sorted first, then functions")
	assert.Equal(t, names, lo.Map(second, func(e *Entity, _ int) string { return e.Name }))
}

func TestNormalize_EmptyConfig(t *testing.T) {
	assert.Empty(t, Normalize(&RawConfig{}))
}
