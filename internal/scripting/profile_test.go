package scripting_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zombiex/internal/scripting"
)

const waveScaling = `
function spawn_profile(template_id, wave)
	if template_id == "brute" then
		return { health = 300, damage = 40, speed = 1.5, skin = "#552222" }
	end
	return { health = 100 + wave * 10 }
end
`

func TestSpawnProfile_ScalesWithWave(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "profile.lua", waveScaling), 0))

	p := mgr.SpawnProfile("zombie", 3)
	assert.Equal(t, scripting.Profile{Health: 130}, p)

	p = mgr.SpawnProfile("brute", 1)
	assert.Equal(t, scripting.Profile{Health: 300, Damage: 40, Speed: 1.5, Skin: "#552222"}, p)
}

func TestSpawnProfile_MissingHookIsZero(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Equal(t, scripting.Profile{}, mgr.SpawnProfile("zombie", 1))
}

func TestSpawnProfile_NonTableWarns(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "p.lua", `function spawn_profile() return 7 end`), 0))
	assert.Equal(t, scripting.Profile{}, mgr.SpawnProfile("zombie", 1))
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestSpawnProfile_IgnoresBadFields(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "p.lua", `
		function spawn_profile()
			return { health = -5, damage = "lots", speed = 0, skin = 12 }
		end
	`), 0))
	assert.Equal(t, scripting.Profile{}, mgr.SpawnProfile("zombie", 1))
}

func TestProperty_SpawnProfile_HealthMatchesScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "profile.lua", waveScaling), 0))
	rapid.Check(t, func(rt *rapid.T) {
		wave := rapid.IntRange(1, 1000).Draw(rt, "wave")
		p := mgr.SpawnProfile("zombie", wave)
		if p.Health != float64(100+wave*10) {
			rt.Fatalf("health = %v for wave %d", p.Health, wave)
		}
	})
}

func TestSpawnProfile_ShippedScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(filepath.Join("..", "..", "content", "scripts"), 100000))

	assert.Equal(t, scripting.Profile{Health: 100}, mgr.SpawnProfile("zombie", 1))
	assert.Equal(t, scripting.Profile{Health: 300 * 1.3, Damage: 40}, mgr.SpawnProfile("brute", 3))
	late := mgr.SpawnProfile("zombie", 5)
	assert.Equal(t, 3.0, late.Speed)
	assert.Equal(t, "#8a9a3a", late.Skin)
}
