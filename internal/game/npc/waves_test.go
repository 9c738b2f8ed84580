package npc_test

import (
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/zombiex/internal/game/npc"
)

func killAll(m *npc.Manager) {
	for _, e := range m.All() {
		e.ApplyDamage(e.Health(), cp.Vector{}, cp.Vector{})
	}
}

func TestWaveManager_NextWaveAfterClear(t *testing.T) {
	a := newArena(t, nil)
	wm, err := npc.NewWaveManager(a.spawner, a.sched, npc.WaveConfig{First: 1, Size: 2, Growth: 1, Delay: 3 * time.Second}, nil)
	require.NoError(t, err)

	var spawned, cleared []int
	wm.OnWave = func(wave int, enemies []*npc.Enemy) { spawned = append(spawned, len(enemies)) }
	wm.OnCleared = func(wave int) { cleared = append(cleared, wave) }

	require.NoError(t, wm.Start())
	assert.Equal(t, 1, wm.Wave())
	assert.Equal(t, 2, a.manager.LiveCount())

	wm.Tick()
	assert.False(t, wm.Pending(), "wave still alive")

	killAll(a.manager)
	wm.Tick()
	require.True(t, wm.Pending())
	wm.Tick()
	assert.Equal(t, []int{1}, cleared, "cleared once per wave")

	a.frame(2999 * time.Millisecond)
	assert.Equal(t, 1, wm.Wave())
	a.frame(time.Millisecond)
	assert.Equal(t, 2, wm.Wave())
	assert.Equal(t, 3, a.manager.LiveCount())
	assert.Equal(t, 3, a.manager.Count(), "cleared corpses despawned")
	assert.Equal(t, []int{2, 3}, spawned)
}

func TestWaveManager_TemplateDelayWins(t *testing.T) {
	slow := npc.DefaultZombie()
	slow.RespawnDelay = "10s"
	a := newArena(t, nil, slow)
	wm, err := npc.NewWaveManager(a.spawner, a.sched, npc.WaveConfig{First: 1, Size: 1, Delay: time.Second}, nil)
	require.NoError(t, err)
	require.NoError(t, wm.Start())

	killAll(a.manager)
	wm.Tick()
	a.frame(5 * time.Second)
	assert.Equal(t, 1, wm.Wave())
	a.frame(5 * time.Second)
	assert.Equal(t, 2, wm.Wave())
}

func TestWaveConfig_Validate(t *testing.T) {
	assert.NoError(t, npc.WaveConfig{First: 1, Size: 1}.Validate())
	assert.Error(t, npc.WaveConfig{First: 0, Size: 1}.Validate())
	assert.Error(t, npc.WaveConfig{First: 1, Size: 0}.Validate())
	assert.Error(t, npc.WaveConfig{First: 1, Size: 1, Growth: -1}.Validate())
}
