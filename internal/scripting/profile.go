package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// SpawnProfileHook is the Lua global consulted when an enemy spawns.
//
//	function spawn_profile(template_id, wave)
//	  return { health = 100 + wave * 10, skin = "#ff0000" }
//	end
const SpawnProfileHook = "spawn_profile"

// Profile holds spawn-time overrides. Zero fields mean the script did not
// set them.
type Profile struct {
	Health float64
	Damage float64
	Speed  float64
	Skin   string
}

// SpawnProfile calls spawn_profile(templateID, wave) and converts the
// returned table. A missing hook, a runtime error or a non-table result
// yields the zero Profile. Negative or non-numeric fields are ignored.
func (m *Manager) SpawnProfile(templateID string, wave int) Profile {
	ret, err := m.CallHook(SpawnProfileHook, lua.LString(templateID), lua.LNumber(wave))
	if err != nil || ret == lua.LNil {
		return Profile{}
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		m.logger.Warn("spawn_profile returned a non-table",
			zap.String("template", templateID),
			zap.String("type", ret.Type().String()),
		)
		return Profile{}
	}
	p := Profile{
		Health: positiveNumber(tbl.RawGetString("health")),
		Damage: positiveNumber(tbl.RawGetString("damage")),
		Speed:  positiveNumber(tbl.RawGetString("speed")),
	}
	if s, ok := tbl.RawGetString("skin").(lua.LString); ok {
		p.Skin = string(s)
	}
	return p
}

func positiveNumber(v lua.LValue) float64 {
	n, ok := v.(lua.LNumber)
	if !ok || n <= 0 {
		return 0
	}
	return float64(n)
}
