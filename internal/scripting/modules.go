package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with engine.log.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetGlobal("engine", engine)
}

// logModule exposes engine.log.{debug,info,warn,error}(msg).
func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	scriptLog := m.logger.Named("lua")
	levels := map[string]func(string, ...zap.Field){
		"debug": scriptLog.Debug,
		"info":  scriptLog.Info,
		"warn":  scriptLog.Warn,
		"error": scriptLog.Error,
	}
	tbl := L.NewTable()
	for name, logFn := range levels {
		logFn := logFn
		L.SetField(tbl, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1))
			return 0
		}))
	}
	return tbl
}
