// Package effects defines the fire-and-forget cosmetic and audio commands the
// combat core emits. The core never waits on a Sink.
package effects

import (
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
)

// Effect, sound, animation and line names used by the combat core.
const (
	EffectHit         = "hit"
	EffectMuzzleFlash = "muzzle_flash"
	EffectShellEject  = "shell_eject"

	SoundHit    = "hit"
	SoundDeath  = "death"
	SoundShot   = "shot"
	SoundReload = "reload"

	FlagHasTarget = "HasTarget"
	TriggerDie    = "Die"

	LineTracer = "tracer"
)

// Sink receives presentation commands. Implementations must return promptly.
type Sink interface {
	PlayEffectAt(owner entity.Handle, effect string, point, facing cp.Vector)
	PlayOneShotSound(owner entity.Handle, clip string)
	SetAnimationFlag(owner entity.Handle, name string, value bool)
	TriggerAnimation(owner entity.Handle, name string)
	SetLine(owner entity.Handle, name string, from, to cp.Vector, visible bool)
	SetSkin(owner entity.Handle, skin string)
}

// Nop discards every command.
type Nop struct{}

// PlayEffectAt does nothing.
func (Nop) PlayEffectAt(entity.Handle, string, cp.Vector, cp.Vector) {}

// PlayOneShotSound does nothing.
func (Nop) PlayOneShotSound(entity.Handle, string) {}

// SetAnimationFlag does nothing.
func (Nop) SetAnimationFlag(entity.Handle, string, bool) {}

// TriggerAnimation does nothing.
func (Nop) TriggerAnimation(entity.Handle, string) {}

// SetLine does nothing.
func (Nop) SetLine(entity.Handle, string, cp.Vector, cp.Vector, bool) {}

// SetSkin does nothing.
func (Nop) SetSkin(entity.Handle, string) {}

// LogSink writes every command to a zap logger at debug level. The headless
// simulation binary uses it in place of a renderer.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a LogSink writing to logger.
//
// Precondition: logger must be non-nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("effects")}
}

// PlayEffectAt logs the effect with its point and facing.
func (s *LogSink) PlayEffectAt(owner entity.Handle, effect string, point, facing cp.Vector) {
	s.logger.Debug("play effect",
		zap.String("owner", string(owner)),
		zap.String("effect", effect),
		zap.Float64("x", point.X),
		zap.Float64("y", point.Y),
		zap.Float64("facing_x", facing.X),
		zap.Float64("facing_y", facing.Y),
	)
}

// PlayOneShotSound logs the sound clip.
func (s *LogSink) PlayOneShotSound(owner entity.Handle, clip string) {
	s.logger.Debug("play sound", zap.String("owner", string(owner)), zap.String("clip", clip))
}

// SetAnimationFlag logs the flag and its new value.
func (s *LogSink) SetAnimationFlag(owner entity.Handle, name string, value bool) {
	s.logger.Debug("animation flag",
		zap.String("owner", string(owner)),
		zap.String("flag", name),
		zap.Bool("value", value),
	)
}

// TriggerAnimation logs the trigger.
func (s *LogSink) TriggerAnimation(owner entity.Handle, name string) {
	s.logger.Debug("animation trigger", zap.String("owner", string(owner)), zap.String("trigger", name))
}

// SetLine logs the line endpoints and visibility.
func (s *LogSink) SetLine(owner entity.Handle, name string, from, to cp.Vector, visible bool) {
	s.logger.Debug("line",
		zap.String("owner", string(owner)),
		zap.String("line", name),
		zap.Float64("from_x", from.X),
		zap.Float64("from_y", from.Y),
		zap.Float64("to_x", to.X),
		zap.Float64("to_y", to.Y),
		zap.Bool("visible", visible),
	)
}

// SetSkin logs the skin change.
func (s *LogSink) SetSkin(owner entity.Handle, skin string) {
	s.logger.Debug("skin", zap.String("owner", string(owner)), zap.String("skin", skin))
}
