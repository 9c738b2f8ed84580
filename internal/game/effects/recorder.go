package effects

import (
	"sync"

	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
)

// Command is one recorded Sink call.
type Command struct {
	Kind   string
	Owner  entity.Handle
	Name   string
	Point  cp.Vector
	Facing cp.Vector
	Value  bool
	Skin   string
}

// Command kinds.
const (
	KindEffect  = "effect"
	KindSound   = "sound"
	KindFlag    = "flag"
	KindTrigger = "trigger"
	KindLine    = "line"
	KindSkin    = "skin"
)

// Recorder is a Sink that keeps every command in call order.
// It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	flags    map[entity.Handle]map[string]bool
	lines    map[entity.Handle]map[string]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		flags: make(map[entity.Handle]map[string]bool),
		lines: make(map[entity.Handle]map[string]bool),
	}
}

func (r *Recorder) add(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
}

func (r *Recorder) PlayEffectAt(owner entity.Handle, effect string, point, facing cp.Vector) {
	r.add(Command{Kind: KindEffect, Owner: owner, Name: effect, Point: point, Facing: facing})
}

func (r *Recorder) PlayOneShotSound(owner entity.Handle, clip string) {
	r.add(Command{Kind: KindSound, Owner: owner, Name: clip})
}

func (r *Recorder) SetAnimationFlag(owner entity.Handle, name string, value bool) {
	r.mu.Lock()
	if r.flags[owner] == nil {
		r.flags[owner] = make(map[string]bool)
	}
	r.flags[owner][name] = value
	r.mu.Unlock()
	r.add(Command{Kind: KindFlag, Owner: owner, Name: name, Value: value})
}

func (r *Recorder) TriggerAnimation(owner entity.Handle, name string) {
	r.add(Command{Kind: KindTrigger, Owner: owner, Name: name})
}

func (r *Recorder) SetLine(owner entity.Handle, name string, from, to cp.Vector, visible bool) {
	r.mu.Lock()
	if r.lines[owner] == nil {
		r.lines[owner] = make(map[string]bool)
	}
	r.lines[owner][name] = visible
	r.mu.Unlock()
	r.add(Command{Kind: KindLine, Owner: owner, Name: name, Point: from, Facing: to, Value: visible})
}

func (r *Recorder) SetSkin(owner entity.Handle, skin string) {
	r.add(Command{Kind: KindSkin, Owner: owner, Skin: skin})
}

// Commands returns a copy of every recorded command.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Count returns how many commands of kind named name were recorded.
func (r *Recorder) Count(kind, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if c.Kind == kind && c.Name == name {
			n++
		}
	}
	return n
}

// Flag returns the last value set for owner's animation flag.
func (r *Recorder) Flag(owner entity.Handle, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flags[owner][name]
}

// LineVisible reports whether owner's named line is currently shown.
func (r *Recorder) LineVisible(owner entity.Handle, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines[owner][name]
}
