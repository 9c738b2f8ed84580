package npc

import (
	"fmt"

	"github.com/cory-johannsen/zombiex/internal/game/effects"
	"github.com/cory-johannsen/zombiex/internal/game/pursuit"
	"github.com/cory-johannsen/zombiex/internal/physics"
)

// Enemy is a live enemy instance: a pursuit agent bound to a physics body.
// It implements entity.Combatant through the embedded agent.
type Enemy struct {
	*pursuit.Agent

	template *Template
	body     *physics.Body
	sink     effects.Sink
	skin     string
	wave     int
}

// NewEnemy builds an enemy from tmpl moving with body.
//
// Precondition: tmpl is valid; body is non-nil. deps.Body, deps.Nav and
// deps.Handle are overwritten from body.
// Postcondition: the enemy is alive at tmpl.Health with tmpl's skin applied.
func NewEnemy(tmpl *Template, body *physics.Body, cfg pursuit.Config, deps pursuit.Deps) (*Enemy, error) {
	if tmpl == nil || body == nil {
		return nil, fmt.Errorf("npc.NewEnemy: template and body are required")
	}
	deps.Body = body
	deps.Nav = body.Navigator()
	deps.Handle = body.Handle()
	if deps.Sink == nil {
		deps.Sink = effects.Nop{}
	}
	agent, err := pursuit.NewAgent(tmpl.Health, cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("npc.NewEnemy %q: %w", tmpl.ID, err)
	}
	e := &Enemy{
		Agent:    agent,
		template: tmpl,
		body:     body,
		sink:     deps.Sink,
	}
	e.Setup(tmpl.Health, tmpl.Damage, tmpl.Speed, tmpl.Skin)
	return e, nil
}

// Setup applies the spawn-time parameters: starting and current health,
// contact damage, movement speed and the renderer skin.
func (e *Enemy) Setup(health, damage, speed float64, skin string) {
	e.SetStartingHealth(health)
	e.SetDamage(damage)
	e.SetSpeed(speed)
	e.skin = skin
	if skin != "" {
		e.sink.SetSkin(e.Handle(), skin)
	}
}

// Template returns the template the enemy was built from.
func (e *Enemy) Template() *Template { return e.template }

// Body returns the enemy's physics body.
func (e *Enemy) Body() *physics.Body { return e.body }

// Skin returns the applied skin.
func (e *Enemy) Skin() string { return e.skin }

// Wave returns the wave the enemy was spawned in.
func (e *Enemy) Wave() int { return e.wave }
