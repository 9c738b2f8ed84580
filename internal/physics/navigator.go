package physics

import (
	"github.com/jakecoffman/cp"
)

// arriveDistance is how close a body must get to its destination to stop.
const arriveDistance = 0.05

// Navigator steers its body in a straight line toward a destination at a
// fixed speed. Route planning around obstacles is out of its scope.
type Navigator struct {
	body     *Body
	dest     cp.Vector
	hasDest  bool
	enabled  bool
	speed    float64
	stop     float64
	disabled bool
}

func newNavigator(b *Body) *Navigator {
	return &Navigator{body: b, enabled: true}
}

// SetDestination sets the point to move toward.
func (n *Navigator) SetDestination(point cp.Vector) {
	if n.disabled {
		return
	}
	n.dest = point
	n.hasDest = true
}

// Destination returns the last destination and whether one was set.
func (n *Navigator) Destination() (cp.Vector, bool) { return n.dest, n.hasDest }

// SetMovementEnabled pauses or resumes movement. Pausing stops the body at
// once.
func (n *Navigator) SetMovementEnabled(enabled bool) {
	n.enabled = enabled
	if !enabled {
		n.body.body.SetVelocityVector(cp.Vector{})
	}
}

// MovementEnabled reports whether movement is resumed and the navigator is
// not disabled.
func (n *Navigator) MovementEnabled() bool { return n.enabled && !n.disabled }

// SetSpeed sets the movement speed in world units per second. Negative
// values are ignored.
func (n *Navigator) SetSpeed(speed float64) {
	if speed >= 0 {
		n.speed = speed
	}
}

// SetStoppingDistance makes the body halt once its center is within d of
// the destination. Negative values are ignored.
func (n *Navigator) SetStoppingDistance(d float64) {
	if d >= 0 {
		n.stop = d
	}
}

// StoppingDistance returns the distance kept from the destination.
func (n *Navigator) StoppingDistance() float64 { return n.stop }

// Speed returns the movement speed.
func (n *Navigator) Speed() float64 { return n.speed }

// Disable stops the body and ignores every later destination.
func (n *Navigator) Disable() {
	n.disabled = true
	n.hasDest = false
	n.body.body.SetVelocityVector(cp.Vector{})
}

// Disabled reports whether Disable was called.
func (n *Navigator) Disabled() bool { return n.disabled }

// steer sets the velocity for the next dt seconds without overshooting.
func (n *Navigator) steer(dt float64) {
	if n.disabled || !n.enabled || !n.hasDest || n.speed == 0 || dt <= 0 {
		n.body.body.SetVelocityVector(cp.Vector{})
		return
	}
	delta := n.dest.Sub(n.body.Position())
	dist := delta.Length()
	remaining := dist - n.stop
	if remaining <= arriveDistance {
		n.body.body.SetVelocityVector(cp.Vector{})
		return
	}
	speed := n.speed
	if remaining < speed*dt {
		speed = remaining / dt
	}
	n.body.body.SetVelocityVector(delta.Mult(speed / dist))
}
