// Package game implements the rolling-ball runway simulation: the player
// ball, obstacles, collectibles, scenery, the follow camera and the state
// machine that owns them.
package game

import (
	"rollaway/server/internal/mathx"
)

const (
	// BallRadius is the player sphere radius in world units.
	BallRadius = 0.5
	// BallMass scales applied forces into acceleration.
	BallMass = 1.0
	// BallElasticity scales the rebound velocity after a floor impact.
	BallElasticity = 0.8
	// BallMaxHealth caps healing from collectibles.
	BallMaxHealth = 100.0
	// ballSpinSpeed is the decorative rotation rate in degrees per second.
	ballSpinSpeed = 2.0

	// groundFriction is the flat damping applied to the velocity after a floor bounce.
	groundFriction = 0.95
	// boundsX clamps the ball to the symmetric playable strip.
	boundsX = 10.0
	// boundsZMin is the only z clamp; forward progress has no far bound.
	boundsZMin = -50.0
)

var ballColor = mathx.Vec3{0.2, 0.8, 0.9}

// Ball is the player-controlled point mass with a radius.
type Ball struct {
	Position     mathx.Vec3
	Velocity     mathx.Vec3
	Acceleration mathx.Vec3

	Radius     float64
	Mass       float64
	Elasticity float64

	Health float64
	Alive  bool

	// RotationAngle and RotationSpeed are decorative; they drive the rendered
	// spin and have no physical meaning.
	RotationAngle float64
	RotationSpeed float64

	Color mathx.Vec3

	// pendingForce queues ApplyForce contributions until the next Update, so
	// key presses landing between ticks still reach the integrator.
	pendingForce mathx.Vec3
}

// NewBall returns a ball hovering above the start line with full health.
func NewBall() *Ball {
	return &Ball{
		Position:      mathx.Vec3{0, 2, 0},
		Radius:        BallRadius,
		Mass:          BallMass,
		Elasticity:    BallElasticity,
		Health:        BallMaxHealth,
		Alive:         true,
		RotationSpeed: ballSpinSpeed,
		Color:         ballColor,
	}
}

// Update advances the ball by one semi-implicit Euler step under gravity and
// applies the flat-floor bounce plus the playfield bounds. The flat floor is a
// safety net; the owning run performs terrain-surface collision separately.
func (b *Ball) Update(dt float64, gravity mathx.Vec3) {
	if b == nil || !b.Alive {
		return
	}

	//1.- Fixed integration order: acceleration, then velocity, then position.
	b.Acceleration = gravity.Add(b.pendingForce)
	b.pendingForce = mathx.Vec3{}
	b.Velocity = b.Velocity.Add(b.Acceleration.Mul(dt))
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	//2.- Advance the decorative spin.
	b.RotationAngle = mathx.WrapDegrees(b.RotationAngle + b.RotationSpeed*dt)

	//3.- Flat-floor bounce: clamp to the radius, reflect and damp the velocity.
	if b.Position.Y()-b.Radius < 0 {
		b.Position[1] = b.Radius
		b.Velocity[1] = -b.Velocity[1] * b.Elasticity
		b.Velocity = b.Velocity.Mul(groundFriction)
	}

	//4.- Keep the ball on the playable strip; only the near z edge is clamped.
	b.Position[0] = mathx.Clamp(b.Position[0], -boundsX, boundsX)
	if b.Position[2] < boundsZMin {
		b.Position[2] = boundsZMin
	}
}

// ApplyForce queues force/mass for the next integration step.
func (b *Ball) ApplyForce(force mathx.Vec3) {
	if b == nil {
		return
	}
	b.pendingForce = b.pendingForce.Add(force.Mul(1 / b.Mass))
}

// TakeDamage subtracts health and flips the alive flag at zero. Health is not
// clamped below zero beyond the flag.
func (b *Ball) TakeDamage(damage float64) {
	if b == nil {
		return
	}
	b.Health -= damage
	if b.Health <= 0 {
		b.Alive = false
	}
}

// ModelMatrix composes the render transform for the ball.
func (b *Ball) ModelMatrix() mathx.Mat4 {
	if b == nil {
		return mathx.Mat4{}
	}
	scale := mathx.Vec3{b.Radius, b.Radius, b.Radius}
	return mathx.ModelMatrix(b.Position, b.RotationAngle, b.RotationAngle*0.7, scale)
}
