package game

import (
	"math"

	"rollaway/server/internal/mathx"
)

const (
	cameraOrbitRate  = 0.5
	cameraDistance   = 8.0
	cameraHeight     = 4.0
	cameraLerpFactor = 5.0
)

// Camera is the lagged third-person camera orbiting the ball.
type Camera struct {
	Angle    float64
	Distance float64
	Height   float64
	Position mathx.Vec3
	Target   mathx.Vec3
}

// NewCamera returns the camera in its pre-run pose.
func NewCamera() Camera {
	return Camera{
		Distance: cameraDistance,
		Height:   cameraHeight,
		Position: mathx.Vec3{0, 5, 10},
	}
}

// Follow advances the orbit angle, eases the target toward the ball and
// recomputes the camera position from the orbital offset.
func (c *Camera) Follow(dt float64, ballPosition mathx.Vec3) {
	if c == nil {
		return
	}
	c.Angle += dt * cameraOrbitRate
	//1.- Exponential smoothing keeps the target trailing the ball.
	c.Target = mathx.Lerp(c.Target, ballPosition, dt*cameraLerpFactor)
	offset := mathx.Vec3{
		math.Sin(c.Angle) * c.Distance,
		c.Height,
		math.Cos(c.Angle) * c.Distance,
	}
	c.Position = c.Target.Add(offset)
}

// ViewMatrix builds the look-at matrix renderers consume.
func (c Camera) ViewMatrix() mathx.Mat4 {
	return mathx.LookAt(c.Position, c.Target)
}
