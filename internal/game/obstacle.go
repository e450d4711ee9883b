package game

import "rollaway/server/internal/mathx"

// ObstacleKind selects the obstacle mesh a renderer draws. Collision always
// treats the obstacle as an axis-aligned box regardless of kind.
type ObstacleKind int

const (
	KindCube ObstacleKind = iota
	KindPyramid
	KindCylinder
)

// String returns the renderer-facing mesh name.
func (k ObstacleKind) String() string {
	switch k {
	case KindPyramid:
		return "pyramid"
	case KindCylinder:
		return "cylinder"
	default:
		return "cube"
	}
}

// Obstacle is a static, ground-anchored box on the runway. Position marks the
// centre of the footprint; the box extends from Position.Y upward by Height.
type Obstacle struct {
	Position mathx.Vec3
	Width    float64
	Height   float64
	Depth    float64

	Active bool
	Damage float64
	Kind   ObstacleKind
	Color  mathx.Vec3
}

// CollidesWith runs the sphere-vs-AABB test against the ball. Inactive
// obstacles never collide.
func (o *Obstacle) CollidesWith(b *Ball) bool {
	if o == nil || b == nil || !o.Active {
		return false
	}

	//1.- Clamp the ball centre onto the box to find the closest surface point.
	closest := mathx.Vec3{
		mathx.Clamp(b.Position.X(), o.Position.X()-o.Width/2, o.Position.X()+o.Width/2),
		mathx.Clamp(b.Position.Y(), o.Position.Y(), o.Position.Y()+o.Height),
		mathx.Clamp(b.Position.Z(), o.Position.Z()-o.Depth/2, o.Position.Z()+o.Depth/2),
	}

	//2.- A hit is any closest point strictly inside the ball radius.
	return closest.Sub(b.Position).Len() < b.Radius
}

// ModelMatrix composes the render transform for the obstacle box.
func (o *Obstacle) ModelMatrix() mathx.Mat4 {
	if o == nil {
		return mathx.Mat4{}
	}
	center := mathx.Vec3{o.Position.X(), o.Position.Y() + o.Height/2, o.Position.Z()}
	return mathx.ModelMatrix(center, 0, 0, mathx.Vec3{o.Width, o.Height, o.Depth})
}
