package game

import "rollaway/server/internal/mathx"

// Tree is decorative roadside scenery; it never participates in collision.
type Tree struct {
	Position      mathx.Vec3
	Height        float64
	TrunkRadius   float64
	FoliageRadius float64
	TrunkColor    mathx.Vec3
	FoliageColor  mathx.Vec3
}

// TrunkModelMatrix composes the render transform for the trunk cylinder.
func (t Tree) TrunkModelMatrix() mathx.Mat4 {
	center := mathx.Vec3{t.Position.X(), t.Position.Y() + t.Height/2, t.Position.Z()}
	return mathx.ModelMatrix(center, 0, 0, mathx.Vec3{t.TrunkRadius, t.Height, t.TrunkRadius})
}

// FoliageModelMatrix composes the render transform for the foliage blob.
func (t Tree) FoliageModelMatrix() mathx.Mat4 {
	center := mathx.Vec3{t.Position.X(), t.Position.Y() + t.Height, t.Position.Z()}
	return mathx.ModelMatrix(center, 0, 0, mathx.Vec3{t.FoliageRadius, t.FoliageRadius * 0.8, t.FoliageRadius})
}

// GrassPatch is a decorative tuft placed on the terrain surface.
type GrassPatch struct {
	Position mathx.Vec3
}
