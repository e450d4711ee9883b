package game

import "rollaway/server/internal/mathx"

const (
	// collectScore is awarded per collected pickup.
	collectScore = 50.0
	// collectHeal is the health restored per pickup, capped at BallMaxHealth.
	collectHeal = 10.0
	// collectReach extends the ball radius when testing pickups.
	collectReach = 0.5
)

// Collectible is a floating pickup point on the runway.
type Collectible struct {
	Position mathx.Vec3
}

// InReach reports whether the ball is close enough to consume the pickup.
func (c Collectible) InReach(b *Ball) bool {
	if b == nil {
		return false
	}
	return c.Position.Sub(b.Position).Len() < b.Radius+collectReach
}
