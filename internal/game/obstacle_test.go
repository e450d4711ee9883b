package game

import (
	"testing"

	"rollaway/server/internal/mathx"
)

func TestObstacleCollision(t *testing.T) {
	box := Obstacle{
		Position: mathx.Vec3{0, 0, 0},
		Width:    2,
		Height:   2,
		Depth:    2,
		Active:   true,
	}
	ball := NewBall()

	cases := []struct {
		name string
		at   mathx.Vec3
		hit  bool
	}{
		{"centre overlap", mathx.Vec3{0, 1, 0}, true},
		{"grazing the side face", mathx.Vec3{1.3, 1, 0}, true},
		{"just outside the side face", mathx.Vec3{1.6, 1, 0}, false},
		{"resting on top", mathx.Vec3{0, 2.3, 0}, true},
		{"hovering above", mathx.Vec3{0, 2.6, 0}, false},
		{"touching exactly at radius", mathx.Vec3{1.5, 1, 0}, false},
		{"corner approach inside", mathx.Vec3{1.2, 1, 1.2}, true},
		{"corner approach outside", mathx.Vec3{1.4, 1, 1.4}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ball.Position = tc.at
			if got := box.CollidesWith(ball); got != tc.hit {
				t.Fatalf("at %v got %v, want %v", tc.at, got, tc.hit)
			}
		})
	}
}

func TestObstacleBoxIsGroundAnchored(t *testing.T) {
	box := Obstacle{Position: mathx.Vec3{0, 1, 0}, Width: 2, Height: 2, Depth: 2, Active: true}
	ball := NewBall()

	//1.- Below Position.Y the box does not exist; it extends upward only.
	ball.Position = mathx.Vec3{0, 0.4, 0}
	if box.CollidesWith(ball) {
		t.Fatalf("box must not extend below its anchor")
	}
	ball.Position = mathx.Vec3{0, 1.4, 0}
	if !box.CollidesWith(ball) {
		t.Fatalf("ball inside the anchored box must collide")
	}
}

func TestInactiveObstacleNeverCollides(t *testing.T) {
	box := Obstacle{Position: mathx.Vec3{}, Width: 4, Height: 4, Depth: 4}
	ball := NewBall()
	ball.Position = mathx.Vec3{0, 1, 0}
	if box.CollidesWith(ball) {
		t.Fatalf("inactive obstacles must be ignored")
	}
}

func TestCollectibleReach(t *testing.T) {
	ball := NewBall()
	ball.Position = mathx.Vec3{0, 2, 0}

	near := Collectible{Position: mathx.Vec3{0, 2.9, 0}}
	far := Collectible{Position: mathx.Vec3{0, 3.1, 0}}
	if !near.InReach(ball) {
		t.Fatalf("pickup inside radius+reach must be collectible")
	}
	if far.InReach(ball) {
		t.Fatalf("pickup beyond radius+reach must stay")
	}
}
