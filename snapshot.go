package main

import (
	"encoding/json"
	"strconv"

	"rollaway/server/internal/game"
	"rollaway/server/internal/mathx"
)

// snapshotSchemaVersion tags every outgoing snapshot so renderer clients can
// reject frames they do not understand.
const snapshotSchemaVersion = "rollaway.v1"

type snapshotBall struct {
	Position      mathx.Vec3 `json:"position"`
	Velocity      mathx.Vec3 `json:"velocity"`
	Radius        float64    `json:"radius"`
	Health        float64    `json:"health"`
	Alive         bool       `json:"alive"`
	RotationAngle float64    `json:"rotation_angle"`
	Color         mathx.Vec3 `json:"color"`
	Model         mathx.Mat4 `json:"model"`
}

type snapshotCamera struct {
	Position mathx.Vec3 `json:"position"`
	Target   mathx.Vec3 `json:"target"`
	View     mathx.Mat4 `json:"view"`
}

type snapshotObstacle struct {
	Position mathx.Vec3 `json:"position"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Depth    float64    `json:"depth"`
	Kind     string     `json:"kind"`
	Active   bool       `json:"active"`
	Color    mathx.Vec3 `json:"color"`
	Model    mathx.Mat4 `json:"model"`
}

type snapshotCollectible struct {
	Position mathx.Vec3 `json:"position"`
}

// snapshot is the per-tick world state streamed to every connected client.
type snapshot struct {
	SchemaVersion string                `json:"schema_version"`
	Tick          uint64                `json:"tick"`
	SimulatedMs   int64                 `json:"simulated_ms"`
	Seed          string                `json:"seed"`
	HUD           game.HUD              `json:"hud"`
	Ball          snapshotBall          `json:"ball"`
	Camera        snapshotCamera        `json:"camera"`
	Obstacles     []snapshotObstacle    `json:"obstacles"`
	Collectibles  []snapshotCollectible `json:"collectibles"`
	Events        []game.Event          `json:"events,omitempty"`
}

// buildSnapshot assembles the wire snapshot from copies of game state. The
// events slice is owned by the caller, typically the tick's drained buffer.
func buildSnapshot(g *game.Game, tick uint64, simulatedMs int64, events []game.Event) snapshot {
	ball := g.BallState()
	camera := g.CameraState()

	snap := snapshot{
		SchemaVersion: snapshotSchemaVersion,
		Tick:          tick,
		SimulatedMs:   simulatedMs,
		Seed:          strconv.FormatInt(g.Seed(), 10),
		HUD:           g.HUD(),
		Ball: snapshotBall{
			Position:      ball.Position,
			Velocity:      ball.Velocity,
			Radius:        ball.Radius,
			Health:        ball.Health,
			Alive:         ball.Alive,
			RotationAngle: ball.RotationAngle,
			Color:         ball.Color,
			Model:         ball.ModelMatrix(),
		},
		Camera: snapshotCamera{
			Position: camera.Position,
			Target:   camera.Target,
			View:     camera.ViewMatrix(),
		},
		Events: events,
	}

	//1.- Obstacles and collectibles are copied per tick; the lists are short.
	for _, obstacle := range g.Obstacles() {
		snap.Obstacles = append(snap.Obstacles, snapshotObstacle{
			Position: obstacle.Position,
			Width:    obstacle.Width,
			Height:   obstacle.Height,
			Depth:    obstacle.Depth,
			Kind:     obstacle.Kind.String(),
			Active:   obstacle.Active,
			Color:    obstacle.Color,
			Model:    obstacle.ModelMatrix(),
		})
	}
	for _, collectible := range g.Collectibles() {
		snap.Collectibles = append(snap.Collectibles, snapshotCollectible{Position: collectible.Position})
	}
	return snap
}

// encodeSnapshot renders the snapshot as a single-line JSON frame.
func encodeSnapshot(snap snapshot) ([]byte, error) {
	return json.Marshal(snap)
}
