package game

import (
	"math"
	"math/rand"
	"sync"

	"rollaway/server/internal/input"
	"rollaway/server/internal/logging"
	"rollaway/server/internal/mathx"
	"rollaway/server/internal/terrain"
)

const (
	baseSpeed      = 10.0
	baseDifficulty = 1.0
	speedRamp      = 0.1
	difficultyRamp = 0.01
	scoreRate      = 0.1

	inputForce   = 15.0
	jumpVelocity = 8.0
	// restEpsilon is the tolerance for the "resting on terrain" jump check.
	restEpsilon = 0.1

	// slideFactor scales the normal-projection removed on terrain contact.
	slideFactor = 0.1
	// hitPenaltyFactor converts obstacle damage into a score penalty.
	hitPenaltyFactor = 2.0
	// bounceBackFactor reverses and halves the velocity after an obstacle hit.
	bounceBackFactor = -0.5

	envSpinDefault = 0.1
)

// Gravity is the fixed gravity vector applied every playing tick.
var Gravity = mathx.Vec3{0, -9.8, 0}

// HUD bundles the scalar readouts widget layers poll every frame.
type HUD struct {
	State               string  `json:"state"`
	Score               float64 `json:"score"`
	Distance            float64 `json:"distance"`
	Health              float64 `json:"health"`
	Speed               float64 `json:"speed"`
	Difficulty          float64 `json:"difficulty"`
	EnvironmentRotation float64 `json:"environment_rotation"`
	SpinEnabled         bool    `json:"spin_enabled"`
}

// Game owns the ball, terrain, runway content, camera and progression
// scalars for a single player. All entry points are safe for concurrent use
// by the simulation loop, the intent pipeline and HTTP readers.
type Game struct {
	mu sync.Mutex

	state   State
	ball    *Ball
	terrain *terrain.Terrain

	obstacles    []Obstacle
	collectibles []Collectible
	trees        []Tree
	grass        []GrassPatch

	camera Camera

	speed      float64
	difficulty float64
	score      float64
	distance   float64

	envRotation      float64
	envRotationSpeed float64

	runSeed int64
	rng     *rand.Rand

	events []Event
	logger *logging.Logger
}

// New builds a game in the menu state with a fully populated runway so
// renderers have something to draw before the first run starts.
func New(seed int64, logger *logging.Logger) *Game {
	if logger == nil {
		logger = logging.L()
	}
	g := &Game{
		state:  StateMenu,
		camera: NewCamera(),
		logger: logger,
	}
	g.populate(seed)
	return g
}

// populate reinitialises every owned collection and scalar from the seed.
// Callers hold the mutex (or are the constructor).
func (g *Game) populate(seed int64) {
	g.runSeed = seed
	g.rng = rand.New(rand.NewSource(seed))

	g.ball = NewBall()
	g.terrain = terrain.Generate(terrain.DefaultParams(), g.rng)
	g.obstacles = nil
	g.collectibles = nil
	g.trees = nil
	g.grass = nil

	g.speed = baseSpeed
	g.difficulty = baseDifficulty
	g.score = 0
	g.distance = 0
	g.envRotation = 0
	g.envRotationSpeed = envSpinDefault
	g.camera = NewCamera()
	g.camera.Target = g.ball.Position

	//1.- Seed the runway with its opening stretch of content.
	g.spawnObstacles(initialObstacles)
	g.spawnCollectibles(initialCollectibles)
	g.spawnTrees(initialTrees)
	g.spawnGrass(initialGrass)
}

// Reset reinitialises the run from the seed and transitions to playing.
func (g *Game) Reset(seed int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked(seed)
}

func (g *Game) resetLocked(seed int64) {
	g.populate(seed)
	g.setStateLocked(StatePlaying)
	g.logger.Info("run started", logging.Int64("seed", seed))
}

// setStateLocked applies a transition result and records the change.
func (g *Game) setStateLocked(next State) {
	if next == g.state {
		return
	}
	g.state = next
	g.events = append(g.events, Event{Kind: EventStateChange, State: next.String()})
}

// Update advances the simulation by one fixed step. It only progresses while
// playing; menu, paused and game-over states are frozen.
func (g *Game) Update(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StatePlaying || dt < 0 {
		return
	}

	//1.- Advance the decorative environment rotation.
	g.envRotation = mathx.WrapDegrees(g.envRotation + g.envRotationSpeed*dt)

	//2.- Integrate the ball under gravity; this includes the flat-floor bounce.
	g.ball.Update(dt, Gravity)

	//3.- Terrain-surface collision: snap onto the surface and slide along it.
	// This runs in addition to the ball's own flat-floor bounce; both paths are
	// intentional and may fire in the same frame.
	surface := g.terrain.Height(g.ball.Position.X(), g.ball.Position.Z())
	if g.ball.Position.Y()-g.ball.Radius < surface {
		g.ball.Position[1] = surface + g.ball.Radius
		g.ball.Velocity[1] = 0
		normal := g.terrain.Normal(g.ball.Position.X(), g.ball.Position.Z())
		g.ball.Velocity = g.ball.Velocity.Sub(normal.Mul(g.ball.Velocity.Dot(normal) * slideFactor))
	}

	//4.- Monotonic progression: distance, score, difficulty and speed.
	g.distance += g.speed * dt
	g.score += g.speed * dt * scoreRate
	g.difficulty += difficultyRamp * dt
	g.speed += speedRamp * dt

	//5.- Obstacle hits: damage, bounce back, deactivate, score penalty.
	for i := range g.obstacles {
		obstacle := &g.obstacles[i]
		if !obstacle.CollidesWith(g.ball) {
			continue
		}
		g.ball.TakeDamage(obstacle.Damage)
		g.ball.Velocity = g.ball.Velocity.Mul(bounceBackFactor)
		obstacle.Active = false
		g.score = math.Max(0, g.score-obstacle.Damage*hitPenaltyFactor)
		g.events = append(g.events, Event{Kind: EventObstacleHit, Amount: obstacle.Damage})
		g.logger.Debug("obstacle hit",
			logging.Float64("damage", obstacle.Damage),
			logging.Float64("health", g.ball.Health),
		)
	}

	//6.- Collectible pickups via a retain pass; each pickup is consumed once.
	kept := g.collectibles[:0]
	for _, collectible := range g.collectibles {
		if collectible.InReach(g.ball) {
			g.score += collectScore
			g.ball.Health = math.Min(g.ball.Health+collectHeal, BallMaxHealth)
			g.events = append(g.events, Event{Kind: EventPickup, Amount: collectScore})
			continue
		}
		kept = append(kept, collectible)
	}
	g.collectibles = kept

	//7.- Death check after damage and healing have both been applied.
	if !g.ball.Alive || g.ball.Health <= 0 {
		g.setStateLocked(g.state.Fail())
		g.events = append(g.events, Event{Kind: EventGameOver, Amount: g.score})
		g.logger.Info("run over",
			logging.Float64("score", g.score),
			logging.Float64("distance", g.distance),
		)
	}

	//8.- Ease the follow camera toward the ball.
	g.camera.Follow(dt, g.ball.Position)

	//9.- Keep the runway populated ahead of the ball.
	g.extendRunway()
}

// HandleKey applies a debounce-approved key press to the current state.
func (g *Game) HandleKey(key input.Key) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateMenu, StateGameOver:
		switch key {
		case input.KeyStart:
			g.resetLocked(g.rng.Int63())
		case input.KeyMenu:
			g.setStateLocked(g.state.ReturnToMenu())
		}
	case StatePaused:
		switch key {
		case input.KeyPause:
			g.setStateLocked(g.state.TogglePause())
		case input.KeyMenu:
			g.setStateLocked(g.state.ReturnToMenu())
		}
	case StatePlaying:
		g.handlePlayingKeyLocked(key)
	}
}

func (g *Game) handlePlayingKeyLocked(key input.Key) {
	switch key {
	case input.KeyForward:
		g.ball.ApplyForce(mathx.Vec3{0, 0, -inputForce})
	case input.KeyBackward:
		g.ball.ApplyForce(mathx.Vec3{0, 0, inputForce})
	case input.KeyLeft:
		g.ball.ApplyForce(mathx.Vec3{-inputForce, 0, 0})
	case input.KeyRight:
		g.ball.ApplyForce(mathx.Vec3{inputForce, 0, 0})
	case input.KeyJump:
		//1.- Jumping is only allowed while resting on the terrain surface.
		surface := g.terrain.Height(g.ball.Position.X(), g.ball.Position.Z())
		if g.ball.Position.Y()-g.ball.Radius <= surface+restEpsilon {
			g.ball.Velocity[1] = jumpVelocity
		}
	case input.KeyPause:
		g.setStateLocked(g.state.TogglePause())
	case input.KeySpin:
		if g.envRotationSpeed == 0 {
			g.envRotationSpeed = envSpinDefault
		} else {
			g.envRotationSpeed = 0
		}
	case input.KeyMenu:
		g.setStateLocked(g.state.ReturnToMenu())
	}
}

// DrainEvents returns the buffered gameplay events and clears the buffer.
func (g *Game) DrainEvents() []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	events := g.events
	g.events = nil
	return events
}

// State returns the current state machine position.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Seed returns the seed the current run was generated from.
func (g *Game) Seed() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runSeed
}

// HUD snapshots the scalar readouts for widget layers.
func (g *Game) HUD() HUD {
	g.mu.Lock()
	defer g.mu.Unlock()
	return HUD{
		State:               g.state.String(),
		Score:               g.score,
		Distance:            g.distance,
		Health:              g.ball.Health,
		Speed:               g.speed,
		Difficulty:          g.difficulty,
		EnvironmentRotation: g.envRotation,
		SpinEnabled:         g.envRotationSpeed != 0,
	}
}

// BallState returns a copy of the ball for snapshot encoding.
func (g *Game) BallState() Ball {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.ball
}

// CameraState returns a copy of the follow camera.
func (g *Game) CameraState() Camera {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.camera
}

// Obstacles returns a copy of the obstacle list.
func (g *Game) Obstacles() []Obstacle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Obstacle, len(g.obstacles))
	copy(out, g.obstacles)
	return out
}

// Collectibles returns a copy of the remaining pickups.
func (g *Game) Collectibles() []Collectible {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Collectible, len(g.collectibles))
	copy(out, g.collectibles)
	return out
}

// Trees returns a copy of the decorative tree list.
func (g *Game) Trees() []Tree {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Tree, len(g.trees))
	copy(out, g.trees)
	return out
}

// GrassPatches returns a copy of the decorative grass list.
func (g *Game) GrassPatches() []GrassPatch {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GrassPatch, len(g.grass))
	copy(out, g.grass)
	return out
}

// TerrainMesh triangulates the current height-field for renderer upload.
func (g *Game) TerrainMesh() terrain.Mesh {
	g.mu.Lock()
	tr := g.terrain
	g.mu.Unlock()
	return tr.Mesh()
}

// TerrainParameters exposes the grid metadata recorded in replay headers.
func (g *Game) TerrainParameters() map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.terrain.Parameters()
}

// TerrainHeight samples the surface height below a world coordinate.
func (g *Game) TerrainHeight(x, z float64) float64 {
	g.mu.Lock()
	tr := g.terrain
	g.mu.Unlock()
	return tr.Height(x, z)
}
