package game

// EventKind labels the gameplay events surfaced to replay and telemetry sinks.
type EventKind string

const (
	// EventStateChange records a state machine transition.
	EventStateChange EventKind = "state_change"
	// EventObstacleHit records damage taken from an obstacle collision.
	EventObstacleHit EventKind = "obstacle_hit"
	// EventPickup records a consumed collectible.
	EventPickup EventKind = "pickup"
	// EventGameOver records the run ending.
	EventGameOver EventKind = "game_over"
)

// Event is a single gameplay occurrence emitted during an update or input.
type Event struct {
	Kind   EventKind `json:"kind"`
	Amount float64   `json:"amount,omitempty"`
	State  string    `json:"state,omitempty"`
}
