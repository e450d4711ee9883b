package game

// State enumerates the run lifecycle. Transitions go through the methods
// below, which return the next state and leave illegal moves unchanged, so
// callers can never fabricate a jump the machine does not allow.
type State int

const (
	StateMenu State = iota
	StatePlaying
	StatePaused
	StateGameOver
)

// String returns the HUD-facing state label.
func (s State) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Start begins a run from the menu or restarts after a game over.
func (s State) Start() State {
	if s == StateMenu || s == StateGameOver {
		return StatePlaying
	}
	return s
}

// TogglePause flips between playing and paused; other states are untouched.
func (s State) TogglePause() State {
	switch s {
	case StatePlaying:
		return StatePaused
	case StatePaused:
		return StatePlaying
	default:
		return s
	}
}

// Fail ends the run. Only an active run can fail.
func (s State) Fail() State {
	if s == StatePlaying {
		return StateGameOver
	}
	return s
}

// ReturnToMenu abandons the current run from any state.
func (s State) ReturnToMenu() State {
	return StateMenu
}
