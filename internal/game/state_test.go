package game

import "testing"

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		name string
		from State
		move func(State) State
		want State
	}{
		{"start from menu", StateMenu, State.Start, StatePlaying},
		{"start from game over", StateGameOver, State.Start, StatePlaying},
		{"start while playing is ignored", StatePlaying, State.Start, StatePlaying},
		{"start while paused is ignored", StatePaused, State.Start, StatePaused},
		{"pause while playing", StatePlaying, State.TogglePause, StatePaused},
		{"resume from paused", StatePaused, State.TogglePause, StatePlaying},
		{"pause in menu is ignored", StateMenu, State.TogglePause, StateMenu},
		{"pause after game over is ignored", StateGameOver, State.TogglePause, StateGameOver},
		{"fail while playing", StatePlaying, State.Fail, StateGameOver},
		{"fail in menu is ignored", StateMenu, State.Fail, StateMenu},
		{"fail while paused is ignored", StatePaused, State.Fail, StatePaused},
		{"menu from playing", StatePlaying, State.ReturnToMenu, StateMenu},
		{"menu from paused", StatePaused, State.ReturnToMenu, StateMenu},
		{"menu from game over", StateGameOver, State.ReturnToMenu, StateMenu},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.move(tc.from); got != tc.want {
				t.Fatalf("from %v got %v, want %v", tc.from, got, tc.want)
			}
		})
	}
}

func TestStateLabels(t *testing.T) {
	labels := map[State]string{
		StateMenu:     "menu",
		StatePlaying:  "playing",
		StatePaused:   "paused",
		StateGameOver: "game_over",
		State(99):     "unknown",
	}
	for state, want := range labels {
		if got := state.String(); got != want {
			t.Fatalf("label for %d: got %q, want %q", int(state), got, want)
		}
	}
}
