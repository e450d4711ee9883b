// Package input defines the canonical key vocabulary and the debounce gate
// applied to client key intents before they reach the simulation.
package input

import (
	"fmt"
	"strings"
)

// Key identifies a discrete control the simulation understands.
type Key string

const (
	// KeyForward pushes the ball down the runway.
	KeyForward Key = "forward"
	// KeyBackward pushes the ball back toward the start line.
	KeyBackward Key = "backward"
	// KeyLeft pushes the ball toward negative x.
	KeyLeft Key = "left"
	// KeyRight pushes the ball toward positive x.
	KeyRight Key = "right"
	// KeyJump launches the ball upward when it rests on the terrain.
	KeyJump Key = "jump"
	// KeyPause toggles between the playing and paused states.
	KeyPause Key = "pause"
	// KeySpin toggles the decorative environment rotation.
	KeySpin Key = "spin"
	// KeyStart begins a run from the menu or restarts after a game over.
	KeyStart Key = "start"
	// KeyMenu abandons the current run and returns to the menu.
	KeyMenu Key = "menu"
)

// keyAliases maps the raw key names renderer clients send onto canonical keys.
var keyAliases = map[string]Key{
	"forward":  KeyForward,
	"w":        KeyForward,
	"up":       KeyForward,
	"backward": KeyBackward,
	"s":        KeyBackward,
	"down":     KeyBackward,
	"left":     KeyLeft,
	"a":        KeyLeft,
	"right":    KeyRight,
	"d":        KeyRight,
	"jump":     KeyJump,
	"space":    KeyJump,
	"pause":    KeyPause,
	"escape":   KeyPause,
	"spin":     KeySpin,
	"r":        KeySpin,
	"start":    KeyStart,
	"enter":    KeyStart,
	"menu":     KeyMenu,
	"m":        KeyMenu,
}

// ParseKey resolves a raw client key name, accepting common keyboard aliases.
func ParseKey(raw string) (Key, error) {
	key, ok := keyAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown key %q", raw)
	}
	return key, nil
}

// Valid reports whether the key belongs to the canonical vocabulary.
func (k Key) Valid() bool {
	switch k {
	case KeyForward, KeyBackward, KeyLeft, KeyRight, KeyJump, KeyPause, KeySpin, KeyStart, KeyMenu:
		return true
	default:
		return false
	}
}

// String returns the canonical key name.
func (k Key) String() string { return string(k) }
