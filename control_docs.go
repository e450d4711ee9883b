package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// ControlDoc describes one key binding the renderer exposes. The shape is
// deliberately generic so future clients can attach extra metadata without
// breaking the API.
type ControlDoc struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Shortcut    string `json:"shortcut,omitempty"`
}

// defaultControlDocs is the canonical description of the intent keys the
// server accepts. Renderers fetch it to build their help overlay instead of
// hard-coding the bindings.
var defaultControlDocs = []ControlDoc{
	{
		ID:          "forward",
		Label:       "Roll Forward",
		Description: "Push the ball down the runway, away from the camera.",
		Shortcut:    "W / Arrow Up",
	},
	{
		ID:          "backward",
		Label:       "Roll Backward",
		Description: "Brake or reverse toward the camera.",
		Shortcut:    "S / Arrow Down",
	},
	{
		ID:          "left",
		Label:       "Steer Left",
		Description: "Drift the ball toward the left edge of the road.",
		Shortcut:    "A / Arrow Left",
	},
	{
		ID:          "right",
		Label:       "Steer Right",
		Description: "Drift the ball toward the right edge of the road.",
		Shortcut:    "D / Arrow Right",
	},
	{
		ID:          "jump",
		Label:       "Jump",
		Description: "Hop over an obstacle; only works while the ball touches the ground.",
		Shortcut:    "Space",
	},
	{
		ID:          "pause",
		Label:       "Pause",
		Description: "Freeze the run; press again to resume.",
		Shortcut:    "Escape",
	},
	{
		ID:          "spin",
		Label:       "Environment Spin",
		Description: "Toggle the slow scenic rotation of the environment.",
		Shortcut:    "R",
	},
	{
		ID:          "start",
		Label:       "Start Run",
		Description: "Begin a fresh run from the menu or after a game over.",
		Shortcut:    "Enter",
	},
	{
		ID:          "menu",
		Label:       "Back to Menu",
		Description: "Abandon the current run and return to the menu.",
		Shortcut:    "M",
	},
}

// registerControlDocEndpoints mounts the handler renderers use to fetch the
// key binding documentation as JSON.
func registerControlDocEndpoints(mux *http.ServeMux) {
	mux.HandleFunc("/api/controls", func(w http.ResponseWriter, r *http.Request) {
		// Sort a copy so concurrent requests never reorder the global slice.
		docs := append([]ControlDoc(nil), defaultControlDocs...)
		sort.SliceStable(docs, func(i, j int) bool {
			if docs[i].Label == docs[j].Label {
				return strings.Compare(docs[i].ID, docs[j].ID) < 0
			}
			return strings.Compare(docs[i].Label, docs[j].Label) < 0
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(docs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
