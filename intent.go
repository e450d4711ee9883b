package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rollaway/server/internal/input"
	"rollaway/server/internal/logging"
)

var (
	errIntentEmptyPayload   = errors.New("empty intent payload")
	errIntentMissingVersion = errors.New("intent missing schema version")
	errIntentUnknownKey     = errors.New("intent key not recognised")
	errIntentSequence       = errors.New("intent sequence out of order")
)

// intentPayload is the JSON frame clients send for a single key press.
type intentPayload struct {
	SchemaVersion string `json:"schema_version"`
	ClientID      string `json:"client_id,omitempty"`
	SequenceID    uint64 `json:"sequence_id"`
	Key           string `json:"key"`
	SentAtMs      int64  `json:"sent_at_ms,omitempty"`
}

// decodeIntentPayload parses a websocket frame into a structured payload.
func decodeIntentPayload(raw []byte) (*intentPayload, error) {
	if len(raw) == 0 {
		return nil, errIntentEmptyPayload
	}
	var payload intentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// validateIntentPayload enforces required metadata on the payload.
func validateIntentPayload(payload *intentPayload) error {
	if payload == nil {
		return errors.New("intent payload is nil")
	}
	if payload.SchemaVersion == "" {
		return errIntentMissingVersion
	}
	if payload.SequenceID == 0 {
		return fmt.Errorf("intent sequence id must be positive: %d", payload.SequenceID)
	}
	if _, err := input.ParseKey(payload.Key); err != nil {
		return fmt.Errorf("%w: %q", errIntentUnknownKey, payload.Key)
	}
	return nil
}

// SentAt converts the optional capture timestamp into a time.Time instance.
func (payload *intentPayload) SentAt() time.Time {
	if payload == nil || payload.SentAtMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(payload.SentAtMs)
}

// checkIntentSequence enforces monotonic sequence ids per client. Callers hold
// the server mutex.
func (s *Server) checkIntentSequenceLocked(clientID string, sequenceID uint64) error {
	last := s.lastIntentSeqs[clientID]
	if sequenceID <= last {
		return fmt.Errorf("%w: got %d, last %d", errIntentSequence, sequenceID, last)
	}
	s.lastIntentSeqs[clientID] = sequenceID
	return nil
}

// processIntent validates, sequences and debounces an incoming intent frame
// before handing the key to the game. It returns the error that caused the
// frame to be dropped, if any; drops never disconnect the client.
func (s *Server) processIntent(clientID string, raw []byte, logger *logging.Logger) error {
	if s == nil {
		return errors.New("server is nil")
	}
	payload, err := decodeIntentPayload(raw)
	if err != nil {
		if logger != nil {
			logger.Debug("dropping malformed intent", logging.Error(err))
		}
		return err
	}
	if err := validateIntentPayload(payload); err != nil {
		if logger != nil {
			logger.Debug("dropping invalid intent", logging.Error(err))
		}
		return err
	}

	s.intentMu.Lock()
	err = s.checkIntentSequenceLocked(clientID, payload.SequenceID)
	s.intentMu.Unlock()
	if err != nil {
		if logger != nil {
			logger.Debug("dropping stale intent",
				logging.Error(err),
				logging.String("client_id", clientID),
			)
		}
		return err
	}

	key, _ := input.ParseKey(payload.Key) // validated above
	//1.- The debounce gate suppresses repeats inside the configured interval.
	if !s.gate.Allow(key) {
		if logger != nil {
			logger.Debug("debounced intent",
				logging.String("client_id", clientID),
				logging.String("key", key.String()),
			)
		}
		return nil
	}

	s.game.HandleKey(key)
	return nil
}
