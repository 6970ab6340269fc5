package api

import (
	"encoding/json"
	"time"
)

// securityEvent is the JSON payload published for notable auth activity.
type securityEvent struct {
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// publishEvent emits a security event over MQTT (best-effort).
//
// Events never block or fail a request: publishing errors are logged and
// swallowed, and a server without an MQTT client skips them entirely.
func (s *Server) publishEvent(kind string, details map[string]any) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(securityEvent{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
	if err != nil {
		s.logger.Error("failed to marshal security event", "kind", kind, "error", err)
		return
	}

	if err := s.events.PublishEvent(kind, payload); err != nil {
		s.logger.Warn("failed to publish security event",
			"kind", kind,
			"error", err,
		)
	}
}
