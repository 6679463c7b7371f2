// Package events fans engine progress out to connected clients.
package events

import (
	"encoding/json"
	"time"
)

// Event is the wire form published on the event stream.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent renders a ready-to-send payload for the hub.
func MakeEvent(reqID, typ string, v int, data any) string {
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		b, _ := json.Marshal(data)
		e.Data = b
	}
	b, _ := json.Marshal(e)
	return string(b)
}
