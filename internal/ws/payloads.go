package ws

import (
	"encoding/json"

	"invest_platform/internal/domain"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// server → client
type RecordStatusPayload struct {
	domain.StatusEvent
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, data any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
