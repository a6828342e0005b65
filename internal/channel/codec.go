package channel

import (
	"encoding/json"
	"fmt"
)

// Envelope is the on-wire frame: a channel tag plus the raw payload.
type Envelope struct {
	Channel ID              `json:"c"`
	Payload json.RawMessage `json:"p"`
}

// Encode frames a payload for the given channel.
func Encode(ch ID, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for channel %s: %w", ch, err)
	}
	return json.Marshal(Envelope{Channel: ch, Payload: data})
}

// DecodeEnvelope parses a wire frame without touching the payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, fmt.Errorf("empty frame")
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Channel >= Count {
		return Envelope{}, fmt.Errorf("unknown channel %d", env.Channel)
	}
	return env, nil
}

// DecodePayload parses an envelope payload into its message type.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("empty payload on channel %s", env.Channel)
	}
	err := json.Unmarshal(env.Payload, &out)
	return out, err
}
