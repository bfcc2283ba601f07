package ws

import "time"

// Event types pushed to subscribers.
const (
	EventHello   = "hello"
	EventMode    = "mode"
	EventVolume  = "volume"
	EventMute    = "mute"
	EventChatMix = "chat_mix"
	EventPreset  = "preset"
)

// Event is one message pushed to websocket subscribers.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Time      time.Time `json:"time"`
	Payload   any       `json:"payload,omitempty"`
}
