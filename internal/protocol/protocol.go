package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeAuth is sent by a client immediately after connection to authenticate
	TypeAuth MessageType = "auth"

	// TypeState is broadcast by the server on every playback state transition
	TypeState MessageType = "state"

	// TypeControl is sent by a client to drive playback
	TypeControl MessageType = "control"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// AuthPayload is the payload for TypeAuth
type AuthPayload struct {
	Token string `json:"token"`
}

// StatePayload is the payload for TypeState
type StatePayload struct {
	State     string `json:"state"` // "idle", "running", "paused"
	RunID     string `json:"run_id,omitempty"`
	Origin    string `json:"origin"` // "hotkey" or "api"
	Timestamp int64  `json:"ts"`
}

// ControlPayload is the payload for TypeControl
type ControlPayload struct {
	Action string `json:"action"` // "trigger", "toggle", "pause", "resume", "stop"
}
