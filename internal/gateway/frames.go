package gateway

// Frame types exchanged with the proxy host. One websocket multiplexes
// many player connections; every frame names the connection it concerns.
const (
	// Inbound (proxy -> engine)
	FrameLogin      = "login"
	FrameSpawn      = "spawn"
	FrameChat       = "chat"
	FrameMove       = "move"
	FrameDisconnect = "disconnect"

	// Outbound (engine -> proxy)
	FrameDecision = "decision"
	FrameMessage  = "message"
	FrameRelease  = "release"
	FrameKick     = "kick"
)

// Frame is the JSON envelope for gateway traffic
type Frame struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`

	// Login / spawn fields
	AccountID string `json:"account_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Origin    string `json:"origin,omitempty"`
	HasBypass bool   `json:"has_bypass,omitempty"`

	// Chat fields
	Text string `json:"text,omitempty"`

	// Orientation fields. Position is accepted for wire compatibility
	// with the proxy plugin but never inspected.
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Z     float64 `json:"z,omitempty"`
	Yaw   float64 `json:"yaw,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`

	// Decision fields
	Decision          string `json:"decision,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`

	// Message fields
	Key    string            `json:"key,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}
