package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only message a log stream client sends.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady Event = "ready"
	EventEntry Event = "entry"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// ReadyResponse is sent once after the upgrade.
type ReadyResponse struct {
	Event Event  `json:"event"`
	File  string `json:"file"`
}

// EntryResponse carries one error log line as it was written to disk.
type EntryResponse struct {
	Event Event           `json:"event"`
	Entry json.RawMessage `json:"entry"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
