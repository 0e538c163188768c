package websocket

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// WriteEntry wraps a raw NDJSON log line in an EntryResponse. Lines that are
// not valid JSON are sent as a JSON string.
func WriteEntry(conn *websocket.Conn, line []byte) error {
	line = bytes.TrimSpace(line)
	entry := json.RawMessage(line)
	if !json.Valid(line) {
		quoted, err := json.Marshal(string(line))
		if err != nil {
			return err
		}
		entry = quoted
	}
	return WriteTyped(conn, EntryResponse{Event: EventEntry, Entry: entry})
}

// WritePing sends a control ping frame.
func WritePing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}

// ExtendOnPong pushes the read deadline forward whenever the peer answers a ping.
func ExtendOnPong(conn *websocket.Conn) {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
}
