package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Engine.IO packet types
const (
	eioOpen    byte = '0'
	eioClose   byte = '1'
	eioPing    byte = '2'
	eioPong    byte = '3'
	eioMessage byte = '4'
)

// Socket.IO packet types, carried inside an Engine.IO message
const (
	sioConnect      byte = '0'
	sioDisconnect   byte = '1'
	sioEvent        byte = '2'
	sioConnectError byte = '4'
)

// Message is a named Socket.IO event with its first argument.
//
// Data is nil when the event carried no arguments.
type Message struct {
	Event string
	Data  json.RawMessage
}

type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// readTimeout is how long the server may stay silent before the connection is considered dead.
func (o openPacket) readTimeout() time.Duration {
	if o.PingInterval <= 0 && o.PingTimeout <= 0 {
		return defaultReadTimeout
	}
	return time.Duration(o.PingInterval+o.PingTimeout) * time.Millisecond
}

func parseOpen(b []byte) (openPacket, error) {
	var o openPacket
	if len(b) == 0 || b[0] != eioOpen {
		return o, fmt.Errorf("expected open packet, got %q", snippet(b))
	}
	if err := json.Unmarshal(b[1:], &o); err != nil {
		return o, fmt.Errorf("invalid open packet: %w", err)
	}
	return o, nil
}

// encodeEvent builds a 42["event",payload] frame.
func encodeEvent(event string, payload any) ([]byte, error) {
	args := []any{event}
	if payload != nil {
		args = append(args, payload)
	}

	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", event, err)
	}
	return append([]byte{eioMessage, sioEvent}, body...), nil
}

// decodeEvent parses the body of a Socket.IO event packet, i.e. everything after "42".
func decodeEvent(b []byte) (Message, error) {
	b = stripNamespace(b)
	for len(b) > 0 && b[0] >= '0' && b[0] <= '9' {
		b = b[1:]
	}

	var args []json.RawMessage
	if err := json.Unmarshal(b, &args); err != nil {
		return Message{}, fmt.Errorf("invalid event packet: %w", err)
	}
	if len(args) == 0 {
		return Message{}, fmt.Errorf("event packet without a name")
	}

	var m Message
	if err := json.Unmarshal(args[0], &m.Event); err != nil {
		return Message{}, fmt.Errorf("invalid event name: %w", err)
	}
	if len(args) > 1 {
		m.Data = args[1]
	}
	return m, nil
}

func stripNamespace(b []byte) []byte {
	if len(b) == 0 || b[0] != '/' {
		return b
	}
	if i := bytes.IndexByte(b, ','); i >= 0 {
		return b[i+1:]
	}
	return b[len(b):]
}

func snippet(b []byte) string {
	const limit = 64
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
