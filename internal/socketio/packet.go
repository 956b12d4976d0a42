// Package socketio speaks the subset of engine.io v4 / socket.io v4 that the
// Cosense commit endpoint uses: connect, events, acknowledgements and the
// ping/pong heartbeat, all as text frames over a websocket.
package socketio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Engine.io packet types.
const (
	EngineOpen    byte = '0'
	EngineClose   byte = '1'
	EnginePing    byte = '2'
	EnginePong    byte = '3'
	EngineMessage byte = '4'
)

// Socket.io packet types, carried inside an engine message.
const (
	Connect      byte = '0'
	Disconnect   byte = '1'
	Event        byte = '2'
	Ack          byte = '3'
	ConnectError byte = '4'
)

// RequestEvent is the event name every Cosense request is emitted under.
const RequestEvent = "socket.io-request"

// Packet is one decoded text frame. Type is zero for non-message engine
// packets and ID is -1 when the packet carries no ack id.
type Packet struct {
	Engine byte
	Type   byte
	ID     int
	Data   json.RawMessage
}

// Encode renders the packet as a text frame.
func (p Packet) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(p.Engine)
	if p.Engine == EngineMessage {
		buf.WriteByte(p.Type)
		if p.ID >= 0 {
			buf.WriteString(strconv.Itoa(p.ID))
		}
	}
	buf.Write(p.Data)
	return buf.Bytes()
}

// Parse decodes a text frame.
func Parse(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return Packet{}, fmt.Errorf("empty frame")
	}
	p := Packet{Engine: frame[0], ID: -1}
	rest := frame[1:]
	if p.Engine != EngineMessage {
		p.Data = json.RawMessage(rest)
		return p, nil
	}
	if len(rest) == 0 {
		return Packet{}, fmt.Errorf("message frame without a socket.io type")
	}
	p.Type = rest[0]
	rest = rest[1:]

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.Atoi(string(rest[:digits]))
		if err != nil {
			return Packet{}, fmt.Errorf("bad ack id: %w", err)
		}
		p.ID = id
	}
	p.Data = json.RawMessage(rest[digits:])
	return p, nil
}

// NewEvent builds an event packet with the given ack id (-1 for none).
func NewEvent(id int, name string, args ...interface{}) (Packet, error) {
	data, err := json.Marshal(append([]interface{}{name}, args...))
	if err != nil {
		return Packet{}, fmt.Errorf("failed to encode event %s: %w", name, err)
	}
	return Packet{Engine: EngineMessage, Type: Event, ID: id, Data: data}, nil
}

// NewAck builds the acknowledgement for event id.
func NewAck(id int, args ...interface{}) (Packet, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return Packet{}, fmt.Errorf("failed to encode ack %d: %w", id, err)
	}
	return Packet{Engine: EngineMessage, Type: Ack, ID: id, Data: data}, nil
}

// Request is the payload of a socket.io-request event.
type Request struct {
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data"`
}

// Response is the payload of a socket.io-request acknowledgement.
type Response struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// DecodeRequest extracts the request of a socket.io-request event.
func DecodeRequest(p Packet) (Request, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(p.Data, &args); err != nil {
		return Request{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if len(args) < 2 {
		return Request{}, fmt.Errorf("event has %d arguments", len(args))
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil || name != RequestEvent {
		return Request{}, fmt.Errorf("unexpected event %s", args[0])
	}
	var req Request
	if err := json.Unmarshal(args[1], &req); err != nil {
		return Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}
