package protocol

import (
	"encoding/json"
	"fmt"
)

// Server message names.
const (
	MsgConnected    = "connected"
	MsgGameStart    = "gameStart"
	MsgMoveResponse = "moveResponse"
	MsgSyncResponse = "syncResponse"
)

// Envelope frames every server-to-client JSON message.
type Envelope struct {
	T string          `json:"t"`
	M json.RawMessage `json:"m,omitempty"`
}

type Connected struct {
	Color  string `json:"color"`
	RoomID string `json:"roomId"`
}

// Marshal wraps payload under name.
func Marshal(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return json.Marshal(Envelope{T: name, M: raw})
}

// State decodes the payload of a gameStart/moveResponse/syncResponse envelope.
func (e Envelope) State() (State, error) {
	var s State
	if err := json.Unmarshal(e.M, &s); err != nil {
		return State{}, fmt.Errorf("decode %s: %w", e.T, err)
	}
	return s, nil
}

func (e Envelope) Connected() (Connected, error) {
	var c Connected
	if err := json.Unmarshal(e.M, &c); err != nil {
		return Connected{}, fmt.Errorf("decode %s: %w", e.T, err)
	}
	return c, nil
}
