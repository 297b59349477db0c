// Package protocol defines the closed set of messages exchanged between a
// guest and the host, plus the room addressing scheme. Guests only ever send
// join requests and actions; the host only ever sends whole-state snapshots.
package protocol

import (
	"encoding/json"
	"fmt"

	"doudizhu/internal/game"
)

// Type discriminates the message union.
type Type string

const (
	TypeJoinRequest     Type = "join_request"
	TypeGameStateUpdate Type = "game_state_update"
	TypeActionBid       Type = "action_bid"
	TypeActionPlay      Type = "action_play"
	TypeActionRestart   Type = "action_restart"
)

// JoinRequest asks the host for a seat. Passcode is only consulted for
// private rooms.
type JoinRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
}

// ActionBid submits a bid amount in 0..3.
type ActionBid struct {
	Amount int `json:"amount"`
}

// ActionPlay submits the card IDs of a play. An empty list is a pass.
type ActionPlay struct {
	CardIDs []int `json:"cardIds"`
}

// Envelope is the wire form of every message: one tag, one payload.
type Envelope struct {
	Type Type `json:"type"`

	Join  *JoinRequest   `json:"join,omitempty"`
	Bid   *ActionBid     `json:"bid,omitempty"`
	Play  *ActionPlay    `json:"play,omitempty"`
	State *game.Snapshot `json:"state,omitempty"`
}

// Decode parses and validates an incoming message. Unknown tags and missing
// payloads are rejected so malformed traffic never reaches the state machine.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case TypeJoinRequest:
		if env.Join == nil {
			return Envelope{}, fmt.Errorf("%s without join payload", env.Type)
		}
	case TypeActionBid:
		if env.Bid == nil {
			return Envelope{}, fmt.Errorf("%s without bid payload", env.Type)
		}
	case TypeActionPlay:
		if env.Play == nil {
			return Envelope{}, fmt.Errorf("%s without play payload", env.Type)
		}
	case TypeActionRestart:
		// No payload.
	case TypeGameStateUpdate:
		if env.State == nil {
			return Envelope{}, fmt.Errorf("%s without state payload", env.Type)
		}
	default:
		return Envelope{}, fmt.Errorf("unknown message type %q", env.Type)
	}
	return env, nil
}

// Encode marshals an envelope for the wire.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	return data, nil
}

// StateUpdate wraps a snapshot in its envelope.
func StateUpdate(snap game.Snapshot) Envelope {
	return Envelope{Type: TypeGameStateUpdate, State: &snap}
}
