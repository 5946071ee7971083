package types

import (
	"encoding/json"

	pub "github.com/DoyleJ11/siege-picker/pkg/types"
)

type ClientMessage struct {
	Type         string          `json:"type"`
	OperatorID   string          `json:"operator_id,omitempty"`
	Owned        json.RawMessage `json:"owned,omitempty"` // Import
	Theme        string          `json:"theme,omitempty"`
	StartingSide string          `json:"starting_side,omitempty"`
}

type ServerMessage struct {
	Type   string            `json:"type"` // "StateSnapshot" | "Lineup" | "Error"
	State  *pub.ProfileState `json:"state,omitempty"`
	Lineup *pub.Lineup       `json:"lineup,omitempty"`
	Error  string            `json:"error,omitempty"`
}
