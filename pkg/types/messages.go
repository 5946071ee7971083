package types

// LineupSlot is one of the seven positions of a random lineup. Label is set
// only on slots 0, 3 and 6.
type LineupSlot struct {
	Slot       int    `json:"slot"`
	OperatorID string `json:"operator_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Label      string `json:"label,omitempty"`
}

type Lineup struct {
	StartingSide string       `json:"starting_side"`
	Slots        []LineupSlot `json:"slots"`
}

type LineupRequest struct {
	StartingSide string `json:"starting_side"`
}

type ThemeBody struct {
	Theme string `json:"theme"`
}

type ProfileCreated struct {
	Code string `json:"code"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
