package types

import (
	"github.com/DoyleJ11/siege-picker/internal/lineup"
	"github.com/DoyleJ11/siege-picker/internal/profile"
)

func FromSlots(start lineup.Side, slots []lineup.Slot) Lineup {
	out := Lineup{StartingSide: string(start), Slots: make([]LineupSlot, len(slots))}
	for i, s := range slots {
		out.Slots[i] = LineupSlot{
			Slot:       i,
			OperatorID: s.Operator.ID,
			Name:       s.Operator.Name,
			Role:       string(s.Operator.Role),
			Label:      string(s.Label),
		}
	}
	return out
}

func FromView(code string, v profile.View) ProfileState {
	return ProfileState{Profile: code, Version: v.Version, Owned: nonNil(v.Owned), Theme: string(v.Theme)}
}

func FromSnapshot(code string, s profile.Snapshot) ProfileState {
	return ProfileState{Profile: code, Version: s.Version, Owned: nonNil(s.Owned), Theme: string(s.Theme)}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
