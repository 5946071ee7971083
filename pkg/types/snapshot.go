package types

// ProfileState is what clients see of one profile: owned ids in ascending
// order plus the theme preference.
type ProfileState struct {
	Profile string   `json:"profile"`
	Version int      `json:"version"`
	Owned   []string `json:"owned"`
	Theme   string   `json:"theme"`
}
