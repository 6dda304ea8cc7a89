// pkg/core/rotation.go
package core

// Formation is a snapshot of the starters at one step of the rotation cycle.
type Formation struct {
	Name    string
	Players []Player
}

// SavedRotation is a named copy of the full player list, reserves included.
// ID is a millisecond timestamp taken when the rotation was saved.
type SavedRotation struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Players []Player `json:"players"`
}

// Clone returns a deep copy of r.
func (r SavedRotation) Clone() SavedRotation {
	r.Players = ClonePlayers(r.Players)
	return r
}

// CloneRotations deep-copies a saved-rotation list.
func CloneRotations(rotations []SavedRotation) []SavedRotation {
	if rotations == nil {
		return nil
	}
	out := make([]SavedRotation, len(rotations))
	for i, r := range rotations {
		out[i] = r.Clone()
	}
	return out
}
