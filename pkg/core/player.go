// pkg/core/player.go
package core

// Jersey number bounds accepted by inline edits.
const (
	MinJerseyNumber = 1
	MaxJerseyNumber = 99
)

// Player is a team member. Starters occupy the court; reserves wait on the
// bench and keep a placeholder position of (0%, 0%).
type Player struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Number    int      `json:"number"`
	Position  Position `json:"position"`
	IsReserve bool     `json:"isReserve,omitempty"`
}

// BenchPosition is the placeholder position held by reserves.
var BenchPosition = Position{X: 0, Y: 0}

// ClonePlayers returns a copy of players that shares no backing array with
// the input.
func ClonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

// Starters returns the players that are not reserves, in input order.
func Starters(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if !p.IsReserve {
			out = append(out, p)
		}
	}
	return out
}

// Reserves returns the reserve players, in input order.
func Reserves(players []Player) []Player {
	out := make([]Player, 0, 2)
	for _, p := range players {
		if p.IsReserve {
			out = append(out, p)
		}
	}
	return out
}
