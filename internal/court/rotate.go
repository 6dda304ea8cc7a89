package court

import (
	"fmt"

	"github.com/falconvolei/quadro/pkg/core"
)

// FormationCount is the length of a full rotation cycle.
const FormationCount = SlotCount

// Rotate moves every assigned player to the canonical coordinate of the
// next slot in the cycle. Unassigned players keep their position. The input
// slice is not modified.
func Rotate(players []core.Player, a Assignment) []core.Player {
	out := core.ClonePlayers(players)
	for _, s := range Slots() {
		if i, ok := a.Player(s); ok && i < len(out) {
			out[i].Position = s.Next().Position()
		}
	}
	return out
}

// RotateLineup rotates the starters one step. Reserves take no part in the
// assignment and are returned unchanged.
func RotateLineup(players []core.Player) []core.Player {
	var (
		starters []core.Player
		index    []int
	)
	for i, p := range players {
		if !p.IsReserve {
			starters = append(starters, p)
			index = append(index, i)
		}
	}

	rotated := Rotate(starters, Assign(starters))

	out := core.ClonePlayers(players)
	for j, i := range index {
		out[i] = rotated[j]
	}
	return out
}

// FormationName is the title of the formation at zero-based step i.
func FormationName(i int) string {
	return fmt.Sprintf("Rotação %d", i+1)
}

// Formations returns the full cycle derived from players: the starters as
// given, followed by five successive rotations.
func Formations(players []core.Player) []core.Formation {
	current := core.Starters(players)
	out := make([]core.Formation, 0, FormationCount)
	out = append(out, core.Formation{Name: FormationName(0), Players: core.ClonePlayers(current)})
	for i := 1; i < FormationCount; i++ {
		current = Rotate(current, Assign(current))
		out = append(out, core.Formation{Name: FormationName(i), Players: core.ClonePlayers(current)})
	}
	return out
}
