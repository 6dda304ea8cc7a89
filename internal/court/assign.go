package court

import (
	"math"

	"github.com/falconvolei/quadro/internal/geo"
	"github.com/falconvolei/quadro/pkg/core"
)

// Assignment maps each slot to the index of the player occupying it.
type Assignment struct {
	occupant [SlotCount + 1]int // index+1; 0 means empty
}

// Player returns the index of the player assigned to s.
func (a Assignment) Player(s Slot) (int, bool) {
	if !s.Valid() || a.occupant[s] == 0 {
		return 0, false
	}
	return a.occupant[s] - 1, true
}

// SlotOf returns the slot assigned to the player at index i.
func (a Assignment) SlotOf(i int) (Slot, bool) {
	for _, s := range Slots() {
		if a.occupant[s] == i+1 {
			return s, true
		}
	}
	return 0, false
}

// Len is the number of occupied slots.
func (a Assignment) Len() int {
	n := 0
	for _, s := range Slots() {
		if a.occupant[s] != 0 {
			n++
		}
	}
	return n
}

// Complete reports whether every slot has an occupant.
func (a Assignment) Complete() bool {
	return a.Len() == SlotCount
}

func (a *Assignment) set(s Slot, i int) {
	a.occupant[s] = i + 1
}

// Closest returns the slot nearest to p and its distance. Ties go to the
// lower-numbered slot.
func Closest(p core.Position) (Slot, float64) {
	best, bestDist := Slot(0), math.Inf(1)
	for _, s := range Slots() {
		if d := geo.Distance(p, s.XY()); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, bestDist
}

// Assign maps players to their nearest slot. Players are visited in order;
// when a slot is already claimed, the newcomer takes it only if strictly
// closer than the incumbent, and the displaced player is left unassigned.
// No second pass fills slots left empty, so only near-canonical input is
// guaranteed to produce a complete assignment.
func Assign(players []core.Player) Assignment {
	var a Assignment
	for i, p := range players {
		slot, dist := Closest(p.Position)
		incumbent, taken := a.Player(slot)
		if !taken || dist < geo.Distance(players[incumbent].Position, slot.XY()) {
			a.set(slot, i)
		}
	}
	return a
}
