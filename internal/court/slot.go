// Package court implements the six-position volleyball rotation: mapping
// players to their nearest canonical slot and moving every occupant one
// step around the rotation cycle.
package court

import (
	"fmt"

	"github.com/falconvolei/quadro/internal/geo"
	"github.com/falconvolei/quadro/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Slot is one of the six numbered court positions.
type Slot int

const (
	SlotBackRight   Slot = 1
	SlotFrontRight  Slot = 2
	SlotFrontMiddle Slot = 3
	SlotFrontLeft   Slot = 4
	SlotBackLeft    Slot = 5
	SlotBackMiddle  Slot = 6
)

// SlotCount is the number of players on court.
const SlotCount = 6

// slotCoords is indexed by Slot; index 0 is unused.
var slotCoords = [SlotCount + 1]geom.XY{
	{},
	{X: 83.33, Y: 69.44},
	{X: 83.33, Y: 19.44},
	{X: 50, Y: 19.44},
	{X: 16.67, Y: 19.44},
	{X: 16.67, Y: 69.44},
	{X: 50, Y: 69.44},
}

// rotationMap moves each occupant clockwise: 1→6→5→4→3→2→1.
var rotationMap = [SlotCount + 1]Slot{
	0,
	SlotBackMiddle,  // 1 → 6
	SlotBackRight,   // 2 → 1
	SlotFrontRight,  // 3 → 2
	SlotFrontMiddle, // 4 → 3
	SlotFrontLeft,   // 5 → 4
	SlotBackLeft,    // 6 → 5
}

var slotNames = [SlotCount + 1]string{
	"invalid",
	"back-right",
	"front-right",
	"front-middle",
	"front-left",
	"back-left",
	"back-middle",
}

// Slots returns the slots in ascending order.
func Slots() []Slot {
	return []Slot{
		SlotBackRight, SlotFrontRight, SlotFrontMiddle,
		SlotFrontLeft, SlotBackLeft, SlotBackMiddle,
	}
}

// Valid reports whether s is in 1..6.
func (s Slot) Valid() bool {
	return s >= SlotBackRight && s <= SlotBackMiddle
}

// XY returns the canonical coordinate of s. Invalid slots return the origin.
func (s Slot) XY() geom.XY {
	if !s.Valid() {
		return geom.XY{}
	}
	return slotCoords[s]
}

// Position returns the canonical coordinate of s as a court position.
func (s Slot) Position() core.Position {
	return geo.Position(s.XY())
}

// Next returns the slot the occupant of s moves to on one rotation.
func (s Slot) Next() Slot {
	if !s.Valid() {
		return s
	}
	return rotationMap[s]
}

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return fmt.Sprintf("%d (%s)", int(s), slotNames[s])
}
