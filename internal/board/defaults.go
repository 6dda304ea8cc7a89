package board

import (
	"github.com/falconvolei/quadro/internal/court"
	"github.com/falconvolei/quadro/pkg/core"
)

// DefaultPlayers is the starting lineup used when no stored lineup can be
// read: six starters, one per slot.
func DefaultPlayers() []core.Player {
	return []core.Player{
		{ID: 1, Name: "Bruna", Number: 13, Position: court.SlotFrontRight.Position()},
		{ID: 2, Name: "Bela", Number: 9, Position: court.SlotFrontMiddle.Position()},
		{ID: 3, Name: "Maju", Number: 12, Position: court.SlotFrontLeft.Position()},
		{ID: 4, Name: "Camila", Number: 11, Position: court.SlotBackRight.Position()},
		{ID: 5, Name: "Laura", Number: 6, Position: court.SlotBackMiddle.Position()},
		{ID: 6, Name: "Marcelly", Number: 15, Position: court.SlotBackLeft.Position()},
	}
}

// DefaultLineup is DefaultPlayers followed by DefaultReserves.
func DefaultLineup() []core.Player {
	return append(DefaultPlayers(), DefaultReserves()...)
}

// DefaultReserves are the default bench players.
func DefaultReserves() []core.Player {
	return []core.Player{
		{ID: 7, Name: "Luana", Number: 4, Position: core.BenchPosition, IsReserve: true},
		{ID: 8, Name: "Raissa", Number: 7, Position: core.BenchPosition, IsReserve: true},
	}
}

// placeholderReserves are appended to stored lineups saved before
// substitutions existed.
func placeholderReserves() []core.Player {
	return []core.Player{
		{ID: 7, Name: "Reserva 1", Number: 7, Position: core.BenchPosition, IsReserve: true},
		{ID: 8, Name: "Reserva 2", Number: 8, Position: core.BenchPosition, IsReserve: true},
	}
}
