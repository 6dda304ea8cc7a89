// Package board holds the application state of the tactical board: the
// live player list and the saved rotations. Every update returns a new
// State and leaves the receiver untouched.
package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/falconvolei/quadro/internal/court"
	"github.com/falconvolei/quadro/internal/geo"
	"github.com/falconvolei/quadro/pkg/core"
)

var (
	ErrRotationNotFound = errors.New("saved rotation not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotReserve       = errors.New("player is not a reserve")
	ErrNotStarter       = errors.New("player is not a starter")
)

// State is an immutable snapshot of the board.
type State struct {
	Players   []core.Player
	Rotations []core.SavedRotation
}

// New returns a State holding copies of players and rotations.
func New(players []core.Player, rotations []core.SavedRotation) State {
	if rotations == nil {
		rotations = []core.SavedRotation{}
	}
	return State{
		Players:   core.ClonePlayers(players),
		Rotations: core.CloneRotations(rotations),
	}
}

// Default is the state of a fresh board.
func Default() State {
	return New(DefaultPlayers(), nil)
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return New(s.Players, s.Rotations)
}

// Starters returns the players on court.
func (s State) Starters() []core.Player {
	return core.Starters(s.Players)
}

// Reserves returns the players on the bench.
func (s State) Reserves() []core.Player {
	return core.Reserves(s.Players)
}

// Player looks up a player by ID.
func (s State) Player(id int) (core.Player, bool) {
	if i := s.playerIndex(id); i >= 0 {
		return s.Players[i], true
	}
	return core.Player{}, false
}

// Rotation looks up a saved rotation by ID.
func (s State) Rotation(id int64) (core.SavedRotation, bool) {
	if i := s.rotationIndex(id); i >= 0 {
		return s.Rotations[i].Clone(), true
	}
	return core.SavedRotation{}, false
}

// Formations returns the six-step cycle derived from the live lineup.
func (s State) Formations() []core.Formation {
	return court.Formations(s.Players)
}

// Rotate moves the starters one step around the rotation cycle.
func (s State) Rotate() State {
	next := s.Clone()
	next.Players = court.RotateLineup(s.Players)
	return next
}

// SaveRotation appends a copy of the live player list, reserves included,
// named after its position in the list.
func (s State) SaveRotation(now time.Time) (State, core.SavedRotation) {
	saved := core.SavedRotation{
		ID:      s.nextRotationID(now),
		Name:    fmt.Sprintf("Rotação %d", len(s.Rotations)+1),
		Players: core.ClonePlayers(s.Players),
	}
	next := s.Clone()
	next.Rotations = append(next.Rotations, saved.Clone())
	return next, saved
}

// LoadRotation replaces the live player list with the saved one.
func (s State) LoadRotation(id int64) (State, error) {
	r, ok := s.Rotation(id)
	if !ok {
		return s, fmt.Errorf("load %d: %w", id, ErrRotationNotFound)
	}
	next := s.Clone()
	next.Players = r.Players
	return next, nil
}

// DeleteRotation removes the saved rotation with the given ID. Other
// entries keep their order and IDs.
func (s State) DeleteRotation(id int64) (State, error) {
	i := s.rotationIndex(id)
	if i < 0 {
		return s, fmt.Errorf("delete %d: %w", id, ErrRotationNotFound)
	}
	next := s.Clone()
	next.Rotations = append(next.Rotations[:i], next.Rotations[i+1:]...)
	return next, nil
}

// RenameRotation sets the name of a saved rotation. Names are trimmed; a
// blank name leaves the rotation unchanged and reports false.
func (s State) RenameRotation(id int64, name string) (State, bool, error) {
	i := s.rotationIndex(id)
	if i < 0 {
		return s, false, fmt.Errorf("rename %d: %w", id, ErrRotationNotFound)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, false, nil
	}
	next := s.Clone()
	next.Rotations[i].Name = name
	return next, true, nil
}

// Substitute sends a reserve onto the court in the starter's place. The
// starter goes to the bench.
func (s State) Substitute(reserveID, starterID int) (State, error) {
	ri, si := s.playerIndex(reserveID), s.playerIndex(starterID)
	if ri < 0 {
		return s, fmt.Errorf("substitute reserve %d: %w", reserveID, ErrPlayerNotFound)
	}
	if si < 0 {
		return s, fmt.Errorf("substitute starter %d: %w", starterID, ErrPlayerNotFound)
	}
	if !s.Players[ri].IsReserve {
		return s, fmt.Errorf("substitute %d: %w", reserveID, ErrNotReserve)
	}
	if s.Players[si].IsReserve {
		return s, fmt.Errorf("substitute %d: %w", starterID, ErrNotStarter)
	}

	next := s.Clone()
	next.Players[ri].Position = s.Players[si].Position
	next.Players[ri].IsReserve = false
	next.Players[si].Position = core.BenchPosition
	next.Players[si].IsReserve = true
	return next, nil
}

// RenamePlayer sets a player's display name. Blank names are ignored.
func (s State) RenamePlayer(id int, name string) (State, bool, error) {
	i := s.playerIndex(id)
	if i < 0 {
		return s, false, fmt.Errorf("rename player %d: %w", id, ErrPlayerNotFound)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, false, nil
	}
	next := s.Clone()
	next.Players[i].Name = name
	return next, true, nil
}

// SetPlayerNumber sets a player's jersey number from user input. Input that
// is not an integer in [1,99] is discarded and reported as not applied.
func (s State) SetPlayerNumber(id int, input string) (State, bool, error) {
	i := s.playerIndex(id)
	if i < 0 {
		return s, false, fmt.Errorf("set number %d: %w", id, ErrPlayerNotFound)
	}
	n, ok := ParseJerseyNumber(input)
	if !ok {
		return s, false, nil
	}
	next := s.Clone()
	next.Players[i].Number = n
	return next, true, nil
}

// ParseJerseyNumber validates a jersey number typed by the user.
func ParseJerseyNumber(input string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < core.MinJerseyNumber || n > core.MaxJerseyNumber {
		return 0, false
	}
	return n, true
}

// MovePlayer drops a starter at pos, clamped to the draggable area.
func (s State) MovePlayer(id int, pos core.Position) (State, error) {
	i := s.playerIndex(id)
	if i < 0 {
		return s, fmt.Errorf("move %d: %w", id, ErrPlayerNotFound)
	}
	if s.Players[i].IsReserve {
		return s, fmt.Errorf("move %d: %w", id, ErrNotStarter)
	}
	next := s.Clone()
	next.Players[i].Position = geo.ClampDrag(pos)
	return next, nil
}

// AddReserves puts the default reserves on the bench when it is empty.
func (s State) AddReserves() (State, bool) {
	if len(s.Reserves()) > 0 {
		return s, false
	}
	next := s.Clone()
	next.Players = append(next.Players, DefaultReserves()...)
	return next, true
}

func (s State) playerIndex(id int) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s State) rotationIndex(id int64) int {
	for i, r := range s.Rotations {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// nextRotationID uses the save time in milliseconds, bumped past any
// existing ID so IDs stay unique when saves land in the same millisecond.
func (s State) nextRotationID(now time.Time) int64 {
	id := now.UnixMilli()
	for _, r := range s.Rotations {
		if r.ID >= id {
			id = r.ID + 1
		}
	}
	return id
}
