// Package gesture turns raw pointer input on the court into board edits.
//
// The machine has four phases. A press on a marker enters Pending; mouse
// presses promote to Dragging at once, touch presses after DragDelay so a
// quick swipe can still scroll the page. Holding a touch still for
// LongPress opens the inline editor. Time never advances on its own:
// deadlines are checked against the timestamp carried by each call, and
// Tick exists for callers that need to fire a deadline without input.
package gesture

import (
	"errors"
	"time"

	"github.com/falconvolei/quadro/internal/geo"
	"github.com/falconvolei/quadro/pkg/core"
)

// Phase is the machine's current state.
type Phase string

const (
	Idle     Phase = "idle"
	Pending  Phase = "pending"
	Dragging Phase = "dragging"
	Editing  Phase = "editing"
)

// Field is the player attribute being edited inline.
type Field string

const (
	FieldName   Field = "name"
	FieldNumber Field = "number"
)

// ErrBusy is returned when an event is not valid in the current phase.
var ErrBusy = errors.New("gesture in progress")

// Config holds the timing thresholds.
type Config struct {
	DragDelay time.Duration
	LongPress time.Duration
}

// Effect is an outcome the caller must apply to the board.
type Effect interface {
	effect()
}

// Drag reports the live position of the dragged marker.
type Drag struct {
	PlayerID int
	Position core.Position
}

// Drop reports where the dragged marker was released.
type Drop struct {
	PlayerID int
	Position core.Position
}

// Tap reports a press released without dragging.
type Tap struct {
	PlayerID int
}

// BeginEdit opens the inline editor for a player attribute.
type BeginEdit struct {
	PlayerID int
	Field    Field
}

// EndEdit closes the inline editor. Text is only meaningful when Committed.
type EndEdit struct {
	PlayerID  int
	Field     Field
	Text      string
	Committed bool
}

func (Drag) effect()      {}
func (Drop) effect()      {}
func (Tap) effect()       {}
func (BeginEdit) effect() {}
func (EndEdit) effect()   {}

// Machine tracks one pointer. It is not safe for concurrent use.
type Machine struct {
	cfg   Config
	phase Phase

	playerID int
	field    Field
	touch    bool
	moved    bool

	offset  core.Position
	current core.Position

	dragAt      time.Time
	longPressAt time.Time
}

// New creates an idle Machine.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, phase: Idle}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// PlayerID returns the player under the pointer, or 0 when idle.
func (m *Machine) PlayerID() int {
	if m.phase == Idle {
		return 0
	}
	return m.playerID
}

// Press starts a gesture on a marker. at is the marker position and
// pointer the press location, both in court percentages; the difference is
// kept so the marker does not jump under the pointer.
func (m *Machine) Press(playerID int, at, pointer core.Position, touch bool, now time.Time) ([]Effect, error) {
	if m.phase != Idle {
		return nil, ErrBusy
	}

	m.playerID = playerID
	m.touch = touch
	m.moved = false
	m.offset = core.Position{X: pointer.X - at.X, Y: pointer.Y - at.Y}
	m.current = at
	m.longPressAt = now.Add(m.cfg.LongPress)

	if !touch {
		m.phase = Dragging
		return nil, nil
	}
	m.phase = Pending
	m.dragAt = now.Add(m.cfg.DragDelay)
	return m.advance(now), nil
}

// Move updates the pointer location. Moves before a touch drag begins are
// ignored.
func (m *Machine) Move(pointer core.Position, now time.Time) []Effect {
	effects := m.advance(now)
	if m.phase != Dragging {
		return effects
	}

	pos := geo.ClampDrag(core.Position{X: pointer.X - m.offset.X, Y: pointer.Y - m.offset.Y})
	if pos == m.current {
		return effects
	}
	m.current = pos
	m.moved = true
	return append(effects, Drag{PlayerID: m.playerID, Position: pos})
}

// Release ends a press.
func (m *Machine) Release(now time.Time) []Effect {
	effects := m.advance(now)

	switch m.phase {
	case Pending:
		effects = append(effects, Tap{PlayerID: m.playerID})
	case Dragging:
		if m.moved {
			effects = append(effects, Drop{PlayerID: m.playerID, Position: m.current})
		} else {
			effects = append(effects, Tap{PlayerID: m.playerID})
		}
	default:
		return effects
	}
	m.reset()
	return effects
}

// Tick fires any deadline that has passed.
func (m *Machine) Tick(now time.Time) []Effect {
	return m.advance(now)
}

// Edit opens the inline editor directly, as a double click does.
func (m *Machine) Edit(playerID int, field Field) ([]Effect, error) {
	if m.phase != Idle {
		return nil, ErrBusy
	}
	m.playerID = playerID
	m.field = field
	m.phase = Editing
	return []Effect{BeginEdit{PlayerID: playerID, Field: field}}, nil
}

// Commit closes the editor keeping text.
func (m *Machine) Commit(text string) ([]Effect, error) {
	if m.phase != Editing {
		return nil, ErrBusy
	}
	e := EndEdit{PlayerID: m.playerID, Field: m.field, Text: text, Committed: true}
	m.reset()
	return []Effect{e}, nil
}

// Cancel abandons the current gesture. An open editor is closed without
// committing; a drag in progress leaves the marker where it was last
// reported.
func (m *Machine) Cancel() []Effect {
	var effects []Effect
	switch m.phase {
	case Editing:
		effects = []Effect{EndEdit{PlayerID: m.playerID, Field: m.field}}
	case Dragging:
		if m.moved {
			effects = []Effect{Drop{PlayerID: m.playerID, Position: m.current}}
		}
	}
	m.reset()
	return effects
}

func (m *Machine) advance(now time.Time) []Effect {
	if m.phase == Pending && !now.Before(m.dragAt) {
		m.phase = Dragging
	}
	if m.phase == Dragging && m.touch && !m.moved && !now.Before(m.longPressAt) {
		m.phase = Editing
		m.field = FieldName
		return []Effect{BeginEdit{PlayerID: m.playerID, Field: FieldName}}
	}
	return nil
}

func (m *Machine) reset() {
	*m = Machine{cfg: m.cfg, phase: Idle}
}
