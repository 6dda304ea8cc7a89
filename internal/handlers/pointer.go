package handlers

import (
	"fmt"

	"github.com/falconvolei/quadro/internal/dispatcher"
	"github.com/falconvolei/quadro/internal/gesture"
	"github.com/falconvolei/quadro/pkg/core"
)

// Pointer event kinds accepted by the pointer command.
const (
	PointerPress      = "press"
	PointerMove       = "move"
	PointerRelease    = "release"
	PointerEditName   = "edit-name"
	PointerEditNumber = "edit-number"
)

// EffectView is the JSON form of a gesture effect.
type EffectView struct {
	Type      string         `json:"type"`
	PlayerID  int            `json:"playerId"`
	Position  *core.Position `json:"position,omitempty"`
	Field     string         `json:"field,omitempty"`
	Text      string         `json:"text,omitempty"`
	Committed bool           `json:"committed,omitempty"`
}

// PointerResult reports the machine phase and what the event changed.
type PointerResult struct {
	Phase   string        `json:"phase"`
	Effects []EffectView  `json:"effects"`
	Players []core.Player `json:"players"`
}

// handlePointer feeds one raw pointer event to the gesture machine.
// Args: kind, playerID, x, y, touch. Coordinates are court percentages.
func (s *Service) handlePointer(e dispatcher.Event) (any, error) {
	kind := argString(e, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		effects []gesture.Effect
		err     error
	)
	switch kind {
	case PointerPress:
		var id int
		var pointer core.Position
		var touch bool
		if id, err = argInt(e, 1); err != nil {
			return nil, err
		}
		if pointer, err = argPosition(e, 2); err != nil {
			return nil, err
		}
		if touch, err = argBool(e, 4); err != nil {
			return nil, err
		}
		p, ok := s.state.Player(id)
		if !ok || p.IsReserve {
			return nil, fmt.Errorf("pointer press %d: %w", id, ErrInvalidArgument)
		}
		effects, err = s.pointer.Press(id, p.Position, pointer, touch, e.Timestamp)
	case PointerMove:
		var pointer core.Position
		if pointer, err = argPosition(e, 2); err != nil {
			return nil, err
		}
		effects = s.pointer.Move(pointer, e.Timestamp)
	case PointerRelease:
		effects = s.pointer.Release(e.Timestamp)
	case PointerEditName, PointerEditNumber:
		var id int
		if id, err = argInt(e, 1); err != nil {
			return nil, err
		}
		if _, ok := s.state.Player(id); !ok {
			return nil, fmt.Errorf("pointer edit %d: %w", id, ErrInvalidArgument)
		}
		field := gesture.FieldName
		if kind == PointerEditNumber {
			field = gesture.FieldNumber
		}
		effects, err = s.pointer.Edit(id, field)
	default:
		return nil, fmt.Errorf("pointer kind %q: %w", kind, ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	return s.applyEffects(effects), nil
}

func (s *Service) handlePointerTick(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyEffects(s.pointer.Tick(e.Timestamp)), nil
}

func (s *Service) handlePointerCommit(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effects, err := s.pointer.Commit(argString(e, 0))
	if err != nil {
		return nil, err
	}
	return s.applyEffects(effects), nil
}

func (s *Service) handlePointerCancel(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyEffects(s.pointer.Cancel()), nil
}

// applyEffects writes gesture outcomes to the board. Callers hold s.mu.
func (s *Service) applyEffects(effects []gesture.Effect) PointerResult {
	views := make([]EffectView, 0, len(effects))
	for _, eff := range effects {
		views = append(views, s.applyEffect(eff))
	}
	return PointerResult{
		Phase:   string(s.pointer.Phase()),
		Effects: views,
		Players: core.ClonePlayers(s.state.Players),
	}
}

func (s *Service) applyEffect(eff gesture.Effect) EffectView {
	switch e := eff.(type) {
	case gesture.Drag:
		s.movePlayer(e.PlayerID, e.Position)
		return EffectView{Type: "drag", PlayerID: e.PlayerID, Position: &e.Position}
	case gesture.Drop:
		s.movePlayer(e.PlayerID, e.Position)
		return EffectView{Type: "drop", PlayerID: e.PlayerID, Position: &e.Position}
	case gesture.Tap:
		return EffectView{Type: "tap", PlayerID: e.PlayerID}
	case gesture.BeginEdit:
		return EffectView{Type: "begin-edit", PlayerID: e.PlayerID, Field: string(e.Field)}
	case gesture.EndEdit:
		if e.Committed {
			s.finishEdit(e)
		}
		return EffectView{Type: "end-edit", PlayerID: e.PlayerID, Field: string(e.Field), Text: e.Text, Committed: e.Committed}
	default:
		return EffectView{Type: fmt.Sprintf("%T", eff)}
	}
}

func (s *Service) movePlayer(id int, pos core.Position) {
	next, err := s.state.MovePlayer(id, pos)
	if err != nil {
		s.logger().Warn("dropping pointer move", "player", id, "error", err)
		return
	}
	s.commit(next)
}

func (s *Service) finishEdit(e gesture.EndEdit) {
	var (
		next    = s.state
		applied bool
		err     error
	)
	switch e.Field {
	case gesture.FieldNumber:
		next, applied, err = s.state.SetPlayerNumber(e.PlayerID, e.Text)
	default:
		next, applied, err = s.state.RenamePlayer(e.PlayerID, e.Text)
	}
	if err != nil {
		s.logger().Warn("dropping inline edit", "player", e.PlayerID, "error", err)
		return
	}
	if applied {
		s.commit(next)
	}
}

func argPosition(e dispatcher.Event, i int) (core.Position, error) {
	x, err := argFloat(e, i)
	if err != nil {
		return core.Position{}, err
	}
	y, err := argFloat(e, i+1)
	if err != nil {
		return core.Position{}, err
	}
	return core.Position{X: x, Y: y}, nil
}
