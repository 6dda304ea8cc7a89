package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/falconvolei/quadro/internal/board"
	"github.com/falconvolei/quadro/internal/cache"
	"github.com/falconvolei/quadro/internal/court"
	"github.com/falconvolei/quadro/internal/dispatcher"
	"github.com/falconvolei/quadro/internal/gesture"
	"github.com/falconvolei/quadro/internal/logging"
	"github.com/falconvolei/quadro/internal/render"
	"github.com/falconvolei/quadro/pkg/core"
)

var (
	// ErrInvalidArgument is returned when a command argument is missing or
	// malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPreviewNotFound is returned for released or unknown preview handles.
	ErrPreviewNotFound = errors.New("preview not found")
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Store      *board.Store
	Renderer   *render.Renderer
	Previews   *cache.PreviewCache
	LogManager *logging.SlogManager
	Gesture    gesture.Config

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service owns the live board. Every command runs under one lock, reads
// the current snapshot and replaces it with the result of a pure update.
type Service struct {
	deps Dependencies

	mu      sync.Mutex
	state   board.State
	pointer *gesture.Machine
	preview string
}

// NewService loads the persisted board and creates a handler service.
func NewService(deps Dependencies) *Service {
	if deps.Previews == nil {
		deps.Previews = cache.NewPreviewCache()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		deps:    deps,
		state:   deps.Store.Load(),
		pointer: gesture.New(deps.Gesture),
	}
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		return s.deps.LogManager.Logger()
	}
	return slog.Default()
}

// State returns a copy of the live board.
func (s *Service) State() board.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ContextAttrs describes the board for log records. Records logged while a
// command holds the lock carry no board attributes.
func (s *Service) ContextAttrs() []slog.Attr {
	if !s.mu.TryLock() {
		return nil
	}
	defer s.mu.Unlock()
	return []slog.Attr{
		slog.Int("starters", len(s.state.Starters())),
		slog.Int("reserves", len(s.state.Reserves())),
		slog.Int("savedRotations", len(s.state.Rotations)),
	}
}

// commit persists whatever changed and makes next the live state.
// Callers hold s.mu.
func (s *Service) commit(next board.State) {
	s.deps.Store.Persist(s.state, next)
	s.state = next
}

// RegisterHandlers registers all board commands with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Lineup
	d.Register("lineup:get", s.handleLineupGet)
	d.Register("lineup:rotate", s.handleLineupRotate, dispatcher.Logged())
	d.Register("lineup:export", s.handleLineupExport, dispatcher.Logged())
	d.Register("lineup:reserves:add", s.handleReservesAdd, dispatcher.Logged())
	d.Register("lineup:substitute", s.handleSubstitute, dispatcher.Logged())

	// Inline player edits
	d.Register("player:move", s.handlePlayerMove, dispatcher.Logged())
	d.Register("player:name", s.handlePlayerName, dispatcher.Logged())
	d.Register("player:number", s.handlePlayerNumber, dispatcher.Logged())
	d.Register("player:edit", s.handlePlayerEdit, dispatcher.Logged())

	// Saved rotations
	d.Register("rotation:list", s.handleRotationList)
	d.Register("rotation:save", s.handleRotationSave, dispatcher.Logged())
	d.Register("rotation:load", s.handleRotationLoad, dispatcher.Logged())
	d.Register("rotation:delete", s.handleRotationDelete, dispatcher.Logged())
	d.Register("rotation:rename", s.handleRotationRename, dispatcher.Logged())
	d.Register("rotation:preview", s.handleRotationPreview, dispatcher.Logged())
	d.Register("rotation:preview:download", s.handleRotationPreviewDownload, dispatcher.Logged())

	// Preview resources
	d.Register("preview:get", s.handlePreviewGet)
	d.Register("preview:release", s.handlePreviewRelease, dispatcher.Logged())

	// Pointer input; high volume, not logged
	d.Register("pointer", s.handlePointer)
	d.Register("pointer:tick", s.handlePointerTick)
	d.Register("pointer:commit", s.handlePointerCommit, dispatcher.Logged())
	d.Register("pointer:cancel", s.handlePointerCancel)
}

// Snapshot is the JSON view of the board.
type Snapshot struct {
	Players   []core.Player        `json:"players"`
	Rotations []core.SavedRotation `json:"rotations"`
}

// Update reports the outcome of an inline edit.
type Update struct {
	Applied bool          `json:"applied"`
	Players []core.Player `json:"players"`
}

// Image is a rendered PNG ready for download.
type Image struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// PreviewInfo describes a cached preview.
type PreviewInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Service) snapshot() Snapshot {
	c := s.state.Clone()
	return Snapshot{Players: c.Players, Rotations: c.Rotations}
}

func (s *Service) handleLineupGet(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *Service) handleLineupRotate(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commit(s.state.Rotate())
	return s.snapshot(), nil
}

func (s *Service) handleLineupExport(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	formations := s.state.Formations()
	s.mu.Unlock()

	data, err := s.deps.Renderer.Render(formations)
	if err != nil {
		return nil, fmt.Errorf("export lineup: %w", err)
	}
	return Image{Filename: render.ExportFilename, Data: data}, nil
}

func (s *Service) handleReservesAdd(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, added := s.state.AddReserves()
	if added {
		s.commit(next)
	}
	return Update{Applied: added, Players: core.ClonePlayers(s.state.Players)}, nil
}

func (s *Service) handleSubstitute(e dispatcher.Event) (any, error) {
	reserveID, err := argInt(e, 0)
	if err != nil {
		return nil, err
	}
	starterID, err := argInt(e, 1)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.Substitute(reserveID, starterID)
	if err != nil {
		return nil, err
	}
	s.commit(next)
	return s.snapshot(), nil
}

func (s *Service) handlePlayerMove(e dispatcher.Event) (any, error) {
	id, err := argInt(e, 0)
	if err != nil {
		return nil, err
	}
	x, err := argFloat(e, 1)
	if err != nil {
		return nil, err
	}
	y, err := argFloat(e, 2)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.MovePlayer(id, core.Position{X: x, Y: y})
	if err != nil {
		return nil, err
	}
	s.commit(next)
	return Update{Applied: true, Players: core.ClonePlayers(next.Players)}, nil
}

func (s *Service) handlePlayerName(e dispatcher.Event) (any, error) {
	id, err := argInt(e, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied, err := s.state.RenamePlayer(id, argString(e, 1))
	if err != nil {
		return nil, err
	}
	if applied {
		s.commit(next)
	}
	return Update{Applied: applied, Players: core.ClonePlayers(s.state.Players)}, nil
}

func (s *Service) handlePlayerNumber(e dispatcher.Event) (any, error) {
	id, err := argInt(e, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied, err := s.state.SetPlayerNumber(id, argString(e, 1))
	if err != nil {
		return nil, err
	}
	if applied {
		s.commit(next)
	} else {
		s.logger().Debug("discarded jersey number", "player", id, "input", argString(e, 1))
	}
	return Update{Applied: applied, Players: core.ClonePlayers(s.state.Players)}, nil
}

// playerEdit is a parsed player:edit request. Nil fields are left alone.
type playerEdit struct {
	name     *string
	number   *string
	position *core.Position
}

// parsePlayerEdit reads key=value arguments starting at index 1: name,
// number, and x together with y.
func parsePlayerEdit(e dispatcher.Event) (playerEdit, error) {
	var edit playerEdit
	var x, y *float64
	for i := 1; i < len(e.Args); i++ {
		key, value, ok := strings.Cut(e.Args[i], "=")
		if !ok {
			return edit, fmt.Errorf("%s: argument %d %q: %w", e.Command, i+1, e.Args[i], ErrInvalidArgument)
		}
		switch key {
		case "name":
			edit.name = &value
		case "number":
			edit.number = &value
		case "x", "y":
			v, ok := parseCoordinate(value)
			if !ok {
				return edit, fmt.Errorf("%s: argument %d %q: %w", e.Command, i+1, e.Args[i], ErrInvalidArgument)
			}
			if key == "x" {
				x = &v
			} else {
				y = &v
			}
		default:
			return edit, fmt.Errorf("%s: unknown field %q: %w", e.Command, key, ErrInvalidArgument)
		}
	}
	if (x == nil) != (y == nil) {
		return edit, fmt.Errorf("%s: x and y go together: %w", e.Command, ErrInvalidArgument)
	}
	if x != nil {
		edit.position = &core.Position{X: *x, Y: *y}
	}
	if edit.name == nil && edit.number == nil && edit.position == nil {
		return edit, fmt.Errorf("%s: no fields: %w", e.Command, ErrInvalidArgument)
	}
	return edit, nil
}

// handlePlayerEdit applies several inline edits to one player in one
// transition with a single write. Applied is false when a name or number
// was discarded.
func (s *Service) handlePlayerEdit(e dispatcher.Event) (any, error) {
	id, err := argInt(e, 0)
	if err != nil {
		return nil, err
	}
	edit, err := parsePlayerEdit(e)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	applied := true
	var ok bool
	if edit.name != nil {
		if next, ok, err = next.RenamePlayer(id, *edit.name); err != nil {
			return nil, err
		}
		applied = applied && ok
	}
	if edit.number != nil {
		if next, ok, err = next.SetPlayerNumber(id, *edit.number); err != nil {
			return nil, err
		}
		applied = applied && ok
	}
	if edit.position != nil {
		if next, err = next.MovePlayer(id, *edit.position); err != nil {
			return nil, err
		}
	}
	s.commit(next)
	return Update{Applied: applied, Players: core.ClonePlayers(next.Players)}, nil
}

func (s *Service) handleRotationList(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneRotations(s.state.Rotations), nil
}

func (s *Service) handleRotationSave(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, saved := s.state.SaveRotation(s.deps.Now())
	s.commit(next)
	return saved, nil
}

func (s *Service) handleRotationLoad(e dispatcher.Event) (any, error) {
	id, err := argInt64(e, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.LoadRotation(id)
	if err != nil {
		return nil, err
	}
	s.commit(next)
	return s.snapshot(), nil
}

func (s *Service) handleRotationDelete(e dispatcher.Event) (any, error) {
	id, err := argInt64(e, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.DeleteRotation(id)
	if err != nil {
		return nil, err
	}
	s.commit(next)
	return core.CloneRotations(next.Rotations), nil
}

func (s *Service) handleRotationRename(e dispatcher.Event) (any, error) {
	id, err := argInt64(e, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied, err := s.state.RenameRotation(id, argString(e, 1))
	if err != nil {
		return nil, err
	}
	if applied {
		s.commit(next)
	}
	r, _ := s.state.Rotation(id)
	return r, nil
}

func (s *Service) renderRotation(e dispatcher.Event) (core.SavedRotation, []byte, error) {
	id, err := argInt64(e, 0)
	if err != nil {
		return core.SavedRotation{}, nil, err
	}

	s.mu.Lock()
	r, ok := s.state.Rotation(id)
	s.mu.Unlock()
	if !ok {
		return core.SavedRotation{}, nil, fmt.Errorf("preview %d: %w", id, board.ErrRotationNotFound)
	}

	data, err := s.deps.Renderer.Render(court.Formations(r.Players))
	if err != nil {
		return core.SavedRotation{}, nil, fmt.Errorf("preview %d: %w", id, err)
	}
	return r, data, nil
}

// handleRotationPreview renders a saved rotation into the preview cache.
// The preview it supersedes is released.
func (s *Service) handleRotationPreview(e dispatcher.Event) (any, error) {
	r, data, err := s.renderRotation(e)
	if err != nil {
		return nil, err
	}

	p := s.deps.Previews.Put(r.Name, data)

	s.mu.Lock()
	prev := s.preview
	s.preview = p.ID
	s.mu.Unlock()
	if prev != "" {
		s.deps.Previews.Release(prev)
	}

	return PreviewInfo{ID: p.ID, Name: p.Name}, nil
}

func (s *Service) handleRotationPreviewDownload(e dispatcher.Event) (any, error) {
	_, data, err := s.renderRotation(e)
	if err != nil {
		return nil, err
	}
	return Image{Filename: render.PreviewFilename, Data: data}, nil
}

func (s *Service) handlePreviewGet(e dispatcher.Event) (any, error) {
	id := argString(e, 0)
	p, ok := s.deps.Previews.Get(id)
	if !ok {
		return nil, fmt.Errorf("preview %q: %w", id, ErrPreviewNotFound)
	}
	return p, nil
}

func (s *Service) handlePreviewRelease(e dispatcher.Event) (any, error) {
	id := argString(e, 0)
	released := s.deps.Previews.Release(id)

	s.mu.Lock()
	if s.preview == id {
		s.preview = ""
	}
	s.mu.Unlock()

	return released, nil
}

func argString(e dispatcher.Event, i int) string {
	if i >= len(e.Args) {
		return ""
	}
	return e.Args[i]
}

func argInt(e dispatcher.Event, i int) (int, error) {
	if i >= len(e.Args) {
		return 0, fmt.Errorf("%s: missing argument %d: %w", e.Command, i+1, ErrInvalidArgument)
	}
	v, err := strconv.Atoi(e.Args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d %q: %w", e.Command, i+1, e.Args[i], ErrInvalidArgument)
	}
	return v, nil
}

func argInt64(e dispatcher.Event, i int) (int64, error) {
	if i >= len(e.Args) {
		return 0, fmt.Errorf("%s: missing argument %d: %w", e.Command, i+1, ErrInvalidArgument)
	}
	v, err := strconv.ParseInt(e.Args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d %q: %w", e.Command, i+1, e.Args[i], ErrInvalidArgument)
	}
	return v, nil
}

func argFloat(e dispatcher.Event, i int) (float64, error) {
	if i >= len(e.Args) {
		return 0, fmt.Errorf("%s: missing argument %d: %w", e.Command, i+1, ErrInvalidArgument)
	}
	v, ok := parseCoordinate(e.Args[i])
	if !ok {
		return 0, fmt.Errorf("%s: argument %d %q: %w", e.Command, i+1, e.Args[i], ErrInvalidArgument)
	}
	return v, nil
}

// parseCoordinate parses a finite percentage.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func argBool(e dispatcher.Event, i int) (bool, error) {
	if i >= len(e.Args) {
		return false, nil
	}
	v, err := strconv.ParseBool(e.Args[i])
	if err != nil {
		return false, fmt.Errorf("%s: argument %d %q: %w", e.Command, i+1, e.Args[i], ErrInvalidArgument)
	}
	return v, nil
}
