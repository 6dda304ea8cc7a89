package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/falconvolei/quadro/internal/storage"
	"github.com/falconvolei/quadro/pkg/core"
)

// Storage keys. They match the keys written by the browser build so that an
// exported localStorage dump can be loaded as-is.
const (
	PlayersKey   = "falcon-volei-players"
	RotationsKey = "falcon-volei-rotations"
)

// Store persists board state to a storage.Backend. Read and write failures
// are logged and never surface to the caller: the board keeps running on
// whatever it has in memory.
type Store struct {
	backend       storage.Backend
	logger        *slog.Logger
	substitutions bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used to report storage failures.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithSubstitutions enables the reserve migration on load.
func WithSubstitutions(enabled bool) StoreOption {
	return func(s *Store) { s.substitutions = enabled }
}

// NewStore creates a Store on top of backend.
func NewStore(backend storage.Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:       backend,
		logger:        slog.Default(),
		substitutions: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted state. A missing or unreadable player list yields
// the default lineup, with the default bench when substitutions are enabled;
// a missing or unreadable rotation list yields none.
func (s *Store) Load() State {
	players, ok := s.loadPlayers()
	if !ok {
		players = s.defaultPlayers()
	} else if s.substitutions && len(core.Reserves(players)) == 0 {
		players = append(players, placeholderReserves()...)
		s.SavePlayers(players)
	}

	rotations, ok := s.loadRotations()
	if !ok {
		rotations = []core.SavedRotation{}
	}
	return New(players, rotations)
}

func (s *Store) defaultPlayers() []core.Player {
	if s.substitutions {
		return DefaultLineup()
	}
	return DefaultPlayers()
}

func (s *Store) loadPlayers() ([]core.Player, bool) {
	data, ok := s.read(PlayersKey)
	if !ok {
		return nil, false
	}
	var players []core.Player
	if err := json.Unmarshal(data, &players); err != nil {
		s.logger.Warn("discarding stored players", "key", PlayersKey, "error", err)
		return nil, false
	}
	if players == nil {
		return nil, false
	}
	return players, true
}

func (s *Store) loadRotations() ([]core.SavedRotation, bool) {
	data, ok := s.read(RotationsKey)
	if !ok {
		return nil, false
	}
	var rotations []core.SavedRotation
	if err := json.Unmarshal(data, &rotations); err != nil {
		s.logger.Warn("discarding stored rotations", "key", RotationsKey, "error", err)
		return nil, false
	}
	if rotations == nil {
		return nil, false
	}
	return rotations, true
}

func (s *Store) read(key string) ([]byte, bool) {
	data, err := s.backend.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("failed to read board state", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// SavePlayers writes the live player list.
func (s *Store) SavePlayers(players []core.Player) {
	if players == nil {
		players = []core.Player{}
	}
	s.write(PlayersKey, players)
}

// SaveRotations writes the saved-rotation list.
func (s *Store) SaveRotations(rotations []core.SavedRotation) {
	if rotations == nil {
		rotations = []core.SavedRotation{}
	}
	s.write(RotationsKey, rotations)
}

// Persist writes whichever lists differ between prev and next.
func (s *Store) Persist(prev, next State) {
	if !reflect.DeepEqual(prev.Players, next.Players) {
		s.SavePlayers(next.Players)
	}
	if !reflect.DeepEqual(prev.Rotations, next.Rotations) {
		s.SaveRotations(next.Rotations)
	}
}

func (s *Store) write(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode board state", "key", key, "error", err)
		return
	}
	if err := s.backend.Put(key, data); err != nil {
		s.logger.Error("failed to write board state", "key", key, "error", fmt.Errorf("put: %w", err))
	}
}
