package board

import (
	"testing"
	"time"

	"github.com/falconvolei/quadro/internal/court"
	"github.com/falconvolei/quadro/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saveTime = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func TestDefault(t *testing.T) {
	s := Default()
	require.Len(t, s.Players, 6)
	assert.Empty(t, s.Reserves())
	assert.NotNil(t, s.Rotations)
	assert.Empty(t, s.Rotations)

	camila, ok := s.Player(4)
	require.True(t, ok)
	assert.Equal(t, "Camila", camila.Name)
	assert.Equal(t, core.Position{X: 83.33, Y: 69.44}, camila.Position)
}

func TestRotate_DoesNotMutateReceiver(t *testing.T) {
	s := Default()
	next := s.Rotate()

	camila, _ := s.Player(4)
	assert.Equal(t, court.SlotBackRight.Position(), camila.Position)

	moved, _ := next.Player(4)
	assert.Equal(t, court.SlotBackMiddle.Position(), moved.Position)
}

func TestRotate_LeavesReservesOnBench(t *testing.T) {
	s, added := Default().AddReserves()
	require.True(t, added)

	next := s.Rotate()
	assert.Equal(t, s.Reserves(), next.Reserves())
}

func TestSaveRotation(t *testing.T) {
	s := Default()
	next, saved := s.SaveRotation(saveTime)

	assert.Empty(t, s.Rotations)
	require.Len(t, next.Rotations, 1)
	assert.Equal(t, "Rotação 1", saved.Name)
	assert.Equal(t, saveTime.UnixMilli(), saved.ID)
	assert.Equal(t, s.Players, saved.Players)

	next.Players[0].Name = "changed"
	assert.Equal(t, "Bruna", next.Rotations[0].Players[0].Name, "saved copy must not alias live players")

	next, second := next.SaveRotation(saveTime)
	assert.Equal(t, "Rotação 2", second.Name)
	assert.Equal(t, saved.ID+1, second.ID, "same-millisecond saves get distinct IDs")
}

func TestSaveRotation_IncludesReserves(t *testing.T) {
	s, _ := Default().AddReserves()
	_, saved := s.SaveRotation(saveTime)
	assert.Len(t, saved.Players, 8)
}

func TestLoadRotation(t *testing.T) {
	s, saved := Default().SaveRotation(saveTime)
	s = s.Rotate()

	loaded, err := s.LoadRotation(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Players, loaded.Players)
	assert.Len(t, loaded.Rotations, 1)

	loaded.Players[0].Name = "changed"
	r, _ := loaded.Rotation(saved.ID)
	assert.Equal(t, "Bruna", r.Players[0].Name)

	_, err = s.LoadRotation(42)
	assert.ErrorIs(t, err, ErrRotationNotFound)
}

func TestDeleteRotation_KeepsOthers(t *testing.T) {
	s := Default()
	s, a := s.SaveRotation(saveTime)
	s, b := s.SaveRotation(saveTime.Add(time.Second))
	s, c := s.SaveRotation(saveTime.Add(2 * time.Second))

	next, err := s.DeleteRotation(b.ID)
	require.NoError(t, err)
	require.Len(t, next.Rotations, 2)
	assert.Equal(t, a.ID, next.Rotations[0].ID)
	assert.Equal(t, c.ID, next.Rotations[1].ID)
	assert.Equal(t, "Rotação 3", next.Rotations[1].Name)
	assert.Len(t, s.Rotations, 3)

	_, err = next.DeleteRotation(b.ID)
	assert.ErrorIs(t, err, ErrRotationNotFound)
}

func TestRenameRotation(t *testing.T) {
	s, saved := Default().SaveRotation(saveTime)

	next, applied, err := s.RenameRotation(saved.ID, "  Banco Titular ")
	require.NoError(t, err)
	assert.True(t, applied)
	r, _ := next.Rotation(saved.ID)
	assert.Equal(t, "Banco Titular", r.Name)

	same, applied, err := next.RenameRotation(saved.ID, "   ")
	require.NoError(t, err)
	assert.False(t, applied)
	r, _ = same.Rotation(saved.ID)
	assert.Equal(t, "Banco Titular", r.Name)

	_, _, err = s.RenameRotation(1, "x")
	assert.ErrorIs(t, err, ErrRotationNotFound)
}

func TestSubstitute(t *testing.T) {
	s, _ := Default().AddReserves()
	laura, _ := s.Player(5)

	next, err := s.Substitute(7, 5)
	require.NoError(t, err)

	luana, _ := next.Player(7)
	assert.False(t, luana.IsReserve)
	assert.Equal(t, laura.Position, luana.Position)

	benched, _ := next.Player(5)
	assert.True(t, benched.IsReserve)
	assert.Equal(t, core.BenchPosition, benched.Position)

	assert.Len(t, next.Starters(), 6)
	assert.Len(t, next.Reserves(), 2)
}

func TestSubstitute_Errors(t *testing.T) {
	s, _ := Default().AddReserves()

	_, err := s.Substitute(99, 5)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = s.Substitute(7, 99)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = s.Substitute(1, 5)
	assert.ErrorIs(t, err, ErrNotReserve)
	_, err = s.Substitute(7, 8)
	assert.ErrorIs(t, err, ErrNotStarter)
}

func TestRenamePlayer(t *testing.T) {
	s := Default()

	next, applied, err := s.RenamePlayer(1, " Bruninha ")
	require.NoError(t, err)
	assert.True(t, applied)
	p, _ := next.Player(1)
	assert.Equal(t, "Bruninha", p.Name)

	_, applied, err = s.RenamePlayer(1, "")
	require.NoError(t, err)
	assert.False(t, applied)

	_, _, err = s.RenamePlayer(42, "x")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSetPlayerNumber(t *testing.T) {
	tests := []struct {
		input   string
		applied bool
		want    int
	}{
		{"10", true, 10},
		{" 1 ", true, 1},
		{"99", true, 99},
		{"0", false, 13},
		{"100", false, 13},
		{"-5", false, 13},
		{"abc", false, 13},
		{"", false, 13},
		{"7.5", false, 13},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			next, applied, err := Default().SetPlayerNumber(1, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.applied, applied)
			p, _ := next.Player(1)
			assert.Equal(t, tt.want, p.Number)
		})
	}
}

func TestMovePlayer_Clamps(t *testing.T) {
	next, err := Default().MovePlayer(1, core.Position{X: 120, Y: -3})
	require.NoError(t, err)
	p, _ := next.Player(1)
	assert.Equal(t, core.Position{X: 95, Y: 5}, p.Position)

	s, _ := Default().AddReserves()
	_, err = s.MovePlayer(7, core.Position{X: 50, Y: 50})
	assert.ErrorIs(t, err, ErrNotStarter)

	_, err = s.MovePlayer(42, core.Position{})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestAddReserves_OnlyWhenBenchEmpty(t *testing.T) {
	s, added := Default().AddReserves()
	require.True(t, added)
	assert.Equal(t, DefaultReserves(), s.Reserves())

	again, added := s.AddReserves()
	assert.False(t, added)
	assert.Len(t, again.Players, 8)
}

func TestFormations(t *testing.T) {
	f := Default().Formations()
	require.Len(t, f, 6)
	assert.Equal(t, "Rotação 1", f[0].Name)
	assert.Equal(t, Default().Players, f[0].Players)
}
