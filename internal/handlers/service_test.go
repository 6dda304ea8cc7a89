package handlers

import (
	"bytes"
	"errors"
	"image/png"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/falconvolei/quadro/internal/board"
	"github.com/falconvolei/quadro/internal/cache"
	"github.com/falconvolei/quadro/internal/config"
	"github.com/falconvolei/quadro/internal/dispatcher"
	"github.com/falconvolei/quadro/internal/gesture"
	"github.com/falconvolei/quadro/internal/render"
	"github.com/falconvolei/quadro/internal/storage/memory"
	"github.com/falconvolei/quadro/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	d        *dispatcher.Dispatcher
	backend  *memory.Backend
	previews *cache.PreviewCache
}

func newFixture(t *testing.T, opts ...board.StoreOption) *fixture {
	t.Helper()

	backend := memory.New(config.MemoryConfig{}, nil)
	require.NoError(t, backend.Init())

	r, err := render.New()
	require.NoError(t, err)

	clock := testNow
	previews := cache.NewPreviewCache()
	svc := NewService(Dependencies{
		Store:    board.NewStore(backend, opts...),
		Renderer: r,
		Previews: previews,
		Gesture:  gesture.Config{DragDelay: 100 * time.Millisecond, LongPress: 600 * time.Millisecond},
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})

	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	svc.RegisterHandlers(d)

	return &fixture{svc: svc, d: d, backend: backend, previews: previews}
}

func (f *fixture) dispatch(t *testing.T, cmd string, args ...string) any {
	t.Helper()
	result, err := f.d.Dispatch(dispatcher.Event{Command: cmd, Args: args, Timestamp: testNow})
	require.NoError(t, err, cmd)
	return result
}

func (f *fixture) dispatchAt(t *testing.T, at time.Time, cmd string, args ...string) PointerResult {
	t.Helper()
	result, err := f.d.Dispatch(dispatcher.Event{Command: cmd, Args: args, Timestamp: at})
	require.NoError(t, err, cmd)
	return result.(PointerResult)
}

func (f *fixture) reload(t *testing.T) board.State {
	t.Helper()
	return board.NewStore(f.backend).Load()
}

func TestRegisterHandlers_AllCommands(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{
		"lineup:get", "lineup:rotate", "lineup:export", "lineup:reserves:add", "lineup:substitute",
		"player:move", "player:name", "player:number", "player:edit",
		"rotation:list", "rotation:save", "rotation:load", "rotation:delete", "rotation:rename",
		"rotation:preview", "rotation:preview:download",
		"preview:get", "preview:release",
		"pointer", "pointer:tick", "pointer:commit", "pointer:cancel",
	} {
		assert.True(t, f.d.HasHandler(cmd), cmd)
	}
}

func TestLineupGet_DefaultBoard(t *testing.T) {
	f := newFixture(t)
	snap := f.dispatch(t, "lineup:get").(Snapshot)
	assert.Equal(t, board.DefaultLineup(), snap.Players)
	assert.Empty(t, snap.Rotations)
}

func TestLineupRotate_PersistsPlayers(t *testing.T) {
	f := newFixture(t)
	snap := f.dispatch(t, "lineup:rotate").(Snapshot)

	assert.Equal(t, core.Position{X: 50, Y: 69.44}, snap.Players[3].Position, "Camila moves from slot 1 to slot 6")
	assert.Equal(t, snap.Players, f.reload(t).Players)
}

func TestRotationLifecycle(t *testing.T) {
	f := newFixture(t)

	first := f.dispatch(t, "rotation:save").(core.SavedRotation)
	second := f.dispatch(t, "rotation:save").(core.SavedRotation)
	assert.Equal(t, "Rotação 1", first.Name)
	assert.Equal(t, "Rotação 2", second.Name)
	assert.Less(t, first.ID, second.ID)

	renamed := f.dispatch(t, "rotation:rename", formatID(first.ID), "Banco Titular").(core.SavedRotation)
	assert.Equal(t, "Banco Titular", renamed.Name)

	unchanged := f.dispatch(t, "rotation:rename", formatID(first.ID), "  ").(core.SavedRotation)
	assert.Equal(t, "Banco Titular", unchanged.Name)

	f.dispatch(t, "lineup:rotate")
	snap := f.dispatch(t, "rotation:load", formatID(first.ID)).(Snapshot)
	assert.Equal(t, first.Players, snap.Players)

	left := f.dispatch(t, "rotation:delete", formatID(first.ID)).([]core.SavedRotation)
	require.Len(t, left, 1)
	assert.Equal(t, second.ID, left[0].ID)

	reloaded := f.reload(t)
	require.Len(t, reloaded.Rotations, 1)
	assert.Equal(t, "Rotação 2", reloaded.Rotations[0].Name)

	list := f.dispatch(t, "rotation:list").([]core.SavedRotation)
	assert.Len(t, list, 1)
}

func TestRotationCommands_NotFound(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{"rotation:load", "rotation:delete", "rotation:preview", "rotation:preview:download"} {
		_, err := f.d.Dispatch(dispatcher.Event{Command: cmd, Args: []string{"123"}})
		assert.ErrorIs(t, err, board.ErrRotationNotFound, cmd)
	}
	_, err := f.d.Dispatch(dispatcher.Event{Command: "rotation:rename", Args: []string{"123", "x"}})
	assert.ErrorIs(t, err, board.ErrRotationNotFound)
}

func TestInvalidArguments(t *testing.T) {
	f := newFixture(t)
	cases := []dispatcher.Event{
		{Command: "rotation:load"},
		{Command: "rotation:load", Args: []string{"abc"}},
		{Command: "player:move", Args: []string{"1", "x", "50"}},
		{Command: "player:move", Args: []string{"1", "NaN", "NaN"}},
		{Command: "player:move", Args: []string{"1", "50", "+Inf"}},
		{Command: "pointer", Args: []string{"press", "1", "nan", "50"}},
		{Command: "lineup:substitute", Args: []string{"7"}},
		{Command: "pointer", Args: []string{"wiggle"}},
		{Command: "pointer", Args: []string{"press", "1", "50", "50", "maybe"}},
	}
	for _, e := range cases {
		_, err := f.d.Dispatch(e)
		assert.ErrorIs(t, err, ErrInvalidArgument, e.Command)
	}
}

func TestPlayerMove_RejectsNonFiniteCoordinates(t *testing.T) {
	f := newFixture(t)

	_, err := f.d.Dispatch(dispatcher.Event{Command: "player:move", Args: []string{"1", "NaN", "NaN"}})
	require.ErrorIs(t, err, ErrInvalidArgument)

	p, _ := f.svc.State().Player(1)
	assert.Equal(t, board.DefaultPlayers()[0].Position, p.Position)
	assert.Equal(t, 0, f.backend.Keys(), "rejected move is not persisted")
}

func TestPlayerEdit_AppliesFieldsTogether(t *testing.T) {
	f := newFixture(t)

	u := f.dispatch(t, "player:edit", "2", "name= Belinha ", "number=10", "x=40", "y=60").(Update)
	assert.True(t, u.Applied)
	p, _ := f.reload(t).Player(2)
	assert.Equal(t, "Belinha", p.Name)
	assert.Equal(t, 10, p.Number)
	assert.Equal(t, core.Position{X: 40, Y: 60}, p.Position)

	u = f.dispatch(t, "player:edit", "2", "name=Bela", "number=150").(Update)
	assert.False(t, u.Applied, "number discarded")
	p, _ = f.svc.State().Player(2)
	assert.Equal(t, "Bela", p.Name)
	assert.Equal(t, 10, p.Number)
}

func TestPlayerEdit_RejectedFieldChangesNothing(t *testing.T) {
	cases := [][]string{
		{"2", "name=Nova", "x=40"},
		{"2", "name=Nova", "x=NaN", "y=50"},
		{"2", "name=Nova", "height=180"},
		{"2", "name"},
		{"2"},
	}
	for _, args := range cases {
		f := newFixture(t)
		_, err := f.d.Dispatch(dispatcher.Event{Command: "player:edit", Args: args})
		assert.ErrorIs(t, err, ErrInvalidArgument, args)

		p, _ := f.svc.State().Player(2)
		assert.Equal(t, "Bela", p.Name, args)
		assert.Equal(t, 0, f.backend.Keys(), args)
	}

	f := newFixture(t)
	_, err := f.d.Dispatch(dispatcher.Event{Command: "player:edit", Args: []string{"42", "name=x"}})
	assert.ErrorIs(t, err, board.ErrPlayerNotFound)
}

func TestPlayerEdits(t *testing.T) {
	f := newFixture(t)

	u := f.dispatch(t, "player:name", "1", "  Bruninha ").(Update)
	assert.True(t, u.Applied)
	assert.Equal(t, "Bruninha", u.Players[0].Name)

	u = f.dispatch(t, "player:number", "1", "100").(Update)
	assert.False(t, u.Applied)
	assert.Equal(t, 13, u.Players[0].Number)

	u = f.dispatch(t, "player:number", "1", "7").(Update)
	assert.True(t, u.Applied)
	assert.Equal(t, 7, u.Players[0].Number)

	u = f.dispatch(t, "player:move", "1", "99", "1").(Update)
	assert.Equal(t, core.Position{X: 95, Y: 5}, u.Players[0].Position)

	p, _ := f.reload(t).Player(1)
	assert.Equal(t, "Bruninha", p.Name)
	assert.Equal(t, 7, p.Number)
	assert.Equal(t, core.Position{X: 95, Y: 5}, p.Position)

	_, err := f.d.Dispatch(dispatcher.Event{Command: "player:name", Args: []string{"42", "x"}})
	assert.ErrorIs(t, err, board.ErrPlayerNotFound)
}

func TestReservesAdd_OnlyOnEmptyBench(t *testing.T) {
	f := newFixture(t, board.WithSubstitutions(false))

	u := f.dispatch(t, "lineup:reserves:add").(Update)
	assert.True(t, u.Applied)
	assert.Len(t, u.Players, 8)

	u = f.dispatch(t, "lineup:reserves:add").(Update)
	assert.False(t, u.Applied)
}

func TestReservesAndSubstitution(t *testing.T) {
	f := newFixture(t)

	u := f.dispatch(t, "lineup:reserves:add").(Update)
	assert.False(t, u.Applied, "default lineup already has a bench")
	assert.Len(t, u.Players, 8)

	snap := f.dispatch(t, "lineup:substitute", "8", "2").(Snapshot)
	var raissa, bela core.Player
	for _, p := range snap.Players {
		switch p.ID {
		case 8:
			raissa = p
		case 2:
			bela = p
		}
	}
	assert.False(t, raissa.IsReserve)
	assert.Equal(t, core.Position{X: 50, Y: 19.44}, raissa.Position)
	assert.True(t, bela.IsReserve)
	assert.Equal(t, core.BenchPosition, bela.Position)

	_, err := f.d.Dispatch(dispatcher.Event{Command: "lineup:substitute", Args: []string{"1", "2"}})
	assert.ErrorIs(t, err, board.ErrNotReserve)
}

func TestLineupExport(t *testing.T) {
	f := newFixture(t)
	img := f.dispatch(t, "lineup:export").(Image)
	assert.Equal(t, "falcon-rotacoes.png", img.Filename)

	cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 620, cfg.Height)
}

func TestLineupExport_Concurrent(t *testing.T) {
	f := newFixture(t)
	saved := f.dispatch(t, "rotation:save").(core.SavedRotation)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.d.Dispatch(dispatcher.Event{Command: "lineup:export"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.d.Dispatch(dispatcher.Event{Command: "rotation:preview:download", Args: []string{formatID(saved.ID)}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPreview_SupersededPreviewIsReleased(t *testing.T) {
	f := newFixture(t)
	saved := f.dispatch(t, "rotation:save").(core.SavedRotation)

	first := f.dispatch(t, "rotation:preview", formatID(saved.ID)).(PreviewInfo)
	assert.Equal(t, "Rotação 1", first.Name)
	assert.Equal(t, 1, f.previews.Len())

	second := f.dispatch(t, "rotation:preview", formatID(saved.ID)).(PreviewInfo)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, f.previews.Len())

	_, err := f.d.Dispatch(dispatcher.Event{Command: "preview:get", Args: []string{first.ID}})
	assert.ErrorIs(t, err, ErrPreviewNotFound)

	p := f.dispatch(t, "preview:get", second.ID).(cache.Preview)
	_, err = png.DecodeConfig(bytes.NewReader(p.Data))
	require.NoError(t, err)

	assert.Equal(t, true, f.dispatch(t, "preview:release", second.ID))
	assert.Equal(t, false, f.dispatch(t, "preview:release", second.ID))
	assert.Equal(t, 0, f.previews.Len())
}

func TestPreviewDownload(t *testing.T) {
	f := newFixture(t)
	saved := f.dispatch(t, "rotation:save").(core.SavedRotation)

	img := f.dispatch(t, "rotation:preview:download", formatID(saved.ID)).(Image)
	assert.Equal(t, "falcon-rotacoes-visualizacao.png", img.Filename)
	assert.NotEmpty(t, img.Data)
	assert.Equal(t, 0, f.previews.Len())
}

func TestPointer_MouseClickIsTap(t *testing.T) {
	f := newFixture(t)

	res := f.dispatchAt(t, testNow, "pointer", "press", "5", "50", "69.44", "false")
	assert.Equal(t, "dragging", res.Phase)

	res = f.dispatchAt(t, testNow.Add(10*time.Millisecond), "pointer", "move", "5", "50", "69.44")
	assert.Empty(t, res.Effects, "no movement, no drag")

	res = f.dispatchAt(t, testNow.Add(20*time.Millisecond), "pointer", "release")
	require.Len(t, res.Effects, 1)
	assert.Equal(t, "tap", res.Effects[0].Type)
	assert.Equal(t, "idle", res.Phase)
}

func TestPointer_TouchLongPressRenames(t *testing.T) {
	f := newFixture(t)

	f.dispatchAt(t, testNow, "pointer", "press", "4", "83.33", "69.44", "true")
	res := f.dispatchAt(t, testNow.Add(700*time.Millisecond), "pointer:tick")
	require.Len(t, res.Effects, 1)
	assert.Equal(t, EffectView{Type: "begin-edit", PlayerID: 4, Field: "name"}, res.Effects[0])

	res = f.dispatchAt(t, testNow.Add(time.Second), "pointer:commit", "Camilinha")
	assert.Equal(t, "idle", res.Phase)
	p, _ := f.reload(t).Player(4)
	assert.Equal(t, "Camilinha", p.Name)
}

func TestPointer_EditNumberDiscardsInvalid(t *testing.T) {
	f := newFixture(t)

	f.dispatchAt(t, testNow, "pointer", "edit-number", "3")
	res := f.dispatchAt(t, testNow, "pointer:commit", "abc")
	require.Len(t, res.Effects, 1)
	assert.True(t, res.Effects[0].Committed)

	p, _ := f.svc.State().Player(3)
	assert.Equal(t, 12, p.Number)

	f.dispatchAt(t, testNow, "pointer", "edit-number", "3")
	f.dispatchAt(t, testNow, "pointer:commit", "21")
	p, _ = f.svc.State().Player(3)
	assert.Equal(t, 21, p.Number)
}

func TestPointer_DragUpdatesLivePositions(t *testing.T) {
	f := newFixture(t)

	f.dispatchAt(t, testNow, "pointer", "press", "1", "80", "20", "false")
	res := f.dispatchAt(t, testNow.Add(5*time.Millisecond), "pointer", "move", "1", "40", "40")
	require.Len(t, res.Effects, 1)
	assert.Equal(t, "drag", res.Effects[0].Type)

	res = f.dispatchAt(t, testNow.Add(10*time.Millisecond), "pointer:cancel")
	require.Len(t, res.Effects, 1)
	assert.Equal(t, "drop", res.Effects[0].Type)

	p, _ := f.reload(t).Player(1)
	assert.Equal(t, *res.Effects[0].Position, p.Position)
}

func TestPointer_BusyAndUnknownPlayer(t *testing.T) {
	f := newFixture(t)

	_, err := f.d.Dispatch(dispatcher.Event{Command: "pointer", Args: []string{"press", "42", "1", "1"}, Timestamp: testNow})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	f.dispatchAt(t, testNow, "pointer", "press", "1", "80", "20", "false")
	_, err = f.d.Dispatch(dispatcher.Event{Command: "pointer", Args: []string{"press", "2", "50", "20"}, Timestamp: testNow})
	assert.True(t, errors.Is(err, gesture.ErrBusy))

	_, err = f.d.Dispatch(dispatcher.Event{Command: "pointer:commit", Args: []string{"x"}})
	assert.ErrorIs(t, err, gesture.ErrBusy)
}

func TestContextAttrs(t *testing.T) {
	f := newFixture(t)
	attrs := f.svc.ContextAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "starters", attrs[0].Key)
	assert.Equal(t, int64(6), attrs[0].Value.Int64())
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
