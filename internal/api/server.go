// Package api exposes the board commands over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/falconvolei/quadro/internal/board"
	"github.com/falconvolei/quadro/internal/cache"
	"github.com/falconvolei/quadro/internal/dispatcher"
	"github.com/falconvolei/quadro/internal/gesture"
	"github.com/falconvolei/quadro/internal/handlers"
	"github.com/falconvolei/quadro/pkg/core"
	"github.com/gorilla/mux"
)

// Server routes HTTP requests to dispatcher commands.
type Server struct {
	d      *dispatcher.Dispatcher
	logger *slog.Logger
	router *mux.Router
}

// NewServer creates a Server for the commands registered on d.
func NewServer(d *dispatcher.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{d: d, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/healthcheck", s.healthcheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/commands/{command}", s.command).Methods(http.MethodPost)

	api.HandleFunc("/lineup", s.simple("lineup:get")).Methods(http.MethodGet)
	api.HandleFunc("/lineup/rotate", s.simple("lineup:rotate")).Methods(http.MethodPost)
	api.HandleFunc("/lineup/export.png", s.image("lineup:export")).Methods(http.MethodGet)
	api.HandleFunc("/lineup/reserves", s.simple("lineup:reserves:add")).Methods(http.MethodPost)
	api.HandleFunc("/lineup/substitutions", s.substitute).Methods(http.MethodPost)

	api.HandleFunc("/players/{id:[0-9]+}", s.patchPlayer).Methods(http.MethodPatch)

	api.HandleFunc("/rotations", s.simple("rotation:list")).Methods(http.MethodGet)
	api.HandleFunc("/rotations", s.saveRotation).Methods(http.MethodPost)
	api.HandleFunc("/rotations/{id:[0-9]+}", s.withID("rotation:delete")).Methods(http.MethodDelete)
	api.HandleFunc("/rotations/{id:[0-9]+}", s.renameRotation).Methods(http.MethodPatch)
	api.HandleFunc("/rotations/{id:[0-9]+}/load", s.withID("rotation:load")).Methods(http.MethodPost)
	api.HandleFunc("/rotations/{id:[0-9]+}/preview", s.preview).Methods(http.MethodPost)
	api.HandleFunc("/rotations/{id:[0-9]+}/preview.png", s.image("rotation:preview:download")).Methods(http.MethodGet)

	api.HandleFunc("/previews/{id}", s.getPreview).Methods(http.MethodGet)
	api.HandleFunc("/previews/{id}", s.withID("preview:release")).Methods(http.MethodDelete)

	api.HandleFunc("/pointer", s.pointer).Methods(http.MethodPost)

	r.Use(s.logRequests)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) dispatch(command string, args ...string) (any, error) {
	return s.d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
}

func (s *Server) healthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// command runs any registered command: {"args": ["..."]}.
func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["command"]
	if !s.d.HasHandler(name) {
		s.writeError(w, fmt.Errorf("%w: %s", dispatcher.ErrUnknownCommand, name))
		return
	}
	var body struct {
		Args []string `json:"args"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, fmt.Errorf("decode body: %w", handlers.ErrInvalidArgument))
			return
		}
	}
	s.respond(w, r, name, body.Args...)
}

func (s *Server) simple(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, command)
	}
}

func (s *Server) withID(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, command, mux.Vars(r)["id"])
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, command string, args ...string) {
	result, err := s.dispatch(command, args...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) image(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var args []string
		if id, ok := mux.Vars(r)["id"]; ok {
			args = append(args, id)
		}
		result, err := s.dispatch(command, args...)
		if err != nil {
			s.writeError(w, err)
			return
		}
		img := result.(handlers.Image)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.Filename))
		writePNG(w, img.Data)
	}
}

func (s *Server) substitute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReserveID int `json:"reserveId"`
		StarterID int `json:"starterId"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.respond(w, r, "lineup:substitute", strconv.Itoa(body.ReserveID), strconv.Itoa(body.StarterID))
}

type playerPatch struct {
	Name     *string         `json:"name"`
	Number   json.RawMessage `json:"number"`
	Position *core.Position  `json:"position"`
}

// patchPlayer applies the present fields as one player:edit command, so a
// rejected field leaves the player untouched. Invalid names or numbers are
// discarded and reported with applied=false.
func (s *Server) patchPlayer(w http.ResponseWriter, r *http.Request) {
	var body playerPatch
	if !s.decode(w, r, &body) {
		return
	}

	args := []string{mux.Vars(r)["id"]}
	if body.Name != nil {
		args = append(args, "name="+*body.Name)
	}
	if len(body.Number) > 0 {
		args = append(args, "number="+numberText(body.Number))
	}
	if body.Position != nil {
		args = append(args, "x="+formatFloat(body.Position.X), "y="+formatFloat(body.Position.Y))
	}
	if len(args) == 1 {
		s.respond(w, r, "lineup:get")
		return
	}
	s.respond(w, r, "player:edit", args...)
}

func (s *Server) saveRotation(w http.ResponseWriter, r *http.Request) {
	result, err := s.dispatch("rotation:save")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) renameRotation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.respond(w, r, "rotation:rename", mux.Vars(r)["id"], body.Name)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	result, err := s.dispatch("rotation:preview", mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	info := result.(handlers.PreviewInfo)
	writeJSON(w, http.StatusOK, map[string]string{
		"id":   info.ID,
		"name": info.Name,
		"url":  "/api/previews/" + info.ID,
	})
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.dispatch("preview:get", mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writePNG(w, result.(cache.Preview).Data)
}

type pointerRequest struct {
	Kind     string  `json:"kind"`
	PlayerID int     `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Touch    bool    `json:"touch"`
	Text     string  `json:"text"`
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request) {
	var body pointerRequest
	if !s.decode(w, r, &body) {
		return
	}
	switch body.Kind {
	case "tick":
		s.respond(w, r, "pointer:tick")
	case "commit":
		s.respond(w, r, "pointer:commit", body.Text)
	case "cancel":
		s.respond(w, r, "pointer:cancel")
	default:
		s.respond(w, r, "pointer", body.Kind, strconv.Itoa(body.PlayerID),
			formatFloat(body.X), formatFloat(body.Y), strconv.FormatBool(body.Touch))
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, fmt.Errorf("decode body: %v: %w", err, handlers.ErrInvalidArgument))
		return false
	}
	return true
}

// statusFor maps command errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrRotationNotFound),
		errors.Is(err, board.ErrPlayerNotFound),
		errors.Is(err, handlers.ErrPreviewNotFound),
		errors.Is(err, dispatcher.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, handlers.ErrInvalidArgument),
		errors.Is(err, board.ErrNotReserve),
		errors.Is(err, board.ErrNotStarter):
		return http.StatusBadRequest
	case errors.Is(err, gesture.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// numberText accepts a JSON number or string.
func numberText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
