package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/falconvolei/quadro/internal/api"
	"github.com/falconvolei/quadro/internal/board"
	"github.com/falconvolei/quadro/internal/cache"
	"github.com/falconvolei/quadro/internal/config"
	"github.com/falconvolei/quadro/internal/dispatcher"
	"github.com/falconvolei/quadro/internal/gesture"
	"github.com/falconvolei/quadro/internal/handlers"
	"github.com/falconvolei/quadro/internal/logging"
	intOtel "github.com/falconvolei/quadro/internal/otel"
	"github.com/falconvolei/quadro/internal/render"
	"github.com/falconvolei/quadro/internal/storage"
	pgstorage "github.com/falconvolei/quadro/internal/storage/postgres"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Version and BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"

	AppName = "quadro"
)

// app holds everything a command needs. It is built once per invocation in
// the root command's PersistentPreRunE.
type app struct {
	configDir string
	serverURL string
	verbose   bool

	start  time.Time
	stderr io.Writer

	slogManager *logging.SlogManager
	logger      *slog.Logger
	logFile     *os.File
	otel        *intOtel.Provider
	dbLog       zerolog.Logger

	backend    storage.Backend
	service    *handlers.Service
	dispatcher *dispatcher.Dispatcher
	remote     *api.Client
}

func newApp() *app {
	return &app{
		start:       time.Now(),
		stderr:      os.Stderr,
		slogManager: logging.NewSlogManager(),
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if os.Getenv("QUADRO_ENV") != "production" {
		if err := godotenv.Load(); err == nil {
			fmt.Fprintln(a.stderr, "loaded .env")
		}
	}

	configErr := config.Load(a.configDir)

	a.setupLogging()
	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config", "dir", a.configDir)
	}

	if a.serverURL != "" {
		a.remote = api.NewClient(a.serverURL)
		if err := a.remote.Healthcheck(cmd.Context()); err != nil {
			return fmt.Errorf("server %s unreachable: %w", a.serverURL, err)
		}
		a.logger.Info("Using remote board", "url", a.serverURL)
		return nil
	}

	return a.setupBoard()
}

// setupLogging opens the session log file and wires slog, the optional
// OTel exporter and the zerolog logger used by the database layer.
func (a *app) setupLogging() {
	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	file, logPath, err := logging.OpenSessionLog(logsDir, AppName, a.start)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to open log file in %s, logging to console: %v\n", logsDir, err)
	} else {
		a.logFile = file
	}

	var logOut io.Writer
	if a.logFile != nil {
		logOut = a.logFile
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && logOut != nil {
		a.otel, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: Version,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logOut,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			fmt.Fprintf(a.stderr, "Failed to initialize OTel provider: %v\n", err)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if a.otel != nil && a.otel.Enabled() {
		otelLogProvider = a.otel.LoggerProvider()
	}

	a.slogManager.Setup(logOut, level, otelLogProvider)
	a.logger = a.slogManager.Logger()

	zlLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zlLevel = zerolog.InfoLevel
	}
	var zlOut io.Writer = a.stderr
	if logOut != nil {
		zlOut = logOut
		if a.verbose {
			zlOut = zerolog.MultiLevelWriter(logOut, zerolog.ConsoleWriter{Out: a.stderr})
		}
	}
	a.dbLog = zerolog.New(zlOut).Level(zlLevel).With().Timestamp().Str("app", AppName).Logger()

	if a.logFile != nil {
		a.logger.Info("Begin logging in logs directory", "path", logPath)
	}
}

// setupBoard opens storage, loads the board and registers the commands.
func (a *app) setupBoard() error {
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, a.dbLog, a.logger)
	if err != nil {
		a.logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		a.logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	a.backend = backend
	if pg, ok := backend.(*pgstorage.Backend); ok && pg.FellBack() {
		a.logger.Warn("Postgres unreachable, storing board in SQLite", "path", storageCfg.SQLite.Path)
	} else {
		a.logger.Info("Storage backend initialized", "type", storageCfg.Type)
	}

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	a.service = handlers.NewService(handlers.Dependencies{
		Store: board.NewStore(backend,
			board.WithLogger(a.logger),
			board.WithSubstitutions(config.GetBool("board.substitutions")),
		),
		Renderer:   renderer,
		Previews:   cache.NewPreviewCache(),
		LogManager: a.slogManager,
		Gesture:    gesture.Config(config.GetGestureConfig()),
	})
	a.slogManager.WithContext(a.service.ContextAttrs)
	a.logger = a.slogManager.Logger()

	a.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(a.dbLog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.service.RegisterHandlers(a.dispatcher)
	a.logger.Debug("Handlers registered with dispatcher", "commands", len(a.dispatcher.Commands()))
	return nil
}

func (a *app) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var firstErr error
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
			firstErr = err
		}
		a.backend = nil
	}
	if err := a.slogManager.Flush(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Failed to flush logs: %v\n", err)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			fmt.Fprintf(a.stderr, "Failed to shut down OTel provider: %v\n", err)
		}
		a.otel = nil
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
	return firstErr
}

// run executes a command locally, or on the remote server when one is
// configured, and returns its JSON-encoded result.
func (a *app) run(ctx context.Context, command string, args ...string) (json.RawMessage, error) {
	if a.remote != nil {
		return a.remote.Command(ctx, command, args...)
	}
	result, err := a.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", command, err)
	}
	return data, nil
}

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		// PersistentPostRunE is skipped when a command fails.
		_ = a.teardown()
		os.Exit(1)
	}
}
