package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName is the instrumentation scope of records bridged to OTel.
const ServiceName = "quadro"

// consoleOut is where records go when no log file is open. Stdout is left
// to command output.
var consoleOut io.Writer = os.Stderr

// SlogManager owns the process logger. Setup may be called again once the
// log file is known; WithContext layers board attributes on top.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel accepts slog level names in any case ("debug", "WARN",
// "INFO+2"). Anything else is INFO.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// utcTime renders record times as RFC3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup replaces the logger. Text records go to file, or to the console
// when file is nil; a non-nil provider also receives every record.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	out := file
	if out == nil {
		out = consoleOut
	}

	m.logProvider = provider
	m.logger = slog.New(NewMultiHandler(
		slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: utcTime}),
		m.otelHandler(),
	))
	m.logger.Debug("Logging initialized", "level", level, "otel", provider != nil)
}

func (m *SlogManager) otelHandler() slog.Handler {
	if m.logProvider == nil {
		return nil
	}
	return otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(m.logProvider))
}

// WithContext wraps the current logger so every record carries the
// attributes returned by provider.
func (m *SlogManager) WithContext(provider ContextProvider) {
	m.logger = slog.New(NewContextHandler(m.Logger().Handler(), provider))
}

// Logger returns slog.Default until Setup has run.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush exports records still buffered for OTel.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}
