// Package otel builds the OpenTelemetry log pipeline: records bridged from
// slog are exported to the session log file and, when an endpoint is set,
// to an OTLP collector over HTTP.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoSink is returned when neither a writer nor an endpoint is configured.
var ErrNoSink = errors.New("otel: no log writer or endpoint configured")

type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration

	// LogWriter receives JSON records, usually the session log file.
	LogWriter io.Writer
	// Endpoint is an OTLP/HTTP host:port; empty disables remote export.
	Endpoint string
	Insecure bool
}

// Provider owns the log provider. The zero value, and a Provider created
// with Enabled=false, export nothing.
type Provider struct {
	logs *sdklog.LoggerProvider
}

func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	ctx := context.Background()
	exporters, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, exp := range exporters {
		opts = append(opts, sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout)),
		))
	}
	return &Provider{logs: sdklog.NewLoggerProvider(opts...)}, nil
}

func newExporters(ctx context.Context, cfg Config) ([]sdklog.Exporter, error) {
	var exporters []sdklog.Exporter

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter))
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if cfg.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if len(exporters) == 0 {
		return nil, ErrNoSink
	}
	return exporters, nil
}

// LoggerProvider is nil when export is disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logs
}

func (p *Provider) Enabled() bool {
	return p.logs != nil
}

// Shutdown flushes and stops every exporter. The Provider exports nothing
// afterwards.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logs == nil {
		return nil
	}
	err := p.logs.Shutdown(ctx)
	p.logs = nil
	if err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}
