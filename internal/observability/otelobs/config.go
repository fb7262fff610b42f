// Package otelobs is the production observability.Observability
// implementation: OpenTelemetry tracing, zap structured logging and
// Prometheus-backed metrics instruments, following the same shape as
// pkg/observability/otel's provider and pkg/logger's zap config.
package otelobs

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// OTLPProtocol selects the wire protocol used to export traces.
type OTLPProtocol string

const (
	ProtocolGRPC OTLPProtocol = "grpc"
	ProtocolHTTP OTLPProtocol = "http"
)

// Config configures the otelobs Provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	OTLPEndpoint string
	OTLPProtocol OTLPProtocol
	Insecure     bool

	TraceSampleRate float64
	LogLevel        observability.LogLevel
	LogFormat       observability.LogFormat
}

// DefaultConfig returns sane defaults: console-friendly JSON logging,
// always-sample tracing, no OTLP endpoint configured (traces stay local
// until one is set).
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:     serviceName,
		ServiceVersion:  "unknown",
		Environment:     "development",
		OTLPProtocol:    ProtocolGRPC,
		TraceSampleRate: 1.0,
		LogLevel:        observability.LogLevelInfo,
		LogFormat:       observability.LogFormatJSON,
	}
}

// Provider wires a Tracer, a zap-backed Logger and a Prometheus-backed
// Metrics recorder behind the observability.Observability facade.
type Provider struct {
	cfg            Config
	tracerProvider *sdktrace.TracerProvider
	tracer         *tracerAdapter
	logger         *zapLogger
	metrics        *promMetrics
}

// NewProvider builds a Provider. It never fails on a missing OTLP
// endpoint — traces are then simply recorded and dropped at flush time,
// which keeps local development and tests working without a collector.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithHost(),
		resource.WithProcessPID(),
	)
	if err != nil {
		return nil, fmt.Errorf("otelobs: build resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TraceSampleRate)),
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := newTraceExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("otelobs: build trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	logger, err := newZapLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("otelobs: build logger: %w", err)
	}

	return &Provider{
		cfg:            cfg,
		tracerProvider: tracerProvider,
		tracer:         &tracerAdapter{tracer: tracerProvider.Tracer(cfg.ServiceName)},
		logger:         logger,
		metrics:        newPromMetrics(cfg.ServiceName),
	}, nil
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.metrics }

// Registry exposes the underlying Prometheus registry so cmd/connectivityd
// can mount promhttp.HandlerFor(p.Registry(), ...) on /metrics.
func (p *Provider) Registry() *prometheus.Registry { return p.metrics.registry }

// Shutdown flushes the tracer provider. Safe to call multiple times.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("otelobs: shutdown tracer provider: %w", err)
	}
	return p.logger.sync()
}

func newTraceExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.OTLPProtocol == ProtocolHTTP {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func zapLevel(level observability.LogLevel) zapcore.Level {
	switch level {
	case observability.LogLevelDebug:
		return zap.DebugLevel
	case observability.LogLevelWarn:
		return zap.WarnLevel
	case observability.LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func newZapLogger(cfg Config) (*zapLogger, error) {
	hostname, _ := os.Hostname()

	encoding := "json"
	if cfg.LogFormat == observability.LogFormatText {
		encoding = "console"
	}

	zcfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(zapLevel(cfg.LogLevel)),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]any{
			"service.name":    cfg.ServiceName,
			"service.version": cfg.ServiceVersion,
			"environment":     cfg.Environment,
			"host.name":       hostname,
		},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			TimeKey:      "time",
			LevelKey:     "severity",
			NameKey:      "logger",
			CallerKey:    "caller",
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	base, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{logger: base}, nil
}
