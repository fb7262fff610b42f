// Command connectivityd is the connectivity-core process entrypoint: it
// wires configuration, observability, the transport Router, the
// supervisor and the diagnostic HTTP surface together, then blocks until
// an OS signal or a fatal startup error, following the same triple-select
// lifecycle as pkg/consumer/lifecycle.go and pkg/http_server/chi_server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/client"
	"github.com/eclipse-ditto-go/connectivity-core/internal/config"
	"github.com/eclipse-ditto-go/connectivity-core/internal/health"
	"github.com/eclipse-ditto-go/connectivity-core/internal/httpapi"
	"github.com/eclipse-ditto-go/connectivity-core/internal/mapping"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability/otelobs"
	"github.com/eclipse-ditto-go/connectivity-core/internal/supervisor"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport/amqp091"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport/httppush"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport/kafka"
	"github.com/eclipse-ditto-go/connectivity-core/internal/workerpool"
)

func main() {
	serviceName := flag.String("service-name", "connectivity-core", "service name reported in telemetry")
	httpAddr := flag.String("http-addr", "", "diagnostic HTTP listen address (overrides config default)")
	flag.Parse()

	cfg := config.DefaultConfig()
	cfg.ServiceName = *serviceName
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	o11yCfg := otelobs.DefaultConfig(cfg.ServiceName)
	o11yCfg.ServiceVersion = cfg.ServiceVersion
	o11yCfg.Environment = cfg.Environment
	provider, err := otelobs.NewProvider(ctx, o11yCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize observability:", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	if err := run(ctx, cfg, provider); err != nil {
		provider.Logger().Error(ctx, "connectivity-core exited with error", observability.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, o11y observability.Observability) error {
	metricsRegistry := metrics.NewRegistry(cfg.MetricsWindows)
	workers := workerpool.New(cfg.WorkerPoolSize)
	defer workers.Stop()

	router := transport.NewRouter(map[model.ConnectionType]transport.Hooks{
		model.ConnectionTypeHTTPPush: httppush.NewHooks(o11y),
		model.ConnectionTypeAMQP091:  amqp091.NewHooks(amqp091.DefaultConfig(), o11y),
		model.ConnectionTypeKafka:    kafka.NewHooks(o11y),
	})

	deps := client.Deps{
		Hooks:                  router,
		MapperFactory:          mapping.NewIdentityFactory(),
		MapperRuntime:          mapping.FixedRuntime{Max: 1},
		Registry:               metricsRegistry,
		Replier:                discardReplier{},
		Observability:          o11y,
		Workers:                workers,
		TCPPrecheckTimeout:     cfg.TCPPrecheckTimeout,
		StateTimeout:           cfg.StateTimeout,
		RetrieveMetricsTimeout: cfg.RetrieveMetricsTimeout,
	}
	super := supervisor.New(deps, cfg, o11y)

	healthRegistry := health.NewRegistry(o11y)
	healthRegistry.Register("supervisor", func(ctx context.Context) error { return nil })

	httpServer := httpapi.New(cfg.HTTPAddr, healthRegistry, 5*time.Second, metricsRegistry, o11y)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(sigCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	o11y.Logger().Info(ctx, "connectivity-core started",
		observability.String("http_addr", cfg.HTTPAddr))

	select {
	case err := <-httpErr:
		return shutdown(o11y, cfg, super, err)
	case <-sigCtx.Done():
		o11y.Logger().Info(ctx, "shutdown signal received")
		return shutdown(o11y, cfg, super, nil)
	}
}

func shutdown(o11y observability.Observability, cfg config.Config, super *supervisor.Supervisor, cause error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := super.Shutdown(shutdownCtx); err != nil {
		o11y.Logger().Error(shutdownCtx, "supervisor shutdown did not complete cleanly", observability.Error(err))
		if cause == nil {
			cause = err
		} else {
			cause = errors.Join(cause, err)
		}
	}
	return cause
}

// discardReplier is the default Replier until a real signal-bus adapter
// is wired in; the concrete bus is an external collaborator outside this
// module's scope.
type discardReplier struct{}

func (discardReplier) Reply(origin model.Origin, headers map[string]string, reply any) {}
