package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-ditto-go/connectivity-core/internal/client"
	"github.com/eclipse-ditto-go/connectivity-core/internal/config"
	"github.com/eclipse-ditto-go/connectivity-core/internal/mapping"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability/noop"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
	"github.com/eclipse-ditto-go/connectivity-core/internal/workerpool"
)

type fakeHooks struct{}

func (fakeHooks) DoConnect(ctx context.Context, conn model.Connection) error    { return nil }
func (fakeHooks) DoDisconnect(ctx context.Context, conn model.Connection) error { return nil }
func (fakeHooks) DoTestConnection(ctx context.Context, conn model.Connection) error {
	return nil
}
func (fakeHooks) GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error) {
	return map[string]*publish.Pipeline{}, nil
}

type discardReplier struct{}

func (discardReplier) Reply(origin model.Origin, headers map[string]string, reply any) {}

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	pool := workerpool.New(2)
	t.Cleanup(pool.Stop)

	deps := client.Deps{
		Hooks:                  fakeHooks{},
		MapperFactory:          mapping.NewIdentityFactory(),
		Registry:               metrics.NewRegistry([]time.Duration{time.Minute}),
		Replier:                discardReplier{},
		Observability:          noop.NewProvider(),
		Workers:                pool,
		TCPPrecheckTimeout:     50 * time.Millisecond,
		StateTimeout:           time.Second,
		RetrieveMetricsTimeout: time.Second,
	}
	cfg := config.DefaultConfig()
	cfg.ShutdownTimeout = time.Second
	return New(deps, cfg, noop.NewProvider())
}

func TestSupervisor_DispatchCreatesClientLazily(t *testing.T) {
	s := newTestSupervisor(t)
	s.Dispatch("conn-1", client.NewRetrieveConnectionMetrics(model.Origin{}, nil))

	require.Eventually(t, func() bool {
		return len(s.Connections()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSupervisor_RemoveStopsClient(t *testing.T) {
	s := newTestSupervisor(t)
	s.Dispatch("conn-1", client.NewRetrieveConnectionMetrics(model.Origin{}, nil))
	require.Eventually(t, func() bool { return len(s.Connections()) == 1 }, time.Second, 10*time.Millisecond)

	s.Remove("conn-1")
	require.Empty(t, s.Connections())
}

func TestSupervisor_ShutdownStopsEveryClient(t *testing.T) {
	s := newTestSupervisor(t)
	s.Dispatch("conn-1", client.NewRetrieveConnectionMetrics(model.Origin{}, nil))
	s.Dispatch("conn-2", client.NewRetrieveConnectionMetrics(model.Origin{}, nil))

	err := s.Shutdown(context.Background())
	require.NoError(t, err)
	require.Empty(t, s.Connections())
}
