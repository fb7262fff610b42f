// Package supervisor generalizes pkg/consumer.Server's single-process
// lifecycle (sync.Once-guarded Shutdown, OS-signal handling, sync/atomic
// running flag) into a registry of goroutine-backed client.BaseClient
// instances, one per Connection, keyed by connection id.
// Restart-on-failure uses the same exponential-backoff shape the AMQP
// connectionManager's own reconnect loop uses.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/eclipse-ditto-go/connectivity-core/internal/client"
	"github.com/eclipse-ditto-go/connectivity-core/internal/config"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/notify"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// Supervisor owns every BaseClient in the process, keyed by connection
// id, and restarts a connection that transitions to FAILED.
type Supervisor struct {
	deps     client.Deps
	config   config.Config
	o11y     observability.Observability
	notifier *notify.Dispatcher

	mu      sync.RWMutex
	clients map[string]*entry

	shutdownOnce sync.Once
}

type entry struct {
	client     *client.BaseClient
	cancelSelf context.CancelFunc
}

// New builds a Supervisor. deps is shared across every client it
// creates — only Connection-specific state lives on the BaseClient
// itself.
func New(deps client.Deps, cfg config.Config, o11y observability.Observability) *Supervisor {
	return &Supervisor{
		deps:     deps,
		config:   cfg,
		o11y:     o11y,
		notifier: notify.NewDispatcher(),
		clients:  make(map[string]*entry),
	}
}

// Notifications returns the dispatcher connection status changes are
// published through. Callers register notify.Handler instances against
// notify.ConnectionStatusChangedType.
func (s *Supervisor) Notifications() *notify.Dispatcher {
	return s.notifier
}

// Dispatch routes cmd to the BaseClient for connectionID, creating one
// lazily on first use. The supervisor is purely addressing glue — the
// state machine owns all behavior.
func (s *Supervisor) Dispatch(connectionID string, cmd client.Command) {
	c := s.getOrCreate(connectionID)
	c.Send(cmd)
}

func (s *Supervisor) getOrCreate(connectionID string) *client.BaseClient {
	s.mu.RLock()
	e, ok := s.clients[connectionID]
	s.mu.RUnlock()
	if ok {
		return e.client
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.clients[connectionID]; ok {
		return e.client
	}

	c := client.New(connectionID, s.deps)
	ctx, cancel := context.WithCancel(context.Background())
	s.clients[connectionID] = &entry{client: c, cancelSelf: cancel}
	go s.watchForFailure(ctx, connectionID, c)
	return c
}

// Remove stops and forgets the client for connectionID, e.g. once
// DeleteConnection has fully drained.
func (s *Supervisor) Remove(connectionID string) {
	s.mu.Lock()
	e, ok := s.clients[connectionID]
	delete(s.clients, connectionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	e.cancelSelf()
	e.client.Stop()
}

// Connections returns the connection ids currently supervised.
func (s *Supervisor) Connections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	return ids
}

// watchForFailure polls the client's observed status and, on FAILED,
// retries OpenConnection with exponential backoff until it recovers or
// the client is removed.
func (s *Supervisor) watchForFailure(ctx context.Context, connectionID string, c *client.BaseClient) {
	const pollInterval = 200 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var restarting bool
	var nextAttempt time.Time
	var lastStatus model.Status
	backoffState := backoff.NewExponentialBackOff()
	backoffState.InitialInterval = s.config.RestartInitialInterval
	backoffState.MaxInterval = s.config.RestartMaxInterval
	backoffState.MaxElapsedTime = s.config.RestartTimeout

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data := c.Data()
		if data.ConnectionID == "" {
			continue // client already stopped
		}

		if data.ObservedStatus != lastStatus {
			previous := lastStatus
			lastStatus = data.ObservedStatus
			if previous != "" {
				if err := s.notifier.Dispatch(ctx, notify.ConnectionStatusChanged{
					ConnectionID: connectionID,
					From:         previous,
					To:           data.ObservedStatus,
				}); err != nil {
					s.o11y.Logger().Warn(ctx, "connection status notification handler failed",
						observability.String("connection_id", connectionID), observability.Error(err))
				}
			}
		}

		if data.ObservedStatus != model.StatusFailed || data.DesiredStatus != model.StatusOpen {
			if restarting {
				restarting = false
				backoffState.Reset()
			}
			continue
		}

		if !restarting {
			restarting = true
			backoffState.Reset()
			nextAttempt = time.Now().Add(backoffState.NextBackOff())
		}
		if time.Now().Before(nextAttempt) {
			continue
		}

		next := backoffState.NextBackOff()
		if next == backoff.Stop {
			s.o11y.Logger().Error(ctx, "giving up restarting connection after exhausting backoff",
				observability.String("connection_id", connectionID))
			restarting = false
			continue
		}

		s.o11y.Logger().Info(ctx, "restarting failed connection",
			observability.String("connection_id", connectionID))
		c.Send(client.NewOpenConnection(model.Origin{}, nil))
		nextAttempt = time.Now().Add(next)
	}
}

// Shutdown stops every supervised client concurrently, bounded by
// config.ShutdownTimeout.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		entries := make([]*entry, 0, len(s.clients))
		for _, e := range s.clients {
			entries = append(entries, e)
		}
		s.clients = make(map[string]*entry)
		s.mu.Unlock()

		done := make(chan struct{})
		go func() {
			var wg sync.WaitGroup
			for _, e := range entries {
				wg.Add(1)
				go func(e *entry) {
					defer wg.Done()
					e.cancelSelf()
					e.client.Stop()
				}(e)
			}
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			s.o11y.Logger().Info(ctx, "all supervised clients stopped")
		case <-time.After(s.config.ShutdownTimeout):
			shutdownErr = context.DeadlineExceeded
			s.o11y.Logger().Warn(ctx, "shutdown timeout exceeded waiting for clients to stop")
		}
	})
	return shutdownErr
}
