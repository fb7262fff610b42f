package amqp091

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

var (
	ErrClientClosed = errors.New("amqp091: client is closed")
	ErrNoConnection = errors.New("amqp091: no active connection")
)

// connectionManager owns one broker connection/channel pair and, when
// EnableAutoReconnect is set, watches NotifyClose and reconnects with
// exponential backoff until closed.
type connectionManager struct {
	uri    model.URI
	creds  model.Credentials
	config Config
	o11y   observability.Observability

	mu             sync.RWMutex
	conn           *amqp.Connection
	channel        *amqp.Channel
	isConnected    bool
	isReconnecting bool
	closed         bool

	closeChan chan struct{}
	closeOnce sync.Once

	watcherCancel context.CancelFunc
}

func newConnectionManager(uri model.URI, creds model.Credentials, config Config, o11y observability.Observability) *connectionManager {
	return &connectionManager{
		uri:       uri,
		creds:     creds,
		config:    config,
		o11y:      o11y,
		closeChan: make(chan struct{}),
	}
}

func (cm *connectionManager) dialURL() string {
	scheme := "amqp"
	if cm.creds.UseTLS {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", scheme, cm.creds.Username, cm.creds.Password, cm.uri.Host, cm.uri.Port, cm.creds.VHost)
}

func (cm *connectionManager) dial() (*amqp.Connection, error) {
	amqpConfig := amqp.Config{
		Heartbeat: cm.config.Heartbeat,
		Locale:    "en_US",
	}
	if cm.creds.UseTLS {
		amqpConfig.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return amqp.DialConfig(cm.dialURL(), amqpConfig)
}

func (cm *connectionManager) connect(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		return ErrClientClosed
	}
	if cm.isConnected {
		return nil
	}

	cm.o11y.Logger().Info(ctx, "connecting to AMQP broker",
		observability.String("host", cm.uri.Host), observability.Int("port", cm.uri.Port))

	conn, err := cm.dial()
	if err != nil {
		return fmt.Errorf("amqp091: dial failed: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp091: channel open failed: %w", err)
	}

	if cm.config.EnablePublisherConfirms {
		if err := channel.Confirm(false); err != nil {
			_ = channel.Close()
			_ = conn.Close()
			return fmt.Errorf("amqp091: publisher confirms failed: %w", err)
		}
	}

	cm.conn = conn
	cm.channel = channel
	cm.isConnected = true

	cm.o11y.Logger().Info(ctx, "connected to AMQP broker",
		observability.String("host", cm.uri.Host), observability.Int("port", cm.uri.Port))

	if cm.config.EnableAutoReconnect {
		if cm.watcherCancel != nil {
			cm.watcherCancel()
		}
		watcherCtx, cancel := context.WithCancel(context.Background())
		cm.watcherCancel = cancel
		go cm.watchConnection(watcherCtx)
	}
	return nil
}

func (cm *connectionManager) watchConnection(ctx context.Context) {
	cm.mu.RLock()
	if cm.closed || cm.conn == nil {
		cm.mu.RUnlock()
		return
	}
	connClose := cm.conn.NotifyClose(make(chan *amqp.Error, 1))
	chanClose := cm.channel.NotifyClose(make(chan *amqp.Error, 1))
	cm.mu.RUnlock()

	select {
	case err := <-connClose:
		if err != nil {
			cm.o11y.Logger().Warn(ctx, "amqp connection closed unexpectedly", observability.Error(err))
			cm.triggerReconnect(ctx)
		}
	case err := <-chanClose:
		if err != nil {
			cm.o11y.Logger().Warn(ctx, "amqp channel closed unexpectedly", observability.Error(err))
			cm.triggerReconnect(ctx)
		}
	case <-cm.closeChan:
	case <-ctx.Done():
	}
}

func (cm *connectionManager) triggerReconnect(ctx context.Context) {
	cm.mu.Lock()
	if cm.closed || cm.isReconnecting {
		cm.mu.Unlock()
		return
	}
	cm.isConnected = false
	cm.isReconnecting = true
	cm.mu.Unlock()

	go cm.reconnect(ctx)
}

func (cm *connectionManager) reconnect(ctx context.Context) {
	defer func() {
		cm.mu.Lock()
		cm.isReconnecting = false
		cm.mu.Unlock()
	}()

	cm.o11y.Logger().Info(ctx, "starting amqp reconnection")

	backoffConfig := backoff.NewExponentialBackOff()
	backoffConfig.InitialInterval = cm.config.ReconnectInitialInterval
	backoffConfig.MaxInterval = cm.config.ReconnectMaxInterval
	backoffConfig.MaxElapsedTime = cm.config.ReconnectTimeout

	operation := func() error {
		select {
		case <-cm.closeChan:
			return backoff.Permanent(ErrClientClosed)
		default:
		}

		conn, err := cm.dial()
		if err != nil {
			cm.o11y.Logger().Warn(ctx, "amqp reconnect attempt failed", observability.Error(err))
			return err
		}
		channel, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return err
		}
		if cm.config.EnablePublisherConfirms {
			if err := channel.Confirm(false); err != nil {
				_ = channel.Close()
				_ = conn.Close()
				return err
			}
		}

		cm.mu.Lock()
		cm.conn = conn
		cm.channel = channel
		cm.isConnected = true
		if cm.watcherCancel != nil {
			cm.watcherCancel()
		}
		watcherCtx, cancel := context.WithCancel(context.Background())
		cm.watcherCancel = cancel
		cm.mu.Unlock()

		cm.o11y.Logger().Info(ctx, "amqp reconnected successfully")
		go cm.watchConnection(watcherCtx)
		return nil
	}

	if err := backoff.Retry(operation, backoffConfig); err != nil {
		cm.o11y.Logger().Error(ctx, "amqp reconnection exhausted retries", observability.Error(err))
	}
}

func (cm *connectionManager) getChannel() (*amqp.Channel, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.closed {
		return nil, ErrClientClosed
	}
	if !cm.isConnected {
		return nil, ErrNoConnection
	}
	return cm.channel, nil
}

func (cm *connectionManager) close(ctx context.Context) error {
	var closeErr error
	cm.closeOnce.Do(func() {
		cm.mu.Lock()
		defer cm.mu.Unlock()

		if cm.watcherCancel != nil {
			cm.watcherCancel()
			cm.watcherCancel = nil
		}
		cm.closed = true
		close(cm.closeChan)

		if cm.channel != nil {
			if err := cm.channel.Close(); err != nil {
				closeErr = err
			}
		}
		if cm.conn != nil {
			if err := cm.conn.Close(); err != nil && closeErr == nil {
				closeErr = err
			}
		}
		cm.isConnected = false
	})
	return closeErr
}
