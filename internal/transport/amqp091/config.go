// Package amqp091 implements transport.Hooks for AMQP 0.9.1 connections
// (RabbitMQ and compatible brokers), adapted from the connection-manager
// and strategy patterns a production AMQP client needs: auto-reconnect
// with exponential backoff, NotifyClose-driven health, and a thin
// publish.Transport over the channel.
package amqp091

import (
	"errors"
	"time"
)

// Config holds the tunables every AMQP connection managed by this
// package shares.
type Config struct {
	Heartbeat                time.Duration
	ConnectionTimeout        time.Duration
	ReconnectTimeout         time.Duration
	ReconnectInitialInterval time.Duration
	ReconnectMaxInterval     time.Duration
	EnableAutoReconnect      bool
	EnablePublisherConfirms  bool
	PublishTimeout           time.Duration
}

// DefaultConfig returns production-safe defaults.
func DefaultConfig() Config {
	return Config{
		Heartbeat:                10 * time.Second,
		ConnectionTimeout:        30 * time.Second,
		ReconnectTimeout:         5 * time.Minute,
		ReconnectInitialInterval: time.Second,
		ReconnectMaxInterval:     30 * time.Second,
		EnableAutoReconnect:      true,
		EnablePublisherConfirms:  true,
		PublishTimeout:           5 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Heartbeat <= 0 {
		return errors.New("amqp091: heartbeat must be positive")
	}
	if c.ConnectionTimeout <= 0 {
		return errors.New("amqp091: connection timeout must be positive")
	}
	if c.ReconnectMaxInterval < c.ReconnectInitialInterval {
		return errors.New("amqp091: reconnect max interval must be >= initial interval")
	}
	return nil
}
