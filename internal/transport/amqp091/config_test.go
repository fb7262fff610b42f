package amqp091

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().validate())
}

func TestConfig_ValidateRejectsInvertedReconnectBounds(t *testing.T) {
	c := DefaultConfig()
	c.ReconnectMaxInterval = c.ReconnectInitialInterval - 1
	require.Error(t, c.validate())
}

func TestConfig_ValidateRejectsNonPositiveHeartbeat(t *testing.T) {
	c := DefaultConfig()
	c.Heartbeat = 0
	require.Error(t, c.validate())
}
