package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability/noop"
)

func TestNewObservableClient_RequiresObservability(t *testing.T) {
	client, err := NewObservableClient(nil)
	require.Error(t, err)
	require.Nil(t, client)
}

func TestNewObservableClient_AppliesOptions(t *testing.T) {
	client, err := NewObservableClient(noop.NewProvider(), WithClientTimeout(0))
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, client.timeout)
}

func TestObservableClient_DoRoundTripsThroughInstrumentation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewObservableClient(noop.NewProvider())
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
