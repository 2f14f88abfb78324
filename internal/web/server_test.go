package web

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfig_WriteTimeoutOutlastsPipeline(t *testing.T) {
	cfg := DefaultServerConfig(5 * time.Minute)

	assert.Greater(t, cfg.WriteTimeout, 5*time.Minute)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
}

func TestNewServer_DefaultAddr(t *testing.T) {
	s := NewServer("", NewRouter(RouterConfig{}), DefaultServerConfig(time.Minute))

	assert.Equal(t, ":10080", s.Addr())
	assert.NotNil(t, s.Handler())
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServer_RunServesUntilCancelled(t *testing.T) {
	addr := freeAddr(t)
	s := NewServer(addr, NewRouter(RouterConfig{}), DefaultServerConfig(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_RunReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	s := NewServer(l.Addr().String(), NewRouter(RouterConfig{}), DefaultServerConfig(time.Second))
	assert.Error(t, s.Run(context.Background()))
}
