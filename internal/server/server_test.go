package server_test

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/repository/memory"
	"github.com/sakif/bookreview/internal/server"
)

func newTestServer(t *testing.T, addr string) *server.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := catalog.New(memory.New(), catalog.WithLogger(logger))
	return server.New(server.Config{Addr: addr}, store, logger)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, ":0")

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/healthz", http.StatusOK},
		{"/api/books", http.StatusOK},
		{"/api/books/popular", http.StatusOK},
		{"/api/books/missing", http.StatusNotFound},
		{"/api/genres", http.StatusOK},
		{"/api/reviews/recent", http.StatusOK},
		{"/api/stats", http.StatusOK},
		{"/api/users/missing/stats", http.StatusNotFound},
		{"/api/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRoutes_ReadOnly(t *testing.T) {
	srv := newTestServer(t, ":0")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/books", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	// Reserve a free port, then hand it to the server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	srv := newTestServer(t, addr)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

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
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
