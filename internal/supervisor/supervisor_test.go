package supervisor

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

type mockHTTPServer struct {
	listenErr error
	started   chan struct{}
	stopCh    chan struct{}
	shutdowns atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	close(m.stopCh)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newMockHTTPServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.Equal(t, int32(1), srv.shutdowns.Load())
	assert.Equal(t, "http-server", svc.String())
}

func TestHTTPServiceListenFailure(t *testing.T) {
	srv := newMockHTTPServer()
	srv.listenErr = errors.New("address in use")

	err := NewHTTPService(srv, 0).Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
	assert.Zero(t, srv.shutdowns.Load())
}

type countingService struct {
	runs atomic.Int32
}

func (c *countingService) Serve(ctx context.Context) error {
	c.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (c *countingService) String() string { return "counting" }

func TestTreeRunsServices(t *testing.T) {
	tree := NewTree(TreeConfig{ShutdownTimeout: time.Second})
	api, job := &countingService{}, &countingService{}
	tree.AddAPIService(api)
	tree.AddJobService(job)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return api.runs.Load() == 1 && job.runs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestEventHookLogsPanics(t *testing.T) {
	var buf bytes.Buffer
	hook := EventHook(zerolog.New(&buf))

	hook(suture.EventServicePanic{
		SupervisorName: "jobs-layer",
		ServiceName:    "vip-sweeper",
		PanicMsg:       "boom",
	})
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "vip-sweeper")
}
