package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner blocks until cancelled unless told to fail after a delay.
type fakeRunner struct {
	name      string
	failAfter time.Duration
	failWith  error
	stopped   atomic.Bool
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Run(ctx context.Context) error {
	if f.failWith != nil {
		select {
		case <-time.After(f.failAfter):
			return f.failWith
		case <-ctx.Done():
			f.stopped.Store(true)
			return nil
		}
	}
	<-ctx.Done()
	f.stopped.Store(true)
	return nil
}

func TestSupervise_GracefulStop(t *testing.T) {
	t.Parallel()

	a := &fakeRunner{name: "sofia"}
	b := &fakeRunner{name: "alisa"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Supervise(ctx, []Runner{a, b}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
}

func TestSupervise_FailFastCancelsPeers(t *testing.T) {
	t.Parallel()

	boom := errors.New("listener exploded")
	healthy := &fakeRunner{name: "sofia"}
	failing := &fakeRunner{name: "alisa", failAfter: 30 * time.Millisecond, failWith: boom}

	err := Supervise(context.Background(), []Runner{healthy, failing})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "alisa")
	assert.True(t, healthy.stopped.Load(), "healthy peer must be cancelled")
}

// quietRunner returns nil immediately: a server loop that stopped on its
// own without anyone cancelling it.
type quietRunner struct{}

func (quietRunner) Name() string                { return "sofia" }
func (quietRunner) Run(_ context.Context) error { return nil }

func TestSupervise_UnexpectedCleanReturnIsCrash(t *testing.T) {
	t.Parallel()

	err := Supervise(context.Background(), []Runner{quietRunner{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped unexpectedly")
}

func TestSupervise_NoRunners(t *testing.T) {
	t.Parallel()
	require.Error(t, Supervise(context.Background(), nil))
}

func TestReadinessChecks(t *testing.T) {
	t.Parallel()

	okPing := pingFunc(func(context.Context) error { return nil })
	badPing := pingFunc(func(context.Context) error { return errors.New("down") })

	checks := ReadinessChecks(okPing, badPing)
	require.Len(t, checks, 2)
	assert.NoError(t, checks["db"](context.Background()))
	assert.Error(t, checks["qdrant"](context.Background()))

	checks = ReadinessChecks(nil, nil)
	assert.Error(t, checks["db"](context.Background()))
	assert.Error(t, checks["qdrant"](context.Background()))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
