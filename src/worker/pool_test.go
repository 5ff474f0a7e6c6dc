package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDeliversResult(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	done := make(chan any, 1)
	ok := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 4.2, nil
	}, func(v any, err error) {
		assert.NoError(t, err)
		done <- v
	})

	require.True(t, ok)
	select {
	case v := <-done:
		assert.Equal(t, 4.2, v)
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	block := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}
	noop := func(any, error) {}

	require.True(t, p.Submit(context.Background(), block, noop))
	<-started
	require.True(t, p.Submit(context.Background(), func(context.Context) (any, error) { return nil, nil }, noop), "queue slot is free")
	assert.False(t, p.Submit(context.Background(), func(context.Context) (any, error) { return nil, nil }, noop), "queue slot is taken")
	close(release)
}

func TestDeadlineReturnsBeforeSlowTask(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	p.Submit(ctx, func(context.Context) (any, error) {
		time.Sleep(500 * time.Millisecond)
		return nil, nil
	}, func(_ any, err error) { errCh <- err })

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(250 * time.Millisecond):
		t.Fatal("deadline not honoured")
	}
}

func TestPanicBecomesError(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	errCh := make(chan error, 1)
	p.Submit(context.Background(), func(context.Context) (any, error) {
		panic("boom")
	}, func(_ any, err error) { errCh <- err })

	err := <-errCh
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "boom"))
}

func TestCloseTwice(t *testing.T) {
	p := New(2, nil)
	p.Close()
	p.Close()
}

func TestShutdownDoesNotWaitForStuckTask(t *testing.T) {
	p := New(1, nil)
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	p.Submit(context.Background(), func(context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, func(any, error) {})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
}

func TestShutdownDrainsFinishedWork(t *testing.T) {
	p := New(2, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Shutdown(ctx))
	p.Close()
}
