package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiError "github.com/maratig/gcpause/api/error"
)

func TestRunPendingKeepsOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 10; i++ {
		l.Post(func() error {
			got = append(got, i)
			return nil
		})
	}
	require.Equal(t, 10, l.Len())

	assert.Equal(t, 10, l.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
	assert.Zero(t, l.Len())
	assert.Zero(t, l.RunPending())
}

func TestTaskPostedDuringRunWaits(t *testing.T) {
	l := New()
	ran := 0
	l.Post(func() error {
		l.Post(func() error {
			ran++
			return nil
		})
		return nil
	})

	assert.Equal(t, 1, l.RunPending())
	assert.Zero(t, ran)
	assert.Equal(t, 1, l.RunPending())
	assert.Equal(t, 1, ran)
}

func TestErrorDoesNotStopLoop(t *testing.T) {
	var errs []error
	l := New(WithErrorHandler(func(err error) { errs = append(errs, err) }))
	boom := errors.New("boom")
	ran := false

	l.Post(func() error { return boom })
	l.Post(func() error {
		ran = true
		return nil
	})

	assert.Equal(t, 2, l.RunPending())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.True(t, ran)
}

func TestPostNilIsIgnored(t *testing.T) {
	l := New()
	l.Post(nil)
	assert.Zero(t, l.Len())
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l := New()
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()

	var mx sync.Mutex
	var got []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		l.Post(func() error {
			mx.Lock()
			got = append(got, i)
			mx.Unlock()
			wg.Done()
			return nil
		})
	}
	wg.Wait()

	mx.Lock()
	assert.Equal(t, []int{0, 1, 2}, got)
	mx.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRunTwice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l := New()
	started := make(chan struct{})
	l.Post(func() error {
		close(started)
		return nil
	})
	go func() {
		_ = l.Run(ctx)
	}()
	<-started

	assert.ErrorIs(t, l.Run(ctx), apiError.ErrLoopRunning)
	assert.ErrorIs(t, l.Run(nil), apiError.ErrNilContext)
}

func TestPanickingTaskKeepsTheRestQueued(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 3; i++ {
		l.Post(func() error {
			if i == 1 {
				panic("task failed")
			}
			got = append(got, i)
			return nil
		})
	}

	assert.Panics(t, func() { l.RunPending() })
	assert.Equal(t, []int{0}, got)
	assert.Equal(t, 1, l.Len())

	assert.Equal(t, 1, l.RunPending())
	assert.Equal(t, []int{0, 2}, got)
	assert.Zero(t, l.Len())
}
