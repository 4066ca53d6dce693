package collector

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/timer"
)

type hookEvent struct {
	before bool
	typ    object.Type
	flags  object.Flags
	// elapsed is the clock reading at the epilogue
	elapsed float64
}

// hookLog records hook calls the way gcprof uses them: the prologue starts the collector's clock and the epilogue
// reads it
type hookLog struct {
	mx     sync.Mutex
	clock  timer.Clock
	events []hookEvent
}

func (l *hookLog) register(c interface {
	AddPrologueCallback(fn func())
	AddEpilogueCallback(fn func(object.Type, object.Flags))
	Clock() timer.Clock
}) {
	l.clock = c.Clock()
	c.AddPrologueCallback(func() {
		l.mx.Lock()
		defer l.mx.Unlock()

		l.clock.Start()
		l.events = append(l.events, hookEvent{before: true})
	})
	c.AddEpilogueCallback(func(typ object.Type, flags object.Flags) {
		l.mx.Lock()
		defer l.mx.Unlock()

		l.events = append(l.events, hookEvent{typ: typ, flags: flags, elapsed: l.clock.ElapsedMillis()})
	})
}

func (l *hookLog) get() []hookEvent {
	l.mx.Lock()
	defer l.mx.Unlock()

	return append([]hookEvent(nil), l.events...)
}

// epilogues returns epilogue events and checks every one of them is preceded by a prologue
func (l *hookLog) epilogues(t *testing.T) []hookEvent {
	t.Helper()

	var ret []hookEvent
	open := false
	for _, ev := range l.get() {
		if ev.before {
			require.False(t, open, "prologue fired twice")
			open = true
			continue
		}
		require.True(t, open, "epilogue without prologue")
		open = false
		ret = append(ret, ev)
	}

	return ret
}

func TestHooksIgnoreNil(t *testing.T) {
	m := NewManual()
	m.AddPrologueCallback(nil)
	m.AddEpilogueCallback(nil)
	assert.NotPanics(t, func() {
		m.Collect(object.TypeScavenge, object.FlagNone, nil)
	})
}

func TestHooksOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AddPrologueCallback(func() { got = append(got, "before 1") })
	m.AddPrologueCallback(func() { got = append(got, "before 2") })
	m.AddEpilogueCallback(func(object.Type, object.Flags) { got = append(got, "after 1") })
	m.AddEpilogueCallback(func(object.Type, object.Flags) { got = append(got, "after 2") })

	m.Collect(object.TypeScavenge, object.FlagNone, func() { got = append(got, "collect") })
	assert.Equal(t, []string{"before 1", "before 2", "collect", "after 1", "after 2"}, got)
}

func TestManual(t *testing.T) {
	clock := timer.NewReplay()
	m := NewManual(WithClock(clock))
	assert.Same(t, clock, m.Clock())

	l := &hookLog{}
	l.register(m)

	m.Collect(object.TypeScavenge, object.FlagSynchronous, nil)
	m.Before()
	m.After(object.TypeMarkSweepCompact, object.FlagNone)

	assert.Equal(t, []hookEvent{
		{typ: object.TypeScavenge, flags: object.FlagSynchronous},
		{typ: object.TypeMarkSweepCompact, flags: object.FlagNone},
	}, l.epilogues(t))
}

func TestForced(t *testing.T) {
	f := NewForced()
	l := &hookLog{}
	l.register(f)

	require.ErrorIs(t, f.Collect(nil), apiError.ErrNilContext)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.Collect(ctx), context.Canceled)
	assert.Empty(t, l.get())

	require.NoError(t, f.Collect(context.Background()))

	got := l.epilogues(t)
	require.Len(t, got, 1)
	assert.Equal(t, object.TypeMarkSweepCompact, got[0].typ)
	assert.Equal(t, object.FlagForced|object.FlagSynchronous, got[0].flags)
	assert.GreaterOrEqual(t, got[0].elapsed, 0.0)
}

func TestForcedReturnMemory(t *testing.T) {
	f := NewForced(WithReturnMemory())
	l := &hookLog{}
	l.register(f)

	require.NoError(t, f.Collect(context.Background()))
	assert.Len(t, l.epilogues(t), 1)
}

func TestOptions(t *testing.T) {
	o := newOptions(nil)
	assert.NotNil(t, o.log)
	assert.NotNil(t, o.clock)
	assert.Equal(t, defaultEndpointConnectionWait, o.endpointConnectionWait)
	assert.False(t, o.returnMemory)

	o = newOptions([]Option{WithEndpointConnectionWait(-1), WithClock(nil), WithLogger(nil)})
	assert.Equal(t, defaultEndpointConnectionWait, o.endpointConnectionWait)
	assert.NotNil(t, o.log)
	assert.NotNil(t, o.clock)

	o = newOptions([]Option{WithEndpointConnectionWait(5), WithReturnMemory()})
	assert.Equal(t, 5, o.endpointConnectionWait)
	assert.True(t, o.returnMemory)
}
