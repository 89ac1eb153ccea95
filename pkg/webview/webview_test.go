package webview

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFacade(t *testing.T) (*Webview, *fakeEngine) {
	t.Helper()
	fake := newFakeEngine()
	return newFacade(fake, zerolog.Nop()), fake
}

func TestHandleFailsAfterClose(t *testing.T) {
	w, fake := newTestFacade(t)
	h := w.Handle()

	require.NoError(t, w.Close())
	before := len(fake.recorded())

	assert.ErrorIs(t, h.Terminate(), ErrClosed)
	assert.ErrorIs(t, h.Bind("fn", func(string, string) {}), ErrClosed)
	assert.ErrorIs(t, h.Unbind("fn"), ErrClosed)
	assert.ErrorIs(t, h.Return("1", 0, "{}"), ErrClosed)
	assert.ErrorIs(t, h.Dispatch(func(*View) {}), ErrClosed)
	_, err := h.Window()
	assert.ErrorIs(t, err, ErrClosed)

	// No operation reached the engine.
	assert.Len(t, fake.recorded(), before)
}

func TestHandleMirrorsOwner(t *testing.T) {
	w, fake := newTestFacade(t)
	h := w.Handle()

	require.NoError(t, h.Bind("greet", func(string, string) {}))
	require.NoError(t, h.Return("7", 0, `"ok"`))

	win, err := h.Window()
	require.NoError(t, err)
	assert.Equal(t, NativeWindow(42), win)

	calls := fake.recorded()
	assert.Contains(t, calls, "bind:greet")
	assert.Contains(t, calls, `return:7:0:"ok"`)
}

func TestHandleClonesUpgradeConcurrently(t *testing.T) {
	w, _ := newTestFacade(t)

	const n = 8
	handles := make([]*Handle, n)
	handles[0] = w.Handle()
	for i := 1; i < n; i++ {
		handles[i] = handles[i-1].Clone()
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h *Handle) {
			defer wg.Done()
			_, errs[i] = h.Window()
		}(i, h)
	}
	wg.Wait()
	for i := range errs {
		assert.NoError(t, errs[i], "clone %d", i)
	}

	require.NoError(t, w.Close())

	for i, h := range handles {
		_, err := h.Window()
		assert.ErrorIs(t, err, ErrClosed, "clone %d", i)
	}
}

func TestDispatchRunsExactlyOnce(t *testing.T) {
	w, fake := newTestFacade(t)

	var count int
	require.NoError(t, w.Dispatch(func(v *View) {
		require.NotNil(t, v)
		count++
	}))

	// Scheduled but not yet executed.
	assert.Equal(t, 0, count)

	fake.runJobs()
	assert.Equal(t, 1, count)

	// A second engine invocation of the same closure is dropped by the
	// single-shot guard.
	fake.mu.Lock()
	hasJobs := len(fake.jobs) != 0
	fake.mu.Unlock()
	assert.False(t, hasJobs)
}

func TestDispatchDoubleInvocationDropped(t *testing.T) {
	w, fake := newTestFacade(t)

	var count int
	require.NoError(t, w.Dispatch(func(*View) { count++ }))

	fake.mu.Lock()
	job := fake.jobs[0]
	fake.mu.Unlock()

	job()
	job()
	assert.Equal(t, 1, count)
}

func TestDispatchPanicPropagates(t *testing.T) {
	w, fake := newTestFacade(t)

	require.NoError(t, w.Dispatch(func(*View) { panic("boom") }))
	assert.Panics(t, func() { fake.runJobs() })
}

func TestDispatchViewReachesEngine(t *testing.T) {
	w, fake := newTestFacade(t)

	require.NoError(t, w.Dispatch(func(v *View) {
		assert.NoError(t, v.SetTitle("from closure"))
	}))
	fake.runJobs()
	assert.Contains(t, fake.recorded(), "title:from closure")
}

func TestBindRepeatableInvocations(t *testing.T) {
	w, fake := newTestFacade(t)

	type call struct{ seq, req string }
	var calls []call
	require.NoError(t, w.Bind("greet", func(seq, req string) {
		calls = append(calls, call{seq, req})
	}))

	w.cell.handleScriptMessage(`{"name":"greet","seq":"1","req":"\"Alice\""}`)
	w.cell.handleScriptMessage(`{"name":"greet","seq":"2","req":"\"Bob\""}`)

	require.Len(t, calls, 2)
	assert.Equal(t, call{"1", `"Alice"`}, calls[0])
	assert.Equal(t, call{"2", `"Bob"`}, calls[1])

	// Answering the first call does not disturb the registration.
	require.NoError(t, w.Return("1", 0, `"Hello Alice"`))
	w.cell.handleScriptMessage(`{"name":"greet","seq":"3","req":"\"Carol\""}`)
	require.Len(t, calls, 3)

	assert.Contains(t, fake.recorded(), `return:1:0:"Hello Alice"`)
}

func TestBindDuplicateLastWins(t *testing.T) {
	w, _ := newTestFacade(t)

	var first, second int
	require.NoError(t, w.Bind("fn", func(string, string) { first++ }))
	require.NoError(t, w.Bind("fn", func(string, string) { second++ }))

	w.cell.handleScriptMessage(`{"name":"fn","seq":"1","req":"[]"}`)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestUnbindStopsRouting(t *testing.T) {
	w, fake := newTestFacade(t)

	var count int
	require.NoError(t, w.Bind("greet", func(string, string) { count++ }))
	w.cell.handleScriptMessage(`{"name":"greet","seq":"1","req":"[]"}`)
	require.Equal(t, 1, count)

	require.NoError(t, w.Unbind("greet"))
	assert.Contains(t, fake.recorded(), "unbind:greet")

	// A call already in flight is dropped, not delivered.
	w.cell.handleScriptMessage(`{"name":"greet","seq":"2","req":"[]"}`)
	assert.Equal(t, 1, count)

	// Unbinding a name that was never bound is not an error.
	assert.NoError(t, w.Unbind("greet"))
	assert.ErrorIs(t, w.Unbind("1bad"), ErrInvalidName)
}

func TestBindInvalidName(t *testing.T) {
	w, _ := newTestFacade(t)

	for _, name := range []string{"", "1bad", "a-b", "a b", "no.dots"} {
		assert.ErrorIs(t, w.Bind(name, func(string, string) {}), ErrInvalidName, "name %q", name)
	}
	for _, name := range []string{"greet", "_private", "$jq", "snake_case", "v2"} {
		assert.NoError(t, w.Bind(name, func(string, string) {}), "name %q", name)
	}
}

func TestUnboundScriptCallIgnored(t *testing.T) {
	w, _ := newTestFacade(t)
	// Must not panic or reach the engine.
	w.cell.handleScriptMessage(`{"name":"nobody","seq":"1","req":"[]"}`)
	w.cell.handleScriptMessage(`not json`)
}

func TestHintOrdinals(t *testing.T) {
	assert.Equal(t, 0, int(HintNone))
	assert.Equal(t, 1, int(HintMin))
	assert.Equal(t, 2, int(HintMax))
	assert.Equal(t, 3, int(HintFixed))

	assert.Equal(t, "none", HintNone.String())
	assert.Equal(t, "fixed", HintFixed.String())
}

func TestSetSizeForwardsHint(t *testing.T) {
	w, fake := newTestFacade(t)
	for _, hint := range []Hint{HintNone, HintMin, HintMax, HintFixed} {
		require.NoError(t, w.SetSize(800, 600, hint))
	}
	calls := fake.recorded()
	for _, want := range []string{"size:800:600:0", "size:800:600:1", "size:800:600:2", "size:800:600:3"} {
		assert.Contains(t, calls, want)
	}
}

func TestNavigatePendingUntilRun(t *testing.T) {
	w, fake := newTestFacade(t)

	require.NoError(t, w.Navigate("https://example.test"))
	assert.NotContains(t, fake.recorded(), "navigate:https://example.test")

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	<-fake.runStarted

	// The pending target was handed to the loop.
	assert.Contains(t, fake.recorded(), "run:https://example.test")

	// A live session re-navigates immediately.
	require.NoError(t, w.Navigate("https://elsewhere.test"))
	assert.Contains(t, fake.recorded(), "navigate:https://elsewhere.test")

	w.Terminate()
	require.NoError(t, <-done)
}

func TestRunTerminatedFromHandle(t *testing.T) {
	w, fake := newTestFacade(t)
	require.NoError(t, w.Navigate("https://example.test"))

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	<-fake.runStarted

	require.NoError(t, w.Handle().Terminate())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Terminate")
	}

	// The engine was released exactly once, even with an extra Close.
	assert.Equal(t, 1, fake.destroys())
	require.NoError(t, w.Close())
	assert.Equal(t, 1, fake.destroys())

	// The owner group is gone for every subsequent operation.
	assert.ErrorIs(t, w.Handle().Terminate(), ErrClosed)
}

func TestRunAfterCloseFails(t *testing.T) {
	w, _ := newTestFacade(t)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Run(), ErrClosed)
}

func TestEncodingViolationRejected(t *testing.T) {
	w, fake := newTestFacade(t)

	assert.ErrorIs(t, w.Navigate("https://exa\x00mple.test"), ErrBadEncoding)
	assert.ErrorIs(t, w.SetTitle("ti\x00tle"), ErrBadEncoding)
	assert.ErrorIs(t, w.Eval("aler\x00t(1)"), ErrBadEncoding)
	assert.ErrorIs(t, w.Init("\x00"), ErrBadEncoding)
	assert.ErrorIs(t, w.Return("se\x00q", 0, "{}"), ErrBadEncoding)
	assert.ErrorIs(t, w.Return("1", 0, "\x00"), ErrBadEncoding)

	// Nothing reached the engine.
	assert.Empty(t, fake.recorded())
}

func TestCloseIdempotentAndConcurrent(t *testing.T) {
	w, fake := newTestFacade(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fake.destroys())
}

func TestConcurrentHandleOpsDuringClose(t *testing.T) {
	// Hammer handle operations while the owner closes; every call must
	// either succeed against the live engine or fail with ErrClosed,
	// never anything else.
	w, _ := newTestFacade(t)
	h := w.Handle()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := h.Return(fmt.Sprintf("%d-%d", i, j), 0, "{}"); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
				}
			}
		}(i)
	}
	require.NoError(t, w.Close())
	wg.Wait()
}
