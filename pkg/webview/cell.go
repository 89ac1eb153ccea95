package webview

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// cell is the state shared between the owning Webview and any number
// of derived Handles and Views. The Webview is the single designated
// owner: only its Close releases the engine. Everything else merely
// upgrades (read lock plus closed check) for the duration of one call,
// so teardown happens-after every in-flight operation and before any
// later upgrade can succeed.
type cell struct {
	log zerolog.Logger
	id  string

	mu       sync.RWMutex
	engine   Engine
	closed   bool
	running  bool
	pending  string // pending navigation target
	bindings map[string]BindFunc
}

// do upgrades to the live engine and runs op under the read lock. This
// is the only path through which facade calls reach the engine.
func (c *cell) do(op func(Engine) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return op(c.engine)
}

// close tears the cell down: request loop exit, mark closed, release
// the engine. Callers guard it with a sync.Once so the engine is
// destroyed exactly once.
func (c *cell) close() error {
	c.mu.RLock()
	eng := c.engine
	closed := c.closed
	c.mu.RUnlock()
	if closed || eng == nil {
		return nil
	}

	// Ask a still-running loop to exit before taking the write lock,
	// otherwise close would wait on Run forever.
	eng.Terminate()

	c.mu.Lock()
	c.closed = true
	c.engine = nil
	c.bindings = nil
	c.mu.Unlock()

	if err := eng.Destroy(); err != nil {
		c.log.Warn().Err(err).Msg("engine destroy failed")
		return err
	}
	c.log.Debug().Msg("webview closed")
	return nil
}

func (c *cell) terminate() error {
	return c.do(func(e Engine) error {
		e.Terminate()
		return nil
	})
}

func (c *cell) navigate(url string) error {
	if err := checkArg("url", url); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending = url
	running := c.running
	c.mu.Unlock()
	if !running {
		return nil
	}
	return c.do(func(e Engine) error { return e.Navigate(url) })
}

func (c *cell) setTitle(title string) error {
	if err := checkArg("title", title); err != nil {
		return err
	}
	return c.do(func(e Engine) error { return e.SetTitle(title) })
}

func (c *cell) setSize(width, height int, hint Hint) error {
	return c.do(func(e Engine) error { return e.SetSize(width, height, hint) })
}

func (c *cell) initScript(js string) error {
	if err := checkArg("js", js); err != nil {
		return err
	}
	return c.do(func(e Engine) error { return e.Init(js) })
}

func (c *cell) eval(js string) error {
	if err := checkArg("js", js); err != nil {
		return err
	}
	return c.do(func(e Engine) error { return e.Eval(js) })
}

// bind registers fn under name. The entry is long-lived: it stays
// callable across invocations and is released when the owner closes.
// A duplicate registration replaces the previous callback.
func (c *cell) bind(name string, fn BindFunc) error {
	if !validBindingName(name) {
		return ErrInvalidName
	}
	if fn == nil {
		return errors.New("webview: nil bind callback")
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.bindings[name] = fn
	c.mu.Unlock()
	return c.do(func(e Engine) error { return e.Bind(name) })
}

// unbind removes the registration for name and the page-side shim. A
// script call already in flight finds no callback and is dropped.
func (c *cell) unbind(name string) error {
	if !validBindingName(name) {
		return ErrInvalidName
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	delete(c.bindings, name)
	c.mu.Unlock()
	return c.do(func(e Engine) error { return e.Unbind(name) })
}

func (c *cell) ret(seq string, status int, result string) error {
	if err := checkArg("seq", seq); err != nil {
		return err
	}
	if err := checkArg("result", result); err != nil {
		return err
	}
	return c.do(func(e Engine) error { return e.Return(seq, status, result) })
}

// dispatch schedules fn to run exactly once on the engine's own
// execution context. The single-shot guard makes an engine that
// invokes the closure twice drop the second call instead of corrupting
// the closure's state. A panic inside fn is not recovered here; it
// propagates on the engine's loop goroutine.
func (c *cell) dispatch(fn func(*View)) error {
	if fn == nil {
		return errors.New("webview: nil dispatch closure")
	}
	return c.do(func(e Engine) error {
		var fired atomic.Bool
		return e.Dispatch(func() {
			if !fired.CompareAndSwap(false, true) {
				c.log.Warn().Msg("dispatch closure invoked more than once; dropping")
				return
			}
			// The View borrows the cell; letting it go out of scope
			// releases nothing.
			fn(&View{cell: c})
		})
	})
}

func (c *cell) window() (NativeWindow, error) {
	var win NativeWindow
	err := c.do(func(e Engine) error {
		var err error
		win, err = e.Window()
		return err
	})
	return win, err
}

// handleScriptMessage is the engines' script-message sink. It routes
// one raw bind envelope to the registered callback. The callback stays
// registered afterwards.
func (c *cell) handleScriptMessage(raw string) {
	env, err := decodeBindEnvelope(raw)
	if err != nil {
		c.log.Debug().Err(err).Msg("discarding malformed script message")
		return
	}
	c.mu.RLock()
	fn := c.bindings[env.Name]
	c.mu.RUnlock()
	if fn == nil {
		c.log.Debug().Str("name", env.Name).Msg("script call for unbound function")
		return
	}
	fn(env.Seq, env.Req)
}
