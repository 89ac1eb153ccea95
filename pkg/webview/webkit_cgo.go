//go:build webkit_cgo

package webview

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	webkit "github.com/diamondburned/gotk4-webkitgtk/pkg/webkit/v6"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/rs/zerolog"
)

const webkitAvailable = true

// scriptMessageHandler is the UserContentManager handler name the bind
// shims post through; pages reach it as
// window.webkit.messageHandlers.webview.postMessage.
const scriptMessageHandler = "webview"

var (
	webkitEngineSeq uint64
	webkitEngines   = make(map[uint64]*webkitEngine)
	webkitEnginesMu sync.RWMutex
)

// webkitEngine hosts an in-process WebKitGTK view inside a GTK window.
// All widget operations hop onto the GTK main context, which is also
// what gives Dispatch its FIFO ordering.
type webkitEngine struct {
	log  zerolog.Logger
	sink func(string)
	id   uint64

	win       *gtk.Window
	view      *webkit.WebView
	ownWindow bool

	loop        *glib.MainLoop
	loopRunning atomic.Bool
	quit        atomic.Bool
}

func newWebKitEngine(opts Options, sink func(string), log zerolog.Logger) (*webkitEngine, error) {
	// WebKitGTK objects are affine to the thread that will drive the
	// main loop; pin the constructing goroutine now.
	runtime.LockOSThread()
	if !gtk.InitCheck() {
		return nil, errors.New("gtk: display initialization failed")
	}

	view := webkit.NewWebView()
	if view == nil {
		return nil, errors.New("webkit: web view construction failed")
	}

	settings := view.Settings()
	settings.SetEnableDeveloperExtras(opts.Debug)

	var (
		win       *gtk.Window
		ownWindow bool
	)
	if opts.ParentWindow != 0 {
		obj := coreglib.Take(unsafe.Pointer(opts.ParentWindow))
		parent, ok := obj.Cast().(*gtk.Window)
		if !ok {
			return nil, fmt.Errorf("parent window is not a GtkWindow: %w", ErrUnsupported)
		}
		win = parent
	} else {
		win = gtk.NewWindow()
		ownWindow = true
	}
	win.SetChild(view)

	e := &webkitEngine{
		log:       log,
		sink:      sink,
		id:        atomic.AddUint64(&webkitEngineSeq, 1),
		win:       win,
		view:      view,
		ownWindow: ownWindow,
	}

	webkitEnginesMu.Lock()
	webkitEngines[e.id] = e
	webkitEnginesMu.Unlock()

	if err := registerScriptBridge(e.nativeView(), e.id); err != nil {
		e.unregister()
		return nil, err
	}

	win.ConnectCloseRequest(func() bool {
		e.Terminate()
		return false
	})

	return e, nil
}

func (e *webkitEngine) nativeView() uintptr {
	return coreglib.InternObject(e.view).Native()
}

func (e *webkitEngine) unregister() {
	webkitEnginesMu.Lock()
	delete(webkitEngines, e.id)
	webkitEnginesMu.Unlock()
}

// onMain runs fn on the GTK main context and waits for it. Before the
// loop starts (or on the loop thread itself) fn runs directly.
func (e *webkitEngine) onMain(fn func()) {
	if !e.loopRunning.Load() || glib.MainContextDefault().IsOwner() {
		fn()
		return
	}
	done := make(chan struct{})
	glib.IdleAdd(func() bool {
		fn()
		close(done)
		return false
	})
	<-done
}

func (e *webkitEngine) Run(url string) error {
	runtime.LockOSThread()
	if url != "" {
		e.view.LoadURI(url)
	}
	e.win.SetVisible(true)
	if e.quit.Load() {
		return nil
	}
	e.loop = glib.NewMainLoop(nil, false)
	e.loopRunning.Store(true)
	e.log.Debug().Str("url", url).Msg("webkit main loop running")
	e.loop.Run()
	e.loopRunning.Store(false)
	return nil
}

// Terminate quits the main loop from an idle callback, so a request
// raised before Run starts is picked up as soon as the loop spins.
func (e *webkitEngine) Terminate() {
	e.quit.Store(true)
	glib.IdleAdd(func() bool {
		if e.loop != nil && e.loop.IsRunning() {
			e.loop.Quit()
		}
		return false
	})
}

func (e *webkitEngine) Destroy() error {
	e.unregister()
	e.onMain(func() {
		if e.ownWindow {
			e.win.Destroy()
		} else {
			e.win.SetChild(nil)
		}
	})
	return nil
}

func (e *webkitEngine) Navigate(url string) error {
	e.onMain(func() { e.view.LoadURI(url) })
	return nil
}

func (e *webkitEngine) SetTitle(title string) error {
	e.onMain(func() { e.win.SetTitle(title) })
	return nil
}

func (e *webkitEngine) SetSize(width, height int, hint Hint) error {
	e.onMain(func() {
		switch hint {
		case HintMin:
			e.win.SetSizeRequest(width, height)
		case HintMax:
			// GTK4 cannot cap a window's size; apply default geometry.
			e.log.Debug().Msg("size hint max is approximated by default geometry")
			e.win.SetDefaultSize(width, height)
		case HintFixed:
			e.win.SetResizable(false)
			e.win.SetDefaultSize(width, height)
		default:
			e.win.SetResizable(true)
			e.win.SetDefaultSize(width, height)
		}
	})
	return nil
}

func (e *webkitEngine) Init(js string) error {
	e.onMain(func() { addInitScript(e.nativeView(), js) })
	return nil
}

func (e *webkitEngine) Eval(js string) error {
	e.onMain(func() { evaluateScript(e.nativeView(), js) })
	return nil
}

func (e *webkitEngine) Bind(name string) error {
	shim := bindScript(name, "window.webkit.messageHandlers."+scriptMessageHandler+".postMessage")
	e.onMain(func() {
		addInitScript(e.nativeView(), shim)
		evaluateScript(e.nativeView(), shim)
	})
	return nil
}

// Unbind deletes the page-side function. WebKit user scripts can only
// be cleared wholesale, so the shim's new-document copy stays; it is
// harmless because the facade no longer routes calls for the name.
func (e *webkitEngine) Unbind(name string) error {
	e.onMain(func() { evaluateScript(e.nativeView(), unbindScript(name)) })
	return nil
}

func (e *webkitEngine) Return(seq string, status int, result string) error {
	e.onMain(func() { evaluateScript(e.nativeView(), returnScript(seq, status, result)) })
	return nil
}

// Dispatch schedules fn as a one-shot idle callback on the GTK main
// context; GLib delivers idles in FIFO order.
func (e *webkitEngine) Dispatch(fn func()) error {
	glib.IdleAdd(func() bool {
		fn()
		return false
	})
	return nil
}

func (e *webkitEngine) Window() (NativeWindow, error) {
	return NativeWindow(coreglib.InternObject(e.win).Native()), nil
}
