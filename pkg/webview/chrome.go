package webview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// chromeBindingName is the DevTools binding the bind shims post
	// through; it appears on the page as window.__wvPost.
	chromeBindingName = "__wvPost"

	// blankAppURL is the completely blank document the browser starts
	// on before the first navigation.
	blankAppURL = "data:text/html,%3Chtml%3E%3C%2Fhtml%3E"

	defaultProbeInterval = time.Second

	dispatchQueueSize = 64
)

// chromeEngine drives a remote Chrome session over the DevTools
// protocol. The contract's single-owner execution context maps onto
// the Run goroutine: dispatched closures funnel through its job
// channel, and a dedicated goroutine probes session liveness once per
// interval, converting lost connectivity into a termination request.
type chromeEngine struct {
	log   zerolog.Logger
	sink  func(raw string)
	opts  ChromeOptions
	debug bool

	// mu guards the session fields: concurrent readers, exclusive
	// writers.
	mu          sync.RWMutex
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	initScripts []string

	shutdown chan struct{} // buffered: a Terminate racing Run is never lost
	jobs     chan func()
}

func newChromeEngine(opts Options, sink func(string), log zerolog.Logger) (*chromeEngine, error) {
	if opts.ParentWindow != 0 {
		return nil, fmt.Errorf("parent window embedding: %w", ErrUnsupported)
	}
	return &chromeEngine{
		log:      log,
		sink:     sink,
		opts:     opts.Chrome,
		debug:    opts.Debug,
		shutdown: make(chan struct{}, 1),
		jobs:     make(chan func(), dispatchQueueSize),
	}, nil
}

func (e *chromeEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("app", blankAppURL),
	)
	if e.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.opts.ExecPath))
	}
	if e.opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(e.opts.UserDataDir))
	}
	for _, arg := range e.opts.ExtraArgs {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			allocOpts = append(allocOpts, chromedp.Flag(name, value))
		} else {
			allocOpts = append(allocOpts, chromedp.Flag(name, true))
		}
	}
	return allocOpts
}

// Run launches or attaches the browser, prepares the session, performs
// the initial navigation and then services dispatched closures until
// the shutdown signal arrives.
func (e *chromeEngine) Run(url string) error {
	if url == "" {
		url = blankAppURL
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions()...)
	tab, tabCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(tab); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("launch chrome: %w", err)
	}

	chromedp.ListenTarget(tab, func(ev any) {
		switch ev := ev.(type) {
		case *cdpruntime.EventBindingCalled:
			if ev.Name == chromeBindingName {
				e.sink(ev.Payload)
			}
		default:
			if e.debug {
				e.log.Trace().Msgf("devtools event %T", ev)
			}
		}
	})

	e.mu.Lock()
	e.tab = tab
	e.tabCancel = tabCancel
	e.allocCancel = allocCancel
	initScripts := append([]string(nil), e.initScripts...)
	e.mu.Unlock()

	err := chromedp.Run(tab, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := cdpruntime.AddBinding(chromeBindingName).Do(ctx); err != nil {
			return err
		}
		for _, js := range initScripts {
			if _, err := page.AddScriptToEvaluateOnNewDocument(js).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("prepare session: %w", err)
	}

	if err := e.Navigate(url); err != nil {
		return err
	}

	interval := e.opts.ProbeInterval
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	probeCtx, probeCancel := context.WithCancel(tab)
	var g errgroup.Group
	g.Go(func() error {
		return e.probe(probeCtx, interval)
	})

	e.log.Debug().Str("url", url).Msg("chrome session running")
	for {
		select {
		case <-e.shutdown:
			probeCancel()
			if err := g.Wait(); err != nil {
				e.log.Warn().Err(err).Msg("session ended after liveness failure")
			}
			return nil
		case job := <-e.jobs:
			job()
		}
	}
}

// probe evaluates a trivial expression against the session once per
// interval. A failure is treated as lost connectivity: the session is
// asked to terminate and the error is reported to the run loop, never
// to the caller.
func (e *chromeEngine) probe(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		evalCtx, cancel := context.WithTimeout(ctx, interval)
		var alive bool
		err := chromedp.Run(evalCtx, chromedp.Evaluate("window !== undefined", &alive))
		cancel()
		if err != nil && ctx.Err() == nil {
			e.Terminate()
			return fmt.Errorf("liveness probe: %w", err)
		}
	}
}

// Terminate raises the shutdown signal. The buffered channel makes it
// idempotent and keeps a signal raised before Run from being lost.
func (e *chromeEngine) Terminate() {
	select {
	case e.shutdown <- struct{}{}:
	default:
	}
}

func (e *chromeEngine) Destroy() error {
	e.mu.Lock()
	tabCancel, allocCancel := e.tabCancel, e.allocCancel
	e.tab, e.tabCancel, e.allocCancel = nil, nil, nil
	e.mu.Unlock()
	if tabCancel != nil {
		tabCancel()
	}
	if allocCancel != nil {
		allocCancel()
	}
	return nil
}

// session returns the live tab context, if any. No session means the
// loop has not started yet; mutating calls are then no-ops because the
// facade replays pending state when Run starts.
func (e *chromeEngine) session() (context.Context, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tab, e.tab != nil
}

func (e *chromeEngine) Navigate(url string) error {
	tab, ok := e.session()
	if !ok {
		return nil
	}
	if err := chromedp.Run(tab, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

func (e *chromeEngine) SetTitle(title string) error {
	tab, ok := e.session()
	if !ok {
		return nil
	}
	quoted, err := json.Marshal(title)
	if err != nil {
		return fmt.Errorf("encode title: %w", err)
	}
	script := fmt.Sprintf("document.title = %s", quoted)
	if err := chromedp.Run(tab, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

func (e *chromeEngine) SetSize(width, height int, hint Hint) error {
	tab, ok := e.session()
	if !ok {
		return nil
	}
	if hint != HintNone {
		e.log.Debug().Stringer("hint", hint).Msg("chrome backend applies exact bounds only")
	}
	err := chromedp.Run(tab, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			Width:  int64(width),
			Height: int64(height),
		}).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("set window bounds: %w", err)
	}
	return nil
}

func (e *chromeEngine) Init(js string) error {
	e.mu.Lock()
	e.initScripts = append(e.initScripts, js)
	tab := e.tab
	e.mu.Unlock()
	if tab == nil {
		return nil
	}
	err := chromedp.Run(tab, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(js).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("add init script: %w", err)
	}
	return nil
}

func (e *chromeEngine) Eval(js string) error {
	tab, ok := e.session()
	if !ok {
		return nil
	}
	if err := chromedp.Run(tab, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// Bind installs the shim both as a new-document script, so it survives
// navigation, and into the current document.
func (e *chromeEngine) Bind(name string) error {
	shim := bindScript(name, "window."+chromeBindingName)
	if err := e.Init(shim); err != nil {
		return err
	}
	tab, ok := e.session()
	if !ok {
		return nil
	}
	if err := chromedp.Run(tab, chromedp.Evaluate(shim, nil)); err != nil {
		return fmt.Errorf("install binding: %w", err)
	}
	return nil
}

// Unbind drops the shim's new-document copy and deletes the page-side
// function from the current document.
func (e *chromeEngine) Unbind(name string) error {
	shim := bindScript(name, "window."+chromeBindingName)
	e.mu.Lock()
	kept := e.initScripts[:0]
	for _, js := range e.initScripts {
		if js != shim {
			kept = append(kept, js)
		}
	}
	e.initScripts = kept
	tab := e.tab
	e.mu.Unlock()
	if tab == nil {
		return nil
	}
	if err := chromedp.Run(tab, chromedp.Evaluate(unbindScript(name), nil)); err != nil {
		return fmt.Errorf("remove binding: %w", err)
	}
	return nil
}

func (e *chromeEngine) Return(seq string, status int, result string) error {
	tab, ok := e.session()
	if !ok {
		return nil
	}
	if err := chromedp.Run(tab, chromedp.Evaluate(returnScript(seq, status, result), nil)); err != nil {
		return fmt.Errorf("settle binding call: %w", err)
	}
	return nil
}

// Dispatch enqueues fn for the Run goroutine. Delivery is FIFO;
// closures enqueued before Run starts execute once the loop drains the
// queue.
func (e *chromeEngine) Dispatch(fn func()) error {
	select {
	case e.jobs <- fn:
		return nil
	default:
		return errors.New("dispatch queue full")
	}
}

func (e *chromeEngine) Window() (NativeWindow, error) {
	return 0, fmt.Errorf("get window: %w", ErrUnsupported)
}
