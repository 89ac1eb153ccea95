package webview

import (
	"fmt"
	"sync"
)

// fakeEngine records every call and lets tests act as the engine's own
// execution context by draining the dispatch queue manually.
type fakeEngine struct {
	mu           sync.Mutex
	calls        []string
	jobs         []func()
	destroyCount int

	shutdown   chan struct{}
	runStarted chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		shutdown:   make(chan struct{}, 1),
		runStarted: make(chan struct{}),
	}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeEngine) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) destroys() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyCount
}

// runJobs plays the engine's execution context, draining all queued
// dispatch closures in FIFO order.
func (f *fakeEngine) runJobs() {
	for {
		f.mu.Lock()
		if len(f.jobs) == 0 {
			f.mu.Unlock()
			return
		}
		job := f.jobs[0]
		f.jobs = f.jobs[1:]
		f.mu.Unlock()
		job()
	}
}

func (f *fakeEngine) Run(url string) error {
	f.record("run:" + url)
	close(f.runStarted)
	<-f.shutdown
	return nil
}

func (f *fakeEngine) Terminate() {
	f.record("terminate")
	select {
	case f.shutdown <- struct{}{}:
	default:
	}
}

func (f *fakeEngine) Destroy() error {
	f.mu.Lock()
	f.destroyCount++
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Navigate(url string) error {
	f.record("navigate:" + url)
	return nil
}

func (f *fakeEngine) SetTitle(title string) error {
	f.record("title:" + title)
	return nil
}

func (f *fakeEngine) SetSize(width, height int, hint Hint) error {
	f.record(fmt.Sprintf("size:%d:%d:%d", width, height, int(hint)))
	return nil
}

func (f *fakeEngine) Init(js string) error {
	f.record("init:" + js)
	return nil
}

func (f *fakeEngine) Eval(js string) error {
	f.record("eval:" + js)
	return nil
}

func (f *fakeEngine) Bind(name string) error {
	f.record("bind:" + name)
	return nil
}

func (f *fakeEngine) Unbind(name string) error {
	f.record("unbind:" + name)
	return nil
}

func (f *fakeEngine) Return(seq string, status int, result string) error {
	f.record(fmt.Sprintf("return:%s:%d:%s", seq, status, result))
	return nil
}

func (f *fakeEngine) Dispatch(fn func()) error {
	f.mu.Lock()
	f.jobs = append(f.jobs, fn)
	f.mu.Unlock()
	f.record("dispatch")
	return nil
}

func (f *fakeEngine) Window() (NativeWindow, error) {
	f.record("window")
	return NativeWindow(42), nil
}
