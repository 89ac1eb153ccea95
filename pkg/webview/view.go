package webview

// View is the borrowed facade passed to dispatched closures. It runs
// on the engine's own execution context for the duration of one
// closure invocation and never owns the engine: dropping a View
// releases nothing, ownership stays with the original Webview.
type View struct {
	cell *cell
}

// Navigate points the session at url, as (*Webview).Navigate.
func (v *View) Navigate(url string) error { return v.cell.navigate(url) }

// SetTitle sets the native window title.
func (v *View) SetTitle(title string) error { return v.cell.setTitle(title) }

// SetSize applies the window geometry constraint described by hint.
func (v *View) SetSize(width, height int, hint Hint) error {
	return v.cell.setSize(width, height, hint)
}

// Init schedules js to run in every new document.
func (v *View) Init(js string) error { return v.cell.initScript(js) }

// Eval evaluates js in the current page.
func (v *View) Eval(js string) error { return v.cell.eval(js) }

// Bind exposes a function to page script, as (*Webview).Bind.
func (v *View) Bind(name string, fn BindFunc) error { return v.cell.bind(name, fn) }

// Unbind removes a binding, as (*Webview).Unbind.
func (v *View) Unbind(name string) error { return v.cell.unbind(name) }

// Return completes a pending bound-function call.
func (v *View) Return(seq string, status int, result string) error {
	return v.cell.ret(seq, status, result)
}

// Dispatch schedules another closure onto the engine's context.
func (v *View) Dispatch(fn func(*View)) error { return v.cell.dispatch(fn) }

// Terminate requests the run loop to exit.
func (v *View) Terminate() error { return v.cell.terminate() }

// Window returns the native window reference.
func (v *View) Window() (NativeWindow, error) { return v.cell.window() }
