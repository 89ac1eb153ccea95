//go:build webkit_cgo

package webview

/*
#cgo pkg-config: webkitgtk-6.0 gtk4
#include <stdlib.h>
#include <webkit/webkit.h>
#include <jsc/jsc.h>

extern void goWebviewScriptMessage(unsigned long id, char* msg);

static void on_script_message(WebKitUserContentManager *ucm,
                              JSCValue *value,
                              gpointer user_data) {
    char *msg = jsc_value_to_string(value);
    if (msg) {
        goWebviewScriptMessage((unsigned long)user_data, msg);
        g_free(msg);
    }
}

static gboolean webview_register_bridge(WebKitWebView *wv, unsigned long id) {
    WebKitUserContentManager *ucm = webkit_web_view_get_user_content_manager(wv);
    if (!ucm) return FALSE;
    if (!webkit_user_content_manager_register_script_message_handler(ucm, "webview", NULL)) {
        return FALSE;
    }
    g_signal_connect_data(G_OBJECT(ucm), "script-message-received::webview",
                          G_CALLBACK(on_script_message), (gpointer)id, NULL, 0);
    return TRUE;
}

static void webview_add_init_script(WebKitWebView *wv, const char *js) {
    WebKitUserContentManager *ucm = webkit_web_view_get_user_content_manager(wv);
    if (!ucm) return;
    WebKitUserScript *script = webkit_user_script_new(
        js,
        WEBKIT_USER_CONTENT_INJECT_ALL_FRAMES,
        WEBKIT_USER_SCRIPT_INJECT_AT_DOCUMENT_START,
        NULL, NULL);
    webkit_user_content_manager_add_script(ucm, script);
    webkit_user_script_unref(script);
}

static void webview_evaluate(WebKitWebView *wv, const char *js) {
    // Fire-and-forget evaluation using the modern API; length -1 means
    // NUL-terminated.
    webkit_web_view_evaluate_javascript(wv, js, -1, NULL, NULL, NULL, NULL, NULL);
}
*/
import "C"

import (
	"errors"
	"unsafe"
)

//export goWebviewScriptMessage
func goWebviewScriptMessage(id C.ulong, msg *C.char) {
	webkitEnginesMu.RLock()
	e := webkitEngines[uint64(id)]
	webkitEnginesMu.RUnlock()
	if e == nil || msg == nil {
		return
	}
	e.sink(C.GoString(msg))
}

// registerScriptBridge wires the script-message handler that carries
// bind envelopes from page script into goWebviewScriptMessage.
func registerScriptBridge(view uintptr, id uint64) error {
	wv := (*C.WebKitWebView)(unsafe.Pointer(view))
	if C.webview_register_bridge(wv, C.ulong(id)) == C.FALSE {
		return errors.New("webkit: script message handler registration failed")
	}
	return nil
}

func addInitScript(view uintptr, js string) {
	cjs := C.CString(js)
	defer C.free(unsafe.Pointer(cjs))
	C.webview_add_init_script((*C.WebKitWebView)(unsafe.Pointer(view)), cjs)
}

func evaluateScript(view uintptr, js string) {
	cjs := C.CString(js)
	defer C.free(unsafe.Pointer(cjs))
	C.webview_evaluate((*C.WebKitWebView)(unsafe.Pointer(view)), cjs)
}
