package webview

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// The script binding protocol: Bind installs a page-side shim that
// wraps arguments and a sequence id into a JSON envelope and posts it
// through the backend's transport expression. The Go side routes the
// envelope to the registered callback; Return settles the page-side
// promise by sequence id. Both backends speak this exact protocol, so
// bound functions behave identically under WebKit and Chrome.

// bindEnvelope is the JS-to-Go message wrapper produced by the bind
// shim.
type bindEnvelope struct {
	Name string `json:"name"`
	Seq  string `json:"seq"`
	Req  string `json:"req"`
}

func decodeBindEnvelope(raw string) (bindEnvelope, error) {
	var env bindEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return env, fmt.Errorf("decode bind envelope: %w", err)
	}
	if env.Name == "" || env.Seq == "" {
		return env, fmt.Errorf("decode bind envelope: missing name or seq")
	}
	return env, nil
}

// validBindingName reports whether name is usable as a script
// identifier; the page-side shim assigns window[name].
func validBindingName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case unicode.IsLetter(r):
		case unicode.IsDigit(r):
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// bindScript builds the page-side shim for one bound function.
// postExpr is the backend's transport expression; it receives a single
// string argument, the JSON envelope.
func bindScript(name, postExpr string) string {
	quoted, _ := json.Marshal(name)
	return fmt.Sprintf(`(function () {
  var name = %s;
  window.__wvPending = window.__wvPending || {};
  window[name] = function () {
    window.__wvSeq = (window.__wvSeq || 0) + 1;
    var seq = String(window.__wvSeq);
    var req = JSON.stringify(Array.prototype.slice.call(arguments));
    var p = new Promise(function (resolve, reject) {
      window.__wvPending[seq] = { resolve: resolve, reject: reject };
    });
    %s(JSON.stringify({ name: name, seq: seq, req: req }));
    return p;
  };
})();`, quoted, postExpr)
}

// unbindScript removes the page-side shim for name. Pending promises
// for earlier calls stay settleable.
func unbindScript(name string) string {
	quoted, _ := json.Marshal(name)
	return fmt.Sprintf("delete window[%s];", quoted)
}

// returnScript builds the script settling the promise for seq. result
// is injected verbatim, per the binding protocol's "opaque payload"
// contract.
func returnScript(seq string, status int, result string) string {
	quoted, _ := json.Marshal(seq)
	if strings.TrimSpace(result) == "" {
		result = "undefined"
	}
	return fmt.Sprintf(`(function () {
  var pending = window.__wvPending || {};
  var p = pending[%s];
  if (!p) { return; }
  delete pending[%s];
  if (%d === 0) { p.resolve(%s); } else { p.reject(%s); }
})();`, quoted, quoted, status, result, result)
}
