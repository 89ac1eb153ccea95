package webview

import "fmt"

// Hint controls how SetSize constrains the window geometry. The
// ordinal values are a wire contract with the underlying engines and
// must not be reordered.
type Hint int

const (
	// HintNone leaves the window freely resizable.
	HintNone Hint = 0
	// HintMin makes width and height the minimum window size.
	HintMin Hint = 1
	// HintMax makes width and height the maximum window size.
	HintMax Hint = 2
	// HintFixed disables resizing entirely.
	HintFixed Hint = 3
)

// ParseHint maps a configuration string onto a Hint.
func ParseHint(s string) (Hint, error) {
	switch s {
	case "", "none":
		return HintNone, nil
	case "min":
		return HintMin, nil
	case "max":
		return HintMax, nil
	case "fixed":
		return HintFixed, nil
	}
	return HintNone, fmt.Errorf("webview: unknown size hint %q", s)
}

func (h Hint) String() string {
	switch h {
	case HintNone:
		return "none"
	case HintMin:
		return "min"
	case HintMax:
		return "max"
	case HintFixed:
		return "fixed"
	}
	return fmt.Sprintf("hint(%d)", int(h))
}
