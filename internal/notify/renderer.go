package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// TerminalRenderer prints toasts as coloured lines
type TerminalRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles map[Kind]*color.Color
}

// NewTerminalRenderer writes to out; colour follows fatih/color's terminal detection
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{
		out: out,
		styles: map[Kind]*color.Color{
			KindDefault: color.New(color.FgCyan),
			KindSuccess: color.New(color.FgGreen, color.Bold),
			KindError:   color.New(color.FgRed, color.Bold),
		},
	}
}

var prefixes = map[Kind]string{
	KindDefault: "ℹ",
	KindSuccess: "✔",
	KindError:   "✖",
}

// Render writes one toast
func (r *TerminalRenderer) Render(toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()

	style, ok := r.styles[toast.Kind]
	if !ok {
		style = r.styles[KindDefault]
	}
	prefix, ok := prefixes[toast.Kind]
	if !ok {
		prefix = prefixes[KindDefault]
	}
	style.Fprintf(r.out, "%s %s", prefix, toast.Message)
	fmt.Fprintln(r.out)
}

// Follow returns a Toaster onChange callback that renders each toast once, when it
// first appears in a snapshot. Expiry and dismissal print nothing.
func (r *TerminalRenderer) Follow() func([]Toast) {
	var mu sync.Mutex
	shown := map[string]int{}

	return func(snapshot []Toast) {
		mu.Lock()
		counts := make(map[string]int, len(snapshot))
		var fresh []Toast
		for _, toast := range snapshot {
			counts[toast.ID]++
			if counts[toast.ID] > shown[toast.ID] {
				fresh = append(fresh, toast)
			}
		}
		shown = counts
		mu.Unlock()

		for _, toast := range fresh {
			r.Render(toast)
		}
	}
}
