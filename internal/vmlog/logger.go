// Package vmlog provides the engine's single-line, human-readable debug
// trace (spec.md §6, "Debug output"). It is the module's only logger; the
// CLI has no separate leveled or structured logging.
package vmlog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Tracer emits "[VM DEBUG] ..." lines when enabled. It is safe for
// concurrent use even though the scheduler itself is single-threaded,
// since a host embedding the VM may read the trace from another goroutine.
type Tracer struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
}

// New constructs a Tracer writing to w (os.Stderr if nil).
func New(w io.Writer) *Tracer {
	if w == nil {
		w = os.Stderr
	}
	return &Tracer{out: w}
}

// SetEnabled toggles whether Trace actually writes anything.
func (t *Tracer) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// Enabled reports the current toggle state.
func (t *Tracer) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Trace writes a pre-formatted line verbatim (the engine already prefixes
// "[VM DEBUG] " itself so a single Tracer can also be handed raw CLI/loader
// lines with a different prefix).
func (t *Tracer) Trace(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	fmt.Fprintln(t.out, line)
}

// Tracef formats and writes, prefixed "[VM DEBUG] ".
func (t *Tracer) Tracef(format string, args ...any) {
	t.Trace("[VM DEBUG] " + fmt.Sprintf(format, args...))
}
