package sessionpresenter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/park285/cheese-solo/pkg/chessdto"
)

// Presenter writes formatted snapshots to an output stream. It is safe to
// call from the observer goroutine and the input loop at once.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
	fmt *Formatter
}

func NewPresenter(out io.Writer, f *Formatter) *Presenter {
	if f == nil {
		f = NewFormatter()
	}
	return &Presenter{out: out, fmt: f}
}

func (p *Presenter) Formatter() *Formatter { return p.fmt }

// Show prints the full screen for s.
func (p *Presenter) Show(s chessdto.Snapshot) {
	p.Print(p.fmt.Full(s))
}

// Print writes text followed by a newline if it lacks one.
func (p *Presenter) Print(text string) {
	if p == nil || strings.TrimSpace(text) == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, text)
}

func (p *Presenter) Printf(format string, args ...any) {
	p.Print(fmt.Sprintf(format, args...))
}
