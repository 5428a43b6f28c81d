package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
)

// progress prints a single updating status line on terminals and nothing
// otherwise.
type progress struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	dirty   bool
}

func newProgress(quiet bool) *progress {
	fd := os.Stderr.Fd()
	return &progress{
		out:     os.Stderr,
		enabled: !quiet && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)),
	}
}

// Update redraws the line. total <= 0 prints the count only.
func (p *progress) Update(label string, done, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if total > 0 {
		fmt.Fprintf(p.out, "\r\033[K%s %d/%d", l10n.T(label), done, total)
	} else {
		fmt.Fprintf(p.out, "\r\033[K%s %d", l10n.T(label), done)
	}
	p.dirty = true
}

// Done ends the status line.
func (p *progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		fmt.Fprintln(p.out)
		p.dirty = false
	}
}
