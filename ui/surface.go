package ui

import (
	"io"

	"statusdash/fetch"
)

// Surface abstracts the console so the tview dashboard and the plain printer
// can be driven the same way. SetState must be safe to call from any
// goroutine.
type Surface interface {
	WaitReady()
	Stop()
	// Done is closed when the surface has shut down on its own, e.g. the
	// user quit.
	Done() <-chan struct{}
	SetState(st fetch.State)
	SystemWriter() io.Writer
}

var _ Surface = (*Dashboard)(nil)
