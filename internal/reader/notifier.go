package reader

import (
	"fmt"
	"io"
	"sync"
)

// Notifier shows short-lived messages to the user, e.g. a toast.
type Notifier interface {
	Error(msg string)
	Success(msg string)
}

// WriterNotifier prints notifications as single lines.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "error: %s\n", msg)
}

func (n *WriterNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, msg)
}

type discard struct{}

func (discard) Error(string)   {}
func (discard) Success(string) {}
