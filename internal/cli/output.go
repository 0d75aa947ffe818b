package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"dreamfront/internal/domain"
)

var (
	_ domain.Notifier  = (*printNotifier)(nil)
	_ domain.Navigator = (*hintNavigator)(nil)
)

// printNotifier writes notifications to the terminal.
type printNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *printNotifier) Notify(_ context.Context, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s: %s\n", note.Level, note.Message)
}

// hintNavigator turns navigation into a hint naming the command to run.
type hintNavigator struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *hintNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, hint(path))
}

// commandFor maps a page route to the command that covers it.
func commandFor(path string) string {
	switch path {
	case domain.RouteLogin:
		return "dreamfront login"
	case domain.RouteLanding:
		return "dreamfront whoami"
	default:
		return "dreamfront serve"
	}
}

func hint(path string) string {
	return fmt.Sprintf("run %q", commandFor(path))
}
