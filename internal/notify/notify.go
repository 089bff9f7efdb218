// Package notify posts launch announcements and pipeline events to chat
// platforms.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zulandar/launchpad/internal/apperr"
)

// Field is a key-value pair shown alongside a message.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Message is a platform-agnostic outbound post.
type Message struct {
	Channel string // platform channel ID; empty uses the notifier's default
	Title   string
	Text    string
	Fields  []Field
	Color   string // hex, e.g. "#36a64f"
}

// Colors used for pipeline events.
const (
	ColorInfo    = "#2196f3"
	ColorSuccess = "#36a64f"
	ColorWarning = "#ff9800"
)

// Notifier delivers a message and returns a permalink to it when the
// platform provides one.
type Notifier interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Router picks a notifier by target channel name ("slack", "discord").
type Router struct {
	targets  map[string]Notifier
	fallback string
}

// NewRouter creates a router. fallback names the target used when a message
// has no explicit target.
func NewRouter(fallback string) *Router {
	return &Router{targets: make(map[string]Notifier), fallback: fallback}
}

// Register adds or replaces a target.
func (r *Router) Register(name string, n Notifier) {
	r.targets[name] = n
}

// Targets lists registered target names, sorted.
func (r *Router) Targets() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether no targets are registered.
func (r *Router) Empty() bool {
	return r == nil || len(r.targets) == 0
}

// To returns the notifier for target. An empty target uses the fallback.
func (r *Router) To(target string) (Notifier, error) {
	if target == "" {
		target = r.fallback
	}
	if r.Empty() {
		return nil, apperr.New(apperr.InvalidInput, "no notification channels are configured").
			WithHint("set notify.slack or notify.discord in launchpad.yaml")
	}
	n, ok := r.targets[target]
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "channel %q is not configured", target).
			WithHint("configured channels: " + strings.Join(r.Targets(), ", "))
	}
	return n, nil
}

// SendTo routes msg to target and sends it.
func (r *Router) SendTo(ctx context.Context, target string, msg Message) (string, error) {
	n, err := r.To(target)
	if err != nil {
		return "", err
	}
	link, err := n.Send(ctx, msg)
	if err != nil {
		if target == "" {
			target = r.fallback
		}
		return "", apperr.Wrap(err, apperr.Upstream, fmt.Sprintf("notify: send to %s", target))
	}
	return link, nil
}

// Mock records sent messages. Used in tests.
type Mock struct {
	mu       sync.Mutex
	Sent     []Message
	Err      error
	LinkFunc func(n int, msg Message) string
}

// Send records msg and returns a synthetic permalink.
func (m *Mock) Send(_ context.Context, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, msg)
	if m.LinkFunc != nil {
		return m.LinkFunc(len(m.Sent), msg), nil
	}
	return fmt.Sprintf("https://chat.example/msg/%d", len(m.Sent)), nil
}

// Count returns the number of messages sent.
func (m *Mock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Last returns the most recent message.
func (m *Mock) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Message{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
