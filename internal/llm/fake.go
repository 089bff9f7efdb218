package llm

import (
	"context"
	"sync"
)

// Call records one Generate invocation on a Fake.
type Call struct {
	Prompt   string
	Settings Settings
}

// Fake is an in-memory Generator for tests. Replies are returned in order;
// once exhausted the last reply repeats. Err, when set, is returned instead.
type Fake struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Calls   []Call
}

// NewFake returns a Fake that answers with the given replies.
func NewFake(replies ...string) *Fake {
	return &Fake{Replies: replies}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Generate(_ context.Context, prompt string, s Settings) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Prompt: prompt, Settings: s})
	if f.Err != nil {
		return "", upstream(f.Name(), f.Err)
	}
	if len(f.Replies) == 0 {
		return checkEmpty(f.Name(), "")
	}
	i := len(f.Calls) - 1
	if i >= len(f.Replies) {
		i = len(f.Replies) - 1
	}
	return checkEmpty(f.Name(), f.Replies[i])
}

// LastPrompt returns the most recent prompt, or "".
func (f *Fake) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return ""
	}
	return f.Calls[len(f.Calls)-1].Prompt
}
