// Package pipeline composes ingestion, the model, persistence and the
// outbound channels into the product workflows: feedback analysis, PRD
// drafting and refinement, launch content generation and publishing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/launchpad/internal/blob"
	"github.com/zulandar/launchpad/internal/chatlog"
	"github.com/zulandar/launchpad/internal/ingest"
	"github.com/zulandar/launchpad/internal/llm"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/notify"
	"github.com/zulandar/launchpad/internal/store"
)

// DefaultHistoryTurns is how many chat turns are replayed into a prompt.
const DefaultHistoryTurns = 20

// Fetcher loads feedback rows from a spreadsheet link.
type Fetcher interface {
	Fetch(ctx context.Context, sheetURL string) ([]ingest.Feedback, error)
}

// PRDPublisher files an approved PRD somewhere and returns its URL.
type PRDPublisher interface {
	PublishPRD(ctx context.Context, prd *models.PRDDraft) (string, error)
}

// Pipeline runs the product workflows. All dependencies except Store and
// Generator are optional; operations needing a missing one fail with
// InvalidInput.
type Pipeline struct {
	store        *store.Store
	fetcher      Fetcher
	gen          llm.Generator
	chat         chatlog.Log
	blobs        blob.Store
	notifier     *notify.Router
	publisher    PRDPublisher
	historyTurns int
	now          func() time.Time
}

// Opts holds the dependencies of a Pipeline.
type Opts struct {
	Store        *store.Store
	Fetcher      Fetcher
	Generator    llm.Generator
	ChatLog      chatlog.Log // defaults to an in-memory log
	Blobs        blob.Store
	Notifier     *notify.Router
	Publisher    PRDPublisher
	HistoryTurns int // defaults to DefaultHistoryTurns
	Now          func() time.Time
}

// New creates a Pipeline.
func New(opts Opts) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline: store is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("pipeline: generator is required")
	}
	p := &Pipeline{
		store:        opts.Store,
		fetcher:      opts.Fetcher,
		gen:          opts.Generator,
		chat:         opts.ChatLog,
		blobs:        opts.Blobs,
		notifier:     opts.Notifier,
		publisher:    opts.Publisher,
		historyTurns: opts.HistoryTurns,
		now:          opts.Now,
	}
	if p.fetcher == nil {
		p.fetcher = ingest.NewFetcher(ingest.FetcherOpts{})
	}
	if p.chat == nil {
		p.chat = chatlog.NewMemoryLog()
	}
	if p.historyTurns <= 0 {
		p.historyTurns = DefaultHistoryTurns
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Store exposes the underlying store for read-only callers.
func (p *Pipeline) Store() *store.Store { return p.store }

// ChatLog exposes the chat history backend.
func (p *Pipeline) ChatLog() chatlog.Log { return p.chat }
