package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/launchpad/internal/airesp"
	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/ingest"
	"github.com/zulandar/launchpad/internal/llm"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/notify"
	"github.com/zulandar/launchpad/internal/prompt"
	"github.com/zulandar/launchpad/internal/rank"
)

// summaryRunes caps the stored analysis summary.
const summaryRunes = 500

// AnalysisOutcome reports one feedback analysis run.
type AnalysisOutcome struct {
	SourceID        string `json:"source_id"`
	AnalysisID      string `json:"analysis_id"`
	FeedbackCount   int    `json:"feedback_count"`
	AnalysisText    string `json:"analysis_text"`
	TasksCreated    int    `json:"tasks_created"`
	StructuredError string `json:"structured_error,omitempty"`
}

// AnalyzeSheet fetches a spreadsheet, analyzes it and records a new
// feedback source with its analysis and derived task candidates.
//
// Derived tasks are best-effort: a malformed structured block is reported
// in StructuredError. If storing tasks fails after the source exists, the
// outcome and the error are both returned and the source is kept.
func (p *Pipeline) AnalyzeSheet(ctx context.Context, sess *auth.Session, sheetURL string) (*AnalysisOutcome, error) {
	sheetURL = strings.TrimSpace(sheetURL)
	items, text, err := p.analyze(ctx, sheetURL)
	if err != nil {
		return nil, err
	}

	now := p.now()
	src, err := p.store.Sources.Create(ctx, sess, &models.FeedbackSource{
		Name:           "VOC analysis - " + now.Format(time.DateOnly),
		SourceURL:      sheetURL,
		Description:    fmt.Sprintf("Automated VOC analysis of %d feedback items", len(items)),
		Status:         models.SourceActive,
		LastAnalyzedAt: &now,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "could not save the feedback source")
	}
	return p.record(ctx, sess, src, items, text)
}

// ReanalyzeSource runs the analysis again for an existing source.
func (p *Pipeline) ReanalyzeSource(ctx context.Context, sess *auth.Session, sourceID string) (*AnalysisOutcome, error) {
	src, err := p.store.Sources.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src.Status == models.SourceArchived {
		return nil, apperr.New(apperr.Conflict, "feedback source %s is archived", src.ID)
	}
	if strings.TrimSpace(src.SourceURL) == "" {
		return nil, apperr.New(apperr.InvalidInput, "feedback source %s has no URL", src.ID)
	}

	items, text, err := p.analyze(ctx, src.SourceURL)
	if err != nil {
		return nil, err
	}
	now := p.now()
	if err := p.store.Sources.MarkAnalyzed(ctx, src.ID, now); err != nil {
		return nil, err
	}
	src.LastAnalyzedAt = &now
	return p.record(ctx, sess, src, items, text)
}

func (p *Pipeline) analyze(ctx context.Context, sheetURL string) ([]ingest.Feedback, string, error) {
	items, err := p.fetcher.Fetch(ctx, sheetURL)
	if err != nil {
		return nil, "", err
	}
	logx.Info().Str("url", sheetURL).Int("feedback", len(items)).Msg("pipeline: analyzing feedback")

	text, err := p.gen.Generate(ctx, prompt.Analysis(items), llm.SettingsFor(llm.KindAnalysis))
	if err != nil {
		return nil, "", err
	}
	return items, text, nil
}

// record stores the raw analysis and derives tasks from its structured part.
func (p *Pipeline) record(ctx context.Context, sess *auth.Session, src *models.FeedbackSource, items []ingest.Feedback, text string) (*AnalysisOutcome, error) {
	out := &AnalysisOutcome{SourceID: src.ID, FeedbackCount: len(items), AnalysisText: text}

	analysis, parseErr := airesp.ParseAnalysis(text)
	if parseErr != nil {
		out.StructuredError = parseErr.Error()
		logx.Warn().Err(parseErr).Str("source", src.ID).Msg("pipeline: structured analysis unavailable, keeping raw text")
	}

	res, err := p.store.Analyses.Create(ctx, sess, &models.AnalysisResult{
		SourceFeedbackID: src.ID,
		Summary:          truncateRunes(text, summaryRunes),
		RawText:          text,
		FeedbackCount:    len(items),
		StructuredOK:     parseErr == nil,
		StructuredError:  out.StructuredError,
	})
	if err != nil {
		return out, apperr.Wrap(err, apperr.Upstream, "could not save the analysis result")
	}
	out.AnalysisID = res.ID

	if analysis != nil {
		derived := rank.DeriveTasks(analysis.RecommendedFeatures, prompt.MaxRecommendedFeatures)
		created, err := p.store.Tasks.CreateBatch(ctx, sess, src.ID, derived)
		if err != nil {
			return out, apperr.Wrap(err, apperr.Upstream, "analysis saved but task candidates could not be created")
		}
		out.TasksCreated = len(created)
		if err := p.store.Analyses.SetTasksCreated(ctx, res.ID, len(created)); err != nil {
			logx.Warn().Err(err).Str("analysis", res.ID).Msg("pipeline: could not record task count")
		}
	}

	logx.Info().
		Str("source", src.ID).
		Str("analysis", res.ID).
		Int("feedback", out.FeedbackCount).
		Int("tasks", out.TasksCreated).
		Bool("structured", parseErr == nil).
		Msg("pipeline: analysis complete")
	p.announceAnalysis(ctx, src, out)
	return out, nil
}

// announceAnalysis posts a completion notice to the default channel.
// Failures are logged only.
func (p *Pipeline) announceAnalysis(ctx context.Context, src *models.FeedbackSource, out *AnalysisOutcome) {
	if p.notifier.Empty() {
		return
	}
	msg := notify.Message{
		Title: "VOC analysis complete: " + src.Name,
		Text:  fmt.Sprintf("Analyzed %d feedback items and derived %d task candidates.", out.FeedbackCount, out.TasksCreated),
		Color: notify.ColorSuccess,
		Fields: []notify.Field{
			{Name: "Feedback", Value: strconv.Itoa(out.FeedbackCount), Short: true},
			{Name: "Tasks", Value: strconv.Itoa(out.TasksCreated), Short: true},
		},
	}
	if out.StructuredError != "" {
		msg.Color = notify.ColorWarning
		msg.Fields = append(msg.Fields, notify.Field{Name: "Structured output", Value: "unavailable"})
	}
	if _, err := p.notifier.SendTo(ctx, "", msg); err != nil {
		logx.Warn().Err(err).Str("source", src.ID).Msg("pipeline: analysis notification failed")
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
