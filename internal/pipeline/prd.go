package pipeline

import (
	"context"
	"slices"
	"strings"

	"github.com/zulandar/launchpad/internal/airesp"
	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/llm"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/prompt"
)

// chatAcknowledgement is shown when a reply held nothing but section updates.
const chatAcknowledgement = "Response generated."

// PRDResult is a freshly generated PRD and how its sections were found.
type PRDResult struct {
	PRD        *models.PRDDraft  `json:"prd"`
	Confidence airesp.Confidence `json:"confidence"`
}

// GeneratePRD drafts a PRD for a task candidate. Sections the model did not
// produce are left empty; the raw response is stored with the draft.
func (p *Pipeline) GeneratePRD(ctx context.Context, sess *auth.Session, taskID string) (*PRDResult, error) {
	task, err := p.store.Tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	text, err := p.gen.Generate(ctx, prompt.PRD(task), llm.SettingsFor(llm.KindPRD))
	if err != nil {
		return nil, err
	}
	sections := airesp.ExtractSections(text)

	draft := &models.PRDDraft{
		TaskID:      &task.ID,
		Title:       task.Title,
		Status:      models.DocDraft,
		Version:     1,
		RawResponse: text,
	}
	for name, body := range sections.Values {
		draft.SetSection(name, body)
	}
	draft, err = p.store.PRDs.Create(ctx, sess, draft)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "could not save the PRD draft")
	}

	logx.Info().
		Str("task", task.ID).
		Str("prd", draft.ID).
		Str("confidence", string(sections.Confidence)).
		Int("sections", len(sections.Values)).
		Msg("pipeline: prd generated")
	return &PRDResult{PRD: draft, Confidence: sections.Confidence}, nil
}

// ChatReply is the outcome of one refinement message.
type ChatReply struct {
	Reply   string           `json:"reply"`
	Updated []string         `json:"updated_sections"`
	PRD     *models.PRDDraft `json:"prd"`
}

// ChatPRD sends a refinement request about a PRD to the model. Sections the
// reply returns inside update markers are written to the PRD; the markers
// are removed from the reply shown to the user. Both turns are appended to
// the PRD's chat history.
func (p *Pipeline) ChatPRD(ctx context.Context, sess *auth.Session, prdID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.New(apperr.InvalidInput, "message is required")
	}
	prd, err := p.store.PRDs.Get(ctx, prdID)
	if err != nil {
		return nil, err
	}

	history, err := p.chat.Recent(ctx, prd.ID, p.historyTurns)
	if err != nil {
		logx.Warn().Err(err).Str("prd", prd.ID).Msg("pipeline: chat history unavailable")
		history = nil
	}

	userAt := p.now()
	text, err := p.gen.Generate(ctx, prompt.Chat(prd, history, message), llm.SettingsFor(llm.KindChat))
	if err != nil {
		return nil, err
	}

	reply := &ChatReply{Reply: airesp.StripUpdatedSections(text), PRD: prd}
	if reply.Reply == "" {
		reply.Reply = chatAcknowledgement
	}

	// Only explicit markers update the document.
	if sections := airesp.ExtractSections(text); sections.Confidence == airesp.ConfidenceStrict {
		updated, err := p.store.PRDs.ApplySections(ctx, prd.ID, sections.Values)
		if err != nil {
			return nil, err
		}
		reply.PRD = updated
		for name := range sections.Values {
			reply.Updated = append(reply.Updated, name)
		}
		slices.SortFunc(reply.Updated, func(a, b string) int {
			return slices.Index(models.SectionNames, a) - slices.Index(models.SectionNames, b)
		})
	}

	err = p.chat.Append(ctx, prd.ID,
		models.ChatTurn{Role: models.RoleUser, Content: message, At: userAt},
		models.ChatTurn{Role: models.RoleAssistant, Content: reply.Reply, At: p.now()},
	)
	if err != nil {
		logx.Warn().Err(err).Str("prd", prd.ID).Msg("pipeline: could not append chat history")
	}

	logx.Info().Str("prd", prd.ID).Strs("updated", reply.Updated).Str("actor", sess.ActorID()).Msg("pipeline: prd chat")
	return reply, nil
}

// ChatHistory returns a PRD's stored conversation, oldest first.
func (p *Pipeline) ChatHistory(ctx context.Context, prdID string) ([]models.ChatTurn, error) {
	if _, err := p.store.PRDs.Get(ctx, prdID); err != nil {
		return nil, err
	}
	return p.chat.Recent(ctx, prdID, 0)
}

// PublishPRD files an approved PRD with the configured publisher and marks
// it published.
func (p *Pipeline) PublishPRD(ctx context.Context, prdID string) (*models.PRDDraft, error) {
	if p.publisher == nil {
		return nil, apperr.New(apperr.InvalidInput, "PRD publishing is not configured").
			WithHint("set github.owner and github.repo in launchpad.yaml and LAUNCHPAD_GITHUB_TOKEN")
	}
	prd, err := p.store.PRDs.Get(ctx, prdID)
	if err != nil {
		return nil, err
	}
	if prd.Status != models.DocApproved {
		return nil, apperr.New(apperr.Conflict, "prd %s is %q; only approved PRDs can be published", prd.ID, prd.Status)
	}

	url, err := p.publisher.PublishPRD(ctx, prd)
	if err != nil {
		return nil, err
	}
	if err := p.store.PRDs.MarkPublished(ctx, prd.ID, url); err != nil {
		return nil, err
	}
	logx.Info().Str("prd", prd.ID).Str("url", url).Msg("pipeline: prd published")
	return p.store.PRDs.Get(ctx, prd.ID)
}
