package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
)

// PRDs persists PRD drafts.
type PRDs struct {
	db *gorm.DB
}

// List returns one page of PRDs. An empty status matches all.
func (r *PRDs) List(ctx context.Context, page Page, status string) (*List[models.PRDDraft], error) {
	out, err := list[models.PRDDraft](ctx, r.db, page, func(q *gorm.DB) *gorm.DB {
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	})
	if err != nil {
		return nil, fmt.Errorf("store: list prds: %w", err)
	}
	return out, nil
}

// Create stores a new draft at version 1 unless a version is given.
func (r *PRDs) Create(ctx context.Context, sess *auth.Session, p *models.PRDDraft) (*models.PRDDraft, error) {
	if err := required("prd", map[string]string{"title": p.Title}); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = models.DocDraft
	}
	if !DocTransitions.Known(p.Status) {
		return nil, invalidStatus("prd", p.Status)
	}
	if p.Version <= 0 {
		p.Version = 1
	}
	p.ID = uuid.NewString()
	p.CreatedBy = sess.ActorID()
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("store: create prd: %w", err)
	}
	return p, nil
}

// Get loads one PRD.
func (r *PRDs) Get(ctx context.Context, id string) (*models.PRDDraft, error) {
	return get[models.PRDDraft](ctx, r.db, "prd", id)
}

// Save replaces the title and all five sections. The version is left as is.
func (r *PRDs) Save(ctx context.Context, id, title string, sections map[string]string) (*models.PRDDraft, error) {
	if err := required("prd", map[string]string{"title": title}); err != nil {
		return nil, err
	}
	updates := map[string]any{"title": title}
	for _, name := range models.SectionNames {
		updates[name] = sections[name]
	}
	return r.update(ctx, id, updates)
}

// ApplySections overwrites only the named sections. Unknown names are an
// InvalidInput error; an empty map is a no-op.
func (r *PRDs) ApplySections(ctx context.Context, id string, sections map[string]string) (*models.PRDDraft, error) {
	if len(sections) == 0 {
		return r.Get(ctx, id)
	}
	var probe models.PRDDraft
	updates := make(map[string]any, len(sections))
	for name, text := range sections {
		if !probe.SetSection(name, text) {
			return nil, apperr.New(apperr.InvalidInput, "unknown prd section %q", name)
		}
		updates[name] = text
	}
	return r.update(ctx, id, updates)
}

// SetVersion records an explicit version bump.
func (r *PRDs) SetVersion(ctx context.Context, id string, version int) (*models.PRDDraft, error) {
	if version < 1 {
		return nil, apperr.New(apperr.InvalidInput, "version must be at least 1, got %d", version)
	}
	return r.update(ctx, id, map[string]any{"version": version})
}

func (r *PRDs) update(ctx context.Context, id string, updates map[string]any) (*models.PRDDraft, error) {
	res := r.db.WithContext(ctx).Model(&models.PRDDraft{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("store: update prd %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("prd", id)
	}
	return r.Get(ctx, id)
}

// UpdateStatus moves a PRD forward through draft, review, approved and
// published.
func (r *PRDs) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, &models.PRDDraft{}, "prd", DocTransitions, id, status, nil)
}

// MarkPublished sets the output URL and moves an approved PRD to published
// in one statement.
func (r *PRDs) MarkPublished(ctx context.Context, id, outputURL string) error {
	return updateStatus(ctx, r.db, &models.PRDDraft{}, "prd", Transitions{
		models.DocApproved: {models.DocPublished},
	}, id, models.DocPublished, map[string]any{"output_url": outputURL})
}
