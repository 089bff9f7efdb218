package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
)

// Sources persists feedback sources. Sources are archived, never deleted.
type Sources struct {
	db *gorm.DB
}

// List returns sources of any status. An empty status matches all.
func (r *Sources) List(ctx context.Context, page Page, status string) (*List[models.FeedbackSource], error) {
	out, err := list[models.FeedbackSource](ctx, r.db, page, func(q *gorm.DB) *gorm.DB {
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	})
	if err != nil {
		return nil, fmt.Errorf("store: list feedback sources: %w", err)
	}
	return out, nil
}

// ListActive returns every active source, newest first.
func (r *Sources) ListActive(ctx context.Context) ([]models.FeedbackSource, error) {
	var out []models.FeedbackSource
	err := r.db.WithContext(ctx).
		Where("status = ?", models.SourceActive).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("store: list active sources: %w", err)
	}
	return out, nil
}

// Create stores a new source. Name is required; status defaults to active.
func (r *Sources) Create(ctx context.Context, sess *auth.Session, src *models.FeedbackSource) (*models.FeedbackSource, error) {
	if err := required("feedback source", map[string]string{"name": src.Name}); err != nil {
		return nil, err
	}
	if src.Status == "" {
		src.Status = models.SourceActive
	}
	if !SourceTransitions.Known(src.Status) {
		return nil, invalidStatus("feedback source", src.Status)
	}
	src.ID = uuid.NewString()
	src.CreatedBy = sess.ActorID()
	if err := r.db.WithContext(ctx).Create(src).Error; err != nil {
		return nil, fmt.Errorf("store: create feedback source: %w", err)
	}
	return src, nil
}

// Get loads one source.
func (r *Sources) Get(ctx context.Context, id string) (*models.FeedbackSource, error) {
	return get[models.FeedbackSource](ctx, r.db, "feedback source", id)
}

// MarkAnalyzed records a completed analysis run.
func (r *Sources) MarkAnalyzed(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.FeedbackSource{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_analyzed_at": at})
	if res.Error != nil {
		return fmt.Errorf("store: mark source %s analyzed: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("feedback source", id)
	}
	return nil
}

// UpdateStatus moves a source between active, inactive and archived.
func (r *Sources) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, &models.FeedbackSource{}, "feedback source", SourceTransitions, id, status, nil)
}
