package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
)

// Analyses persists raw analysis output. Rows are never updated.
type Analyses struct {
	db *gorm.DB
}

// Create stores one analysis run.
func (r *Analyses) Create(ctx context.Context, sess *auth.Session, a *models.AnalysisResult) (*models.AnalysisResult, error) {
	if err := required("analysis result", map[string]string{"source_feedback_id": a.SourceFeedbackID}); err != nil {
		return nil, err
	}
	if a.AnalysisType == "" {
		a.AnalysisType = "voc"
	}
	a.ID = uuid.NewString()
	a.CreatedBy = sess.ActorID()
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("store: create analysis result: %w", err)
	}
	return a, nil
}

// ListBySource returns a source's analysis runs, newest first.
func (r *Analyses) ListBySource(ctx context.Context, sourceID string, page Page) (*List[models.AnalysisResult], error) {
	out, err := list[models.AnalysisResult](ctx, r.db, page, func(q *gorm.DB) *gorm.DB {
		return q.Where("source_feedback_id = ?", sourceID)
	})
	if err != nil {
		return nil, fmt.Errorf("store: list analyses for %s: %w", sourceID, err)
	}
	return out, nil
}

// SetTasksCreated records how many tasks a run produced.
func (r *Analyses) SetTasksCreated(ctx context.Context, id string, n int) error {
	err := r.db.WithContext(ctx).Model(&models.AnalysisResult{}).Where("id = ?", id).Update("tasks_created", n).Error
	if err != nil {
		return fmt.Errorf("store: update analysis %s: %w", id, err)
	}
	return nil
}
