package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
)

// Tasks persists task candidates.
type Tasks struct {
	db *gorm.DB
}

// TaskFilter narrows a task listing. Empty fields match everything.
type TaskFilter struct {
	Status   string
	Priority string
	SourceID string
}

func (f TaskFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.SourceID != "" {
		q = q.Where("source_feedback_id = ?", f.SourceID)
	}
	return q
}

// List returns one page of tasks, newest first.
func (r *Tasks) List(ctx context.Context, page Page, filter TaskFilter) (*List[models.TaskCandidate], error) {
	out, err := list[models.TaskCandidate](ctx, r.db, page, filter.apply)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	return out, nil
}

// Find returns every task matching filter, newest first. Used where the
// whole set must be ordered in memory, such as ranked listings.
func (r *Tasks) Find(ctx context.Context, filter TaskFilter) ([]models.TaskCandidate, error) {
	var out []models.TaskCandidate
	if err := filter.apply(r.db.WithContext(ctx)).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: find tasks: %w", err)
	}
	return out, nil
}

// TaskCursor is a position in creation order. Rows sharing a timestamp are
// ordered by id.
type TaskCursor struct {
	CreatedAt time.Time
	ID        string
}

// After returns the cursor positioned on t.
func (c TaskCursor) After(t models.TaskCandidate) TaskCursor {
	return TaskCursor{CreatedAt: t.CreatedAt, ID: t.ID}
}

// CreatedAfter returns tasks positioned strictly after the cursor, oldest
// first. A cursor without an id matches every task created after its time.
func (r *Tasks) CreatedAfter(ctx context.Context, after TaskCursor, limit int) ([]models.TaskCandidate, error) {
	var out []models.TaskCandidate
	q := r.db.WithContext(ctx)
	if after.ID == "" {
		q = q.Where("created_at > ?", after.CreatedAt)
	} else {
		q = q.Where("created_at > ? OR (created_at = ? AND id > ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	q = q.Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: tasks created after %s: %w", after.CreatedAt.Format(time.RFC3339), err)
	}
	return out, nil
}

var validPriorities = map[string]bool{
	models.PriorityHigh:   true,
	models.PriorityMedium: true,
	models.PriorityLow:    true,
}

func prepareTask(sess *auth.Session, t *models.TaskCandidate) error {
	if err := required("task", map[string]string{"title": t.Title}); err != nil {
		return err
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !validPriorities[t.Priority] {
		return apperr.New(apperr.InvalidInput, "unknown task priority %q", t.Priority)
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if !TaskTransitions.Known(t.Status) {
		return invalidStatus("task", t.Status)
	}
	if err := inRange("development_cost", t.DevelopmentCost, 1, 3); err != nil {
		return err
	}
	if err := inRange("effect_score", t.EffectScore, 1, 3); err != nil {
		return err
	}
	t.ID = uuid.NewString()
	t.CreatedBy = sess.ActorID()
	return nil
}

// Create stores one task.
func (r *Tasks) Create(ctx context.Context, sess *auth.Session, t *models.TaskCandidate) (*models.TaskCandidate, error) {
	if err := prepareTask(sess, t); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}
	return t, nil
}

// CreateBatch stores tasks derived from one feedback source in a single
// transaction. sourceID may be empty.
func (r *Tasks) CreateBatch(ctx context.Context, sess *auth.Session, sourceID string, tasks []models.TaskCandidate) ([]models.TaskCandidate, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	for i := range tasks {
		if sourceID != "" {
			tasks[i].SourceFeedbackID = &sourceID
		}
		if err := prepareTask(sess, &tasks[i]); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&tasks).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: create %d tasks: %w", len(tasks), err)
	}
	return tasks, nil
}

// Get loads one task.
func (r *Tasks) Get(ctx context.Context, id string) (*models.TaskCandidate, error) {
	return get[models.TaskCandidate](ctx, r.db, "task", id)
}

// UpdateStatus advances a task through its workflow.
func (r *Tasks) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, &models.TaskCandidate{}, "task", TaskTransitions, id, status, nil)
}
