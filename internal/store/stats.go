package store

import (
	"context"
	"fmt"

	"github.com/zulandar/launchpad/internal/models"
)

// Stats are the dashboard header counters.
type Stats struct {
	ActiveSources  int64 `json:"active_sources"`
	Tasks          int64 `json:"tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PRDs           int64 `json:"prds"`
	ContentAssets  int64 `json:"content_assets"`
}

// Stats counts records for the dashboard.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	counts := []struct {
		name  string
		model any
		where map[string]any
		dst   *int64
	}{
		{"active sources", &models.FeedbackSource{}, map[string]any{"status": models.SourceActive}, &st.ActiveSources},
		{"tasks", &models.TaskCandidate{}, nil, &st.Tasks},
		{"pending tasks", &models.TaskCandidate{}, map[string]any{"status": models.TaskPending}, &st.PendingTasks},
		{"completed tasks", &models.TaskCandidate{}, map[string]any{"status": models.TaskCompleted}, &st.CompletedTasks},
		{"prds", &models.PRDDraft{}, nil, &st.PRDs},
		{"content assets", &models.ContentAsset{}, nil, &st.ContentAssets},
	}
	for _, c := range counts {
		q := s.db.WithContext(ctx).Model(c.model)
		if c.where != nil {
			q = q.Where(c.where)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("store: count %s: %w", c.name, err)
		}
	}
	return &st, nil
}
