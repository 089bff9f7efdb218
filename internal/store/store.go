// Package store is the persistence layer over GORM. Every list is ordered by
// creation time, newest first. Status updates are single conditional
// UPDATE statements; concurrent writers otherwise get last-write-wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/models"
)

// Page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a window of a list. A zero Limit uses DefaultPageSize.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// List is one page of records plus the total count across all pages.
type List[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

// Store groups the repositories.
type Store struct {
	db *gorm.DB

	Sources  *Sources
	Tasks    *Tasks
	PRDs     *PRDs
	Content  *ContentAssets
	Launches *Launches
	Analyses *Analyses
}

// New builds a Store over an open, migrated database.
func New(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Sources:  &Sources{db: db},
		Tasks:    &Tasks{db: db},
		PRDs:     &PRDs{db: db},
		Content:  &ContentAssets{db: db},
		Launches: &Launches{db: db},
		Analyses: &Analyses{db: db},
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

func list[T any](ctx context.Context, db *gorm.DB, page Page, scope func(*gorm.DB) *gorm.DB) (*List[T], error) {
	page = page.normalize()
	q := db.WithContext(ctx).Model(new(T))
	if scope != nil {
		q = scope(q)
	}
	// Share the conditions between the count and the page query.
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	items := make([]T, 0, page.Limit)
	if err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return &List[T]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

func get[T any](ctx context.Context, db *gorm.DB, what, id string) (*T, error) {
	var rec T
	err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(what, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s %s: %w", what, id, err)
	}
	return &rec, nil
}

// Transitions maps each status to the statuses it may move to.
type Transitions map[string][]string

// TaskTransitions is the task candidate workflow. Rejected and completed
// are terminal.
var TaskTransitions = Transitions{
	models.TaskPending:    {models.TaskApproved, models.TaskRejected},
	models.TaskApproved:   {models.TaskInProgress, models.TaskRejected},
	models.TaskInProgress: {models.TaskCompleted},
}

// DocTransitions is shared by PRD drafts and content assets. Documents only
// move forward; skipping stages is allowed.
var DocTransitions = Transitions{
	models.DocDraft:    {models.DocReview, models.DocApproved, models.DocPublished},
	models.DocReview:   {models.DocApproved, models.DocPublished},
	models.DocApproved: {models.DocPublished},
}

// LaunchTransitions is the service launch workflow.
var LaunchTransitions = Transitions{
	models.LaunchPreparing: {models.LaunchReady, models.LaunchLaunched},
	models.LaunchReady:     {models.LaunchLaunched},
}

// SourceTransitions allows toggling sources and archiving them for good.
var SourceTransitions = Transitions{
	models.SourceActive:   {models.SourceInactive, models.SourceArchived},
	models.SourceInactive: {models.SourceActive, models.SourceArchived},
}

// Known reports whether status appears anywhere in the table.
func (t Transitions) Known(status string) bool {
	if _, ok := t[status]; ok {
		return true
	}
	for _, next := range t {
		if slices.Contains(next, status) {
			return true
		}
	}
	return false
}

// Allowed reports whether from may move to to.
func (t Transitions) Allowed(from, to string) bool {
	return slices.Contains(t[from], to)
}

// sources returns every status that may move to to, plus to itself so a
// repeated update is a no-op rather than a conflict.
func (t Transitions) sources(to string) []string {
	out := []string{to}
	for from, next := range t {
		if slices.Contains(next, to) {
			out = append(out, from)
		}
	}
	slices.Sort(out)
	return out
}

// updateStatus moves a record to status `to` with one conditional UPDATE.
// extra columns are written in the same statement.
func updateStatus(ctx context.Context, db *gorm.DB, model any, what string, t Transitions, id, to string, extra map[string]any) error {
	if !t.Known(to) {
		return invalidStatus(what, to)
	}
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND status IN ?", id, t.sources(to)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("store: update %s %s status: %w", what, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current struct{ Status string }
	err := db.WithContext(ctx).Model(model).Select("status").Where("id = ?", id).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what, id)
	}
	if err != nil {
		return fmt.Errorf("store: reload %s %s: %w", what, id, err)
	}
	e := apperr.New(apperr.Conflict, "%s %s cannot move from %q to %q", what, id, current.Status, to)
	if valid := t[current.Status]; len(valid) > 0 {
		return e.WithHint("valid next statuses: " + strings.Join(valid, ", "))
	}
	return e.WithHint(fmt.Sprintf("%q is a final status", current.Status))
}

func required(what string, fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return apperr.New(apperr.InvalidInput, "%s: missing required field(s): %s", what, strings.Join(missing, ", "))
}

func inRange(name string, v *int, lo, hi int) error {
	if v != nil && (*v < lo || *v > hi) {
		return apperr.New(apperr.InvalidInput, "%s must be between %d and %d, got %d", name, lo, hi, *v)
	}
	return nil
}

func notFound(what, id string) error {
	return apperr.New(apperr.NotFound, "%s not found: %s", what, id)
}

func invalidStatus(what, status string) error {
	return apperr.New(apperr.InvalidInput, "unknown %s status %q", what, status)
}
