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

// ContentAssets persists generated content.
type ContentAssets struct {
	db *gorm.DB
}

// ContentFilter narrows a content listing.
type ContentFilter struct {
	PRDID  string
	Type   string
	Status string
}

func (f ContentFilter) apply(q *gorm.DB) *gorm.DB {
	if f.PRDID != "" {
		q = q.Where("prd_id = ?", f.PRDID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

var (
	validContentTypes = map[string]bool{
		models.ContentFAQ:          true,
		models.ContentBanner:       true,
		models.ContentNotification: true,
		models.ContentGuide:        true,
		models.ContentAnnouncement: true,
	}
	validChannels = map[string]bool{
		models.ChannelSlack:          true,
		models.ChannelConfluence:     true,
		models.ChannelBlog:           true,
		models.ChannelCustomerCenter: true,
		models.ChannelAppPopup:       true,
		models.ChannelDiscord:        true,
	}
)

// List returns one page of content assets.
func (r *ContentAssets) List(ctx context.Context, page Page, filter ContentFilter) (*List[models.ContentAsset], error) {
	out, err := list[models.ContentAsset](ctx, r.db, page, filter.apply)
	if err != nil {
		return nil, fmt.Errorf("store: list content assets: %w", err)
	}
	return out, nil
}

// Create stores a content asset. Type and title are required.
func (r *ContentAssets) Create(ctx context.Context, sess *auth.Session, a *models.ContentAsset) (*models.ContentAsset, error) {
	if err := required("content asset", map[string]string{"type": a.Type, "title": a.Title}); err != nil {
		return nil, err
	}
	if !validContentTypes[a.Type] {
		return nil, apperr.New(apperr.InvalidInput, "unknown content type %q", a.Type)
	}
	if a.TargetChannel != nil && !validChannels[*a.TargetChannel] {
		return nil, apperr.New(apperr.InvalidInput, "unknown target channel %q", *a.TargetChannel)
	}
	if a.Status == "" {
		a.Status = models.DocDraft
	}
	if !DocTransitions.Known(a.Status) {
		return nil, invalidStatus("content asset", a.Status)
	}
	a.ID = uuid.NewString()
	a.CreatedBy = sess.ActorID()
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("store: create content asset: %w", err)
	}
	return a, nil
}

// Get loads one asset.
func (r *ContentAssets) Get(ctx context.Context, id string) (*models.ContentAsset, error) {
	return get[models.ContentAsset](ctx, r.db, "content asset", id)
}

// UpdateStatus moves an asset forward through its lifecycle.
func (r *ContentAssets) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, &models.ContentAsset{}, "content asset", DocTransitions, id, status, nil)
}

// MarkPublished stores where the asset was posted and moves it to published.
func (r *ContentAssets) MarkPublished(ctx context.Context, id, outputURL string) error {
	return updateStatus(ctx, r.db, &models.ContentAsset{}, "content asset", DocTransitions, id,
		models.DocPublished, map[string]any{"output_url": outputURL})
}
