package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
)

// Launches persists service launches, one per PRD.
type Launches struct {
	db *gorm.DB
}

// Get loads one launch.
func (r *Launches) Get(ctx context.Context, id string) (*models.ServiceLaunch, error) {
	return get[models.ServiceLaunch](ctx, r.db, "launch", id)
}

// ByPRD loads the launch of a PRD.
func (r *Launches) ByPRD(ctx context.Context, prdID string) (*models.ServiceLaunch, error) {
	var l models.ServiceLaunch
	err := r.db.WithContext(ctx).Where("prd_id = ?", prdID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("launch for prd", prdID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: launch for prd %s: %w", prdID, err)
	}
	return &l, nil
}

// GetOrCreate returns the PRD's launch, creating a preparing one if none
// exists. The PRD must exist.
func (r *Launches) GetOrCreate(ctx context.Context, sess *auth.Session, prdID string) (*models.ServiceLaunch, error) {
	if l, err := r.ByPRD(ctx, prdID); err == nil {
		return l, nil
	} else if !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}
	if _, err := get[models.PRDDraft](ctx, r.db, "prd", prdID); err != nil {
		return nil, err
	}

	l := &models.ServiceLaunch{
		ID:               uuid.NewString(),
		PRDID:            prdID,
		Status:           models.LaunchPreparing,
		GeneratedContent: datatypes.JSONMap{},
		CreatedBy:        sess.ActorID(),
	}
	// A concurrent creator wins the unique index; reload theirs.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l)
	if res.Error != nil {
		return nil, fmt.Errorf("store: create launch for prd %s: %w", prdID, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.ByPRD(ctx, prdID)
	}
	return l, nil
}

// SetImageURL fills a zero-based image slot.
func (r *Launches) SetImageURL(ctx context.Context, id string, slot int, url string) (*models.ServiceLaunch, error) {
	col, ok := models.ImageColumn(slot)
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "image slot must be 0-%d, got %d", models.LaunchImageSlots-1, slot)
	}
	res := r.db.WithContext(ctx).Model(&models.ServiceLaunch{}).Where("id = ?", id).Update(col, url)
	if res.Error != nil {
		return nil, fmt.Errorf("store: set launch %s image %d: %w", id, slot, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("launch", id)
	}
	return r.Get(ctx, id)
}

// MergeContent stores text under label in the launch's generated content,
// keeping other labels.
func (r *Launches) MergeContent(ctx context.Context, id, label, text string) (*models.ServiceLaunch, error) {
	var out models.ServiceLaunch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&out).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("launch", id)
		}
		if err != nil {
			return err
		}
		merged := datatypes.JSONMap{}
		for k, v := range out.GeneratedContent {
			merged[k] = v
		}
		merged[label] = text
		out.GeneratedContent = merged
		return tx.Model(&out).Update("generated_content", merged).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("store: merge launch %s content: %w", id, err)
	}
	return &out, nil
}

// UpdateStatus moves a launch from preparing to ready to launched.
func (r *Launches) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, &models.ServiceLaunch{}, "launch", LaunchTransitions, id, status, nil)
}
