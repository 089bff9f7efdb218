package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/llm"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/notify"
	"github.com/zulandar/launchpad/internal/prompt"
	"github.com/zulandar/launchpad/internal/store"
)

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
}

// ContentResult is generated launch content and the asset recording it.
type ContentResult struct {
	Label  string               `json:"label"`
	Text   string               `json:"text"`
	Launch *models.ServiceLaunch `json:"launch"`
	Asset  *models.ContentAsset  `json:"asset"`
}

// GenerateLaunchContent writes one kind of launch copy for a PRD. The text
// is merged into the launch's generated content under the canonical label
// and also stored as a content asset linked to the PRD and its task.
func (p *Pipeline) GenerateLaunchContent(ctx context.Context, sess *auth.Session, prdID, label string) (*ContentResult, error) {
	label = prompt.CanonicalContentLabel(label)
	if label == "" {
		return nil, apperr.New(apperr.InvalidInput, "content type is required").
			WithHint("one of: " + strings.Join(prompt.ContentLabels, ", "))
	}
	prd, err := p.store.PRDs.Get(ctx, prdID)
	if err != nil {
		return nil, err
	}
	launch, err := p.store.Launches.GetOrCreate(ctx, sess, prd.ID)
	if err != nil {
		return nil, err
	}

	text, err := p.gen.Generate(ctx, prompt.Content(prd, launch.ImageURLs(), label), llm.SettingsFor(llm.KindContent))
	if err != nil {
		return nil, err
	}

	launch, err = p.store.Launches.MergeContent(ctx, launch.ID, label, text)
	if err != nil {
		return nil, err
	}
	asset, err := p.store.Content.Create(ctx, sess, &models.ContentAsset{
		TaskID:  prd.TaskID,
		PRDID:   &prd.ID,
		Type:    prompt.ContentAssetType(label),
		Title:   fmt.Sprintf("%s - %s", prd.Title, label),
		Content: text,
	})
	if err != nil {
		return nil, err
	}

	logx.Info().Str("prd", prd.ID).Str("launch", launch.ID).Str("label", label).Str("asset", asset.ID).
		Msg("pipeline: launch content generated")
	return &ContentResult{Label: label, Text: text, Launch: launch, Asset: asset}, nil
}

// ImageKey is the object key of a launch image slot.
func ImageKey(launchID string, slot int, ext string) string {
	return fmt.Sprintf("%s_image_%d.%s", launchID, slot+1, ext)
}

// UploadLaunchImage stores an image in a zero-based slot of a launch,
// replacing whatever the slot held.
func (p *Pipeline) UploadLaunchImage(ctx context.Context, launchID string, slot int, filename string, body io.Reader) (*models.ServiceLaunch, error) {
	if p.blobs == nil {
		return nil, apperr.New(apperr.InvalidInput, "image storage is not configured")
	}
	if _, ok := models.ImageColumn(slot); !ok {
		return nil, apperr.New(apperr.InvalidInput, "image slot must be 0-%d, got %d", models.LaunchImageSlots-1, slot)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !imageExtensions[ext] {
		return nil, apperr.New(apperr.InvalidInput, "unsupported image file %q", filename).
			WithHint("upload a png, jpg, gif or webp file")
	}
	launch, err := p.store.Launches.Get(ctx, launchID)
	if err != nil {
		return nil, err
	}

	key := ImageKey(launch.ID, slot, ext)
	if err := p.blobs.Put(ctx, key, body); err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "could not store the image")
	}
	updated, err := p.store.Launches.SetImageURL(ctx, launch.ID, slot, p.blobs.URL(key))
	if err != nil {
		return nil, err
	}
	logx.Info().Str("launch", launch.ID).Int("slot", slot).Str("key", key).Msg("pipeline: launch image stored")
	return updated, nil
}

// PublishContent posts an asset to its target channel and marks it
// published with the message permalink as its output URL.
func (p *Pipeline) PublishContent(ctx context.Context, assetID string) (*models.ContentAsset, error) {
	asset, err := p.store.Content.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !store.DocTransitions.Allowed(asset.Status, models.DocPublished) {
		return nil, apperr.New(apperr.Conflict, "content asset %s is already %s", asset.ID, asset.Status)
	}
	if p.notifier.Empty() {
		return nil, apperr.New(apperr.InvalidInput, "no notification channels are configured").
			WithHint("set notify.slack or notify.discord in launchpad.yaml")
	}

	target := ""
	if asset.TargetChannel != nil {
		target = *asset.TargetChannel
	}
	link, err := p.notifier.SendTo(ctx, target, notify.Message{
		Title:  asset.Title,
		Text:   asset.Content,
		Color:  notify.ColorInfo,
		Fields: []notify.Field{{Name: "Type", Value: asset.Type, Short: true}},
	})
	if err != nil {
		return nil, err
	}
	if err := p.store.Content.MarkPublished(ctx, asset.ID, link); err != nil {
		return nil, err
	}
	logx.Info().Str("asset", asset.ID).Str("channel", target).Str("url", link).Msg("pipeline: content published")
	return p.store.Content.Get(ctx, asset.ID)
}
