// Package slack implements notify.Notifier for Slack using the Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/notify"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	GetPermalinkContext(ctx context.Context, params *slackapi.PermalinkParameters) (string, error)
}

// Notifier posts messages with chat.postMessage.
type Notifier struct {
	client    slackClient
	channelID string // default channel for messages without explicit channel
}

// Opts holds parameters for creating a Slack Notifier.
type Opts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // default channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	n := &Notifier{client: opts.Client, channelID: opts.ChannelID}
	if n.client == nil {
		n.client = slackapi.New(opts.BotToken)
	}
	return n, nil
}

// Send posts msg and returns its permalink. A permalink lookup failure is
// logged and yields an empty link; the message itself was delivered.
func (n *Notifier) Send(ctx context.Context, msg notify.Message) (string, error) {
	channelID := msg.Channel
	if channelID == "" {
		channelID = n.channelID
	}
	if channelID == "" {
		return "", fmt.Errorf("slack: no channel specified and no default channel configured")
	}

	var postedChannel, ts string
	err := retryOnRateLimit(ctx, func() error {
		var err error
		postedChannel, ts, err = n.client.PostMessageContext(ctx, channelID, buildMessageOptions(msg)...)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("slack: post message: %w", err)
	}

	var link string
	err = retryOnRateLimit(ctx, func() error {
		var err error
		link, err = n.client.GetPermalinkContext(ctx, &slackapi.PermalinkParameters{Channel: postedChannel, Ts: ts})
		return err
	})
	if err != nil {
		logx.Warn().Err(err).Str("channel", postedChannel).Str("ts", ts).Msg("slack: permalink lookup failed")
		return "", nil
	}
	return link, nil
}

// buildMessageOptions translates a Message into Slack MsgOptions. Messages
// with a title, color or fields are rendered as a single attachment.
func buildMessageOptions(msg notify.Message) []slackapi.MsgOption {
	if msg.Title == "" && msg.Color == "" && len(msg.Fields) == 0 {
		return []slackapi.MsgOption{slackapi.MsgOptionText(msg.Text, false)}
	}
	options := []slackapi.MsgOption{slackapi.MsgOptionAttachments(messageToAttachment(msg))}
	// Use title as notification fallback.
	if msg.Title != "" {
		options = append(options, slackapi.MsgOptionText(msg.Title, false))
	}
	return options
}

// messageToAttachment converts a Message to a Slack Attachment.
func messageToAttachment(msg notify.Message) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    msg.Title,
		Text:     msg.Text,
		Color:    msg.Color,
		Fallback: msg.Title,
	}
	for _, f := range msg.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return att
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
// It respects context cancellation and the RetryAfter duration from Slack.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}
		logx.Debug().Int("attempt", attempt+1).Dur("wait", wait).Msg("slack: rate limited")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
