// Package discord implements notify.Notifier for Discord over the REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/notify"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration after a 429.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 30 * time.Second

	// Embed limits enforced by Discord.
	maxTitleRunes       = 256
	maxDescriptionRunes = 4096
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts messages to a Discord channel.
type Notifier struct {
	sess        session
	channelID   string
	guildID     string
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// Opts holds parameters for creating a Discord Notifier.
type Opts struct {
	BotToken  string
	ChannelID string // default channel to post to
	GuildID   string // used for permalinks when the API omits it
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Notifier. No gateway connection is opened; sends
// go through REST.
func New(opts Opts) (*Notifier, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	n := &Notifier{
		sess:        opts.Session,
		channelID:   opts.ChannelID,
		guildID:     opts.GuildID,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
	if n.sess == nil {
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		n.sess = dg
	}
	return n, nil
}

// Send posts msg and returns a jump link to it.
func (n *Notifier) Send(ctx context.Context, msg notify.Message) (string, error) {
	channelID := msg.Channel
	if channelID == "" {
		channelID = n.channelID
	}
	if channelID == "" {
		return "", fmt.Errorf("discord: no channel specified and no default channel configured")
	}

	data := buildMessageSend(msg)
	var sent *discordgo.Message
	err := n.retryOnRateLimit(ctx, func() error {
		var err error
		sent, err = n.sess.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("discord: send message: %w", err)
	}
	if sent == nil || sent.ID == "" {
		return "", nil
	}

	guildID := sent.GuildID
	if guildID == "" {
		guildID = n.guildID
	}
	ch := sent.ChannelID
	if ch == "" {
		ch = channelID
	}
	return permalink(guildID, ch, sent.ID), nil
}

// permalink builds a message jump link. Direct-message channels use "@me".
func permalink(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// buildMessageSend translates a Message into a Discord MessageSend. Titled
// or colored messages become a single embed.
func buildMessageSend(msg notify.Message) *discordgo.MessageSend {
	if msg.Title == "" && msg.Color == "" && len(msg.Fields) == 0 {
		return &discordgo.MessageSend{Content: msg.Text}
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{messageToEmbed(msg)}}
}

// messageToEmbed converts a Message to a Discord Embed.
func messageToEmbed(msg notify.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       truncate(msg.Title, maxTitleRunes),
		Description: truncate(msg.Text, maxDescriptionRunes),
	}
	if msg.Color != "" {
		embed.Color = parseHexColor(msg.Color)
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func (n *Notifier) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil ||
			restErr.Response.StatusCode != http.StatusTooManyRequests {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * n.baseBackoff
		if wait > n.maxBackoff {
			wait = n.maxBackoff
		}
		logx.Debug().Int("attempt", attempt+1).Dur("wait", wait).Msg("discord: rate limited")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
