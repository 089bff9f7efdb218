package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/launchpad/internal/notify"
)

// --- Mock Slack client ---

type mockSlackClient struct {
	mu         sync.Mutex
	posted     []postedMessage
	postErrs   []error // consumed one per call
	linkErr    error
	linkParams *slackapi.PermalinkParameters
}

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

func (m *mockSlackClient) PostMessageContext(_ context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.postErrs) > 0 {
		err := m.postErrs[0]
		m.postErrs = m.postErrs[1:]
		if err != nil {
			return "", "", err
		}
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, "1234567890.123456", nil
}

func (m *mockSlackClient) GetPermalinkContext(_ context.Context, params *slackapi.PermalinkParameters) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkParams = params
	if m.linkErr != nil {
		return "", m.linkErr
	}
	return fmt.Sprintf("https://acme.slack.com/archives/%s/p%s", params.Channel, strings.ReplaceAll(params.Ts, ".", "")), nil
}

func newTestNotifier(t *testing.T) (*Notifier, *mockSlackClient) {
	t.Helper()
	client := &mockSlackClient{}
	n, err := New(Opts{ChannelID: "C_DEFAULT", Client: client})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n, client
}

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(Opts{})
	if err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("err = %v, want bot token error", err)
	}
}

func TestNew_WithToken(t *testing.T) {
	n, err := New(Opts{BotToken: "xoxb-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.client == nil {
		t.Error("client should be created from token")
	}
}

func TestSend_ReturnsPermalink(t *testing.T) {
	n, client := newTestNotifier(t)

	link, err := n.Send(context.Background(), notify.Message{Channel: "C_LAUNCH", Text: "hello"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if want := "https://acme.slack.com/archives/C_LAUNCH/p1234567890123456"; link != want {
		t.Errorf("link = %q, want %q", link, want)
	}
	if len(client.posted) != 1 || client.posted[0].channelID != "C_LAUNCH" {
		t.Errorf("posted = %+v, want one post to C_LAUNCH", client.posted)
	}
	if client.linkParams.Ts != "1234567890.123456" {
		t.Errorf("permalink ts = %q", client.linkParams.Ts)
	}
}

func TestSend_DefaultChannel(t *testing.T) {
	n, client := newTestNotifier(t)
	if _, err := n.Send(context.Background(), notify.Message{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.posted[0].channelID != "C_DEFAULT" {
		t.Errorf("channel = %q, want C_DEFAULT", client.posted[0].channelID)
	}
}

func TestSend_NoChannel(t *testing.T) {
	n, err := New(Opts{Client: &mockSlackClient{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := n.Send(context.Background(), notify.Message{Text: "hi"}); err == nil {
		t.Fatal("expected error without channel")
	}
}

func TestSend_PostError(t *testing.T) {
	n, client := newTestNotifier(t)
	client.postErrs = []error{errors.New("channel_not_found")}

	_, err := n.Send(context.Background(), notify.Message{Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("err = %v, want channel_not_found", err)
	}
}

func TestSend_PermalinkFailureIsNotFatal(t *testing.T) {
	n, client := newTestNotifier(t)
	client.linkErr = errors.New("message_not_found")

	link, err := n.Send(context.Background(), notify.Message{Text: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if link != "" {
		t.Errorf("link = %q, want empty", link)
	}
}

func TestSend_RetriesOnRateLimit(t *testing.T) {
	n, client := newTestNotifier(t)
	client.postErrs = []error{&slackapi.RateLimitedError{RetryAfter: time.Millisecond}}

	if _, err := n.Send(context.Background(), notify.Message{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(client.posted) != 1 {
		t.Errorf("posted = %d, want 1", len(client.posted))
	}
}

// --- buildMessageOptions tests ---

func TestBuildMessageOptions_TextOnly(t *testing.T) {
	opts := buildMessageOptions(notify.Message{Text: "hello"})
	if len(opts) != 1 {
		t.Errorf("expected 1 option, got %d", len(opts))
	}
}

func TestBuildMessageOptions_WithTitle(t *testing.T) {
	opts := buildMessageOptions(notify.Message{Title: "FAQ", Text: "body"})
	// attachment + fallback text
	if len(opts) != 2 {
		t.Errorf("expected 2 options, got %d", len(opts))
	}
}

func TestBuildMessageOptions_ColorOnly(t *testing.T) {
	opts := buildMessageOptions(notify.Message{Text: "body", Color: "#fff"})
	if len(opts) != 1 {
		t.Errorf("expected 1 option, got %d", len(opts))
	}
}

func TestMessageToAttachment(t *testing.T) {
	att := messageToAttachment(notify.Message{
		Title: "Analysis complete",
		Text:  "12 feedback rows",
		Color: notify.ColorSuccess,
		Fields: []notify.Field{
			{Name: "Tasks", Value: "5", Short: true},
			{Name: "Source", Value: "VOC", Short: true},
		},
	})
	if att.Title != "Analysis complete" {
		t.Errorf("title = %q", att.Title)
	}
	if att.Text != "12 feedback rows" {
		t.Errorf("text = %q", att.Text)
	}
	if att.Color != notify.ColorSuccess {
		t.Errorf("color = %q", att.Color)
	}
	if att.Fallback != "Analysis complete" {
		t.Errorf("fallback = %q", att.Fallback)
	}
	if len(att.Fields) != 2 || att.Fields[0].Title != "Tasks" || !att.Fields[0].Short {
		t.Errorf("fields = %+v", att.Fields)
	}
}

// --- retryOnRateLimit tests ---

func TestRetryOnRateLimit_NonRateLimitError(t *testing.T) {
	calls := 0
	err := retryOnRateLimit(context.Background(), func() error {
		calls++
		return fmt.Errorf("some other error")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("should not retry non-rate-limit errors, calls = %d", calls)
	}
}

func TestRetryOnRateLimit_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := retryOnRateLimit(context.Background(), func() error {
		calls++
		return &slackapi.RateLimitedError{RetryAfter: time.Millisecond}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, calls)
	}
}

func TestRetryOnRateLimit_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryOnRateLimit(ctx, func() error {
		calls++
		return &slackapi.RateLimitedError{RetryAfter: time.Second}
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before context cancel, got %d", calls)
	}
}
