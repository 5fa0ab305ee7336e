package herald

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/roundtable/internal/config"
)

type fakeNotifier struct {
	name  string
	err   error
	calls int
	last  Announcement
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Announce(ctx context.Context, a Announcement) error {
	f.calls++
	f.last = a
	return f.err
}

func TestAnnounce_FansOutPastFailures(t *testing.T) {
	bad := &fakeNotifier{name: "bad", err: errors.New("unreachable")}
	good := &fakeNotifier{name: "good"}
	h := New(bad, good)

	a := Announcement{SessionID: "s1", Summary: "done"}
	h.Announce(context.Background(), a)

	if bad.calls != 1 || good.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", bad.calls, good.calls)
	}
	if good.last.Summary != "done" {
		t.Errorf("delivered summary = %q, want done", good.last.Summary)
	}
}

func TestFromConfig(t *testing.T) {
	h := FromConfig(config.HeraldConfig{})
	if h.Enabled() {
		t.Error("empty config should yield a disabled herald")
	}

	h = FromConfig(config.HeraldConfig{
		SlackWebhookURL:     "https://hooks.slack.com/services/x",
		DiscordWebhookID:    "123",
		DiscordWebhookToken: "tok",
	})
	if len(h.notifiers) != 2 {
		t.Errorf("len(notifiers) = %d, want 2", len(h.notifiers))
	}
}

func TestSlackNotifier(t *testing.T) {
	var gotURL string
	var gotMsg *slackapi.WebhookMessage
	n := NewSlackNotifier("https://hooks.slack.com/services/x")
	n.post = func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error {
		gotURL = url
		gotMsg = msg
		return nil
	}

	err := n.Announce(context.Background(), Announcement{
		SessionID:     "s1",
		Summary:       "experts agree",
		FinalProposal: "v3",
		Options:       []string{"a", "b"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotURL != "https://hooks.slack.com/services/x" {
		t.Errorf("url = %q", gotURL)
	}
	if len(gotMsg.Attachments) != 1 {
		t.Fatalf("len(Attachments) = %d, want 1", len(gotMsg.Attachments))
	}
	if n := len(gotMsg.Attachments[0].Fields); n != 4 {
		t.Errorf("len(Fields) = %d, want 4", n)
	}
}

func TestSlackNotifier_Error(t *testing.T) {
	n := NewSlackNotifier("https://hooks.slack.com/services/x")
	n.post = func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error {
		return errors.New("410 gone")
	}
	if err := n.Announce(context.Background(), Announcement{SessionID: "s1"}); err == nil {
		t.Error("expected webhook error to propagate")
	}
}

type fakeDiscordSession struct {
	gotID     string
	gotToken  string
	gotParams *discordgo.WebhookParams
	err       error
}

func (f *fakeDiscordSession) WebhookExecute(id, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.gotID = id
	f.gotToken = token
	f.gotParams = data
	return nil, f.err
}

func TestDiscordNotifier(t *testing.T) {
	sess := &fakeDiscordSession{}
	n := NewDiscordNotifier("123", "tok")
	n.sess = sess

	err := n.Announce(context.Background(), Announcement{
		SessionID: "s1",
		Summary:   "experts agree",
		Options:   []string{"a"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if sess.gotID != "123" || sess.gotToken != "tok" {
		t.Errorf("webhook target = %s/%s, want 123/tok", sess.gotID, sess.gotToken)
	}
	if len(sess.gotParams.Embeds) != 1 {
		t.Fatalf("len(Embeds) = %d, want 1", len(sess.gotParams.Embeds))
	}
	if sess.gotParams.Embeds[0].Description != "experts agree" {
		t.Errorf("embed description = %q", sess.gotParams.Embeds[0].Description)
	}

	sess.err = errors.New("404")
	if err := n.Announce(context.Background(), Announcement{SessionID: "s1"}); err == nil {
		t.Error("expected webhook error to propagate")
	}
}
