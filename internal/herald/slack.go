package herald

import (
	"context"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"
)

// SlackNotifier posts announcements to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		post:       slackapi.PostWebhookContext,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Announce(ctx context.Context, a Announcement) error {
	fields := []slackapi.AttachmentField{
		{Title: "Session", Value: a.SessionID, Short: true},
	}
	if a.Summary != "" {
		fields = append(fields, slackapi.AttachmentField{Title: "Summary", Value: a.Summary})
	}
	if a.FinalProposal != "" {
		fields = append(fields, slackapi.AttachmentField{Title: "Final proposal", Value: a.FinalProposal})
	}
	if len(a.Options) > 0 {
		fields = append(fields, slackapi.AttachmentField{
			Title: "Options",
			Value: strings.Join(a.Options, "\n"),
		})
	}

	msg := &slackapi.WebhookMessage{
		Text: "Discussion handed back to the user",
		Attachments: []slackapi.Attachment{{
			Color:  "#36a64f",
			Fields: fields,
		}},
	}
	if err := s.post(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("herald: slack webhook: %w", err)
	}
	return nil
}
