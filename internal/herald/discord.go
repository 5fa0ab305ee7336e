package herald

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts announcements through a Discord webhook. Webhook
// execution needs no bot token, so the underlying session is unauthenticated.
type DiscordNotifier struct {
	webhookID    string
	webhookToken string
	sess         discordSession
}

func NewDiscordNotifier(webhookID, webhookToken string) *DiscordNotifier {
	// discordgo.New only fails on websocket parameter construction, which
	// cannot happen with a fixed token string.
	dg, _ := discordgo.New("")
	return &DiscordNotifier{
		webhookID:    webhookID,
		webhookToken: webhookToken,
		sess:         dg,
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Announce(ctx context.Context, a Announcement) error {
	embed := &discordgo.MessageEmbed{
		Title:       "Discussion handed back to the user",
		Description: a.Summary,
		Color:       0x36a64f,
	}
	if a.FinalProposal != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Final proposal", Value: a.FinalProposal,
		})
	}
	if len(a.Options) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Options", Value: strings.Join(a.Options, "\n"),
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Session", Value: a.SessionID, Inline: true,
	})

	params := &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
	_, err := d.sess.WebhookExecute(d.webhookID, d.webhookToken, false, params, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("herald: discord webhook: %w", err)
	}
	return nil
}
