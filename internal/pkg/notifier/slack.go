package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

// Posts an attachment to a Slack-compatible incoming webhook.
type Slack struct {
	url      string
	identity Identity
	client   *http.Client
}

// Creates a new Slack notifier.
func NewSlack(url string, identity Identity, client *http.Client) *Slack {
	return &Slack{url: url, identity: identity, client: client}
}

func (s *Slack) Notify(ctx context.Context, payload models.Payload) error {
	attachment := slack.Attachment{
		Color:     fmt.Sprintf("#%06X", payload.Color),
		Title:     payload.Title,
		TitleLink: payload.Description,
		Text:      payload.Description,
	}
	if payload.Image != nil {
		attachment.ImageURL = payload.Image.URL
	}
	message := &slack.WebhookMessage{
		Username:    s.identity.Username,
		IconURL:     s.identity.AvatarURL,
		Attachments: []slack.Attachment{attachment},
	}

	logger.Log.Info("Submitting payload to Slack webhook", zap.String("title", payload.Title))

	if err := slack.PostWebhookCustomHTTPContext(ctx, s.url, s.client, message); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	logger.Log.Info("Payload delivered successfully")
	return nil
}
