package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foodpics/internal/pkg/config"
	"foodpics/internal/pkg/models"
)

const deliveryTimeout = 15 * time.Second

var ErrDeliveryFailed = errors.New("webhook delivery failed")

// Delivers one rendered post to the outbound channel.
type Notifier interface {
	Notify(ctx context.Context, payload models.Payload) error
}

// Sender identity shown next to every message.
type Identity struct {
	Username  string
	AvatarURL string
}

// Builds the notifier selected by NOTIFIER.
func New(cfg *config.Config) (Notifier, error) {
	identity := Identity{Username: cfg.WebhookUsername, AvatarURL: cfg.WebhookAvatarURL}
	client := &http.Client{Timeout: deliveryTimeout}

	switch cfg.Notifier {
	case config.NotifierDiscord:
		return NewDiscord(cfg.WebhookURL, identity, client), nil
	case config.NotifierSlack:
		return NewSlack(cfg.WebhookURL, identity, client), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}
