package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

// Posts a single embed to a Discord webhook.
type Discord struct {
	url      string
	identity Identity
	client   *http.Client
}

// Creates a new Discord notifier.
func NewDiscord(url string, identity Identity, client *http.Client) *Discord {
	return &Discord{url: url, identity: identity, client: client}
}

func (d *Discord) Notify(ctx context.Context, payload models.Payload) error {
	embed := &discordgo.MessageEmbed{
		Title:       payload.Title,
		Description: payload.Description,
		Color:       payload.Color,
	}
	if payload.Image != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: payload.Image.URL}
	}
	params := discordgo.WebhookParams{
		Username:  d.identity.Username,
		AvatarURL: d.identity.AvatarURL,
		Embeds:    []*discordgo.MessageEmbed{embed},
	}

	body, err := json.Marshal(params)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	logger.Log.Info("Submitting payload to Discord webhook", zap.String("title", payload.Title))

	response, err := d.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, response.StatusCode, bytes.TrimSpace(detail))
	}

	logger.Log.Info("Payload delivered successfully", zap.Int("status_code", response.StatusCode))
	return nil
}
