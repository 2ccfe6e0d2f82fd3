// Package notify delivers batches of new issues to a Discord-compatible webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kavirubc/gitscout/pkg/models"
)

const (
	maxEmbeds   = 5
	maxBodyLen  = 200
	embedColor  = 5814783
	footerText  = "GitScout Notification"
	errBodySize = 512
)

// Payload is the webhook message body
type Payload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Embed renders one issue as a card
type Embed struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Footer      Footer `json:"footer"`
}

// Footer is the small text under an embed
type Footer struct {
	Text string `json:"text"`
}

// Discord posts new-issue alerts to a webhook
type Discord struct {
	client *http.Client
	logger *slog.Logger
}

// NewDiscord creates a notifier whose requests give up after timeout
func NewDiscord(timeout time.Duration, logger *slog.Logger) *Discord {
	return &Discord{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify sends one message describing items. It does nothing when the target
// is disabled or the batch is empty.
func (d *Discord) Notify(ctx context.Context, target models.NotificationTarget, items []models.Item) error {
	if !target.Enabled() || len(items) == 0 {
		return nil
	}

	body, err := json.Marshal(BuildPayload(items))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errBodySize))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	d.logger.Debug("webhook delivered", "items", len(items))
	return nil
}

// BuildPayload renders a headline with the full count and cards for the
// first five items in the given order.
func BuildPayload(items []models.Item) Payload {
	count := len(items)
	plural := "s"
	if count == 1 {
		plural = ""
	}

	shown := items
	if len(shown) > maxEmbeds {
		shown = shown[:maxEmbeds]
	}

	embeds := make([]Embed, 0, len(shown))
	for _, it := range shown {
		embeds = append(embeds, Embed{
			Title: it.Title,
			URL:   it.HTMLURL,
			Description: fmt.Sprintf("Repo: %s\nState: %s\n\n%s",
				it.RepoFullName(), it.State, truncate(it.Body, maxBodyLen)),
			Color:  embedColor,
			Footer: Footer{Text: footerText},
		})
	}

	return Payload{
		Content: fmt.Sprintf("🚀 GitScout Alert: Found %d new 'good first issue'%s!", count, plural),
		Embeds:  embeds,
	}
}

// truncate cuts s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
