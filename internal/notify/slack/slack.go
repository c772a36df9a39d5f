// Package slack delivers mention notifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mention_tracker/internal/config"
	"mention_tracker/internal/domain"
)

const maxCaptionLen = 200

type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg config.SlackConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("sink", "slack"),
	}
}

type message struct {
	Blocks []block `json:"blocks"`
}

type block struct {
	Type     string    `json:"type"`
	Text     *text     `json:"text,omitempty"`
	Fields   []text    `json:"fields,omitempty"`
	Elements []element `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type element struct {
	Type string `json:"type"`
	Text *text  `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// DeliverItem posts one mention notification. Best-effort: the mention is
// already persisted by the time this runs, so a failed delivery is reported
// to the caller only for logging.
func (n *Notifier) DeliverItem(ctx context.Context, m *domain.Mention) error {
	if n.webhookURL == "" {
		n.logger.Debug("webhook not configured, skipping notification")
		return nil
	}

	msg := message{
		Blocks: []block{
			{
				Type: "header",
				Text: &text{Type: "plain_text", Text: "New TikTok Mention!"},
			},
			{
				Type: "section",
				Fields: []text{
					{Type: "mrkdwn", Text: fmt.Sprintf("*User:* @%s", m.Username)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Views:* %s", formatCount(m.Views))},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Likes:* %s", formatCount(m.Likes))},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Comments:* %s", formatCount(m.Comments))},
				},
			},
			{
				Type: "section",
				Text: &text{Type: "mrkdwn", Text: fmt.Sprintf("*Caption:* %s", truncate(m.Caption, maxCaptionLen))},
			},
			{
				Type: "section",
				Text: &text{Type: "mrkdwn", Text: fmt.Sprintf("*Hashtags:* %s", strings.Join(m.Hashtags, " "))},
			},
			{
				Type: "actions",
				Elements: []element{
					{
						Type: "button",
						Text: &text{Type: "plain_text", Text: "View on TikTok"},
						URL:  m.PostURL,
					},
				},
			},
		},
	}

	if err := n.post(ctx, msg); err != nil {
		return fmt.Errorf("send mention notification: %w", err)
	}

	n.logger.Debug("notification sent", "username", m.Username, "post_id", m.PostID)
	return nil
}

// DeliverSummary posts the per-cycle aggregate. The caller only invokes it
// when the cycle found at least one new mention.
func (n *Notifier) DeliverSummary(ctx context.Context, stats *domain.SummaryStats) error {
	if n.webhookURL == "" {
		n.logger.Debug("webhook not configured, skipping summary")
		return nil
	}

	topTags := stats.Hashtags
	if len(topTags) > 10 {
		topTags = topTags[:10]
	}

	msg := message{
		Blocks: []block{
			{
				Type: "header",
				Text: &text{Type: "plain_text", Text: "TikTok Mentions Summary"},
			},
			{
				Type: "section",
				Fields: []text{
					{Type: "mrkdwn", Text: fmt.Sprintf("*New Mentions:* %d", stats.NewMentions)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Total Views:* %s", formatCount(stats.TotalViews))},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Total Likes:* %s", formatCount(stats.TotalLikes))},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Unique Hashtags:* %d", len(stats.Hashtags))},
				},
			},
			{
				Type: "section",
				Text: &text{Type: "mrkdwn", Text: fmt.Sprintf("*Top Hashtags:* %s", strings.Join(topTags, " "))},
			},
		},
	}

	if err := n.post(ctx, msg); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	return nil
}

func (n *Notifier) post(ctx context.Context, msg message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// formatCount renders 1500 as 1.5K and 2000000 as 2.0M, matching the
// notification style expected by the channel.
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
