package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log/slog"

	"mention_tracker/internal/config"
	"mention_tracker/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMention() *domain.Mention {
	return &domain.Mention{
		PostID:    "7301",
		Username:  "hoops.fan",
		Caption:   "Love #bracketology and #march madness",
		Hashtags:  []string{"#bracketology", "#march"},
		Type:      domain.MentionDirect,
		Views:     1500,
		Likes:     2000000,
		Comments:  12,
		Shares:    3,
		PostURL:   "https://www.tiktok.com/@hoops.fan/video/7301",
		CreatedAt: time.Now().UTC(),
	}
}

func TestDeliverItem_PayloadShape(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.SlackConfig{WebhookURL: srv.URL}, testLogger())
	require.NoError(t, n.DeliverItem(context.Background(), testMention()))

	blocks := payload["blocks"].([]any)
	require.Len(t, blocks, 5)

	header := blocks[0].(map[string]any)
	assert.Equal(t, "header", header["type"])

	fields := blocks[1].(map[string]any)["fields"].([]any)
	require.Len(t, fields, 4)
	assert.Equal(t, "*User:* @hoops.fan", fields[0].(map[string]any)["text"])
	assert.Equal(t, "*Views:* 1.5K", fields[1].(map[string]any)["text"])
	assert.Equal(t, "*Likes:* 2.0M", fields[2].(map[string]any)["text"])

	tags := blocks[3].(map[string]any)["text"].(map[string]any)["text"].(string)
	assert.Equal(t, "*Hashtags:* #bracketology #march", tags)

	button := blocks[4].(map[string]any)["elements"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://www.tiktok.com/@hoops.fan/video/7301", button["url"])
}

func TestDeliverItem_TruncatesCaption(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
	}))
	defer srv.Close()

	m := testMention()
	m.Caption = strings.Repeat("x", 250)

	n := New(config.SlackConfig{WebhookURL: srv.URL}, testLogger())
	require.NoError(t, n.DeliverItem(context.Background(), m))

	caption := payload["blocks"].([]any)[2].(map[string]any)["text"].(map[string]any)["text"].(string)
	assert.Equal(t, "*Caption:* "+strings.Repeat("x", 200)+"...", caption)
}

func TestDeliverSummary_TopTenHashtags(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
	}))
	defer srv.Close()

	tags := make([]string, 12)
	for i := range tags {
		tags[i] = "#tag" + string(rune('a'+i))
	}

	n := New(config.SlackConfig{WebhookURL: srv.URL}, testLogger())
	err := n.DeliverSummary(context.Background(), &domain.SummaryStats{
		NewMentions: 3,
		TotalViews:  4500,
		TotalLikes:  600,
		Hashtags:    tags,
	})
	require.NoError(t, err)

	fields := payload["blocks"].([]any)[1].(map[string]any)["fields"].([]any)
	assert.Equal(t, "*New Mentions:* 3", fields[0].(map[string]any)["text"])
	assert.Equal(t, "*Unique Hashtags:* 12", fields[3].(map[string]any)["text"])

	top := payload["blocks"].([]any)[2].(map[string]any)["text"].(map[string]any)["text"].(string)
	assert.Equal(t, 10, strings.Count(top, "#tag"))
}

func TestDeliver_FailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := New(config.SlackConfig{WebhookURL: srv.URL}, testLogger())
	assert.Error(t, n.DeliverItem(context.Background(), testMention()))
	assert.Error(t, n.DeliverSummary(context.Background(), &domain.SummaryStats{NewMentions: 1}))
}

func TestDeliver_Unconfigured(t *testing.T) {
	n := New(config.SlackConfig{}, testLogger())
	assert.NoError(t, n.DeliverItem(context.Background(), testMention()))
	assert.NoError(t, n.DeliverSummary(context.Background(), &domain.SummaryStats{NewMentions: 1}))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1.0K", formatCount(1000))
	assert.Equal(t, "1.5K", formatCount(1500))
	assert.Equal(t, "2.0M", formatCount(2000000))
}
