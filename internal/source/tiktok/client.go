package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"mention_tracker/internal/domain"
)

const (
	SourceID   = "tiktok"
	SourceName = "TikTok Search"
)

// Config holds the RapidAPI search client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	APIHost        string
	Count          int
	Region         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RPS            float64
	Burst          int
}

// Client searches the TikTok feed by keyword through RapidAPI.
type Client struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	apiKey         string
	apiHost        string
	count          int
	region         string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		apiHost:        cfg.APIHost,
		count:          cfg.Count,
		region:         cfg.Region,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

// Search fetches candidate posts for a keyword. A 429 maps to
// domain.ErrRateLimited and is not retried; the next scheduled cycle is the
// retry.
func (c *Client) Search(ctx context.Context, keywords string) ([]domain.RawPost, error) {
	reqURL := c.searchURL(keywords)

	var resp *searchResponse
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err = c.doRequest(ctx, reqURL)
		if err == nil {
			return c.transform(resp), nil
		}

		if errors.Is(err, domain.ErrRateLimited) || attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("search request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("search %q: %w", keywords, err)
}

func (c *Client) searchURL(keywords string) string {
	q := url.Values{}
	q.Set("keywords", keywords)
	q.Set("count", strconv.Itoa(c.count))
	q.Set("cursor", "0")
	q.Set("region", c.region)
	q.Set("publish_time", "0")
	q.Set("sort_type", "0")
	return c.baseURL + "/feed/search?" + q.Encode()
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &apiResp, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func (c *Client) transform(resp *searchResponse) []domain.RawPost {
	if resp == nil || resp.Data == nil {
		return nil
	}

	posts := make([]domain.RawPost, 0, len(resp.Data.Videos))
	for _, v := range resp.Data.Videos {
		post := domain.RawPost{
			VideoID:      v.VideoID,
			AwemeID:      v.AwemeID,
			Caption:      v.Title,
			CreateTime:   v.CreateTime,
			PlayCount:    v.PlayCount,
			DiggCount:    v.DiggCount,
			CommentCount: v.CommentCount,
			ShareCount:   v.ShareCount,
		}
		if v.Author != nil {
			post.AuthorUniqueID = v.Author.UniqueID
			post.AuthorNickname = v.Author.Nickname
		}
		posts = append(posts, post)
	}
	return posts
}
