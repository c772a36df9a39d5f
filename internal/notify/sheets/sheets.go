// Package sheets appends mentions as rows to a Google Sheet through the
// spreadsheets.values REST surface. Auth is a bearer token from config;
// the token-minting protocol is the operator's concern, not this sink's.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mention_tracker/internal/config"
	"mention_tracker/internal/domain"
)

var headerRow = []string{
	"Timestamp",
	"Username",
	"Caption",
	"Hashtags",
	"Views",
	"Likes",
	"Comments",
	"Shares",
	"Post URL",
	"Mention Type",
	"Post ID",
	"Created At",
}

type Sink struct {
	baseURL       string
	spreadsheetID string
	sheetName     string
	token         string
	httpClient    *http.Client
	location      *time.Location
	logger        *slog.Logger
}

func New(cfg config.SheetsConfig, logger *slog.Logger) *Sink {
	// Sheet timestamps are kept in Central Time for the people reading the
	// log. Fall back to UTC if the tz database is unavailable.
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		loc = time.UTC
	}

	return &Sink{
		baseURL:       cfg.BaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		token:         cfg.Token,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		location:      loc,
		logger:        logger.With("sink", "sheets"),
	}
}

func (s *Sink) configured() bool {
	return s.spreadsheetID != "" && s.token != ""
}

// Append logs one mention as a sheet row.
func (s *Sink) Append(ctx context.Context, m *domain.Mention) error {
	return s.AppendBatch(ctx, []*domain.Mention{m})
}

// AppendBatch logs several mentions in one append call.
func (s *Sink) AppendBatch(ctx context.Context, mentions []*domain.Mention) error {
	if !s.configured() {
		s.logger.Debug("sheet not configured, skipping")
		return nil
	}
	if len(mentions) == 0 {
		return nil
	}

	if err := s.ensureHeaders(ctx); err != nil {
		return fmt.Errorf("ensure headers: %w", err)
	}

	rows := make([][]string, len(mentions))
	for i, m := range mentions {
		rows[i] = s.row(m)
	}

	appendURL := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		s.baseURL, s.spreadsheetID, url.PathEscape(s.sheetName+"!A:L"))

	if err := s.do(ctx, http.MethodPost, appendURL, map[string]any{"values": rows}, nil); err != nil {
		return fmt.Errorf("append rows: %w", err)
	}

	s.logger.Debug("logged mentions to sheet", "count", len(mentions))
	return nil
}

// ensureHeaders writes the header row once, when A1:L1 is still empty.
func (s *Sink) ensureHeaders(ctx context.Context) error {
	headerRange := url.PathEscape(s.sheetName + "!A1:L1")
	getURL := fmt.Sprintf("%s/%s/values/%s", s.baseURL, s.spreadsheetID, headerRange)

	var current struct {
		Values [][]string `json:"values"`
	}
	if err := s.do(ctx, http.MethodGet, getURL, nil, &current); err != nil {
		return err
	}
	if len(current.Values) > 0 && len(current.Values[0]) > 0 {
		return nil
	}

	putURL := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", s.baseURL, s.spreadsheetID, headerRange)
	if err := s.do(ctx, http.MethodPut, putURL, map[string]any{"values": [][]string{headerRow}}, nil); err != nil {
		return err
	}

	s.logger.Info("header row created in sheet")
	return nil
}

func (s *Sink) row(m *domain.Mention) []string {
	return []string{
		s.timestamp(time.Now()),
		m.Username,
		m.Caption,
		strings.Join(m.Hashtags, ", "),
		strconv.FormatInt(m.Views, 10),
		strconv.FormatInt(m.Likes, 10),
		strconv.FormatInt(m.Comments, 10),
		strconv.FormatInt(m.Shares, 10),
		m.PostURL,
		string(m.Type),
		m.PostID,
		m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// timestamp renders e.g. "03/21/2026, 04:05:06 PM CDT".
func (s *Sink) timestamp(t time.Time) string {
	return t.In(s.location).Format("01/02/2006, 03:04:05 PM MST")
}

func (s *Sink) do(ctx context.Context, method, reqURL string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
