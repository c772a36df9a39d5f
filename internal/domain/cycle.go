package domain

import "time"

// CycleStats holds the outcome of one poll cycle.
type CycleStats struct {
	StartedAt  time.Time
	Fetched    int
	Relevant   int
	New        int
	Duplicates int
	Errors     int
	Duration   time.Duration
}

// SummaryStats aggregates the NEW mentions of one cycle.
type SummaryStats struct {
	NewMentions int      `json:"new_mentions"`
	TotalViews  int64    `json:"total_views"`
	TotalLikes  int64    `json:"total_likes"`
	Hashtags    []string `json:"hashtags"` // distinct, first-seen order
}
