package domain

import "time"

// MentionType classifies how a post references the tracked handle.
// Only direct mentions exist today; reserved for future classification.
type MentionType string

const MentionDirect MentionType = "direct"

// Mention is a single tracked post. Immutable once normalized: the pipeline
// only ever inserts mentions, never updates them.
type Mention struct {
	ID        int64       `db:"id" json:"id"`
	PostID    string      `db:"post_id" json:"post_id"`
	Username  string      `db:"username" json:"username"`
	Caption   string      `db:"caption" json:"caption"`
	Hashtags  []string    `db:"-" json:"hashtags"`
	Type      MentionType `db:"mention_type" json:"mention_type"`
	Views     int64       `db:"views" json:"views"`
	Likes     int64       `db:"likes" json:"likes"`
	Comments  int64       `db:"comments" json:"comments"`
	Shares    int64       `db:"shares" json:"shares"`
	PostURL   string      `db:"post_url" json:"post_url"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	TrackedAt time.Time   `db:"tracked_at" json:"tracked_at"`
}

// RawPost is a loosely-typed record as returned by the search source,
// before relevance and recency filtering.
type RawPost struct {
	VideoID        string
	AwemeID        string
	AuthorUniqueID string
	AuthorNickname string
	Caption        string
	CreateTime     int64 // unix seconds, 0 when the source omits it
	PlayCount      int64
	DiggCount      int64
	CommentCount   int64
	ShareCount     int64
}
