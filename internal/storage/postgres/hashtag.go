package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

type HashtagStore struct {
	db *sqlx.DB
}

func NewHashtagStore(db *sqlx.DB) *HashtagStore {
	return &HashtagStore{db: db}
}

// InsertForMention writes a mention's hashtags as ordered child rows.
// Position preserves caption order; repeated tags get their own rows.
// Called inside the same transaction as the mention insert so a failed
// cycle never leaves a half-written mention.
func (s *HashtagStore) InsertForMention(ctx context.Context, mentionID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO mention_hashtags (mention_id, position, tag) VALUES ")
	valueArgs := make([]interface{}, 0, len(tags)+1)
	valueArgs = append(valueArgs, mentionID)

	for i, tag := range tags {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, ")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i + 2))
		sb.WriteString(")")
		valueArgs = append(valueArgs, tag)
	}

	exec := GetExecutor(ctx, s.db)
	_, err := exec.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}
