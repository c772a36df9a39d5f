package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mention_tracker/internal/domain"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

const postIDConstraint = "mentions_post_id_key"

type MentionStore struct {
	db *sqlx.DB
}

func NewMentionStore(db *sqlx.DB) *MentionStore {
	return &MentionStore{db: db}
}

// Insert adds a mention, failing with domain.ErrAlreadyTracked if its
// post_id has been seen before. This is the single atomic insert-if-absent
// the whole pipeline's at-most-once guarantee rests on: the unique index
// serializes concurrent cycles, so exactly one caller wins a given post_id.
func (s *MentionStore) Insert(ctx context.Context, mention *domain.Mention) (int64, error) {
	query := `
		INSERT INTO mentions (
			post_id, username, caption, mention_type,
			views, likes, comments, shares, post_url, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING id, tracked_at`

	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		mention.PostID,
		mention.Username,
		mention.Caption,
		mention.Type,
		mention.Views,
		mention.Likes,
		mention.Comments,
		mention.Shares,
		mention.PostURL,
		mention.CreatedAt,
	).Scan(&id, &mention.TrackedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == postIDConstraint {
		return 0, domain.ErrAlreadyTracked
	}
	if err != nil {
		return 0, fmt.Errorf("insert mention: %w", err)
	}

	return id, nil
}

// Recent returns the most recently tracked mentions, newest first, with
// hashtags rehydrated in caption order. Read-side only.
func (s *MentionStore) Recent(ctx context.Context, limit int) ([]domain.Mention, error) {
	query := `
		SELECT id, post_id, username, caption, mention_type,
		       views, likes, comments, shares, post_url, created_at, tracked_at
		FROM mentions
		ORDER BY tracked_at DESC, id DESC
		LIMIT $1`

	var mentions []domain.Mention
	if err := s.db.SelectContext(ctx, &mentions, query, limit); err != nil {
		return nil, fmt.Errorf("select recent mentions: %w", err)
	}
	if len(mentions) == 0 {
		return mentions, nil
	}

	ids := make([]int64, len(mentions))
	byID := make(map[int64]*domain.Mention, len(mentions))
	for i := range mentions {
		ids[i] = mentions[i].ID
		byID[mentions[i].ID] = &mentions[i]
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT mention_id, tag FROM mention_hashtags WHERE mention_id = ANY($1) ORDER BY mention_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("select hashtags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mentionID int64
		var tag string
		if err := rows.Scan(&mentionID, &tag); err != nil {
			return nil, err
		}
		if m, ok := byID[mentionID]; ok {
			m.Hashtags = append(m.Hashtags, tag)
		}
	}

	return mentions, rows.Err()
}
