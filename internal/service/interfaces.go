package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"mention_tracker/internal/domain"
)

type Source interface {
	ID() string
	Name() string
	Search(ctx context.Context, keywords string) ([]domain.RawPost, error)
}

type MentionStore interface {
	// Insert fails with domain.ErrAlreadyTracked when the post_id is known.
	Insert(ctx context.Context, mention *domain.Mention) (int64, error)
	Recent(ctx context.Context, limit int) ([]domain.Mention, error)
}

type HashtagStore interface {
	InsertForMention(ctx context.Context, mentionID int64, tags []string) error
}

type CycleLog interface {
	Record(ctx context.Context, stats *domain.CycleStats) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers per-item and summary notifications, best-effort.
type Notifier interface {
	DeliverItem(ctx context.Context, mention *domain.Mention) error
	DeliverSummary(ctx context.Context, stats *domain.SummaryStats) error
}

// LogSink appends mentions to an external log, best-effort.
type LogSink interface {
	Append(ctx context.Context, mention *domain.Mention) error
	AppendBatch(ctx context.Context, mentions []*domain.Mention) error
}

// EventPublisher streams mention events to downstream consumers. Optional.
type EventPublisher interface {
	PublishMention(ctx context.Context, mention *domain.Mention) error
	PublishSummary(ctx context.Context, stats *domain.SummaryStats) error
	Close() error
}
