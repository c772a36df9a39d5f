package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mention_tracker/internal/config"
	"mention_tracker/internal/domain"
	"mention_tracker/internal/metrics"
	"mention_tracker/internal/normalize"
)

// CycleService drives one poll cycle end to end: fetch, normalize/filter,
// dedup, fan out, summarize. All three trigger surfaces (scheduler, HTTP,
// one-shot) call Run; they differ only in how they report the result.
type CycleService struct {
	source     Source
	mentions   MentionStore
	hashtags   HashtagStore
	cycleLog   CycleLog
	txManager  TransactionManager
	notifier   Notifier
	logSink    LogSink
	events     EventPublisher
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	config     config.TrackerConfig
}

func NewCycleService(
	source Source,
	mentions MentionStore,
	hashtags HashtagStore,
	cycleLog CycleLog,
	txManager TransactionManager,
	notifier Notifier,
	logSink LogSink,
	events EventPublisher,
	logger *slog.Logger,
	cfg config.TrackerConfig,
) *CycleService {
	return &CycleService{
		source:     source,
		mentions:   mentions,
		hashtags:   hashtags,
		cycleLog:   cycleLog,
		txManager:  txManager,
		notifier:   notifier,
		logSink:    logSink,
		events:     events,
		normalizer: normalize.New(cfg.Keyword),
		logger:     logger.With("source", source.ID()),
		config:     cfg,
	}
}

// Run executes one cycle. A fetch failure aborts the cycle and is returned;
// everything downstream of a successful fetch is per-item non-fatal.
func (s *CycleService) Run(ctx context.Context) (*domain.CycleStats, error) {
	start := time.Now()
	// Fixed lookback, deliberately wider than the poll interval so missed
	// or delayed cycles don't lose items. The store's unique index, not a
	// last-check cursor, decides what is actually new.
	cutoff := start.Add(-s.config.Window)

	s.logger.Info("starting cycle",
		"handle", s.config.Handle,
		"keyword", s.config.Keyword,
		"cutoff", cutoff.UTC(),
	)
	metrics.CyclesTotal.Inc()

	posts, err := s.source.Search(ctx, s.config.SearchQuery())
	if err != nil {
		metrics.CycleFailures.Inc()
		if errors.Is(err, domain.ErrRateLimited) {
			s.logger.Warn("source rate limited, skipping this cycle")
		}
		return nil, fmt.Errorf("search mentions: %w", err)
	}

	stats := &domain.CycleStats{
		StartedAt: start,
		Fetched:   len(posts),
	}

	var newMentions []*domain.Mention
	for _, raw := range posts {
		mention, reason := s.normalizer.Normalize(raw, cutoff)
		if mention == nil {
			s.logger.Debug("post filtered out", "reason", string(reason))
			continue
		}
		stats.Relevant++

		admitted, err := s.admit(ctx, mention)
		if err != nil {
			stats.Errors++
			metrics.ItemErrors.Inc()
			s.logger.Error("failed to track mention",
				"post_id", mention.PostID,
				"error", err,
			)
			continue
		}
		if !admitted {
			stats.Duplicates++
			metrics.MentionsDuplicate.Inc()
			s.logger.Debug("mention already tracked", "post_id", mention.PostID)
			continue
		}

		stats.New++
		metrics.MentionsNew.Inc()
		s.logger.Info("new mention tracked",
			"post_id", mention.PostID,
			"username", mention.Username,
			"views", mention.Views,
		)

		s.dispatch(ctx, mention)
		newMentions = append(newMentions, mention)
	}

	s.sendSummary(ctx, newMentions)

	stats.Duration = time.Since(start)
	metrics.ObserveCycleDuration(start)

	if err := s.cycleLog.Record(ctx, stats); err != nil {
		s.logger.Warn("failed to record cycle stats", "error", err)
	}

	s.logger.Info("cycle completed",
		"fetched", stats.Fetched,
		"relevant", stats.Relevant,
		"new", stats.New,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// admit is the dedup gate: one atomic insert-if-absent, with the hashtag
// rows in the same transaction. Returns false for a duplicate, which is the
// expected common case and never an error.
func (s *CycleService) admit(ctx context.Context, mention *domain.Mention) (bool, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.mentions.Insert(txCtx, mention)
		if err != nil {
			return err
		}
		mention.ID = id
		return s.hashtags.InsertForMention(txCtx, id, mention.Hashtags)
	})
	if errors.Is(err, domain.ErrAlreadyTracked) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Recent exposes the read side for the daemon's periodic recap.
func (s *CycleService) Recent(ctx context.Context, limit int) ([]domain.Mention, error) {
	return s.mentions.Recent(ctx, limit)
}
