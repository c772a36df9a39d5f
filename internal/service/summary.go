package service

import (
	"context"

	"mention_tracker/internal/domain"
	"mention_tracker/internal/metrics"
)

// Aggregate computes the cycle summary over the NEW mentions. Returns nil
// for an empty set: zero new mentions means zero summary deliveries.
func Aggregate(mentions []*domain.Mention) *domain.SummaryStats {
	if len(mentions) == 0 {
		return nil
	}

	stats := &domain.SummaryStats{
		NewMentions: len(mentions),
	}

	seen := make(map[string]struct{})
	for _, m := range mentions {
		stats.TotalViews += m.Views
		stats.TotalLikes += m.Likes
		for _, tag := range m.Hashtags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			stats.Hashtags = append(stats.Hashtags, tag)
		}
	}

	return stats
}

// sendSummary delivers at most one summary per cycle, best-effort.
func (s *CycleService) sendSummary(ctx context.Context, newMentions []*domain.Mention) {
	stats := Aggregate(newMentions)
	if stats == nil {
		s.logger.Debug("no new mentions, skipping summary")
		return
	}

	if err := s.notifier.DeliverSummary(ctx, stats); err != nil {
		metrics.SinkFailures.WithLabelValues("notifier").Inc()
		s.logger.Error("summary delivery failed", "error", err)
	}

	if s.events != nil {
		if err := s.events.PublishSummary(ctx, stats); err != nil {
			metrics.SinkFailures.WithLabelValues("events").Inc()
			s.logger.Error("summary publish failed", "error", err)
		}
	}
}
