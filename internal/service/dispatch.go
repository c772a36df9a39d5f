package service

import (
	"context"

	"mention_tracker/internal/domain"
	"mention_tracker/internal/metrics"
)

// DeliveryReport records per-sink outcomes of one fan-out. Consumed only
// for logging and metrics, never for control flow: the mention is durably
// tracked before dispatch runs, so a lost notification is preferable to a
// reprocessed item.
type DeliveryReport struct {
	NotifierErr error
	LogErr      error
	EventErr    error
}

// dispatch fans one NEW mention out to every sink in fixed order. Each
// delivery is independently wrapped: one sink failing never blocks the
// others, never rolls back the insert, and never aborts the batch.
func (s *CycleService) dispatch(ctx context.Context, mention *domain.Mention) DeliveryReport {
	var report DeliveryReport

	if report.NotifierErr = s.notifier.DeliverItem(ctx, mention); report.NotifierErr != nil {
		metrics.SinkFailures.WithLabelValues("notifier").Inc()
		s.logger.Error("notifier delivery failed",
			"post_id", mention.PostID,
			"error", report.NotifierErr,
		)
	}

	if report.LogErr = s.logSink.Append(ctx, mention); report.LogErr != nil {
		metrics.SinkFailures.WithLabelValues("log").Inc()
		s.logger.Error("log sink delivery failed",
			"post_id", mention.PostID,
			"error", report.LogErr,
		)
	}

	if s.events != nil {
		if report.EventErr = s.events.PublishMention(ctx, mention); report.EventErr != nil {
			metrics.SinkFailures.WithLabelValues("events").Inc()
			s.logger.Error("event publish failed",
				"post_id", mention.PostID,
				"error", report.EventErr,
			)
		}
	}

	return report
}
