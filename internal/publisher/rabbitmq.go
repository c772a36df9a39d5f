// Package publisher streams mention events to RabbitMQ for downstream
// consumers. Optional third sink next to Slack and the sheet log.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"mention_tracker/internal/domain"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

const (
	EventMentionNew = "mention.new"
	EventSummary    = "cycle.summary"
)

type MentionEvent struct {
	Event     string               `json:"event"`
	Mention   *domain.Mention      `json:"mention,omitempty"`
	Summary   *domain.SummaryStats `json:"summary,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// PublishMention emits one NEW mention. The mention is persisted before
// this runs, so delivery is best-effort.
func (r *RabbitMQ) PublishMention(ctx context.Context, mention *domain.Mention) error {
	event := MentionEvent{
		Event:     EventMentionNew,
		Mention:   mention,
		Timestamp: time.Now().UTC(),
	}

	if err := r.publish(ctx, event); err != nil {
		return err
	}

	r.logger.Debug("published mention event",
		"post_id", mention.PostID,
		"username", mention.Username,
	)
	return nil
}

// PublishSummary emits the per-cycle aggregate.
func (r *RabbitMQ) PublishSummary(ctx context.Context, stats *domain.SummaryStats) error {
	event := MentionEvent{
		Event:     EventSummary,
		Summary:   stats,
		Timestamp: time.Now().UTC(),
	}
	return r.publish(ctx, event)
}

func (r *RabbitMQ) publish(ctx context.Context, event MentionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
