//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"mention_tracker/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.NoError(err)
	s.NotNil(pub)

	err = pub.Close()
	s.NoError(err)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishMention() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-mention",
		RoutingKey: "test-routing-key-mention",
		QueueName:  "test-queue-mention",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	mention := &domain.Mention{
		ID:        1,
		PostID:    "7301",
		Username:  "hoops.fan",
		Caption:   "Love #bracketology",
		Hashtags:  []string{"#bracketology"},
		Type:      domain.MentionDirect,
		Views:     1500,
		Likes:     200,
		PostURL:   "https://www.tiktok.com/@hoops.fan/video/7301",
		CreatedAt: now,
	}

	err = pub.PublishMention(s.ctx, mention)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)
	s.Equal("application/json", msg.ContentType)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)

	var received MentionEvent
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal(EventMentionNew, received.Event)
	s.Require().NotNil(received.Mention)
	s.Equal("7301", received.Mention.PostID)
	s.Equal("hoops.fan", received.Mention.Username)
	s.Equal([]string{"#bracketology"}, received.Mention.Hashtags)
	s.Nil(received.Summary)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishSummary() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-summary",
		RoutingKey: "test-routing-key-summary",
		QueueName:  "test-queue-summary",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	err = pub.PublishSummary(s.ctx, &domain.SummaryStats{
		NewMentions: 2,
		TotalViews:  3000,
		TotalLikes:  400,
		Hashtags:    []string{"#bracketology", "#march"},
	})
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	var received MentionEvent
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal(EventSummary, received.Event)
	s.Nil(received.Mention)
	s.Require().NotNil(received.Summary)
	s.Equal(2, received.Summary.NewMentions)
	s.Equal(int64(3000), received.Summary.TotalViews)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
