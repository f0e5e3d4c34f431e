package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const TopicGradeSynced = "grading.grade-synced"

// GradeSyncedEvent is emitted after scores have been successfully pushed
// to the external gradebook, for notification and audit consumers.
type GradeSyncedEvent struct {
	CourseID     string             `json:"course_id"`
	AssignmentID string             `json:"assignment_id"`
	Scores       map[string]float64 `json:"scores"`
	SyncedAt     time.Time          `json:"synced_at"`
}

type EventPublisher interface {
	PublishGradeSynced(ctx context.Context, event *GradeSyncedEvent) error
	Close() error
}

// watermillPublisher publishes events through any watermill publisher
// (kafka in production, gochannel for local runs).
type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaPublisher creates a publisher backed by the platform's kafka
// brokers.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (EventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &watermillPublisher{publisher: publisher, logger: logger}, nil
}

// NewGoChannelPublisher creates an in-process publisher for environments
// without kafka.
func NewGoChannelPublisher(logger *slog.Logger) EventPublisher {
	publisher := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewSlogLogger(logger),
	)
	return &watermillPublisher{publisher: publisher, logger: logger}
}

func (p *watermillPublisher) PublishGradeSynced(ctx context.Context, event *GradeSyncedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal grade synced event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(TopicGradeSynced, msg); err != nil {
		return fmt.Errorf("failed to publish grade synced event: %w", err)
	}

	p.logger.Debug("Published grade synced event",
		"course_id", event.CourseID,
		"assignment_id", event.AssignmentID,
		"users", len(event.Scores))

	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}
