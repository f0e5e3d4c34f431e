package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records published events for tests.
type MockEventPublisher struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []*GradeSyncedEvent
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) PublishGradeSynced(ctx context.Context, event *GradeSyncedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

func (m *MockEventPublisher) GetPublishedEvents() []*GradeSyncedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*GradeSyncedEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) Close() error {
	return nil
}
