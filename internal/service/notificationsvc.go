package service

import (
	"context"
	"log/slog"

	"DirectoryServer/internal/domain"
)

type PersonPublisher interface {
	Publish(topic string, payload domain.Person) int
}

// BusNotifier fans newly created persons out to live subscribers.
type BusNotifier struct {
	Bus    PersonPublisher
	Logger *slog.Logger
}

func (n *BusNotifier) NotifyPersonAdded(ctx context.Context, p domain.Person) {
	if n == nil || n.Bus == nil {
		return
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delivered := n.Bus.Publish(domain.TopicPersonAdded, p)
	logger.DebugContext(ctx, "published event", "topic", domain.TopicPersonAdded, "person_id", p.ID, "delivered", delivered)
}
