package ports

import (
	"context"

	"github.com/brood-labs/broodd/internal/core/domain"
)

// EventPublisher delivers lifecycle notifications to external subscribers.
// Publishing happens after a successful commit and is never rolled back.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
	Close() error
}
