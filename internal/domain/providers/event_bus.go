package providers

import (
	"context"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.CategoryAssignmentEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CategoryAssignmentEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelCategoryUpdates carries every category assignment
	EventChannelCategoryUpdates = "medicines:category-updates"

	// EventChannelCategoryPrefix is the prefix for per-category channels
	EventChannelCategoryPrefix = "medicines:category:"
)

// GetCategoryChannel returns the channel for assignments into one category
func GetCategoryChannel(slug string) string {
	return EventChannelCategoryPrefix + slug
}
