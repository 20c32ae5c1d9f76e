package port

import (
	"context"

	"github.com/rl1809/commerce-backend/internal/core/domain"
)

// ProductLookup resolves a product id to its display name. Order
// placement snapshots the name at call time; cancellation looks it up
// live. Implementations may cache.
type ProductLookup interface {
	DisplayName(ctx context.Context, productID string) (name string, ok bool, err error)
}

// ProductCache drops a cached product after a catalog write so the
// next lookup re-reads storage.
type ProductCache interface {
	Invalidate(ctx context.Context, productID string)
}

// UserLookup resolves the notification address of an order's owner.
type UserLookup interface {
	EmailOf(ctx context.Context, userID string) (email string, ok bool, err error)
}

// RoleLookup resolves the account type used for catalog authorization.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (role string, ok bool, err error)
}

// Mailer is the notify-on-event capability. Callers treat failures as
// log-and-continue; a failed mail never rolls back the operation that
// triggered it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Realtime delivers an event to every connection currently joined to
// the user's group. At-most-once, best-effort: nobody connected means
// nobody receives, and delivery never blocks the caller.
type Realtime interface {
	Emit(userID, event string, payload any)
}

// EventPublisher pushes integration events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
