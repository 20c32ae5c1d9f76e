package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

// Status values are the wire strings the storefront clients already know.
const (
	StatusPlaced         OrderStatus = "Order Placed"
	StatusUnderPackaging OrderStatus = "Under Packaging"
	StatusDispatch       OrderStatus = "Dispatch"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Order Cancelled"
)

// Terminal reports whether an order in this status accepts no further
// transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Updatable reports whether s may be set through the generic status
// update path. Cancellation is excluded on purpose: it has its own
// operation with an ownership check.
func (s OrderStatus) Updatable() bool {
	switch s {
	case StatusUnderPackaging, StatusDispatch, StatusDelivered:
		return true
	}
	return false
}

// StatusEntry is one append-only history record. History is never
// reordered or truncated.
type StatusEntry struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"orderId"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	ProductID     primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Address       string             `bson:"address" json:"address"`
	Status        OrderStatus        `bson:"status" json:"status"`
	StatusHistory []StatusEntry      `bson:"statusHistory" json:"statusHistory"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// StatusEvent is the realtime payload pushed to the order owner's
// subscriber group on every status change.
type StatusEvent struct {
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// OrderEvent is the integration event published to the broker after a
// state-changing order operation commits.
type OrderEvent struct {
	OrderID  string      `json:"order_id"`
	UserID   string      `json:"user_id"`
	Type     string      `json:"type"` // created, cancelled, status_updated
	Status   OrderStatus `json:"status"`
	Occurred time.Time   `json:"occurred"`
}
