package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rl1809/commerce-backend/internal/core/domain"
	"github.com/rl1809/commerce-backend/internal/port"
)

// EventOrderStatus is the realtime event name subscribers listen on.
const EventOrderStatus = "orderStatusUpdate"

const mailTimeout = 10 * time.Second

// OrderService owns the order status state machine: which transitions
// are legal, what gets appended to history, and which notifications go
// out once the write is durable.
type OrderService struct {
	orders   port.OrderRepository
	products port.ProductLookup
	users    port.UserLookup
	mailer   port.Mailer
	realtime port.Realtime
	events   port.EventPublisher
}

func NewOrderService(
	orders port.OrderRepository,
	products port.ProductLookup,
	users port.UserLookup,
	mailer port.Mailer,
	realtime port.Realtime,
	events port.EventPublisher,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		mailer:   mailer,
		realtime: realtime,
		events:   events,
	}
}

// Place creates an order in "Order Placed" with the placement entry
// already in its history. The confirmation mail carries the product
// name as it was at call time; a later rename does not change it.
func (s *OrderService) Place(ctx context.Context, userID, productID string, quantity int, address string) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	name, ok, err := s.products.DisplayName(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	if !ok {
		return nil, ErrProductNotFound
	}

	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:    uid,
		ProductID: pid,
		Quantity:  quantity,
		Address:   address,
		Status:    domain.StatusPlaced,
		StatusHistory: []domain.StatusEntry{
			{Status: domain.StatusPlaced, Timestamp: now},
		},
		CreatedAt: now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	s.mail(userID, "Order Confirmation",
		fmt.Sprintf("Your order for %s has been placed.", name))
	s.publish(order, "created")

	return order, nil
}

// Cancel moves an order to "Order Cancelled". Only the owner may
// cancel, and only while the order is not yet in a terminal status.
// The cancellation mail looks the product name up live, unlike Place.
func (s *OrderService) Cancel(ctx context.Context, orderID, requestingUserID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID.Hex() != requestingUserID {
		return nil, ErrPermissionDenied
	}
	if order.Status.Terminal() {
		return nil, ErrOrderClosed
	}

	entry := domain.StatusEntry{Status: domain.StatusCancelled, Timestamp: time.Now().UTC()}
	updated, err := s.orders.AppendStatus(ctx, orderID, entry)
	if err != nil {
		return nil, fmt.Errorf("append status: %w", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}

	name, ok, err := s.products.DisplayName(ctx, order.ProductID.Hex())
	if err != nil || !ok {
		log.Printf("cancel order %s: product %s not resolvable, skipping mail: %v",
			orderID, order.ProductID.Hex(), err)
	} else {
		s.mail(requestingUserID, "Order Cancellation",
			fmt.Sprintf("Your order for %s has been cancelled.", name))
	}
	s.publish(updated, "cancelled")

	return updated, nil
}

// UpdateStatus applies one of the fulfilment statuses. Cancellation is
// rejected here and must go through Cancel. The status set and the
// history push happen in a single document update, then the owner's
// subscriber group gets the change pushed.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Updatable() {
		return nil, ErrInvalidStatus
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status.Terminal() {
		return nil, ErrOrderClosed
	}

	entry := domain.StatusEntry{Status: status, Timestamp: time.Now().UTC()}
	updated, err := s.orders.AppendStatus(ctx, orderID, entry)
	if err != nil {
		return nil, fmt.Errorf("append status: %w", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}

	s.realtime.Emit(updated.UserID.Hex(), EventOrderStatus, domain.StatusEvent{
		OrderID: updated.ID.Hex(),
		Status:  status,
	})
	s.publish(updated, "status_updated")

	return updated, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// mail resolves the recipient and sends in the background. The order
// write is already durable at this point; mail failures are logged and
// never surface to the caller.
func (s *OrderService) mail(userID, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		email, ok, err := s.users.EmailOf(ctx, userID)
		if err != nil {
			log.Printf("mail %q: resolve user %s: %v", subject, userID, err)
			return
		}
		if !ok {
			log.Printf("mail %q: user %s has no address", subject, userID)
			return
		}
		if err := s.mailer.Send(ctx, email, subject, body); err != nil {
			log.Printf("mail %q to %s: %v", subject, email, err)
		}
	}()
}

func (s *OrderService) publish(order *domain.Order, eventType string) {
	if s.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		err := s.events.Publish(ctx, domain.OrderEvent{
			OrderID:  order.ID.Hex(),
			UserID:   order.UserID.Hex(),
			Type:     eventType,
			Status:   order.Status,
			Occurred: time.Now().UTC(),
		})
		if err != nil {
			log.Printf("publish order %s %s event: %v", order.ID.Hex(), eventType, err)
		}
	}()
}
