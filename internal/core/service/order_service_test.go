package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rl1809/commerce-backend/internal/core/domain"
)

// Mock OrderRepository
type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) Insert(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = primitive.NewObjectID()
	stored := *order
	m.orders[order.ID.Hex()] = &stored
	return nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	copied.StatusHistory = append([]domain.StatusEntry(nil), order.StatusHistory...)
	return &copied, nil
}

func (m *mockOrderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) AppendStatus(ctx context.Context, id string, entry domain.StatusEntry) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = entry.Status
	order.StatusHistory = append(order.StatusHistory, entry)
	copied := *order
	copied.StatusHistory = append([]domain.StatusEntry(nil), order.StatusHistory...)
	return &copied, nil
}

// Mock ProductLookup
type mockProducts struct {
	mu    sync.Mutex
	names map[string]string
}

func (m *mockProducts) DisplayName(ctx context.Context, productID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.names[productID]
	return name, ok, nil
}

func (m *mockProducts) rename(productID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[productID] = name
}

// Mock UserLookup
type mockUsers struct {
	emails map[string]string
}

func (m *mockUsers) EmailOf(ctx context.Context, userID string) (string, bool, error) {
	email, ok := m.emails[userID]
	return email, ok, nil
}

// Mock Mailer
type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	sent chan sentMail
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent <- sentMail{to: to, subject: subject, body: body}
	return nil
}

func (m *mockMailer) wait(t *testing.T) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("no mail sent")
		return sentMail{}
	}
}

// Mock Realtime
type emitted struct {
	userID, event string
	payload       any
}

type mockRealtime struct {
	mu     sync.Mutex
	events []emitted
}

func (m *mockRealtime) Emit(userID, event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, emitted{userID: userID, event: event, payload: payload})
}

func (m *mockRealtime) all() []emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]emitted(nil), m.events...)
}

type orderFixture struct {
	svc       *OrderService
	repo      *mockOrderRepo
	products  *mockProducts
	mailer    *mockMailer
	realtime  *mockRealtime
	userID    string
	productID string
}

func newOrderFixture() *orderFixture {
	userID := primitive.NewObjectID().Hex()
	productID := primitive.NewObjectID().Hex()

	repo := newMockOrderRepo()
	products := &mockProducts{names: map[string]string{productID: "Widget"}}
	users := &mockUsers{emails: map[string]string{userID: "buyer@example.com"}}
	mailer := &mockMailer{sent: make(chan sentMail, 8)}
	realtime := &mockRealtime{}

	svc := NewOrderService(repo, products, users, mailer, realtime, nil)
	return &orderFixture{
		svc:       svc,
		repo:      repo,
		products:  products,
		mailer:    mailer,
		realtime:  realtime,
		userID:    userID,
		productID: productID,
	}
}

func TestPlace_Success(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if order.Status != domain.StatusPlaced {
		t.Errorf("expected status %q, got %q", domain.StatusPlaced, order.Status)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != domain.StatusPlaced {
		t.Errorf("expected history seeded with placement entry, got %+v", order.StatusHistory)
	}
	if order.StatusHistory[0].Timestamp.IsZero() {
		t.Error("placement entry has zero timestamp")
	}

	mail := f.mailer.wait(t)
	if mail.to != "buyer@example.com" {
		t.Errorf("mail went to %q", mail.to)
	}
	if mail.subject != "Order Confirmation" {
		t.Errorf("unexpected subject %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Widget") {
		t.Errorf("mail body %q does not name the product", mail.body)
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("expected exactly one mail, %d more queued", len(f.mailer.sent))
	}
}

func TestPlace_SnapshotsProductName(t *testing.T) {
	f := newOrderFixture()

	if _, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St"); err != nil {
		t.Fatalf("place failed: %v", err)
	}
	// Rename after placement; the confirmation must keep the old name.
	f.products.rename(f.productID, "Gadget")

	mail := f.mailer.wait(t)
	if !strings.Contains(mail.body, "Widget") {
		t.Errorf("confirmation body %q should carry the name at order time", mail.body)
	}
}

func TestPlace_ProductNotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Place(context.Background(), f.userID, primitive.NewObjectID().Hex(), 1, "1 Main St")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got: %v", err)
	}
	if orders, _ := f.repo.FindAll(context.Background()); len(orders) != 0 {
		t.Errorf("no order should be created, found %d", len(orders))
	}
}

func TestPlace_NonPositiveQuantity(t *testing.T) {
	f := newOrderFixture()

	for _, q := range []int{0, -3} {
		if _, err := f.svc.Place(context.Background(), f.userID, f.productID, q, "1 Main St"); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got: %v", q, err)
		}
	}
}

func TestCancel_Success(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	f.mailer.wait(t) // confirmation

	// Cancellation uses the live product name, unlike placement.
	f.products.rename(f.productID, "Gadget")

	cancelled, err := f.svc.Cancel(context.Background(), order.ID.Hex(), f.userID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("expected status %q, got %q", domain.StatusCancelled, cancelled.Status)
	}
	if n := len(cancelled.StatusHistory); n != 2 {
		t.Fatalf("expected 2 history entries, got %d", n)
	}
	if last := cancelled.StatusHistory[1]; last.Status != domain.StatusCancelled {
		t.Errorf("last history entry is %q", last.Status)
	}

	mail := f.mailer.wait(t)
	if mail.subject != "Order Cancellation" {
		t.Errorf("unexpected subject %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Gadget") {
		t.Errorf("cancellation body %q should carry the current name", mail.body)
	}
}

func TestCancel_NotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Cancel(context.Background(), primitive.NewObjectID().Hex(), f.userID)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestCancel_PermissionDenied(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), order.ID.Hex(), primitive.NewObjectID().Hex())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got: %v", err)
	}

	// Order state must be untouched.
	stored, _ := f.repo.FindByID(context.Background(), order.ID.Hex())
	if stored.Status != domain.StatusPlaced {
		t.Errorf("status changed to %q after denied cancel", stored.Status)
	}
	if len(stored.StatusHistory) != 1 {
		t.Errorf("history changed after denied cancel: %+v", stored.StatusHistory)
	}
}

func TestCancel_TerminalOrder(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), order.ID.Hex(), domain.StatusDelivered); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), order.ID.Hex(), f.userID)
	if !errors.Is(err, ErrOrderClosed) {
		t.Errorf("expected ErrOrderClosed, got: %v", err)
	}
}

func TestUpdateStatus_AppendsHistoryAndEmits(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	updated, err := f.svc.UpdateStatus(context.Background(), order.ID.Hex(), domain.StatusDispatch)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.StatusDispatch {
		t.Errorf("expected status %q, got %q", domain.StatusDispatch, updated.Status)
	}
	if n := len(updated.StatusHistory); n != len(order.StatusHistory)+1 {
		t.Fatalf("expected history to grow by one, got %d entries", n)
	}
	if last := updated.StatusHistory[len(updated.StatusHistory)-1]; last.Status != domain.StatusDispatch {
		t.Errorf("last history entry is %q", last.Status)
	}

	events := f.realtime.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 realtime event, got %d", len(events))
	}
	ev := events[0]
	if ev.userID != f.userID {
		t.Errorf("event went to user %q, owner is %q", ev.userID, f.userID)
	}
	if ev.event != EventOrderStatus {
		t.Errorf("unexpected event name %q", ev.event)
	}
	payload, ok := ev.payload.(domain.StatusEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", ev.payload)
	}
	if payload.OrderID != order.ID.Hex() || payload.Status != domain.StatusDispatch {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestUpdateStatus_RejectsCancellation(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	_, err = f.svc.UpdateStatus(context.Background(), order.ID.Hex(), domain.StatusCancelled)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus for cancellation via update, got: %v", err)
	}
}

func TestUpdateStatus_RejectsUnknownValue(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	_, err = f.svc.UpdateStatus(context.Background(), order.ID.Hex(), domain.OrderStatus("Teleported"))
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got: %v", err)
	}
	if events := f.realtime.all(); len(events) != 0 {
		t.Errorf("rejected update must not emit, got %d events", len(events))
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), domain.StatusDispatch)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestUpdateStatus_TerminalOrder(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.Place(context.Background(), f.userID, f.productID, 1, "1 Main St")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), order.ID.Hex(), f.userID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err = f.svc.UpdateStatus(context.Background(), order.ID.Hex(), domain.StatusDispatch)
	if !errors.Is(err, ErrOrderClosed) {
		t.Errorf("expected ErrOrderClosed, got: %v", err)
	}
}
