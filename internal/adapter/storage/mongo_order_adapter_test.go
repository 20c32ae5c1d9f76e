package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rl1809/commerce-backend/internal/core/domain"
)

func newOrderRepo(t *testing.T) *MongoOrderRepository {
	db := getMongoDB(t)
	db.Collection("orders").Drop(context.Background())
	return NewMongoOrderRepository(db)
}

func placedOrder(t *testing.T, repo *MongoOrderRepository) *domain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &domain.Order{
		UserID:    primitive.NewObjectID(),
		ProductID: primitive.NewObjectID(),
		Quantity:  1,
		Address:   "1 Main St",
		Status:    domain.StatusPlaced,
		StatusHistory: []domain.StatusEntry{
			{Status: domain.StatusPlaced, Timestamp: now},
		},
		CreatedAt: now,
	}
	if err := repo.Insert(context.Background(), order); err != nil {
		t.Fatalf("insert order: %v", err)
	}
	return order
}

// History entries from concurrent appends must all survive; the single
// $set+$push update is what guarantees it.
func TestOrderAppendStatus_ConcurrentAppendsAllSurvive(t *testing.T) {
	repo := newOrderRepo(t)
	ctx := context.Background()
	order := placedOrder(t, repo)

	const appends = 20
	var wg sync.WaitGroup
	errs := make(chan error, appends)
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := domain.StatusEntry{Status: domain.StatusDispatch, Timestamp: time.Now().UTC()}
			if _, err := repo.AppendStatus(ctx, order.ID.Hex(), entry); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent append: %v", err)
	}

	got, err := repo.FindByID(ctx, order.ID.Hex())
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if len(got.StatusHistory) != appends+1 {
		t.Fatalf("expected %d history entries, got %d", appends+1, len(got.StatusHistory))
	}
	if got.StatusHistory[0].Status != domain.StatusPlaced {
		t.Errorf("placement entry lost, history starts with %q", got.StatusHistory[0].Status)
	}
	if got.Status != domain.StatusDispatch {
		t.Errorf("expected status %q, got %q", domain.StatusDispatch, got.Status)
	}
}

func TestOrderAppendStatus_ReturnsUpdatedDocument(t *testing.T) {
	repo := newOrderRepo(t)
	ctx := context.Background()
	order := placedOrder(t, repo)

	entry := domain.StatusEntry{Status: domain.StatusUnderPackaging, Timestamp: time.Now().UTC()}
	updated, err := repo.AppendStatus(ctx, order.ID.Hex(), entry)
	if err != nil {
		t.Fatalf("append status: %v", err)
	}
	if updated == nil {
		t.Fatal("expected the updated order, got nil")
	}
	if updated.Status != domain.StatusUnderPackaging || len(updated.StatusHistory) != 2 {
		t.Errorf("unexpected updated order: status=%q history=%d",
			updated.Status, len(updated.StatusHistory))
	}
}

func TestOrderAppendStatus_MissingOrder(t *testing.T) {
	repo := newOrderRepo(t)

	entry := domain.StatusEntry{Status: domain.StatusDispatch, Timestamp: time.Now().UTC()}
	updated, err := repo.AppendStatus(context.Background(), primitive.NewObjectID().Hex(), entry)
	if err != nil {
		t.Fatalf("append status: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil for a missing order, got %+v", updated)
	}

	// Malformed ids behave like missing documents.
	if updated, _ := repo.AppendStatus(context.Background(), "not-a-hex-id", entry); updated != nil {
		t.Errorf("expected nil for a malformed id, got %+v", updated)
	}
}
