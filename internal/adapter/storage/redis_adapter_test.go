package storage

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rl1809/commerce-backend/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

// stubProductRepo serves DisplayName fallbacks and counts the reads.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	reads    int
}

func (s *stubProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.products[id], nil
}

func (s *stubProductRepo) Insert(ctx context.Context, p *domain.Product) error   { return nil }
func (s *stubProductRepo) FindAll(ctx context.Context) ([]domain.Product, error) { return nil, nil }
func (s *stubProductRepo) Update(ctx context.Context, p *domain.Product) error   { return nil }
func (s *stubProductRepo) Delete(ctx context.Context, id string) error           { return nil }

func TestCachedProductLookup_ReadThrough(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	id := primitive.NewObjectID()
	repo := &stubProductRepo{products: map[string]*domain.Product{
		id.Hex(): {ID: id, Name: "Widget"},
	}}
	lookup := NewCachedProductLookup(client, repo)

	client.Del(ctx, productKeyPrefix+id.Hex())

	// Miss populates the cache.
	name, ok, err := lookup.DisplayName(ctx, id.Hex())
	if err != nil || !ok || name != "Widget" {
		t.Fatalf("first lookup: name=%q ok=%v err=%v", name, ok, err)
	}
	if repo.reads != 1 {
		t.Fatalf("expected 1 storage read, got %d", repo.reads)
	}

	// Hit does not touch storage, even after a rename underneath.
	repo.products[id.Hex()].Name = "Gadget"
	name, ok, _ = lookup.DisplayName(ctx, id.Hex())
	if !ok || name != "Widget" {
		t.Errorf("expected cached name Widget, got %q", name)
	}
	if repo.reads != 1 {
		t.Errorf("cache hit read storage, reads=%d", repo.reads)
	}

	// Invalidation forces a re-read.
	lookup.Invalidate(ctx, id.Hex())
	name, ok, _ = lookup.DisplayName(ctx, id.Hex())
	if !ok || name != "Gadget" {
		t.Errorf("expected fresh name Gadget, got %q", name)
	}
	if repo.reads != 2 {
		t.Errorf("expected 2 storage reads after invalidation, got %d", repo.reads)
	}
}

func TestCachedProductLookup_MissingProduct(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	repo := &stubProductRepo{products: map[string]*domain.Product{}}
	lookup := NewCachedProductLookup(client, repo)

	_, ok, err := lookup.DisplayName(context.Background(), primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("missing product reported as found")
	}
}

func TestCachedProductLookup_NoRedisDegradesToStorage(t *testing.T) {
	id := primitive.NewObjectID()
	repo := &stubProductRepo{products: map[string]*domain.Product{
		id.Hex(): {ID: id, Name: "Widget"},
	}}
	lookup := NewCachedProductLookup(nil, repo)

	name, ok, err := lookup.DisplayName(context.Background(), id.Hex())
	if err != nil || !ok || name != "Widget" {
		t.Fatalf("lookup without redis: name=%q ok=%v err=%v", name, ok, err)
	}
}
