package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/commerce-backend/internal/port"
)

const (
	productKeyPrefix = "product:name:"
	productNameTTL   = 10 * time.Minute
)

// CachedProductLookup answers display-name lookups from Redis and
// falls back to the product repository on a miss. Cache trouble never
// fails a lookup; it degrades to storage with a log line.
type CachedProductLookup struct {
	client   *redis.Client
	products port.ProductRepository
}

func NewCachedProductLookup(client *redis.Client, products port.ProductRepository) *CachedProductLookup {
	return &CachedProductLookup{client: client, products: products}
}

func (c *CachedProductLookup) DisplayName(ctx context.Context, productID string) (string, bool, error) {
	key := productKeyPrefix + productID

	if c.client != nil {
		name, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return name, true, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("product cache get %s: %v", productID, err)
		}
	}

	product, err := c.products.FindByID(ctx, productID)
	if err != nil {
		return "", false, err
	}
	if product == nil {
		return "", false, nil
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, product.Name, productNameTTL).Err(); err != nil {
			log.Printf("product cache set %s: %v", productID, err)
		}
	}
	return product.Name, true, nil
}

// Invalidate drops the cached name after a catalog write.
func (c *CachedProductLookup) Invalidate(ctx context.Context, productID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, productKeyPrefix+productID).Err(); err != nil {
		log.Printf("product cache del %s: %v", productID, err)
	}
}
