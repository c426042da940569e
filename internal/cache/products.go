package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

const (
	keyAll         = "products:all"
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

func productKey(id primitive.ObjectID) string {
	return fmt.Sprintf("product:%s", id.Hex())
}

func categoryKey(c models.Category) string {
	return fmt.Sprintf("products:category:%s", c)
}

// Products is a read-through cache in front of a product repository. Redis
// errors are logged and the call falls through to the repository.
type Products struct {
	next  store.Products
	redis *redis.Client
	ttl   time.Duration
	log   logrus.FieldLogger
}

var _ store.Products = (*Products)(nil)

func NewProducts(next store.Products, rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *Products {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Products{
		next:  next,
		redis: rdb,
		ttl:   ttl,
		log:   log.WithField("component", "product-cache"),
	}
}

func (c *Products) ByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, store.ErrNotFound
		}
		var p models.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.log.WithError(err).WithField("key", key).Warn("corrupt cache entry, reading through")
	case errors.Is(err, redis.Nil):
	default:
		c.log.WithError(err).Warn("redis get failed, reading through")
	}

	p, err := c.next.ByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.set(ctx, key, notFoundMarker, notFoundTTL)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, p)
	return p, nil
}

// ByIDs is used by order placement and population, which must see fresh
// prices and stock, so it is never cached.
func (c *Products) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	return c.next.ByIDs(ctx, ids)
}

func (c *Products) List(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	var key string
	switch {
	case f.Empty():
		key = keyAll
	case f.Featured == nil:
		key = categoryKey(f.Category)
	default:
		return c.next.List(ctx, f)
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var products []models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.log.WithError(err).WithField("key", key).Warn("corrupt cache entry, reading through")
	case errors.Is(err, redis.Nil):
	default:
		c.log.WithError(err).Warn("redis get failed, reading through")
	}

	products, err := c.next.List(ctx, f)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, products)
	return products, nil
}

func (c *Products) Create(ctx context.Context, p *models.Product) error {
	if err := c.next.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID, p.Category)
	return nil
}

func (c *Products) Update(ctx context.Context, id primitive.ObjectID, upd store.ProductUpdate) (*models.Product, error) {
	old, err := c.next.ByID(ctx, id)
	if err != nil {
		c.invalidate(ctx, id)
		return nil, err
	}
	p, err := c.next.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id, old.Category, p.Category)
	return p, nil
}

func (c *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	old, err := c.next.ByID(ctx, id)
	if err != nil {
		c.invalidate(ctx, id)
		return err
	}
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id, old.Category)
	return nil
}

func (c *Products) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Product, error) {
	p, err := c.next.SetStock(ctx, id, stock)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id, p.Category)
	return p, nil
}

func (c *Products) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Product, error) {
	p, err := c.next.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id, p.Category)
	return p, nil
}

func (c *Products) invalidate(ctx context.Context, id primitive.ObjectID, categories ...models.Category) {
	keys := []string{productKey(id), keyAll}
	for _, cat := range categories {
		if cat != "" {
			keys = append(keys, categoryKey(cat))
		}
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

func (c *Products) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("marshal for cache failed")
		return
	}
	c.set(ctx, key, data, c.ttl)
}

func (c *Products) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := c.redis.Set(ctx, key, v, ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}
