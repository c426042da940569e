package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// deadRedis points at a port nothing listens on.
func deadRedis(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestProductsFallBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	c := NewProducts(mem.Products, deadRedis(t), time.Minute, quietLogger())

	p := &models.Product{Name: "Neem Soap", Price: 60, Category: "Soap", Stock: 10}
	require.NoError(t, c.Create(ctx, p))

	got, err := c.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neem Soap", got.Name)

	list, err := c.List(ctx, store.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := c.AdjustStock(ctx, p.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Stock)

	_, err = c.ByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKeys(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("65a1b2c3d4e5f60718293a4b")
	require.NoError(t, err)
	assert.Equal(t, "product:65a1b2c3d4e5f60718293a4b", productKey(id))
	assert.Equal(t, "products:category:Health Supplement", categoryKey("Health Supplement"))
}
