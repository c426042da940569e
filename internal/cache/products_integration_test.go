//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

func setupRedis(t *testing.T) Options {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get redis endpoint: %v", err)
	}
	return Options{Addr: endpoint}
}

func TestProductsReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	rdb, err := ConnectRedis(ctx, setupRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	mem := store.NewMemory()
	c := NewProducts(mem.Products, rdb, time.Minute, quietLogger())

	p := &models.Product{Name: "Brahmi Syrup", Price: 180, Category: "Syrup", Stock: 4}
	require.NoError(t, c.Create(ctx, p))

	_, err = c.List(ctx, store.ProductFilter{Category: "Syrup"})
	require.NoError(t, err)
	n, err := rdb.Exists(ctx, keyAll, categoryKey("Syrup")).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "category listing cached")

	_, err = c.ByID(ctx, p.ID)
	require.NoError(t, err)
	n, err = rdb.Exists(ctx, productKey(p.ID)).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// A write behind the cache's back is invisible until invalidation.
	_, err = mem.Products.SetStock(ctx, p.ID, 99)
	require.NoError(t, err)
	cached, err := c.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, cached.Stock)

	_, err = c.AdjustStock(ctx, p.ID, -1)
	require.NoError(t, err)
	n, err = rdb.Exists(ctx, productKey(p.ID), categoryKey("Syrup")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	fresh, err := c.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 98, fresh.Stock)
}
