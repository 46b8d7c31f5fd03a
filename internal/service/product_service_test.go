package service

import (
	"context"
	"testing"

	"afrimart/internal/cache"
	"afrimart/internal/domain"
	"afrimart/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingProductRepo wraps memProductRepo and counts store reads so tests
// can tell cache hits from misses.
type countingProductRepo struct {
	*memProductRepo
	findCalls int
	listCalls int
}

func (c *countingProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	c.findCalls++
	return c.memProductRepo.FindByID(ctx, id)
}

func (c *countingProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	c.listCalls++
	return c.memProductRepo.List(ctx, filter)
}

func newProductFixture(t *testing.T) (ProductService, *countingProductRepo, *miniredis.Miniredis, *domain.Product) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	product := testProduct("Camera", "2499.00", 15)
	repo := &countingProductRepo{memProductRepo: newMemProductRepo(product)}

	svc := NewProductService(repo, cache.NewRedisCache(client), zap.NewNop())
	return svc, repo, mr, product
}

func TestProductGet_SecondReadIsCached(t *testing.T) {
	svc, repo, _, product := newProductFixture(t)
	ctx := context.Background()

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, 1, repo.findCalls)

	again, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, again.Name)
	assert.True(t, again.Price.Equal(product.Price))
	assert.Equal(t, 1, repo.findCalls, "second read should come from cache")
}

func TestProductGet_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newProductFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductList_SecondReadIsCached(t *testing.T) {
	svc, repo, _, _ := newProductFixture(t)
	ctx := context.Background()

	filter := repository.ProductFilter{Page: 1, PageSize: 10}

	_, total, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, repo.listCalls)

	products, total, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, repo.listCalls, "second read should come from cache")
}

func TestProductList_DistinctFiltersDistinctEntries(t *testing.T) {
	svc, repo, _, _ := newProductFixture(t)
	ctx := context.Background()

	_, _, err := svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)

	minPrice := decimal.RequireFromString("100")
	_, _, err = svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10, MinPrice: &minPrice})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.listCalls, "different filters must not share a cache entry")
}

func TestProductUpdate_InvalidatesItemAndLists(t *testing.T) {
	svc, repo, _, product := newProductFixture(t)
	ctx := context.Background()

	// Warm both caches
	_, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	_, _, err = svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)

	product.Price = decimal.RequireFromString("1999.00")
	require.NoError(t, svc.Update(ctx, product))

	// Both read paths go back to the store and see the new price
	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1999.00")))
	assert.Equal(t, 2, repo.findCalls)

	_, _, err = svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestProductDelete_InvalidatesCaches(t *testing.T) {
	svc, repo, _, product := newProductFixture(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	_, _, err = svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, product.ID))

	// The item is gone from cache and store alike
	_, err = svc.Get(ctx, product.ID)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	products, total, err := svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, products)
	assert.Equal(t, 2, repo.listCalls)
}

func TestProductCreate_SweepsListCaches(t *testing.T) {
	svc, repo, _, _ := newProductFixture(t)
	ctx := context.Background()

	_, total, err := svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	newProduct := testProduct("Speaker", "279.00", 50)
	require.NoError(t, svc.Create(ctx, newProduct))
	assert.True(t, newProduct.IsActive)
	assert.NotEqual(t, uuid.Nil, newProduct.ID)

	_, total, err = svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, repo.listCalls)
}

func TestProductReads_SurviveCacheOutage(t *testing.T) {
	svc, repo, mr, product := newProductFixture(t)
	ctx := context.Background()

	// Take redis down; reads must degrade to the store, not fail.
	mr.Close()

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, 1, repo.findCalls)

	_, total, err := svc.List(ctx, repository.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// Writes still work while the cache is unreachable
	product.Stock = 3
	require.NoError(t, svc.Update(ctx, product))
}
