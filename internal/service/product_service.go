package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"afrimart/internal/cache"
	"afrimart/internal/domain"
	"afrimart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Filtered lists churn more than single items, so they expire sooner.
	productListTTL = 5 * time.Minute
	productItemTTL = 10 * time.Minute

	productKeyPrefix     = "product:"
	productListKeyPrefix = "products:"
)

// ProductList is the cached shape of a list query result.
type ProductList struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
}

// ProductService defines the interface for catalog business logic. Reads are
// cache-aside; writes invalidate. Cache failures only ever degrade to the
// store path.
type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
}

type productService struct {
	productRepo repository.ProductRepository
	cache       cache.Cache
	logger      *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, c cache.Cache, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       c,
		logger:      logger,
	}
}

// listCacheKey canonically encodes the filter so equivalent queries share an
// entry.
func listCacheKey(filter repository.ProductFilter) string {
	v := url.Values{}
	if filter.Category != "" {
		v.Set("category", filter.Category)
	}
	if filter.Search != "" {
		v.Set("search", filter.Search)
	}
	if filter.MinPrice != nil {
		v.Set("min_price", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		v.Set("max_price", filter.MaxPrice.String())
	}
	if filter.SortBy != "" {
		v.Set("sort", filter.SortBy)
	}
	if filter.SortOrder != "" {
		v.Set("order", string(filter.SortOrder))
	}
	v.Set("page", strconv.Itoa(filter.Page))
	v.Set("limit", strconv.Itoa(filter.PageSize))
	return productListKeyPrefix + v.Encode()
}

func itemCacheKey(id uuid.UUID) string {
	return productKeyPrefix + id.String()
}

// List returns active products matching the filter, probing the cache first.
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	key := listCacheKey(filter)

	var cached ProductList
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Product list cache read failed", zap.Error(err))
	}
	if hit {
		return cached.Products, cached.Total, nil
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if err := s.cache.Set(ctx, key, ProductList{Products: products, Total: total}, productListTTL); err != nil {
		s.logger.Warn("Product list cache write failed", zap.Error(err))
	}

	return products, total, nil
}

// Get returns a single active product, probing the cache first.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	key := itemCacheKey(id)

	var cached domain.Product
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Product cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, product, productItemTTL); err != nil {
		s.logger.Warn("Product cache write failed", zap.Error(err))
	}

	return product, nil
}

// Create inserts a product and invalidates list caches.
func (s *productService) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.IsActive = true
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, product); err != nil {
		return err
	}

	s.invalidateLists(ctx)
	return nil
}

// Update rewrites a product and invalidates its item key plus list caches.
func (s *productService) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}

	s.invalidate(ctx, product.ID)
	return nil
}

// Delete soft-deletes a product and invalidates caches.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// Categories returns the distinct active categories. Cheap enough to skip
// the cache.
func (s *productService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, itemCacheKey(id)); err != nil {
		s.logger.Warn("Product cache invalidation failed",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
	}
	s.invalidateLists(ctx)
}

func (s *productService) invalidateLists(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, productListKeyPrefix); err != nil {
		// TTL still bounds staleness if the sweep fails partway.
		s.logger.Warn("Product list cache sweep failed", zap.Error(err))
	}
}
