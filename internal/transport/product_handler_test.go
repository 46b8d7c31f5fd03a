package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"afrimart/internal/domain"
	"afrimart/internal/middleware"
	"afrimart/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// pagedEnvelope mirrors the list response wrapper for decoding in tests.
type pagedEnvelope struct {
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Message    string                 `json:"message"`
	Pagination *middleware.Pagination `json:"pagination"`
}

type mockProductService struct {
	products   []*domain.Product
	total      int
	lastFilter repository.ProductFilter
	created    *domain.Product
	updated    *domain.Product
	deleted    uuid.UUID
	categories []string
	err        error
}

func (m *mockProductService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	m.lastFilter = filter
	return m.products, m.total, m.err
}

func (m *mockProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductService) Create(ctx context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	product.ID = uuid.New()
	m.created = product
	return nil
}

func (m *mockProductService) Update(ctx context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	m.updated = product
	return nil
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = id
	return nil
}

func (m *mockProductService) Categories(ctx context.Context) ([]string, error) {
	return m.categories, m.err
}

// identityForRole stands in for the auth middleware, injecting a fixed
// identity into the request context.
func identityForRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, uuid.New().String())
			ctx = context.WithValue(ctx, middleware.UserEmailKey, "tester@example.com")
			ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newProductRouter(svc *mockProductService, role string) chi.Router {
	handler := NewProductHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r, identityForRole(role), middleware.RequireAdmin(zap.NewNop()))
	return r
}

func catalogProduct(name, price string) *domain.Product {
	return &domain.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "Electronics",
		Stock:    10,
		IsActive: true,
	}
}

func TestProductHandler_List(t *testing.T) {
	svc := &mockProductService{
		products: []*domain.Product{catalogProduct("Phone", "850000.00")},
		total:    25,
	}
	router := newProductRouter(svc, domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/products?category=Electronics&min_price=1000&sort_by=price&sort_order=asc&page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp pagedEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 25, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.Pages)
	assert.Equal(t, 5, resp.Pagination.Limit)

	assert.Equal(t, "Electronics", svc.lastFilter.Category)
	require.NotNil(t, svc.lastFilter.MinPrice)
	assert.True(t, svc.lastFilter.MinPrice.Equal(decimal.RequireFromString("1000")))
	assert.Equal(t, "price", svc.lastFilter.SortBy)
	assert.Equal(t, repository.SortOrderAsc, svc.lastFilter.SortOrder)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 5, svc.lastFilter.PageSize)
}

func TestProductHandler_List_Defaults(t *testing.T) {
	svc := &mockProductService{}
	router := newProductRouter(svc, domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.lastFilter.Page)
	assert.Equal(t, defaultPageSize, svc.lastFilter.PageSize)
	assert.Equal(t, repository.SortOrderDesc, svc.lastFilter.SortOrder)

	var resp pagedEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 0, resp.Pagination.Pages)
}

func TestProductHandler_List_LimitIsCapped(t *testing.T) {
	svc := &mockProductService{}
	router := newProductRouter(svc, domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/products?limit=5000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxPageSize, svc.lastFilter.PageSize)
}

func TestProductHandler_List_BadQuery(t *testing.T) {
	router := newProductRouter(&mockProductService{}, domain.RoleCustomer)

	for _, path := range []string{
		"/api/products?min_price=abc",
		"/api/products?max_price=abc",
		"/api/products?sort_order=sideways",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestProductHandler_Get(t *testing.T) {
	product := catalogProduct("Phone", "850000.00")
	svc := &mockProductService{products: []*domain.Product{product}}
	router := newProductRouter(svc, domain.RoleCustomer)

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+product.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		var got domain.Product
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, product.ID, got.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductHandler_Categories(t *testing.T) {
	svc := &mockProductService{categories: []string{"Electronics", "Fashion"}}
	router := newProductRouter(svc, domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/products/categories", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	var categories []string
	require.NoError(t, json.Unmarshal(resp.Data, &categories))
	assert.Equal(t, []string{"Electronics", "Fashion"}, categories)
}

func TestProductHandler_Create(t *testing.T) {
	t.Run("AdminCanCreate", func(t *testing.T) {
		svc := &mockProductService{}
		router := newProductRouter(svc, domain.RoleAdmin)

		body := `{"name":"Blender","price":"45000.00","category":"Home & Kitchen","stock":25,"discount":"10"}`
		req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, svc.created)
		assert.Equal(t, "Blender", svc.created.Name)
		assert.True(t, svc.created.Price.Equal(decimal.RequireFromString("45000.00")))
		assert.True(t, svc.created.Discount.Equal(decimal.RequireFromString("10")))
	})

	t.Run("CustomerIsForbidden", func(t *testing.T) {
		svc := &mockProductService{}
		router := newProductRouter(svc, domain.RoleCustomer)

		body := `{"name":"Blender","price":"45000.00","category":"Home & Kitchen","stock":25}`
		req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, svc.created)
	})

	t.Run("MissingFieldsFailValidation", func(t *testing.T) {
		router := newProductRouter(&mockProductService{}, domain.RoleAdmin)

		req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(`{"name":"Blender"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadMoneyValues", func(t *testing.T) {
		router := newProductRouter(&mockProductService{}, domain.RoleAdmin)

		for _, body := range []string{
			`{"name":"Blender","price":"-5","category":"Home","stock":1}`,
			`{"name":"Blender","price":"45000","category":"Home","stock":1,"discount":"150"}`,
			`{"name":"Blender","price":"forty","category":"Home","stock":1}`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})
}

func TestProductHandler_Update(t *testing.T) {
	svc := &mockProductService{}
	router := newProductRouter(svc, domain.RoleAdmin)
	id := uuid.New()

	body := `{"name":"Blender Pro","price":"52000.00","category":"Home & Kitchen","stock":20}`
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+id.String(), bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	assert.Equal(t, id, svc.updated.ID)
	assert.Equal(t, "Blender Pro", svc.updated.Name)
}

func TestProductHandler_Update_NotFound(t *testing.T) {
	svc := &mockProductService{err: repository.ErrProductNotFound}
	router := newProductRouter(svc, domain.RoleAdmin)

	body := `{"name":"Blender","price":"45000.00","category":"Home","stock":1}`
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+uuid.NewString(), bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductHandler_Delete(t *testing.T) {
	svc := &mockProductService{}
	router := newProductRouter(svc, domain.RoleAdmin)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.deleted)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "product deleted", resp.Message)
}
