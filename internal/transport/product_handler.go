package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"afrimart/internal/domain"
	"afrimart/internal/middleware"
	"afrimart/internal/repository"
	"afrimart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductRequest is the create/update payload for a catalog product.
type ProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       string  `json:"price" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageURL    string  `json:"image_url"`
	SKU         *string `json:"sku"`
	Brand       *string `json:"brand"`
	Weight      *string `json:"weight"`
	IsFeatured  bool    `json:"is_featured"`
	Discount    string  `json:"discount"`
}

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public; writes
// require an authenticated admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/categories", h.Categories)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// parsePage reads page/limit query params with defaults and a limit cap.
func parsePage(r *http.Request) (page, pageSize int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	pageSize = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}

func pagination(total, page, pageSize int) middleware.Pagination {
	pages := 0
	if total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return middleware.Pagination{
		Total: total,
		Page:  page,
		Pages: pages,
		Limit: pageSize,
	}
}

// List handles GET /api/products with filtering, sorting and pagination.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
	}
	filter.Page, filter.PageSize = parsePage(r)

	if v := q.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid min_price")
			return
		}
		filter.MinPrice = &d
	}
	if v := q.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		filter.MaxPrice = &d
	}

	switch strings.ToUpper(q.Get("sort_order")) {
	case "ASC":
		filter.SortOrder = repository.SortOrderAsc
	case "DESC", "":
		filter.SortOrder = repository.SortOrderDesc
	default:
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid sort_order")
		return
	}

	products, total, err := h.productService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithPage(w, http.StatusOK, products, pagination(total, filter.Page, filter.PageSize))
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Categories handles GET /api/products/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.Categories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// toProduct converts the request payload into a domain product. Money fields
// travel as strings so clients never lose precision to float encoding.
func (req *ProductRequest) toProduct() (*domain.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("invalid price")
	}

	discount := decimal.Zero
	if req.Discount != "" {
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.New("invalid discount")
		}
	}

	var weight decimal.NullDecimal
	if req.Weight != nil {
		d, err := decimal.NewFromString(*req.Weight)
		if err != nil {
			return nil, errors.New("invalid weight")
		}
		weight = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		SKU:         req.SKU,
		Brand:       req.Brand,
		Weight:      weight,
		IsFeatured:  req.IsFeatured,
		Discount:    discount,
	}, nil
}

// Create handles POST /api/products (admin)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := req.toProduct()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.productService.Create(r.Context(), product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id} (admin)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := req.toProduct()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	product.ID = id

	if err := h.productService.Update(r.Context(), product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to update product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id} (admin). The row is deactivated,
// not removed.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to delete product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deactivated", zap.String("product_id", id.String()))
	middleware.RespondWithMessage(w, http.StatusOK, "product deleted")
}
