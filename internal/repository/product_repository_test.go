package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"afrimart/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productTestColumns = []string{
	"id", "name", "description", "price", "category", "stock", "image_url",
	"sku", "brand", "weight", "is_active", "is_featured", "discount",
	"created_at", "updated_at",
}

func productRow(id uuid.UUID, name, price string, stock int) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, name, "", price, "Electronics", stock, "",
		nil, nil, nil, true, false, "0",
		now, now,
	}
}

func TestProductRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND is_active`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(productTestColumns).
				AddRow(productRow(id, "Wireless Mouse", "24999.00", 30)...))

		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Wireless Mouse", got.Name)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("24999.00")))
		assert.Equal(t, 30, got.Stock)
		assert.Nil(t, got.SKU)
		assert.False(t, got.Weight.Valid)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND is_active`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(ctx, id)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("NoFilters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE is_active`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT (.+) FROM products\s+WHERE is_active\s+ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows(productTestColumns).
				AddRow(productRow(uuid.New(), "Phone", "850000.00", 12)...).
				AddRow(productRow(uuid.New(), "Charger", "15000.00", 40)...))

		products, total, err := repo.List(ctx, ProductFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, products, 2)
		assert.Equal(t, "Phone", products[0].Name)
	})

	t.Run("CategoryAndPriceRange", func(t *testing.T) {
		minPrice := decimal.RequireFromString("10000")
		maxPrice := decimal.RequireFromString("100000")

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE is_active AND category = \$1 AND price >= \$2 AND price <= \$3`).
			WithArgs("Electronics", minPrice, maxPrice).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`ORDER BY price ASC\s+LIMIT \$4 OFFSET \$5`).
			WithArgs("Electronics", minPrice, maxPrice, 20, 20).
			WillReturnRows(sqlmock.NewRows(productTestColumns).
				AddRow(productRow(uuid.New(), "Charger", "15000.00", 40)...))

		_, total, err := repo.List(ctx, ProductFilter{
			Category:  "Electronics",
			MinPrice:  &minPrice,
			MaxPrice:  &maxPrice,
			SortBy:    "price",
			SortOrder: SortOrderAsc,
			Page:      2,
			PageSize:  20,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("InvalidSortFieldFallsBack", func(t *testing.T) {
		// "drop table" is not an allowed sort column; the query must sort by
		// created_at instead.
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE is_active`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`ORDER BY created_at DESC`).
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows(productTestColumns))

		_, _, err := repo.List(ctx, ProductFilter{SortBy: "drop table", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SearchUsesILike", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE is_active AND \(name ILIKE \$1 OR description ILIKE \$1\)`).
			WithArgs("%mouse%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`LIMIT \$2 OFFSET \$3`).
			WithArgs("%mouse%", 10, 0).
			WillReturnRows(sqlmock.NewRows(productTestColumns))

		_, _, err := repo.List(ctx, ProductFilter{Search: "mouse", Page: 1, PageSize: 10})
		require.NoError(t, err)
	})
}

func TestProductRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "Blender",
		Price:     decimal.RequireFromString("45000.00"),
		Category:  "Home & Kitchen",
		Stock:     25,
		Discount:  decimal.Zero,
		UpdatedAt: time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products\s+SET name = \$2`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Update(ctx, product))
	})

	t.Run("NotFoundOrInactive", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products\s+SET name = \$2`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, product), ErrProductNotFound)
	})
}

func TestProductRepository_SoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET is_active = FALSE`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SoftDelete(ctx, id))
	})

	t.Run("AlreadyDeleted", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET is_active = FALSE`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SoftDelete(ctx, id), ErrProductNotFound)
	})
}

func TestProductRepository_Categories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT category FROM products WHERE is_active GROUP BY category ORDER BY category`).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).
			AddRow("Electronics").
			AddRow("Fashion").
			AddRow("Home & Kitchen"))

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Fashion", "Home & Kitchen"}, categories)
}

func TestProductRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)

	sku := "BLD-001"
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "Blender",
		Price:     decimal.RequireFromString("45000.00"),
		Category:  "Home & Kitchen",
		Stock:     25,
		SKU:       &sku,
		IsActive:  true,
		Discount:  decimal.Zero,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO products`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(context.Background(), product))
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO products`).
			WillReturnError(errors.New("connection refused"))

		assert.Error(t, repo.Create(context.Background(), product))
	})
}
