package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"afrimart/internal/config"
	"afrimart/internal/database"
	"afrimart/internal/domain"
	"afrimart/internal/logger"
	"afrimart/internal/repository"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type seedProduct struct {
	name        string
	description string
	price       string
	category    string
	stock       int
	sku         string
	brand       string
	weight      string
	isFeatured  bool
	discount    string
	imageURL    string
}

var seedProducts = []seedProduct{
	{
		name:        "iPhone 15 Pro",
		description: "Latest iPhone with A17 Pro chip, titanium design, and advanced camera system",
		price:       "1299000",
		category:    "Electronics",
		stock:       50,
		sku:         "IPH15PRO-128",
		brand:       "Apple",
		weight:      "0.187",
		isFeatured:  true,
		imageURL:    "https://images.unsplash.com/photo-1695048133142-1a20484d2569?w=400",
	},
	{
		name:        "Samsung Galaxy S24 Ultra",
		description: "Premium Samsung smartphone with S Pen, 200MP camera, and AI features",
		price:       "1199000",
		category:    "Electronics",
		stock:       45,
		sku:         "SAM-S24U-256",
		brand:       "Samsung",
		weight:      "0.232",
		isFeatured:  true,
		discount:    "10",
		imageURL:    "https://images.unsplash.com/photo-1610945415295-d9bbf067e59c?w=400",
	},
	{
		name:        "MacBook Pro 16\"",
		description: "Powerful laptop with M3 Pro chip, 16GB RAM, 512GB SSD",
		price:       "2499000",
		category:    "Computers",
		stock:       20,
		sku:         "MBP16-M3-512",
		brand:       "Apple",
		weight:      "2.14",
		isFeatured:  true,
		imageURL:    "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=400",
	},
	{
		name:        "Sony WH-1000XM5",
		description: "Industry-leading noise canceling wireless headphones",
		price:       "349000",
		category:    "Audio",
		stock:       100,
		sku:         "SONY-WH1000XM5",
		brand:       "Sony",
		weight:      "0.25",
		discount:    "15",
		imageURL:    "https://images.unsplash.com/photo-1546435770-a3e426bf472b?w=400",
	},
	{
		name:        "Dell XPS 13",
		description: "Ultra-portable laptop with InfinityEdge display, Intel Core i7",
		price:       "1399000",
		category:    "Computers",
		stock:       30,
		sku:         "DELL-XPS13-I7",
		brand:       "Dell",
		weight:      "1.27",
		imageURL:    "https://images.unsplash.com/photo-1593642632823-8f785ba67e45?w=400",
	},
	{
		name:        "iPad Air 5th Gen",
		description: "Versatile tablet with M1 chip, 10.9\" Liquid Retina display",
		price:       "599000",
		category:    "Tablets",
		stock:       60,
		sku:         "IPAD-AIR5-64",
		brand:       "Apple",
		weight:      "0.461",
		imageURL:    "https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=400",
	},
	{
		name:        "Canon EOS R6",
		description: "Full-frame mirrorless camera with 20MP sensor and 4K video",
		price:       "2499000",
		category:    "Cameras",
		stock:       15,
		sku:         "CANON-R6-BODY",
		brand:       "Canon",
		weight:      "0.68",
		isFeatured:  true,
		imageURL:    "https://images.unsplash.com/photo-1526170375885-4d8ecf77b99f?w=400",
	},
	{
		name:        "LG OLED C3 55\"",
		description: "4K OLED TV with α9 Gen6 AI Processor and Dolby Vision",
		price:       "1899000",
		category:    "TVs",
		stock:       25,
		sku:         "LG-OLEDC3-55",
		brand:       "LG",
		weight:      "18.9",
		discount:    "20",
		imageURL:    "https://images.unsplash.com/photo-1593784991095-a205069470b6?w=400",
	},
	{
		name:        "Samsung Galaxy Watch 6",
		description: "Smartwatch with advanced health tracking and fitness features",
		price:       "299000",
		category:    "Wearables",
		stock:       80,
		sku:         "SAM-WATCH6-44",
		brand:       "Samsung",
		weight:      "0.033",
		imageURL:    "https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=400",
	},
	{
		name:        "Bose SoundLink Revolve+",
		description: "Portable Bluetooth speaker with 360° sound",
		price:       "279000",
		category:    "Audio",
		stock:       50,
		sku:         "BOSE-REVOLVE-PLUS",
		brand:       "Bose",
		weight:      "0.9",
		imageURL:    "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=400",
	},
	{
		name:        "Logitech MX Master 3S",
		description: "Ergonomic wireless mouse with precision scrolling",
		price:       "99000",
		category:    "Accessories",
		stock:       150,
		sku:         "LOGI-MXMASTER3S",
		brand:       "Logitech",
		weight:      "0.141",
		imageURL:    "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=400",
	},
	{
		name:        "Nike Air Jordan 1",
		description: "Classic basketball sneakers in Chicago colorway",
		price:       "175000",
		category:    "Footwear",
		stock:       100,
		sku:         "NIKE-AJ1-CHICAGO",
		brand:       "Nike",
		weight:      "0.7",
		discount:    "5",
		imageURL:    "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400",
	},
}

func seedUser(ctx context.Context, repo repository.UserRepository, user *domain.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.ID = uuid.New()
	user.PasswordHash = string(hash)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	err = repo.Create(ctx, user)
	if errors.Is(err, repository.ErrUserAlreadyExists) {
		return nil
	}
	return err
}

// seedProductRow inserts a product, keyed on SKU so reruns are no-ops.
func seedProductRow(ctx context.Context, db *sql.DB, p seedProduct) error {
	price, err := decimal.NewFromString(p.price)
	if err != nil {
		return fmt.Errorf("invalid price for %s: %w", p.sku, err)
	}

	discount := decimal.Zero
	if p.discount != "" {
		discount, err = decimal.NewFromString(p.discount)
		if err != nil {
			return fmt.Errorf("invalid discount for %s: %w", p.sku, err)
		}
	}

	weight, err := decimal.NewFromString(p.weight)
	if err != nil {
		return fmt.Errorf("invalid weight for %s: %w", p.sku, err)
	}

	query := `
		INSERT INTO products (id, name, description, price, category, stock, image_url,
			sku, brand, weight, is_active, is_featured, discount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $12, now(), now())
		ON CONFLICT (sku) DO NOTHING`

	_, err = db.ExecContext(ctx, query,
		uuid.New(), p.name, p.description, price, p.category, p.stock, p.imageURL,
		p.sku, p.brand, weight, p.isFeatured, discount,
	)
	return err
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()

	db := dbService.DB()

	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)

	admin := &domain.User{
		Email:     "admin@afrimart.com",
		FirstName: "Admin",
		LastName:  "User",
		Phone:     "+234-800-000-0000",
		Address:   "123 Admin Street",
		City:      "Lagos",
		State:     "Lagos",
		Role:      domain.RoleAdmin,
	}
	if err := seedUser(ctx, userRepo, admin, "admin123"); err != nil {
		log.Fatal("Failed to seed admin user", zap.Error(err))
	}
	log.Info("Admin user seeded", zap.String("email", admin.Email))

	customer := &domain.User{
		Email:     "customer@test.com",
		FirstName: "Test",
		LastName:  "Customer",
		Phone:     "+234-800-111-1111",
		Address:   "456 Customer Avenue",
		City:      "Abuja",
		State:     "FCT",
		Role:      domain.RoleCustomer,
	}
	if err := seedUser(ctx, userRepo, customer, "customer123"); err != nil {
		log.Fatal("Failed to seed test customer", zap.Error(err))
	}
	log.Info("Test customer seeded", zap.String("email", customer.Email))

	for _, p := range seedProducts {
		if err := seedProductRow(ctx, db, p); err != nil {
			log.Fatal("Failed to seed product", zap.String("sku", p.sku), zap.Error(err))
		}
	}
	log.Info("Products seeded", zap.Int("count", len(seedProducts)))

	log.Info("Database seeding completed",
		zap.String("admin", "admin@afrimart.com / admin123"),
		zap.String("customer", "customer@test.com / customer123"),
	)
}
