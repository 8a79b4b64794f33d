package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/gommon/log"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/model"
	"storefront/internal/otp"
	"storefront/internal/phone"
	"storefront/internal/repository"
	"storefront/internal/service"
)

//go:embed catalog.json
var defaultCatalog []byte

func main() {
	catalogURL := flag.String("url", "", "fetch the catalog from this URL instead of the bundled one")
	force := flag.Bool("force", false, "import even when the catalog already has products")
	flag.Parse()

	logger := log.New("seed")
	logger.Info("Starting seed script...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	gormDB, err := db.Open(cfg.DBDialect, cfg.DBDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.AdminPhoneNumber != "" {
		userRepo := repository.NewUserRepository(gormDB, otp.NewBcryptHasher(cfg.OTPHashCost))
		if err := promoteAdmin(ctx, userRepo, cfg.AdminPhoneNumber); err != nil {
			logger.Fatalf("Failed to promote admin: %v", err)
		}
		logger.Infof("Admin role granted to %s", cfg.AdminPhoneNumber)
	}

	products := service.NewProductService(repository.NewProductRepository(gormDB), nil)
	if !*force {
		page, err := products.ListProducts(ctx, service.ListProductsQuery{Limit: 1})
		if err != nil {
			logger.Fatalf("Failed to read catalog: %v", err)
		}
		if page.Total > 0 {
			logger.Infof("Catalog already has %d products, skipping import (use -force to import anyway)", page.Total)
			return
		}
	}

	raw := defaultCatalog
	if *catalogURL != "" {
		logger.Infof("Fetching catalog from: %s", *catalogURL)
		if raw, err = fetchCatalog(ctx, *catalogURL); err != nil {
			logger.Fatalf("Failed to fetch catalog: %v", err)
		}
	}

	var catalog []model.Product
	if err := json.Unmarshal(raw, &catalog); err != nil {
		logger.Fatalf("Failed to parse catalog: %v", err)
	}

	count, err := products.ImportProducts(ctx, catalog)
	if err != nil {
		logger.Fatalf("Failed to import products: %v", err)
	}
	logger.Infof("Seed completed successfully! Products imported: %d", count)
}

// fetchCatalog downloads a JSON array of products.
func fetchCatalog(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// promoteAdmin creates the user for rawPhone when needed and grants ADMIN.
func promoteAdmin(ctx context.Context, repo repository.UserRepository, rawPhone string) error {
	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return fmt.Errorf("ADMIN_PHONE_NUMBER: %w", err)
	}
	return repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, _, err := repo.FindOrCreateByPhone(ctx, number)
		if err != nil {
			return err
		}
		rec.Role = model.RoleAdmin
		return repo.Save(ctx, rec)
	})
}
