package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/arkarz/perfumeria/internal/domain/auth"
	"github.com/arkarz/perfumeria/internal/domain/product"
	"github.com/arkarz/perfumeria/internal/handler"
	"github.com/arkarz/perfumeria/internal/storage/postgres"
)

type brandJSON struct {
	ID          string `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Logo        string `json:"logo"`
}

type perfumeJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"nombre"`
	BrandID     string          `json:"marca"`
	Gender      string          `json:"sexo"`
	Size        string          `json:"tamano"`
	Price       decimal.Decimal `json:"precio"`
	Description string          `json:"descripcion"`
	Image       string          `json:"imagen"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"destacado"`
}

type catalogJSON struct {
	Brands   []brandJSON   `json:"marcas"`
	Perfumes []perfumeJSON `json:"perfumes"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to the catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or PERFUMERIA_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PERFUMERIA_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PERFUMERIA_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PERFUMERIA_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PERFUMERIA_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog := product.NewCatalog(postgres.NewProductRepository(pool))
	if err := seedCatalog(ctx, catalog, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCatalog(ctx context.Context, catalog *product.Catalog, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var c catalogJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting brands", slog.Int("count", len(c.Brands)))
	for _, b := range c.Brands {
		if err := catalog.UpsertBrand(ctx, &product.Brand{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Logo:        b.Logo,
			Active:      true,
		}); err != nil {
			return errors.Wrapf(err, "upsert brand %s", b.ID)
		}
	}

	slog.Info("upserting perfumes", slog.Int("count", len(c.Perfumes)))
	for _, p := range c.Perfumes {
		if err := catalog.UpsertProduct(ctx, &product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Brand:       product.BrandRef{ID: p.BrandID},
			Gender:      product.Gender(p.Gender),
			Size:        product.Size(p.Size),
			Price:       p.Price,
			Description: p.Description,
			Image:       p.Image,
			Stock:       p.Stock,
			Active:      true,
			Featured:    p.Featured,
		}); err != nil {
			return errors.Wrapf(err, "upsert perfume %s", p.ID)
		}

		slog.Info("upserted perfume", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedAPIKey(ctx context.Context, keys *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	if err := keys.Upsert(ctx, &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: handler.HashKey([]byte(pepper), apiKey),
		Name:    "Default catalog admin key",
		Scopes:  []string{auth.ScopeCatalogWrite},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))

	return nil
}
