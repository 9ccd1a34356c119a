// Command seed loads a small published catalog of engraved goods into the
// catalog editor's database. Re-runs skip products that already exist.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/config"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository/postgres"
	"github.com/alleny0o/sr-laserworks-ecommerce/migrations"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/database"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("catalog-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	created, err := seed(ctx, postgres.NewProductRepository(pool), seedProducts(time.Now().UTC()), log)
	if err != nil {
		return err
	}
	log.Info("seed complete", slog.Int("published", created))
	return nil
}

// seed creates and publishes every product whose published copy does not
// exist yet. It returns how many were published.
func seed(ctx context.Context, repo repository.ProductRepository, products []*domain.Product, log *slog.Logger) (int, error) {
	published := 0
	for _, p := range products {
		_, err := repo.GetByID(ctx, p.PublishedID())
		switch {
		case err == nil:
			log.Info("product exists, skipping", slog.String("product_id", p.PublishedID()))
			continue
		case !errors.Is(err, apperrors.ErrNotFound):
			return published, fmt.Errorf("look up %s: %w", p.Name, err)
		}

		if err := repo.Create(ctx, p); err != nil {
			return published, fmt.Errorf("create %s: %w", p.Name, err)
		}
		if _, err := repo.Publish(ctx, p.ID, p.Revision); err != nil {
			return published, fmt.Errorf("publish %s: %w", p.Name, err)
		}
		published++
		log.Info("product published",
			slog.String("product_id", p.PublishedID()),
			slog.Int("variants", len(p.Variants)),
		)
	}
	return published, nil
}
