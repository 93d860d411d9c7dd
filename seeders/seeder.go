package seeders

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/repositories"
	"yalla-business/internal/services"
	"yalla-business/pkg/config"
)

// SeedBusinessConfig дописывает в business_config ключи из YAML, которых ещё нет.
func SeedBusinessConfig(ctx context.Context, db *pgxpool.Pool, cfg *config.Config) error {
	log.Println("▶️  Настройки по умолчанию из", cfg.Seed.BusinessDefaultsFile)

	f, err := os.Open(cfg.Seed.BusinessDefaultsFile)
	if err != nil {
		return fmt.Errorf("не удалось открыть файл настроек: %w", err)
	}
	defer f.Close()

	entries, err := services.LoadConfigDefaults(f)
	if err != nil {
		return err
	}
	repo := repositories.NewBusinessConfigRepository(db, zap.NewNop())
	inserted, err := repo.InsertMissing(ctx, entries)
	if err != nil {
		return err
	}
	log.Printf("    - добавлено ключей: %d из %d", inserted, len(entries))
	return nil
}

// SeedAll - настройки, супер-админ и, по флагу, демо-компания.
func SeedAll(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, withDemo bool) error {
	if err := SeedBusinessConfig(ctx, db, cfg); err != nil {
		return fmt.Errorf("настройки: %w", err)
	}
	if err := SeedSuperAdmin(ctx, db, cfg.Seed); err != nil {
		return fmt.Errorf("супер-админ: %w", err)
	}
	if withDemo {
		if err := SeedDemoCompany(ctx, db); err != nil {
			return fmt.Errorf("демо-данные: %w", err)
		}
	}
	return nil
}
