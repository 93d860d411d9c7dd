package main

import (
	"context"
	"flag"
	"log"

	"yalla-business/internal/migrations"
	"yalla-business/pkg/config"
	"yalla-business/pkg/database/postgresql"
	"yalla-business/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runMigrate := flag.Bool("migrate", false, "Применить миграции перед наполнением")
	runConfig := flag.Bool("config", false, "Дописать недостающие настройки из YAML")
	runAdmin := flag.Bool("admin", false, "Создать Супер-Администратора")
	runDemo := flag.Bool("demo", false, "Создать демо-компанию с проектами и сотрудниками")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -config -admin -demo)")

	flag.Parse()

	if !*runMigrate && !*runConfig && !*runAdmin && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -config -admin")
		log.Println("  go run ./seeders/cmd/seed -migrate -all")
		log.Println("======================================================")
		return
	}

	ctx := context.Background()
	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	log.Println("======================================================")

	if *runMigrate {
		if err := migrations.Up(ctx, dbPool); err != nil {
			log.Fatalf("❌ Ошибка миграций: %v", err)
		}
		log.Println("✅ Миграции применены")
	}

	if *runAll {
		if err := seeders.SeedAll(ctx, dbPool, cfg, true); err != nil {
			log.Fatalf("❌ %v", err)
		}
	} else {
		if *runConfig {
			if err := seeders.SeedBusinessConfig(ctx, dbPool, cfg); err != nil {
				log.Fatalf("❌ Настройки: %v", err)
			}
		}
		if *runAdmin {
			if err := seeders.SeedSuperAdmin(ctx, dbPool, cfg.Seed); err != nil {
				log.Fatalf("❌ Супер-админ: %v", err)
			}
		}
		if *runDemo {
			if err := seeders.SeedDemoCompany(ctx, dbPool); err != nil {
				log.Fatalf("❌ Демо-данные: %v", err)
			}
		}
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
