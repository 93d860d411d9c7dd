package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"yalla-business/pkg/config"
	"yalla-business/pkg/constants"
	"yalla-business/pkg/utils"
)

func SeedSuperAdmin(ctx context.Context, db *pgxpool.Pool, cfg config.SeedConfig) error {
	log.Println("  - Создание пользователя 'Super Admin'...")
	phone := utils.NormalizePhone(cfg.SuperAdminPhone)

	var exists bool
	err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1 OR email = $2)", phone, cfg.SuperAdminEmail).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		log.Println("    - Пользователь Super Admin уже существует. Пропускаем.")
		return nil
	}

	hashedPassword, err := utils.HashPassword(cfg.SuperAdminPassword)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (full_name, phone, email, password_hash, role) VALUES ($1, $2, $3, $4, $5)`
	if _, err := db.Exec(ctx, query, "Супер Администратор", phone, cfg.SuperAdminEmail, hashedPassword, constants.RoleSuperAdmin.String()); err != nil {
		return err
	}
	log.Println("    - Super Admin создан:", cfg.SuperAdminEmail)
	return nil
}
