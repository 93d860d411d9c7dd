package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yalla-business/internal/entities"
	"yalla-business/pkg/constants"
	"yalla-business/pkg/utils"
)

// SeedDemoCompany создаёт компанию с проектами, админом и сотрудниками. Баланс
// заводится через запись TOP_UP, как при оплате счёта.
func SeedDemoCompany(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание демо-компании...")

	var exists bool
	if err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM companies WHERE name = $1)", demoCompanyName).Scan(&exists); err != nil {
		return err
	}
	if exists {
		log.Println("    - Демо-компания уже существует. Пропускаем.")
		return nil
	}

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		var companyID uint64
		err := tx.QueryRow(ctx,
			`INSERT INTO companies (name, bin, phone, email, address, balance, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			demoCompanyName, "123456789012", "+996312000000", "demo@yalla.local", "г. Бишкек",
			demoCompanyBudget, entities.CompanyStatusActive,
		).Scan(&companyID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO ledger_entries (company_id, entry_type, amount, balance_after, comment)
			 VALUES ($1, $2, $3, $3, $4)`,
			companyID, entities.LedgerTopUp, demoCompanyBudget, "Стартовый баланс демо-компании",
		); err != nil {
			return err
		}

		projectIDs := make([]uint64, len(demoProjects))
		for i, p := range demoProjects {
			err := tx.QueryRow(ctx,
				`INSERT INTO projects (company_id, name, address, service_type, cutoff_time, compensation_limit)
				 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				companyID, p.Name, p.Address, p.ServiceType, p.CutoffTime, p.CompensationLimit,
			).Scan(&projectIDs[i])
			if err != nil {
				return err
			}
		}

		hashedPassword, err := utils.HashPassword(demoAdminPassword)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (company_id, full_name, phone, email, password_hash, role) VALUES ($1, $2, $3, $4, $5, $6)`,
			companyID, "Админ Демо", "+996700000001", "admin@demo.yalla.local", hashedPassword, constants.RoleAdmin.String(),
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (company_id, project_id, full_name, phone, password_hash, role) VALUES ($1, $2, $3, $4, $5, $6)`,
			companyID, projectIDs[1], "Менеджер Склада", "+996700000002", hashedPassword, constants.RoleManager.String(),
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, e := range demoEmployees {
			p := demoProjects[e.Project]
			workingDays := e.WorkingDays
			if workingDays == nil {
				workingDays = []int32{1, 2, 3, 4, 5}
			}
			batch.Queue(
				`INSERT INTO employees (company_id, project_id, full_name, phone, position, working_days, service_type, budget)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				companyID, projectIDs[e.Project], e.FullName, e.Phone, e.Position, workingDays, p.ServiceType, e.Budget,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}

		log.Printf("    - Демо-компания #%d: %d проекта, %d сотрудников, админ admin@demo.yalla.local",
			companyID, len(demoProjects), len(demoEmployees))
		return nil
	})
}
