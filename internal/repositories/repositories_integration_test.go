package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	"yalla-business/internal/migrations"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

// Интеграционные тесты идут на реальной БД: TEST_DATABASE_URL=postgres://... go test ./internal/repositories/
type RepositoriesSuite struct {
	suite.Suite
	pool      *pgxpool.Pool
	tx        TxManagerInterface
	companies CompanyRepositoryInterface
	projects  ProjectRepositoryInterface
	employees EmployeeRepositoryInterface
	subs      SubscriptionRepositoryInterface
	orders    OrderRepositoryInterface
	ledger    LedgerRepositoryInterface
}

func TestRepositoriesSuite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	suite.Run(t, &RepositoriesSuite{})
}

func (s *RepositoriesSuite) SetupSuite() {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, os.Getenv("TEST_DATABASE_URL"))
	s.Require().NoError(err)
	s.Require().NoError(migrations.Up(ctx, pool))

	logger := zap.NewNop()
	s.pool = pool
	s.tx = NewTxManager(pool)
	s.companies = NewCompanyRepository(pool, logger)
	s.projects = NewProjectRepository(pool, logger)
	s.employees = NewEmployeeRepository(pool, logger)
	s.subs = NewSubscriptionRepository(pool, logger)
	s.orders = NewOrderRepository(pool, logger)
	s.ledger = NewLedgerRepository(pool, logger)
}

func (s *RepositoriesSuite) TearDownSuite() {
	s.pool.Close()
}

func (s *RepositoriesSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE TABLE documents, news_reads, news, invoices, compensation_transactions,
		ledger_entries, orders, subscriptions, employees, users, projects, companies RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *RepositoriesSuite) seedCompany(balance int64) uint64 {
	ctx := context.Background()
	var id uint64
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.companies.Create(ctx, tx, &entities.Company{Name: "ОсОО Тест", Status: entities.CompanyStatusActive})
		if err != nil {
			return err
		}
		_, err = s.ledger.Apply(ctx, tx, &entities.LedgerEntry{CompanyID: id, EntryType: entities.LedgerTopUp, Amount: balance}, nil)
		return err
	})
	s.Require().NoError(err)
	return id
}

func (s *RepositoriesSuite) seedEmployee(companyID uint64) *entities.Employee {
	ctx := context.Background()
	projectID, err := s.projects.Create(ctx, &entities.Project{
		CompanyID: companyID, Name: "Офис", Address: "ул. Киевская 1", ServiceType: constants.ServiceLunch,
	})
	s.Require().NoError(err)

	e := &entities.Employee{
		CompanyID: companyID, ProjectID: projectID, FullName: "Асель Токтогулова", Phone: "+996555000111",
		ShiftType: constants.ShiftDay, WorkingDays: []int32{1, 2, 3, 4, 5}, ServiceType: constants.ServiceLunch, IsActive: true,
	}
	e.ID, err = s.employees.Create(ctx, e)
	s.Require().NoError(err)
	return e
}

func (s *RepositoriesSuite) TestLedgerApply_FloorIsRespected() {
	ctx := context.Background()
	companyID := s.seedCompany(1000)
	zero := int64(0)

	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		entry, err := s.ledger.Apply(ctx, tx, &entities.LedgerEntry{CompanyID: companyID, EntryType: entities.LedgerGuestOrder, Amount: -600}, &zero)
		s.Require().NoError(err)
		s.Equal(int64(400), entry.BalanceAfter)
		return nil
	})
	s.Require().NoError(err)

	err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		_, err := s.ledger.Apply(ctx, tx, &entities.LedgerEntry{CompanyID: companyID, EntryType: entities.LedgerGuestOrder, Amount: -500}, &zero)
		return err
	})
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	company, err := s.companies.FindByID(ctx, companyID)
	s.Require().NoError(err)
	s.Equal(int64(400), company.Balance)

	_, total, err := s.ledger.GetAll(ctx, Scope{CompanyID: companyID}, types.Filter{Limit: 10, WithPagination: true})
	s.Require().NoError(err)
	s.Equal(uint64(2), total)
}

func (s *RepositoriesSuite) TestLedgerApply_ConcurrentDeductionsNeverGoNegative() {
	ctx := context.Background()
	companyID := s.seedCompany(1000)
	zero := int64(0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
				_, err := s.ledger.Apply(ctx, tx, &entities.LedgerEntry{CompanyID: companyID, EntryType: entities.LedgerGuestOrder, Amount: -300}, &zero)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	company, err := s.companies.FindByID(ctx, companyID)
	s.Require().NoError(err)
	s.Equal(3, succeeded)
	s.Equal(int64(100), company.Balance)
}

func (s *RepositoriesSuite) TestOrders_BatchAndFrozenCount() {
	ctx := context.Background()
	companyID := s.seedCompany(10000)
	emp := s.seedEmployee(companyID)
	monday := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		subID, err := s.subs.Create(ctx, tx, &entities.Subscription{
			CompanyID: companyID, ProjectID: emp.ProjectID, EmployeeID: emp.ID, ComboType: "Комбо 25", Price: 250,
			StartDate: monday, EndDate: monday.AddDate(0, 0, 4), Status: entities.StatusActive,
		})
		if err != nil {
			return err
		}
		orders := make([]entities.Order, 0, 5)
		for i := 0; i < 5; i++ {
			orders = append(orders, entities.Order{
				CompanyID: companyID, ProjectID: emp.ProjectID, EmployeeID: &emp.ID, SubscriptionID: &subID,
				OrderType: entities.OrderTypeSubscription, Quantity: 1, OrderDate: monday.AddDate(0, 0, i),
				ComboType: "Комбо 25", Price: 250, Status: entities.StatusActive,
			})
		}
		n, err := s.orders.CreateBatch(ctx, tx, orders)
		if err != nil {
			return err
		}
		s.Equal(int64(5), n)

		list, err := s.orders.ListBySubscription(ctx, tx, subID, monday, []entities.Status{entities.StatusActive})
		if err != nil {
			return err
		}
		s.Require().Len(list, 5)
		return s.orders.Freeze(ctx, tx, list[1].ID, nil, time.Now())
	})
	require.NoError(s.T(), err)

	frozen, err := s.orders.CountFrozenInRange(ctx, nil, emp.ID, monday, monday.AddDate(0, 0, 7))
	s.Require().NoError(err)
	assert.Equal(s.T(), 1, frozen)

	overlap, err := s.subs.HasOverlap(ctx, nil, emp.ID, monday.AddDate(0, 0, 4), monday.AddDate(0, 0, 10))
	s.Require().NoError(err)
	s.True(overlap)
}
