package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
)

type compensationFixture struct {
	svc       *CompensationService
	repo      *fakeCompensationRepo
	employees *fakeEmployeeRepo
	ledger    *fakeLedgerRepo
}

func newCompensationFixture(spent int64) *compensationFixture {
	f := &compensationFixture{
		repo: &fakeCompensationRepo{spent: spent},
		employees: newFakeEmployeeRepo(entities.Employee{
			ID: 8, CompanyID: 1, ProjectID: 9, FullName: "Чолпон",
			ServiceType: constants.ServiceCompensation, Budget: 5000, IsActive: true,
		}),
		ledger: &fakeLedgerRepo{balance: 20000},
	}
	f.svc = NewCompensationService(
		fakeTxManager{},
		f.repo,
		f.employees,
		newFakeProjectRepo(entities.Project{ID: 9, CompanyID: 1, Name: "Цех", ServiceType: constants.ServiceCompensation, CompensationLimit: 3000}),
		newFakeCompanyRepo(entities.Company{ID: 1, Name: "ТОО Тест", Balance: 20000, Status: entities.CompanyStatusActive}),
		f.ledger,
		testSettings(),
		&recordingBus{},
		zap.NewNop(),
	)
	f.svc.now = fixedNow("2026-03-10 12:00")
	return f
}

func compensationPayload(amount int64) dto.CreateCompensationDTO {
	return dto.CreateCompensationDTO{EmployeeID: 8, Amount: amount, Restaurant: " Навват ", Date: "2026-03-10"}
}

func TestCompensationService_Create(t *testing.T) {
	f := newCompensationFixture(1000)

	res, err := f.svc.Create(adminCtx(1), compensationPayload(600))
	require.NoError(t, err)
	assert.Equal(t, int64(600), res.Amount)

	require.Len(t, f.repo.created, 1)
	assert.Equal(t, "Навват", f.repo.created[0].Restaurant)
	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, entities.LedgerCompensation, entry.EntryType)
	assert.Equal(t, int64(-600), entry.Amount)
	require.NotNil(t, entry.CompensationID)
	assert.Equal(t, int64(19400), f.ledger.balance)
}

func TestCompensationService_Create_LimitExceeded(t *testing.T) {
	f := newCompensationFixture(4500)

	_, err := f.svc.Create(adminCtx(1), compensationPayload(600))
	require.Error(t, err)
	assert.Equal(t, CodeCompensationLimit, apperrors.Code(err))
	assert.Empty(t, f.ledger.entries)
}

func TestCompensationService_Create_ProjectLimitWhenNoBudget(t *testing.T) {
	f := newCompensationFixture(2500)
	f.employees.employees[8].Budget = 0

	_, err := f.svc.Create(adminCtx(1), compensationPayload(600))
	require.Error(t, err)
	assert.Equal(t, CodeCompensationLimit, apperrors.Code(err))

	_, err = f.svc.Create(adminCtx(1), compensationPayload(500))
	assert.NoError(t, err)
}

func TestCompensationService_Create_Rejections(t *testing.T) {
	t.Run("дата в будущем", func(t *testing.T) {
		f := newCompensationFixture(0)
		payload := compensationPayload(100)
		payload.Date = "2026-03-11"
		_, err := f.svc.Create(adminCtx(1), payload)
		require.Error(t, err)
		assert.Empty(t, f.repo.created)
	})

	t.Run("сотрудник на питании", func(t *testing.T) {
		f := newCompensationFixture(0)
		f.employees.employees[8].ServiceType = constants.ServiceLunch
		_, err := f.svc.Create(adminCtx(1), compensationPayload(100))
		require.Error(t, err)
		assert.Equal(t, CodeServiceTypeMismatch, apperrors.Code(err))
	})

	t.Run("не хватает баланса", func(t *testing.T) {
		f := newCompensationFixture(0)
		f.ledger.balance = 50
		_, err := f.svc.Create(adminCtx(1), compensationPayload(100))
		require.Error(t, err)
		assert.Equal(t, CodeInsufficientBudget, apperrors.Code(err))
	})
}
