package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	apperrors "yalla-business/pkg/errors"
)

type invoiceFixture struct {
	svc      *InvoiceService
	invoices *fakeInvoiceRepo
	ledger   *fakeLedgerRepo
	bus      *recordingBus
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		invoices: newFakeInvoiceRepo(
			entities.Invoice{ID: 1, CompanyID: 1, Number: "INV-2026-0001", InvoiceType: entities.InvoiceTypeTopUp, Amount: 50000, Status: entities.InvoiceStatusPending},
			entities.Invoice{ID: 2, CompanyID: 1, Number: "ACT-2026-0001", InvoiceType: entities.InvoiceTypeAct, Amount: 12000, Status: entities.InvoiceStatusPaid},
			entities.Invoice{ID: 3, CompanyID: 1, Number: "INV-2026-0002", InvoiceType: entities.InvoiceTypeTopUp, Amount: 7000, Status: entities.InvoiceStatusCancelled},
		),
		ledger: &fakeLedgerRepo{balance: 1000},
		bus:    &recordingBus{},
	}
	f.svc = NewInvoiceService(
		fakeTxManager{},
		f.invoices,
		newFakeCompanyRepo(entities.Company{ID: 1, Name: "ТОО Тест", Status: entities.CompanyStatusActive}),
		f.ledger,
		f.bus,
		zap.NewNop(),
	)
	f.svc.now = fixedNow("2026-03-10 15:30")
	return f
}

func TestInvoiceService_MarkPaidCreditsBalance(t *testing.T) {
	f := newInvoiceFixture()

	res, err := f.svc.MarkPaid(superAdminCtx(), 1)
	require.NoError(t, err)

	assert.Equal(t, entities.InvoiceStatusPaid, res.Status)
	require.NotNil(t, res.PaidAt)
	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, entities.LedgerTopUp, entry.EntryType)
	assert.Equal(t, int64(50000), entry.Amount)
	require.NotNil(t, entry.InvoiceID)
	assert.Equal(t, uint64(1), *entry.InvoiceID)
	assert.Equal(t, int64(51000), f.ledger.balance)
	assert.Equal(t, []string{events.NameBalanceChanged}, f.bus.names())
}

func TestInvoiceService_MarkPaidTwice(t *testing.T) {
	f := newInvoiceFixture()

	_, err := f.svc.MarkPaid(superAdminCtx(), 1)
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(superAdminCtx(), 1)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidTransition, apperrors.Code(err))
	assert.Len(t, f.ledger.entries, 1, "повторная оплата не зачисляется")
	assert.Equal(t, int64(51000), f.ledger.balance)
}

func TestInvoiceService_MarkPaid_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		id         uint64
		wantStatus int
		wantCode   string
	}{
		{name: "акт сверки", id: 2, wantStatus: http.StatusBadRequest},
		{name: "отменённый счёт", id: 3, wantStatus: http.StatusConflict, wantCode: CodeInvalidTransition},
		{name: "нет такого счёта", id: 42, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInvoiceFixture()

			_, err := f.svc.MarkPaid(superAdminCtx(), tt.id)
			require.Error(t, err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, appErr.Code)
			}
			assert.Empty(t, f.ledger.entries)
			assert.Empty(t, f.bus.names())
		})
	}
}

func TestInvoiceService_CancelPending(t *testing.T) {
	f := newInvoiceFixture()

	res, err := f.svc.Cancel(adminCtx(1), 1)
	require.NoError(t, err)

	assert.Equal(t, entities.InvoiceStatusCancelled, res.Status)
	assert.Nil(t, res.PaidAt)
	assert.Empty(t, f.ledger.entries)
}

func TestInvoiceService_CancelPaid(t *testing.T) {
	f := newInvoiceFixture()

	_, err := f.svc.MarkPaid(superAdminCtx(), 1)
	require.NoError(t, err)

	_, err = f.svc.Cancel(adminCtx(1), 1)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidTransition, apperrors.Code(err))
	assert.Equal(t, entities.InvoiceStatusPaid, f.invoices.invoices[1].Status)
}

func TestInvoiceService_CancelOtherCompany(t *testing.T) {
	f := newInvoiceFixture()

	_, err := f.svc.Cancel(adminCtx(2), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, entities.InvoiceStatusPending, f.invoices.invoices[1].Status)
}
