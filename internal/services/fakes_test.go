package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

// Фейки репозиториев для сервисных тестов. Встроенный интерфейс закрывает
// методы, которые тест не вызывает: обращение к ним паникует.

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type staticSettings struct {
	settings entities.BusinessSettings
}

func (s staticSettings) Settings(context.Context) (entities.BusinessSettings, error) {
	return s.settings, nil
}

func testSettings() staticSettings {
	s := entities.DefaultBusinessSettings()
	s.Timezone = "UTC"
	return staticSettings{settings: s}
}

type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, e eventbus.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, e := range b.events {
		names = append(names, e.Name())
	}
	return names
}

func date(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedNow(s string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func adminCtx(companyID uint64) context.Context {
	return utils.WithPrincipal(context.Background(), types.Principal{
		UserID:    1,
		CompanyID: &companyID,
		Role:      constants.RoleAdmin,
	})
}

func superAdminCtx() context.Context {
	return utils.WithPrincipal(context.Background(), types.Principal{UserID: 99, Role: constants.RoleSuperAdmin})
}

// --- orders ---

type fakeOrderRepo struct {
	repositories.OrderRepositoryInterface

	orders  map[uint64]*entities.Order
	nextID  uint64
	batches [][]entities.Order
}

func newFakeOrderRepo(orders ...entities.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[uint64]*entities.Order), nextID: 1000}
	for i := range orders {
		o := orders[i]
		r.orders[o.ID] = &o
	}
	return r
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uint64) (*entities.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindForUpdate(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) Create(_ context.Context, _ pgx.Tx, order *entities.Order) (uint64, error) {
	r.nextID++
	o := *order
	o.ID = r.nextID
	r.orders[o.ID] = &o
	return o.ID, nil
}

func (r *fakeOrderRepo) CreateBatch(_ context.Context, _ pgx.Tx, orders []entities.Order) (int64, error) {
	r.batches = append(r.batches, orders)
	return int64(len(orders)), nil
}

func (r *fakeOrderRepo) CountFrozenInRange(_ context.Context, _ pgx.Tx, employeeID uint64, from, to time.Time) (int, error) {
	n := 0
	for _, o := range r.orders {
		if o.Status != entities.StatusFrozen || o.EmployeeID == nil || *o.EmployeeID != employeeID {
			continue
		}
		if !o.OrderDate.Before(from) && o.OrderDate.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) ListBySubscription(_ context.Context, _ pgx.Tx, subscriptionID uint64, from time.Time, statuses []entities.Status) ([]entities.Order, error) {
	var result []entities.Order
	for _, o := range r.orders {
		if o.SubscriptionID == nil || *o.SubscriptionID != subscriptionID || o.OrderDate.Before(from) {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, o.Status) {
			continue
		}
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].OrderDate.Before(result[j].OrderDate)
	})
	return result, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, _ pgx.Tx, ids []uint64, status entities.Status) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			o.Status = status
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) UpdateCombo(_ context.Context, _ pgx.Tx, ids []uint64, combo string, price int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			o.ComboType, o.Price = combo, price
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) CompleteDue(_ context.Context, _ pgx.Tx, before time.Time) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.Status == entities.StatusActive && o.OrderDate.Before(before) {
			o.Status = entities.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) statuses(ids ...uint64) []entities.Status {
	result := make([]entities.Status, len(ids))
	for i, id := range ids {
		if o, ok := r.orders[id]; ok {
			result[i] = o.Status
		}
	}
	return result
}

func (r *fakeOrderRepo) Freeze(_ context.Context, _ pgx.Tx, id uint64, reason *string, at time.Time) error {
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.Status = entities.StatusFrozen
	o.FreezeReason = reason
	o.FrozenAt = &at
	return nil
}

func (r *fakeOrderRepo) Unfreeze(_ context.Context, _ pgx.Tx, id uint64) error {
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.Status = entities.StatusActive
	o.FreezeReason, o.FrozenAt = nil, nil
	return nil
}

func (r *fakeOrderRepo) FindLatestReplacement(_ context.Context, _ pgx.Tx, subscriptionID, excludeID uint64) (*entities.Order, error) {
	var latest *entities.Order
	for _, o := range r.orders {
		if !o.IsReplacement || o.Status != entities.StatusActive || o.SubscriptionID == nil || *o.SubscriptionID != subscriptionID {
			continue
		}
		if o.ID == excludeID {
			continue
		}
		if latest == nil || o.OrderDate.After(latest.OrderDate) {
			latest = o
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeOrderRepo) MaxOrderDate(_ context.Context, _ pgx.Tx, subscriptionID uint64) (*time.Time, error) {
	var last *time.Time
	for _, o := range r.orders {
		if o.SubscriptionID == nil || *o.SubscriptionID != subscriptionID || o.Status == entities.StatusCancelled {
			continue
		}
		if last == nil || o.OrderDate.After(*last) {
			d := o.OrderDate
			last = &d
		}
	}
	return last, nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	if _, ok := r.orders[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// --- subscriptions ---

type fakeSubscriptionRepo struct {
	repositories.SubscriptionRepositoryInterface

	subs    map[uint64]*entities.Subscription
	nextID  uint64
	overlap bool
}

func newFakeSubscriptionRepo(subs ...entities.Subscription) *fakeSubscriptionRepo {
	r := &fakeSubscriptionRepo{subs: make(map[uint64]*entities.Subscription), nextID: 100}
	for i := range subs {
		s := subs[i]
		r.subs[s.ID] = &s
	}
	return r
}

func (r *fakeSubscriptionRepo) FindByID(_ context.Context, id uint64) (*entities.Subscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubscriptionRepo) FindForUpdate(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Subscription, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSubscriptionRepo) HasOverlap(context.Context, pgx.Tx, uint64, time.Time, time.Time) (bool, error) {
	return r.overlap, nil
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, _ pgx.Tx, sub *entities.Subscription) (uint64, error) {
	r.nextID++
	s := *sub
	s.ID = r.nextID
	r.subs[s.ID] = &s
	return s.ID, nil
}

func (r *fakeSubscriptionRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uint64, status entities.Status) error {
	s, ok := r.subs[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeSubscriptionRepo) UpdateCombo(_ context.Context, _ pgx.Tx, id uint64, combo string, price int64) error {
	s, ok := r.subs[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.ComboType, s.Price = combo, price
	return nil
}

func (r *fakeSubscriptionRepo) CountOrdersByStatus(context.Context, uint64) (map[entities.Status]int, error) {
	return map[entities.Status]int{}, nil
}

func (r *fakeSubscriptionRepo) ListOpenByEmployee(_ context.Context, _ pgx.Tx, employeeID uint64) ([]entities.Subscription, error) {
	var result []entities.Subscription
	for _, s := range r.subs {
		if s.EmployeeID == employeeID && slices.Contains(entities.OpenSubscriptionStatuses, s.Status) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeSubscriptionRepo) CompleteExpired(_ context.Context, _ pgx.Tx, before time.Time) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.Status == entities.StatusActive && s.EndDate.Before(before) {
			s.Status = entities.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) ListExpiredPaused(_ context.Context, _ pgx.Tx, before time.Time) ([]entities.Subscription, error) {
	var result []entities.Subscription
	for _, s := range r.subs {
		if s.Status == entities.StatusPaused && s.EndDate.Before(before) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeSubscriptionRepo) UpdateEndDate(_ context.Context, _ pgx.Tx, id uint64, endDate time.Time) error {
	s, ok := r.subs[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.EndDate = endDate
	return nil
}

// --- employees, projects, companies ---

type fakeEmployeeRepo struct {
	repositories.EmployeeRepositoryInterface

	employees map[uint64]*entities.Employee
}

func newFakeEmployeeRepo(employees ...entities.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[uint64]*entities.Employee)}
	for i := range employees {
		e := employees[i]
		r.employees[e.ID] = &e
	}
	return r
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id uint64) (*entities.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmployeeRepo) FindByIDs(_ context.Context, ids []uint64) ([]entities.Employee, error) {
	result := make([]entities.Employee, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *fakeEmployeeRepo) LockForUpdate(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Employee, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeEmployeeRepo) SetActive(_ context.Context, _ pgx.Tx, id uint64, active bool) error {
	e, ok := r.employees[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.IsActive = active
	return nil
}

type fakeProjectRepo struct {
	repositories.ProjectRepositoryInterface

	projects  map[uint64]*entities.Project
	employees int
	updated   *entities.Project
}

func newFakeProjectRepo(projects ...entities.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: make(map[uint64]*entities.Project)}
	for i := range projects {
		p := projects[i]
		r.projects[p.ID] = &p
	}
	return r
}

func (r *fakeProjectRepo) FindByID(_ context.Context, id uint64) (*entities.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) CountEmployees(context.Context, uint64, bool) (int, error) {
	return r.employees, nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *entities.Project) error {
	cp := *project
	r.updated = &cp
	r.projects[cp.ID] = &cp
	return nil
}

type fakeCompanyRepo struct {
	repositories.CompanyRepositoryInterface

	companies map[uint64]*entities.Company
}

func newFakeCompanyRepo(companies ...entities.Company) *fakeCompanyRepo {
	r := &fakeCompanyRepo{companies: make(map[uint64]*entities.Company)}
	for i := range companies {
		c := companies[i]
		r.companies[c.ID] = &c
	}
	return r
}

func (r *fakeCompanyRepo) FindByID(_ context.Context, id uint64) (*entities.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCompanyRepo) FindByIDTx(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Company, error) {
	return r.FindByID(ctx, id)
}

// --- ledger ---

// fakeLedgerRepo повторяет условное списание: баланс не опускается ниже floor.
type fakeLedgerRepo struct {
	repositories.LedgerRepositoryInterface

	balance int64
	entries []entities.LedgerEntry
}

func (r *fakeLedgerRepo) Apply(_ context.Context, _ pgx.Tx, entry *entities.LedgerEntry, floor *int64) (*entities.LedgerEntry, error) {
	next := r.balance + entry.Amount
	if floor != nil && entry.Amount < 0 && next < *floor {
		return nil, apperrors.ErrInsufficientFunds
	}
	r.balance = next
	e := *entry
	e.ID = uint64(len(r.entries) + 1)
	e.BalanceAfter = next
	r.entries = append(r.entries, e)
	return &e, nil
}

// --- invoices ---

type fakeInvoiceRepo struct {
	repositories.InvoiceRepositoryInterface

	invoices map[uint64]*entities.Invoice
}

func newFakeInvoiceRepo(invoices ...entities.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: make(map[uint64]*entities.Invoice)}
	for i := range invoices {
		inv := invoices[i]
		r.invoices[inv.ID] = &inv
	}
	return r
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uint64) (*entities.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindForUpdate(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInvoiceRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uint64, status string, paidAt *time.Time) error {
	inv, ok := r.invoices[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	inv.Status, inv.PaidAt = status, paidAt
	return nil
}

type fakeCompensationRepo struct {
	repositories.CompensationRepositoryInterface

	spent   int64
	created []entities.CompensationTransaction
}

func (r *fakeCompensationRepo) SumForEmployee(context.Context, pgx.Tx, uint64, time.Time, time.Time) (int64, error) {
	return r.spent, nil
}

func (r *fakeCompensationRepo) Create(_ context.Context, _ pgx.Tx, t *entities.CompensationTransaction) (uint64, error) {
	r.created = append(r.created, *t)
	return uint64(len(r.created)), nil
}

// --- users ---

type fakeUserRepo struct {
	repositories.UserRepositoryInterface

	users map[uint64]*entities.User
}

func (r *fakeUserRepo) FindByLogin(_ context.Context, login string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Phone == login || (u.Email != nil && *u.Email == login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateLastLogin(context.Context, uint64, time.Time) error { return nil }

// --- cache ---

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = fmt.Sprint(value)
	return true, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	_, _ = fmt.Sscan(c.data[key], &n)
	n++
	c.data[key] = fmt.Sprint(n)
	return n, nil
}

func (c *memoryCache) Expire(context.Context, string, time.Duration) (bool, error) { return true, nil }

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) DelByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }
