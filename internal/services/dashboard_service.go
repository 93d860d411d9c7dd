package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

const dashboardCacheTTL = 60 * time.Second

type DashboardServiceInterface interface {
	GetStats(ctx context.Context, companyID, projectID uint64) (*dto.DashboardStatsDTO, error)
}

type DashboardService struct {
	repo        repositories.DashboardRepositoryInterface
	companyRepo repositories.CompanyRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	settings    SettingsProvider
	logger      *zap.Logger
	now         func() time.Time
}

func NewDashboardService(
	repo repositories.DashboardRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	settings SettingsProvider,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		repo:        repo,
		companyRepo: companyRepo,
		cacheRepo:   cacheRepo,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
	}
}

// dashboardScope сужает область: супер-админ выбирает компанию и проект сам,
// админ может выбрать проект своей компании, менеджер видит только свой проект.
func dashboardScope(p types.Principal, companyID, projectID uint64) repositories.Scope {
	scope := repositories.ScopeFromPrincipal(p)
	if p.IsSuperAdmin() {
		scope.CompanyID = companyID
	}
	if scope.ProjectID == 0 {
		scope.ProjectID = projectID
	}
	return scope
}

func (s *DashboardService) GetStats(ctx context.Context, companyID, projectID uint64) (*dto.DashboardStatsDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	scope := dashboardScope(p, companyID, projectID)

	cacheKey := fmt.Sprintf(constants.CacheKeyDashboard, scope.CompanyID, scope.ProjectID)
	var cached dto.DashboardStatsDTO
	if cacheGet(ctx, s.cacheRepo, cacheKey, &cached) {
		return &cached, nil
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	today := DateOf(s.now(), settings.Location())
	tomorrow := today.Add(day)
	weekStart, weekEnd := ISOWeekBounds(today)
	monthStart, _ := MonthBounds(today)
	chartStart := today.AddDate(0, 0, -6)

	var (
		wg            sync.WaitGroup
		employees     *entities.EmployeeCounts
		activeSubs    int
		todayOrders   map[entities.Status]int
		guestPortions int
		frozen        int
		monthly       []entities.DailyAmount
		company       *entities.Company

		errs []error
		mu   sync.Mutex
	)

	addTask := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	addTask(func() (err error) { employees, err = s.repo.GetEmployeeCounts(ctx, scope); return })
	addTask(func() (err error) { activeSubs, err = s.repo.CountActiveSubscriptions(ctx, scope); return })
	addTask(func() (err error) { todayOrders, err = s.repo.CountOrdersByStatus(ctx, scope, today); return })
	addTask(func() (err error) { guestPortions, err = s.repo.CountGuestPortions(ctx, scope, today); return })
	addTask(func() (err error) { frozen, err = s.repo.CountFrozen(ctx, scope, weekStart, weekEnd); return })
	// одна выборка на месяц и график: график берёт последние 7 дней
	spendFrom := monthStart
	if chartStart.Before(spendFrom) {
		spendFrom = chartStart
	}
	addTask(func() (err error) { monthly, err = s.repo.SpendByDay(ctx, scope, spendFrom, tomorrow); return })
	if scope.CompanyID != 0 {
		addTask(func() (err error) { company, err = s.companyRepo.FindByID(ctx, scope.CompanyID); return })
	}

	wg.Wait()

	if len(errs) > 0 {
		s.logger.Error("Ошибка загрузки дашборда", zap.Error(errs[0]), zap.Int("errors", len(errs)))
		return nil, apperrors.NewInternalError("Ошибка загрузки дашборда", errs[0])
	}

	stats := &dto.DashboardStatsDTO{
		EmployeesTotal:      employees.Total,
		EmployeesActive:     employees.Active,
		ActiveSubscriptions: activeSubs,
		TodayOrders:         make(map[string]int, len(todayOrders)),
		TodayGuestPortions:  guestPortions,
		FreezesThisWeek:     frozen,
		WeeklySpend:         fillMissingDays(monthly, chartStart, tomorrow),
		GeneratedAt:         dto.FormatDateTime(s.now()),
	}
	for status, n := range todayOrders {
		stats.TodayOrders[status.String()] = n
	}
	for _, d := range monthly {
		if !d.Date.Before(monthStart) {
			stats.MonthSpend += d.Amount
		}
	}
	// баланс компании показываем только без фильтра по проекту
	if company != nil && scope.ProjectID == 0 {
		stats.Balance = &company.Balance
	}

	cacheSet(ctx, s.cacheRepo, cacheKey, stats, dashboardCacheTTL, s.logger)
	return stats, nil
}

// fillMissingDays добивает нулями дни [from, to), в которые не было расходов.
func fillMissingDays(data []entities.DailyAmount, from, to time.Time) []dto.DailySpendDTO {
	byDay := make(map[string]int64, len(data))
	for _, d := range data {
		byDay[dto.FormatDate(d.Date)] += d.Amount
	}
	result := make([]dto.DailySpendDTO, 0, 7)
	for d := from; d.Before(to); d = d.Add(day) {
		key := dto.FormatDate(d)
		result = append(result, dto.DailySpendDTO{Date: key, Amount: byDay[key]})
	}
	return result
}
