package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"yalla-business/internal/repositories"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"

	// предел строк в одной выгрузке
	exportMaxRows = 100000
)

// ExportTable - таблица для выгрузки, не зависит от формата.
type ExportTable struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

type ExportServiceInterface interface {
	ExportEmployees(ctx context.Context, filter types.Filter) (*ExportTable, error)
	ExportOrders(ctx context.Context, filter types.Filter) (*ExportTable, error)
	ExportTransactions(ctx context.Context, filter types.Filter) (*ExportTable, error)
}

type ExportService struct {
	employeeRepo repositories.EmployeeRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	ledgerRepo   repositories.LedgerRepositoryInterface
	logger       *zap.Logger
}

func NewExportService(
	employeeRepo repositories.EmployeeRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{employeeRepo: employeeRepo, orderRepo: orderRepo, ledgerRepo: ledgerRepo, logger: logger}
}

func exportFilter(filter types.Filter) types.Filter {
	filter.WithPagination = true
	filter.Page = 1
	filter.Offset = 0
	filter.Limit = exportMaxRows
	return filter
}

func (s *ExportService) ExportEmployees(ctx context.Context, filter types.Filter) (*ExportTable, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employees, _, err := s.employeeRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), exportFilter(filter))
	if err != nil {
		return nil, err
	}
	table := &ExportTable{
		Name:    "Сотрудники",
		Headers: []string{"ID", "ФИО", "Телефон", "Должность", "Проект", "Смена", "Рабочие дни", "Тип обслуживания", "Бюджет", "Активен"},
		Rows:    make([][]interface{}, 0, len(employees)),
	}
	for _, e := range employees {
		days := make([]string, 0, len(e.WorkingDays))
		for _, d := range e.WorkingDays {
			days = append(days, fmt.Sprint(d))
		}
		table.Rows = append(table.Rows, []interface{}{
			e.ID, e.FullName, e.Phone, utils.SafeDeref(e.Position), e.ProjectName, e.ShiftType,
			strings.Join(days, ","), string(e.ServiceType), e.Budget, yesNo(e.IsActive),
		})
	}
	s.logger.Debug("Выгрузка сотрудников", zap.Int("rows", len(table.Rows)))
	return table, nil
}

func (s *ExportService) ExportOrders(ctx context.Context, filter types.Filter) (*ExportTable, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	orders, _, err := s.orderRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), exportFilter(filter))
	if err != nil {
		return nil, err
	}
	table := &ExportTable{
		Name:    "Заказы",
		Headers: []string{"ID", "Дата", "Проект", "Сотрудник / гость", "Тип", "Комбо", "Кол-во", "Цена", "Сумма", "Статус", "Замена"},
		Rows:    make([][]interface{}, 0, len(orders)),
	}
	for i := range orders {
		o := &orders[i]
		who := utils.SafeDeref(o.EmployeeName)
		if o.GuestName != nil {
			who = *o.GuestName
		}
		table.Rows = append(table.Rows, []interface{}{
			o.ID, o.OrderDate.Format("2006-01-02"), o.ProjectName, who, string(o.OrderType), o.ComboType,
			o.Quantity, o.Price, o.Total(), o.Status.String(), yesNo(o.IsReplacement),
		})
	}
	return table, nil
}

func (s *ExportService) ExportTransactions(ctx context.Context, filter types.Filter) (*ExportTable, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	entries, _, err := s.ledgerRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), exportFilter(filter))
	if err != nil {
		return nil, err
	}
	table := &ExportTable{
		Name:    "Операции",
		Headers: []string{"ID", "Дата", "Компания", "Тип", "Сумма", "Баланс после", "Комментарий"},
		Rows:    make([][]interface{}, 0, len(entries)),
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []interface{}{
			e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.CompanyID, string(e.EntryType),
			e.Amount, e.BalanceAfter, utils.SafeDeref(e.Comment),
		})
	}
	return table, nil
}

func yesNo(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}

// ExportFileName - имя файла выгрузки с датой.
func ExportFileName(prefix, format string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("2006-01-02"), format)
}

// ExportContentType - MIME-тип для формата выгрузки.
func ExportContentType(format string) string {
	if format == ExportFormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// WriteExport пишет таблицу в w. CSV - с BOM и разделителем ";", так его без
// вопросов открывает Excel.
func WriteExport(w io.Writer, table *ExportTable, format string) error {
	if format == ExportFormatXLSX {
		return writeXLSX(w, table)
	}
	return writeCSV(w, table)
}

func writeCSV(w io.Writer, table *ExportTable) error {
	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(table.Headers); err != nil {
		return err
	}
	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = fmt.Sprint(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, table *ExportTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table.Name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	headers := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(table.Headers), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, style); err != nil {
		return err
	}

	for i, row := range table.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(table.Headers))
	_ = f.SetColWidth(sheet, "B", lastCol, 20)

	return f.Write(w)
}
