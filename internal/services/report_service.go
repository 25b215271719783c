package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
)

// reportService computes simple aggregation sums over the ledger. These are
// read-only views; they never feed back into balances or budget totals.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// IncomeVsExpense sums income and expense over an optional date range.
func (s *reportService) IncomeVsExpense(userID string, from, to *time.Time) (*FlowSummary, error) {
	income, err := s.sumByType(userID, models.TransactionTypeIncome, from, to)
	if err != nil {
		return nil, err
	}
	expense, err := s.sumByType(userID, models.TransactionTypeExpense, from, to)
	if err != nil {
		return nil, err
	}
	return &FlowSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetFlow:      income - expense,
	}, nil
}

// CategoryTotals sums transaction amounts per category for one transaction
// type over an optional date range.
func (s *reportService) CategoryTotals(userID string, txType models.TransactionType, from, to *time.Time) (map[string]int64, error) {
	type row struct {
		Category string
		Total    int64
	}
	var rows []row
	q := s.db.Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ?", userID, txType).
		Group("category")
	q = applyDateRange(q, from, to)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make(map[string]int64, len(rows))
	for _, r := range rows {
		totals[r.Category] = r.Total
	}
	return totals, nil
}

// AccountBalances returns the current balance of each active account,
// keyed by account ID.
func (s *reportService) AccountBalances(userID string) (map[string]int64, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balances := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		balances[a.ID] = a.Balance
	}
	return balances, nil
}

func (s *reportService) sumByType(userID string, txType models.TransactionType, from, to *time.Time) (int64, error) {
	var total int64
	q := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ?", userID, txType)
	q = applyDateRange(q, from, to)
	if err := q.Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

func applyDateRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}
	return q
}
