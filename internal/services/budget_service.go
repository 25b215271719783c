package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"paisa/internal/clock"
	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/pagination"
	"paisa/internal/period"
)

// budgetService handles budget-related business logic: the budget aggregate
// (entry list + running spent total) and the active-budget finder used by
// the transaction reconciler.
type budgetService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, clk clock.Clock) BudgetServicer {
	return &budgetService{db: db, clock: clk}
}

// CreateBudget creates a new budget. Dates are interpreted in the configured
// timezone: the start date becomes 00:00:00 of its day, an end date becomes
// 23:59:59 (end-inclusive storage). A nil end date means open-ended.
func (s *budgetService) CreateBudget(userID string, category *string, amount int64, budgetPeriod models.BudgetPeriod, startDate, endDate *time.Time, note string) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !budgetPeriod.Valid() {
		return nil, apperrors.ErrInvalidBudgetPeriod
	}
	if category != nil && *category == "" {
		category = nil
	}

	loc := s.clock.Location()

	var start time.Time
	if startDate != nil {
		start = period.StartOfDay(*startDate, loc)
	} else {
		if budgetPeriod == models.BudgetPeriodCustom {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "custom period requires a start date")
		}
		start = period.StartOfDay(s.clock.Now(), loc)
	}

	var end *time.Time
	if endDate != nil {
		e := period.EndOfDay(*endDate, loc)
		if !e.After(start) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must be after start date")
		}
		end = &e
	}

	budget := &models.Budget{
		UserID:    userID,
		Category:  category,
		Amount:    amount,
		Period:    budgetPeriod,
		StartDate: start,
		EndDate:   end,
		Note:      note,
		IsActive:  true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets, optionally restricted
// to those active at a given instant and/or a category.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, activeOn *time.Time, category *string) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if activeOn != nil {
		base = base.Where("start_date <= ?", *activeOn).
			Where("(end_date IS NULL OR end_date >= ?)", *activeOn)
	}
	if category != nil {
		if *category == "" {
			base = base.Where("category IS NULL")
		} else {
			base = base.Where("category = ?", *category)
		}
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).Order("start_date DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget with its entries if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Entries").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields. Changing the category or
// dates does not move already-attached transactions; spent is recomputed
// from the entry list afterwards so the counter stays honest.
func (s *budgetService) UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	loc := s.clock.Location()
	updates := make(map[string]interface{})

	if fields.Category != nil {
		if *fields.Category == "" {
			updates["category"] = nil
		} else {
			updates["category"] = *fields.Category
		}
	}
	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *fields.Amount
	}
	if fields.Period != nil {
		if !fields.Period.Valid() {
			return nil, apperrors.ErrInvalidBudgetPeriod
		}
		updates["period"] = *fields.Period
	}
	if fields.StartDate != nil {
		updates["start_date"] = period.StartOfDay(*fields.StartDate, loc)
	}
	if fields.ClearEnd {
		updates["end_date"] = nil
	} else if fields.EndDate != nil {
		updates["end_date"] = period.EndOfDay(*fields.EndDate, loc)
	}
	if fields.Note != nil {
		updates["note"] = *fields.Note
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) == 0 {
		return budget, nil
	}

	if err := s.db.Model(budget).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.RecalculateSpent(userID, budgetID)
}

// DeleteBudget removes a budget together with its entries. The underlying
// transactions are untouched; only their budget contributions go away.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetEntry{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// FindActiveBudget selects the single budget claiming an expense with the
// given category and date. A category-specific budget wins over the general
// one; among overlapping candidates the most recently created wins, so the
// pick is deterministic regardless of row order.
func (s *budgetService) FindActiveBudget(tx *gorm.DB, userID, category string, date time.Time) (*models.Budget, error) {
	if tx == nil {
		tx = s.db
	}

	find := func(categoryCond string, args ...interface{}) (*models.Budget, error) {
		var budget models.Budget
		q := tx.Where("user_id = ? AND is_active = ?", userID, true).
			Where(categoryCond, args...).
			Where("start_date <= ?", date).
			Where("(end_date IS NULL OR end_date >= ?)", date).
			Order("created_at DESC").Order("id DESC")
		if err := q.First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &budget, nil
	}

	if category != "" {
		budget, err := find("category = ?", category)
		if err != nil || budget != nil {
			return budget, err
		}
	}
	return find("category IS NULL")
}

// FindAttachedBudget locates the budget holding a transaction's entry by the
// entry itself, not by re-running the finder: once newer overlapping budgets
// exist the finder's answer can drift away from where the entry actually
// lives. Returns (nil, nil) when the transaction is attached nowhere.
func (s *budgetService) FindAttachedBudget(tx *gorm.DB, userID, transactionID string) (*models.Budget, error) {
	if tx == nil {
		tx = s.db
	}

	var entry models.BudgetEntry
	err := tx.Where("transaction_id = ?", transactionID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budget models.Budget
	if err := tx.Where("id = ? AND user_id = ?", entry.BudgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// Attach appends a transaction's contribution to the budget and bumps the
// spent total. Attaching the same transaction twice is a no-op, so retries
// never double-count. Only expense transactions ever attach.
func (s *budgetService) Attach(tx *gorm.DB, budget *models.Budget, txn *models.Transaction) error {
	if txn.Type != models.TransactionTypeExpense {
		return nil
	}

	var count int64
	if err := tx.Model(&models.BudgetEntry{}).
		Where("budget_id = ? AND transaction_id = ?", budget.ID, txn.ID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	entry := &models.BudgetEntry{
		BudgetID:      budget.ID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Date:          txn.Date,
		Note:          txn.Description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.shiftSpent(tx, budget.ID, txn.Amount)
}

// Detach removes a transaction's contribution and decrements the spent
// total. A transaction that is not attached is a no-op, not an error.
func (s *budgetService) Detach(tx *gorm.DB, budgetID, transactionID string) error {
	var entry models.BudgetEntry
	err := tx.Where("budget_id = ? AND transaction_id = ?", budgetID, transactionID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := tx.Delete(&entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.shiftSpent(tx, budgetID, -entry.Amount)
}

// UpdateEntry replaces an entry's fields in place and moves the spent total
// by the amount difference in a single step, never passing through zero.
func (s *budgetService) UpdateEntry(tx *gorm.DB, budgetID, transactionID string, amount int64, date time.Time, note string) error {
	var entry models.BudgetEntry
	err := tx.Where("budget_id = ? AND transaction_id = ?", budgetID, transactionID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	delta := amount - entry.Amount
	updates := map[string]interface{}{
		"amount": amount,
		"date":   date,
		"note":   note,
	}
	if err := tx.Model(&entry).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if delta == 0 {
		return nil
	}
	return s.shiftSpent(tx, budgetID, delta)
}

// RecalculateSpent recomputes spent as the sum of the entry list. This is
// the drift-repair path; the inline write path maintains spent
// incrementally.
func (s *budgetService) RecalculateSpent(userID, budgetID string) (*models.Budget, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sum int64
		if err := tx.Model(&models.BudgetEntry{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("budget_id = ?", budgetID).
			Scan(&sum).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Budget{}).Where("id = ?", budgetID).
			Update("spent", sum).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetBudgetByID(userID, budgetID)
}

// GetBudgetProgress reports spending vs target for the budget's current
// period window. Calendar periods resolve their window around the current
// instant; custom budgets use their own stored bounds, where a nil end
// means no upper bound.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	var windowStart, windowEnd *time.Time
	entries := s.db.Model(&models.BudgetEntry{}).Where("budget_id = ?", budget.ID)

	if budget.Period == models.BudgetPeriodCustom {
		start := budget.StartDate
		windowStart = &start
		windowEnd = budget.EndDate
		entries = entries.Where("date >= ?", start)
		if budget.EndDate != nil {
			// Stored end dates are end-inclusive.
			entries = entries.Where("date <= ?", *budget.EndDate)
		}
	} else {
		start, end, perr := period.Resolve(budget.Period, s.clock.Now(), s.clock.Location())
		if perr != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, perr)
		}
		windowStart, windowEnd = &start, &end
		entries = entries.Where("date >= ? AND date < ?", start, end)
	}

	var entryCount int64
	if err := entries.Count(&entryCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var percentage float64
	if budget.Amount > 0 {
		percentage = float64(budget.Spent) / float64(budget.Amount) * 100
		if percentage > 100 {
			percentage = 100
		}
	}

	return &BudgetProgress{
		BudgetID:    budget.ID,
		Category:    budget.Category,
		Period:      budget.Period,
		Budgeted:    budget.Amount,
		Spent:       budget.Spent,
		Remaining:   budget.Remaining(),
		Percentage:  percentage,
		OverBudget:  budget.Spent > budget.Amount,
		EntryCount:  entryCount,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}, nil
}

// shiftSpent moves a budget's spent total by delta as one UPDATE expression,
// clamped at zero. Spent may exceed the target amount, but never goes
// negative.
func (s *budgetService) shiftSpent(tx *gorm.DB, budgetID string, delta int64) error {
	result := tx.Model(&models.Budget{}).Where("id = ?", budgetID).
		Update("spent", gorm.Expr("CASE WHEN spent + ? < 0 THEN 0 ELSE spent + ? END", delta, delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}
