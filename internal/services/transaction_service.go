package services

import (
	"errors"

	"gorm.io/gorm"

	"paisa/internal/clock"
	apperrors "paisa/internal/errors"
	"paisa/internal/logger"
	"paisa/internal/models"
	"paisa/internal/pagination"
)

// reconcileAttempts bounds retries of a reconcile whose budget-side step
// failed. Each attempt runs in its own storage transaction and the budget
// operations are idempotent, so a retry never double-applies.
const reconcileAttempts = 3

// transactionService is the transaction reconciler: every create, update,
// and delete routes the transaction's effects to the account ledger and to
// the single active budget, inside one storage transaction.
//
// Updates are modeled as reverse-then-reapply, not as a delta between old
// and new amounts: a category or date change can move the transaction to a
// different budget or period, which a direct delta cannot express.
type transactionService struct {
	db       *gorm.DB
	accounts AccountServicer
	budgets  BudgetServicer
	clock    clock.Clock
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accounts AccountServicer, budgets BudgetServicer, clk clock.Clock) TransactionServicer {
	return &transactionService{
		db:       db,
		accounts: accounts,
		budgets:  budgets,
		clock:    clk,
	}
}

// CreateTransaction creates a transaction, applies its ledger effect, and
// attaches it to the active budget when it is an expense.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	txn := &models.Transaction{
		UserID:        userID,
		Type:          input.Type,
		Amount:        input.Amount,
		Category:      input.Category,
		Description:   input.Description,
		Date:          input.Date,
		AccountFromID: input.AccountFromID,
		AccountToID:   input.AccountToID,
	}
	if txn.Date.IsZero() {
		txn.Date = s.clock.Now()
	}
	txn.Date = txn.Date.UTC()

	if err := validateTransactionShape(txn); err != nil {
		return nil, err
	}

	err := s.runReconcile(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.applyLedger(tx, txn, false); err != nil {
			return err
		}
		return s.routeToBudget(tx, txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransaction edits a transaction. The stored transaction's effects
// are reversed first, using its pre-update field values, then the edited
// transaction is applied as if freshly created. When the budget holding the
// entry and the newly resolved budget coincide, the entry is updated in
// place in a single step instead of detaching and re-attaching.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	stored, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	edited := *stored
	if update.Amount != nil {
		edited.Amount = *update.Amount
	}
	if update.Category != nil {
		edited.Category = *update.Category
	}
	if update.Description != nil {
		edited.Description = *update.Description
	}
	if update.Date != nil {
		edited.Date = update.Date.UTC()
	}
	if update.AccountFromID != nil {
		edited.AccountFromID = update.AccountFromID
	}
	if update.AccountToID != nil {
		edited.AccountToID = update.AccountToID
	}

	if err := validateTransactionShape(&edited); err != nil {
		return nil, err
	}

	err = s.runReconcile(func(tx *gorm.DB) error {
		// Ledger: reverse the stored effect, then apply the edited one.
		if err := s.applyLedger(tx, stored, true); err != nil {
			return err
		}
		if err := s.applyLedger(tx, &edited, false); err != nil {
			return err
		}

		// Budget: the old home is wherever the entry actually lives, looked
		// up by transaction ID. Re-running the finder here would be wrong
		// twice over: a budget created after the transaction has no entry to
		// update in place, and a newer overlapping budget would shadow the
		// one that was attached.
		oldBudget, err := s.budgets.FindAttachedBudget(tx, userID, stored.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, err)
		}
		newBudget, err := s.resolveBudget(tx, &edited)
		if err != nil {
			return err
		}

		switch {
		case oldBudget != nil && newBudget != nil && oldBudget.ID == newBudget.ID:
			if err := s.budgets.UpdateEntry(tx, oldBudget.ID, stored.ID, edited.Amount, edited.Date, edited.Description); err != nil {
				return apperrors.Wrap(apperrors.ErrConsistency, err)
			}
		default:
			if oldBudget != nil {
				if err := s.budgets.Detach(tx, oldBudget.ID, stored.ID); err != nil {
					return apperrors.Wrap(apperrors.ErrConsistency, err)
				}
			}
			if newBudget != nil {
				if err := s.budgets.Attach(tx, newBudget, &edited); err != nil {
					return apperrors.Wrap(apperrors.ErrConsistency, err)
				}
			}
		}

		if err := tx.Save(&edited).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

// DeleteTransaction reverses a transaction's effects and removes the record.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	stored, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.runReconcile(func(tx *gorm.DB) error {
		if err := s.applyLedger(tx, stored, true); err != nil {
			return err
		}

		budget, err := s.budgets.FindAttachedBudget(tx, userID, stored.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, err)
		}
		if budget != nil {
			if err := s.budgets.Detach(tx, budget.ID, stored.ID); err != nil {
				return apperrors.Wrap(apperrors.ErrConsistency, err)
			}
		}

		if err := tx.Delete(stored).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.AccountID != nil {
		q = q.Where("(account_from_id = ? OR account_to_id = ?)", *f.AccountID, *f.AccountID)
	}
	return q
}

// applyLedger applies (or, with reverse, undoes) a transaction's signed
// balance effect: expense debits the source, income credits the
// destination, transfer does both. Reversal flips the signs and must run
// exactly once per original application; balances are never recomputed from
// history.
func (s *transactionService) applyLedger(tx *gorm.DB, txn *models.Transaction, reverse bool) error {
	sign := int64(1)
	if reverse {
		sign = -1
	}

	switch txn.Type {
	case models.TransactionTypeExpense:
		return s.accounts.ApplyDelta(tx, txn.UserID, *txn.AccountFromID, -txn.Amount*sign)
	case models.TransactionTypeIncome:
		return s.accounts.ApplyDelta(tx, txn.UserID, *txn.AccountToID, txn.Amount*sign)
	case models.TransactionTypeTransfer:
		if err := s.accounts.ApplyDelta(tx, txn.UserID, *txn.AccountFromID, -txn.Amount*sign); err != nil {
			return err
		}
		return s.accounts.ApplyDelta(tx, txn.UserID, *txn.AccountToID, txn.Amount*sign)
	default:
		return apperrors.ErrInvalidTransactionType
	}
}

// resolveBudget finds the budget claiming an expense transaction's category
// and date. Non-expense transactions never resolve to a budget.
func (s *transactionService) resolveBudget(tx *gorm.DB, txn *models.Transaction) (*models.Budget, error) {
	if txn.Type != models.TransactionTypeExpense {
		return nil, nil
	}
	budget, err := s.budgets.FindActiveBudget(tx, txn.UserID, txn.Category, txn.Date)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConsistency, err)
	}
	return budget, nil
}

// routeToBudget attaches a freshly created expense to its active budget.
func (s *transactionService) routeToBudget(tx *gorm.DB, txn *models.Transaction) error {
	budget, err := s.resolveBudget(tx, txn)
	if err != nil {
		return err
	}
	if budget == nil {
		return nil
	}
	if err := s.budgets.Attach(tx, budget, txn); err != nil {
		return apperrors.Wrap(apperrors.ErrConsistency, err)
	}
	return nil
}

// runReconcile executes fn inside a storage transaction so the ledger
// delta, budget mutation, and record write land all-or-nothing. Attempts
// that fail on the budget side are retried a bounded number of times before
// the consistency error reaches the caller; it is never swallowed.
func (s *transactionService) runReconcile(fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= reconcileAttempts; attempt++ {
		err = s.db.Transaction(fn)
		if err == nil {
			return nil
		}

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrConsistency.Code {
			return err
		}
		if attempt < reconcileAttempts {
			logger.Get().Warnw("reconcile attempt failed, retrying",
				"attempt", attempt,
				"error", err.Error(),
			)
		}
	}
	return err
}

// validateTransactionShape rejects malformed transactions before any
// mutation happens: wrong amounts, a zero date, missing account references
// for the transaction type, or a missing category on expense/income.
func validateTransactionShape(txn *models.Transaction) error {
	if txn.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if txn.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date must not be empty")
	}

	hasFrom := txn.AccountFromID != nil && *txn.AccountFromID != ""
	hasTo := txn.AccountToID != nil && *txn.AccountToID != ""

	switch txn.Type {
	case models.TransactionTypeExpense:
		if !hasFrom {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "expense requires a source account")
		}
		if txn.Category == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
		}
	case models.TransactionTypeIncome:
		if !hasTo {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "income requires a destination account")
		}
		if txn.Category == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
		}
	case models.TransactionTypeTransfer:
		if !hasFrom || !hasTo {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer requires both accounts")
		}
		if *txn.AccountFromID == *txn.AccountToID {
			return apperrors.ErrSameAccountTransfer
		}
	default:
		return apperrors.ErrInvalidTransactionType
	}
	return nil
}
