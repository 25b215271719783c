package services

import (
	"time"

	"gorm.io/gorm"

	"paisa/internal/models"
	"paisa/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountUpdateFields holds the optional fields of an account update.
type AccountUpdateFields struct {
	Name          *string
	BankName      *string
	AccountNumber *string
	IsActive      *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, bankName, accountNumber string, openingBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
	TotalBalance(userID string) (int64, error)

	// ApplyDelta atomically shifts an account's balance by delta (minor
	// units, signed) within the caller's storage transaction. A zero delta
	// is a no-op. Reversal is the same call with the sign flipped, invoked
	// exactly once per original application.
	ApplyDelta(tx *gorm.DB, userID, accountID string, delta int64) error
}

// BudgetUpdateFields holds the optional fields of a budget update.
// Category set to an empty string clears the category, turning the budget
// into a general catch-all. ClearEnd makes the budget open-ended.
type BudgetUpdateFields struct {
	Category  *string
	Amount    *int64
	Period    *models.BudgetPeriod
	StartDate *time.Time
	EndDate   *time.Time
	ClearEnd  bool
	Note      *string
	IsActive  *bool
}

// BudgetProgress contains spending vs budget data for a budget's current
// period window.
type BudgetProgress struct {
	BudgetID    string              `json:"budget_id"`
	Category    *string             `json:"category"`
	Period      models.BudgetPeriod `json:"period"`
	Budgeted    int64               `json:"budgeted"`
	Spent       int64               `json:"spent"`
	Remaining   int64               `json:"remaining"`
	Percentage  float64             `json:"percentage"`
	OverBudget  bool                `json:"over_budget"`
	EntryCount  int64               `json:"entry_count"`
	WindowStart *time.Time          `json:"window_start,omitempty"`
	WindowEnd   *time.Time          `json:"window_end,omitempty"`
}

// BudgetServicer defines the contract for budget-related business logic,
// including the aggregate operations the transaction reconciler drives.
type BudgetServicer interface {
	CreateBudget(userID string, category *string, amount int64, period models.BudgetPeriod, startDate, endDate *time.Time, note string) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, activeOn *time.Time, category *string) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)

	// FindActiveBudget selects the single budget that claims an expense
	// with the given category and date: a category-specific budget first,
	// then the general (categoryless) budget. Returns (nil, nil) when no
	// budget matches.
	FindActiveBudget(tx *gorm.DB, userID, category string, date time.Time) (*models.Budget, error)

	// FindAttachedBudget returns the budget currently holding the
	// transaction's contribution entry, or (nil, nil) when the transaction
	// is attached nowhere. A transaction attaches to at most one budget, so
	// the lookup is unambiguous. Reversal paths target this budget rather
	// than re-running the finder, whose answer can change once newer
	// overlapping budgets exist.
	FindAttachedBudget(tx *gorm.DB, userID, transactionID string) (*models.Budget, error)

	// Attach, Detach and UpdateEntry mutate a budget's contribution list
	// and its running spent total within the caller's storage transaction.
	// Attach is idempotent per transaction ID; Detach is a no-op when the
	// transaction is not attached.
	Attach(tx *gorm.DB, budget *models.Budget, txn *models.Transaction) error
	Detach(tx *gorm.DB, budgetID, transactionID string) error
	UpdateEntry(tx *gorm.DB, budgetID, transactionID string, amount int64, date time.Time, note string) error

	// RecalculateSpent recomputes spent from the entry list, correcting any
	// drift in the incremental counter. Intended for a periodic repair job,
	// not the inline write path.
	RecalculateSpent(userID, budgetID string) (*models.Budget, error)
}

// TransactionInput holds the fields of a new transaction.
type TransactionInput struct {
	Type          models.TransactionType
	Amount        int64
	Category      string
	Description   string
	Date          time.Time
	AccountFromID *string
	AccountToID   *string
}

// TransactionUpdate holds the optional fields of a transaction update.
// The transaction type itself is immutable.
type TransactionUpdate struct {
	Amount        *int64
	Category      *string
	Description   *string
	Date          *time.Time
	AccountFromID *string
	AccountToID   *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	MinAmount *int64
	MaxAmount *int64
	AccountID *string
}

// TransactionServicer defines the contract for the transaction reconciler:
// every create, update, and delete keeps account balances, budget totals,
// and the transaction record mutually consistent.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// FlowSummary contains income vs expense totals for a date range.
type FlowSummary struct {
	TotalIncome  int64 `json:"total_income"`
	TotalExpense int64 `json:"total_expense"`
	NetFlow      int64 `json:"net_flow"`
}

// ReportServicer defines the contract for simple reporting sums.
type ReportServicer interface {
	IncomeVsExpense(userID string, from, to *time.Time) (*FlowSummary, error)
	CategoryTotals(userID string, txType models.TransactionType, from, to *time.Time) (map[string]int64, error)
	AccountBalances(userID string) (map[string]int64, error)
}
