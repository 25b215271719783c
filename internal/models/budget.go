package models

import (
	"time"

	"paisa/internal/uuid"

	"gorm.io/gorm"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodDaily   BudgetPeriod = "daily"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
	BudgetPeriodCustom  BudgetPeriod = "custom"
)

// Valid reports whether p is one of the known budget periods.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodDaily, BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodYearly, BudgetPeriodCustom:
		return true
	}
	return false
}

// Budget represents a spending target for a category over a period.
// A nil Category makes the budget a general catch-all that matches any
// expense not claimed by a category-specific budget.
//
// Spent is maintained incrementally as transactions attach and detach, and
// is always recomputable as the sum of Entries. A non-nil EndDate is stored
// as 23:59:59 of its day (end-inclusive); a nil EndDate means open-ended,
// never a far-future sentinel.
type Budget struct {
	Base
	UserID    string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Category  *string      `gorm:"index" json:"category"`
	Amount    int64        `gorm:"type:bigint;not null" json:"amount"`
	Period    BudgetPeriod `gorm:"not null" json:"period"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Spent     int64        `gorm:"type:bigint;not null;default:0" json:"spent"`
	Note      string       `json:"note"`
	IsActive  bool         `gorm:"default:true" json:"is_active"`

	// Entries is the source of truth for Spent.
	Entries []BudgetEntry `gorm:"foreignKey:BudgetID" json:"entries,omitempty"`
}

// Remaining returns the budget headroom, clamped at zero. Spent may exceed
// Amount, but Remaining never goes negative.
func (b *Budget) Remaining() int64 {
	remaining := b.Amount - b.Spent
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BudgetEntry records a single transaction's contribution to a budget.
// At most one entry exists per (budget, transaction) pair. Entries are
// hard-deleted on detach so a later re-attach of the same transaction does
// not collide with the unique index.
type BudgetEntry struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_budget_entry_txn" json:"budget_id"`
	TransactionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_budget_entry_txn" json:"transaction_id"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	Date          time.Time `gorm:"not null" json:"date"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new entries
func (e *BudgetEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}
