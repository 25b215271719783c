package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"paisa/internal/clock"
	"paisa/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// IST is the timezone fixtures and fixed clocks use by default.
var IST = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}()

// FixedClock returns a clock pinned to the given instant, reporting in IST.
func FixedClock(t time.Time) clock.Clock {
	return clock.Fixed{T: t, Loc: IST}
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a checking account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0)
}

// CreateTestAccountWithBalance creates a checking account with the given
// balance in minor units.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeChecking,
		Balance:  balance,
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestBudget creates an active monthly budget for the given category.
// Pass an empty category for a general catch-all budget. Amount is in minor
// units; the start date anchors at the current month in IST.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, category string, amount int64) *models.Budget {
	t.Helper()

	now := time.Now().In(IST)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, IST).UTC()

	budget := &models.Budget{
		UserID:    userID,
		Amount:    amount,
		Period:    models.BudgetPeriodMonthly,
		StartDate: start,
		IsActive:  true,
	}
	if category != "" {
		budget.Category = &category
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestExpense creates an expense transaction debiting the given account.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, accountID, category string, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:        userID,
		Type:          models.TransactionTypeExpense,
		Amount:        amount,
		Category:      category,
		Date:          date.UTC(),
		AccountFromID: &accountID,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return txn
}
