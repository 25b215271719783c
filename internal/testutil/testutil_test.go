package testutil_test

import (
	"testing"
	"time"

	"paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "transactions", "budgets", "budget_entries"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a non-empty ID")
	}

	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 5000)
	if account.Balance != 5000 {
		t.Errorf("expected balance 5000, got %d", account.Balance)
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, "Food", 10000)
	if budget.Amount != 10000 {
		t.Errorf("expected budget amount 10000, got %d", budget.Amount)
	}
	if budget.Category == nil || *budget.Category != "Food" {
		t.Errorf("expected category Food, got %v", budget.Category)
	}

	general := testutil.CreateTestBudget(t, db, user.ID, "", 20000)
	if general.Category != nil {
		t.Errorf("expected nil category for general budget, got %v", general.Category)
	}

	tx := testutil.CreateTestExpense(t, db, user.ID, account.ID, "Food", 1000, time.Now().UTC())
	if tx.Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", tx.Amount)
	}
	if tx.Type != models.TransactionTypeExpense {
		t.Errorf("expected expense type, got %s", tx.Type)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
