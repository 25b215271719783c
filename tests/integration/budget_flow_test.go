package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestBudgetFlow_ProgressTracking(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "progress@test.com", "password123")

	accountID := app.createAccount(t, token, "Checking", "1000.00")
	budgetID := app.createBudget(t, token, "Groceries", "200.00")

	// Progress before any spending.
	rec := app.request("GET", "/api/v1/budgets/"+budgetID+"/progress", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	progress := parseJSON(t, rec)["progress"].(map[string]interface{})
	if progress["spent"].(float64) != 0 {
		t.Errorf("expected 0 spent before transactions, got %v", progress["spent"])
	}
	if progress["percentage"].(float64) != 0 {
		t.Errorf("expected 0%%, got %v", progress["percentage"])
	}

	// Two expenses: 80.00 and 50.00.
	for _, amount := range []string{"80.00", "50.00"} {
		rec = app.request("POST", "/api/v1/transactions",
			fmt.Sprintf(`{"type":"expense","amount":%q,"category":"Groceries","account_from_id":%q}`, amount, accountID), token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/progress", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	progress = parseJSON(t, rec)["progress"].(map[string]interface{})
	if progress["spent"].(float64) != 13000 {
		t.Errorf("expected spent 13000 minor units, got %v", progress["spent"])
	}
	if progress["remaining"].(float64) != 7000 {
		t.Errorf("expected remaining 7000 minor units, got %v", progress["remaining"])
	}
	if progress["percentage"].(float64) != 65 {
		t.Errorf("expected 65%%, got %v", progress["percentage"])
	}
	if progress["over_budget"].(bool) {
		t.Error("expected not over budget")
	}
	if progress["entry_count"].(float64) != 2 {
		t.Errorf("expected 2 entries in window, got %v", progress["entry_count"])
	}
}

func TestBudgetFlow_OverspendClampsRemaining(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "overspend@test.com", "password123")

	accountID := app.createAccount(t, token, "Checking", "1000.00")
	budgetID := app.createBudget(t, token, "Dining", "100.00")

	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"150.00","category":"Dining","account_from_id":%q}`, accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	budget := app.getBudget(t, token, budgetID)
	if budget["spent"].(string) != "150.00" {
		t.Errorf("expected spent 150.00, got %v", budget["spent"])
	}
	if budget["remaining"].(string) != "0.00" {
		t.Errorf("expected remaining clamped to 0.00, got %v", budget["remaining"])
	}

	rec = app.request("GET", "/api/v1/budgets/"+budgetID+"/progress", "", token)
	progress := parseJSON(t, rec)["progress"].(map[string]interface{})
	if !progress["over_budget"].(bool) {
		t.Error("expected over budget")
	}
}

func TestBudgetFlow_GeneralBudgetCatchesUnmatchedCategories(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "general@test.com", "password123")

	accountID := app.createAccount(t, token, "Checking", "1000.00")
	generalID := app.createBudget(t, token, "", "300.00")
	foodID := app.createBudget(t, token, "Food", "100.00")

	// Food goes to the category budget, anything else to the general one.
	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"40.00","category":"Food","account_from_id":%q}`, accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"25.00","category":"Books","account_from_id":%q}`, accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	food := app.getBudget(t, token, foodID)
	if food["spent"].(string) != "40.00" {
		t.Errorf("expected food budget spent 40.00, got %v", food["spent"])
	}
	general := app.getBudget(t, token, generalID)
	if general["spent"].(string) != "25.00" {
		t.Errorf("expected general budget spent 25.00, got %v", general["spent"])
	}
}

func TestBudgetFlow_RecalculateRepairsDrift(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "drift@test.com", "password123")

	accountID := app.createAccount(t, token, "Checking", "1000.00")
	budgetID := app.createBudget(t, token, "Food", "200.00")

	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"60.00","category":"Food","account_from_id":%q}`, accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Corrupt the counter out of band, then repair it.
	if err := app.DB.Table("budgets").Where("id = ?", budgetID).Update("spent", 999999).Error; err != nil {
		t.Fatalf("failed to corrupt spent: %v", err)
	}

	rec = app.request("POST", "/api/v1/budgets/"+budgetID+"/recalculate", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent"].(string) != "60.00" {
		t.Errorf("expected spent repaired to 60.00, got %v", budget["spent"])
	}
}

func TestBudgetFlow_DeleteLeavesTransactions(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "buddelete@test.com", "password123")

	accountID := app.createAccount(t, token, "Checking", "1000.00")
	budgetID := app.createBudget(t, token, "Food", "200.00")

	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"30.00","category":"Food","account_from_id":%q}`, accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	txnID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)

	rec = app.request("DELETE", "/api/v1/budgets/"+budgetID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting budget, got %d: %s", rec.Code, rec.Body.String())
	}

	// The transaction and its ledger effect survive.
	rec = app.request("GET", "/api/v1/transactions/"+txnID, "", token)
	if rec.Code != http.StatusOK {
		t.Errorf("expected transaction to survive budget deletion, got %d", rec.Code)
	}
	if got := app.getAccountBalance(t, token, accountID); got != "970.00" {
		t.Errorf("expected balance still 970.00, got %s", got)
	}
}

func TestBudgetFlow_UpdateBudgetFields(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budupdate@test.com", "password123")

	budgetID := app.createBudget(t, token, "Food", "200.00")

	rec := app.request("PUT", "/api/v1/budgets/"+budgetID,
		`{"amount":"250.00","note":"raised for festival month"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["amount"].(string) != "250.00" {
		t.Errorf("expected amount 250.00, got %v", budget["amount"])
	}
	if budget["note"].(string) != "raised for festival month" {
		t.Errorf("unexpected note %v", budget["note"])
	}
}
