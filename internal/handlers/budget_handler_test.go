package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/pagination"
	"paisa/internal/services"
	"paisa/internal/uuid"
)

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn       func(userID string, category *string, amount int64, period models.BudgetPeriod, startDate, endDate *time.Time, note string) (*models.Budget, error)
	getUserBudgetsFn     func(userID string, page pagination.PageRequest, activeOn *time.Time, category *string) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn      func(userID, budgetID string) (*models.Budget, error)
	updateBudgetFn       func(userID, budgetID string, fields services.BudgetUpdateFields) (*models.Budget, error)
	deleteBudgetFn       func(userID, budgetID string) error
	getBudgetProgressFn  func(userID, budgetID string) (*services.BudgetProgress, error)
	findActiveBudgetFn   func(tx *gorm.DB, userID, category string, date time.Time) (*models.Budget, error)
	findAttachedBudgetFn func(tx *gorm.DB, userID, transactionID string) (*models.Budget, error)
	attachFn             func(tx *gorm.DB, budget *models.Budget, txn *models.Transaction) error
	detachFn             func(tx *gorm.DB, budgetID, transactionID string) error
	updateEntryFn        func(tx *gorm.DB, budgetID, transactionID string, amount int64, date time.Time, note string) error
	recalculateSpentFn   func(userID, budgetID string) (*models.Budget, error)
}

func (m *mockBudgetService) CreateBudget(userID string, category *string, amount int64, period models.BudgetPeriod, startDate, endDate *time.Time, note string) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, category, amount, period, startDate, endDate, note)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string, page pagination.PageRequest, activeOn *time.Time, category *string) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page, activeOn, category)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID string, fields services.BudgetUpdateFields) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, fields)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetProgress(userID, budgetID string) (*services.BudgetProgress, error) {
	if m.getBudgetProgressFn != nil {
		return m.getBudgetProgressFn(userID, budgetID)
	}
	return &services.BudgetProgress{}, nil
}

func (m *mockBudgetService) FindActiveBudget(tx *gorm.DB, userID, category string, date time.Time) (*models.Budget, error) {
	if m.findActiveBudgetFn != nil {
		return m.findActiveBudgetFn(tx, userID, category, date)
	}
	return nil, nil
}

func (m *mockBudgetService) FindAttachedBudget(tx *gorm.DB, userID, transactionID string) (*models.Budget, error) {
	if m.findAttachedBudgetFn != nil {
		return m.findAttachedBudgetFn(tx, userID, transactionID)
	}
	return nil, nil
}

func (m *mockBudgetService) Attach(tx *gorm.DB, budget *models.Budget, txn *models.Transaction) error {
	if m.attachFn != nil {
		return m.attachFn(tx, budget, txn)
	}
	return nil
}

func (m *mockBudgetService) Detach(tx *gorm.DB, budgetID, transactionID string) error {
	if m.detachFn != nil {
		return m.detachFn(tx, budgetID, transactionID)
	}
	return nil
}

func (m *mockBudgetService) UpdateEntry(tx *gorm.DB, budgetID, transactionID string, amount int64, date time.Time, note string) error {
	if m.updateEntryFn != nil {
		return m.updateEntryFn(tx, budgetID, transactionID, amount, date, note)
	}
	return nil
}

func (m *mockBudgetService) RecalculateSpent(userID, budgetID string) (*models.Budget, error) {
	if m.recalculateSpentFn != nil {
		return m.recalculateSpentFn(userID, budgetID)
	}
	return &models.Budget{}, nil
}

// verify interface compliance
var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	auth.GET("/budgets/:id/progress", handler.GetBudgetProgress)
	auth.POST("/budgets/:id/recalculate", handler.RecalculateBudget)
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 and parses amount and start date", func(t *testing.T) {
		var gotAmount int64
		var gotStart *time.Time
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(userID string, category *string, amount int64, period models.BudgetPeriod, startDate, _ *time.Time, _ string) (*models.Budget, error) {
				gotAmount = amount
				gotStart = startDate
				return &models.Budget{
					Base:     models.Base{ID: uuid.New()},
					UserID:   userID,
					Category: category,
					Amount:   amount,
					Period:   period,
					IsActive: true,
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets",
			`{"category":"Food","amount":"500.00","period":"monthly","start_date":"2024-02-01"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAmount != 50000 {
			t.Errorf("expected 50000 minor units, got %d", gotAmount)
		}
		want := time.Date(2024, 2, 1, 0, 0, 0, 0, istZone)
		if gotStart == nil || !gotStart.Equal(want) {
			t.Errorf("expected start %v, got %v", want, gotStart)
		}
	})

	t.Run("empty category becomes a general budget", func(t *testing.T) {
		var gotCategory *string
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(_ string, category *string, amount int64, _ models.BudgetPeriod, _, _ *time.Time, _ string) (*models.Budget, error) {
				gotCategory = category
				return &models.Budget{Base: models.Base{ID: uuid.New()}, Amount: amount}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"amount":"300.00","period":"monthly"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCategory != nil {
			t.Errorf("expected nil category, got %v", *gotCategory)
		}
	})

	t.Run("rejects an unknown period", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"amount":"300.00","period":"fortnightly"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"amount":"0","period":"monthly"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("renders the clamped remaining figure", func(t *testing.T) {
		category := "Food"
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, budgetID string) (*models.Budget, error) {
				return &models.Budget{
					Base:     models.Base{ID: budgetID},
					Category: &category,
					Amount:   50000,
					Spent:    62000,
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+uuid.New(), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["spent"] != "620.00" {
			t.Errorf("expected spent 620.00, got %v", budget["spent"])
		}
		if budget["remaining"] != "0.00" {
			t.Errorf("expected remaining clamped to 0.00, got %v", budget["remaining"])
		}
	})

	t.Run("includes attached entries", func(t *testing.T) {
		txnID := uuid.New()
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, budgetID string) (*models.Budget, error) {
				return &models.Budget{
					Base:   models.Base{ID: budgetID},
					Amount: 50000,
					Spent:  10000,
					Entries: []models.BudgetEntry{
						{TransactionID: txnID, Amount: 10000, Date: time.Now().UTC()},
					},
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+uuid.New(), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		entries := budget["entries"].([]interface{})
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		entry := entries[0].(map[string]interface{})
		if entry["transaction_id"] != txnID {
			t.Errorf("expected transaction_id %s, got %v", txnID, entry["transaction_id"])
		}
		if entry["amount"] != "100.00" {
			t.Errorf("expected entry amount 100.00, got %v", entry["amount"])
		}
	})

	t.Run("returns 404 when budget not found", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, _ string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+uuid.New(), "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("passes clear_end_date through", func(t *testing.T) {
		var captured services.BudgetUpdateFields
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(_, budgetID string, fields services.BudgetUpdateFields) (*models.Budget, error) {
				captured = fields
				return &models.Budget{Base: models.Base{ID: budgetID}}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+uuid.New(), `{"clear_end_date":true}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !captured.ClearEnd {
			t.Error("expected ClearEnd to be set")
		}
		if captured.Amount != nil || captured.Category != nil {
			t.Error("expected untouched fields to stay nil")
		}
	})

	t.Run("parses an updated amount", func(t *testing.T) {
		var captured services.BudgetUpdateFields
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(_, budgetID string, fields services.BudgetUpdateFields) (*models.Budget, error) {
				captured = fields
				return &models.Budget{Base: models.Base{ID: budgetID}, Amount: *fields.Amount}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+uuid.New(), `{"amount":"750.00"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Amount == nil || *captured.Amount != 75000 {
			t.Errorf("expected amount 75000, got %v", captured.Amount)
		}
	})
}

func TestBudgetHandler_GetBudgetProgress(t *testing.T) {
	t.Run("returns the progress payload", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetProgressFn: func(_, budgetID string) (*services.BudgetProgress, error) {
				return &services.BudgetProgress{
					BudgetID:   budgetID,
					Budgeted:   50000,
					Spent:      20000,
					Remaining:  30000,
					Percentage: 40,
					EntryCount: 3,
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+uuid.New()+"/progress", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		progress := parseJSON(t, rec)["progress"].(map[string]interface{})
		if progress["percentage"].(float64) != 40 {
			t.Errorf("expected 40%%, got %v", progress["percentage"])
		}
		if progress["entry_count"].(float64) != 3 {
			t.Errorf("expected 3 entries, got %v", progress["entry_count"])
		}
	})
}

func TestBudgetHandler_RecalculateBudget(t *testing.T) {
	t.Run("returns the repaired budget", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			recalculateSpentFn: func(_, budgetID string) (*models.Budget, error) {
				return &models.Budget{Base: models.Base{ID: budgetID}, Amount: 50000, Spent: 12500}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+uuid.New()+"/recalculate", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["spent"] != "125.00" {
			t.Errorf("expected spent 125.00, got %v", budget["spent"])
		}
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns 404 when budget not found", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			deleteBudgetFn: func(_, _ string) error {
				return apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(budgetSvc, testClock)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/"+uuid.New(), "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
