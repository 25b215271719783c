package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"paisa/internal/clock"
	"paisa/internal/handlers"
	"paisa/internal/logger"
	"paisa/internal/middleware"
	"paisa/internal/models"
	"paisa/internal/services"
	"paisa/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Clock  clock.Clock
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

// ist is the timezone the test stack runs in, matching the default config.
var ist = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}()

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Account{},
		&models.Transaction{},
		&models.Budget{},
		&models.BudgetEntry{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	clk := clock.New(ist)

	// Services
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	budgetService := services.NewBudgetService(db, clk)
	transactionService := services.NewTransactionService(db, accountService, budgetService, clk)
	reportService := services.NewReportService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, clk)
	transactionHandler := handlers.NewTransactionHandler(transactionService, clk)
	reportHandler := handlers.NewReportHandler(reportService, clk)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/balance", accountHandler.GetTotalBalance)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.POST("/:id/recalculate", budgetHandler.RecalculateBudget)

	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/categories", reportHandler.GetCategoryBreakdown)
	reports.GET("/balances", reportHandler.GetAccountBalances)

	return &testApp{DB: db, Clock: clk, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createAccount creates an account via the API and returns its ID.
func (app *testApp) createAccount(t *testing.T, token, name, balance string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"checking","balance":%q}`, name, balance)
	rec := app.request("POST", "/api/v1/accounts", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	return account["id"].(string)
}

// createBudget creates a monthly budget starting at the current month and
// returns its ID. An empty category makes a general budget.
func (app *testApp) createBudget(t *testing.T, token, category, amount string) string {
	t.Helper()
	now := time.Now().In(ist)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, ist)
	body := fmt.Sprintf(`{"category":%q,"amount":%q,"period":"monthly","start_date":%q}`,
		category, amount, start.Format("2006-01-02"))
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	return budget["id"].(string)
}

// getBudget fetches a budget and returns its response object.
func (app *testApp) getBudget(t *testing.T, token, budgetID string) map[string]interface{} {
	t.Helper()
	rec := app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get budget failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["budget"].(map[string]interface{})
}

// getAccountBalance fetches an account and returns its decimal balance string.
func (app *testApp) getAccountBalance(t *testing.T, token, accountID string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account failed: %d %s", rec.Code, rec.Body.String())
	}
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	return account["balance"].(string)
}
