package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"paisa/internal/clock"
	"paisa/internal/config"
	"paisa/internal/database"
	"paisa/internal/handlers"
	"paisa/internal/logger"
	"paisa/internal/middleware"
	"paisa/internal/services"
	"paisa/internal/validator"

	_ "paisa/internal/docs" // Import swagger docs
)

// @title           Paisa API
// @version         1.0
// @description     Paisa is a personal expense tracker that keeps account balances and budget totals consistent with every transaction create, edit, and delete.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	clk := clock.New(appConfig.Location())
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	budgetService := services.NewBudgetService(db, clk)
	transactionService := services.NewTransactionService(db, accountService, budgetService, clk)
	reportService := services.NewReportService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, clk)
	transactionHandler := handlers.NewTransactionHandler(transactionService, clk)
	reportHandler := handlers.NewReportHandler(reportService, clk)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/balance", accountHandler.GetTotalBalance)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.POST("/:id/recalculate", budgetHandler.RecalculateBudget)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/categories", reportHandler.GetCategoryBreakdown)
	reports.GET("/balances", reportHandler.GetAccountBalances)

	// Category suggestions
	protected.GET("/categories", reportHandler.GetCategories)

	log.Infof("Starting Paisa backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
