package api

import (
	"ledger_system/internal/config"     // Application configuration
	"ledger_system/internal/middleware" // JWT and admin middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// SetupRoutes registers every endpoint on the given engine
func SetupRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// Public routes
	r.POST("/users", RegisterHandler(db))                              // Registration endpoint
	r.POST("/login", LoginHandler(db, cfg.JWTSecret, cfg.TokenTTLHours)) // Login endpoint

	// Everything else requires a bearer token
	authGroup := r.Group("")
	authGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret, rdb))

	// Session routes
	authGroup.POST("/logout", LogoutHandler(rdb))   // Token revocation endpoint
	authGroup.GET("/user", CurrentUserHandler(db)) // Authenticated user endpoint

	// User routes
	authGroup.GET("/users", ListUsersHandler(db))      // List users endpoint
	authGroup.GET("/users/:id", GetUserHandler(db))    // Show user endpoint
	authGroup.PUT("/users/:id", UpdateUserHandler(db)) // Update user endpoint
	// Deleting an account (and its cascaded transactions) is admin only
	authGroup.DELETE("/users/:id", middleware.AdminOnlyMiddleware(db), DeleteUserHandler(db, rdb))

	// Transaction routes
	authGroup.GET("/transactions", ListTransactionsHandler(db, rdb))        // List all transactions endpoint
	authGroup.GET("/transactions/summary", TransactionSummaryHandler(db))   // Aggregate totals endpoint
	authGroup.GET("/my-transactions", ListOwnTransactionsHandler(db, rdb))  // List own transactions endpoint
	authGroup.POST("/transactions", CreateTransactionHandler(db, rdb))      // Create transaction endpoint
	authGroup.GET("/transactions/:id", GetTransactionHandler(db))           // Show transaction endpoint
	authGroup.PUT("/transactions/:id", UpdateTransactionHandler(db, rdb))   // Update transaction endpoint
	authGroup.DELETE("/transactions/:id", DeleteTransactionHandler(db, rdb)) // Delete transaction endpoint
}
