package api

import (
	"context"                       // Context for Redis operations
	"ledger_system/internal/domain" // Importing domain models
	"ledger_system/internal/ledger" // Aggregation over transaction rows
	"ledger_system/internal/utils"  // Utility functions
	"math"                          // Integral check for user_id
	"net/http"                      // HTTP status codes
	"strconv"                       // String conversion
	"time"                          // Cache TTL

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point decimal amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// listCacheTTL is how long transaction listings stay cached in Redis
const listCacheTTL = 60 * time.Second

// transactionInput carries the parsed whitelist of transaction fields.
// A nil pointer means the field was absent; the Set flags distinguish an
// explicit JSON null (clear the column) from absence (keep prior value).
type transactionInput struct {
	UserID          *uint            // Owning user reference
	Amount          *decimal.Decimal // Fixed-point amount
	Type            *string          // credit or debit
	Description     *string          // Optional free text
	DescriptionSet  bool             // description key was present
	CustomerName    *string          // Optional customer name
	CustomerNameSet bool             // customerName key was present
}

// parseTransactionInput validates the whitelisted transaction fields out of
// a raw JSON body. With required set, user_id, amount and type must all be
// present (create); otherwise each is optional but still validated when
// supplied (update). Unknown keys are ignored, never passed through.
func parseTransactionInput(raw map[string]any, required bool) (transactionInput, fieldErrors) {
	var in transactionInput
	errs := fieldErrors{}
	// user_id must be a positive integer
	if v, ok := raw["user_id"]; ok {
		if f, ok := v.(float64); ok && f > 0 && f == math.Trunc(f) {
			id := uint(f)
			in.UserID = &id
		} else {
			errs.add("user_id", "user_id must be a positive integer")
		}
	} else if required {
		errs.add("user_id", "user_id is required")
	}
	// amount must parse as a decimal number
	if v, ok := raw["amount"]; ok {
		if amount, ok := ledger.ParseAmount(v); ok {
			in.Amount = &amount
		} else {
			errs.add("amount", "amount must be numeric")
		}
	} else if required {
		errs.add("amount", "amount is required")
	}
	// type must be in the closed credit/debit set
	if v, ok := raw["type"]; ok {
		if t, ok := v.(string); ok && domain.ValidType(t) {
			in.Type = &t
		} else {
			errs.add("type", "type must be either credit or debit")
		}
	} else if required {
		errs.add("type", "type is required")
	}
	// description is optional free text, null clears it
	if v, ok := raw["description"]; ok {
		in.DescriptionSet = true
		if v != nil {
			if s, ok := v.(string); ok {
				in.Description = &s
			} else {
				in.DescriptionSet = false
				errs.add("description", "description must be a string")
			}
		}
	}
	// customerName is optional free text, null clears it
	if v, ok := raw["customerName"]; ok {
		in.CustomerNameSet = true
		if v != nil {
			if s, ok := v.(string); ok {
				in.CustomerName = &s
			} else {
				in.CustomerNameSet = false
				errs.add("customerName", "customerName must be a string")
			}
		}
	}
	return in, errs
}

// checkUserReference verifies that user_id resolves to an existing user and
// records a validation error when it does not
func checkUserReference(db *gorm.DB, userID uint, errs fieldErrors) {
	var count int64
	if err := db.Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil || count == 0 {
		errs.add("user_id", "user_id does not reference an existing user")
	}
}

// invalidateTransactionCaches drops the cached listings touched by a write
func invalidateTransactionCaches(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	_ = utils.DeleteCache(ctx, rdb, utils.AllTransactionsKey) // All-transactions listing
	for _, id := range userIDs {
		// Per-user listing for each affected owner
		_ = utils.DeleteCache(ctx, rdb, utils.UserTransactionPrefix+strconv.Itoa(int(id)))
	}
}

// ListTransactionsHandler returns every transaction row in insertion order
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Context for Redis operations
		var rows []domain.Transaction
		// Try the cached listing first
		found, err := utils.GetCache(ctx, rdb, utils.AllTransactionsKey, &rows)
		if err == nil && found {
			c.JSON(http.StatusOK, rows) // Return cached rows
			return
		}
		// Fetch from the store in insertion order
		if err := db.Order("id").Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.AllTransactionsKey, rows, listCacheTTL) // Cache the listing
		c.JSON(http.StatusOK, rows)                                               // Return the rows
	}
}

// ListOwnTransactionsHandler returns the calling user's transactions.
// The owner is resolved from the bearer token, never from client input.
func ListOwnTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context() // Context for Redis operations
		cacheKey := utils.UserTransactionPrefix + strconv.Itoa(int(userID.(uint)))
		var rows []domain.Transaction
		// Try the cached per-user listing first
		found, err := utils.GetCache(ctx, rdb, cacheKey, &rows)
		if err == nil && found {
			c.JSON(http.StatusOK, rows) // Return cached rows
			return
		}
		// Fetch only rows owned by the caller
		if err := db.Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, rows, listCacheTTL) // Cache the listing
		c.JSON(http.StatusOK, rows)                                // Return the rows
	}
}

// CreateTransactionHandler persists a new transaction row.
// Create is intentionally not idempotent: each call allocates a fresh id.
func CreateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw map[string]any // Raw JSON body for whitelist parsing
		if err := c.ShouldBindJSON(&raw); err != nil {
			respondValidation(c, bindingErrors(err))
			return
		}
		in, errs := parseTransactionInput(raw, true) // All of user_id, amount, type required
		// Check the foreign-key reference when user_id itself parsed
		if in.UserID != nil {
			checkUserReference(db, *in.UserID, errs)
		}
		if len(errs) > 0 {
			respondValidation(c, errs) // No row is created on validation failure
			return
		}
		// Build and persist the new row
		t := domain.Transaction{
			UserID:       *in.UserID,     // Owning user
			Amount:       *in.Amount,     // Fixed-point amount
			Type:         *in.Type,       // credit or debit
			Description:  in.Description, // Optional free text
			CustomerName: in.CustomerName, // Optional customer name
		}
		if err := db.Create(&t).Error; err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": t.UserID,    // Owning user ID
				"type":    t.Type,      // Transaction type
				"error":   err.Error(), // Error message
			}).Error("Transaction create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
			return
		}
		// Log the creation
		logrus.WithFields(logrus.Fields{
			"transaction_id": t.ID,              // New transaction ID
			"user_id":        t.UserID,          // Owning user ID
			"amount":         t.Amount.String(), // Amount
			"type":           t.Type,            // Transaction type
		}).Info("Transaction created")
		// Invalidate the affected cached listings
		invalidateTransactionCaches(c.Request.Context(), rdb, t.UserID)
		c.JSON(http.StatusCreated, t) // Return the created row
	}
}

// GetTransactionHandler returns a single transaction by id
func GetTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse id from path
		if err != nil {
			respondNotFound(c, "Transaction") // Non-numeric id resolves to no row
			return
		}
		var t domain.Transaction // Fetch transaction from database
		if err := db.First(&t, id).Error; err != nil {
			respondNotFound(c, "Transaction")
			return
		}
		c.JSON(http.StatusOK, t) // Return the row
	}
}

// UpdateTransactionHandler merges the supplied fields into an existing row.
// Unsupplied fields keep their prior values; the merge is an explicit
// whitelist, never a raw pass-through of the request body.
func UpdateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse id from path
		if err != nil {
			respondNotFound(c, "Transaction")
			return
		}
		var t domain.Transaction // Fetch transaction from database
		if err := db.First(&t, id).Error; err != nil {
			respondNotFound(c, "Transaction")
			return
		}
		var raw map[string]any // Raw JSON body for whitelist parsing
		if err := c.ShouldBindJSON(&raw); err != nil {
			respondValidation(c, bindingErrors(err))
			return
		}
		in, errs := parseTransactionInput(raw, false) // Every field optional on update
		// Check the foreign-key reference when user_id is being changed
		if in.UserID != nil {
			checkUserReference(db, *in.UserID, errs)
		}
		if len(errs) > 0 {
			respondValidation(c, errs) // The row is left untouched on validation failure
			return
		}
		previousOwner := t.UserID // Remember the owner for cache invalidation
		// Merge the supplied fields
		if in.UserID != nil {
			t.UserID = *in.UserID
		}
		if in.Amount != nil {
			t.Amount = *in.Amount
		}
		if in.Type != nil {
			t.Type = *in.Type
		}
		if in.DescriptionSet {
			t.Description = in.Description // Explicit null clears the column
		}
		if in.CustomerNameSet {
			t.CustomerName = in.CustomerName // Explicit null clears the column
		}
		// Persist the merged row, bumping UpdatedAt
		if err := db.Save(&t).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"transaction_id": t.ID,        // Transaction ID
				"error":          err.Error(), // Error message
			}).Error("Transaction update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
			return
		}
		// Log the update
		logrus.WithFields(logrus.Fields{
			"transaction_id": t.ID,     // Transaction ID
			"user_id":        t.UserID, // Owning user ID
		}).Info("Transaction updated")
		// Invalidate listings for the old and the possibly-changed owner
		invalidateTransactionCaches(c.Request.Context(), rdb, previousOwner, t.UserID)
		c.JSON(http.StatusOK, t) // Return the updated row
	}
}

// DeleteTransactionHandler removes a transaction permanently
func DeleteTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse id from path
		if err != nil {
			respondNotFound(c, "Transaction")
			return
		}
		var t domain.Transaction // Fetch transaction from database
		if err := db.First(&t, id).Error; err != nil {
			respondNotFound(c, "Transaction")
			return
		}
		// Remove the row permanently
		if err := db.Delete(&t).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"transaction_id": t.ID,        // Transaction ID
				"error":          err.Error(), // Error message
			}).Error("Transaction delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"transaction_id": t.ID,     // Deleted transaction ID
			"user_id":        t.UserID, // Owning user ID
		}).Info("Transaction deleted")
		// Invalidate the affected cached listings
		invalidateTransactionCaches(c.Request.Context(), rdb, t.UserID)
		c.Status(http.StatusNoContent) // Empty success acknowledgment
	}
}

// TransactionSummaryHandler reduces every transaction row to debit/credit
// totals and the net balance
func TransactionSummaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rows []domain.Transaction // All rows, matching the dashboard's source listing
		if err := db.Order("id").Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		c.JSON(http.StatusOK, ledger.Summarize(rows)) // Return the aggregate totals
	}
}
