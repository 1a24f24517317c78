package api

import (
	"context"                       // Context for Redis operations
	"ledger_system/internal/domain" // Importing domain models
	"ledger_system/internal/utils"  // Utility functions
	"net/http"                      // HTTP status codes
	"strconv"                       // String conversion
	"strings"                       // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for partial user update; nil fields retain their prior value
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`          // Optional display name
	Email    *string `json:"email" binding:"omitempty,email,max=255"`   // Optional email
	Password *string `json:"password" binding:"omitempty,min=8"`        // Optional password, re-hashed when supplied
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"` // Optional role
}

// ListUsersHandler returns all users
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []domain.User // Slice to hold users
		if err := db.Order("id").Find(&users).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, users) // Return the list
	}
}

// GetUserHandler returns a single user by id
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse id from path
		if err != nil {
			respondNotFound(c, "User") // Non-numeric id resolves to no row
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, id).Error; err != nil {
			respondNotFound(c, "User")
			return
		}
		c.JSON(http.StatusOK, user) // Return the user
	}
}

// UpdateUserHandler merges the supplied fields into an existing user
func UpdateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse id from path
		if err != nil {
			respondNotFound(c, "User")
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, id).Error; err != nil {
			respondNotFound(c, "User")
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindingErrors(err))
			return
		}
		// Check email uniqueness excluding this user
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			var count int64
			db.Model(&domain.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count)
			if count > 0 {
				errs := fieldErrors{}
				errs.add("email", "email has already been taken")
				respondValidation(c, errs)
				return
			}
			user.Email = email // Apply the normalized email
		}
		// Merge the remaining supplied fields, unset fields keep prior values
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Password != nil {
			// Re-hash the new password
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
				return
			}
			user.Password = string(hash)
		}
		// Persist the merged row, bumping UpdatedAt
		if err := db.Save(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("User update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		c.JSON(http.StatusOK, user) // Return the updated user
	}
}

// DeleteUserHandler removes a user; owned transactions cascade at the store
func DeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse id from path
		if err != nil {
			respondNotFound(c, "User")
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, id).Error; err != nil {
			respondNotFound(c, "User")
			return
		}
		// Delete the user; the FK cascade removes the owned transactions
		if err := db.Delete(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("User delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // Deleted user ID
		}).Info("User deleted")
		// Invalidate listings that contained the cascaded transactions
		ctx := context.Background()
		_ = utils.DeleteCache(ctx, rdb, utils.AllTransactionsKey)
		_ = utils.DeleteCache(ctx, rdb, utils.UserTransactionPrefix+strconv.Itoa(int(user.ID)))
		c.Status(http.StatusNoContent) // Empty success acknowledgment
	}
}
