package api

import (
	"ledger_system/internal/domain" // Importing domain models
	"ledger_system/internal/utils"  // Utility functions
	"net/http"                      // HTTP status codes
	"strings"                       // String manipulation
	"time"                          // Token lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`          // Display name must be provided
	Email    string `json:"email" binding:"required,email,max=255"`   // Email must be provided and valid
	Password string `json:"password" binding:"required,min=8"`        // Password must be at least 8 characters
	Role     string `json:"role" binding:"required,oneof=user admin"` // Role must be user or admin
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Email must be provided
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// RegisterHandler creates a new user account
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return per-field validation errors
			respondValidation(c, bindingErrors(err))
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email)) // Normalize email for uniqueness
		// Pre-check email uniqueness
		var existing domain.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			errs := fieldErrors{}
			errs.add("email", "email has already been taken")
			respondValidation(c, errs)
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Name: req.Name, Email: email, Password: string(hash), Role: req.Role}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			// Unique index may still trip on a concurrent register
			errs := fieldErrors{}
			errs.add("email", "email has already been taken")
			respondValidation(c, errs)
			return
		}
		// Log the registration
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // New user ID
			"role":    user.Role,
		}).Info("User registered")
		// Return the created user (password is never serialized)
		c.JSON(http.StatusCreated, user)
	}
}

// LoginHandler authenticates a user and returns a bearer token
func LoginHandler(db *gorm.DB, jwtSecret string, tokenTTLHours int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return per-field validation errors
			respondValidation(c, bindingErrors(err))
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			// Unknown email, report as incorrect credentials
			respondValidation(c, incorrectCredentials())
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			respondValidation(c, incorrectCredentials())
			return
		}
		// Generate the bearer token
		token, err := utils.GenerateJWT(user.ID, jwtSecret, time.Duration(tokenTTLHours)*time.Hour)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Log the login
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // Authenticated user ID
		}).Info("User logged in")
		// Return token along with id and role for the client session
		c.JSON(http.StatusOK, gin.H{
			"message": "Success", // Success message
			"token":   token,    // Bearer token
			"id":      user.ID,  // User ID
			"role":    user.Role, // User role
		})
	}
}

// LogoutHandler revokes the presented bearer token
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsVal, exists := c.Get("tokenClaims") // Claims stored by the JWT middleware
		// Check if claims exist in context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims := claimsVal.(*utils.Claims)
		// Denylist the token's jti until its natural expiry
		if err := utils.DenyToken(c.Request.Context(), rdb, claims.ID, claims.ExpiresAt.Time); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": claims.UserID, // User ID
				"error":   err.Error(),   // Error message
			}).Error("Token revocation failed") // Log revocation failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
			return
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// CurrentUserHandler returns the authenticated user
func CurrentUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			respondNotFound(c, "User")
			return
		}
		c.JSON(http.StatusOK, user) // Return the user
	}
}

// incorrectCredentials builds the login failure body
func incorrectCredentials() fieldErrors {
	errs := fieldErrors{}
	errs.add("email", "The provided credentials are incorrect.")
	return errs
}
