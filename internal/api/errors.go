package api

import (
	"errors"   // Error unwrapping
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/gin-gonic/gin"                 // Gin web framework
	"github.com/go-playground/validator/v10"   // Field-level validation behind gin binding
)

// fieldErrors maps a field name to its validation messages. It is the body
// of every 422 response, mirroring the structured error contract.
type fieldErrors map[string][]string

// add appends a message for a field
func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// respondValidation writes the structured 422 validation response
func respondValidation(c *gin.Context, errs fieldErrors) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
}

// respondNotFound writes the structured 404 response
func respondNotFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

// bindingErrors converts a gin binding failure into per-field messages.
// Validator errors name each offending field; anything else (malformed JSON)
// becomes a single request-level message.
func bindingErrors(err error) fieldErrors {
	errs := fieldErrors{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		// One message per failed field, keyed by the lowercased field name
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				errs.add(field, field+" is required")
			case "email":
				errs.add(field, field+" must be a valid email address")
			case "min":
				errs.add(field, field+" must be at least "+fe.Param()+" characters")
			case "max":
				errs.add(field, field+" must be at most "+fe.Param()+" characters")
			case "oneof":
				errs.add(field, field+" must be one of: "+fe.Param())
			default:
				errs.add(field, field+" is invalid")
			}
		}
		return errs
	}
	// Body could not be decoded at all
	errs.add("request", "malformed request body")
	return errs
}
