package domain

import (
	"time"

	"github.com/shopspring/decimal" // Fixed-point decimal amounts
)

// Transaction types (closed set)
const (
	TypeCredit = "credit" // Money in
	TypeDebit  = "debit"  // Money out
)

// Transaction Model
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`                             // Primary key, assigned by the store
	UserID       uint            `gorm:"index;not null" json:"user_id"`                    // Foreign key to the owning User
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`        // Transaction amount, 2 fractional digits
	Type         string          `gorm:"type:enum('credit','debit');not null" json:"type"` // Transaction type: credit or debit
	Description  *string         `gorm:"type:text" json:"description"`                     // Optional free text
	CustomerName *string         `gorm:"type:text" json:"customerName"`                    // Optional customer name
	CreatedAt    time.Time       `json:"created_at"`                                       // Timestamp of creation
	UpdatedAt    time.Time       `json:"updated_at"`                                       // Timestamp of last update
}

// ValidType checks if the type is one of the closed credit/debit set
func ValidType(t string) bool {
	return t == TypeCredit || t == TypeDebit // Only the two known types are accepted
}
