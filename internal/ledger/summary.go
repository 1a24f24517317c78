// Package ledger holds the pure aggregation over transaction rows.
//
// Totals are computed with fixed-point decimals so summation never picks up
// binary floating-point rounding error. The net total is defined as the net
// balance: credit minus debit.
package ledger

import (
	"ledger_system/internal/domain"

	"github.com/shopspring/decimal"
)

// Summary holds the aggregate totals over a set of transactions
type Summary struct {
	TotalDebit  decimal.Decimal `json:"totalDebit"`        // Sum of amounts with type debit
	TotalCredit decimal.Decimal `json:"totalCredit"`       // Sum of amounts with type credit
	Total       decimal.Decimal `json:"total"`             // Net balance: credit minus debit
	Skipped     int             `json:"skipped,omitempty"` // Rows excluded for an unknown type
}

// Summarize reduces transaction rows to debit/credit totals and net balance.
// Rows with a type outside the credit/debit set are excluded from the totals
// and counted in Skipped rather than silently zeroed. The result does not
// depend on input order.
func Summarize(rows []domain.Transaction) Summary {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	skipped := 0
	for _, row := range rows {
		switch row.Type {
		case domain.TypeDebit:
			totalDebit = totalDebit.Add(row.Amount) // Accumulate debit total
		case domain.TypeCredit:
			totalCredit = totalCredit.Add(row.Amount) // Accumulate credit total
		default:
			skipped++ // Unknown type, exclude and report
		}
	}
	return Summary{
		TotalDebit:  totalDebit,                    // Debit side
		TotalCredit: totalCredit,                   // Credit side
		Total:       totalCredit.Sub(totalDebit),   // Net balance
		Skipped:     skipped,                       // Excluded row count
	}
}

// ParseAmount coerces a raw JSON amount value (number or string) into a
// fixed-point decimal rounded half-up to 2 fractional digits. It reports
// failure for any non-numeric input instead of zeroing it.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch a := v.(type) {
	case float64:
		return decimal.NewFromFloat(a).Round(2), true // JSON numbers decode as float64
	case string:
		d, err := decimal.NewFromString(a) // Standard decimal parsing
		if err != nil {
			return decimal.Zero, false // Not a numeric string
		}
		return d.Round(2), true
	case decimal.Decimal:
		return a.Round(2), true // Already a decimal
	default:
		return decimal.Zero, false // Any other type is non-numeric
	}
}
