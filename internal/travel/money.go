package travel

import "fmt"

// Money is an amount in a specific currency. Amounts are provider prices, so
// float64 matches the wire formats; exact-sum invariants are maintained by
// summing component values rather than recomputing them.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// String formats the amount with its currency code.
func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.Currency)
}

// IsZero reports whether the amount is unset.
func (m Money) IsZero() bool {
	return m.Amount == 0
}
