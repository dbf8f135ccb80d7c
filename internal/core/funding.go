package core

const (
	StatusPending         FundingStatus = "Pending"
	StatusPartiallyFilled FundingStatus = "PartiallyFilled"
	StatusFilled          FundingStatus = "Filled"
)

// FundingStatus is derived from amount paid vs price, never stored
// independently of them.
type FundingStatus string

// IsValid reports whether s is one of the three known statuses.
func (s FundingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPartiallyFilled, StatusFilled:
		return true
	}
	return false
}

// StatusFor derives the funding status from the cumulative amount paid and
// the entry price. Filled iff paid >= price, Pending iff paid == 0.
func StatusFor(paid, price Money) FundingStatus {
	switch {
	case paid.Cents >= price.Cents:
		return StatusFilled
	case paid.Cents > 0:
		return StatusPartiallyFilled
	default:
		return StatusPending
	}
}

// ApplyContribution computes the entry state after crediting amount. It is
// pure and total for non-negative amounts: amount paid never decreases, so
// the Pending -> PartiallyFilled -> Filled progression is monotonic and an
// already Filled entry stays Filled under further contributions.
func ApplyContribution(paid, price, amount Money) (newPaid Money, status FundingStatus) {
	newPaid = paid.Add(amount)
	return newPaid, StatusFor(newPaid, price)
}

// Overpayment returns the portion of a first-time full gift exceeding the
// entry's original price, zero when the gift covers the price exactly.
// Only the gift-whole-item flow redistributes this to the recipient's
// balance; top-ups never do.
func Overpayment(price, amount Money) Money {
	if amount.Cents <= price.Cents {
		return Money{}
	}
	return amount.Sub(price)
}
