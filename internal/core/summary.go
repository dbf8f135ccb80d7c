package core

import "time"

// WishlistOverview is the read-side rollup for a wishlist's listing view.
// Remaining is signed and unclamped so callers can detect overfunding, and
// DaysLeft goes negative once the wishlist has expired (expired wishlists are
// surfaced, not archived).
type WishlistOverview struct {
	Wishlist         Wishlist
	Entries          []WishlistEntry
	TotalPrice       Money
	TotalContributed Money
	Remaining        Money
	DaysLeft         int
}

// Summarize computes the overview for a wishlist and its entries as of today.
// Pure read-side computation: it never mutates the entries.
func Summarize(w Wishlist, entries []WishlistEntry, today time.Time) WishlistOverview {
	ov := WishlistOverview{
		Wishlist: w,
		Entries:  entries,
		DaysLeft: DaysLeft(w.ExpiryDate, today),
	}
	for _, e := range entries {
		ov.TotalPrice = ov.TotalPrice.Add(e.Price)
		ov.TotalContributed = ov.TotalContributed.Add(e.AmountPaid)
	}
	ov.Remaining = ov.TotalPrice.Sub(ov.TotalContributed)
	return ov
}

// DaysLeft returns expiry - today in whole days, negative after expiry.
// Both dates are truncated to midnight UTC so partial days never round.
func DaysLeft(expiry, today time.Time) int {
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(t) / (24 * time.Hour))
}
