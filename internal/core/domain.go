package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrAmountBelowPrice       = errors.New("amount below item price")
	ErrEntryNotFound          = errors.New("wishlist entry not found")
	ErrContributorInfoMissing = errors.New("contributor needs an email or phone")
	ErrEmptyName              = errors.New("empty name")
	ErrEmptyTitle             = errors.New("empty title")
	ErrInvalidExpiry          = errors.New("invalid expiry date")
)

type (
	// User owns wishlists and holds the redistributable cash balance that
	// overpaying gifts are credited to. The balance is never debited by the
	// ledger.
	User struct {
		ID         int64
		Username   string
		Email      string
		Name       string
		Phone      string
		CashOnHand Money
	}

	// Vendor offers catalog items that wishlist entries can be created from.
	Vendor struct {
		ID    int64
		Name  string
		Email string
		Phone string
	}

	// CatalogItem is a vendor's product. AddedToWishlistCount tracks how many
	// entries were created from it.
	CatalogItem struct {
		ID                   int64
		VendorID             int64
		Name                 string
		Description          string
		Price                Money
		Category             string
		AddedToWishlistCount int64
		ImageURLs            []string
	}

	// Wishlist groups funding targets under one owner.
	Wishlist struct {
		ID          int64
		UserID      int64
		Title       string
		Description string
		ExpiryDate  time.Time
	}

	// WishlistEntry is a single funding target. Price is fixed at creation;
	// AmountPaid only ever grows and Status is derived from it. Version is the
	// optimistic concurrency counter bumped on every ledger update.
	WishlistEntry struct {
		ID          int64
		WishlistID  int64
		ItemID      *int64 // catalog item the entry was created from, nil for custom entries
		Name        string
		Description string
		Price       Money
		AmountPaid  Money
		Status      FundingStatus
		Version     int64
		CreatedAt   time.Time
	}

	// Contribution is one immutable ledger line: never updated or deleted once
	// committed. Amount is what was actually tendered, not the clamped
	// remainder.
	Contribution struct {
		ID        int64
		EntryID   int64
		Name      string
		Email     string
		Phone     string
		Amount    Money
		Message   string
		CreatedAt time.Time
	}

	// Contributor carries the identity fields supplied with a contribution.
	Contributor struct {
		Name    string
		Email   string
		Phone   string
		Message string
	}
)

// Validate requires a name and at least one of email or phone.
func (c Contributor) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Phone) == "" {
		return ErrContributorInfoMissing
	}
	return nil
}

func (v Vendor) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(v.Email) == "" {
		return errors.New("empty email")
	}
	if strings.TrimSpace(v.Phone) == "" {
		return errors.New("empty phone")
	}
	return nil
}

func (i CatalogItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > 120 {
		return errors.New("name too long (max 120 characters)")
	}
	if err := i.Price.Validate(); err != nil {
		return err
	}
	if len(i.ImageURLs) < 1 || len(i.ImageURLs) > 7 {
		return errors.New("an item must have between 1 and 7 images")
	}
	return nil
}

func (w Wishlist) Validate() error {
	if strings.TrimSpace(w.Title) == "" {
		return ErrEmptyTitle
	}
	if len(w.Title) > 120 {
		return errors.New("title too long (max 120 characters)")
	}
	if w.ExpiryDate.IsZero() {
		return ErrInvalidExpiry
	}
	return nil
}

// Validate checks the fields fixed at entry creation. AmountPaid and Status
// are ledger-owned and not validated here.
func (e WishlistEntry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 120 {
		return errors.New("name too long (max 120 characters)")
	}
	if len(e.Description) > 240 {
		return errors.New("description too long (max 240 characters)")
	}
	return e.Price.Validate()
}
