package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"wishgift/internal/amqp"
	"wishgift/internal/core"
	"wishgift/internal/storage"
)

// LedgerService orchestrates funding operations across SQLite and AMQP.
// Storage commits first; the export message is best-effort and never fails
// the caller, the reconciler covers lost messages.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// GiftRequest describes a first-time whole-item gift. Either ItemID points at
// a catalog item (name, description and price are taken from it) or the
// custom fields describe a free-form entry.
type GiftRequest struct {
	WishlistID  int64
	ItemID      *int64
	Name        string
	Description string
	Price       core.Money
	Amount      core.Money
	Contributor core.Contributor
}

// GiftWholeItem creates a wishlist entry and funds it in full in one step.
// The tendered amount must cover the entry's price; any overpayment is
// credited to the wishlist owner's cash balance.
func (s *LedgerService) GiftWholeItem(ctx context.Context, req GiftRequest) (core.WishlistEntry, core.Contribution, error) {
	if err := req.Amount.Validate(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}
	if err := req.Contributor.Validate(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	entry := core.WishlistEntry{
		WishlistID:  req.WishlistID,
		ItemID:      req.ItemID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if req.ItemID != nil {
		item, err := s.storage.GetItem(ctx, *req.ItemID)
		if err != nil {
			return core.WishlistEntry{}, core.Contribution{}, err
		}
		entry.Name = item.Name
		entry.Description = item.Description
		entry.Price = item.Price
	}
	if err := entry.Validate(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	// The whole-item floor: a gift buys the item outright or not at all.
	if req.Amount.Cents < entry.Price.Cents {
		return core.WishlistEntry{}, core.Contribution{}, core.ErrAmountBelowPrice
	}

	entry, contrib, err := s.storage.GiftNewEntry(ctx, entry, req.Amount, req.Contributor)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("gift entry: %w", err)
	}

	s.publishContribution(ctx, contrib)
	return entry, contrib, nil
}

// ContributeToEntry applies a partial top-up to an existing entry. Any
// positive amount is accepted, even past the price; top-ups never credit the
// owner's balance.
func (s *LedgerService) ContributeToEntry(ctx context.Context, entryID int64, amount core.Money, contributor core.Contributor) (core.WishlistEntry, core.Contribution, error) {
	if err := amount.Validate(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}
	if err := contributor.Validate(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	entry, contrib, err := s.storage.Contribute(ctx, entryID, amount, contributor)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	s.publishContribution(ctx, contrib)
	return entry, contrib, nil
}

// ListContributions returns the full funding history of an entry.
func (s *LedgerService) ListContributions(ctx context.Context, entryID int64) ([]core.Contribution, error) {
	if _, err := s.storage.GetEntry(ctx, entryID); err != nil {
		return nil, err
	}
	return s.storage.ListContributions(ctx, entryID)
}

// GetWishlistOverview aggregates a wishlist with its entries and funding
// totals as of today.
func (s *LedgerService) GetWishlistOverview(ctx context.Context, wishlistID int64) (core.WishlistOverview, error) {
	wl, err := s.storage.GetWishlist(ctx, wishlistID)
	if err != nil {
		return core.WishlistOverview{}, err
	}
	entries, err := s.storage.ListEntries(ctx, wishlistID)
	if err != nil {
		return core.WishlistOverview{}, err
	}
	return core.Summarize(wl, entries, time.Now().UTC()), nil
}

func (s *LedgerService) publishContribution(ctx context.Context, c core.Contribution) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping contribution message")
		return
	}
	if err := s.amqpClient.PublishContribution(ctx, c.ID, c.EntryID, c.Amount.Cents); err != nil {
		// Don't fail the request - the contribution is committed locally and
		// the reconciler will export it.
		slog.ErrorContext(ctx, "Failed to publish contribution message",
			"contribution_id", c.ID, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var result *multierror.Error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("amqp: %w", err))
		}
	}

	return result.ErrorOrNil()
}
