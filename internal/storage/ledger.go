// Ledger primitives. Each exported method here is one atomic unit of work:
// the entry mutation, the contribution record, and any recipient credit
// commit together or not at all.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wishgift/internal/core"
)

// contentionRetries bounds how often a lost optimistic update is retried
// before the failure is surfaced to the caller.
const contentionRetries = 1

// Contribute applies a top-up contribution to an existing entry. The entry
// row is guarded by a version counter: the update is a compare-and-swap, and
// a lost race is retried once against the re-read entry so two concurrent
// contributions always both land (never last-write-wins).
func (r *SQLiteRepository) Contribute(ctx context.Context, entryID int64, amount core.Money, contributor core.Contributor) (core.WishlistEntry, core.Contribution, error) {
	var lastErr error
	for attempt := 0; attempt <= contentionRetries; attempt++ {
		entry, err := r.GetEntry(ctx, entryID)
		if err != nil {
			return core.WishlistEntry{}, core.Contribution{}, err
		}
		updated, contrib, err := r.applyContribution(ctx, entry, amount, contributor)
		if errors.Is(err, ErrConcurrentUpdate) {
			lastErr = err
			continue
		}
		return updated, contrib, err
	}
	return core.WishlistEntry{}, core.Contribution{}, lastErr
}

// applyContribution commits one contribution against the given entry
// snapshot. If another writer has advanced the version since the snapshot was
// read, the transaction changes nothing and ErrConcurrentUpdate is returned.
func (r *SQLiteRepository) applyContribution(ctx context.Context, entry core.WishlistEntry, amount core.Money, contributor core.Contributor) (core.WishlistEntry, core.Contribution, error) {
	newPaid, newStatus := core.ApplyContribution(entry.AmountPaid, entry.Price, amount)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// The CAS update is the first statement of the transaction so the write
	// lock is taken immediately, avoiding a shared-to-exclusive upgrade.
	res, err := tx.ExecContext(ctx,
		`UPDATE wishlist_entries
		 SET amount_paid_cents = ?, status = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		newPaid.Cents, string(newStatus), entry.ID, entry.Version)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("update entry rows: %w", err)
	}
	if affected == 0 {
		return core.WishlistEntry{}, core.Contribution{}, ErrConcurrentUpdate
	}

	contrib, err := insertContribution(ctx, tx, entry.ID, amount, contributor)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("commit contribution: %w", err)
	}

	entry.AmountPaid = newPaid
	entry.Status = newStatus
	entry.Version++

	slog.InfoContext(ctx, "Contribution recorded",
		"contribution_id", contrib.ID,
		"entry_id", entry.ID,
		"amount_cents", amount.Cents,
		"amount_paid_cents", entry.AmountPaid.Cents,
		"status", entry.Status)
	return entry, contrib, nil
}

// GiftNewEntry creates a wishlist entry and applies its first-time full gift
// in a single transaction: entry insert, contribution record, overpayment
// credit to the owner's cash balance, and the catalog counter bump.
// The caller has already enforced the full-price floor; the overpayment is
// computed here against the entry's original price so it cannot drift from
// what is committed.
func (r *SQLiteRepository) GiftNewEntry(ctx context.Context, entry core.WishlistEntry, amount core.Money, contributor core.Contributor) (core.WishlistEntry, core.Contribution, error) {
	wishlist, err := r.GetWishlist(ctx, entry.WishlistID)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	paid, status := core.ApplyContribution(core.Money{}, entry.Price, amount)
	credit := core.Overpayment(entry.Price, amount)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO wishlist_entries (wishlist_id, item_id, name, description, price_cents,
		 amount_paid_cents, status, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		entry.WishlistID, entry.ItemID, entry.Name, entry.Description,
		entry.Price.Cents, paid.Cents, string(status), now)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("create entry: %w", err)
	}
	entry.ID, err = res.LastInsertId()
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("entry insert id: %w", err)
	}
	entry.AmountPaid = paid
	entry.Status = status
	entry.Version = 1
	entry.CreatedAt = now

	contrib, err := insertContribution(ctx, tx, entry.ID, amount, contributor)
	if err != nil {
		return core.WishlistEntry{}, core.Contribution{}, err
	}

	if credit.IsPositive() {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET cash_on_hand_cents = cash_on_hand_cents + ? WHERE id = ?`,
			credit.Cents, wishlist.UserID); err != nil {
			return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("credit recipient: %w", err)
		}
	}

	if entry.ItemID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE catalog_items SET added_to_wishlist_count = added_to_wishlist_count + 1 WHERE id = ?`,
			*entry.ItemID); err != nil {
			return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("bump item counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WishlistEntry{}, core.Contribution{}, fmt.Errorf("commit gift: %w", err)
	}

	slog.InfoContext(ctx, "Whole-item gift recorded",
		"contribution_id", contrib.ID,
		"entry_id", entry.ID,
		"wishlist_id", entry.WishlistID,
		"amount_cents", amount.Cents,
		"credit_cents", credit.Cents,
		"status", entry.Status)
	return entry, contrib, nil
}

func insertContribution(ctx context.Context, tx *sql.Tx, entryID int64, amount core.Money, contributor core.Contributor) (core.Contribution, error) {
	c := core.Contribution{
		EntryID:   entryID,
		Name:      contributor.Name,
		Email:     contributor.Email,
		Phone:     contributor.Phone,
		Amount:    amount,
		Message:   contributor.Message,
		CreatedAt: time.Now().UTC(),
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO contributions (entry_id, name, email, phone, amount_cents, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.EntryID, c.Name, c.Email, c.Phone, c.Amount.Cents, c.Message, c.CreatedAt)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("create contribution: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Contribution{}, fmt.Errorf("contribution insert id: %w", err)
	}
	return c, nil
}
