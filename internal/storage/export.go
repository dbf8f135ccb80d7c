package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"wishgift/internal/core"
)

var ErrContributionNotFound = errors.New("contribution not found")

// ExportRecord is a committed ledger line joined with the entry it funds,
// queued for the external ledger backup.
type ExportRecord struct {
	Contribution core.Contribution
	EntryName    string
	WishlistID   int64
}

// GetExportRecord loads a single contribution with its entry context.
func (r *SQLiteRepository) GetExportRecord(ctx context.Context, contributionID int64) (ExportRecord, error) {
	var rec ExportRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT c.id, c.entry_id, c.name, c.email, c.phone, c.amount_cents, c.message, c.created_at,
		        e.name, e.wishlist_id
		 FROM contributions c
		 JOIN wishlist_entries e ON e.id = c.entry_id
		 WHERE c.id = ?`, contributionID).
		Scan(&rec.Contribution.ID, &rec.Contribution.EntryID, &rec.Contribution.Name,
			&rec.Contribution.Email, &rec.Contribution.Phone, &rec.Contribution.Amount.Cents,
			&rec.Contribution.Message, &rec.Contribution.CreatedAt,
			&rec.EntryName, &rec.WishlistID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExportRecord{}, ErrContributionNotFound
		}
		return ExportRecord{}, fmt.Errorf("get export record: %w", err)
	}
	return rec, nil
}

// PendingExportContributions returns contributions not yet written to the
// ledger backup. This backs the periodic reconcile in case AMQP messages
// are lost.
func (r *SQLiteRepository) PendingExportContributions(ctx context.Context, limit int) ([]ExportRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.entry_id, c.name, c.email, c.phone, c.amount_cents, c.message, c.created_at,
		        e.name, e.wishlist_id
		 FROM contributions c
		 JOIN wishlist_entries e ON e.id = c.entry_id
		 WHERE c.exported = 0
		 ORDER BY c.id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export contributions: %w", err)
	}
	defer rows.Close()

	var recs []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.Contribution.ID, &rec.Contribution.EntryID, &rec.Contribution.Name,
			&rec.Contribution.Email, &rec.Contribution.Phone, &rec.Contribution.Amount.Cents,
			&rec.Contribution.Message, &rec.Contribution.CreatedAt,
			&rec.EntryName, &rec.WishlistID); err != nil {
			return nil, fmt.Errorf("scan export record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// MarkExported marks a contribution as successfully written to the backup.
func (r *SQLiteRepository) MarkExported(ctx context.Context, contributionID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE contributions SET exported = 1, export_error = 0 WHERE id = ?`, contributionID); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Contribution marked as exported", "id", contributionID)
	return nil
}

// MarkExportError flags a contribution whose export attempt failed. The row
// stays pending so the reconciler picks it up again.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, contributionID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE contributions SET export_error = 1 WHERE id = ?`, contributionID); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Contribution marked with export error", "id", contributionID)
	return nil
}
