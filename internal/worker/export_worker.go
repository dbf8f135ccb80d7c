package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wishgift/internal/amqp"
	"wishgift/internal/export"
	"wishgift/internal/storage"
)

// ExportWorker copies committed contributions from SQLite to the external
// ledger backup. An export failure never touches the ledger itself; the row
// just stays pending for the next pass.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.RecordWriter
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, writer export.RecordWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleContributionMessage processes a single contribution message from AMQP.
func (w *ExportWorker) HandleContributionMessage(ctx context.Context, msg *amqp.ContributionMessage) error {
	slog.InfoContext(ctx, "Processing contribution message",
		"contribution_id", msg.ContributionID,
		"entry_id", msg.EntryID)

	rec, err := w.storage.GetExportRecord(ctx, msg.ContributionID)
	if err != nil {
		if errors.Is(err, storage.ErrContributionNotFound) {
			// The row never landed; nothing to export and nothing to retry.
			slog.WarnContext(ctx, "Contribution in message does not exist, dropping",
				"contribution_id", msg.ContributionID)
			return nil
		}
		return fmt.Errorf("get export record: %w", err)
	}

	return w.exportRecord(ctx, rec)
}

// ProcessPendingContributions exports contributions that haven't been written
// to the backup yet. This is the recovery path for lost AMQP messages.
func (w *ExportWorker) ProcessPendingContributions(ctx context.Context) error {
	pending, err := w.storage.PendingExportContributions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending contributions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending contributions", "count", len(pending))

	for _, rec := range pending {
		if err := w.exportRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to export contribution",
				"contribution_id", rec.Contribution.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupExportCheck drains the pending backlog at worker startup, covering
// messages missed during downtime. It uses a larger batch than the periodic
// reconcile.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	pending, err := w.storage.PendingExportContributions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending contributions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending contributions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending contributions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, rec := range pending {
		if err := w.exportRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to export contribution during startup",
				"contribution_id", rec.Contribution.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)
	return nil
}

func (w *ExportWorker) exportRecord(ctx context.Context, rec storage.ExportRecord) error {
	ref, err := w.writer.Append(ctx, rec)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, rec.Contribution.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"contribution_id", rec.Contribution.ID, "error", markErr)
		}
		return fmt.Errorf("append to backup: %w", err)
	}

	if err := w.storage.MarkExported(ctx, rec.Contribution.ID); err != nil {
		// Don't return error here - the export actually worked
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"contribution_id", rec.Contribution.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported contribution",
		"contribution_id", rec.Contribution.ID,
		"backup_ref", ref,
		"entry", rec.EntryName,
		"amount_cents", rec.Contribution.Amount.Cents)
	return nil
}
