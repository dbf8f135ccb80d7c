package export

import (
	"context"

	"wishgift/internal/storage"
)

// Ports for outbound ledger-backup adapters.
type (
	// RecordWriter appends one committed contribution to the external ledger.
	RecordWriter interface {
		Append(ctx context.Context, rec storage.ExportRecord) (rowRef string, err error)
	}
)
