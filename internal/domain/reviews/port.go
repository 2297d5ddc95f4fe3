package reviews

import "context"

// Repository abstracts persistence for review reports.
type Repository interface {
	// Insert stores a new report and fills in the database-assigned ID.
	Insert(ctx context.Context, r *ReviewReport) error
	ListAll(ctx context.Context) ([]*ReviewReport, error)
	DeleteByID(ctx context.Context, id ReportID) error
}

// ArchiveStore keeps a copy of the raw uploaded source next to the report.
// Archival is best-effort and must not block a review from succeeding.
type ArchiveStore interface {
	Archive(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
