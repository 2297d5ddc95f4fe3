package mysql

import (
	"context"
	"database/sql"

	"github.com/yudhapratama/code-review-api/internal/domain/reviews"
	"github.com/yudhapratama/code-review-api/internal/infra/db"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema creates the review_reports table when it does not exist yet.
// Called once at startup; there is no further migration machinery.
// Filenames are stored unbounded, so the index needs a key prefix.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS review_reports (
  id BIGINT NOT NULL AUTO_INCREMENT,
  filename TEXT NOT NULL,
  timestamp VARCHAR(64) NOT NULL,
  summary TEXT NOT NULL,
  suggestions TEXT NOT NULL,
  potential_bugs TEXT NOT NULL,
  PRIMARY KEY (id),
  KEY idx_review_reports_filename (filename(191))
);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Insert stores a report and fills in the AUTO_INCREMENT id. Ids keep
// counting upward after deletes, so an id is never handed out twice.
func (r *ReportRepository) Insert(ctx context.Context, rep *reviews.ReviewReport) error {
	const q = `
INSERT INTO review_reports
  (filename, timestamp, summary, suggestions, potential_bugs)
VALUES (?,?,?,?,?);
`
	suggestions := encodeSection(rep.Suggestions)
	bugs := encodeSection(rep.PotentialBugs)

	return db.WithSession(ctx, r.db, func(sess db.Querier) error {
		res, err := sess.ExecContext(ctx, q, rep.Filename, rep.Timestamp, rep.Summary, suggestions, bugs)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rep.ID = reviews.ReportID(id)
		return nil
	})
}

// ListAll returns every report ordered newest first. Reports written in the
// same second keep a stable order through the id tiebreak.
func (r *ReportRepository) ListAll(ctx context.Context) ([]*reviews.ReviewReport, error) {
	const q = `
SELECT id, filename, timestamp, summary, suggestions, potential_bugs
FROM review_reports
ORDER BY timestamp DESC, id DESC;
`
	var out []*reviews.ReviewReport
	err := db.WithSession(ctx, r.db, func(sess db.Querier) error {
		rows, err := sess.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rep reviews.ReviewReport
			var suggestions, bugs string
			if err := rows.Scan(&rep.ID, &rep.Filename, &rep.Timestamp, &rep.Summary, &suggestions, &bugs); err != nil {
				return err
			}
			if rep.Suggestions, err = decodeSection(suggestions); err != nil {
				return err
			}
			if rep.PotentialBugs, err = decodeSection(bugs); err != nil {
				return err
			}
			out = append(out, &rep)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes one report. Deleting an id that is not there reports
// reviews.ErrNotFound; concurrent deletes of the same id let one caller win.
func (r *ReportRepository) DeleteByID(ctx context.Context, id reviews.ReportID) error {
	const q = `DELETE FROM review_reports WHERE id=?;`

	return db.WithSession(ctx, r.db, func(sess db.Querier) error {
		res, err := sess.ExecContext(ctx, q, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return reviews.ErrNotFound
		}
		return nil
	})
}
