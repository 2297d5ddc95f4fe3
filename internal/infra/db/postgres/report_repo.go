package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/yudhapratama/code-review-api/internal/domain/reviews"
	"github.com/yudhapratama/code-review-api/internal/infra/db"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema creates the review_reports table and its filename index when
// absent. Called once at startup; no further migration machinery exists.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	const table = `
CREATE TABLE IF NOT EXISTS review_reports (
  id BIGSERIAL PRIMARY KEY,
  filename TEXT NOT NULL,
  timestamp VARCHAR(64) NOT NULL,
  summary TEXT NOT NULL,
  suggestions TEXT NOT NULL,
  potential_bugs TEXT NOT NULL
);
`
	const index = `CREATE INDEX IF NOT EXISTS idx_review_reports_filename ON review_reports (filename);`

	if _, err := r.db.ExecContext(ctx, table); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, index)
	return err
}

// Insert stores a report and fills in the sequence-assigned id. Sequences
// never step backwards, so an id is not handed out twice after a delete.
func (r *ReportRepository) Insert(ctx context.Context, rep *reviews.ReviewReport) error {
	const q = `
INSERT INTO review_reports
  (filename, timestamp, summary, suggestions, potential_bugs)
VALUES ($1,$2,$3,$4,$5)
RETURNING id;
`
	suggestions := encodeSection(rep.Suggestions)
	bugs := encodeSection(rep.PotentialBugs)

	return db.WithSession(ctx, r.db, func(sess db.Querier) error {
		var id int64
		if err := sess.QueryRowContext(ctx, q, rep.Filename, rep.Timestamp, rep.Summary, suggestions, bugs).Scan(&id); err != nil {
			return err
		}
		rep.ID = reviews.ReportID(id)
		return nil
	})
}

// ListAll returns every report ordered newest first, id as the tiebreak for
// reports written in the same second.
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

// DeleteByID removes one report, reporting reviews.ErrNotFound when the id
// does not exist.
func (r *ReportRepository) DeleteByID(ctx context.Context, id reviews.ReportID) error {
	const q = `DELETE FROM review_reports WHERE id=$1;`

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

func encodeSection(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func decodeSection(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
