package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
	// agreedExpr counts agreeing rows within a GROUP BY.
	agreedExpr string
}

var (
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
		agreedExpr:  "COALESCE(SUM(agreed), 0)",
	}
	postgresDialect = dialect{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		agreedExpr:  "COUNT(*) FILTER (WHERE agreed)",
	}
)

// bind replaces each ? in query with the dialect's placeholder.
func (d dialect) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const feedbackColumns = `id, fingerprint, narrative_excerpt, unit_type,
	detected_format, corrected_format, agreed, confidence,
	notes, created_at, updated_at`

// sqlStore implements Store on database/sql; SQLiteStore and PostgresStore embed it.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

// Save upserts on (fingerprint, unit_type); the row keeps its ID and created_at.
func (s *sqlStore) Save(ctx context.Context, fb *Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()

	query := s.d.bind(`
		INSERT INTO format_feedback (
			fingerprint, narrative_excerpt, unit_type,
			detected_format, corrected_format, agreed, confidence,
			notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint, unit_type) DO UPDATE SET
			narrative_excerpt = excluded.narrative_excerpt,
			detected_format = excluded.detected_format,
			corrected_format = excluded.corrected_format,
			agreed = excluded.agreed,
			confidence = excluded.confidence,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		RETURNING id, created_at`)

	err := s.db.QueryRowContext(ctx, query,
		fb.Fingerprint, fb.NarrativeExcerpt, string(fb.UnitType),
		string(fb.DetectedFormat), string(fb.CorrectedFormat), fb.Agreed, fb.Confidence,
		fb.Notes, now, now,
	).Scan(&fb.ID, timestamp{&fb.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	fb.UpdatedAt = now
	return nil
}

func (s *sqlStore) Get(ctx context.Context, fingerprint string, unitType domain.UnitType) (*Feedback, error) {
	query := s.d.bind(`SELECT ` + feedbackColumns + `
		FROM format_feedback
		WHERE fingerprint = ? AND unit_type = ?
		LIMIT 1`)

	fb, err := scanFeedback(s.db.QueryRowContext(ctx, query, fingerprint, string(unitType)))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return fb, nil
}

func (s *sqlStore) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	query := s.d.bind(`SELECT ` + feedbackColumns + `
		FROM format_feedback
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []*Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (s *sqlStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM format_feedback").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}

func (s *sqlStore) Agreement(ctx context.Context) ([]FormatAgreement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT detected_format, COUNT(*), `+s.d.agreedExpr+`
		FROM format_feedback
		GROUP BY detected_format
		ORDER BY detected_format`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agreement: %w", err)
	}
	defer rows.Close()

	out := []FormatAgreement{}
	for rows.Next() {
		var (
			a      FormatAgreement
			format string
		)
		if err := rows.Scan(&format, &a.Total, &a.Agreed); err != nil {
			return nil, fmt.Errorf("failed to scan agreement: %w", err)
		}
		a.Format = domain.FormatID(format)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *sqlStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.d.bind("DELETE FROM format_feedback WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return nil
}

// ExportJSON writes every verdict as one FeedbackExport document.
func (s *sqlStore) ExportJSON(ctx context.Context, w io.Writer) error {
	items, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Feedback{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FeedbackExport{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(items),
		Feedback:   items,
	})
}

// ImportJSON saves verdicts from a FeedbackExport. Invalid entries and entries whose
// fingerprint and unit type are already stored count as skipped.
func (s *sqlStore) ImportJSON(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	var doc FeedbackExport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, 0, fmt.Errorf("failed to decode feedback export: %w", err)
	}

	for _, fb := range doc.Feedback {
		if fb == nil || fb.Validate() != nil {
			skipped++
			continue
		}
		existing, err := s.Get(ctx, fb.Fingerprint, fb.UnitType)
		if err != nil {
			return imported, skipped, err
		}
		if existing != nil {
			skipped++
			continue
		}
		fb.ID = 0
		if err := s.Save(ctx, fb); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row rowScanner) (*Feedback, error) {
	var (
		fb                        Feedback
		unit, detected, corrected string
	)
	err := row.Scan(
		&fb.ID, &fb.Fingerprint, &fb.NarrativeExcerpt, &unit,
		&detected, &corrected, &fb.Agreed, &fb.Confidence,
		&fb.Notes, timestamp{&fb.CreatedAt}, timestamp{&fb.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	fb.UnitType = domain.UnitType(unit)
	fb.DetectedFormat = domain.FormatID(detected)
	fb.CorrectedFormat = domain.FormatID(corrected)
	return &fb, nil
}

// timestampLayouts covers what SQLite hands back for DATETIME columns it could not type.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// timestamp scans a driver time value or its text form into t.
type timestamp struct{ t *time.Time }

func (ts timestamp) Scan(v any) error {
	var text string
	switch x := v.(type) {
	case nil:
		*ts.t = time.Time{}
		return nil
	case time.Time:
		*ts.t = x
		return nil
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		return fmt.Errorf("unsupported timestamp type %T", v)
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			*ts.t = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", text)
}
