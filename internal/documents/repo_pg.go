package documents

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo over database/sql. The SQL is shared by the pgx and sqlite drivers.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, pdf_text, upload_date, last_updated`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, user_id, file_name, pdf_text, upload_date, last_updated)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		nullableText(doc.Text),
		doc.UploadedAt,
		doc.LastUpdated,
	)
	return err
}

// AppendText concatenates in a single UPDATE so concurrent appends cannot
// overwrite each other.
func (r *PGRepo) AppendText(ctx context.Context, doc Document) (Document, error) {
	const query = `
UPDATE documents
SET pdf_text = CASE
        WHEN $1 = '' THEN pdf_text
        WHEN pdf_text IS NULL OR pdf_text = '' THEN $1
        ELSE pdf_text || $2 || $1
    END,
    last_updated = $3
WHERE id = (
    SELECT id
    FROM documents
    WHERE user_id = $4
    ORDER BY upload_date DESC, id DESC
    LIMIT 1
)
RETURNING id`

	var id string
	err := r.DB.QueryRowContext(ctx, query, doc.Text, TextSeparator, doc.LastUpdated, doc.UserID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.Create(ctx, doc); err != nil {
			return Document{}, err
		}
		return doc, nil
	}
	if err != nil {
		return Document{}, err
	}
	return r.get(ctx, doc.UserID, id)
}

func (r *PGRepo) StoredText(ctx context.Context, userID string) (string, error) {
	const query = `
SELECT pdf_text
FROM documents
WHERE user_id = $1 AND pdf_text IS NOT NULL AND pdf_text <> ''
ORDER BY upload_date, id`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", ErrNotFound
	}
	return strings.Join(parts, TextSeparator), nil
}

func (r *PGRepo) Latest(ctx context.Context, userID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1
ORDER BY upload_date DESC, id DESC
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE user_id = $1`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM documents WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepo) get(ctx context.Context, userID, id string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2`
	return scanDocument(r.DB.QueryRowContext(ctx, query, userID, id))
}

func scanDocument(row *sql.Row) (Document, error) {
	var doc Document
	var text sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&text,
		&doc.UploadedAt,
		&doc.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.Text = text.String
	return doc, nil
}

func nullableText(text string) sql.NullString {
	return sql.NullString{String: text, Valid: text != ""}
}

var _ Repo = (*PGRepo)(nil)
