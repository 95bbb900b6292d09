package documents

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Repo persists document records. Every method is scoped to one user.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	// AppendText appends doc.Text to the user's latest record and bumps its
	// last-updated time. When the user has no record, doc is inserted as-is.
	AppendText(ctx context.Context, doc Document) (Document, error)
	// StoredText joins the non-empty text of all the user's records in upload
	// order. It returns ErrNotFound when there is none.
	StoredText(ctx context.Context, userID string) (string, error)
	Latest(ctx context.Context, userID string) (Document, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
