package documents

import "time"

// TextSeparator joins text extracted from successive files.
const TextSeparator = "\n\n"

// Document is one stored record of extracted PDF text owned by a user.
type Document struct {
	ID          string
	UserID      string
	FileName    string
	Text        string
	UploadedAt  time.Time
	LastUpdated time.Time
}

// appendText mirrors the SQL append: no separator is added onto empty text
// and empty text leaves existing unchanged.
func appendText(existing, text string) string {
	if text == "" {
		return existing
	}
	if existing == "" {
		return text
	}
	return existing + TextSeparator + text
}
