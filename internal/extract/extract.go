// Package extract converts uploaded PDFs to plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// ErrNotPDF is returned when a payload does not look like a PDF.
var ErrNotPDF = errors.New("file is not a PDF")

// Extractor turns a file on disk into plain text.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

// PDF extracts text with github.com/ledongthuc/pdf.
type PDF struct{}

// ExtractFile opens path and returns the text of every page in order.
func (PDF) ExtractFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, reader, err := openPDF(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return plainText(ctx, reader)
}

// SniffPDF rejects payloads whose magic bytes are not a PDF's.
func SniffPDF(data []byte) error {
	if !mimetype.Detect(data).Is(mimePDF) {
		return ErrNotPDF
	}
	return nil
}

// IsPDF reports whether a declared or detected content type names a PDF.
func IsPDF(contentType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if clean == "" {
		return false
	}
	if m := mimetype.Lookup(mimePDF); m != nil {
		return m.Is(clean)
	}
	return clean == mimePDF
}

// The pdf library panics on some malformed inputs; these wrappers turn that into an error.

func openPDF(path string) (f io.Closer, reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	file, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, r, nil
}

func plainText(ctx context.Context, reader *pdf.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
