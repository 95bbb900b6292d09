package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildPDF writes a one-page PDF showing text with Helvetica.
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc1.pdf")
	if err := os.WriteFile(path, buildPDF("Hello"), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	text, err := (PDF{}).ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if !strings.Contains(text, "Hello") {
		t.Fatalf("expected extracted text to contain Hello, got %q", text)
	}
}

func TestSniffPDF(t *testing.T) {
	if err := SniffPDF(buildPDF("Hello")); err != nil {
		t.Fatalf("expected generated PDF to pass, got %v", err)
	}
	for _, data := range [][]byte{nil, []byte("just some text"), []byte("\x89PNG\r\n\x1a\n")} {
		if err := SniffPDF(data); !errors.Is(err, ErrNotPDF) {
			t.Fatalf("expected ErrNotPDF for %q, got %v", data, err)
		}
	}
}

func TestExtractFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\ngarbage without xref"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := (PDF{}).ExtractFile(context.Background(), path); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestExtractFileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (PDF{}).ExtractFile(ctx, "unused.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsPDF(t *testing.T) {
	for _, ct := range []string{"application/pdf", "APPLICATION/PDF", "application/pdf; charset=binary", "application/x-pdf"} {
		if !IsPDF(ct) {
			t.Fatalf("expected %q to be PDF", ct)
		}
	}
	for _, ct := range []string{"", "text/plain", "image/png", "application/octet-stream"} {
		if IsPDF(ct) {
			t.Fatalf("expected %q not to be PDF", ct)
		}
	}
}
