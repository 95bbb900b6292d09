// Package scratch holds uploaded files on local disk for the duration of one request.
package scratch

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docchat-backend/internal/shared/util"
)

// ErrTooLarge is returned by Save when the body exceeds the configured limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// HeadLen is how many leading bytes Save keeps for content sniffing.
const HeadLen = 3072

// File describes a saved scratch file.
type File struct {
	Path string
	Size int64
	// Head holds up to HeadLen leading bytes of the body.
	Head []byte
}

// Store writes uploads under baseDir, namespaced by a hash of the owner.
type Store struct {
	baseDir string
}

// New creates baseDir if needed and returns a store rooted there.
func New(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("scratch dir is empty")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir scratch: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// Save copies r to disk keyed by userID and fileName. A random prefix keeps
// concurrent uploads of the same name apart. limit <= 0 disables the size check.
func (s *Store) Save(ctx context.Context, userID, fileName string, r io.Reader, limit int64) (File, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return File{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	dirPath := filepath.Join(s.baseDir, util.HashUserKey(userID))
	if err := os.MkdirAll(dirPath, 0o700); err != nil {
		return File{}, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(dirPath, fmt.Sprintf("%s_%s", randomID(), sanitizedName))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return File{}, fmt.Errorf("open file: %w", err)
	}

	out := File{Path: fullPath}
	if err := s.write(f, r, limit, &out); err != nil {
		f.Close()
		os.Remove(fullPath)
		return File{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return File{}, fmt.Errorf("close file: %w", err)
	}
	return out, nil
}

func (s *Store) write(f *os.File, r io.Reader, limit int64, out *File) error {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	head := make([]byte, HeadLen)
	n, readErr := io.ReadFull(r, head)
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return fmt.Errorf("read head: %w", readErr)
	}
	out.Head = head[:n]

	if n > 0 {
		if _, err := f.Write(out.Head); err != nil {
			return fmt.Errorf("write head: %w", err)
		}
		out.Size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	out.Size += written
	if limit > 0 && out.Size > limit {
		return ErrTooLarge
	}
	return nil
}

// Remove deletes a file previously returned by Save. Missing files are not an error.
func (s *Store) Remove(path string) error {
	clean := filepath.Clean(path)
	rel, err := filepath.Rel(s.baseDir, clean)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path outside scratch dir")
	}
	if err := os.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
