package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/extract"
	"docchat-backend/internal/shared/apperr"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/storage/scratch"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/shared/util"
	"docchat-backend/internal/users"
)

const (
	DefaultMaxUploadBytes = 20 << 20

	msgInvalidType    = "Invalid file type. Only PDF files are accepted"
	msgExtractFailed  = "Failed to extract text from PDF"
	msgHistoryMissing = "History not found"
	msgUnexpected     = "Unexpected server error"
)

// UserLookup resolves the authenticated user.
type UserLookup interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

// Service implements upload, update, deletion and history of a user's PDF text.
type Service struct {
	Repo      Repo
	Users     UserLookup
	Scratch   *scratch.Store
	Extractor extract.Extractor
	MaxBytes  int64
	Now       func() time.Time
}

func NewService(repo Repo, lookup UserLookup, store *scratch.Store, extractor extract.Extractor, maxBytes int64) *Service {
	return &Service{
		Repo:      repo,
		Users:     lookup,
		Scratch:   store,
		Extractor: extractor,
		MaxBytes:  maxBytes,
		Now:       time.Now,
	}
}

// FileInput is an uploaded file as received by the handler.
type FileInput struct {
	UserID      string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UpdateResult is the record after an append, with the name of the user who made it.
type UpdateResult struct {
	Document Document
	UserName string
}

// History describes the caller's latest record.
type History struct {
	Latest       Document
	TotalUploads int
}

// Upload extracts text from a PDF and stores it as a new record.
func (s *Service) Upload(ctx context.Context, in FileInput) (Document, error) {
	telemetry.Info("upload.attempt", map[string]any{"user_id": in.UserID, "file_name": in.FileName})

	if err := s.checkDeclared(in, "upload"); err != nil {
		return Document{}, err
	}
	if _, err := s.Users.GetByID(ctx, in.UserID); err != nil {
		telemetry.Warn("upload.rejected", map[string]any{"user_id": in.UserID, "reason": "user_not_found"})
		return Document{}, err
	}

	text, err := s.extract(ctx, in, "upload")
	if err != nil {
		return Document{}, err
	}

	now := s.now()
	doc := Document{
		ID:          newDocumentID(),
		UserID:      in.UserID,
		FileName:    in.FileName,
		Text:        text,
		UploadedAt:  now,
		LastUpdated: now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		telemetry.Error("upload.failed", map[string]any{"user_id": in.UserID, "file_name": in.FileName, "error": err})
		return Document{}, apperr.Internal(msgUnexpected, err)
	}

	metrics.IncUploads()
	telemetry.Info("upload.success", map[string]any{
		"user_id":     in.UserID,
		"file_name":   in.FileName,
		"document_id": doc.ID,
		"text_chars":  len(text),
	})
	return doc, nil
}

// Update extracts text from a PDF and appends it to the caller's latest record.
func (s *Service) Update(ctx context.Context, in FileInput) (UpdateResult, error) {
	user, err := s.Users.GetByID(ctx, in.UserID)
	if err != nil {
		telemetry.Warn("update.rejected", map[string]any{"user_id": in.UserID, "reason": "user_not_found"})
		return UpdateResult{}, err
	}
	telemetry.Info("update.attempt", map[string]any{
		"user_id":   in.UserID,
		"user_name": user.Name,
		"file_name": in.FileName,
	})

	if err := s.checkDeclared(in, "update"); err != nil {
		return UpdateResult{}, err
	}
	text, err := s.extract(ctx, in, "update")
	if err != nil {
		return UpdateResult{}, err
	}

	now := s.now()
	doc, err := s.Repo.AppendText(ctx, Document{
		ID:          newDocumentID(),
		UserID:      in.UserID,
		FileName:    in.FileName,
		Text:        text,
		UploadedAt:  now,
		LastUpdated: now,
	})
	if err != nil {
		telemetry.Error("update.failed", map[string]any{"user_id": in.UserID, "file_name": in.FileName, "error": err})
		return UpdateResult{}, apperr.Internal(msgUnexpected, err)
	}

	metrics.IncUpdates()
	telemetry.Info("update.success", map[string]any{
		"user_id":     in.UserID,
		"user_name":   user.Name,
		"document_id": doc.ID,
		"text_chars":  len(text),
	})
	return UpdateResult{Document: doc, UserName: user.Name}, nil
}

// DeleteData removes every record of the caller and reports how many were deleted.
func (s *Service) DeleteData(ctx context.Context, userID string) (int64, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		telemetry.Warn("delete_data.rejected", map[string]any{"user_id": userID, "reason": "user_not_found"})
		return 0, err
	}
	n, err := s.Repo.DeleteByUser(ctx, userID)
	if err != nil {
		telemetry.Error("delete_data.failed", map[string]any{"user_id": userID, "error": err})
		return 0, apperr.Internal(msgUnexpected, err)
	}
	if n == 0 {
		telemetry.Info("delete_data.empty", map[string]any{"user_id": userID})
		return 0, nil
	}
	telemetry.Info("delete_data.success", map[string]any{"user_id": userID, "deleted_documents": n})
	return n, nil
}

// History returns the caller's latest record and their record count.
func (s *Service) History(ctx context.Context, userID string) (History, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return History{}, err
	}
	latest, err := s.Repo.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			telemetry.Warn("history.not_found", map[string]any{"user_id": userID})
			return History{}, apperr.NotFound(msgHistoryMissing)
		}
		return History{}, apperr.Internal(msgUnexpected, err)
	}
	total, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		return History{}, apperr.Internal(msgUnexpected, err)
	}
	return History{Latest: latest, TotalUploads: total}, nil
}

// StoredText returns the caller's accumulated text.
func (s *Service) StoredText(ctx context.Context, userID string) (string, error) {
	text, err := s.Repo.StoredText(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.NotFound("No PDF data found for this user")
		}
		return "", apperr.Internal(msgUnexpected, err)
	}
	return text, nil
}

// checkDeclared validates what the client claims before any bytes are written.
func (s *Service) checkDeclared(in FileInput, op string) error {
	if !extract.IsPDF(in.ContentType) {
		telemetry.Warn(op+".rejected", map[string]any{
			"user_id":      in.UserID,
			"file_name":    in.FileName,
			"content_type": in.ContentType,
			"reason":       "not_pdf",
		})
		return apperr.Validation(msgInvalidType, nil)
	}
	if in.Size > s.maxBytes() {
		telemetry.Warn(op+".rejected", map[string]any{
			"user_id":    in.UserID,
			"file_name":  in.FileName,
			"size_bytes": in.Size,
			"reason":     "too_large",
		})
		return s.tooLarge()
	}
	return nil
}

// extract writes the body to the scratch area, checks its magic bytes and
// extracts the text. The scratch file is removed on every path.
func (s *Service) extract(ctx context.Context, in FileInput, op string) (string, error) {
	if s.Scratch == nil || s.Extractor == nil {
		return "", apperr.Internal(msgUnexpected, errors.New("documents service not configured"))
	}
	file, err := s.Scratch.Save(ctx, in.UserID, in.FileName, in.Body, s.maxBytes())
	switch {
	case errors.Is(err, scratch.ErrTooLarge):
		telemetry.Warn(op+".rejected", map[string]any{"user_id": in.UserID, "file_name": in.FileName, "reason": "too_large"})
		return "", s.tooLarge()
	case errors.Is(err, util.ErrInvalidFileName):
		return "", apperr.Validation("Invalid file name", nil)
	case err != nil:
		return "", apperr.Internal(msgUnexpected, err)
	}
	defer func() {
		if err := s.Scratch.Remove(file.Path); err != nil {
			telemetry.Warn("scratch.remove_failed", map[string]any{"user_id": in.UserID, "error": err})
		}
	}()

	if err := extract.SniffPDF(file.Head); err != nil {
		telemetry.Warn(op+".rejected", map[string]any{
			"user_id":   in.UserID,
			"file_name": in.FileName,
			"reason":    "content_not_pdf",
		})
		return "", apperr.Validation(msgInvalidType, nil)
	}

	start := time.Now()
	text, err := s.Extractor.ExtractFile(ctx, file.Path)
	metrics.ObserveExtractDuration(time.Since(start))
	if err != nil {
		metrics.IncExtractFailed()
		telemetry.Error(op+".extract_failed", map[string]any{"user_id": in.UserID, "file_name": in.FileName, "error": err})
		return "", apperr.Upstream(http.StatusInternalServerError, msgExtractFailed, err)
	}
	return text, nil
}

// newDocumentID returns a time-ordered UUIDv7, so records sharing an upload
// timestamp still sort in arrival order.
func newDocumentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) tooLarge() error {
	return apperr.Validation(fmt.Sprintf("The file is too large. Max size allowed is %d MB", s.maxBytes()>>20), nil)
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return s.MaxBytes
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
