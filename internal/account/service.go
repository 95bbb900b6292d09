// Package account deletes a user together with their documents.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/shared/apperr"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/users"
)

// PasswordVerifier checks a password against a stored hash.
type PasswordVerifier interface {
	Verify(password, hash string) (bool, error)
}

type Service struct {
	UserRepo users.Repo
	DocRepo  documents.Repo
	Hasher   PasswordVerifier
}

// DeleteResult reports what was removed.
type DeleteResult struct {
	UserID           string
	DeletedDocuments int64
}

func NewService(userRepo users.Repo, docRepo documents.Repo, hasher PasswordVerifier) *Service {
	return &Service{UserRepo: userRepo, DocRepo: docRepo, Hasher: hasher}
}

// DeleteAccount removes the caller after re-checking their password.
func (s *Service) DeleteAccount(ctx context.Context, userID, password string) (DeleteResult, error) {
	if s == nil || s.UserRepo == nil || s.DocRepo == nil || s.Hasher == nil {
		return DeleteResult{}, errors.New("account service not configured")
	}

	user, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			telemetry.Warn("delete_account.rejected", map[string]any{"user_id": userID, "reason": "user_not_found"})
			return DeleteResult{}, apperr.NotFound("User not found")
		}
		return DeleteResult{}, apperr.Internal("Unexpected server error", err)
	}

	ok, err := s.Hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return DeleteResult{}, apperr.Internal("Unexpected server error", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		telemetry.Warn("delete_account.rejected", map[string]any{"user_id": userID, "reason": "wrong_password"})
		return DeleteResult{}, apperr.Unauthenticated("Wrong password.")
	}

	n, err := s.deleteAll(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return DeleteResult{}, apperr.NotFound("User not found")
		}
		telemetry.Error("delete_account.failed", map[string]any{"user_id": userID, "error": err})
		return DeleteResult{}, apperr.Internal("Unexpected server error", err)
	}

	telemetry.Info("delete_account.success", map[string]any{"user_id": userID, "deleted_documents": n})
	return DeleteResult{UserID: userID, DeletedDocuments: n}, nil
}

// deleteAll uses one transaction when both repos share a SQL database.
func (s *Service) deleteAll(ctx context.Context, userID string) (int64, error) {
	if userPG, ok := s.UserRepo.(*users.PGRepo); ok && userPG != nil && userPG.DB != nil {
		if docPG, ok := s.DocRepo.(*documents.PGRepo); ok && docPG != nil && docPG.DB == userPG.DB {
			return deleteWithTx(ctx, userPG.DB, userID)
		}
	}

	n, err := s.DocRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.UserRepo.Delete(ctx, userID); err != nil {
		return 0, err
	}
	return n, nil
}

func deleteWithTx(ctx context.Context, db *sql.DB, userID string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	docRes, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	docCount, err := docRes.RowsAffected()
	if err != nil {
		return 0, err
	}

	userRes, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	userCount, err := userRes.RowsAffected()
	if err != nil {
		return 0, err
	}
	if userCount == 0 {
		return 0, users.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return docCount, nil
}
