// Package query answers questions about a user's stored PDF text.
package query

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"docchat-backend/internal/llm"
	"docchat-backend/internal/shared/apperr"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/users"
)

// UserLookup resolves the authenticated user.
type UserLookup interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

// TextSource returns a user's accumulated document text.
type TextSource interface {
	StoredText(ctx context.Context, userID string) (string, error)
}

type Service struct {
	Users UserLookup
	Texts TextSource
	LLM   llm.Client
}

func NewService(lookup UserLookup, texts TextSource, client llm.Client) *Service {
	return &Service{Users: lookup, Texts: texts, LLM: client}
}

// Answer is the LLM output for one question.
type Answer struct {
	UserID   string
	UserName string
	Query    string
	Response string
}

// Ask sends the caller's stored text and question to the LLM and returns its answer unmodified.
func (s *Service) Ask(ctx context.Context, userID, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, apperr.Validation("Query cannot be empty", nil)
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		telemetry.Warn("query.rejected", map[string]any{"user_id": userID, "reason": "user_not_found"})
		return Answer{}, err
	}

	text, err := s.Texts.StoredText(ctx, userID)
	if err != nil {
		telemetry.Warn("query.rejected", map[string]any{"user_id": userID, "reason": "no_text"})
		return Answer{}, err
	}

	telemetry.Info("query.attempt", map[string]any{
		"user_id":       userID,
		"query_chars":   len(question),
		"context_chars": len(text),
	})

	start := time.Now()
	response, err := s.LLM.Answer(ctx, llm.AnswerInput{Context: text, Question: question})
	metrics.ObserveLLMDuration(time.Since(start))
	if err != nil {
		metrics.IncQueryFailed()
		telemetry.Error("query.failed", map[string]any{"user_id": userID, "error": err})
		return Answer{}, upstreamError(err)
	}

	metrics.IncQueries()
	telemetry.Info("query.success", map[string]any{"user_id": userID, "response_chars": len(response)})
	return Answer{UserID: userID, UserName: user.Name, Query: question, Response: response}, nil
}

func upstreamError(err error) error {
	switch {
	case errors.Is(err, llm.ErrNotImplemented):
		return apperr.Upstream(http.StatusNotImplemented, "LLM provider is not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Upstream(http.StatusGatewayTimeout, "LLM request timed out", err)
	default:
		return apperr.Upstream(http.StatusBadGateway, "LLM request failed", err)
	}
}
