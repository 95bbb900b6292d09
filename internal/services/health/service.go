package health

import (
	"context"
	"database/sql"
	"time"
)

const (
	DBUp     = "up"
	DBDown   = "down"
	DBMemory = "memory"

	pingTimeout = 2 * time.Second
)

// Status is the health payload.
type Status struct {
	OK bool   `json:"ok"`
	DB string `json:"db"`
}

// Service reports process and database health.
type Service struct {
	DB *sql.DB
}

// NewService constructs a health service. A nil db means in-memory repositories.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status pings the database with a short timeout. OK stays true while the database is down.
func (s *Service) Status(ctx context.Context) Status {
	if s == nil || s.DB == nil {
		return Status{OK: true, DB: DBMemory}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return Status{OK: true, DB: DBDown}
	}
	return Status{OK: true, DB: DBUp}
}
