package repository

import (
	"context"
	"database/sql"
	"time"

	"wan_failover/internal/models"
	"wan_failover/internal/repository/db"
)

// EventRepo is the append-only log of relay transitions and mode changes.
type EventRepo interface {
	Append(ctx context.Context, e models.RelayEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.RelayEvent, error)
}

type Repository struct {
	Events EventRepo
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(sqlDB),
	}
}

// InitDB opens the event database, keeping callers off the db subpackage.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
