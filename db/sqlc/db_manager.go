package sqlc

import (
	"context"
	"database/sql"
	"time"
)

const (
	QuerierCtxTimeout = time.Second * 10
)

// DbManager owns the connection pool and the query managers built on it.
type DbManager struct {
	db        *sql.DB
	Analytics *AnalyticsManager
}

func NewDbManager(db *sql.DB) *DbManager {
	return &DbManager{
		db:        db,
		Analytics: NewAnalyticsManager(New(db)),
	}
}

// Ping checks the pool is reachable within QuerierCtxTimeout.
func (m *DbManager) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()
	return m.db.PingContext(ctx)
}

func (m *DbManager) Close() error {
	return m.db.Close()
}
