package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

const getGamesFinishedCount = `SELECT games_finished FROM game_server_analytics WHERE server_ip = $1`

func (q *Queries) GetGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, getGamesFinishedCount, serverIp)
	var games_finished int64
	err := row.Scan(&games_finished)
	return games_finished, err
}

const getSessionsCreatedCount = `SELECT sessions_created FROM game_server_analytics WHERE server_ip = $1`

func (q *Queries) GetSessionsCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, getSessionsCreatedCount, serverIp)
	var sessions_created int64
	err := row.Scan(&sessions_created)
	return sessions_created, err
}

const incrementGamesFinishedCount = `INSERT INTO game_server_analytics (server_ip, games_finished)
VALUES ($1, 1)
ON CONFLICT (server_ip) DO UPDATE
SET games_finished = game_server_analytics.games_finished + 1, updated_at = NOW()`

func (q *Queries) IncrementGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, incrementGamesFinishedCount, serverIp)
	return err
}

const incrementSessionsCreatedCount = `INSERT INTO game_server_analytics (server_ip, sessions_created)
VALUES ($1, 1)
ON CONFLICT (server_ip) DO UPDATE
SET sessions_created = game_server_analytics.sessions_created + 1, updated_at = NOW()`

func (q *Queries) IncrementSessionsCreatedCount(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, incrementSessionsCreatedCount, serverIp)
	return err
}
