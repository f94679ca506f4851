package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type Querier interface {
	GetGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error)
	GetSessionsCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error)
	IncrementGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) error
	IncrementSessionsCreatedCount(ctx context.Context, serverIp pqtype.Inet) error
}

var _ Querier = (*Queries)(nil)
