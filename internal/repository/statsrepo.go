package repository

import (
	"context"

	"github.com/and161185/gamestats/internal/model"
)

// StatsRepository provides access to per-(user, game) statistics.
type StatsRepository interface {
	// Get returns the row for the pair or errs.ErrNotFound.
	Get(ctx context.Context, userID, gameID int64) (*model.UserGameStat, error)
	// Insert stores a first write; errs.ErrConflict if the pair already has a row.
	Insert(ctx context.Context, s model.UserGameStat) (*model.UserGameStat, error)
	// Upsert replaces the row for the pair or inserts it.
	Upsert(ctx context.Context, s model.UserGameStat) (*model.UserGameStat, error)
	// ListByUser returns the user's rows ordered by game ID and the total count.
	ListByUser(ctx context.Context, userID int64, p model.Page) ([]model.UserGameStat, int64, error)
	// ListPlayed returns games the user has stats for, best scored first.
	ListPlayed(ctx context.Context, userID int64) ([]model.CatalogEntry, error)
	// TopRated aggregates scores per game for games with at least minRatings rows.
	TopRated(ctx context.Context, limit, minRatings int) ([]model.TopRatedGame, error)
}
