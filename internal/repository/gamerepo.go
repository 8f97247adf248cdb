package repository

import (
	"context"

	"github.com/and161185/gamestats/internal/model"
)

// GameRepository provides access to the games catalog.
type GameRepository interface {
	// Create inserts a game and returns it with its generated ID.
	Create(ctx context.Context, g model.Game) (*model.Game, error)
	// Get loads a game by ID.
	Get(ctx context.Context, id int64) (*model.Game, error)
	// Update applies a partial update and returns the stored result.
	Update(ctx context.Context, id int64, u model.GameUpdate) (*model.Game, error)
	// DeleteCascade removes the game's stats and the game in one transaction.
	DeleteCascade(ctx context.Context, id int64) (*model.Game, error)
	// ListForUser returns games outer-joined with the user's stats and the total match count.
	ListForUser(ctx context.Context, userID int64, search string, p model.Page) ([]model.CatalogEntry, int64, error)
}
