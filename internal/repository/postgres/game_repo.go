package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/jackc/pgx/v5"
)

// GameRepo implements GameRepository using PostgreSQL.
type GameRepo struct{ db *DB }

// NewGameRepo constructs a game repository.
func NewGameRepo(db *DB) *GameRepo { return &GameRepo{db: db} }

const gameColumns = `id, title, description, price, developer, release_date, image, banner_image, average_reviews, tags`

func scanGame(row pgx.Row, g *model.Game) error {
	return row.Scan(&g.ID, &g.Title, &g.Description, &g.Price, &g.Developer, &g.ReleaseDate,
		&g.Image, &g.BannerImage, &g.AverageReviews, &g.Tags)
}

// Create inserts a game row.
func (r *GameRepo) Create(ctx context.Context, g model.Game) (*model.Game, error) {
	const q = `
INSERT INTO games (title, description, price, developer, release_date, image, banner_image, average_reviews, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := r.db.Pool.QueryRow(ctx, q, g.Title, g.Description, g.Price, g.Developer, g.ReleaseDate,
		g.Image, g.BannerImage, g.AverageReviews, g.Tags).Scan(&g.ID)
	if err != nil {
		return nil, storage(err)
	}
	return &g, nil
}

// Get selects a game by ID.
func (r *GameRepo) Get(ctx context.Context, id int64) (*model.Game, error) {
	const q = `SELECT ` + gameColumns + ` FROM games WHERE id=$1`
	var g model.Game
	if err := scanGame(r.db.Pool.QueryRow(ctx, q, id), &g); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storage(err)
	}
	return &g, nil
}

// Update overwrites the non-nil fields of u.
func (r *GameRepo) Update(ctx context.Context, id int64, u model.GameUpdate) (*model.Game, error) {
	const q = `
UPDATE games SET
  title = COALESCE($2, title),
  description = COALESCE($3, description),
  price = COALESCE($4, price),
  developer = COALESCE($5, developer),
  release_date = COALESCE($6, release_date),
  image = COALESCE($7, image),
  banner_image = COALESCE($8, banner_image),
  average_reviews = COALESCE($9, average_reviews),
  tags = COALESCE($10, tags)
WHERE id=$1
RETURNING ` + gameColumns
	var g model.Game
	row := r.db.Pool.QueryRow(ctx, q, id, u.Title, u.Description, u.Price, u.Developer, u.ReleaseDate,
		u.Image, u.BannerImage, u.AverageReviews, u.Tags)
	if err := scanGame(row, &g); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storage(err)
	}
	return &g, nil
}

// DeleteCascade removes all stats of the game and then the game itself.
// Either both deletes commit or neither does.
func (r *GameRepo) DeleteCascade(ctx context.Context, id int64) (game *model.Game, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storage(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			game, err = nil, storage(e)
		}
	}()

	const delStats = `DELETE FROM user_game_stats WHERE game_id=$1`
	const delGame = `DELETE FROM games WHERE id=$1 RETURNING ` + gameColumns

	if _, err = tx.Exec(ctx, delStats, id); err != nil {
		return nil, storage(err)
	}
	var g model.Game
	if err = scanGame(tx.QueryRow(ctx, delGame, id), &g); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storage(err)
	}
	return &g, nil
}

// ListForUser pages through the catalog, attaching the user's stats where present.
func (r *GameRepo) ListForUser(
	ctx context.Context, userID int64, search string, p model.Page,
) ([]model.CatalogEntry, int64, error) {
	const q = `
SELECT g.id, g.title, g.description, g.price, g.developer, g.release_date, g.image, g.banner_image, g.average_reviews, g.tags,
  s.achievements, s.hours_played, s.finished, s.score, s.review, s.updated_at,
  COUNT(*) OVER() AS total
FROM games g
LEFT JOIN user_game_stats s ON s.game_id = g.id AND s.user_id = $1
WHERE g.title ILIKE $2
ORDER BY g.title ASC, g.id ASC
LIMIT $3 OFFSET $4`
	rows, err := r.db.Pool.Query(ctx, q, userID, likePattern(search), p.Limit, p.Offset())
	if err != nil {
		return nil, 0, storage(err)
	}
	defer rows.Close()

	var (
		out   []model.CatalogEntry
		total int64
	)
	for rows.Next() {
		var (
			g        model.Game
			ach, hrs *int64
			finished *bool
			score    *float64
			review   *string
			updated  *time.Time
		)
		if err = rows.Scan(&g.ID, &g.Title, &g.Description, &g.Price, &g.Developer, &g.ReleaseDate,
			&g.Image, &g.BannerImage, &g.AverageReviews, &g.Tags,
			&ach, &hrs, &finished, &score, &review, &updated, &total); err != nil {
			return nil, 0, storage(err)
		}
		e := model.CatalogEntry{Game: g}
		if ach != nil {
			st := model.UserGameStat{UserID: userID, GameID: g.ID, Achievements: *ach}
			if hrs != nil {
				st.HoursPlayed = *hrs
			}
			if finished != nil {
				st.Finished = *finished
			}
			if score != nil {
				st.Score = *score
			}
			if review != nil {
				st.Review = *review
			}
			if updated != nil {
				st.UpdatedAt = *updated
			}
			e.Stats = &st
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, storage(err)
	}
	return out, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring ILIKE pattern; an empty search matches everything.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(search)) + "%"
}
