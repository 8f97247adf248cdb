package postgres

import (
	"context"
	"errors"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/jackc/pgx/v5"
)

// StatsRepo implements StatsRepository using PostgreSQL.
type StatsRepo struct{ db *DB }

// NewStatsRepo constructs a stats repository.
func NewStatsRepo(db *DB) *StatsRepo { return &StatsRepo{db: db} }

const statsColumns = `user_id, game_id, achievements, hours_played, finished, score, review, updated_at`

func scanStat(row pgx.Row, s *model.UserGameStat) error {
	return row.Scan(&s.UserID, &s.GameID, &s.Achievements, &s.HoursPlayed, &s.Finished, &s.Score, &s.Review, &s.UpdatedAt)
}

// Get selects the stats row for (user, game).
func (r *StatsRepo) Get(ctx context.Context, userID, gameID int64) (*model.UserGameStat, error) {
	const q = `SELECT ` + statsColumns + ` FROM user_game_stats WHERE user_id=$1 AND game_id=$2`
	var s model.UserGameStat
	if err := scanStat(r.db.Pool.QueryRow(ctx, q, userID, gameID), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storage(err)
	}
	return &s, nil
}

// Insert stores a new row and refuses to touch an existing one.
func (r *StatsRepo) Insert(ctx context.Context, s model.UserGameStat) (*model.UserGameStat, error) {
	const q = `
INSERT INTO user_game_stats (user_id, game_id, achievements, hours_played, finished, score, review)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + statsColumns
	var out model.UserGameStat
	err := scanStat(r.db.Pool.QueryRow(ctx, q,
		s.UserID, s.GameID, s.Achievements, s.HoursPlayed, s.Finished, s.Score, s.Review), &out)
	switch {
	case err == nil:
		return &out, nil
	case isUniqueViolation(err):
		return nil, errs.ErrConflict
	case isForeignKeyViolation(err):
		return nil, errs.ErrMissingReference
	default:
		return nil, storage(err)
	}
}

// Upsert writes the row for (user, game), replacing every stats field if it exists.
func (r *StatsRepo) Upsert(ctx context.Context, s model.UserGameStat) (*model.UserGameStat, error) {
	const q = `
INSERT INTO user_game_stats (user_id, game_id, achievements, hours_played, finished, score, review)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, game_id) DO UPDATE
SET
  achievements = EXCLUDED.achievements,
  hours_played = EXCLUDED.hours_played,
  finished = EXCLUDED.finished,
  score = EXCLUDED.score,
  review = EXCLUDED.review,
  updated_at = now()
RETURNING ` + statsColumns
	var out model.UserGameStat
	err := scanStat(r.db.Pool.QueryRow(ctx, q,
		s.UserID, s.GameID, s.Achievements, s.HoursPlayed, s.Finished, s.Score, s.Review), &out)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, errs.ErrMissingReference
		}
		return nil, storage(err)
	}
	return &out, nil
}

// ListByUser pages through one user's rows.
func (r *StatsRepo) ListByUser(ctx context.Context, userID int64, p model.Page) ([]model.UserGameStat, int64, error) {
	const q = `
SELECT ` + statsColumns + `, COUNT(*) OVER() AS total
FROM user_game_stats
WHERE user_id=$1
ORDER BY game_id ASC
LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, storage(err)
	}
	defer rows.Close()

	var (
		out   []model.UserGameStat
		total int64
	)
	for rows.Next() {
		var s model.UserGameStat
		if err = rows.Scan(&s.UserID, &s.GameID, &s.Achievements, &s.HoursPlayed, &s.Finished,
			&s.Score, &s.Review, &s.UpdatedAt, &total); err != nil {
			return nil, 0, storage(err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, storage(err)
	}
	return out, total, nil
}

// ListPlayed joins the user's rows with their games.
func (r *StatsRepo) ListPlayed(ctx context.Context, userID int64) ([]model.CatalogEntry, error) {
	const q = `
SELECT g.id, g.title, g.description, g.price, g.developer, g.release_date, g.image, g.banner_image, g.average_reviews, g.tags,
  s.achievements, s.hours_played, s.finished, s.score, s.review, s.updated_at
FROM user_game_stats s
JOIN games g ON g.id = s.game_id
WHERE s.user_id = $1
ORDER BY s.score DESC, s.hours_played DESC, g.id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var out []model.CatalogEntry
	for rows.Next() {
		var (
			g model.Game
			s = model.UserGameStat{UserID: userID}
		)
		if err = rows.Scan(&g.ID, &g.Title, &g.Description, &g.Price, &g.Developer, &g.ReleaseDate,
			&g.Image, &g.BannerImage, &g.AverageReviews, &g.Tags,
			&s.Achievements, &s.HoursPlayed, &s.Finished, &s.Score, &s.Review, &s.UpdatedAt); err != nil {
			return nil, storage(err)
		}
		s.GameID = g.ID
		out = append(out, model.CatalogEntry{Game: g, Stats: &s})
	}
	if err = rows.Err(); err != nil {
		return nil, storage(err)
	}
	return out, nil
}

// TopRated returns per-game rating count, mean and median, best mean first.
// Games with fewer than minRatings rows are left out.
func (r *StatsRepo) TopRated(ctx context.Context, limit, minRatings int) ([]model.TopRatedGame, error) {
	const q = `
SELECT
  g.id,
  g.title,
  g.developer,
  COUNT(s.user_id) AS ratings_count,
  AVG(s.score) AS average_score,
  PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY s.score) AS median_score
FROM games g
JOIN user_game_stats s ON g.id = s.game_id
GROUP BY g.id
HAVING COUNT(s.user_id) >= $2
ORDER BY average_score DESC, g.id ASC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit, minRatings)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var out []model.TopRatedGame
	for rows.Next() {
		var t model.TopRatedGame
		if err = rows.Scan(&t.ID, &t.Title, &t.Developer, &t.RatingsCount, &t.AverageScore, &t.MedianScore); err != nil {
			return nil, storage(err)
		}
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, storage(err)
	}
	return out, nil
}
