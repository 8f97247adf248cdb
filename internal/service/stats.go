package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/and161185/gamestats/internal/repository"
)

// Leaderboard settings.
const (
	// MinRatings is the significance floor: games with fewer stats rows are not ranked.
	MinRatings          = 10
	DefaultTopRatedSize = 10
	MaxTopRatedSize     = 100
)

// StatsService defines the per-user, per-game statistics operations.
type StatsService interface {
	// Get returns the stats for (user, game) or the default view when none exist.
	Get(ctx context.Context, userID, gameID int64) (model.UserGameStat, error)
	// Create stores the first write for a pair; errs.ErrConflict if one exists.
	Create(ctx context.Context, in model.StatsInput) (*model.UserGameStat, error)
	// Upsert creates or replaces the stats for a pair.
	Upsert(ctx context.Context, in model.StatsInput) (*model.UserGameStat, error)
	// ListByUser pages through a user's stats rows.
	ListByUser(ctx context.Context, userID int64, p model.Page) ([]model.UserGameStat, int64, model.Page, error)
	// ListPlayed returns the games a user has stats for.
	ListPlayed(ctx context.Context, userID int64) ([]model.CatalogEntry, error)
	// TopRated returns the leaderboard.
	TopRated(ctx context.Context, limit int) ([]model.TopRatedGame, error)
}

type StatsServiceImpl struct {
	repo repository.StatsRepository
}

// NewStatsService constructs StatsService.
func NewStatsService(repo repository.StatsRepository) *StatsServiceImpl {
	return &StatsServiceImpl{repo: repo}
}

// Get never reports a missing row: absent stats read as zero values.
func (s *StatsServiceImpl) Get(ctx context.Context, userID, gameID int64) (model.UserGameStat, error) {
	st, err := s.repo.Get(ctx, userID, gameID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.DefaultStats(userID, gameID), nil
	}
	if err != nil {
		return model.UserGameStat{}, err
	}
	return *st, nil
}

// Create validates input before touching the store.
func (s *StatsServiceImpl) Create(ctx context.Context, in model.StatsInput) (*model.UserGameStat, error) {
	st, err := validateStats(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Insert(ctx, st)
}

// Upsert validates input before touching the store. Repeating the same call
// leaves exactly one row holding the latest values.
func (s *StatsServiceImpl) Upsert(ctx context.Context, in model.StatsInput) (*model.UserGameStat, error) {
	st, err := validateStats(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, st)
}

// validateStats rules:
// - user and game ids are positive
// - achievements, hoursPlayed and score are present
// - achievements and hoursPlayed are non-negative, score is finite
// - finished defaults to false, review to the placeholder
func validateStats(in model.StatsInput) (model.UserGameStat, error) {
	switch {
	case in.UserID <= 0:
		return model.UserGameStat{}, fmt.Errorf("%w: userId is required", errs.ErrInvalidStatsFormat)
	case in.GameID <= 0:
		return model.UserGameStat{}, fmt.Errorf("%w: bad game id", errs.ErrValidation)
	case in.Achievements == nil || in.HoursPlayed == nil || in.Score == nil:
		return model.UserGameStat{}, fmt.Errorf("%w: achievements, hoursPlayed and score are required", errs.ErrInvalidStatsFormat)
	case *in.Achievements < 0 || *in.HoursPlayed < 0:
		return model.UserGameStat{}, fmt.Errorf("%w: negative counter", errs.ErrInvalidStatsFormat)
	case math.IsNaN(*in.Score) || math.IsInf(*in.Score, 0):
		return model.UserGameStat{}, fmt.Errorf("%w: score is not a number", errs.ErrInvalidStatsFormat)
	}
	st := model.UserGameStat{
		UserID:       in.UserID,
		GameID:       in.GameID,
		Achievements: *in.Achievements,
		HoursPlayed:  *in.HoursPlayed,
		Score:        *in.Score,
		Review:       model.DefaultReview,
	}
	if in.Finished != nil {
		st.Finished = *in.Finished
	}
	if in.Review != nil {
		st.Review = *in.Review
	}
	return st, nil
}

// ListByUser returns one page of a user's rows.
func (s *StatsServiceImpl) ListByUser(
	ctx context.Context, userID int64, p model.Page,
) ([]model.UserGameStat, int64, model.Page, error) {
	p = NormalizePage(p)
	if userID <= 0 {
		return nil, 0, p, fmt.Errorf("%w: userId is required", errs.ErrValidation)
	}
	out, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, 0, p, err
	}
	return out, total, p, nil
}

// ListPlayed returns the user's played games, best score first.
func (s *StatsServiceImpl) ListPlayed(ctx context.Context, userID int64) ([]model.CatalogEntry, error) {
	return s.repo.ListPlayed(ctx, userID)
}

// TopRated clamps limit to [1, MaxTopRatedSize], defaulting to DefaultTopRatedSize.
func (s *StatsServiceImpl) TopRated(ctx context.Context, limit int) ([]model.TopRatedGame, error) {
	switch {
	case limit <= 0:
		limit = DefaultTopRatedSize
	case limit > MaxTopRatedSize:
		limit = MaxTopRatedSize
	}
	return s.repo.TopRated(ctx, limit, MinRatings)
}
