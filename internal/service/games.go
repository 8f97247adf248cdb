package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/and161185/gamestats/internal/repository"
)

// Paging limits shared by the listing endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit inside an int32 offset.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// GameService defines operations over the games catalog.
type GameService interface {
	// Create validates and stores a game, filling in catalog defaults.
	Create(ctx context.Context, g model.Game) (*model.Game, error)
	// Get returns a game by id.
	Get(ctx context.Context, id int64) (*model.Game, error)
	// Update applies a partial update.
	Update(ctx context.Context, id int64, u model.GameUpdate) (*model.Game, error)
	// Delete removes a game together with all of its stats.
	Delete(ctx context.Context, id int64) (*model.Game, error)
	// ListForUser pages through the catalog with the caller's stats attached.
	ListForUser(ctx context.Context, userID int64, search string, p model.Page) ([]model.CatalogEntry, int64, model.Page, error)
}

type GameServiceImpl struct {
	repo repository.GameRepository
}

// NewGameService constructs GameService.
func NewGameService(repo repository.GameRepository) *GameServiceImpl {
	return &GameServiceImpl{repo: repo}
}

// Create requires a title; every other field falls back to the catalog placeholder.
func (s *GameServiceImpl) Create(ctx context.Context, g model.Game) (*model.Game, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return nil, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	orDefault(&g.Description, model.DefaultDescription)
	orDefault(&g.Price, model.DefaultPrice)
	orDefault(&g.Developer, model.DefaultDeveloper)
	orDefault(&g.Image, model.DefaultImage)
	orDefault(&g.BannerImage, model.DefaultImage)
	orDefault(&g.AverageReviews, model.DefaultAvgReviews)
	if len(g.Tags) == 0 {
		g.Tags = append([]string(nil), model.DefaultTags...)
	}
	return s.repo.Create(ctx, g)
}

func orDefault(v *string, def string) {
	if strings.TrimSpace(*v) == "" {
		*v = def
	}
}

// Get fetches a single game.
func (s *GameServiceImpl) Get(ctx context.Context, id int64) (*model.Game, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Update rejects blanking the title; an empty update returns the stored game.
func (s *GameServiceImpl) Update(ctx context.Context, id int64, u model.GameUpdate) (*model.Game, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", errs.ErrValidation)
	}
	if u.Empty() {
		return s.repo.Get(ctx, id)
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes the game and its stats atomically.
func (s *GameServiceImpl) Delete(ctx context.Context, id int64) (*model.Game, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	return s.repo.DeleteCascade(ctx, id)
}

// ListForUser returns one page and the page actually applied after normalisation.
func (s *GameServiceImpl) ListForUser(
	ctx context.Context, userID int64, search string, p model.Page,
) ([]model.CatalogEntry, int64, model.Page, error) {
	p = NormalizePage(p)
	out, total, err := s.repo.ListForUser(ctx, userID, search, p)
	if err != nil {
		return nil, 0, p, err
	}
	return out, total, p, nil
}

// NormalizePage clamps a requested page into the supported range.
func NormalizePage(p model.Page) model.Page {
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}
