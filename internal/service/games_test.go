package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/and161185/gamestats/internal/repository"
	"github.com/stretchr/testify/require"
)

type fakeGames struct {
	byID   map[int64]*model.Game
	nextID int64

	err error

	lastPage   model.Page
	lastSearch string
	updates    int
}

var _ repository.GameRepository = (*fakeGames)(nil)

func newFakeGames() *fakeGames { return &fakeGames{byID: map[int64]*model.Game{}} }

func (f *fakeGames) Create(_ context.Context, g model.Game) (*model.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	g.ID = f.nextID
	f.byID[g.ID] = &g
	c := g
	return &c, nil
}

func (f *fakeGames) Get(_ context.Context, id int64) (*model.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (f *fakeGames) Update(_ context.Context, id int64, u model.GameUpdate) (*model.Game, error) {
	f.updates++
	g, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if u.Title != nil {
		g.Title = *u.Title
	}
	if u.Price != nil {
		g.Price = *u.Price
	}
	if u.Tags != nil {
		g.Tags = u.Tags
	}
	c := *g
	return &c, nil
}

func (f *fakeGames) DeleteCascade(_ context.Context, id int64) (*model.Game, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	delete(f.byID, id)
	return g, nil
}

func (f *fakeGames) ListForUser(_ context.Context, _ int64, search string, p model.Page) ([]model.CatalogEntry, int64, error) {
	f.lastPage, f.lastSearch = p, search
	if f.err != nil {
		return nil, 0, f.err
	}
	out := make([]model.CatalogEntry, 0, len(f.byID))
	for _, g := range f.byID {
		out = append(out, model.CatalogEntry{Game: *g})
	}
	return out, int64(len(out)), nil
}

func TestGames_Create_Defaults(t *testing.T) {
	t.Parallel()
	s := NewGameService(newFakeGames())

	_, err := s.Create(context.Background(), model.Game{Title: "   "})
	require.ErrorIs(t, err, errs.ErrValidation)

	g, err := s.Create(context.Background(), model.Game{Title: " Hades ", Price: "25$"})
	require.NoError(t, err)
	require.Equal(t, int64(1), g.ID)
	require.Equal(t, "Hades", g.Title)
	require.Equal(t, "25$", g.Price)
	require.Equal(t, model.DefaultDescription, g.Description)
	require.Equal(t, model.DefaultDeveloper, g.Developer)
	require.Equal(t, model.DefaultImage, g.Image)
	require.Equal(t, model.DefaultImage, g.BannerImage)
	require.Equal(t, model.DefaultAvgReviews, g.AverageReviews)
	require.Equal(t, []string{"Unknown"}, g.Tags)

	g.Tags[0] = "mutated"
	require.Equal(t, []string{"Unknown"}, model.DefaultTags)
}

func TestGames_GetUpdateDelete(t *testing.T) {
	t.Parallel()
	repo := newFakeGames()
	s := NewGameService(repo)
	ctx := context.Background()

	g, err := s.Create(ctx, model.Game{Title: "Celeste"})
	require.NoError(t, err)

	_, err = s.Get(ctx, 0)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.Get(ctx, 99)
	require.ErrorIs(t, err, errs.ErrNotFound)

	empty := ""
	_, err = s.Update(ctx, g.ID, model.GameUpdate{Title: &empty})
	require.ErrorIs(t, err, errs.ErrValidation)

	same, err := s.Update(ctx, g.ID, model.GameUpdate{})
	require.NoError(t, err)
	require.Equal(t, "Celeste", same.Title)
	require.Zero(t, repo.updates)

	price := "5$"
	upd, err := s.Update(ctx, g.ID, model.GameUpdate{Price: &price})
	require.NoError(t, err)
	require.Equal(t, "5$", upd.Price)
	require.Equal(t, "Celeste", upd.Title)

	_, err = s.Update(ctx, 99, model.GameUpdate{Price: &price})
	require.ErrorIs(t, err, errs.ErrNotFound)

	del, err := s.Delete(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, g.ID, del.ID)

	_, err = s.Delete(ctx, g.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.Delete(ctx, -1)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGames_ListForUser_Page(t *testing.T) {
	t.Parallel()
	repo := newFakeGames()
	s := NewGameService(repo)

	_, _, p, err := s.ListForUser(context.Background(), 1, "so", model.Page{Page: 0, Limit: 500})
	require.NoError(t, err)
	require.Equal(t, model.Page{Page: 1, Limit: MaxPageLimit}, p)
	require.Equal(t, p, repo.lastPage)
	require.Equal(t, "so", repo.lastSearch)

	repo.err = errors.New("boom")
	_, _, _, err = s.ListForUser(context.Background(), 1, "", model.Page{})
	require.Error(t, err)
	require.Equal(t, model.Page{Page: 1, Limit: DefaultPageLimit}, repo.lastPage)
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, want model.Page
	}{
		{model.Page{}, model.Page{Page: 1, Limit: DefaultPageLimit}},
		{model.Page{Page: -3, Limit: -1}, model.Page{Page: 1, Limit: DefaultPageLimit}},
		{model.Page{Page: 4, Limit: 10}, model.Page{Page: 4, Limit: 10}},
		{model.Page{Page: 2, Limit: 101}, model.Page{Page: 2, Limit: MaxPageLimit}},
		{model.Page{Page: math.MaxInt, Limit: 100}, model.Page{Page: MaxPage, Limit: MaxPageLimit}},
	}
	for _, c := range cases {
		got := NormalizePage(c.in)
		require.Equal(t, c.want, got)
		require.GreaterOrEqual(t, got.Offset(), 0)
	}
}
