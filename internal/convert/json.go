// Package convert maps domain models to and from the JSON payloads of the HTTP API.
package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
)

// dateLayout is the wire format of release dates.
const dateLayout = "2006-01-02"

// --- helpers ---

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: releaseDate %q is not a date", errs.ErrValidation, v)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- Auth ---

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ToLoginResponse builds the login reply.
func ToLoginResponse(tok model.Tokens, u model.User) LoginResponse {
	return LoginResponse{Token: tok.AccessToken, UserID: u.ID, ExpiresAt: tok.ExpiresAt}
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// --- Games ---

// GameRequest is the body of POST and PUT /games. Absent fields are nil.
type GameRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Price          *string  `json:"price"`
	Developer      *string  `json:"developer"`
	ReleaseDate    *string  `json:"releaseDate"`
	Image          *string  `json:"image"`
	BannerImage    *string  `json:"bannerImage"`
	AverageReviews *string  `json:"averageReviews"`
	Tags           []string `json:"tags"`
}

// FromGameRequest converts a create request; defaults are applied by the service.
func FromGameRequest(r GameRequest) (model.Game, error) {
	rd, err := parseDate(r.ReleaseDate)
	if err != nil {
		return model.Game{}, err
	}
	return model.Game{
		Title:          deref(r.Title),
		Description:    deref(r.Description),
		Price:          deref(r.Price),
		Developer:      deref(r.Developer),
		ReleaseDate:    rd,
		Image:          deref(r.Image),
		BannerImage:    deref(r.BannerImage),
		AverageReviews: deref(r.AverageReviews),
		Tags:           r.Tags,
	}, nil
}

// FromGameUpdateRequest converts a partial update request.
func FromGameUpdateRequest(r GameRequest) (model.GameUpdate, error) {
	rd, err := parseDate(r.ReleaseDate)
	if err != nil {
		return model.GameUpdate{}, err
	}
	return model.GameUpdate{
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		Developer:      r.Developer,
		ReleaseDate:    rd,
		Image:          r.Image,
		BannerImage:    r.BannerImage,
		AverageReviews: r.AverageReviews,
		Tags:           r.Tags,
	}, nil
}

// GameResponse is the wire form of a game.
type GameResponse struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Price          string   `json:"price"`
	Developer      string   `json:"developer"`
	ReleaseDate    *string  `json:"releaseDate"`
	Image          string   `json:"image"`
	BannerImage    string   `json:"bannerImage"`
	AverageReviews string   `json:"averageReviews"`
	Tags           []string `json:"tags"`
}

// ToGameResponse converts a domain game.
func ToGameResponse(g model.Game) GameResponse {
	tags := g.Tags
	if tags == nil {
		tags = []string{}
	}
	return GameResponse{
		ID:             g.ID,
		Title:          g.Title,
		Description:    g.Description,
		Price:          g.Price,
		Developer:      g.Developer,
		ReleaseDate:    formatDate(g.ReleaseDate),
		Image:          g.Image,
		BannerImage:    g.BannerImage,
		AverageReviews: g.AverageReviews,
		Tags:           tags,
	}
}

// --- Stats ---

// StatsRequest is the body of the stats write endpoints. Numbers must be JSON numbers;
// UserID is only read by the unauthenticated create endpoint.
type StatsRequest struct {
	UserID       *int64   `json:"userId"`
	Achievements *int64   `json:"achievements"`
	HoursPlayed  *int64   `json:"hoursPlayed"`
	Finished     *bool    `json:"finished"`
	Score        *float64 `json:"score"`
	Review       *string  `json:"review"`
}

// FromStatsRequest builds service input for (userID, gameID).
func FromStatsRequest(r StatsRequest, userID, gameID int64) model.StatsInput {
	return model.StatsInput{
		UserID:       userID,
		GameID:       gameID,
		Achievements: r.Achievements,
		HoursPlayed:  r.HoursPlayed,
		Finished:     r.Finished,
		Score:        r.Score,
		Review:       r.Review,
	}
}

// StatsResponse is the wire form of a stats row. UpdatedAt is omitted for the default view.
type StatsResponse struct {
	UserID       int64      `json:"userId"`
	GameID       int64      `json:"gameId"`
	Achievements int64      `json:"achievements"`
	HoursPlayed  int64      `json:"hoursPlayed"`
	Finished     bool       `json:"finished"`
	Score        float64    `json:"score"`
	Review       string     `json:"review"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// ToStatsResponse converts a stats row.
func ToStatsResponse(s model.UserGameStat) StatsResponse {
	out := StatsResponse{
		UserID:       s.UserID,
		GameID:       s.GameID,
		Achievements: s.Achievements,
		HoursPlayed:  s.HoursPlayed,
		Finished:     s.Finished,
		Score:        s.Score,
		Review:       s.Review,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// ToStatsResponses converts a slice of stats rows.
func ToStatsResponses(in []model.UserGameStat) []StatsResponse {
	out := make([]StatsResponse, 0, len(in))
	for _, s := range in {
		out = append(out, ToStatsResponse(s))
	}
	return out
}

// CatalogEntryResponse is a game with the caller's stats, null when unplayed.
type CatalogEntryResponse struct {
	GameResponse
	Stats *StatsResponse `json:"stats"`
}

// ToCatalogResponses converts joined catalog rows.
func ToCatalogResponses(in []model.CatalogEntry) []CatalogEntryResponse {
	out := make([]CatalogEntryResponse, 0, len(in))
	for _, e := range in {
		r := CatalogEntryResponse{GameResponse: ToGameResponse(e.Game)}
		if e.Stats != nil {
			s := ToStatsResponse(*e.Stats)
			r.Stats = &s
		}
		out = append(out, r)
	}
	return out
}

// TopRatedResponse is one leaderboard row.
type TopRatedResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Developer    string  `json:"developer"`
	RatingsCount int64   `json:"ratingsCount"`
	AverageScore float64 `json:"averageScore"`
	MedianScore  float64 `json:"medianScore"`
}

// ToTopRatedResponses converts leaderboard rows.
func ToTopRatedResponses(in []model.TopRatedGame) []TopRatedResponse {
	out := make([]TopRatedResponse, 0, len(in))
	for _, g := range in {
		out = append(out, TopRatedResponse(g))
	}
	return out
}

// PageResponse wraps one page of a listing.
type PageResponse[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ToPage wraps items with the applied page and the total match count.
func ToPage[T any](items []T, p model.Page, total int64) PageResponse[T] {
	return PageResponse[T]{Items: items, Page: p.Page, Limit: p.Limit, Total: total}
}
