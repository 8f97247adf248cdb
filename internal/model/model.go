// Package model defines domain entities used by services and repositories.
package model

import "time"

// Placeholder values applied when a client omits optional fields.
const (
	DefaultReview      = "No stats yet"
	DefaultImage       = "/images/placeholder.jpg"
	DefaultDescription = "No description available."
	DefaultDeveloper   = "Unknown"
	DefaultPrice       = "10$"
	DefaultAvgReviews  = "0"
)

// DefaultTags is applied to games created without tags.
var DefaultTags = []string{"Unknown"}

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Identity is the authenticated caller decoded from a verified token.
// It lives in the request context only.
type Identity struct {
	UserID   int64
	Username string
}

// User represents a credential record. Passwords are never stored in plaintext.
type User struct {
	ID        int64  // PK
	Username  string // unique
	Email     string // optional
	PwdHash   string // encoded argon2id or bcrypt hash
	CreatedAt time.Time
}

// Game is a catalog entry.
type Game struct {
	ID             int64
	Title          string
	Description    string
	Price          string
	Developer      string
	ReleaseDate    *time.Time
	Image          string
	BannerImage    string
	AverageReviews string
	Tags           []string
}

// GameUpdate is a partial update; nil fields keep their stored value.
type GameUpdate struct {
	Title          *string
	Description    *string
	Price          *string
	Developer      *string
	ReleaseDate    *time.Time
	Image          *string
	BannerImage    *string
	AverageReviews *string
	Tags           []string
}

// Empty reports whether the update changes nothing.
func (u GameUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.Developer == nil &&
		u.ReleaseDate == nil && u.Image == nil && u.BannerImage == nil &&
		u.AverageReviews == nil && u.Tags == nil
}

// UserGameStat is the per-(user, game) play record. At most one exists per pair.
type UserGameStat struct {
	UserID       int64
	GameID       int64
	Achievements int64
	HoursPlayed  int64
	Finished     bool
	Score        float64
	Review       string
	UpdatedAt    time.Time
}

// DefaultStats is the view returned for a pair that has no stored row.
func DefaultStats(userID, gameID int64) UserGameStat {
	return UserGameStat{UserID: userID, GameID: gameID, Review: DefaultReview}
}

// StatsInput is an unvalidated stats write. Required numerics are pointers so that
// absence can be told apart from zero.
type StatsInput struct {
	UserID       int64
	GameID       int64
	Achievements *int64
	HoursPlayed  *int64
	Finished     *bool
	Score        *float64
	Review       *string
}

// TopRatedGame is one leaderboard row.
type TopRatedGame struct {
	ID           int64
	Title        string
	Developer    string
	RatingsCount int64
	AverageScore float64
	MedianScore  float64
}

// CatalogEntry is a game joined with the caller's stats; Stats is nil when unplayed.
type CatalogEntry struct {
	Game  Game
	Stats *UserGameStat
}

// Page selects a window of a listing.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page (pages start at 1).
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
