// Package service contains application services for authentication, the games catalog
// and per-user game statistics.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgcrypto "github.com/and161185/gamestats/internal/crypto"
	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/limiter"
	"github.com/and161185/gamestats/internal/model"
	"github.com/and161185/gamestats/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session token lifetime.
const DefaultTokenTTL = 2 * time.Hour

// tokenLeeway tolerates clock skew between issuer and verifier.
const tokenLeeway = 30 * time.Second

// dummyHash is verified against for unknown usernames so both failure paths
// spend the same Argon2id work.
var dummyHash = sync.OnceValue(func() string {
	h, err := pkgcrypto.HashPassword("gamestats-dummy-password")
	if err != nil {
		panic(err)
	}
	return h
})

// AuthService defines credential issuing and verification.
type AuthService interface {
	// Register creates a credential record with a salted password hash.
	Register(ctx context.Context, username, email, password string) (int64, error)
	// Login applies rate-limiting and authenticates the user.
	Login(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error)
	// Verify decodes a bearer token into the caller identity.
	Verify(token string) (model.Identity, error)
	// Logout is a no-op: tokens are stateless and expire on their own.
	Logout(ctx context.Context) error
}

// Claims is the signed session token payload.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	verify    func(password, encoded string) (bool, error)
}

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables login rate limiting.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{
		users:     users,
		signKey:   signKey,
		accessTTL: accessTTL,
		lim:       lim,
		verify:    pkgcrypto.VerifyPassword,
	}
}

// Register creates a new user record.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return 0, err
	}
	return s.users.Create(ctx, &model.User{Username: username, Email: strings.TrimSpace(email), PwdHash: hash})
}

// Login authenticates with rate limiting by (username, ip).
// Unknown users and wrong passwords yield the same errs.ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.User{}, err
	}
	ok := false
	if u != nil {
		// A stored hash in an unknown format counts as a mismatch.
		ok, _ = s.verify(password, u.PwdHash)
	} else {
		_, _ = s.verify(password, dummyHash())
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		return model.Tokens{}, model.User{}, errs.ErrInvalidCredentials
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	tok, err := s.issueAccessToken(u.ID, u.Username)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// issueAccessToken creates a signed HS256 JWT carrying the user id and username.
func (s *AuthServiceImpl) issueAccessToken(userID int64, username string) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm and expiry of a token.
func (s *AuthServiceImpl) Verify(token string) (model.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Identity{}, errs.ErrAuthRequired
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tokenLeeway),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, errs.ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return model.Identity{}, errs.ErrInvalidToken
	}
	return model.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// Logout always succeeds. The client is responsible for discarding its token,
// which stays valid until it expires.
func (s *AuthServiceImpl) Logout(context.Context) error { return nil }
