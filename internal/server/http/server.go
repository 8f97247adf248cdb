// Package httpserver exposes the games and statistics HTTP API.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/and161185/gamestats/internal/convert"
	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/and161185/gamestats/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires services into gin handlers.
type Server struct {
	auth  service.AuthService
	games service.GameService
	stats service.StatsService
	db    Pinger
	log   *zap.Logger
}

// New constructs the HTTP server with injected services.
func New(auth service.AuthService, games service.GameService, stats service.StatsService, db Pinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, games: games, stats: stats, db: db, log: log}
}

// Handler builds the gin engine with middleware and all routes.
func (s *Server) Handler(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(s.log), Recover(s.log), CORS(corsOrigins))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not_found", "Route not found"))
	})

	r.GET("/health", s.health)

	api := r.Group("/api")
	bearer := RequireAuth(s.auth, s.log)

	api.POST("/login", s.login)
	api.POST("/logout", s.logout)

	api.GET("/games", bearer, s.listGames)
	api.GET("/games/top-rated", s.topRated)
	api.GET("/games/:id", s.getGame)
	api.POST("/games", s.createGame)
	api.PUT("/games/:id", s.updateGame)
	api.DELETE("/games/:id", s.deleteGame)

	api.POST("/games/:id/stats", s.createStats)
	api.PUT("/games/:id/stats", bearer, s.upsertStats)

	api.GET("/user-stats", s.listUserStats)
	api.GET("/user-stats/:gameId", bearer, s.getStats)
	api.GET("/user-statistics", bearer, s.listPlayed)

	return r
}

// NewHTTPServer wraps the handler in an http.Server with conservative timeouts.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) fail(c *gin.Context, err error) { abortWithError(c, s.log, err) }

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health: ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Auth ---

func (s *Server) login(c *gin.Context) {
	var req convert.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: malformed login body", errs.ErrValidation))
		return
	}
	tok, u, err := s.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToLoginResponse(tok, u))
}

func (s *Server) logout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.MessageResponse{Message: "Logout successful"})
}

// --- Games ---

func (s *Server) listGames(c *gin.Context) {
	id, _ := IdentityFromCtx(c.Request.Context())
	entries, total, p, err := s.games.ListForUser(c.Request.Context(), id.UserID, c.Query("search"), pageFromQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToPage(convert.ToCatalogResponses(entries), p, total))
}

func (s *Server) getGame(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		s.fail(c, errs.ErrNotFound)
		return
	}
	g, err := s.games.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToGameResponse(*g))
}

func (s *Server) createGame(c *gin.Context) {
	var req convert.GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: malformed game body", errs.ErrValidation))
		return
	}
	in, err := convert.FromGameRequest(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := s.games.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToGameResponse(*g))
}

func (s *Server) updateGame(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		s.fail(c, errs.ErrNotFound)
		return
	}
	var req convert.GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: malformed game body", errs.ErrValidation))
		return
	}
	upd, err := convert.FromGameUpdateRequest(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := s.games.Update(c.Request.Context(), id, upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToGameResponse(*g))
}

func (s *Server) deleteGame(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		s.fail(c, errs.ErrNotFound)
		return
	}
	g, err := s.games.Delete(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToGameResponse(*g))
}

func (s *Server) topRated(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := s.stats.TopRated(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToTopRatedResponses(rows))
}

// --- Stats ---

// createStats is the unauthenticated first write; the user comes from the body.
func (s *Server) createStats(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		s.fail(c, errs.ErrNotFound)
		return
	}
	var req convert.StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.ErrInvalidStatsFormat)
		return
	}
	var userID int64
	if req.UserID != nil {
		userID = *req.UserID
	}
	st, err := s.stats.Create(c.Request.Context(), convert.FromStatsRequest(req, userID, gameID))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToStatsResponse(*st))
}

// upsertStats saves progress for the caller; a userId in the body is ignored.
func (s *Server) upsertStats(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		s.fail(c, errs.ErrNotFound)
		return
	}
	var req convert.StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.ErrInvalidStatsFormat)
		return
	}
	id, _ := IdentityFromCtx(c.Request.Context())
	st, err := s.stats.Upsert(c.Request.Context(), convert.FromStatsRequest(req, id.UserID, gameID))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToStatsResponse(*st))
}

func (s *Server) getStats(c *gin.Context) {
	gameID, ok := pathID(c, "gameId")
	if !ok {
		s.fail(c, fmt.Errorf("%w: bad game id", errs.ErrValidation))
		return
	}
	id, _ := IdentityFromCtx(c.Request.Context())
	st, err := s.stats.Get(c.Request.Context(), id.UserID, gameID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToStatsResponse(st))
}

func (s *Server) listUserStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		s.fail(c, fmt.Errorf("%w: userId query parameter is required", errs.ErrValidation))
		return
	}
	rows, total, p, err := s.stats.ListByUser(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToPage(convert.ToStatsResponses(rows), p, total))
}

func (s *Server) listPlayed(c *gin.Context) {
	id, _ := IdentityFromCtx(c.Request.Context())
	entries, err := s.stats.ListPlayed(c.Request.Context(), id.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToCatalogResponses(entries))
}

// --- helpers ---

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageFromQuery reads page and limit; bad values become zero and are
// normalised by the services.
func pageFromQuery(c *gin.Context) model.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return model.Page{Page: page, Limit: limit}
}
