package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// TokenVerifier decodes bearer tokens into caller identities.
type TokenVerifier interface {
	Verify(token string) (model.Identity, error)
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(RequestIDHeader)
		if rid == "" || len(rid) > 64 {
			rid = uuid.Must(uuid.NewV4()).String()
		}
		c.Header(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), rid))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		// metadata only, never payloads
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", rid),
		)
	}
}

// Recover turns panics into a generic 500.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("route", c.FullPath()),
					zap.String("request_id", RequestIDFromCtx(c.Request.Context())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("internal_error", "Internal server error"))
			}
		}()
		c.Next()
	}
}

// CORS allows cross-origin requests from the listed origins. "*" allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originsSet := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false
	for _, o := range allowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
		originsSet[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := originsSet[origin]; ok || (anyOrigin && origin != "") {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+RequestIDHeader)
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequireAuth verifies "Authorization: Bearer <token>" and puts the caller identity
// into the request context. A missing header is errs.ErrAuthRequired, anything
// unparsable is errs.ErrInvalidToken.
func RequireAuth(v TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			abortWithError(c, log, errs.ErrAuthRequired)
			return
		}
		if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") || strings.TrimSpace(h[7:]) == "" {
			abortWithError(c, log, errs.ErrInvalidToken)
			return
		}

		id, err := v.Verify(strings.TrimSpace(h[7:]))
		if err != nil {
			abortWithError(c, log, err)
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
