package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/and161185/gamestats/internal/convert"
	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type verifierFunc func(string) (model.Identity, error)

func (f verifierFunc) Verify(tok string) (model.Identity, error) { return f(tok) }

func decodeError(t *testing.T, w *httptest.ResponseRecorder) convert.ErrorResponse {
	t.Helper()
	var body convert.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	v := verifierFunc(func(tok string) (model.Identity, error) {
		if tok == "good" {
			return model.Identity{UserID: 5, Username: "bob"}, nil
		}
		return model.Identity{}, errs.ErrInvalidToken
	})

	r := gin.New()
	r.GET("/p", RequireAuth(v, zaptest.NewLogger(t)), func(c *gin.Context) {
		id, ok := IdentityFromCtx(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "username": id.Username})
	})

	cases := []struct {
		name     string
		header   string
		status   int
		category string
	}{
		{"missing", "", http.StatusUnauthorized, "authentication_required"},
		{"not bearer", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "invalid_token"},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, "invalid_token"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"ok", "Bearer good", http.StatusOK, ""},
		{"ok lower", "bearer good", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.status, w.Code)
			if tc.category != "" {
				require.Equal(t, tc.category, decodeError(t, w).Error)
				return
			}
			require.JSONEq(t, `{"userId":5,"username":"bob"}`, w.Body.String())
		})
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RequestLogger(zaptest.NewLogger(t)))
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromCtx(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, w.Code)
	rid := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, rid)
	require.Equal(t, rid, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecover_CatchesPanic(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(Recover(zaptest.NewLogger(t)))
	r.GET("/panic", func(*gin.Context) { panic("oh no") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal_error", decodeError(t, w).Error)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	wild := gin.New()
	wild.Use(CORS([]string{"*"}))
	wild.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	wild.ServeHTTP(w, req)
	require.Equal(t, "http://evil.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusBadRequest, classify(errs.ErrInvalidStatsFormat).status)
	require.Equal(t, http.StatusNotFound, classify(errs.ErrNotFound).status)
	require.Equal(t, "Game not found", classify(errs.ErrNotFound).message)
	require.Equal(t, "User or game not found", classify(fmt.Errorf("insert: %w", errs.ErrMissingReference)).message)
	require.Equal(t, http.StatusConflict, classify(errs.ErrConflict).status)
	require.Equal(t, http.StatusTooManyRequests, classify(errs.ErrRateLimited).status)
	require.Equal(t, storageClass, classify(errs.ErrStorage))
	require.Equal(t, storageClass, classify(http.ErrHandlerTimeout))
}
