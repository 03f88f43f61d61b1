package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"jobportal/internal/auth"
	"jobportal/internal/errcode"
)

type stubTokens struct {
	claims *auth.TokenClaims
	err    error
}

func (s stubTokens) ValidateToken(string) (*auth.TokenClaims, error) { return s.claims, s.err }

type stubResolver struct {
	identity auth.Identity
	err      error
}

func (s stubResolver) Resolve(context.Context, uint) (auth.Identity, error) {
	return s.identity, s.err
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		identity, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"role": identity.Role, "cid": GetCorrelationID(c)})
	})
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func accessClaims(userID uint) *auth.TokenClaims {
	return &auth.TokenClaims{UserID: userID, TokenType: auth.TokenTypeAccess}
}

func TestAuthMiddleware(t *testing.T) {
	seeker := auth.Identity{ID: 7, Role: auth.RoleJobSeeker}

	tests := []struct {
		name     string
		header   string
		tokens   stubTokens
		resolver stubResolver
		want     int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", tokens: stubTokens{err: errors.New("bad")}, want: http.StatusUnauthorized},
		{
			name:   "refresh token rejected",
			header: "Bearer abc",
			tokens: stubTokens{claims: &auth.TokenClaims{UserID: 7, TokenType: auth.TokenTypeRefresh}},
			want:   http.StatusUnauthorized,
		},
		{
			name:     "deleted user",
			header:   "Bearer abc",
			tokens:   stubTokens{claims: accessClaims(7)},
			resolver: stubResolver{err: errcode.New(errcode.NotFound, "user not found")},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "lookup failure",
			header:   "Bearer abc",
			tokens:   stubTokens{claims: accessClaims(7)},
			resolver: stubResolver{err: errors.New("connection reset")},
			want:     http.StatusServiceUnavailable,
		},
		{
			name:     "ok",
			header:   "bearer abc",
			tokens:   stubTokens{claims: accessClaims(7)},
			resolver: stubResolver{identity: seeker},
			want:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(AuthMiddleware(tt.tokens, tt.resolver))
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := serve(r, headers)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"role":"jobseeker"`)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	with := func(identity auth.Identity) gin.HandlerFunc {
		return func(c *gin.Context) { SetIdentity(c, identity) }
	}

	w := serve(newEngine(RequireRoles(auth.RoleEmployer)), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(newEngine(with(auth.Identity{ID: 1, Role: auth.RoleJobSeeker}), RequireRoles(auth.RoleEmployer, auth.RoleAdmin)), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "user role jobseeker is not authorized")

	w = serve(newEngine(with(auth.Identity{ID: 1, Role: auth.RoleAdmin}), RequireRoles(auth.RoleEmployer, auth.RoleAdmin)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsTokenMiddleware(t *testing.T) {
	open := newEngine(MetricsTokenMiddleware(""))
	assert.Equal(t, http.StatusOK, serve(open, nil).Code)

	guarded := newEngine(MetricsTokenMiddleware("s3cret"))
	assert.Equal(t, http.StatusUnauthorized, serve(guarded, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(guarded, map[string]string{"Authorization": "Bearer nope"}).Code)
	assert.Equal(t, http.StatusOK, serve(guarded, map[string]string{"Authorization": "Bearer s3cret"}).Code)
}

func TestCorrelationIDMiddleware(t *testing.T) {
	r := newEngine(CorrelationIDMiddleware())

	w := serve(r, map[string]string{"X-Correlation-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
	assert.Contains(t, w.Body.String(), `"cid":"abc-123"`)

	w = serve(r, map[string]string{"X-Correlation-ID": strings.Repeat("x", 200)})
	generated := w.Header().Get("X-Correlation-ID")
	assert.Len(t, generated, 36)
}
