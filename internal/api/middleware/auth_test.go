package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guardx/internal/common"
	"guardx/internal/common/security"
	"guardx/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]*model.User

func (s staticResolver) UserFromSubject(ctx context.Context, username string) (*model.User, error) {
	if u, ok := s[username]; ok {
		return u, nil
	}
	return nil, common.ErrUnauthorized
}

func newProtected(t *testing.T, tokens *security.TokenIssuer, users staticResolver, extra ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))
	r.Use(Authenticator(users))
	for _, mw := range extra {
		r.Use(mw)
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Username))
	})
	return r
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthenticator(t *testing.T) {
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Minute)
	users := staticResolver{"field_operator": {Username: "field_operator", Clearance: model.ClearanceSecret}}
	h := newProtected(t, tokens, users)

	valid, err := tokens.GenerateToken("field_operator")
	require.NoError(t, err)
	expired, err := tokens.GenerateTokenWithTTL("field_operator", -time.Minute)
	require.NoError(t, err)
	unknown, err := tokens.GenerateToken("removed_user")
	require.NoError(t, err)

	rr := do(h, valid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "field_operator", rr.Body.String())

	for name, token := range map[string]string{
		"missing": "",
		"expired": expired,
		"garbage": "abc.def.ghi",
		"unknown": unknown,
	} {
		t.Run(name, func(t *testing.T) {
			rr := do(h, token)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRequireClearance(t *testing.T) {
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Minute)
	users := staticResolver{
		"public":   {Username: "public", Clearance: model.ClearancePublic},
		"secret":   {Username: "secret", Clearance: model.ClearanceSecret},
		"top":      {Username: "top", Clearance: model.ClearanceTopSecret},
		"bogus":    {Username: "bogus", Clearance: "COSMIC"},
		"operator": {Username: "operator", Clearance: model.ClearanceSecret, Role: model.RoleOperator},
	}

	testCases := []struct {
		user     string
		required model.Clearance
		want     int
	}{
		{"public", model.ClearanceSecret, http.StatusForbidden},
		{"secret", model.ClearanceSecret, http.StatusOK},
		{"top", model.ClearanceSecret, http.StatusOK},
		{"secret", model.ClearanceTopSecret, http.StatusForbidden},
		{"bogus", model.ClearancePublic, http.StatusForbidden},
		{"top", "COSMIC", http.StatusForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.user+"/"+string(tc.required), func(t *testing.T) {
			h := newProtected(t, tokens, users, RequireClearance(tc.required))
			token, err := tokens.GenerateToken(tc.user)
			require.NoError(t, err)
			assert.Equal(t, tc.want, do(h, token).Code)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Minute)
	users := staticResolver{
		"admin":    {Username: "admin", Role: model.RoleAdmin, Clearance: model.ClearanceTopSecret},
		"operator": {Username: "operator", Role: model.RoleOperator, Clearance: model.ClearanceSecret},
	}
	h := newProtected(t, tokens, users, AdminOnly)

	adminToken, _ := tokens.GenerateToken("admin")
	operatorToken, _ := tokens.GenerateToken("operator")

	assert.Equal(t, http.StatusOK, do(h, adminToken).Code)
	rr := do(h, operatorToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "ADMIN ACCESS REQUIRED")
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/detect", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardDropsCredentials(t *testing.T) {
	h := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}
