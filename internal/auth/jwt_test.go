package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, Init())
}

func TestGenerateAndValidateToken(t *testing.T) {
	initTestSecret(t)

	token, err := GenerateToken("user-1", "ana@fazenda.com", "Ana")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@fazenda.com", claims.Email)
	assert.Equal(t, "Ana", claims.Nome)
}

func TestValidateToken_Garbage(t *testing.T) {
	initTestSecret(t)

	_, err := ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTMiddleware_RejectsMissingToken(t *testing.T) {
	initTestSecret(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})
	rec := httptest.NewRecorder()
	JWTMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lancamentos", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_SkipsPublicPaths(t *testing.T) {
	initTestSecret(t)

	for _, path := range []string{"/health", "/api/login"} {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		rec := httptest.NewRecorder()
		JWTMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.True(t, called, path)
	}
}

func TestJWTMiddleware_PassesClaimsToHandler(t *testing.T) {
	initTestSecret(t)

	token, err := GenerateToken("user-2", "joao@fazenda.com", "João")
	require.NoError(t, err)

	var got *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/lancamentos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	JWTMiddleware(next).ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, "user-2", got.UserID)
}

func TestGetClaimsFromContext_Empty(t *testing.T) {
	_, err := GetClaimsFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoClaims)
}
