package auth

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/asset-catalog/internal/auth/token"
	"github.com/EgorLis/asset-catalog/internal/domain"
)

type memBlacklist map[string]time.Time

func (b memBlacklist) Revoke(_ context.Context, jti string, exp time.Time) error {
	b[jti] = exp
	return nil
}

func (b memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := b[jti]
	return ok, nil
}

func TestLogoutRevokesToken(t *testing.T) {
	tm := token.New("secret", "asset-catalog", time.Hour)
	bl := memBlacklist{}
	h := &HandlerLogout{Log: log.New(io.Discard, "", 0), Tokens: tm, Blacklist: bl}

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /auth/{token}", h.Logout)

	tok, claims, err := tm.Issue(context.Background(), domain.Identity{Login: "admin", Role: domain.RoleAdmin})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/auth/"+string(tok), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, bl, claims.JTI)
	assert.JSONEq(t, `{"response":{"revoked":"`+claims.JTI+`"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/auth/garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
