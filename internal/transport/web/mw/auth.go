package mw

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/EgorLis/asset-catalog/internal/auth"
	"github.com/EgorLis/asset-catalog/internal/domain"
)

type AuthDeps struct {
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

// identify проверяет Bearer-токен: подпись, срок, отзыв.
func (d AuthDeps) identify(r *http.Request) (domain.Identity, error) {
	raw := BearerToken(r)
	if raw == "" {
		return domain.Identity{}, domain.ErrUnauth
	}
	claims, err := d.Tokens.Parse(r.Context(), domain.Token(raw))
	if err != nil {
		return domain.Identity{}, domain.ErrUnauth
	}
	revoked, err := d.Blacklist.IsRevoked(r.Context(), claims.JTI)
	if err != nil {
		return domain.Identity{}, err
	}
	if revoked {
		return domain.Identity{}, domain.ErrUnauth
	}
	return domain.Identity{UserID: claims.UserID, Login: claims.Login, Role: claims.Role}, nil
}

// RequireRole пропускает запрос только если auth.Authorize разрешает роль.
func RequireRole(deps AuthDeps, role domain.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := deps.identify(r)
		if err == nil {
			err = auth.Authorize(id, role)
		}
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
		case errors.Is(err, domain.ErrForbidden):
			writeFail(w, http.StatusForbidden, domain.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrUnauth):
			writeFail(w, http.StatusUnauthorized, domain.ErrCodeUnauth, "unauthorized")
		default:
			writeFail(w, http.StatusInternalServerError, domain.ErrCodeUnexpected, "unexpected")
		}
	})
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// mw не может импортировать v1, поэтому конверт пишется здесь
func writeFail(w http.ResponseWriter, status, code int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.Fail(code, text))
}
