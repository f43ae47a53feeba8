package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const principalContextKey contextKey = "principal_id"

var ErrNoPrincipal = errors.New("principal not found in context")

// TokenParser проверяет токен ссылки веб-редактора.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// Authenticate принимает токен из заголовка Authorization: Bearer или из параметра token.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			principalID, err := tokens.Parse(raw)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipalID(r.Context(), principalID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func WithPrincipalID(ctx context.Context, principalID int64) context.Context {
	return context.WithValue(ctx, principalContextKey, principalID)
}

func GetPrincipalIDFromContext(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(principalContextKey).(int64)
	if !ok || id == 0 {
		return 0, ErrNoPrincipal
	}
	return id, nil
}
