package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]int64

func (s stubParser) Parse(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func TestAuthenticate(t *testing.T) {
	var got int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetPrincipalIDFromContext(r.Context())
		require.NoError(t, err)
		got = id
		w.WriteHeader(http.StatusNoContent)
	})
	h := Authenticate(stubParser{"good": 42})(next)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer header", "Bearer good", "", http.StatusNoContent},
		{"query token", "", "?token=good", http.StatusNoContent},
		{"missing", "", "", http.StatusUnauthorized},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", "?token=good", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = 0
			req := httptest.NewRequest(http.MethodPost, "/webapp"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, int64(42), got)
			}
		})
	}
}

func TestGetPrincipalIDFromContext_Missing(t *testing.T) {
	_, err := GetPrincipalIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.ErrorIs(t, err, ErrNoPrincipal)
}
