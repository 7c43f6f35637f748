package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeValidator(ctx context.Context, token string) (*Claims, error) {
	if token == "good" {
		return &Claims{UserID: "user-1", Email: "ana@example.com", TokenID: "tok-1"}, nil
	}
	return nil, errors.New("bad token")
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := UserIDFromContext(r.Context())
		if id == "" {
			id = "anonymous"
		}
		_, _ = w.Write([]byte(id))
	})
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no header is anonymous", "", http.StatusOK, "anonymous"},
		{"valid bearer", "Bearer good", http.StatusOK, "user-1"},
		{"case-insensitive scheme", "bearer good", http.StatusOK, "user-1"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"rejected token", "Bearer expired", http.StatusUnauthorized, ""},
	}

	h := Authenticate(fakeValidator)(echoUser())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &Claims{UserID: "user-9"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", rec.Body.String())
}

func TestClaimsFromContext_Anonymous(t *testing.T) {
	assert.Nil(t, ClaimsFromContext(context.Background()))
	assert.Empty(t, UserIDFromContext(context.Background()))
}
