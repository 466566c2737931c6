package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"docverify/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
	got    string
}

func (s *stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	s.got = token
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		header     string
		validator  *stubValidator
		wantStatus int
		wantClient string
	}{
		{"valid token", "Bearer good", &stubValidator{claims: &JWTClaims{ClientID: "loan-portal", JTI: "j1"}}, http.StatusOK, "loan-portal"},
		{"missing header", "", &stubValidator{}, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", &stubValidator{}, http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer  ", &stubValidator{}, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", &stubValidator{err: errors.New("invalid token")}, http.StatusUnauthorized, ""},
		{"token without client", "Bearer anon", &stubValidator{claims: &JWTClaims{JTI: "j2"}}, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var client string
			h := RequireAuth(tt.validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				client = requestcontext.ClientID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantClient, client)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"`+descriptionFor(tt.name)+`"}`, w.Body.String())
			}
		})
	}
}

func descriptionFor(name string) string {
	switch name {
	case "invalid token", "token without client":
		return "Invalid or expired token"
	default:
		return "Missing or invalid Authorization header"
	}
}
