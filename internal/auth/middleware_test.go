package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"soulkitchen/internal/logger"
	"soulkitchen/internal/models"
)

// stubVerifier resolves tokens from a fixed map.
type stubVerifier struct {
	tokens map[string]models.Actor
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (models.Actor, error) {
	actor, ok := v.tokens[token]
	if !ok {
		return models.Actor{}, ErrInvalidToken
	}
	return actor, nil
}

func TestMiddleware(t *testing.T) {
	verifier := &stubVerifier{tokens: map[string]models.Actor{
		"good-token": {ID: 7, Role: models.RoleDriver},
	}}

	var gotActor models.Actor
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotActor, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(verifier, logger.New("test"))(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"missing header", "", http.StatusUnauthorized, false},
		{"not bearer", "Basic abc123", http.StatusUnauthorized, false},
		{"empty token", "Bearer ", http.StatusUnauthorized, false},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized, false},
		{"valid token", "Bearer good-token", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
		})
	}

	if gotActor.ID != 7 || gotActor.Role != models.RoleDriver {
		t.Errorf("actor from context = %+v, want id 7 driver", gotActor)
	}
}
