package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/safewalk/sos-dispatcher/internal/logger"
)

type stubValidator struct {
	uid   string
	err   error
	calls int
}

func (s *stubValidator) ExtractUserID(ctx context.Context, token string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.uid, nil
}

func setupRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewCallableAuthMiddleware(validator, logger.Discard()).Authenticate())
	router.POST("/fn", func(c *gin.Context) {
		uid, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"uid": uid, "authenticated": ok})
	})
	return router
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		validator  *stubValidator
		wantStatus int
		wantUID    string
		wantAuthed bool
		wantCalls  int
	}{
		{
			name:       "no header passes through anonymously",
			validator:  &stubValidator{uid: "uid-1"},
			wantStatus: http.StatusOK,
			wantCalls:  0,
		},
		{
			name:       "valid bearer token",
			header:     "Bearer good-token",
			validator:  &stubValidator{uid: "uid-1"},
			wantStatus: http.StatusOK,
			wantUID:    "uid-1",
			wantAuthed: true,
			wantCalls:  1,
		},
		{
			name:       "non bearer scheme",
			header:     "Basic abc",
			validator:  &stubValidator{uid: "uid-1"},
			wantStatus: http.StatusUnauthorized,
			wantCalls:  0,
		},
		{
			name:       "empty bearer token",
			header:     "Bearer   ",
			validator:  &stubValidator{uid: "uid-1"},
			wantStatus: http.StatusUnauthorized,
			wantCalls:  0,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad-token",
			validator:  &stubValidator{err: ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(tt.validator)

			req := httptest.NewRequest(http.MethodPost, "/fn", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.validator.calls != tt.wantCalls {
				t.Errorf("expected %d validator calls, got %d", tt.wantCalls, tt.validator.calls)
			}

			if w.Code != http.StatusOK {
				var body struct {
					Error struct {
						Status string `json:"status"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.Error.Status != "UNAUTHENTICATED" {
					t.Errorf("expected UNAUTHENTICATED, got %q", body.Error.Status)
				}
				return
			}

			var body struct {
				UID           string `json:"uid"`
				Authenticated bool   `json:"authenticated"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.UID != tt.wantUID || body.Authenticated != tt.wantAuthed {
				t.Errorf("expected uid=%q authenticated=%v, got %+v", tt.wantUID, tt.wantAuthed, body)
			}
		})
	}
}

func TestJWTTokenValidator_DevMode(t *testing.T) {
	validator, err := NewTokenValidator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewTokenValidator() error: %v", err)
	}

	sign := func(claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		s, err := token.SignedString([]byte("emulator"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return s
	}

	uid, err := validator.ExtractUserID(context.Background(), sign(jwt.MapClaims{"sub": "uid-sub", "user_id": "uid-user"}))
	if err != nil || uid != "uid-sub" {
		t.Errorf("expected uid-sub, got %q (err %v)", uid, err)
	}

	uid, err = validator.ExtractUserID(context.Background(), sign(jwt.MapClaims{"user_id": "uid-user"}))
	if err != nil || uid != "uid-user" {
		t.Errorf("expected uid-user, got %q (err %v)", uid, err)
	}

	_, err = validator.ExtractUserID(context.Background(), sign(jwt.MapClaims{"email": "a@example.com"}))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for token without subject, got %v", err)
	}

	_, err = validator.ExtractUserID(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
