package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "nil", err: nil, want: codes.OK},
		{name: "callable", err: InvalidArgument("bad"), want: codes.InvalidArgument},
		{name: "wrapped callable", err: fmt.Errorf("outer: %w", FailedPrecondition("none")), want: codes.FailedPrecondition},
		{name: "foreign", err: fmt.Errorf("boom"), want: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusAndHTTPStatus(t *testing.T) {
	tests := []struct {
		code       codes.Code
		wantStatus string
		wantHTTP   int
	}{
		{codes.Unauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
		{codes.InvalidArgument, "INVALID_ARGUMENT", http.StatusBadRequest},
		{codes.FailedPrecondition, "FAILED_PRECONDITION", http.StatusBadRequest},
		{codes.Internal, "INTERNAL", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := Status(tt.code); got != tt.wantStatus {
			t.Errorf("Status(%v) = %q, want %q", tt.code, got, tt.wantStatus)
		}
		if got := HTTPStatus(tt.code); got != tt.wantHTTP {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.code, got, tt.wantHTTP)
		}
	}
}

func TestAbortWithCallableError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	AbortWithCallableError(c, Unauthenticated("User must be authenticated"))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("expected context to be aborted")
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Status != "UNAUTHENTICATED" || resp.Error.Message != "User must be authenticated" {
		t.Errorf("unexpected error body: %+v", resp.Error)
	}
}
