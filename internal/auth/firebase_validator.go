package auth

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

type FirebaseTokenValidator struct {
	authClient *auth.Client
}

func NewFirebaseTokenValidator(authClient *auth.Client) *FirebaseTokenValidator {
	return &FirebaseTokenValidator{
		authClient: authClient,
	}
}

// ExtractUserID verifies a Firebase ID token and returns its UID.
func (f *FirebaseTokenValidator) ExtractUserID(ctx context.Context, tokenString string) (string, error) {
	token, err := f.authClient.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if token.UID == "" {
		return "", fmt.Errorf("%w: no uid found in Firebase token", ErrInvalidToken)
	}

	return token.UID, nil
}
