package users

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// CollectionName is the Firestore collection holding user profiles.
	CollectionName = "users"
)

// User is the subset of a users/{uid} document this service reads.
type User struct {
	Name     string `firestore:"name"`
	FCMToken string `firestore:"fcmToken"`
}

// FirestoreStore reads user profiles from Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed user store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// GetUser returns the user record for uid, or (nil, nil) when no such document exists.
func (s *FirestoreStore) GetUser(ctx context.Context, uid string) (*User, error) {
	if uid == "" {
		return nil, status.Error(codes.InvalidArgument, "uid must be non-empty")
	}

	doc, err := s.client.Collection(CollectionName).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", uid, err)
	}

	return decodeUser(doc.Data()), nil
}

// decodeUser reads name and fcmToken leniently: a field of the wrong type is
// treated as absent rather than failing the whole document.
func decodeUser(data map[string]interface{}) *User {
	user := &User{}
	if name, ok := data["name"].(string); ok {
		user.Name = name
	}
	if token, ok := data["fcmToken"].(string); ok {
		user.FCMToken = token
	}
	return user
}
