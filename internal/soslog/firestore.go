package soslog

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// FirestoreStore writes entries to the sos_push_logs collection.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed audit store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Append adds entry as a new document with a server-assigned createdAt.
func (s *FirestoreStore) Append(ctx context.Context, entry *Entry) (string, error) {
	ref, _, err := s.client.Collection(CollectionName).Add(ctx, toFirestoreDoc(entry))
	if err != nil {
		return "", fmt.Errorf("failed to add %s document: %w", CollectionName, err)
	}
	return ref.ID, nil
}

// toFirestoreDoc builds the document as a map so that absent values are
// stored as explicit nulls.
func toFirestoreDoc(entry *Entry) map[string]interface{} {
	responses := make([]interface{}, 0, len(entry.Responses))
	for _, r := range entry.Responses {
		responses = append(responses, map[string]interface{}{
			"tokenUser": nullableString(r.TokenUser),
			"success":   r.Success,
			"error":     nullableString(r.Error),
		})
	}

	return map[string]interface{}{
		"sosId":        nullableString(entry.SosID),
		"senderUid":    entry.SenderUID,
		"contactUids":  entry.ContactUIDs,
		"tokenUsers":   entry.TokenUsers,
		"successCount": entry.SuccessCount,
		"failureCount": entry.FailureCount,
		"responses":    responses,
		"createdAt":    firestore.ServerTimestamp,
	}
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
