// Package soslog persists the append-only audit trail of SOS push dispatches.
package soslog

import (
	"context"
	"time"
)

// CollectionName is both the Firestore collection and the SQL table name.
const CollectionName = "sos_push_logs"

// Entry is one immutable delivery log record. Responses is positionally
// aligned with TokenUsers.
type Entry struct {
	SosID        *string         `json:"sosId"`
	SenderUID    string          `json:"senderUid"`
	ContactUIDs  []string        `json:"contactUids"`
	TokenUsers   []string        `json:"tokenUsers"`
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Responses    []ResponseEntry `json:"responses"`
	// CreatedAt is assigned by the store; it is zero on entries passed to Append.
	CreatedAt time.Time `json:"createdAt"`
}

// ResponseEntry is the outcome for one recipient.
type ResponseEntry struct {
	TokenUser *string `json:"tokenUser"`
	Success   bool    `json:"success"`
	Error     *string `json:"error"`
}

// Store appends entries and returns the new record's ID.
type Store interface {
	Append(ctx context.Context, entry *Entry) (string, error)
}
