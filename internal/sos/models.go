package sos

// Request is the callable "data" payload. Fields are kept as decoded JSON
// values so validation can tell an absent field from one of the wrong type.
type Request struct {
	SosID       any `json:"sosId"`
	ContactUIDs any `json:"contactUids"`
	MapLink     any `json:"mapLink"`
}

// Response is returned to the caller when the multicast went out.
type Response struct {
	Success      bool `json:"success"`
	SuccessCount int  `json:"successCount"`
	FailureCount int  `json:"failureCount"`
}

// MaxContacts matches the largest multicast FCM accepts.
const MaxContacts = 500

const (
	msgUnauthenticated    = "User must be authenticated"
	msgContactsRequired   = "contactUids is required"
	msgContactsNotStrings = "contactUids must contain non-empty strings"
	msgTooManyContacts    = "contactUids cannot contain more than 500 entries"
	msgNoTokens           = "No FCM tokens found for trusted contacts"
)
