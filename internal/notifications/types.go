package notifications

// NotificationType is the "type" field of the push data payload.
type NotificationType string

const (
	TypeSOS NotificationType = "SOS"
)

// AndroidPriorityHigh wakes the device for time-sensitive alerts.
const AndroidPriorityHigh = "high"

// MaxMulticastTokens is the largest token list FCM accepts in one multicast.
const MaxMulticastTokens = 500

// SOSMessage is a fully rendered multicast push.
type SOSMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// SendResult is the outcome of delivering to one token. Results are
// positionally aligned with SOSMessage.Tokens.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// BatchResult aggregates the per-token outcomes of one multicast.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Responses    []SendResult
}
