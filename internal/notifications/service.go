package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/safewalk/sos-dispatcher/internal/logger"
)

// multicastClient is the part of *messaging.Client the service uses.
type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	SendEachForMulticastDryRun(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// DebugOptions enables logging a replayable curl command for failed tokens.
type DebugOptions struct {
	Enabled   bool
	CredJSON  string
	ProjectID string
}

// Service sends push notifications via Firebase Cloud Messaging.
type Service struct {
	client multicastClient
	logger *logger.Logger
	dryRun bool
	debug  DebugOptions
}

// NewService creates a new push notification service. messagingClient is
// normally a *messaging.Client.
func NewService(messagingClient multicastClient, logger *logger.Logger, dryRun bool, debug DebugOptions) *Service {
	return &Service{
		client: messagingClient,
		logger: logger,
		dryRun: dryRun,
		debug:  debug,
	}
}

// SendMulticast sends msg to all of its tokens in one multicast call.
// Per-token failures are reported in the result; only a failure of the call
// itself is returned as an error.
func (s *Service) SendMulticast(ctx context.Context, msg *SOSMessage) (*BatchResult, error) {
	log := s.logger.WithContext(ctx).WithComponent("push-notifications")

	if len(msg.Tokens) == 0 {
		return nil, errors.New("no tokens supplied")
	}
	if len(msg.Tokens) > MaxMulticastTokens {
		return nil, fmt.Errorf("too many tokens: %d > %d", len(msg.Tokens), MaxMulticastTokens)
	}

	multicast := buildMulticast(msg)

	log.Info("sending multicast push",
		slog.Int("token_count", len(msg.Tokens)),
		slog.String("type", msg.Data["type"]),
		slog.Bool("dry_run", s.dryRun))

	send := s.client.SendEachForMulticast
	if s.dryRun {
		send = s.client.SendEachForMulticastDryRun
	}

	resp, err := send(ctx, multicast)
	if err != nil {
		return nil, fmt.Errorf("failed to send multicast: %w", err)
	}

	result := toBatchResult(resp)

	switch {
	case result.FailureCount == 0:
		log.Info("all notifications sent successfully",
			slog.Int("successful", result.SuccessCount))
	case result.SuccessCount > 0:
		log.Warn("partial success",
			slog.Int("successful", result.SuccessCount),
			slog.Int("failed", result.FailureCount))
	default:
		log.Error("all notifications failed",
			slog.Int("failed", result.FailureCount))
	}

	for idx, r := range result.Responses {
		if r.Success || idx >= len(msg.Tokens) {
			continue
		}
		log.Warn("token delivery failed",
			slog.Int("index", idx),
			slog.String("token_prefix", tokenPrefix(msg.Tokens[idx])),
			slog.String("error", r.Error))
	}

	if s.debug.Enabled && result.FailureCount > 0 {
		s.logDebugCurl(ctx, log, msg, result)
	}

	return result, nil
}

func (s *Service) logDebugCurl(ctx context.Context, log *logger.Logger, msg *SOSMessage, result *BatchResult) {
	if s.debug.CredJSON == "" {
		log.Debug("debug curl requested but no credentials configured")
		return
	}
	for idx, r := range result.Responses {
		if r.Success || idx >= len(msg.Tokens) {
			continue
		}
		single := &messaging.Message{
			Token: msg.Tokens[idx],
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data:    msg.Data,
			Android: &messaging.AndroidConfig{Priority: AndroidPriorityHigh},
		}
		log.Debug("replay failed FCM request",
			slog.String("curl", GenerateDebugCurl(ctx, s.debug.CredJSON, s.debug.ProjectID, single)))
		return
	}
}

func buildMulticast(msg *SOSMessage) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: msg.Tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: AndroidPriorityHigh,
		},
	}
}

func toBatchResult(resp *messaging.BatchResponse) *BatchResult {
	result := &BatchResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
		Responses:    make([]SendResult, 0, len(resp.Responses)),
	}
	for _, r := range resp.Responses {
		sr := SendResult{}
		if r != nil {
			sr.Success = r.Success
			sr.MessageID = r.MessageID
			if r.Error != nil {
				sr.Error = r.Error.Error()
			}
		}
		result.Responses = append(result.Responses, sr)
	}
	return result
}

func tokenPrefix(token string) string {
	return token[:min(10, len(token))] + "..."
}
