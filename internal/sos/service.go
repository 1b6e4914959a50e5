package sos

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apierrors "github.com/safewalk/sos-dispatcher/internal/errors"
	"github.com/safewalk/sos-dispatcher/internal/logger"
	"github.com/safewalk/sos-dispatcher/internal/metrics"
	"github.com/safewalk/sos-dispatcher/internal/notifications"
	"github.com/safewalk/sos-dispatcher/internal/soslog"
	"github.com/safewalk/sos-dispatcher/internal/users"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
)

// UserStore reads user profiles. A missing profile is (nil, nil).
type UserStore interface {
	GetUser(ctx context.Context, uid string) (*users.User, error)
}

// PushSender delivers one multicast push.
type PushSender interface {
	SendMulticast(ctx context.Context, msg *notifications.SOSMessage) (*notifications.BatchResult, error)
}

// Options holds the notification text and fan-out limit.
type Options struct {
	Title             string
	BodySuffix        string
	DefaultSenderName string
	LookupConcurrency int
}

// Service relays an SOS from one user to their trusted contacts.
type Service struct {
	users   UserStore
	push    PushSender
	audit   soslog.Store
	metrics *metrics.Metrics
	logger  *logger.Logger
	opts    Options
}

func NewService(
	userStore UserStore,
	push PushSender,
	audit soslog.Store,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	opts Options,
) *Service {
	if opts.LookupConcurrency <= 0 {
		opts.LookupConcurrency = 1
	}
	return &Service{
		users:   userStore,
		push:    push,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
	}
}

// Dispatch runs the SOS pipeline for the authenticated caller senderUID
// (empty when the request carried no verified identity). User-facing
// failures are *apierrors.CallableError; anything else is internal.
func (s *Service) Dispatch(ctx context.Context, senderUID string, req *Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveDispatch(outcome(err), time.Since(start))
	}()

	if senderUID == "" {
		return nil, apierrors.Unauthenticated(msgUnauthenticated)
	}
	if req == nil {
		req = &Request{}
	}

	contactUIDs, err := parseContactUIDs(req.ContactUIDs)
	if err != nil {
		return nil, err
	}

	sosID := OptionalString(req.SosID)
	mapLink := OptionalString(req.MapLink)

	ctx = logger.WithSOSID(ctx, sosID)
	log := s.logger.WithContext(ctx).WithComponent("sos-dispatcher")

	senderName, err := s.resolveSenderName(ctx, senderUID)
	if err != nil {
		return nil, err
	}

	tokens, tokenUsers, err := s.resolveTokens(ctx, contactUIDs)
	if err != nil {
		return nil, err
	}

	log.Info("resolved contact tokens",
		slog.Int("contacts", len(contactUIDs)),
		slog.Int("tokens", len(tokens)))

	if len(tokens) == 0 {
		return nil, apierrors.FailedPrecondition(msgNoTokens)
	}

	result, err := s.push.SendMulticast(ctx, &notifications.SOSMessage{
		Tokens: tokens,
		Title:  s.opts.Title,
		Body:   fmt.Sprintf("%s %s", senderName, s.opts.BodySuffix),
		Data: map[string]string{
			"type":      string(notifications.TypeSOS),
			"sosId":     sosID,
			"mapLink":   mapLink,
			"senderUid": senderUID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("push dispatch failed: %w", err)
	}

	s.metrics.ObservePushResults(result.SuccessCount, result.FailureCount)

	logID, err := s.audit.Append(ctx, buildLogEntry(sosID, senderUID, contactUIDs, tokenUsers, result))
	if err != nil {
		return nil, fmt.Errorf("failed to write delivery log: %w", err)
	}

	log.Info("sos dispatched",
		slog.String("log_id", logID),
		slog.Int("success_count", result.SuccessCount),
		slog.Int("failure_count", result.FailureCount))

	return &Response{
		Success:      true,
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
	}, nil
}

func (s *Service) resolveSenderName(ctx context.Context, senderUID string) (string, error) {
	sender, err := s.users.GetUser(ctx, senderUID)
	if err != nil {
		return "", fmt.Errorf("failed to look up sender: %w", err)
	}
	if sender == nil || sender.Name == "" {
		return s.opts.DefaultSenderName, nil
	}
	return sender.Name, nil
}

// resolveTokens looks contacts up concurrently and returns the tokens found
// together with the contacts they belong to, both in contactUIDs order. The
// first lookup error aborts the whole resolution.
func (s *Service) resolveTokens(ctx context.Context, contactUIDs []string) ([]string, []string, error) {
	slots := make([]string, len(contactUIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.LookupConcurrency)

	for i, uid := range contactUIDs {
		g.Go(func() error {
			user, err := s.users.GetUser(gctx, uid)
			if err != nil {
				return fmt.Errorf("failed to look up contact %s: %w", uid, err)
			}
			if user != nil && user.FCMToken != "" {
				slots[i] = user.FCMToken
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var tokens, tokenUsers []string
	for i, token := range slots {
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
		tokenUsers = append(tokenUsers, contactUIDs[i])
	}
	return tokens, tokenUsers, nil
}

func buildLogEntry(
	sosID string,
	senderUID string,
	contactUIDs []string,
	tokenUsers []string,
	result *notifications.BatchResult,
) *soslog.Entry {
	entry := &soslog.Entry{
		SenderUID:    senderUID,
		ContactUIDs:  contactUIDs,
		TokenUsers:   tokenUsers,
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Responses:    make([]soslog.ResponseEntry, 0, len(result.Responses)),
	}
	if sosID != "" {
		entry.SosID = &sosID
	}

	for i, r := range result.Responses {
		resp := soslog.ResponseEntry{Success: r.Success}
		if i < len(tokenUsers) {
			tokenUser := tokenUsers[i]
			resp.TokenUser = &tokenUser
		}
		if r.Error != "" {
			msg := r.Error
			resp.Error = &msg
		}
		entry.Responses = append(entry.Responses, resp)
	}
	return entry
}

func outcome(err error) string {
	switch apierrors.CodeOf(err) {
	case codes.OK:
		return metrics.OutcomeOK
	case codes.Unauthenticated:
		return metrics.OutcomeUnauthenticated
	case codes.InvalidArgument:
		return metrics.OutcomeInvalidArgument
	case codes.FailedPrecondition:
		return metrics.OutcomeFailedPrecondition
	default:
		return metrics.OutcomeInternal
	}
}
