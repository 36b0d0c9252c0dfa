package contact

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

const (
	referencePrefix  = "SI-"
	maxNameLength    = 100
	maxSubjectLength = 200
	maxMessageLength = 5000
)

// Service accepts contact form submissions.
type Service interface {
	Submit(ctx context.Context, req Request) (Response, error)
	HandleJob(ctx context.Context, name string, payload map[string]any)
}

// Repository persists contact messages.
type Repository interface {
	Create(ctx context.Context, msg Message) error
	MarkNotified(ctx context.Context, id string, at time.Time) (bool, error)
}

// JobQueue schedules background work.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

type service struct {
	repo   Repository
	queue  JobQueue
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the contact domain. queue may be nil.
func NewService(repo Repository, queue JobQueue, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		queue:  queue,
		logger: logger.With("component", "contact.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Submit(ctx context.Context, req Request) (Response, error) {
	msg, err := validate(req)
	if err != nil {
		return Response{}, err
	}
	ref, err := util.NewReference(referencePrefix)
	if err != nil {
		return Response{}, apperrors.Wrap("contact_error", "failed to allocate reference", err)
	}
	msg.ID = uuid.NewString()
	msg.Reference = ref
	msg.Status = StatusReceived
	msg.CreatedAt = s.now()

	if err := s.repo.Create(ctx, msg); err != nil {
		return Response{}, apperrors.Wrap("storage_error", "failed to store message", err)
	}
	s.logger.Info("contact message received", "reference", ref, "urgency", msg.Urgency)

	if s.queue != nil {
		payload := map[string]any{"id": msg.ID, "reference": ref, "urgency": msg.Urgency}
		if err := s.queue.Enqueue(ctx, JobNotify, payload); err != nil {
			s.logger.Warn("enqueue contact notification failed", "reference", ref, "error", err)
		}
	}
	return Response{
		Success:   true,
		Message:   "Thank you for contacting us. We'll get back to you within 24 hours.",
		Reference: ref,
	}, nil
}

func (s *service) HandleJob(ctx context.Context, name string, payload map[string]any) {
	if name != JobNotify {
		return
	}
	id, _ := payload["id"].(string)
	if id == "" {
		s.logger.Warn("contact notification missing id")
		return
	}
	found, err := s.repo.MarkNotified(ctx, id, s.now())
	if err != nil {
		s.logger.Error("mark contact notified failed", "id", id, "error", err)
		return
	}
	if !found {
		s.logger.Warn("contact message not found for notification", "id", id)
		return
	}
	s.logger.Info("contact notification delivered", "id", id, "reference", payload["reference"], "urgency", payload["urgency"])
}

func validate(req Request) (Message, error) {
	msg := Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Message),
		Urgency: strings.ToLower(strings.TrimSpace(req.Urgency)),
	}
	if msg.Name == "" {
		return Message{}, apperrors.Wrap("invalid_input", "name is required", nil)
	}
	if len([]rune(msg.Name)) > maxNameLength {
		return Message{}, apperrors.Wrap("invalid_input", "name is too long", nil)
	}
	if msg.Email == "" {
		return Message{}, apperrors.Wrap("invalid_input", "email is required", nil)
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return Message{}, apperrors.Wrap("invalid_input", "email is invalid", err)
	}
	if msg.Subject == "" {
		return Message{}, apperrors.Wrap("invalid_input", "subject is required", nil)
	}
	if len([]rune(msg.Subject)) > maxSubjectLength {
		return Message{}, apperrors.Wrap("invalid_input", "subject is too long", nil)
	}
	if msg.Body == "" {
		return Message{}, apperrors.Wrap("invalid_input", "message is required", nil)
	}
	if len([]rune(msg.Body)) > maxMessageLength {
		return Message{}, apperrors.Wrap("invalid_input", "message is too long", nil)
	}
	if msg.Urgency == "" {
		msg.Urgency = UrgencyNormal
	}
	if err := validUrgency(msg.Urgency); err != nil {
		return Message{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	return msg, nil
}

func validUrgency(v string) error {
	switch v {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent:
		return nil
	default:
		return errors.New("urgency must be low, normal, high or urgent")
	}
}
