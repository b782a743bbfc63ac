package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/communication"
	"github.com/neurondb/NeuronFlow/internal/db"
	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/metrics"
)

/* ParticipantStore is the persistence the participant service needs */
type ParticipantStore interface {
	CreateParticipant(ctx context.Context, m *engine.CreateParticipantModel) (*engine.Participant, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*engine.Participant, error)
	ListParticipantsByClient(ctx context.Context, clientID uuid.UUID) ([]engine.Participant, error)
}

/*
 * ParticipantService stores participants and sends the onboarding
 * notification. Email and SMS senders are optional; a failed notification
 * is logged and never fails the create.
 */
type ParticipantService struct {
	store  ParticipantStore
	email  communication.EmailSender
	sms    communication.SMSSender
	logger *logging.Logger
}

/* NewParticipantService creates the service; email and sms may be nil */
func NewParticipantService(store ParticipantStore, email communication.EmailSender, sms communication.SMSSender, logger *logging.Logger) *ParticipantService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ParticipantService{store: store, email: email, sms: sms, logger: logger}
}

// Create stores the participant and notifies them
func (s *ParticipantService) Create(ctx context.Context, m *engine.CreateParticipantModel) (*engine.Participant, error) {
	p, err := s.store.CreateParticipant(ctx, m)
	if err != nil {
		s.logger.Error("Failed to create participant", err, map[string]interface{}{"client_id": m.ClientId.String()})
		return nil, err
	}
	s.notify(ctx, p)
	return p, nil
}

// GetByID returns the participant or nil when it does not exist
func (s *ParticipantService) GetByID(ctx context.Context, id uuid.UUID) (*engine.Participant, error) {
	p, err := s.store.GetParticipant(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get participant", err, map[string]interface{}{"participant_id": id.String()})
		return nil, err
	}
	return p, nil
}

// ListByClient returns a client's participants
func (s *ParticipantService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]engine.Participant, error) {
	list, err := s.store.ListParticipantsByClient(ctx, clientID)
	if err != nil {
		s.logger.Error("Failed to list participants", err, map[string]interface{}{"client_id": clientID.String()})
		return nil, err
	}
	return list, nil
}

func (s *ParticipantService) notify(ctx context.Context, p *engine.Participant) {
	fields := map[string]interface{}{"participant_id": p.ID.String()}

	if s.email != nil && p.Email != "" {
		err := s.email.SendEmail(ctx, engine.EmailPayload{
			To:      []string{p.Email},
			Subject: "Welcome aboard",
			Body:    fmt.Sprintf("Hello %s, you have been enrolled.", p.FirstName),
		})
		s.record("email", s.email.Provider(), err, fields)
	}

	if s.sms != nil && p.Phone != nil && *p.Phone != "" {
		err := s.sms.SendSMS(ctx, engine.SmsPayload{
			To:   []string{*p.Phone},
			Body: fmt.Sprintf("Hello %s, you have been enrolled.", p.FirstName),
		})
		s.record("sms", s.sms.Provider(), err, fields)
	}
}

func (s *ParticipantService) record(channel, provider string, err error, fields map[string]interface{}) {
	if err != nil {
		metrics.RecordNotification(channel, metrics.OutcomeError)
		s.logger.Warn("Onboarding notification failed", map[string]interface{}{
			"participant_id": fields["participant_id"],
			"channel":        channel,
			"provider":       provider,
			"error":          err.Error(),
		})
		return
	}
	metrics.RecordNotification(channel, metrics.OutcomeSuccess)
}
