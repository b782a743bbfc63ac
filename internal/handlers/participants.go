package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/response"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

// ParticipantService is the business layer behind the participant routes
type ParticipantService interface {
	Create(ctx context.Context, m *engine.CreateParticipantModel) (*engine.Participant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*engine.Participant, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]engine.Participant, error)
}

// ParticipantHandlers handles participant endpoints
type ParticipantHandlers struct {
	validator *validation.Validator
	service   ParticipantService
}

// NewParticipantHandlers creates new participant handlers
func NewParticipantHandlers(v *validation.Validator, service ParticipantService) *ParticipantHandlers {
	return &ParticipantHandlers{validator: v, service: service}
}

type participantData struct {
	Participant *engine.Participant `json:"Participant"`
}

type participantsData struct {
	Participants []engine.Participant `json:"Participants"`
}

// Create handles POST /participants
func (h *ParticipantHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	model, err := h.validator.ValidateCreateParticipant(r)
	if err != nil {
		return err
	}

	created, err := h.service.Create(r.Context(), model)
	if err != nil {
		return err
	}
	if created == nil {
		return &OperationFailedError{Operation: "participant create"}
	}

	response.WriteSuccess(w, r, http.StatusCreated, "Participant created", participantData{Participant: created})
	return nil
}

// GetByID handles GET /participants/{id}
func (h *ParticipantHandlers) GetByID(w http.ResponseWriter, r *http.Request) error {
	id, err := validation.RequestParamAsUUID(r, "id")
	if err != nil {
		return err
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if p == nil {
		return &NotFoundError{Entity: "participant", ID: id.String()}
	}

	response.WriteSuccess(w, r, http.StatusOK, "Participant found", participantData{Participant: p})
	return nil
}

// ListByClient handles GET /clients/{clientId}/participants
func (h *ParticipantHandlers) ListByClient(w http.ResponseWriter, r *http.Request) error {
	clientID, err := validation.RequestParamAsUUID(r, "clientId")
	if err != nil {
		return err
	}

	list, err := h.service.ListByClient(r.Context(), clientID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []engine.Participant{}
	}

	response.WriteSuccess(w, r, http.StatusOK, "Participants found", participantsData{Participants: list})
	return nil
}
