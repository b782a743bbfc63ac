package validation

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/neurondb/NeuronFlow/internal/engine"
)

type createParticipantRequest struct {
	ClientId       string  `json:"ClientId" validate:"required,uuid"`
	FirstName      string  `json:"FirstName" validate:"required,max=64"`
	LastName       string  `json:"LastName" validate:"required,max=64"`
	Email          string  `json:"Email" validate:"required,email,max=256"`
	Phone          *string `json:"Phone" validate:"omitempty,max=16"`
	OnboardingDate *string `json:"OnboardingDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ValidateCreateParticipant decodes and validates a participant create body
func (v *Validator) ValidateCreateParticipant(r *http.Request) (*engine.CreateParticipantModel, error) {
	var req createParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if verr := v.Struct(req); verr.HasErrors() {
		return nil, verr
	}

	model := &engine.CreateParticipantModel{
		ClientId:  uuid.MustParse(req.ClientId),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if req.OnboardingDate != nil {
		ts, err := time.Parse(time.RFC3339, *req.OnboardingDate)
		if err != nil {
			return nil, NewValidationError("OnboardingDate", "must be an RFC3339 timestamp")
		}
		ts = ts.UTC()
		model.OnboardingDate = &ts
	}
	return model, nil
}
