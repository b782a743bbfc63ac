package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

const participantColumns = `id, client_id, first_name, last_name, email, phone, onboarding_date, created_at, updated_at`

// ParticipantQueries provides participant persistence
type ParticipantQueries struct {
	db  *DB
	now func() time.Time
}

// NewParticipantQueries creates a new ParticipantQueries instance
func NewParticipantQueries(d *DB) *ParticipantQueries {
	return &ParticipantQueries{db: d, now: time.Now}
}

// CreateParticipant inserts a participant
func (q *ParticipantQueries) CreateParticipant(ctx context.Context, m *engine.CreateParticipantModel) (*engine.Participant, error) {
	id := uuid.New()
	now := q.db.timeArg(q.now())

	var phone, onboarding interface{}
	if m.Phone != nil {
		phone = *m.Phone
	}
	if m.OnboardingDate != nil {
		onboarding = q.db.timeArg(*m.OnboardingDate)
	}

	query := q.db.Rebind(`
		INSERT INTO participants (` + participantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if _, err := q.db.ExecContext(ctx, query,
		id, m.ClientId, m.FirstName, m.LastName, m.Email, phone, onboarding, now, now); err != nil {
		return nil, fmt.Errorf("failed to insert participant: %w", err)
	}
	return q.GetParticipant(ctx, id)
}

// GetParticipant gets a participant by ID
func (q *ParticipantQueries) GetParticipant(ctx context.Context, id uuid.UUID) (*engine.Participant, error) {
	var row participantRow
	query := q.db.Rebind(`SELECT ` + participantColumns + ` FROM participants WHERE id = ?`)
	if err := q.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}
	p := row.toEngine()
	return &p, nil
}

// ListParticipantsByClient lists a client's participants by last name
func (q *ParticipantQueries) ListParticipantsByClient(ctx context.Context, clientID uuid.UUID) ([]engine.Participant, error) {
	var rows []participantRow
	query := q.db.Rebind(`SELECT ` + participantColumns + ` FROM participants WHERE client_id = ? ORDER BY last_name ASC, first_name ASC, id ASC`)
	if err := q.db.SelectContext(ctx, &rows, query, clientID); err != nil {
		return nil, fmt.Errorf("failed to list participants for client %s: %w", clientID, err)
	}
	out := make([]engine.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEngine())
	}
	return out, nil
}
