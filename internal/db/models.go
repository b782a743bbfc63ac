package db

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

/* ErrNotFound is returned when a row does not exist */
var ErrNotFound = errors.New("record not found")

/* ActionList stores an ordered action list as a JSON column */
type ActionList []engine.Action

/* Value implements driver.Valuer */
func (a ActionList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]engine.Action(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

/* Scan implements sql.Scanner */
func (a *ActionList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = ActionList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ActionList", value)
	}
	var list []engine.Action
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode actions: %w", err)
	}
	if list == nil {
		list = []engine.Action{}
	}
	*a = list
	return nil
}

type nodePathRow struct {
	ID           uuid.UUID      `db:"id"`
	Type         string         `db:"type"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	ParentNodeID uuid.UUID      `db:"parent_node_id"`
	SchemaID     uuid.UUID      `db:"schema_id"`
	NextNodeID   uuid.NullUUID  `db:"next_node_id"`
	Actions      ActionList     `db:"actions"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r nodePathRow) toEngine() engine.NodePath {
	p := engine.NodePath{
		ID:           r.ID,
		Type:         engine.ActionType(r.Type),
		Name:         r.Name,
		ParentNodeId: r.ParentNodeID,
		SchemaId:     r.SchemaID,
		Actions:      []engine.Action(r.Actions),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.Description.Valid {
		d := r.Description.String
		p.Description = &d
	}
	if r.NextNodeID.Valid {
		n := r.NextNodeID.UUID
		p.NextNodeId = &n
	}
	if p.Actions == nil {
		p.Actions = []engine.Action{}
	}
	return p
}

type participantRow struct {
	ID             uuid.UUID      `db:"id"`
	ClientID       uuid.UUID      `db:"client_id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	Email          string         `db:"email"`
	Phone          sql.NullString `db:"phone"`
	OnboardingDate sql.NullTime   `db:"onboarding_date"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r participantRow) toEngine() engine.Participant {
	p := engine.Participant{
		ID:       r.ID,
		ClientId: r.ClientID,
		Person: engine.Person{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.Phone.Valid {
		ph := r.Phone.String
		p.Phone = &ph
	}
	if r.OnboardingDate.Valid {
		od := r.OnboardingDate.Time.UTC()
		p.OnboardingDate = &od
	}
	return p
}
