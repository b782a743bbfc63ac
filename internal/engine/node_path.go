package engine

import (
	"time"

	"github.com/google/uuid"
)

/* NodePath is a directed transition from a parent node inside a schema */
type NodePath struct {
	ID           uuid.UUID  `json:"id"`
	Type         ActionType `json:"Type"`
	Name         string     `json:"Name"`
	Description  *string    `json:"Description"`
	ParentNodeId uuid.UUID  `json:"ParentNodeId"`
	SchemaId     uuid.UUID  `json:"SchemaId"`
	NextNodeId   *uuid.UUID `json:"NextNodeId"`
	Actions      []Action   `json:"Actions"`
	CreatedAt    time.Time  `json:"CreatedAt"`
	UpdatedAt    time.Time  `json:"UpdatedAt"`
}

/* CreateNodePathModel is a validated create request */
type CreateNodePathModel struct {
	Type         ActionType
	Name         string
	Description  string
	ParentNodeId uuid.UUID
	SchemaId     uuid.UUID
	Actions      []Action
}

/*
 * UpdateNodePathModel is a validated update request. Every field is an
 * explicit marker; unset fields leave the stored column alone.
 */
type UpdateNodePathModel struct {
	Type         Field[ActionType]
	Name         Field[string]
	Description  Field[string]
	ParentNodeId Field[uuid.UUID]
	SchemaId     Field[uuid.UUID]
	Actions      Field[[]Action]
}

/* IsEmpty reports whether the update touches no field */
func (m UpdateNodePathModel) IsEmpty() bool {
	return m.Type.IsUnset() &&
		m.Name.IsUnset() &&
		m.Description.IsUnset() &&
		m.ParentNodeId.IsUnset() &&
		m.SchemaId.IsUnset() &&
		m.Actions.IsUnset()
}

/* Apply writes the set fields of m onto p */
func (m UpdateNodePathModel) Apply(p *NodePath) {
	if v, ok := m.Type.Get(); ok {
		p.Type = v
	}
	if v, ok := m.Name.Get(); ok {
		p.Name = v
	}
	if m.Description.Set {
		p.Description = m.Description.Ptr()
	}
	if v, ok := m.ParentNodeId.Get(); ok {
		p.ParentNodeId = v
	}
	if v, ok := m.SchemaId.Get(); ok {
		p.SchemaId = v
	}
	if m.Actions.Set {
		if v, ok := m.Actions.Get(); ok && v != nil {
			p.Actions = v
		} else {
			p.Actions = []Action{}
		}
	}
}

/* NodePathSearchFilters narrows a node path search; nil fields are not applied */
type NodePathSearchFilters struct {
	Type         *ActionType
	Name         *string
	ParentNodeId *uuid.UUID
	SchemaId     *uuid.UUID
	SearchFilters
}
