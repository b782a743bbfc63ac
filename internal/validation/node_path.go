package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/neurondb/NeuronFlow/internal/engine"
)

type actionRequest struct {
	ActionType  string          `json:"ActionType" validate:"required,action_type"`
	Name        string          `json:"Name" validate:"required,max=32"`
	Description string          `json:"Description" validate:"max=256"`
	RawInput    json.RawMessage `json:"RawInput"`
	Input       json.RawMessage `json:"Input"`
	RawOutput   json.RawMessage `json:"RawOutput"`
	Output      json.RawMessage `json:"Output"`
}

type actionList struct {
	Actions []actionRequest `json:"Actions" validate:"dive"`
}

type createNodePathRequest struct {
	Type         string          `json:"Type" validate:"required,action_type"`
	Name         string          `json:"Name" validate:"required,max=32"`
	Description  *string         `json:"Description" validate:"omitempty,max=256"`
	ParentNodeId string          `json:"ParentNodeId" validate:"required,uuid"`
	SchemaId     string          `json:"SchemaId" validate:"required,uuid"`
	Actions      json.RawMessage `json:"Actions" validate:"-"`
}

type updateNodePathRequest struct {
	Type         engine.Field[string]          `json:"Type"`
	Name         engine.Field[string]          `json:"Name"`
	Description  engine.Field[string]          `json:"Description"`
	ParentNodeId engine.Field[string]          `json:"ParentNodeId"`
	SchemaId     engine.Field[string]          `json:"SchemaId"`
	Actions      engine.Field[json.RawMessage] `json:"Actions"`
}

/*
 * ValidateCreateNodePath decodes and validates a node path create body.
 * Description defaults to "" and Actions to an empty list when absent.
 */
func (v *Validator) ValidateCreateNodePath(r *http.Request) (*engine.CreateNodePathModel, error) {
	var req createNodePathRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	verr := v.Struct(req)
	actions, aerr := v.validateActions(req.Actions)
	verr.Merge(aerr)
	if verr.HasErrors() {
		return nil, verr
	}

	model := &engine.CreateNodePathModel{
		Type:         engine.ActionType(req.Type),
		Name:         req.Name,
		ParentNodeId: uuid.MustParse(req.ParentNodeId),
		SchemaId:     uuid.MustParse(req.SchemaId),
		Actions:      toActions(actions),
	}
	if req.Description != nil {
		model.Description = *req.Description
	}
	return model, nil
}

/*
 * ValidateUpdateNodePath decodes and validates a node path update body.
 * Absent keys stay unset, explicit nulls become null markers. Type, Name,
 * ParentNodeId and SchemaId cannot be cleared.
 */
func (v *Validator) ValidateUpdateNodePath(r *http.Request) (*engine.UpdateNodePathModel, error) {
	var req updateNodePathRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	model := &engine.UpdateNodePathModel{}

	model.Type = requiredField(v, verr, "Type", req.Type, "action_type", func(s string) engine.ActionType {
		return engine.ActionType(s)
	})
	model.Name = requiredField(v, verr, "Name", req.Name, "max=32", func(s string) string { return s })
	model.ParentNodeId = requiredField(v, verr, "ParentNodeId", req.ParentNodeId, "uuid", uuid.MustParse)
	model.SchemaId = requiredField(v, verr, "SchemaId", req.SchemaId, "uuid", uuid.MustParse)

	switch {
	case req.Description.IsNull():
		model.Description = engine.Null[string]()
	case req.Description.HasValue():
		if e := v.Var("Description", req.Description.Value, "max=256"); e.HasErrors() {
			verr.Merge(e)
		} else {
			model.Description = engine.Some(req.Description.Value)
		}
	}

	switch {
	case req.Actions.IsNull():
		model.Actions = engine.Null[[]engine.Action]()
	case req.Actions.HasValue():
		if actions, e := v.validateActions(req.Actions.Value); e.HasErrors() {
			verr.Merge(e)
		} else {
			model.Actions = engine.Some(toActions(actions))
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return model, nil
}

func requiredField[T any](v *Validator, verr *ValidationError, name string, f engine.Field[string], tag string, conv func(string) T) engine.Field[T] {
	switch {
	case f.IsNull():
		verr.Add(name, "cannot be cleared")
	case f.HasValue():
		if e := v.Var(name, f.Value, "required,"+tag); e.HasErrors() {
			verr.Merge(e)
			return engine.Unset[T]()
		}
		return engine.Some(conv(f.Value))
	}
	return engine.Unset[T]()
}

/*
 * validateActions strictly decodes a JSON array of actions, one element at
 * a time so unknown keys are reported as Actions[i].<key>, then applies the
 * action field rules and payload shapes. Absent or null decodes to no actions.
 */
func (v *Validator) validateActions(raw json.RawMessage) ([]actionRequest, *ValidationError) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ValidationError{}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, NewValidationError("Actions", "must be an array of actions")
	}

	verr := &ValidationError{}
	actions := make([]actionRequest, len(elems))
	for i, elem := range elems {
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&actions[i]); err != nil {
			verr.Merge(decodeError(err, fmt.Sprintf("Actions[%d]", i)))
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	verr = v.Struct(actionList{Actions: actions})
	verr.Merge(validatePayloads("Actions", actions))
	if verr.HasErrors() {
		return nil, verr
	}
	return actions, verr
}

/* validatePayloads checks that each typed Input matches its action's payload shape */
func validatePayloads(prefix string, actions []actionRequest) *ValidationError {
	verr := &ValidationError{}
	for i, a := range actions {
		kind := engine.ActionType(a.ActionType)
		if !kind.IsValid() {
			continue
		}
		if _, err := engine.DecodePayload(kind, a.Input); err != nil {
			verr.Add(fmt.Sprintf("%s[%d].Input", prefix, i), err.Error())
		}
		if _, err := engine.DecodePayload(kind, a.Output); err != nil {
			verr.Add(fmt.Sprintf("%s[%d].Output", prefix, i), err.Error())
		}
	}
	return verr
}

func toActions(reqs []actionRequest) []engine.Action {
	actions := make([]engine.Action, 0, len(reqs))
	for _, a := range reqs {
		actions = append(actions, engine.Action{
			ActionType:  engine.ActionType(a.ActionType),
			Name:        a.Name,
			Description: a.Description,
			RawInput:    a.RawInput,
			Input:       a.Input,
			RawOutput:   a.RawOutput,
			Output:      a.Output,
		})
	}
	return actions
}
