package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

/* ActionType identifies the kind of work an action performs */
type ActionType string

const (
	ActionTypeSendMessage     ActionType = "SendMessage"
	ActionTypeSendEmail       ActionType = "SendEmail"
	ActionTypeSendSms         ActionType = "SendSms"
	ActionTypeRestApiCall     ActionType = "RestApiCall"
	ActionTypeFunctionCall    ActionType = "FunctionCall"
	ActionTypeStoreToDatabase ActionType = "StoreToDatabase"
	ActionTypeExit            ActionType = "Exit"
	ActionTypeContinue        ActionType = "Continue"
)

var actionTypes = []ActionType{
	ActionTypeSendMessage,
	ActionTypeSendEmail,
	ActionTypeSendSms,
	ActionTypeRestApiCall,
	ActionTypeFunctionCall,
	ActionTypeStoreToDatabase,
	ActionTypeExit,
	ActionTypeContinue,
}

/* ActionTypes returns every known action type in declaration order */
func ActionTypes() []ActionType {
	return append([]ActionType(nil), actionTypes...)
}

/* ActionTypeNames returns the action types as plain strings */
func ActionTypeNames() []string {
	names := make([]string, 0, len(actionTypes))
	for _, t := range actionTypes {
		names = append(names, string(t))
	}
	return names
}

/* IsValid reports whether t is one of the known action types */
func (t ActionType) IsValid() bool {
	for _, known := range actionTypes {
		if t == known {
			return true
		}
	}
	return false
}

/* ParseActionType converts a string into an ActionType */
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown action type %q, must be one of: %s", s, strings.Join(ActionTypeNames(), ", "))
	}
	return t, nil
}

/*
 * Action is a typed unit of work attached to a node path.
 * Input and Output are kept as raw JSON so the wire shape survives storage
 * unchanged; TypedInput/TypedOutput decode them by ActionType.
 */
type Action struct {
	ActionType  ActionType      `json:"ActionType" validate:"required,action_type"`
	Name        string          `json:"Name" validate:"required,max=32"`
	Description string          `json:"Description,omitempty" validate:"max=256"`
	RawInput    json.RawMessage `json:"RawInput,omitempty"`
	Input       json.RawMessage `json:"Input,omitempty"`
	RawOutput   json.RawMessage `json:"RawOutput,omitempty"`
	Output      json.RawMessage `json:"Output,omitempty"`
}

/* TypedInput decodes Input into the payload variant for the action type */
func (a Action) TypedInput() (Payload, error) {
	return DecodePayload(a.ActionType, a.Input)
}

/* TypedOutput decodes Output into the payload variant for the action type */
func (a Action) TypedOutput() (Payload, error) {
	return DecodePayload(a.ActionType, a.Output)
}
