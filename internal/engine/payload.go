package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

/* Payload is the typed body of an action's input or output */
type Payload interface {
	Kind() ActionType
}

/* MessagePayload carries a chat/message send */
type MessagePayload struct {
	Channel string   `json:"Channel,omitempty"`
	To      []string `json:"To"`
	Body    string   `json:"Body"`
}

func (MessagePayload) Kind() ActionType { return ActionTypeSendMessage }

/* EmailPayload carries an email send */
type EmailPayload struct {
	To      []string `json:"To"`
	Cc      []string `json:"Cc,omitempty"`
	Subject string   `json:"Subject"`
	Body    string   `json:"Body"`
	IsHTML  bool     `json:"IsHtml,omitempty"`
}

func (EmailPayload) Kind() ActionType { return ActionTypeSendEmail }

/* SmsPayload carries an SMS send */
type SmsPayload struct {
	To   []string `json:"To"`
	Body string   `json:"Body"`
}

func (SmsPayload) Kind() ActionType { return ActionTypeSendSms }

/* RestCallPayload describes an outbound REST call */
type RestCallPayload struct {
	Method  string            `json:"Method"`
	URL     string            `json:"Url"`
	Headers map[string]string `json:"Headers,omitempty"`
	Query   map[string]string `json:"Query,omitempty"`
	Body    json.RawMessage   `json:"Body,omitempty"`
}

func (RestCallPayload) Kind() ActionType { return ActionTypeRestApiCall }

/* FunctionCallPayload names a function and its arguments */
type FunctionCallPayload struct {
	Function  string                 `json:"Function"`
	Arguments map[string]interface{} `json:"Arguments,omitempty"`
}

func (FunctionCallPayload) Kind() ActionType { return ActionTypeFunctionCall }

/* DataStorePayload describes a record written to a data store */
type DataStorePayload struct {
	Store  string                 `json:"Store"`
	Key    string                 `json:"Key,omitempty"`
	Record map[string]interface{} `json:"Record,omitempty"`
}

func (DataStorePayload) Kind() ActionType { return ActionTypeStoreToDatabase }

/* OpaquePayload holds a payload for action types without a known shape */
type OpaquePayload struct {
	ActionKind ActionType
	Raw        json.RawMessage
}

func (p OpaquePayload) Kind() ActionType { return p.ActionKind }

/*
 * DecodePayload decodes raw JSON into the payload variant for kind.
 * Empty or null input yields a nil payload. Exit and Continue carry no schema
 * and always come back as OpaquePayload.
 */
func DecodePayload(kind ActionType, raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}

	switch kind {
	case ActionTypeSendMessage:
		return decodeInto[MessagePayload](trimmed)
	case ActionTypeSendEmail:
		return decodeInto[EmailPayload](trimmed)
	case ActionTypeSendSms:
		return decodeInto[SmsPayload](trimmed)
	case ActionTypeRestApiCall:
		return decodeInto[RestCallPayload](trimmed)
	case ActionTypeFunctionCall:
		return decodeInto[FunctionCallPayload](trimmed)
	case ActionTypeStoreToDatabase:
		return decodeInto[DataStorePayload](trimmed)
	default:
		return OpaquePayload{ActionKind: kind, Raw: append(json.RawMessage(nil), trimmed...)}, nil
	}
}

func decodeInto[T Payload](raw []byte) (Payload, error) {
	var p T
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payload does not match %s shape: %w", p.Kind(), err)
	}
	return p, nil
}
