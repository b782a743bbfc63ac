package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

const (
	parentID = "0b8a3a4e-6a53-4a59-9b1c-0a6f4e1d2c3b"
	schemaID = "7f1c2d3e-4b5a-4c6d-8e9f-a0b1c2d3e4f5"
)

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/node-paths", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr
}

func TestValidateCreateNodePath(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		body       string
		wantErr    bool
		wantField  string
		checkModel func(t *testing.T, m *engine.CreateNodePathModel)
	}{
		{
			name: "minimal valid body gets defaults",
			body: `{"Type":"SendMessage","Name":"greet","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `"}`,
			checkModel: func(t *testing.T, m *engine.CreateNodePathModel) {
				assert.Equal(t, engine.ActionTypeSendMessage, m.Type)
				assert.Equal(t, "", m.Description)
				require.NotNil(t, m.Actions)
				assert.Empty(t, m.Actions)
				assert.Equal(t, uuid.MustParse(parentID), m.ParentNodeId)
			},
		},
		{
			name:      "missing parent node id",
			body:      `{"Type":"SendMessage","Name":"greet","SchemaId":"` + schemaID + `"}`,
			wantErr:   true,
			wantField: "ParentNodeId",
		},
		{
			name:      "missing schema id",
			body:      `{"Type":"SendMessage","Name":"greet","ParentNodeId":"` + parentID + `"}`,
			wantErr:   true,
			wantField: "SchemaId",
		},
		{
			name:      "malformed parent node id",
			body:      `{"Type":"SendMessage","Name":"greet","ParentNodeId":"nope","SchemaId":"` + schemaID + `"}`,
			wantErr:   true,
			wantField: "ParentNodeId",
		},
		{
			name:      "name longer than 32",
			body:      `{"Type":"SendMessage","Name":"` + strings.Repeat("n", 33) + `","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `"}`,
			wantErr:   true,
			wantField: "Name",
		},
		{
			name:      "unknown type",
			body:      `{"Type":"Teleport","Name":"greet","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `"}`,
			wantErr:   true,
			wantField: "Type",
		},
		{
			name:      "unknown key",
			body:      `{"Type":"Exit","Name":"x","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `","Extra":1}`,
			wantErr:   true,
			wantField: "Extra",
		},
		{
			name:      "unknown key inside an action",
			body:      `{"Type":"Exit","Name":"x","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `","Actions":[{"ActionType":"Exit","Name":"a"},{"ActionType":"Exit","Name":"b","Bogus":1}]}`,
			wantErr:   true,
			wantField: "Actions[1].Bogus",
		},
		{
			name:      "actions not an array",
			body:      `{"Type":"Exit","Name":"x","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `","Actions":{"ActionType":"Exit"}}`,
			wantErr:   true,
			wantField: "Actions",
		},
		{
			name:      "action without name",
			body:      `{"Type":"Exit","Name":"x","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `","Actions":[{"ActionType":"Exit"}]}`,
			wantErr:   true,
			wantField: "Actions[0].Name",
		},
		{
			name:      "action input shape mismatch",
			body:      `{"Type":"Exit","Name":"x","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `","Actions":[{"ActionType":"SendEmail","Name":"mail","Input":{"To":"one"}}]}`,
			wantErr:   true,
			wantField: "Actions[0].Input",
		},
		{
			name:      "empty body",
			body:      ``,
			wantErr:   true,
			wantField: "body",
		},
		{
			name: "actions keep order and kind",
			body: `{"Type":"SendMessage","Name":"flow","Description":"d","ParentNodeId":"` + parentID + `","SchemaId":"` + schemaID + `","Actions":[
				{"ActionType":"SendMessage","Name":"first","Input":{"To":["a"],"Body":"1"}},
				{"ActionType":"SendMessage","Name":"second","Input":{"To":["b"],"Body":"2"}},
				{"ActionType":"Exit","Name":"done"}]}`,
			checkModel: func(t *testing.T, m *engine.CreateNodePathModel) {
				require.Len(t, m.Actions, 3)
				assert.Equal(t, "d", m.Description)
				assert.Equal(t, "first", m.Actions[0].Name)
				assert.Equal(t, "second", m.Actions[1].Name)
				assert.Equal(t, engine.ActionTypeSendMessage, m.Actions[0].ActionType)
				assert.Equal(t, engine.ActionTypeSendMessage, m.Actions[1].ActionType)
				assert.Equal(t, engine.ActionTypeExit, m.Actions[2].ActionType)

				p, err := m.Actions[1].TypedInput()
				require.NoError(t, err)
				assert.Equal(t, "2", p.(engine.MessagePayload).Body)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := v.ValidateCreateNodePath(jsonRequest(http.MethodPost, tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, m)
				verr := requireValidationError(t, err)
				fields := make([]string, 0, len(verr.Errors))
				for _, fe := range verr.Errors {
					fields = append(fields, fe.Field)
				}
				assert.Contains(t, fields, tt.wantField)
				return
			}
			require.NoError(t, err)
			tt.checkModel(t, m)
		})
	}
}

func TestValidateCreateNodePathAggregates(t *testing.T) {
	_, err := New().ValidateCreateNodePath(jsonRequest(http.MethodPost, `{"Type":"SendMessage"}`))
	verr := requireValidationError(t, err)
	assert.GreaterOrEqual(t, len(verr.Errors), 3)
	assert.Equal(t, verr.Errors[0].Field, verr.Field)
}

func TestValidateUpdateNodePath(t *testing.T) {
	v := New()

	t.Run("absent, null and value are distinct", func(t *testing.T) {
		m, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPatch, `{"Name":"renamed","Description":null}`))
		require.NoError(t, err)

		assert.True(t, m.Name.HasValue())
		assert.Equal(t, "renamed", m.Name.Value)
		assert.True(t, m.Description.IsNull())
		assert.True(t, m.Type.IsUnset())
		assert.True(t, m.ParentNodeId.IsUnset())
		assert.True(t, m.SchemaId.IsUnset())
		assert.True(t, m.Actions.IsUnset())
	})

	t.Run("empty object leaves everything unset", func(t *testing.T) {
		m, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{}`))
		require.NoError(t, err)
		assert.True(t, m.IsEmpty())
	})

	t.Run("null actions", func(t *testing.T) {
		m, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{"Actions":null}`))
		require.NoError(t, err)
		assert.True(t, m.Actions.IsNull())
	})

	t.Run("clearing a required column fails", func(t *testing.T) {
		_, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{"Name":null}`))
		verr := requireValidationError(t, err)
		assert.Equal(t, "Name", verr.Field)
	})

	t.Run("per-field constraints apply", func(t *testing.T) {
		_, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{"SchemaId":"bad","Name":"`+strings.Repeat("x", 40)+`"}`))
		verr := requireValidationError(t, err)
		assert.Len(t, verr.Errors, 2)
	})

	t.Run("values are converted", func(t *testing.T) {
		m, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut,
			`{"Type":"Continue","ParentNodeId":"`+parentID+`","Actions":[{"ActionType":"SendSms","Name":"sms","Input":{"To":["1"],"Body":"b"}}]}`))
		require.NoError(t, err)
		assert.Equal(t, engine.ActionTypeContinue, m.Type.Value)
		assert.Equal(t, uuid.MustParse(parentID), m.ParentNodeId.Value)
		require.Len(t, m.Actions.Value, 1)
		assert.Equal(t, engine.ActionTypeSendSms, m.Actions.Value[0].ActionType)
	})

	t.Run("invalid nested action", func(t *testing.T) {
		_, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{"Actions":[{"ActionType":"Nope","Name":"a"}]}`))
		verr := requireValidationError(t, err)
		assert.Equal(t, "Actions[0].ActionType", verr.Field)
	})

	t.Run("unknown key inside an action", func(t *testing.T) {
		m, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{"Actions":[{"ActionType":"Exit","Name":"a","Bogus":1}]}`))
		assert.Nil(t, m)
		verr := requireValidationError(t, err)
		assert.Equal(t, "Actions[0].Bogus", verr.Field)
		assert.Equal(t, "is not allowed", verr.Message)
	})

	t.Run("wrong type inside an action", func(t *testing.T) {
		_, err := v.ValidateUpdateNodePath(jsonRequest(http.MethodPut, `{"Actions":[{"ActionType":"Exit","Name":7}]}`))
		verr := requireValidationError(t, err)
		assert.Equal(t, "Actions[0].Name", verr.Field)
	})
}

func TestRequestParamAsUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/node-paths/x", nil)

	id, err := RequestParamAsUUID(mux.SetURLVars(req, map[string]string{"id": parentID}), "id")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(parentID), id)

	_, err = RequestParamAsUUID(mux.SetURLVars(req, map[string]string{"id": "123"}), "id")
	verr := requireValidationError(t, err)
	assert.Equal(t, "id", verr.Field)

	_, err = RequestParamAsUUID(req, "id")
	assert.Error(t, err)
}
