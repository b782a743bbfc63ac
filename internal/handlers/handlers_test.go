package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/injector"
	"github.com/neurondb/NeuronFlow/internal/response"
	"github.com/neurondb/NeuronFlow/internal/storage"
	testutil "github.com/neurondb/NeuronFlow/internal/testing"
)

/* fakeNodePaths returns canned results and counts calls */
type fakeNodePaths struct {
	path    *engine.NodePath
	deleted bool
	err     error
	calls   int

	lastUpdate  *engine.UpdateNodePathModel
	lastFilters *engine.NodePathSearchFilters
}

func (f *fakeNodePaths) Create(ctx context.Context, m *engine.CreateNodePathModel) (*engine.NodePath, error) {
	f.calls++
	return f.path, f.err
}

func (f *fakeNodePaths) Update(ctx context.Context, id uuid.UUID, m *engine.UpdateNodePathModel) (*engine.NodePath, error) {
	f.calls++
	f.lastUpdate = m
	return f.path, f.err
}

func (f *fakeNodePaths) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	f.calls++
	return f.deleted, f.err
}

func (f *fakeNodePaths) GetByID(ctx context.Context, id uuid.UUID) (*engine.NodePath, error) {
	f.calls++
	return f.path, f.err
}

func (f *fakeNodePaths) Search(ctx context.Context, filters *engine.NodePathSearchFilters) (*engine.SearchResults[engine.NodePath], error) {
	f.calls++
	f.lastFilters = filters
	if f.err != nil || f.path == nil {
		return nil, f.err
	}
	res := engine.NewSearchResults([]engine.NodePath{*f.path}, 1, filters.SearchFilters)
	return &res, nil
}

func (f *fakeNodePaths) ListByParent(ctx context.Context, parentID uuid.UUID) ([]engine.NodePath, error) {
	f.calls++
	if f.path == nil {
		return nil, f.err
	}
	return []engine.NodePath{*f.path}, f.err
}

func (f *fakeNodePaths) SetNextNode(ctx context.Context, id, nextNodeID uuid.UUID) (*engine.NodePath, error) {
	f.calls++
	return f.path, f.err
}

type fakeParticipants struct {
	participant *engine.Participant
	calls       int
}

func (f *fakeParticipants) Create(ctx context.Context, m *engine.CreateParticipantModel) (*engine.Participant, error) {
	f.calls++
	return f.participant, nil
}

func (f *fakeParticipants) GetByID(ctx context.Context, id uuid.UUID) (*engine.Participant, error) {
	f.calls++
	return f.participant, nil
}

func (f *fakeParticipants) ListByClient(ctx context.Context, clientID uuid.UUID) ([]engine.Participant, error) {
	f.calls++
	return nil, nil
}

func samplePath() *engine.NodePath {
	now := time.Now().UTC()
	return &engine.NodePath{
		ID:           uuid.New(),
		Type:         engine.ActionTypeSendEmail,
		Name:         "welcome",
		ParentNodeId: uuid.New(),
		SchemaId:     uuid.New(),
		Actions:      []engine.Action{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"Type":         "SendEmail",
		"Name":         "welcome",
		"ParentNodeId": uuid.NewString(),
		"SchemaId":     uuid.NewString(),
	}
}

type envelope struct {
	Status   string          `json:"Status"`
	Message  string          `json:"Message"`
	HttpCode int             `json:"HttpCode"`
	Code     string          `json:"Code"`
	Data     json.RawMessage `json:"Data"`
	Errors   []struct {
		Field   string `json:"Field"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

func newClient(t *testing.T, d RouterDeps) *testutil.TestClient {
	t.Helper()
	if d.Logger == nil {
		d.Logger = testutil.TestLogger()
	}
	return testutil.NewTestClient(t, NewRouter(d))
}

func call(t *testing.T, tc *testutil.TestClient, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	resp, err := tc.Do(method, path, body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, testutil.ParseResponse(t, resp, &env))
	return resp.StatusCode, env
}

func TestNodePathCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeNodePaths{path: samplePath()}
		tc := newClient(t, RouterDeps{NodePaths: svc})

		code, env := call(t, tc, http.MethodPost, "/api/v1/node-paths", validCreateBody())
		assert.Equal(t, http.StatusCreated, code)
		assert.Equal(t, response.StatusSuccess, env.Status)

		var data nodePathData
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, svc.path.ID, data.NodePath.ID)
	})

	t.Run("null result is an operation failure", func(t *testing.T) {
		tc := newClient(t, RouterDeps{NodePaths: &fakeNodePaths{}})
		code, env := call(t, tc, http.MethodPost, "/api/v1/node-paths", validCreateBody())
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, response.CodeOperationFailed, env.Code)
	})

	t.Run("invalid body never reaches the service", func(t *testing.T) {
		svc := &fakeNodePaths{path: samplePath()}
		tc := newClient(t, RouterDeps{NodePaths: svc})

		body := validCreateBody()
		body["Type"] = "Teleport"
		delete(body, "SchemaId")
		code, env := call(t, tc, http.MethodPost, "/api/v1/node-paths", body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, response.CodeValidationFailed, env.Code)
		assert.NotEmpty(t, env.Errors)
		assert.Zero(t, svc.calls)

		code, _ = call(t, tc, http.MethodPost, "/api/v1/node-paths", "{not json")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Zero(t, svc.calls)
	})

	t.Run("service error is a 500", func(t *testing.T) {
		tc := newClient(t, RouterDeps{NodePaths: &fakeNodePaths{err: errors.New("db down")}})
		code, env := call(t, tc, http.MethodPost, "/api/v1/node-paths", validCreateBody())
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, response.CodeInternalError, env.Code)
		assert.NotContains(t, env.Message, "db down")
	})
}

func TestNodePathUpdate(t *testing.T) {
	svc := &fakeNodePaths{path: samplePath()}
	tc := newClient(t, RouterDeps{NodePaths: svc})

	code, _ := call(t, tc, http.MethodPatch, "/api/v1/node-paths/"+uuid.NewString(), `{"Name":"renamed","Description":null}`)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, svc.lastUpdate)
	assert.Equal(t, "renamed", svc.lastUpdate.Name.Value)
	assert.True(t, svc.lastUpdate.Description.Set)
	assert.True(t, svc.lastUpdate.Description.Null)
	assert.False(t, svc.lastUpdate.Type.Set)

	svc.path = nil
	code, env := call(t, tc, http.MethodPut, "/api/v1/node-paths/"+uuid.NewString(), `{"Name":"renamed"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.CodeOperationFailed, env.Code)

	calls := svc.calls
	code, env = call(t, tc, http.MethodPut, "/api/v1/node-paths/not-a-uuid", `{"Name":"renamed"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.CodeValidationFailed, env.Code)
	assert.Equal(t, calls, svc.calls)
}

func TestNodePathGetAndDelete(t *testing.T) {
	svc := &fakeNodePaths{path: samplePath(), deleted: true}
	tc := newClient(t, RouterDeps{NodePaths: svc})
	id := uuid.NewString()

	code, _ := call(t, tc, http.MethodGet, "/api/v1/node-paths/"+id, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := call(t, tc, http.MethodDelete, "/api/v1/node-paths/"+id, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"Deleted":true}`, string(env.Data))

	svc.path, svc.deleted = nil, false
	code, env = call(t, tc, http.MethodGet, "/api/v1/node-paths/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.CodeNotFound, env.Code)

	code, env = call(t, tc, http.MethodDelete, "/api/v1/node-paths/"+id, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"Deleted":false}`, string(env.Data))
}

func TestNodePathSearch(t *testing.T) {
	svc := &fakeNodePaths{path: samplePath()}
	tc := newClient(t, RouterDeps{NodePaths: svc})

	parent := uuid.NewString()
	code, env := call(t, tc, http.MethodGet,
		"/api/v1/node-paths/search?type=SendEmail&name=wel&parentNodeId="+parent+"&itemsPerPage=10&orderBy=Name&order=ascending", nil)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, svc.lastFilters)
	assert.Equal(t, engine.ActionTypeSendEmail, *svc.lastFilters.Type)
	assert.Equal(t, "wel", *svc.lastFilters.Name)
	assert.Equal(t, parent, svc.lastFilters.ParentNodeId.String())
	assert.Nil(t, svc.lastFilters.SchemaId)
	assert.Equal(t, 10, svc.lastFilters.ItemsPerPage)

	var data struct {
		NodePathRecords engine.SearchResults[engine.NodePath] `json:"NodePathRecords"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.NodePathRecords.TotalRecords)
	assert.Len(t, data.NodePathRecords.Records, 1)

	svc.path = nil
	code, env = call(t, tc, http.MethodGet, "/api/v1/node-paths/search", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"Records":[]`)

	calls := svc.calls
	code, env = call(t, tc, http.MethodGet, "/api/v1/node-paths/search?itemsPerPage=500&schemaId=nope", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Len(t, env.Errors, 2)
	assert.Equal(t, calls, svc.calls)
}

func TestNodePathListAndSetNext(t *testing.T) {
	svc := &fakeNodePaths{}
	tc := newClient(t, RouterDeps{NodePaths: svc})

	code, env := call(t, tc, http.MethodGet, "/api/v1/nodes/"+uuid.NewString()+"/paths", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"NodePaths":[]}`, string(env.Data))

	code, env = call(t, tc, http.MethodPut, "/api/v1/node-paths/"+uuid.NewString()+"/next-node/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.CodeNotFound, env.Code)

	svc.path = samplePath()
	code, _ = call(t, tc, http.MethodPut, "/api/v1/node-paths/"+uuid.NewString()+"/next-node/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, code)

	calls := svc.calls
	code, env = call(t, tc, http.MethodPut, "/api/v1/node-paths/bad/next-node/worse", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Len(t, env.Errors, 2)
	assert.Equal(t, calls, svc.calls)
}

func TestParticipantRoutes(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakeParticipants{participant: &engine.Participant{
		ID:        uuid.New(),
		ClientId:  uuid.New(),
		Person:    engine.Person{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	tc := newClient(t, RouterDeps{Participants: svc})

	code, _ := call(t, tc, http.MethodPost, "/api/v1/participants", map[string]interface{}{
		"ClientId":  uuid.NewString(),
		"FirstName": "Ada",
		"LastName":  "Lovelace",
		"Email":     "ada@example.com",
	})
	assert.Equal(t, http.StatusCreated, code)

	calls := svc.calls
	code, env := call(t, tc, http.MethodPost, "/api/v1/participants", map[string]interface{}{
		"ClientId": "x",
		"Email":    "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.CodeValidationFailed, env.Code)
	assert.Equal(t, calls, svc.calls)

	code, env = call(t, tc, http.MethodGet, "/api/v1/clients/"+uuid.NewString()+"/participants", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"Participants":[]}`, string(env.Data))

	svc.participant = nil
	code, _ = call(t, tc, http.MethodGet, "/api/v1/participants/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUnknownRoute(t *testing.T) {
	tc := newClient(t, RouterDeps{})
	code, env := call(t, tc, http.MethodGet, "/api/v1/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.CodeNotFound, env.Code)

	code, env = call(t, tc, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, response.CodeMethodNotAllowed, env.Code)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func fileContainer(t *testing.T) *injector.Container {
	t.Helper()
	fs, err := storage.NewCustomStorage(t.TempDir())
	require.NoError(t, err)
	c := injector.New()
	require.NoError(t, c.Register(injector.CapabilityFileStorage, fs))
	c.Seal()
	return c
}

func TestFilesUnavailableWithoutProvider(t *testing.T) {
	tc := newClient(t, RouterDeps{Container: injector.New()})
	code, env := call(t, tc, http.MethodGet, "/api/v1/files/a/b.txt", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, response.CodeCapabilityUnavailable, env.Code)
}

func TestFilesRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	handler := NewRouter(RouterDeps{
		Logger:         testutil.TestLogger(),
		Container:      fileContainer(t),
		TempDir:        tempDir,
		MaxUploadBytes: 1 << 20,
	})

	body, contentType := multipartBody(t, "hello.txt", "hello world")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files?key=docs/hello.txt", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Key":"docs/hello.txt"`)

	spooled, err := filepath.Glob(filepath.Join(tempDir, UploadTempPattern))
	require.NoError(t, err)
	assert.Empty(t, spooled, "spool files are removed after upload")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/docs/hello.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/files/docs/hello.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Deleted":true`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/docs/hello.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilesRejectsTraversalAndOversize(t *testing.T) {
	handler := NewRouter(RouterDeps{
		Logger:         testutil.TestLogger(),
		Container:      fileContainer(t),
		TempDir:        t.TempDir(),
		MaxUploadBytes: 1024,
	})

	body, contentType := multipartBody(t, "x.txt", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files?key=../../etc/passwd", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, target := range []string{"/api/v1/files/a.meta.json", "/api/v1/files/dir/b.meta.json/"} {
		req = httptest.NewRequest(http.MethodGet, target, nil)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), response.CodeValidationFailed, target)
		assert.Contains(t, rec.Body.String(), "reserved suffix", target)
	}

	body, contentType = multipartBody(t, "x.txt", "x")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/files?key=docs/report.meta.json", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartBody(t, "sidecar.meta.json", "{}")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartBody(t, "big.bin", strings.Repeat("a", 8192))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), response.CodePayloadTooLarge)
}

type stubDB struct{ err error }

func (s stubDB) HealthCheck(ctx context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	tc := newClient(t, RouterDeps{DB: stubDB{}, Container: fileContainer(t), DiskPath: os.TempDir()})
	code, env := call(t, tc, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)

	var health HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "pass", health.Checks["file_storage"].Status)
	require.NotNil(t, health.System)

	tc = newClient(t, RouterDeps{DB: stubDB{err: errors.New("refused")}})
	code, env = call(t, tc, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "refused", health.Checks["database"].Message)
}
