package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestClient provides an HTTP client against an in-process server
type TestClient struct {
	Server *httptest.Server
	Token  string
	APIKey string
}

// NewTestClient starts a test server for handler and closes it on cleanup
func NewTestClient(t *testing.T, handler http.Handler) *TestClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &TestClient{Server: server}
}

// Do performs an HTTP request; string and []byte bodies are sent verbatim
func (tc *TestClient) Do(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = bytes.NewBufferString(b)
	case []byte:
		reqBody = bytes.NewBuffer(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, tc.Server.URL+path, reqBody)
	if err != nil {
		return nil, err
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}
	if tc.APIKey != "" {
		req.Header.Set("X-API-Key", tc.APIKey)
	}

	return tc.Server.Client().Do(req)
}

// Get performs a GET request
func (tc *TestClient) Get(path string) (*http.Response, error) {
	return tc.Do(http.MethodGet, path, nil)
}

// Post performs a POST request
func (tc *TestClient) Post(path string, body interface{}) (*http.Response, error) {
	return tc.Do(http.MethodPost, path, body)
}

// Put performs a PUT request
func (tc *TestClient) Put(path string, body interface{}) (*http.Response, error) {
	return tc.Do(http.MethodPut, path, body)
}

// Patch performs a PATCH request
func (tc *TestClient) Patch(path string, body interface{}) (*http.Response, error) {
	return tc.Do(http.MethodPatch, path, body)
}

// Delete performs a DELETE request
func (tc *TestClient) Delete(path string) (*http.Response, error) {
	return tc.Do(http.MethodDelete, path, nil)
}

// ParseResponse decodes a JSON response body into v
func ParseResponse(t *testing.T, resp *http.Response, v interface{}) error {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w: %s", resp.StatusCode, err, string(body))
	}
	return nil
}

// AssertStatus asserts response status code
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()

	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(body))
	}
}
