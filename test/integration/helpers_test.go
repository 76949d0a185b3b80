package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/parametric-labs/searchspace/pkg/api"
	"github.com/parametric-labs/searchspace/pkg/store"
)

// newServer builds a fresh API server over an empty store for one test.
func newServer(t *testing.T) *api.Server {
	t.Helper()
	return api.New(store.New())
}

// loadSpace reads a YAML search-space definition from the testdata directory.
func loadSpace(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load space %s: %v", name, err)
	}
	return string(data)
}

// request performs one in-process API call and decodes the JSON response.
func request(t *testing.T, srv *api.Server, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s %s returned non-JSON: %s", method, path, raw)
		}
	}
	return resp.StatusCode, decoded
}

// createSpace registers a definition and fails the test on rejection.
func createSpace(t *testing.T, srv *api.Server, name, source string) {
	t.Helper()
	code, body := request(t, srv, http.MethodPost, "/v1/spaces", map[string]string{
		"name":           name,
		"sourceContents": source,
	})
	if code != 201 {
		t.Fatalf("create %s returned %d: %v", name, code, body)
	}
}

// evaluate posts bindings and returns the evaluation result.
func evaluate(t *testing.T, srv *api.Server, name string, bindings map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	return request(t, srv, http.MethodPost, "/v1/spaces/"+name+"/evaluate", map[string]interface{}{
		"bindings": bindings,
	})
}
