package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadimport-cli/internal/config"
	"github.com/sells-group/leadimport-cli/internal/registry"
	"github.com/sells-group/leadimport-cli/internal/store"
)

// setTestConfig installs a minimal config for handler tests.
func setTestConfig(t *testing.T) {
	t.Helper()
	old := cfg
	cfg = &config.Config{
		Import: config.ImportConfig{
			Backend:       "store",
			DefaultSource: "csv_import",
			DefaultStatus: "New",
		},
		Server: config.ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
	}
	t.Cleanup(func() { cfg = old })
}

// newTestEnv builds a backendEnv over a throwaway sqlite store.
func newTestEnv(t *testing.T) *backendEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	return &backendEnv{
		Store:   st,
		Backend: "store",
		Create:  st.CreateLead,
		Ref:     registry.Fallback(),
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Reference(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	rr := doJSON(t, router, http.MethodGet, "/api/reference", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Sources  []struct{ Name string }
		Statuses []struct{ Name string }
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Sources)
	assert.NotEmpty(t, body.Statuses)
}

func TestRouter_Inspect(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/api/import/inspect", importRequest{
		Content: "Full Name,Email,Company\nJohn Smith,john@acme.com,Acme\nJane Doe,jane@x.com,X Corp\n",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Headers   []string          `json:"headers"`
		Mapping   map[string]string `json:"mapping"`
		Valid     bool              `json:"valid"`
		TotalRows int               `json:"total_rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"Full Name", "Email", "Company"}, body.Headers)
	assert.Equal(t, "Full Name", body.Mapping["name"])
	assert.Equal(t, "Email", body.Mapping["email"])
	assert.True(t, body.Valid)
	assert.Equal(t, 2, body.TotalRows)
}

func TestRouter_Inspect_EmptyContent(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/api/import/inspect", importRequest{Content: "\n\n"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRouter_Inspect_BadBody(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/api/import/inspect", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_Import(t *testing.T) {
	setTestConfig(t)
	env := newTestEnv(t)
	router := newRouter(env)

	rr := doJSON(t, router, http.MethodPost, "/api/import", importRequest{
		FileName: "leads.csv",
		Content:  "name,email\nJohn Smith,john@acme.com\n,missing@name.com\n",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		RunID        string `json:"run_id"`
		Banner       string `json:"banner"`
		SuccessCount int    `json:"success_count"`
		FailureCount int    `json:"failure_count"`
		Errors       []struct {
			Row    int    `json:"row"`
			Name   string `json:"name"`
			Reason string `json:"reason"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "partial", body.Banner)
	assert.Equal(t, 1, body.SuccessCount)
	assert.Equal(t, 1, body.FailureCount)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, 3, body.Errors[0].Row)
	assert.Equal(t, "(empty)", body.Errors[0].Name)

	// The run is persisted with its summary.
	run, err := env.Store.GetImportRun(context.Background(), body.RunID)
	require.NoError(t, err)
	assert.Equal(t, "leads.csv", run.FileName)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 1, run.Summary.SuccessCount)
}

func TestRouter_Import_IncompleteMapping(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/api/import", importRequest{
		Content: "name,phone\nJohn Smith,555-0100\n",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "name and email")
}

func TestRouter_Import_MappingOverride(t *testing.T) {
	setTestConfig(t)
	router := newRouter(newTestEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/api/import", importRequest{
		Content: "Person,Work Mail\nJohn Smith,john@acme.com\n",
		Mapping: map[string]string{"name": "Person", "email": "Work Mail"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		SuccessCount int `json:"success_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.SuccessCount)
}

func TestRouter_Runs(t *testing.T) {
	setTestConfig(t)
	env := newTestEnv(t)
	router := newRouter(env)

	rr := doJSON(t, router, http.MethodPost, "/api/import", importRequest{
		FileName: "leads.csv",
		Content:  "name,email\nJohn Smith,john@acme.com\n",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/runs", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var list struct {
		Runs []struct {
			ID string `json:"id"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)

	rr = doJSON(t, router, http.MethodGet, "/api/runs/"+list.Runs[0].ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/runs/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
