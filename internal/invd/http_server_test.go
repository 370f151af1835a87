package invd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer() *HTTPServer {
	store := NewRunStore(0)
	return NewHTTPServer(store, newTestExecutor(store))
}

func doJSON(t *testing.T, srv *HTTPServer, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	srv.Handler().ServeHTTP(rr, req)

	decoded := map[string]any{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: invalid json response: %v", method, path, err)
		}
	}
	return rr, decoded
}

func createRunBody(runID string) string {
	body := map[string]any{"scenario_yaml": smallScenarioYAML}
	if runID != "" {
		body["run_id"] = runID
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestHTTPServerHealthz(t *testing.T) {
	srv := newTestServer()
	rr, body := doJSON(t, srv, http.MethodGet, "/healthz", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["timestamp"] == "" {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestHTTPServerCreateRun(t *testing.T) {
	srv := newTestServer()

	rr, body := doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %v", rr.Code, body)
	}
	run, ok := body["run"].(map[string]any)
	if !ok {
		t.Fatalf("expected run object, got %v", body)
	}
	if run["id"] != "run-1" {
		t.Fatalf("expected run id run-1, got %v", run["id"])
	}
	if run["status"] != string(StatusRunning) {
		t.Fatalf("expected status RUNNING, got %v", run["status"])
	}

	srv.Executor.Wait()
}

func TestHTTPServerCreateRunErrors(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"invalid json", "{nope", http.StatusBadRequest},
		{"missing scenario", `{"run_id":"x"}`, http.StatusBadRequest},
		{"unparsable scenario", `{"scenario_yaml":"{{bad"}`, http.StatusBadRequest},
		{"invalid scenario", `{"scenario_yaml":"policies: []"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := doJSON(t, srv, http.MethodPost, "/v1/runs", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %v", rr.Code, tt.wantCode, body)
			}
			if body["error"] == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestHTTPServerCreateRunDuplicate(t *testing.T) {
	srv := newTestServer()

	rr, _ := doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first create: status %d", rr.Code)
	}
	rr, _ = doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate create: status %d, want 409", rr.Code)
	}

	srv.Executor.Wait()
}

func TestHTTPServerListRuns(t *testing.T) {
	srv := newTestServer()
	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if rr, _ := doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody(id)); rr.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d", id, rr.Code)
		}
	}
	srv.Executor.Wait()

	rr, body := doJSON(t, srv, http.MethodGet, "/v1/runs?limit=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	runs, ok := body["runs"].([]any)
	if !ok || len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %v", body["runs"])
	}
	first := runs[0].(map[string]any)
	if first["id"] != "run-3" {
		t.Fatalf("expected newest first, got %v", first["id"])
	}
}

func TestHTTPServerGetRun(t *testing.T) {
	srv := newTestServer()
	doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))
	srv.Executor.Wait()

	rr, body := doJSON(t, srv, http.MethodGet, "/v1/runs/run-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: status %d", rr.Code)
	}
	run := body["run"].(map[string]any)
	if run["status"] != string(StatusCompleted) {
		t.Fatalf("expected completed run, got %v", run["status"])
	}

	rr, _ = doJSON(t, srv, http.MethodGet, "/v1/runs/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get missing: status %d, want 404", rr.Code)
	}
}

func TestHTTPServerGetResults(t *testing.T) {
	srv := newTestServer()
	doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))
	srv.Executor.Wait()

	rr, body := doJSON(t, srv, http.MethodGet, "/v1/runs/run-1/results", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("results: status %d: %v", rr.Code, body)
	}
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", body)
	}
	policies, ok := result["policies"].([]any)
	if !ok || len(policies) != 1 {
		t.Fatalf("expected 1 policy result, got %v", result["policies"])
	}
	kpis := result["kpis"].(map[string]any)
	if kpis["replication_count"].(float64) != 3 {
		t.Fatalf("expected 3 replications in KPIs, got %v", kpis["replication_count"])
	}

	rr, _ = doJSON(t, srv, http.MethodGet, "/v1/runs/missing/results", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("results for missing run: status %d, want 404", rr.Code)
	}
}

func TestHTTPServerResultsNotReady(t *testing.T) {
	store := NewRunStore(0)
	srv := NewHTTPServer(store, newTestExecutor(store))
	if _, err := store.Create("run-1", smallScenarioYAML); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rr, _ := doJSON(t, srv, http.MethodGet, "/v1/runs/run-1/results", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("pending results: status %d, want 404", rr.Code)
	}
}

func TestHTTPServerStopRun(t *testing.T) {
	srv := newTestServer()
	doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))

	rr, body := doJSON(t, srv, http.MethodPost, "/v1/runs/run-1:stop", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stop: status %d: %v", rr.Code, body)
	}
	run := body["run"].(map[string]any)
	if run["status"] != string(StatusCancelled) {
		t.Fatalf("expected cancelled, got %v", run["status"])
	}

	rr, _ = doJSON(t, srv, http.MethodPost, "/v1/runs/missing:stop", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("stop missing: status %d, want 404", rr.Code)
	}

	srv.Executor.Wait()
}

func TestHTTPServerMethodNotAllowed(t *testing.T) {
	srv := newTestServer()
	doJSON(t, srv, http.MethodPost, "/v1/runs", createRunBody("run-1"))
	srv.Executor.Wait()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/v1/runs"},
		{http.MethodGet, "/v1/runs/run-1:stop"},
		{http.MethodPost, "/v1/runs/run-1/results"},
		{http.MethodPut, "/v1/runs/run-1"},
	}
	for _, tt := range tests {
		rr, _ := doJSON(t, srv, tt.method, tt.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status %d, want 405", tt.method, tt.path, rr.Code)
		}
	}
}
