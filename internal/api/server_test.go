package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/store"
)

const testAPIKey = "test-key"

// memStore is an in-memory result store for handler tests.
type memStore struct {
	mu   sync.Mutex
	recs map[string]store.Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]store.Record)}
}

func (m *memStore) Get(_ context.Context, hash string) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, hash)
	}
	return &rec, nil
}

func (m *memStore) Put(_ context.Context, rec store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.recs[rec.ContentHash] = rec
	return nil
}

func (m *memStore) List(_ context.Context, limit int) ([]store.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Summary{}
	for _, rec := range m.recs {
		out = append(out, store.Summary{
			ContentHash: rec.ContentHash,
			Filename:    rec.Filename,
			Title:       rec.Result.Title,
			Entries:     len(rec.Result.Outline),
			CreatedAt:   rec.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContentHash < out[j].ContentHash })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[hash]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, hash)
	}
	delete(m.recs, hash)
	return nil
}

func (m *memStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs), nil
}

const reportStext = `{"pages":[
 {"blocks":[{"type":"text","lines":[
  {"font":{"name":"Helvetica","size":24},"text":"Annual Report"},
  {"font":{"name":"Helvetica","size":12},"text":"Fiscal year overview"}]}]},
 {"blocks":[{"type":"text","lines":[
  {"font":{"name":"Helvetica","size":18},"text":"1. Introduction"},
  {"font":{"name":"Helvetica","size":12},"text":"Body text"}]}]}
]}`

func testConfig() config.Config {
	return config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    2,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		StatsWindow:    time.Hour,
	}
}

type testEnv struct {
	srv  *httptest.Server
	orch *pipeline.Orchestrator
	docs *memStore
}

// newTestEnv starts a server. With start false no workers run, so submitted
// jobs stay queued.
func newTestEnv(t *testing.T, start, withStore bool) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	env := &testEnv{}
	var rs pipeline.ResultStore
	var ds DocumentStore
	if withStore {
		env.docs = newMemStore()
		rs, ds = env.docs, env.docs
	}
	env.orch = pipeline.NewOrchestrator(cfg, rs, log)
	if start {
		env.orch.Start(context.Background())
	}
	env.srv = httptest.NewServer(NewServer(env.orch, ds, log, cfg))
	t.Cleanup(func() {
		env.srv.Close()
		env.orch.Stop()
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type upload struct {
	name string
	data string
}

func multipartBody(t *testing.T, field string, files ...upload) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(f.data))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) submit(t *testing.T, name, data string) string {
	t.Helper()
	body, ct := multipartBody(t, "file", upload{name, data})
	resp := e.do(t, http.MethodPost, "/api/outline", body, ct)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var accepted map[string]any
	decode(t, resp, &accepted)
	id, _ := accepted["job_id"].(string)
	if id == "" {
		t.Fatalf("missing job_id in %v", accepted)
	}
	return id
}

func (e *testEnv) waitJob(t *testing.T, id string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := e.do(t, http.MethodGet, "/api/outline/"+id+"/status", nil, "")
		var snap pipeline.JobSnapshot
		decode(t, resp, &snap)
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return pipeline.JobSnapshot{}
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t, false, false)
	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, false, false)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testAPIKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestOutlineLifecycle(t *testing.T) {
	env := newTestEnv(t, true, true)
	id := env.submit(t, "report.json", reportStext)

	snap := env.waitJob(t, id)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}

	resp := env.do(t, http.MethodGet, "/api/outline/"+id, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res outline.Result
	decode(t, resp, &res)
	if res.Title != "Annual Report" {
		t.Errorf("expected title %q, got %q", "Annual Report", res.Title)
	}
	if len(res.Outline) == 0 || res.Outline[0].Text != "1. Introduction" || res.Outline[0].Page != 1 {
		t.Errorf("unexpected outline %+v", res.Outline)
	}

	md := env.do(t, http.MethodGet, "/api/outline/"+id+"?format=markdown", nil, "")
	if ct := md.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}

	xlsx := env.do(t, http.MethodGet, "/api/outline/"+id+"?format=xlsx", nil, "")
	if cd := xlsx.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="report.xlsx"`) {
		t.Errorf("expected attachment name report.xlsx, got %q", cd)
	}

	bad := env.do(t, http.MethodGet, "/api/outline/"+id+"?format=pdf", nil, "")
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", bad.StatusCode)
	}

	// The same bytes again are served from the store.
	again := env.submit(t, "copy.json", reportStext)
	if snap := env.waitJob(t, again); snap.Status != pipeline.StatusCached {
		t.Errorf("expected cached, got %q", snap.Status)
	}
}

func TestOutlineUploadRejected(t *testing.T) {
	env := newTestEnv(t, false, false)

	body, ct := multipartBody(t, "file", upload{"notes.txt", "plain"})
	resp := env.do(t, http.MethodPost, "/api/outline", body, ct)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", resp.StatusCode)
	}

	empty, ct := multipartBody(t, "other")
	resp = env.do(t, http.MethodPost, "/api/outline", empty, ct)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without a file, got %d", resp.StatusCode)
	}
}

func TestOutlineResultStates(t *testing.T) {
	t.Run("unknown job", func(t *testing.T) {
		env := newTestEnv(t, false, false)
		resp := env.do(t, http.MethodGet, "/api/outline/nope", nil, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("pending", func(t *testing.T) {
		env := newTestEnv(t, false, false)
		id := env.submit(t, "report.json", reportStext)
		resp := env.do(t, http.MethodGet, "/api/outline/"+id, nil, "")
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("failed", func(t *testing.T) {
		env := newTestEnv(t, true, false)
		id := env.submit(t, "broken.json", `{"pages": [`)
		if snap := env.waitJob(t, id); snap.Status != pipeline.StatusFailed {
			t.Fatalf("expected failed, got %q", snap.Status)
		}
		resp := env.do(t, http.MethodGet, "/api/outline/"+id, nil, "")
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", resp.StatusCode)
		}
	})
}

func TestBatchOutline(t *testing.T) {
	env := newTestEnv(t, false, false)
	body, ct := multipartBody(t, "files",
		upload{"a.json", reportStext},
		upload{"b.docx", "not supported"},
	)
	resp := env.do(t, http.MethodPost, "/api/outline/batch", body, ct)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var out struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decode(t, resp, &out)
	if len(out.Jobs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Jobs))
	}
	if out.Jobs[0]["job_id"] == nil {
		t.Errorf("expected a job for a.json, got %v", out.Jobs[0])
	}
	if out.Jobs[1]["error"] == nil {
		t.Errorf("expected an error for b.docx, got %v", out.Jobs[1])
	}
}

func TestDocuments(t *testing.T) {
	env := newTestEnv(t, false, true)
	env.docs.Put(context.Background(), store.Record{
		ContentHash: "abc",
		Filename:    "report.pdf",
		Result: outline.Result{
			Title:   "Annual Report",
			Outline: []outline.Entry{{Level: outline.H1, Text: "Overview", Page: 1}},
		},
	})

	resp := env.do(t, http.MethodGet, "/api/documents?limit=10", nil, "")
	var list struct {
		Documents []store.Summary `json:"documents"`
	}
	decode(t, resp, &list)
	if len(list.Documents) != 1 || list.Documents[0].Entries != 1 {
		t.Errorf("unexpected listing %+v", list.Documents)
	}

	if resp := env.do(t, http.MethodGet, "/api/documents?limit=zero", nil, ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/documents/abc", nil, "")
	var res outline.Result
	decode(t, resp, &res)
	if res.Title != "Annual Report" {
		t.Errorf("unexpected stored result %+v", res)
	}

	if resp := env.do(t, http.MethodGet, "/api/documents/missing", nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodDelete, "/api/documents/abc", nil, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodDelete, "/api/documents/abc", nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestDocumentsStoreDisabled(t *testing.T) {
	env := newTestEnv(t, false, false)
	resp := env.do(t, http.MethodGet, "/api/documents", nil, "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, false, true)
	env.submit(t, "report.json", reportStext)

	resp := env.do(t, http.MethodGet, "/api/stats", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["queue_depth"] != float64(1) {
		t.Errorf("expected queue_depth 1, got %v", body["queue_depth"])
	}
	if body["stored_documents"] != float64(0) {
		t.Errorf("expected stored_documents 0, got %v", body["stored_documents"])
	}
	if _, ok := body["latency"]; !ok {
		t.Error("expected latency snapshot")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd.pdf", "passwd.pdf"},
		{"a..b.pdf", "a_b.pdf"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
