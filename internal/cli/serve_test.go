package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/rmrender/pkg/cache"
	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	"github.com/matzehuels/rmrender/pkg/observability"
	"github.com/matzehuels/rmrender/pkg/pipeline"
)

func testServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{})
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newServer(pipeline.NewRunner(fc, nil, logger), cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
	Meta    apiMeta         `json:"meta"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHealth(t *testing.T) {
	srv := testServer(t, &Config{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	var info healthInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatal(err)
	}
	if !env.Success || info.Status != "ok" {
		t.Errorf("health = %+v, want success with status ok", info)
	}
	if env.Meta.RequestID == "" || resp.Header.Get(requestIDHeader) != env.Meta.RequestID {
		t.Errorf("request id header %q, body %q; want equal and set", resp.Header.Get(requestIDHeader), env.Meta.RequestID)
	}
}

func TestServeRequestIDPassthrough(t *testing.T) {
	srv := testServer(t, &Config{})
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(requestIDHeader); got != id {
		t.Errorf("X-Request-ID = %q, want %q", got, id)
	}
}

func TestServeRenderSVG(t *testing.T) {
	srv := testServer(t, &Config{})
	body := testPageFile(t)

	resp := post(t, srv.URL+"/v1/pages/render?format=svg&template=Blank", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("<svg")) || !bytes.Contains(buf.Bytes(), []byte("<path")) {
		t.Errorf("body is not a rendered page: %.80s", buf.String())
	}

	again := post(t, srv.URL+"/v1/pages/render?format=svg&template=Blank", body)
	if got := again.Header.Get("X-Cache"); got != "HIT" {
		t.Errorf("second request X-Cache = %q, want HIT", got)
	}
}

func TestServeAnnotations(t *testing.T) {
	srv := testServer(t, &Config{})

	resp := post(t, srv.URL+"/v1/pages/annotations?id=page-1", testPageFile(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	var page sink.AnnotationPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.ID != "page-1" {
		t.Errorf("ID = %q, want page-1", page.ID)
	}
	if len(page.Layers) != 1 || len(page.Layers[0].Groups) != 1 {
		t.Fatalf("layers = %+v, want one layer with one group", page.Layers)
	}
	if g := page.Layers[0].Groups[0]; g.Color == "" {
		t.Errorf("group colour = %q, want set", g.Color)
	}
}

func TestServeDocumentAnnotations(t *testing.T) {
	srv := testServer(t, &Config{})

	t.Run("partial failure", func(t *testing.T) {
		resp := post(t, srv.URL+"/v1/documents/annotations", testArchive(t, true))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var got documentAnnotations
		if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &got); err != nil {
			t.Fatal(err)
		}
		if got.ID != testDocID {
			t.Errorf("ID = %q, want %q", got.ID, testDocID)
		}
		if len(got.Pages) != 1 || got.Pages[0].ID != "p1" {
			t.Errorf("pages = %+v, want only p1", got.Pages)
		}
		if len(got.Failed) != 1 || got.Failed[0].Page != 2 || got.Failed[0].Code != "FORMAT_MISMATCH" {
			t.Errorf("failed = %+v, want page 2 with FORMAT_MISMATCH", got.Failed)
		}
	})

	t.Run("page selection", func(t *testing.T) {
		resp := post(t, srv.URL+"/v1/documents/annotations?pages=1", testArchive(t, true))
		var got documentAnnotations
		if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Pages) != 1 || len(got.Failed) != 0 {
			t.Errorf("pages = %d, failed = %d, want 1, 0", len(got.Pages), len(got.Failed))
		}
	})

	errs := []struct {
		name    string
		path    string
		body    []byte
		wantErr string
	}{
		{"not an archive", "/v1/documents/annotations", testPageFile(t), "INVALID_FORMAT"},
		{"page out of range", "/v1/documents/annotations?pages=5", testArchive(t, false), "INVALID_INPUT"},
		{"bad page spec", "/v1/documents/annotations?pages=x", testArchive(t, false), "INVALID_INPUT"},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if env := decodeEnvelope(t, resp); env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestServeErrors(t *testing.T) {
	srv := testServer(t, &Config{Server: ServerConfig{MaxBodyBytes: 64}})
	big := append(testPageFile(t), make([]byte, 128)...)

	tests := []struct {
		name     string
		path     string
		body     []byte
		wantCode int
		wantErr  string
	}{
		{"bad format", "/v1/pages/render?format=tiff", testPageFile(t)[:60], http.StatusBadRequest, "INVALID_FORMAT"},
		{"empty body", "/v1/pages/render", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"short file", "/v1/pages/render", []byte("garbage"), http.StatusUnprocessableEntity, "FORMAT_MISMATCH"},
		{"unknown header", "/v1/pages/annotations", bytes.Repeat([]byte("x"), 50), http.StatusUnprocessableEntity, "UNSUPPORTED_VERSION"},
		{"bad page id", "/v1/pages/annotations?id=../x", testPageFile(t)[:60], http.StatusBadRequest, "INVALID_PAGE_ID"},
		{"bad alpha", "/v1/pages/render?alpha=lots", testPageFile(t)[:60], http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", "/v1/pages/render", big, http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			env := decodeEnvelope(t, resp)
			if env.Success || env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestServeNotFound(t *testing.T) {
	srv := testServer(t, &Config{})
	resp, err := http.Get(srv.URL + "/v2/nothing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp); env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks

	mu       sync.Mutex
	requests []string
	statuses []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestServeHTTPHooks(t *testing.T) {
	h := &recordingHTTPHooks{}
	observability.SetHTTPHooks(h)
	t.Cleanup(observability.Reset)

	srv := testServer(t, &Config{})
	post(t, srv.URL+"/v1/pages/render?format=tiff", []byte("x"))

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.requests) != 1 || !strings.HasPrefix(h.requests[0], "POST /v1/pages/render") {
		t.Errorf("requests = %v, want one POST", h.requests)
	}
	if len(h.statuses) != 1 || h.statuses[0] != http.StatusBadRequest {
		t.Errorf("statuses = %v, want [400]", h.statuses)
	}
}
