package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rmrender/pkg/cache"
	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	"github.com/matzehuels/rmrender/pkg/core/rm"
	"github.com/matzehuels/rmrender/pkg/core/rm/rmtest"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
	"github.com/matzehuels/rmrender/pkg/observability"
)

const docID = "0b1c2d3e-4f50-4a6b-8c7d-9e0f1a2b3c4d"

func stroke(t *testing.T, pen ink.PenKind, color ink.ColorCode, segs ...ink.Segment) ink.Stroke {
	t.Helper()
	s, err := ink.NewStroke(pen, color, 2, segs)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// testDoc has three legacy pages; the second one is truncated.
func testDoc(t *testing.T) *load.Document {
	t.Helper()
	hl := stroke(t, ink.PenHighlighter1, ink.ColorYellow, ink.Segment{X: 10, Y: 20, Width: 8}, ink.Segment{X: 90, Y: 20, Width: 8})
	pen := stroke(t, ink.PenBallpoint1, ink.ColorBlue, ink.Segment{X: 1, Y: 1, Width: 2, Pressure: 1}, ink.Segment{X: 5, Y: 5, Width: 2, Pressure: 1})

	corrupt := append(rm.Header(ink.Version5), 1, 0, 0, 0)
	files := map[string][]byte{
		docID + ".content": []byte(`{"pages":["a","b","c"]}`),
		docID + "/a.rm":    rmtest.Lines(ink.Version5, []ink.Stroke{pen, hl}),
		docID + "/b.rm":    corrupt,
		docID + "/c.rm":    rmtest.Lines(ink.Version3, []ink.Stroke{pen}),
	}
	doc, err := load.OpenDocument(&load.MemSource{DocID: docID, Files: files})
	if err != nil {
		t.Fatalf("OpenDocument() error = %v", err)
	}
	return doc
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))
}

func TestRenderDocumentIsolatesFailures(t *testing.T) {
	var logs bytes.Buffer
	r := NewRunner(nil, nil, log.NewWithOptions(&logs, log.Options{}))

	res, err := r.RenderDocument(context.Background(), testDoc(t), Options{
		Formats: []string{FormatSVG, FormatJSON},
		Workers: 2,
	})
	if err != nil {
		t.Fatalf("RenderDocument() error = %v", err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("len(Pages) = %d, want 3", len(res.Pages))
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}

	for _, i := range []int{0, 2} {
		p := res.Pages[i]
		if p.Err != nil {
			t.Errorf("page %d error = %v", i+1, p.Err)
			continue
		}
		if p.Index != i {
			t.Errorf("Pages[%d].Index = %d", i, p.Index)
		}
		if !bytes.HasPrefix(p.Artifacts[FormatSVG], []byte("<svg")) {
			t.Errorf("page %d svg = %.40q", i+1, p.Artifacts[FormatSVG])
		}
		if _, ok := p.Artifacts[FormatJSON]; !ok {
			t.Errorf("page %d has no json artifact", i+1)
		}
	}

	bad := res.Pages[1]
	if bad.Err == nil {
		t.Fatal("page 2 error = nil, want FORMAT_MISMATCH")
	}
	if !rmerrors.Is(bad.Err, rmerrors.ErrCodeFormatMismatch) {
		t.Errorf("page 2 code = %v, want %v", rmerrors.GetCode(bad.Err), rmerrors.ErrCodeFormatMismatch)
	}
	var pe *rmerrors.PageError
	if !errors.As(bad.Err, &pe) || pe.Index != 1 || pe.ID != "b" {
		t.Errorf("page 2 error = %#v, want PageError for index 1 id b", bad.Err)
	}
	if bad.Artifacts != nil {
		t.Errorf("failed page has artifacts")
	}
	if !strings.Contains(logs.String(), "FORMAT_MISMATCH") {
		t.Errorf("failure not logged with its code:\n%s", logs.String())
	}
	if res.Err() == nil {
		t.Error("Result.Err() = nil, want page 2 error")
	}

	ann := res.Annotations()
	if len(ann) != 2 {
		t.Fatalf("len(Annotations()) = %d, want 2", len(ann))
	}
	groups := ann[0].Layers[0].Groups
	if len(groups) != 1 || groups[0].Kind != "highlight" || groups[0].Color != "#f8f124" {
		t.Errorf("page 1 groups = %+v, want one yellow highlight", groups)
	}
}

func TestRenderDocumentCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	doc := testDoc(t)
	opts := Options{Formats: []string{FormatSVG}, Pages: []int{0}}

	first, err := r.RenderDocument(context.Background(), doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.RenderDocument(context.Background(), doc, opts)
	if err != nil {
		t.Fatal(err)
	}

	if first.Pages[0].CacheHit {
		t.Error("first render was a cache hit")
	}
	if !second.Pages[0].CacheHit {
		t.Error("second render was not a cache hit")
	}
	if !bytes.Equal(first.Pages[0].Artifacts[FormatSVG], second.Pages[0].Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}
	if first.Pages[0].Strokes != 2 || second.Pages[0].Strokes != 2 {
		t.Errorf("Strokes = %d then %d, want 2", first.Pages[0].Strokes, second.Pages[0].Strokes)
	}

	// A new format misses even though the page is cached.
	third, err := r.RenderDocument(context.Background(), doc, Options{Formats: []string{FormatSVG, FormatJSON}, Pages: []int{0}})
	if err != nil {
		t.Fatal(err)
	}
	if third.Pages[0].CacheHit {
		t.Error("render with an extra format was a cache hit")
	}

	refreshed, err := r.RenderDocument(context.Background(), doc, Options{Formats: []string{FormatSVG}, Pages: []int{0}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Pages[0].CacheHit {
		t.Error("refresh render was a cache hit")
	}
}

func TestRenderInputTemplateEditMisses(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)

	dir := t.TempDir()
	path := filepath.Join(dir, "Grid.svg")
	writeTemplate := func(body string) {
		t.Helper()
		svg := `<svg xmlns="http://www.w3.org/2000/svg" width="1404" height="1872">` + body + `</svg>`
		if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pen := stroke(t, ink.PenBallpoint1, ink.ColorBlack, ink.Segment{X: 1, Y: 1, Width: 2, Pressure: 1})
	in := &load.PageInput{ID: "a", Version: ink.Version5, Template: "Grid", Lines: rmtest.Lines(ink.Version5, []ink.Stroke{pen})}
	opts := Options{Formats: []string{FormatSVG}, TemplateDir: dir}

	writeTemplate(`<rect width="10" height="10"/>`)
	first, err := r.RenderInput(context.Background(), docID, in, opts)
	if err != nil {
		t.Fatalf("RenderInput() error = %v", err)
	}
	second, err := r.RenderInput(context.Background(), docID, in, opts)
	if err != nil {
		t.Fatalf("RenderInput() error = %v", err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Fatalf("CacheHit = %v then %v, want false then true", first.CacheHit, second.CacheHit)
	}

	writeTemplate(`<circle r="5"/>`)
	third, err := r.RenderInput(context.Background(), docID, in, opts)
	if err != nil {
		t.Fatalf("RenderInput() error = %v", err)
	}
	if third.CacheHit {
		t.Error("render after a template edit was a cache hit")
	}
	if bytes.Equal(first.Artifacts[FormatSVG], third.Artifacts[FormatSVG]) {
		t.Error("svg unchanged after a template edit")
	}
}

func TestRenderDocumentPageSelection(t *testing.T) {
	r := quietRunner(nil)
	doc := testDoc(t)

	res, err := r.RenderDocument(context.Background(), doc, Options{Pages: []int{2}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 1 || res.Pages[0].Index != 2 || res.Pages[0].ID != "c" {
		t.Errorf("Pages = %+v, want only page 3", res.Pages)
	}

	if _, err := r.RenderDocument(context.Background(), doc, Options{Pages: []int{3}}); err == nil {
		t.Error("RenderDocument(page 4 of 3) error = nil, want error")
	}
}

func TestRenderDocumentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := quietRunner(nil).RenderDocument(ctx, testDoc(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 3 {
		t.Errorf("Failed = %d, want 3", res.Failed)
	}
	for _, p := range res.Pages {
		if !errors.Is(p.Err, context.Canceled) {
			t.Errorf("page %d error = %v, want context.Canceled", p.Index+1, p.Err)
		}
	}
}

func TestRenderPage(t *testing.T) {
	r := quietRunner(nil)
	doc := testDoc(t)

	res, err := r.RenderPage(context.Background(), doc, 2, Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	pages, err := sink.ParseAnnotationsJSON(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Page != 2 || pages[0].ID != "c" {
		t.Errorf("annotations json = %+v, want page 2 id c", pages)
	}

	if _, err := r.RenderPage(context.Background(), doc, 1, Options{}); !rmerrors.Is(err, rmerrors.ErrCodeFormatMismatch) {
		t.Errorf("RenderPage(corrupt) error = %v, want FORMAT_MISMATCH", err)
	}
	if _, err := r.RenderPage(context.Background(), doc, 9, Options{}); !rmerrors.Is(err, rmerrors.ErrCodeInvalidInput) {
		t.Errorf("RenderPage(out of range) error = %v, want INVALID_INPUT", err)
	}
}

func TestRenderInputMissingLines(t *testing.T) {
	res, err := quietRunner(nil).RenderInput(context.Background(), "upload", &load.PageInput{ID: "x"}, Options{})
	if err != nil {
		t.Fatalf("RenderInput() error = %v", err)
	}
	if res.Strokes != 0 || len(res.Annotations.Layers) != 0 {
		t.Errorf("result = %+v, want an empty page", res)
	}
	if !bytes.Contains(res.Artifacts[FormatSVG], []byte("</svg>")) {
		t.Error("empty page did not produce a finished svg")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks

	mu       sync.Mutex
	started  []int
	finished map[int]error
	batches  int
	failed   int
}

func (h *recordingHooks) OnPageStart(_ context.Context, _ string, index int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, index)
}

func (h *recordingHooks) OnPageComplete(_ context.Context, _ string, index, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished == nil {
		h.finished = make(map[int]error)
	}
	h.finished[index] = err
}

func (h *recordingHooks) OnBatchComplete(_ context.Context, _ string, _, failed int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches++
	h.failed = failed
}

func TestRenderDocumentHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	t.Cleanup(observability.Reset)

	if _, err := quietRunner(nil).RenderDocument(context.Background(), testDoc(t), Options{Workers: 1}); err != nil {
		t.Fatal(err)
	}
	if len(h.started) != 3 || len(h.finished) != 3 {
		t.Errorf("started %v, finished %v; want 3 each", h.started, h.finished)
	}
	if h.finished[1] == nil || h.finished[0] != nil {
		t.Errorf("finished errors = %v, want only page index 1 failing", h.finished)
	}
	if h.batches != 1 || h.failed != 1 {
		t.Errorf("batch hooks = %d calls, failed %d; want 1, 1", h.batches, h.failed)
	}
}
