package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/rmrender/pkg/cache"
	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
	"github.com/matzehuels/rmrender/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long rendered pages stay cached; zero keeps them forever.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLArtifact,
	}
}

// PageResult is the outcome of rendering one page.
type PageResult struct {
	Index       int
	ID          string
	Artifacts   map[string][]byte
	Annotations sink.AnnotationPage
	Strokes     int
	CacheHit    bool
	Duration    time.Duration

	// Err is a *errors.PageError when the page failed.
	Err error
}

// Result is the outcome of rendering a document. Pages are in the order
// they were requested.
type Result struct {
	DocID    string
	Pages    []PageResult
	Failed   int
	Duration time.Duration
}

// Annotations returns the annotation export of every page that rendered.
func (r *Result) Annotations() []sink.AnnotationPage {
	out := make([]sink.AnnotationPage, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Err == nil {
			out = append(out, p.Annotations)
		}
	}
	return out
}

// Err joins the errors of all failed pages, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, p := range r.Pages {
		if p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errors.Join(errs...)
}

// LoadDocument opens the document at path and reads its page list. The
// caller closes doc.Source.
func (r *Runner) LoadDocument(ctx context.Context, path string) (*load.Document, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, path)
	start := time.Now()

	doc, err := r.openDocument(path)
	pages := 0
	if doc != nil {
		pages = doc.PageCount()
	}
	hooks.OnLoadComplete(ctx, path, pages, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	r.Logger.Debug("loaded document", "id", doc.ID(), "pages", pages, "duration", time.Since(start))
	return doc, nil
}

func (r *Runner) openDocument(path string) (*load.Document, error) {
	src, err := load.Open(path)
	if err != nil {
		return nil, err
	}
	doc, err := load.OpenDocument(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	doc.Logger = r.Logger
	return doc, nil
}

// RenderInput renders a page from its raw inputs. docID scopes the cache
// entry and titles the output.
func (r *Runner) RenderInput(ctx context.Context, docID string, in *load.PageInput, opts Options) (*PageResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := r.renderPage(ctx, docID, in.Index, in.ID, func() (*load.PageInput, error) { return in, nil }, opts)
	if res.Err != nil {
		return nil, res.Err
	}
	return &res, nil
}

// RenderPage renders page index of doc.
func (r *Runner) RenderPage(ctx context.Context, doc *load.Document, index int, opts Options) (*PageResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := r.renderPage(ctx, doc.ID(), index, pageID(doc, index), func() (*load.PageInput, error) {
		return doc.ReadPage(index)
	}, opts)
	if res.Err != nil {
		return nil, res.Err
	}
	return &res, nil
}

// RenderDocument renders the selected pages of doc in parallel, at most
// opts.Workers at a time. A failed page is recorded in its PageResult and
// does not affect the others. Once ctx is done no further pages start.
//
// The returned error is non-nil only for invalid options.
func (r *Runner) RenderDocument(ctx context.Context, doc *load.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	indices, err := opts.selectPages(doc.PageCount())
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	result := &Result{DocID: doc.ID(), Pages: make([]PageResult, len(indices))}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, index := range indices {
		id := pageID(doc, index)
		if err := ctx.Err(); err != nil {
			result.Pages[i] = PageResult{Index: index, ID: id, Err: &rmerrors.PageError{Index: index, ID: id, Err: err}}
			continue
		}
		g.Go(func() error {
			result.Pages[i] = r.renderPage(ctx, doc.ID(), index, id, func() (*load.PageInput, error) {
				return doc.ReadPage(index)
			}, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range result.Pages {
		if p.Err != nil {
			result.Failed++
		}
	}
	result.Duration = time.Since(start)
	observability.Pipeline().OnBatchComplete(ctx, doc.ID(), len(indices), result.Failed, result.Duration)

	r.Logger.Info("rendered document",
		"id", doc.ID(),
		"pages", len(indices),
		"failed", result.Failed,
		"duration", result.Duration)

	return result, nil
}

// renderPage runs one page through the cache, decoder and renderer. Failures
// end up in the result's Err.
func (r *Runner) renderPage(ctx context.Context, docID string, index int, id string, read func() (*load.PageInput, error), opts Options) PageResult {
	hooks := observability.Pipeline()
	hooks.OnPageStart(ctx, docID, index)
	start := time.Now()

	res := PageResult{Index: index, ID: id}
	err := r.fillPage(ctx, docID, read, opts, &res)
	res.Duration = time.Since(start)
	hooks.OnPageComplete(ctx, docID, index, res.Strokes, res.Duration, err)

	if err != nil {
		opts.Logger.Error("page failed",
			"page", index+1,
			"id", id,
			"code", rmerrors.GetCode(err),
			"err", err)
		res.Artifacts = nil
		res.Err = &rmerrors.PageError{Index: index, ID: id, Err: err}
		return res
	}

	opts.Logger.Debug("rendered page",
		"page", index+1,
		"strokes", res.Strokes,
		"cached", res.CacheHit,
		"duration", res.Duration)
	return res
}

func (r *Runner) fillPage(ctx context.Context, docID string, read func() (*load.PageInput, error), opts Options, res *PageResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := read()
	if err != nil {
		return err
	}
	res.ID = in.ID

	key := r.pageKey(docID, in)
	tmpl := resolveTemplate(in.Template, opts)
	if !opts.Refresh {
		if hit, ok := r.lookup(ctx, key, tmpl, opts); ok {
			res.Artifacts = hit.Artifacts
			res.Annotations = hit.Annotations
			res.Strokes = hit.Strokes
			res.CacheHit = true
			return nil
		}
	}

	page, err := load.DecodePage(in, opts.Logger)
	if err != nil {
		return err
	}
	rendered, err := renderWith(ctx, fmt.Sprintf("%s, page %d", docID, in.Index+1), page, tmpl, opts)
	if err != nil {
		return err
	}
	r.store(ctx, key, tmpl, rendered, opts)

	res.Artifacts = rendered.Artifacts
	res.Annotations = rendered.Annotations
	res.Strokes = rendered.Strokes
	return nil
}

// =============================================================================
// Caching
// =============================================================================

// cachedPage is the cache entry stored under the annotations key.
type cachedPage struct {
	Strokes     int                 `json:"strokes"`
	Annotations sink.AnnotationPage `json:"annotations"`
}

// pageKey identifies a page by everything that decoding depends on.
func (r *Runner) pageKey(docID string, in *load.PageInput) string {
	return r.Keyer.PageKey(docID, in.ID, cache.PageKeyOpts{
		SourceHash:     cache.HashAll([]byte(fmt.Sprint(in.Index)), in.Lines, in.Metadata),
		HighlightsHash: cache.Hash(in.Highlights),
		Template:       in.Template,
	})
}

// lookup returns a cached render when every requested format is present.
// Backend errors count as misses.
func (r *Runner) lookup(ctx context.Context, key string, tmpl *load.Template, opts Options) (*Rendered, bool) {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, r.Keyer.AnnotationsKey(key))
	if err != nil {
		opts.Logger.Debug("cache read failed", "err", err)
	}
	var entry cachedPage
	if !hit || err != nil || json.Unmarshal(data, &entry) != nil {
		hooks.OnCacheMiss(ctx, "annotations")
		return nil, false
	}
	hooks.OnCacheHit(ctx, "annotations")

	out := &Rendered{
		Artifacts:   make(map[string][]byte, len(opts.Formats)),
		Annotations: entry.Annotations,
		Strokes:     entry.Strokes,
	}
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(key, opts.ArtifactKeyOpts(format, tmpl)))
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		hooks.OnCacheHit(ctx, "artifact")
		out.Artifacts[format] = data
	}
	return out, true
}

func (r *Runner) store(ctx context.Context, key string, tmpl *load.Template, rendered *Rendered, opts Options) {
	hooks := observability.Cache()

	entry, err := json.Marshal(cachedPage{Strokes: rendered.Strokes, Annotations: rendered.Annotations})
	if err == nil {
		if err := r.Cache.Set(ctx, r.Keyer.AnnotationsKey(key), entry, r.TTL); err != nil {
			opts.Logger.Debug("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "annotations", len(entry))
		}
	}
	for format, data := range rendered.Artifacts {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(key, opts.ArtifactKeyOpts(format, tmpl)), data, r.TTL); err != nil {
			opts.Logger.Debug("cache write failed", "format", format, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func pageID(doc *load.Document, index int) string {
	if index >= 0 && index < len(doc.Content.Pages) {
		return doc.Content.Pages[index].ID
	}
	return ""
}
