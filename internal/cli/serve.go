package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rmrender/pkg/buildinfo"
	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render"
	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	"github.com/matzehuels/rmrender/pkg/core/rm"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
	"github.com/matzehuels/rmrender/pkg/observability"
	"github.com/matzehuels/rmrender/pkg/pipeline"
)

const (
	defaultMaxBody  = 32 << 20
	shutdownTimeout = 10 * time.Second
	uploadDocID     = "upload"
	requestIDHeader = "X-Request-ID"
)

// serveCommand runs the HTTP render server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render server",
		Long: `Run an HTTP server that renders uploaded page files.

  POST /v1/pages/render?format=svg&template=Blank   body: a .rm file
  POST /v1/pages/annotations                         body: a .rm file
  POST /v1/documents/annotations?pages=1-3           body: a .rmdoc archive
  GET  /v1/formats
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg().addr()
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(runner, c.cfg(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("server listening", "addr", addr, "converter", render.ConverterAvailable())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Router
// =============================================================================

// server holds the dependencies of the HTTP handlers.
type server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	maxBody  int64
	logger   *log.Logger
}

// newServer builds the HTTP handler.
func newServer(runner *pipeline.Runner, cfg *Config, logger *log.Logger) http.Handler {
	s := &server{
		runner:   runner,
		defaults: cfg.pipelineOptions(),
		maxBody:  cfg.Server.MaxBodyBytes,
		logger:   logger,
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBody
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/formats", s.handleFormats)
		r.Post("/pages/render", s.handleRender)
		r.Post("/pages/annotations", s.handleAnnotations)
		r.Post("/documents/annotations", s.handleDocumentAnnotations)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, rmerrors.ErrCodeNotFound, "endpoint not found")
	})
	return r
}

type ctxRequestID struct{}

// requestID tags each request with an id, reusing the client's if present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID{}).(string)
	return id
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"request_id", requestIDFrom(r.Context()),
			"duration", time.Since(start))
	})
}

// =============================================================================
// Responses
// =============================================================================

// apiResponse is the JSON envelope of every non-artifact response.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Meta    apiMeta   `json:"meta"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, apiResponse{Success: true, Data: data, Meta: meta(r)})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code rmerrors.Code, message string) {
	writeEnvelope(w, status, apiResponse{
		Error: &apiError{Code: string(code), Message: message},
		Meta:  meta(r),
	})
}

func meta(r *http.Request) apiMeta {
	return apiMeta{
		RequestID: requestIDFrom(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func writeEnvelope(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// respondErr maps a pipeline error onto a status code.
func (s *server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, r, http.StatusRequestEntityTooLarge, rmerrors.ErrCodeInvalidInput,
			"page file exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
		return
	}

	code := rmerrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case rmerrors.ErrCodeFormatMismatch, rmerrors.ErrCodeUnsupportedVersion:
		status = http.StatusUnprocessableEntity
	case rmerrors.ErrCodeInvalidInput, rmerrors.ErrCodeInvalidFormat,
		rmerrors.ErrCodeInvalidPageID, rmerrors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case rmerrors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	case "":
		code = rmerrors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("render failed", "request_id", requestIDFrom(r.Context()), "err", err)
	}
	respondError(w, r, status, code, rmerrors.UserMessage(err))
}

// =============================================================================
// Handlers
// =============================================================================

type healthInfo struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Converter bool   `json:"converter"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, healthInfo{
		Status:    "ok",
		Version:   buildinfo.Version,
		Converter: render.ConverterAvailable(),
	})
}

func (s *server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, 0, len(pipeline.ValidFormats))
	for f := range pipeline.ValidFormats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	respond(w, r, http.StatusOK, formats)
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.respondErr(w, r, err)
		return
	}

	res, ok := s.renderUpload(w, r, format)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("X-Cache", cacheStatus(res.CacheHit))
	_, _ = w.Write(res.Artifacts[format])
}

func (s *server) handleAnnotations(w http.ResponseWriter, r *http.Request) {
	res, ok := s.renderUpload(w, r, pipeline.FormatJSON)
	if !ok {
		return
	}
	w.Header().Set("X-Cache", cacheStatus(res.CacheHit))
	respond(w, r, http.StatusOK, res.Annotations)
}

// documentAnnotations is the response of a whole-document upload. Pages that
// failed are listed separately and do not fail the request.
type documentAnnotations struct {
	ID     string                `json:"id"`
	Pages  []sink.AnnotationPage `json:"pages"`
	Failed []pageFailure         `json:"failed,omitempty"`
}

type pageFailure struct {
	Page    int    `json:"page"`
	ID      string `json:"id"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *server) handleDocumentAnnotations(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	opts.Formats = []string{pipeline.FormatJSON}
	if spec := r.URL.Query().Get("pages"); spec != "" {
		pages, err := pipeline.ParsePageSpec(spec)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		opts.Pages = pages
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	src, err := load.NewZipSource(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	defer src.Close()
	doc, err := load.OpenDocument(src)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	result, err := s.runner.RenderDocument(r.Context(), doc, opts)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	resp := documentAnnotations{ID: result.DocID, Pages: result.Annotations()}
	for _, p := range result.Pages {
		if p.Err == nil {
			continue
		}
		resp.Failed = append(resp.Failed, pageFailure{
			Page:    p.Index + 1,
			ID:      p.ID,
			Code:    string(rmerrors.GetCode(p.Err)),
			Message: rmerrors.UserMessage(p.Err),
		})
	}
	respond(w, r, http.StatusOK, resp)
}

// readBody reads a non-empty request body of at most maxBody bytes. On
// failure it writes the error response and returns false.
func (s *server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.respondErr(w, r, err)
		return nil, false
	}
	if len(body) == 0 {
		respondError(w, r, http.StatusBadRequest, rmerrors.ErrCodeInvalidInput, "request body is empty")
		return nil, false
	}
	return body, true
}

// renderUpload renders the request body as a single page. On failure it
// writes the error response and returns false.
func (s *server) renderUpload(w http.ResponseWriter, r *http.Request, format string) (*pipeline.PageResult, bool) {
	q := r.URL.Query()
	in := &load.PageInput{ID: uploadDocID, Template: q.Get("template")}
	if id := q.Get("id"); id != "" {
		if err := rmerrors.ValidatePageID(id); err != nil {
			s.respondErr(w, r, err)
			return nil, false
		}
		in.ID = id
	}
	if in.Template != "" {
		if err := rmerrors.ValidateTemplateName(in.Template); err != nil {
			s.respondErr(w, r, err)
			return nil, false
		}
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}
	in.Lines = body
	var err error
	if in.Version, err = rm.ReadVersion(body); err != nil {
		s.respondErr(w, r, err)
		return nil, false
	}

	opts := s.defaults
	opts.Formats = []string{format}
	if a := q.Get("alpha"); a != "" {
		alpha, err := strconv.ParseFloat(a, 64)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, rmerrors.ErrCodeInvalidInput, "alpha must be a number")
			return nil, false
		}
		opts.TemplateAlpha = alpha
		opts.HideTemplate = alpha == 0
	}
	if d := q.Get("dpi"); d != "" {
		dpi, err := strconv.ParseFloat(d, 64)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, rmerrors.ErrCodeInvalidInput, "dpi must be a number")
			return nil, false
		}
		opts.DPI = dpi
	}

	res, err := s.runner.RenderInput(r.Context(), uploadDocID, in, opts)
	if err != nil {
		s.respondErr(w, r, err)
		return nil, false
	}
	return res, true
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatPNG:
		return "image/png"
	default:
		return "application/json"
	}
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
