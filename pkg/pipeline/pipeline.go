// Package pipeline provides the page rendering pipeline for rmrender.
//
// This package implements the complete load → render → convert pipeline that
// the CLI and the HTTP server share. By centralizing this logic, both entry
// points cache, log and report failures the same way.
//
// # Architecture
//
// The pipeline consists of three stages per page:
//
//  1. Load: read the page's files from a document source and decode them
//     into layers (see [load.DecodePage])
//  2. Render: draw the page onto an SVG surface with the pen dispatcher and
//     collect its annotation groups
//  3. Convert: produce the requested formats (SVG, PDF, PNG, annotations JSON)
//
// Pages of a document render in parallel and independently. One bad page is
// reported in its [PageResult] and never stops its siblings.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	doc, err := runner.LoadDocument(ctx, "notes.rmdoc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Source.Close()
//
//	result, err := runner.RenderDocument(ctx, doc, pipeline.Options{
//	    Formats:     []string{"svg", "pdf"},
//	    TemplateDir: "/usr/share/remarkable/templates",
//	})
//	for _, p := range result.Pages {
//	    if p.Err != nil {
//	        continue // reported per page
//	    }
//	    svg := p.Artifacts["svg"]
//	}
//
// [load.DecodePage]: github.com/matzehuels/rmrender/pkg/core/load.DecodePage
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rmrender/pkg/cache"
	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/load"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultTemplateAlpha draws templates fully opaque.
	DefaultTemplateAlpha = 1.0

	// DefaultDPI is the PNG resolution, matching the device screen.
	DefaultDPI = ink.DeviceDPI

	// MaxPageNumber bounds page numbers in a page spec.
	MaxPageNumber = 10000
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json" // annotation groups of the page
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the rendering pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Output options
	Formats []string `json:"formats,omitempty"`
	DPI     float64  `json:"dpi,omitempty"` // PNG only

	// Template options
	TemplateDir   string  `json:"template_dir,omitempty"`
	TemplateAlpha float64 `json:"template_alpha,omitempty"`
	HideTemplate  bool    `json:"hide_template,omitempty"` // overrides TemplateAlpha

	// Batch options
	Pages   []int `json:"pages,omitempty"` // 0-based; empty means all
	Workers int   `json:"workers,omitempty"`
	Refresh bool  `json:"refresh,omitempty"` // ignore cached artifacts

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return rmerrors.New(rmerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Formats = dedupe(o.Formats)

	if o.TemplateAlpha == 0 && !o.HideTemplate {
		o.TemplateAlpha = DefaultTemplateAlpha
	}
	if o.TemplateAlpha < 0 || o.TemplateAlpha > 1 {
		return rmerrors.New(rmerrors.ErrCodeInvalidInput,
			"template alpha %v out of range [0,1]", o.TemplateAlpha)
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.DPI < 0 {
		return rmerrors.New(rmerrors.ErrCodeInvalidInput, "dpi must be positive")
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	for _, p := range o.Pages {
		if p < 0 {
			return rmerrors.New(rmerrors.ErrCodeInvalidInput, "page %d out of range", p+1)
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Alpha returns the effective template opacity.
func (o *Options) Alpha() float64 {
	if o.HideTemplate {
		return 0
	}
	return o.TemplateAlpha
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	return slices.Contains(o.Formats, format)
}

// ArtifactKeyOpts returns cache key options for one rendered format of a page
// drawn over tmpl, which is nil when the page has no template.
func (o *Options) ArtifactKeyOpts(format string, tmpl *load.Template) cache.ArtifactKeyOpts {
	switch format {
	case FormatJSON:
		// Annotations do not depend on the template.
		return cache.ArtifactKeyOpts{Format: format}
	case FormatPNG:
		format = fmt.Sprintf("%s@%g", format, o.DPI)
	}
	opts := cache.ArtifactKeyOpts{Format: format, TemplateAlpha: o.Alpha()}
	if opts.TemplateAlpha > 0 && tmpl != nil {
		opts.TemplateHash = cache.Hash(tmpl.Data)
	}
	return opts
}

// selectPages returns the page indices to render for a document with n pages.
func (o *Options) selectPages(n int) ([]int, error) {
	if len(o.Pages) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, p := range o.Pages {
		if p >= n {
			return nil, rmerrors.New(rmerrors.ErrCodeInvalidInput,
				"page %d out of range (document has %d)", p+1, n)
		}
	}
	return o.Pages, nil
}

// ParsePageSpec parses a 1-based page list such as "1,3-5" into sorted,
// unique 0-based indices. An empty spec selects nothing. Page numbers above
// [MaxPageNumber] are rejected.
func ParsePageSpec(spec string) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := parsePageNumber(lo)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = parsePageNumber(hi); err != nil {
				return nil, err
			}
			if last < first {
				return nil, rmerrors.New(rmerrors.ErrCodeInvalidInput, "invalid page range %q", part)
			}
		}
		for p := first; p <= last; p++ {
			pages = append(pages, p-1)
		}
	}
	slices.Sort(pages)
	return slices.Compact(pages), nil
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, rmerrors.New(rmerrors.ErrCodeInvalidInput, "invalid page number %q", s)
	}
	if n > MaxPageNumber {
		return 0, rmerrors.New(rmerrors.ErrCodeInvalidInput, "page number %d exceeds %d", n, MaxPageNumber)
	}
	return n, nil
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
