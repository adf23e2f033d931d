// Package pkg provides the libraries behind rmrender, a renderer for
// handwritten note pages.
//
// # Overview
//
// A document is a set of page files written by the tablet in one of two
// schema generations. rmrender decodes every page into a single in-memory
// model, draws it onto a vector surface and exports the highlights as grouped
// annotations. The pkg directory is organized as:
//
//  1. [core] - Domain logic (file decoding, page model, drawing)
//  2. [cache] - Render cache backends (file, Redis, none)
//  3. [pipeline] - Orchestration (load → render → convert)
//  4. [errors] - Coded errors and input validation
//  5. [observability] - Hooks for metrics and tracing
//
// # Architecture
//
// The typical data flow:
//
//	.rmdoc archive / document directory
//	         ↓
//	    [core/load] package (page list, raw page inputs)
//	         ↓
//	    [core/rm] package (v3/v5 lines, v6 tagged blocks, highlights)
//	         ↓
//	    [core/ink] package (layers, strokes, segments)
//	         ↓
//	    [core/render] package (template, pens, annotation groups)
//	         ↓
//	    SVG/PDF/PNG/JSON output
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/rmrender/pkg/cache"
//	    "github.com/matzehuels/rmrender/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	doc, _ := runner.LoadDocument(ctx, "notes.rmdoc")
//	defer doc.Source.Close()
//
//	result, _ := runner.RenderDocument(ctx, doc, pipeline.Options{
//	    Formats:     []string{pipeline.FormatSVG, pipeline.FormatJSON},
//	    TemplateDir: "/usr/share/remarkable/templates",
//	})
//	for _, page := range result.Pages {
//	    if page.Err != nil {
//	        continue // a failed page never affects its siblings
//	    }
//	    _ = page.Artifacts[pipeline.FormatSVG]
//	}
//
// # Main Packages
//
//   - [core/ink]: Page model and device geometry
//   - [core/rm]: Binary page file readers
//   - [core/load]: Document sources, version adapter, highlight merge
//   - [core/render]: Page orchestrator, surface interface, format conversion
//   - [core/render/pens]: Per-tool stroke renderers and colour tables
//   - [core/render/annot]: Highlight clustering
//   - [core/render/sink]: SVG surface and annotation export
//
// [core]: github.com/matzehuels/rmrender/pkg/core
// [core/ink]: github.com/matzehuels/rmrender/pkg/core/ink
// [core/rm]: github.com/matzehuels/rmrender/pkg/core/rm
// [core/load]: github.com/matzehuels/rmrender/pkg/core/load
// [core/render]: github.com/matzehuels/rmrender/pkg/core/render
// [core/render/pens]: github.com/matzehuels/rmrender/pkg/core/render/pens
// [core/render/annot]: github.com/matzehuels/rmrender/pkg/core/render/annot
// [core/render/sink]: github.com/matzehuels/rmrender/pkg/core/render/sink
// [cache]: github.com/matzehuels/rmrender/pkg/cache
// [pipeline]: github.com/matzehuels/rmrender/pkg/pipeline
// [errors]: github.com/matzehuels/rmrender/pkg/errors
// [observability]: github.com/matzehuels/rmrender/pkg/observability
package pkg
