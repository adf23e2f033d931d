package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
	"github.com/matzehuels/rmrender/pkg/observability"
	"github.com/matzehuels/rmrender/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output directory
	name    string // file name prefix; defaults to the document id
	pages   string // page spec, e.g. "1,3-5"
	noCache bool   // disable the render cache
	pick    bool   // choose pages interactively
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts       renderOpts
		formatsStr string
		flags      pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render document pages to SVG, PDF or PNG",
		Long: `Render the pages of a document. The document may be an .rmdoc archive,
a .content file, or the directory holding it.

Each page is written as <name>_<page>.<format>. The json format writes one
<name>.annotations.json with the highlight groups of every page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.cfg().pipelineOptions()
			f := cmd.Flags()
			if fs := parseFormats(formatsStr); fs != nil {
				popts.Formats = fs
			}
			if f.Changed("template-dir") {
				popts.TemplateDir = flags.TemplateDir
			}
			if f.Changed("template-alpha") {
				popts.TemplateAlpha = flags.TemplateAlpha
				popts.HideTemplate = flags.TemplateAlpha == 0
			}
			if f.Changed("workers") {
				popts.Workers = flags.Workers
			}
			popts.DPI = flags.DPI
			popts.Refresh = flags.Refresh

			if err := pipeline.ValidateFormats(popts.Formats); err != nil {
				return err
			}
			if opts.pages != "" {
				pages, err := pipeline.ParsePageSpec(opts.pages)
				if err != nil {
					return err
				}
				popts.Pages = pages
			}
			return c.runRender(cmd.Context(), args[0], opts, popts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVar(&opts.name, "name", "", "output file prefix (default: document id)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.pages, "pages", "p", "", "pages to render, 1-based (e.g. 1,3-5)")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose pages interactively")
	cmd.Flags().StringVar(&flags.TemplateDir, "template-dir", "", "directory holding template SVGs")
	cmd.Flags().Float64Var(&flags.TemplateAlpha, "template-alpha", pipeline.DefaultTemplateAlpha, "template opacity, 0 hides it")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "pages rendered in parallel (default: CPU count)")
	cmd.Flags().Float64Var(&flags.DPI, "dpi", pipeline.DefaultDPI, "PNG resolution")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&flags.Refresh, "refresh", false, "re-render pages even when cached")

	return cmd
}

// runRender renders the document at input and writes its outputs.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts, popts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	doc, err := runner.LoadDocument(ctx, input)
	if err != nil {
		return err
	}
	defer doc.Source.Close()

	if opts.pick {
		pages, err := pickPages(summarizePages(doc))
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			printInfo("No pages selected")
			return nil
		}
		popts.Pages = pages
	}

	total := len(popts.Pages)
	if total == 0 {
		total = doc.PageCount()
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering pages 0/%d", total))
	prev := observability.Pipeline()
	observability.SetPipelineHooks(newPageProgress(spinner, total))
	spinner.Start()
	result, err := runner.RenderDocument(ctx, doc, popts)
	spinner.Stop()
	observability.SetPipelineHooks(prev)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	name := opts.name
	if name == "" {
		name = doc.ID()
	}
	written, err := writeResult(opts.output, name, result, &popts)
	if err != nil {
		return err
	}

	printResult(result, written)
	prog.done(fmt.Sprintf("Rendered %d of %d pages", len(result.Pages)-result.Failed, len(result.Pages)))
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed", result.Failed, len(result.Pages))
	}
	return nil
}

// pageFileName returns the output file of page index (0-based).
func pageFileName(name string, index int, format string) string {
	return fmt.Sprintf("%s_%d.%s", name, index+1, format)
}

// annotationsFileName returns the document-level annotations file.
func annotationsFileName(name string) string {
	return name + ".annotations.json"
}

// writeResult writes the artifacts of every rendered page into dir and, when
// json was requested, the annotations of the whole document. It returns the
// written paths.
func writeResult(dir, name string, result *pipeline.Result, opts *pipeline.Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	for _, p := range result.Pages {
		if p.Err != nil {
			continue
		}
		keys := make([]string, 0, len(p.Artifacts))
		for format := range p.Artifacts {
			if format != pipeline.FormatJSON {
				keys = append(keys, format)
			}
		}
		sort.Strings(keys)
		for _, format := range keys {
			path := filepath.Join(dir, pageFileName(name, p.Index, format))
			if err := os.WriteFile(path, p.Artifacts[format], 0o644); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}

	if !opts.Wants(pipeline.FormatJSON) {
		return written, nil
	}
	data, err := sink.RenderAnnotationsJSON(result.Annotations())
	if err != nil {
		return written, err
	}
	path := filepath.Join(dir, annotationsFileName(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return written, err
	}
	return append(written, path), nil
}

// printResult prints one line per page followed by the written files.
func printResult(result *pipeline.Result, written []string) {
	for _, p := range result.Pages {
		label := StyleHighlight.Render(fmt.Sprintf("page %d", p.Index+1))
		if p.Err != nil {
			printError("%s  %s", label, styleFailed.Render(rmerrors.UserMessage(p.Err)))
			continue
		}
		groups := 0
		for _, l := range p.Annotations.Layers {
			groups += len(l.Groups)
		}
		printSuccess("%s  %s", label, pageStats(p.Strokes, groups, p.CacheHit))
	}
	if len(written) > 0 {
		printNewline()
		for _, path := range written {
			printFile(path)
		}
	}
}
