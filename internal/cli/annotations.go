package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	"github.com/matzehuels/rmrender/pkg/pipeline"
)

// annotationsCommand prints the highlight groups of a document.
func (c *CLI) annotationsCommand() *cobra.Command {
	var (
		output  string
		pages   string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "annotations <document>",
		Short: "Export grouped highlights as JSON",
		Long: `Export the highlight groups of every page as JSON. Rectangles are in
points with the origin at the bottom-left of the page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cfg().pipelineOptions()
			opts.Formats = []string{pipeline.FormatJSON}
			if pages != "" {
				sel, err := pipeline.ParsePageSpec(pages)
				if err != nil {
					return err
				}
				opts.Pages = sel
			}
			return c.runAnnotations(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&pages, "pages", "p", "", "pages to export, 1-based (e.g. 1,3-5)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

func (c *CLI) runAnnotations(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	doc, err := runner.LoadDocument(ctx, input)
	if err != nil {
		return err
	}
	defer doc.Source.Close()

	result, err := runner.RenderDocument(ctx, doc, opts)
	if err != nil {
		return err
	}
	data, err := sink.RenderAnnotationsJSON(result.Annotations())
	if err != nil {
		return err
	}

	if output == "" {
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
		printFile(output)
	}

	if err := result.Err(); err != nil {
		return fmt.Errorf("%d of %d pages failed: %w", result.Failed, len(result.Pages), err)
	}
	return nil
}
