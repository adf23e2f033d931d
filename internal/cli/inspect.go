package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// inspectCommand lists the pages of a document.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <document>",
		Short: "List the pages of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the page list as JSON")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, asJSON bool) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	doc, err := runner.LoadDocument(ctx, input)
	if err != nil {
		return err
	}
	defer doc.Source.Close()

	rows := summarizePages(doc)
	if asJSON {
		return writePageJSON(rows)
	}

	fmt.Println(StyleTitle.Render(doc.ID()))
	failed := 0
	table := pageTable(rows, func(int) string { return "" }, func(i, col int) lipgloss.Style {
		if rows[i].Err != nil {
			return lipgloss.NewStyle().Foreground(colorRed)
		}
		if col >= 5 {
			return StyleNumber
		}
		return lipgloss.NewStyle()
	})
	fmt.Println(table)

	for _, r := range rows {
		if r.Err != nil {
			failed++
			printWarning("page %d: %s", r.Index+1, rmerrors.UserMessage(r.Err))
		}
	}
	if failed > 0 {
		printDetail("%d of %d pages cannot be decoded", failed, len(rows))
	}
	return nil
}

type pageJSON struct {
	Page     int    `json:"page"`
	ID       string `json:"id"`
	Version  int    `json:"version,omitempty"`
	Template string `json:"template,omitempty"`
	Layers   int    `json:"layers"`
	Strokes  int    `json:"strokes"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

func writePageJSON(rows []pageRow) error {
	out := make([]pageJSON, len(rows))
	for i, r := range rows {
		out[i] = pageJSON{
			Page:     r.Index + 1,
			ID:       r.ID,
			Version:  r.Version,
			Template: r.Template,
			Layers:   r.Layers,
			Strokes:  r.Strokes,
		}
		if r.Err != nil {
			out[i].Error = rmerrors.UserMessage(r.Err)
			out[i].Code = string(rmerrors.GetCode(r.Err))
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
