package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/load"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Page Summaries
// =============================================================================

// pageRow summarises one page for listing.
type pageRow struct {
	Index    int
	ID       string
	Version  int
	Template string
	Layers   int
	Strokes  int
	Err      error
}

// summarizePages decodes every page of doc. Pages that fail to decode are
// listed with their error.
func summarizePages(doc *load.Document) []pageRow {
	rows := make([]pageRow, doc.PageCount())
	for i := range rows {
		row := pageRow{Index: i, ID: doc.Content.Pages[i].ID}
		page, err := doc.LoadPage(i, nil)
		if err != nil {
			row.Err = err
		} else {
			row.Version = page.Version
			row.Template = page.Template
			row.Layers = len(page.Layers)
			row.Strokes = page.StrokeCount()
		}
		rows[i] = row
	}
	return rows
}

// cells returns the table columns of r after the marker column.
func (r pageRow) cells() []string {
	version := "—"
	if r.Version != ink.VersionUnknown {
		version = "v" + strconv.Itoa(r.Version)
	}
	tmpl := r.Template
	if tmpl == "" {
		tmpl = "—"
	}
	if r.Err != nil {
		return []string{strconv.Itoa(r.Index + 1), r.ID, "error", tmpl, "—", "—"}
	}
	return []string{
		strconv.Itoa(r.Index + 1),
		r.ID,
		version,
		tmpl,
		strconv.Itoa(r.Layers),
		strconv.Itoa(r.Strokes),
	}
}

// pageTable renders rows as a rounded table. mark supplies the first column;
// style colours individual cells.
func pageTable(rows []pageRow, mark func(i int) string, style func(i, col int) lipgloss.Style) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = append([]string{mark(i)}, r.cells()...)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "ID", "Version", "Template", "Layers", "Strokes").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return style(row, col)
		}).
		Render()
}

// =============================================================================
// PageListModel - Interactive page selection
// =============================================================================

// PageListModel is the bubbletea model for picking the pages to render.
type PageListModel struct {
	Pages     []pageRow
	Cursor    int
	Chosen    map[int]bool
	Height    int
	Offset    int
	Confirmed bool
}

// NewPageListModel creates a page picker with nothing selected.
func NewPageListModel(pages []pageRow) PageListModel {
	return PageListModel{
		Pages:  pages,
		Chosen: make(map[int]bool),
		Height: 15,
	}
}

func (m PageListModel) Init() tea.Cmd {
	return nil
}

func (m PageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Pages)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Pages) > 0 {
				m.toggle(m.Cursor)
			}
		case "a":
			all := len(m.Chosen) < len(m.Pages)
			m.Chosen = make(map[int]bool)
			if all {
				for i := range m.Pages {
					m.Chosen[i] = true
				}
			}
		case "enter":
			if len(m.Chosen) == 0 && len(m.Pages) > 0 {
				m.Chosen = map[int]bool{m.Cursor: true}
			}
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *PageListModel) toggle(i int) {
	if m.Chosen[i] {
		delete(m.Chosen, i)
	} else {
		m.Chosen[i] = true
	}
}

// Selection returns the chosen page indices in ascending order, or nil when
// the picker was abandoned.
func (m PageListModel) Selection() []int {
	if !m.Confirmed {
		return nil
	}
	var out []int
	for i := range m.Pages {
		if m.Chosen[i] {
			out = append(out, i)
		}
	}
	return out
}

func (m PageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Pages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ render  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Pages))
	visible := m.Pages[m.Offset:end]

	mark := func(i int) string {
		idx := m.Offset + i
		cursor := "  "
		if idx == m.Cursor {
			cursor = "▸ "
		}
		if m.Chosen[idx] {
			return cursor + "●"
		}
		return cursor + "○"
	}
	style := func(i, col int) lipgloss.Style {
		idx := m.Offset + i
		base := lipgloss.NewStyle()
		switch {
		case m.Pages[idx].Err != nil:
			base = base.Foreground(colorRed)
		case m.Chosen[idx]:
			base = base.Foreground(colorGreen)
		case col >= 5:
			base = base.Foreground(colorDim)
		}
		if idx == m.Cursor {
			base = base.Bold(true)
		}
		return base
	}

	b.WriteString(pageTable(visible, mark, style))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d selected", m.Cursor+1, len(m.Pages), len(m.Chosen))))

	return b.String()
}

// pickPages runs the interactive picker and returns the chosen indices.
func pickPages(rows []pageRow) ([]int, error) {
	final, err := tea.NewProgram(NewPageListModel(rows)).Run()
	if err != nil {
		return nil, fmt.Errorf("page picker: %w", err)
	}
	return final.(PageListModel).Selection(), nil
}
