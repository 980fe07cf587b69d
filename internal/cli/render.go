package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"docvault/internal/format"
	"docvault/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func documentRow(d model.Document) []string {
	return []string{
		d.ID,
		d.FileName,
		format.FileType(d.FileType),
		string(d.Category),
		format.FileSize(d.FileSize),
		format.Date(d.UploadDate),
	}
}

// renderDocuments prints docs as a table followed by a count line.
func renderDocuments(w io.Writer, docs []model.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TYPE", "CATEGORY", "SIZE", "UPLOADED").
		Rows(lo.Map(docs, func(d model.Document, _ int) []string { return documentRow(d) })...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			default:
				return cellStyle
			}
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, countStyle.Render(fmt.Sprintf("%d document(s)", len(docs))))
}

func renderDocument(w io.Writer, verb string, d model.Document) {
	fmt.Fprintf(w, "%s %s (id %s, %s, %s)\n", verb, d.FileName, d.ID, d.Category, format.FileSize(d.FileSize))
}
