package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/1broseidon/deskctl/internal/automation"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	asyncStyle = cellStyle.
			Foreground(lipgloss.Color("214"))

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// modeColumn is the column index asyncStyle applies to.
const modeColumn = 1

// ArgList renders cmd's parameters, optional ones in brackets.
func ArgList(cmd *automation.Command) string {
	parts := make([]string, 0, len(cmd.Params))
	for _, p := range cmd.Params {
		if p.Required() {
			parts = append(parts, p.Name)
		} else {
			parts = append(parts, "["+p.Name+"]")
		}
	}
	return strings.Join(parts, " ")
}

// CommandTable renders the command table for a terminal.
func CommandTable(cmds []*automation.Command) string {
	rows := make([][]string, 0, len(cmds))
	for _, cmd := range cmds {
		rows = append(rows, []string{cmd.Name, cmd.Mode.String(), ArgList(cmd), cmd.Summary})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("COMMAND", "MODE", "ARGS", "SUMMARY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == modeColumn && rows[row][modeColumn] == automation.Async.String():
				return asyncStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}
