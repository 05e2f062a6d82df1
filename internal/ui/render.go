package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// HealthStyle returns the style a health value is rendered with
func (t *Theme) HealthStyle(h Health) lipgloss.Style {
	switch h {
	case HealthReachable:
		return t.Table.Reachable
	case HealthChecking:
		return t.Table.Checking
	case HealthOffline, HealthError:
		return t.Table.Unreachable
	default:
		return lipgloss.NewStyle().Foreground(t.Muted)
	}
}

var tableHeaders = []string{"", "NAME", "CLUSTER", "USER", "HEALTH", "RESOURCES", "DENIED"}

func rowCells(r ContextRow) []string {
	marker := ""
	if r.Current {
		marker = "*"
	}
	return []string{
		marker,
		r.Name,
		r.Cluster,
		r.User,
		string(r.Health),
		r.Resources,
		strings.Join(r.Denied, ","),
	}
}

// RenderTable renders rows as a static bordered table
func RenderTable(rows []ContextRow, theme *Theme) string {
	const healthColumn = 4

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(tableHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Table.Header.UnsetBorderStyle().UnsetBorderBottom()
			}
			style := theme.Table.Cell
			if col == healthColumn && row >= 0 && row < len(rows) {
				style = style.Inherit(theme.HealthStyle(rows[row].Health))
			}
			return style
		})

	for _, r := range rows {
		t.Row(rowCells(r)...)
	}
	return t.Render()
}
