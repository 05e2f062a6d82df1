package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme and styles for the terminal frontend
type Theme struct {
	Name string

	// Core colors
	Primary    lipgloss.AdaptiveColor
	Foreground lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Error      lipgloss.AdaptiveColor
	Success    lipgloss.AdaptiveColor
	Warning    lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
	Background lipgloss.AdaptiveColor

	// Component styles
	Table     TableStyles
	Title     lipgloss.Style
	StatusBar lipgloss.Style
}

// TableStyles defines styles for the contexts table
type TableStyles struct {
	Header      lipgloss.Style
	Cell        lipgloss.Style
	SelectedRow lipgloss.Style
	Reachable   lipgloss.Style
	Unreachable lipgloss.Style
	Checking    lipgloss.Style
}

// ToTableStyles converts Theme.Table to bubbles table.Styles
func (t *Theme) ToTableStyles() table.Styles {
	return table.Styles{
		Header:   t.Table.Header,
		Cell:     t.Table.Cell,
		Selected: t.Table.SelectedRow,
	}
}

// palette is the set of colors a theme is derived from
type palette struct {
	primary, foreground, muted        lipgloss.AdaptiveColor
	err, success, warning             lipgloss.AdaptiveColor
	border, background                lipgloss.AdaptiveColor
	selectedFg, selectedBg, titleBack lipgloss.Color
}

func newTheme(name string, p palette) *Theme {
	t := &Theme{
		Name:       name,
		Primary:    p.primary,
		Foreground: p.foreground,
		Muted:      p.muted,
		Error:      p.err,
		Success:    p.success,
		Warning:    p.warning,
		Border:     p.border,
		Background: p.background,
	}

	t.Table.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.Primary).
		PaddingLeft(1).
		PaddingRight(1)

	t.Table.Cell = lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)

	t.Table.SelectedRow = lipgloss.NewStyle().
		Foreground(p.selectedFg).
		Background(p.selectedBg)

	t.Table.Reachable = lipgloss.NewStyle().Foreground(t.Success)
	t.Table.Unreachable = lipgloss.NewStyle().Foreground(t.Error)
	t.Table.Checking = lipgloss.NewStyle().Foreground(t.Warning)

	t.Title = lipgloss.NewStyle().
		Foreground(t.Primary).
		Background(p.titleBack).
		Bold(true).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(t.Muted)

	return t
}

// ThemeCharm returns the default Charm theme
func ThemeCharm() *Theme {
	return newTheme("charm", palette{
		primary:    lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"},
		foreground: lipgloss.AdaptiveColor{Light: "235", Dark: "252"},
		muted:      lipgloss.AdaptiveColor{Light: "243", Dark: "243"},
		err:        lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"},
		success:    lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"},
		warning:    lipgloss.AdaptiveColor{Light: "#FFAA00", Dark: "#FFAA00"},
		border:     lipgloss.AdaptiveColor{Light: "240", Dark: "240"},
		background: lipgloss.AdaptiveColor{Light: "254", Dark: "235"},
		selectedFg: lipgloss.Color("229"),
		selectedBg: lipgloss.Color("57"),
		titleBack:  lipgloss.Color("235"),
	})
}

// ThemeDracula returns a Dracula-inspired theme
func ThemeDracula() *Theme {
	return newTheme("dracula", palette{
		primary:    lipgloss.AdaptiveColor{Light: "#bd93f9", Dark: "#bd93f9"},
		foreground: lipgloss.AdaptiveColor{Light: "#282a36", Dark: "#f8f8f2"},
		muted:      lipgloss.AdaptiveColor{Light: "#6272a4", Dark: "#6272a4"},
		err:        lipgloss.AdaptiveColor{Light: "#ff5555", Dark: "#ff5555"},
		success:    lipgloss.AdaptiveColor{Light: "#50fa7b", Dark: "#50fa7b"},
		warning:    lipgloss.AdaptiveColor{Light: "#f1fa8c", Dark: "#f1fa8c"},
		border:     lipgloss.AdaptiveColor{Light: "61", Dark: "61"},
		background: lipgloss.AdaptiveColor{Light: "#f8f8f2", Dark: "#282a36"},
		selectedFg: lipgloss.Color("#282a36"),
		selectedBg: lipgloss.Color("#bd93f9"),
		titleBack:  lipgloss.Color("#44475a"),
	})
}

// ThemeNord returns a Nord-inspired theme of cool blues and grays
func ThemeNord() *Theme {
	return newTheme("nord", palette{
		primary:    lipgloss.AdaptiveColor{Light: "#5e81ac", Dark: "#88c0d0"},
		foreground: lipgloss.AdaptiveColor{Light: "#2e3440", Dark: "#eceff4"},
		muted:      lipgloss.AdaptiveColor{Light: "#4c566a", Dark: "#4c566a"},
		err:        lipgloss.AdaptiveColor{Light: "#bf616a", Dark: "#bf616a"},
		success:    lipgloss.AdaptiveColor{Light: "#a3be8c", Dark: "#a3be8c"},
		warning:    lipgloss.AdaptiveColor{Light: "#ebcb8b", Dark: "#ebcb8b"},
		border:     lipgloss.AdaptiveColor{Light: "#d8dee9", Dark: "#3b4252"},
		background: lipgloss.AdaptiveColor{Light: "#eceff4", Dark: "#2e3440"},
		selectedFg: lipgloss.Color("#2e3440"),
		selectedBg: lipgloss.Color("#88c0d0"),
		titleBack:  lipgloss.Color("#3b4252"),
	})
}

// ThemeGruvbox returns a Gruvbox-inspired theme of warm retro colors
func ThemeGruvbox() *Theme {
	return newTheme("gruvbox", palette{
		primary:    lipgloss.AdaptiveColor{Light: "#af3a03", Dark: "#fe8019"},
		foreground: lipgloss.AdaptiveColor{Light: "#3c3836", Dark: "#ebdbb2"},
		muted:      lipgloss.AdaptiveColor{Light: "#7c6f64", Dark: "#928374"},
		err:        lipgloss.AdaptiveColor{Light: "#9d0006", Dark: "#fb4934"},
		success:    lipgloss.AdaptiveColor{Light: "#79740e", Dark: "#b8bb26"},
		warning:    lipgloss.AdaptiveColor{Light: "#b57614", Dark: "#fabd2f"},
		border:     lipgloss.AdaptiveColor{Light: "#d5c4a1", Dark: "#504945"},
		background: lipgloss.AdaptiveColor{Light: "#fbf1c7", Dark: "#282828"},
		selectedFg: lipgloss.Color("#282828"),
		selectedBg: lipgloss.Color("#fe8019"),
		titleBack:  lipgloss.Color("#3c3836"),
	})
}

// GetTheme returns a theme by name, defaulting to Charm
func GetTheme(name string) *Theme {
	switch name {
	case "dracula":
		return ThemeDracula()
	case "nord":
		return ThemeNord()
	case "gruvbox":
		return ThemeGruvbox()
	default:
		return ThemeCharm()
	}
}

// AvailableThemes returns a list of available theme names
func AvailableThemes() []string {
	return []string{"charm", "dracula", "nord", "gruvbox"}
}
