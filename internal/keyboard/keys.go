package keyboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
)

// Keys holds the keyboard shortcuts of the watch view
type Keys struct {
	FilterActivate string // Activate filter mode
	Back           string // Leave filter mode / clear filter

	// Navigation
	Up         string // Move selection up
	Down       string // Move selection down
	JumpTop    string // Jump to top
	JumpBottom string // Jump to bottom
	PageUp     string // Page up
	PageDown   string // Page down

	Quit    string // Quit application
	QuitAlt string
}

// Default returns the default k9s-aligned keyboard configuration
func Default() *Keys {
	return &Keys{
		FilterActivate: "/",
		Back:           "esc",

		Up:         "k",
		Down:       "j",
		JumpTop:    "g",
		JumpBottom: "G",
		PageUp:     "ctrl+b",
		PageDown:   "ctrl+f",

		Quit:    "ctrl+c",
		QuitAlt: "q",
	}
}

// TableKeyMap binds the navigation keys to a bubbles table, next to the
// arrow and page keys
func (k *Keys) TableKeyMap() table.KeyMap {
	km := table.DefaultKeyMap()
	km.LineUp = key.NewBinding(key.WithKeys("up", k.Up), key.WithHelp("↑/"+k.Up, "up"))
	km.LineDown = key.NewBinding(key.WithKeys("down", k.Down), key.WithHelp("↓/"+k.Down, "down"))
	km.GotoTop = key.NewBinding(key.WithKeys("home", k.JumpTop), key.WithHelp(k.JumpTop, "go to start"))
	km.GotoBottom = key.NewBinding(key.WithKeys("end", k.JumpBottom), key.WithHelp(k.JumpBottom, "go to end"))
	km.PageUp = key.NewBinding(key.WithKeys("pgup", k.PageUp), key.WithHelp("pgup", "page up"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown", k.PageDown), key.WithHelp("pgdown", "page down"))
	return km
}
