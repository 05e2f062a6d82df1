package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/renato0307/kubecontexts/internal/keyboard"
	"github.com/renato0307/kubecontexts/internal/rpc"
)

// Source delivers the messages of one extension connection.
// *rpc.Client is a Source.
type Source interface {
	Messages() <-chan rpc.Message
	Err() error
}

// PayloadMsg carries one message received from the extension
type PayloadMsg rpc.Message

// DisconnectedMsg reports the end of the connection
type DisconnectedMsg struct {
	Err error
}

// WaitForMessage returns a command that blocks until the next message
func WaitForMessage(src Source) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-src.Messages()
		if !ok {
			return DisconnectedMsg{Err: src.Err()}
		}
		return PayloadMsg(msg)
	}
}

// Model is the live contexts view
type Model struct {
	source  Source
	theme   *Theme
	keys    *keyboard.Keys
	table   table.Model
	spinner spinner.Model

	snapshot Snapshot
	rows     []ContextRow

	filter    string
	filtering bool

	status     string
	statusKind MessageKind

	width  int
	height int
}

// NewModel creates a view fed by source
func NewModel(source Source, theme *Theme) *Model {
	keys := keyboard.Default()
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(keys.TableKeyMap()),
	)
	t.SetStyles(theme.ToTableStyles())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Warning)

	return &Model{
		source:  source,
		theme:   theme,
		keys:    keys,
		table:   t,
		spinner: s,
		width:   80,

		status:     "waiting for contexts",
		statusKind: MessageLoading,
	}
}

// columns sizes the table for a terminal width; NAME and RESOURCES share
// what the fixed columns leave.
func columns(width int) []table.Column {
	const fixed = 2 + 16 + 14 + 10 + 14
	flexible := max(width-fixed-2*len(tableHeaders), 20)
	return []table.Column{
		{Title: tableHeaders[0], Width: 2},
		{Title: tableHeaders[1], Width: flexible * 2 / 5},
		{Title: tableHeaders[2], Width: 16},
		{Title: tableHeaders[3], Width: 14},
		{Title: tableHeaders[4], Width: 10},
		{Title: tableHeaders[5], Width: flexible - flexible*2/5},
		{Title: tableHeaders[6], Width: 14},
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, WaitForMessage(m.source))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			m.updateFilter(msg)
			return m, nil
		}
		switch msg.String() {
		case m.keys.Quit, m.keys.QuitAlt:
			return m, tea.Quit
		case m.keys.FilterActivate:
			m.filtering = true
			return m, nil
		case m.keys.Back:
			m.setFilter("")
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case PayloadMsg:
		if err := m.snapshot.Apply(rpc.Message(msg)); err != nil {
			m.status, m.statusKind = err.Error(), MessageError
		} else {
			m.status, m.statusKind = "", MessageInfo
		}
		m.refresh()
		return m, WaitForMessage(m.source)

	case DisconnectedMsg:
		text := "disconnected from extension"
		if msg.Err != nil {
			text = fmt.Sprintf("%s: %v", text, msg.Err)
		}
		m.status, m.statusKind = text, MessageError
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.setFilter("")
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.setFilter(string(r[:len(r)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		m.setFilter(m.filter + string(msg.Runes))
	}
}

func (m *Model) setFilter(filter string) {
	m.filter = filter
	m.refresh()
}

// refresh rebuilds the table rows from the snapshot
func (m *Model) refresh() {
	m.rows = FilterRows(m.snapshot.Rows(), m.filter)
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = rowCells(r)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSize resizes the view; the title and status lines take two rows.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-2, 3))
}

// Rows returns the rows currently shown
func (m *Model) Rows() []ContextRow {
	return m.rows
}

// Selected returns the row under the cursor
func (m *Model) Selected() (ContextRow, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return ContextRow{}, false
	}
	return m.rows[i], true
}

func (m *Model) View() string {
	title := m.theme.Title.Render("kubecontexts")
	if current := m.snapshot.Contexts.CurrentContext; current != "" {
		title += m.theme.StatusBar.Render(" current: " + current)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.table.View(), m.statusLine())
}

func (m *Model) statusLine() string {
	switch {
	case m.filtering:
		return RenderMessage("filter: "+m.filter, MessageInfo, m.theme, "", m.width)
	case m.status != "":
		return RenderMessage(m.status, m.statusKind, m.theme, m.spinner.View(), m.width)
	case m.snapshot.Checking():
		return RenderMessage("checking contexts", MessageLoading, m.theme, m.spinner.View(), m.width)
	}
	text := fmt.Sprintf("%d contexts", len(m.rows))
	if m.filter != "" {
		text += fmt.Sprintf(" matching %q", m.filter)
	}
	return RenderMessage(text, MessageSuccess, m.theme, "", m.width)
}
