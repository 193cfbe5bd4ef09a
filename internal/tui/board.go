// Package tui is the interactive terminal board.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/rota/core/editor"
	"github.com/kilianp07/rota/core/solver"
	"github.com/kilianp07/rota/core/workspace"
)

// Messages
type generatedMsg struct {
	result solver.Result
	err    error
}

type savedMsg struct {
	err error
}

// Model is the bubbletea model of the board. The cursor is a column
// (session) and a row; row -1 is the session header.
type Model struct {
	ws      *workspace.Workspace
	save    func() error
	keys    KeyMap
	col     int
	row     int
	confirm bool
	busy    bool
	status  string
	err     error
}

// NewModel returns a board on ws. save may be nil.
func NewModel(ws *workspace.Workspace, save func() error) Model {
	return Model{ws: ws, save: save, keys: DefaultKeyMap(), row: -1}
}

// Init generates an assignment when the workspace has none.
func (m Model) Init() tea.Cmd {
	if _, err := m.ws.View(); errors.Is(err, workspace.ErrNotGenerated) {
		return m.generate(false)
	}
	return nil
}

func (m Model) generate(confirm bool) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		res, err := ws.Generate(confirm)
		return generatedMsg{result: res, err: err}
	}
}

func (m Model) saveCmd() tea.Cmd {
	save := m.save
	return func() tea.Msg { return savedMsg{err: save()} }
}

// Update handles key presses and command results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		m.busy = false
		m.confirm = false
		m.err = nil
		switch {
		case errors.Is(msg.err, workspace.ErrConfirmRequired):
			m.confirm = true
			m.status = "manual edits will be discarded; press g again to confirm"
		case msg.err != nil:
			m.err = msg.err
			m.status = ""
		default:
			m.status = fmt.Sprintf("generated: objective %.1f, %d nodes, %s", msg.result.Objective, msg.result.Nodes, msg.result.Duration.Round(time.Millisecond))
		}
		m.clamp()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = "saved"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if key.Matches(msg, m.keys.Generate) {
		m.busy = true
		m.status = "solving..."
		return m, m.generate(m.confirm)
	}
	m.confirm = false

	switch {
	case key.Matches(msg, m.keys.Left):
		m.col--
	case key.Matches(msg, m.keys.Right):
		m.col++
	case key.Matches(msg, m.keys.Up):
		m.row--
	case key.Matches(msg, m.keys.Down):
		m.row++
	case key.Matches(msg, m.keys.Pick):
		m.pick()
	case key.Matches(msg, m.keys.Cancel):
		if _, err := m.ws.Cancel(); err == nil {
			m.status = "selection cleared"
		}
	case key.Matches(msg, m.keys.Save):
		if m.save != nil {
			return m, m.saveCmd()
		}
	}
	m.clamp()
	return m, nil
}

func (m *Model) clamp() {
	v, err := m.ws.View()
	if err != nil || len(v.Columns) == 0 {
		m.col, m.row = 0, -1
		return
	}
	m.col = max(0, min(m.col, len(v.Columns)-1))
	m.row = max(-1, min(m.row, len(v.Columns[m.col].Cells)-1))
}

func (m *Model) pick() {
	v, err := m.ws.View()
	if err != nil {
		m.err = err
		return
	}
	if m.col < 0 || m.col >= len(v.Columns) {
		return
	}
	col := v.Columns[m.col]
	if m.row >= len(col.Cells) {
		return
	}
	var out editor.Outcome
	if m.row < 0 {
		out, err = m.ws.PickSession(col.Header.Session)
	} else {
		out, err = m.ws.PickMember(col.Cells[m.row].Member, col.Header.Session)
	}
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = describeOutcome(out, m.ws)
}

func describeOutcome(out editor.Outcome, ws *workspace.Workspace) string {
	mx := ws.Matrix()
	switch out.Result {
	case editor.Moved:
		return fmt.Sprintf("moved %s: %s → %s", mx.Member(out.Member), mx.Session(out.From), mx.Session(out.To))
	case editor.Swapped:
		return fmt.Sprintf("swapped %s (%s) ⇄ %s (%s)", mx.Member(out.Member), mx.Session(out.From), mx.Member(out.Other), mx.Session(out.To))
	case editor.Rejected:
		return "not allowed here"
	}
	return out.Result.String()
}

// View renders the board.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("rota"))
	b.WriteString("\n")

	v, err := m.ws.View()
	if err != nil {
		b.WriteString(StatusStyle.Render("no assignment yet: press g to generate"))
	} else {
		b.WriteString(StatusStyle.Render("selection: " + v.Selection))
		b.WriteString("\n")
		cols := make([]string, len(v.Columns))
		for i, c := range v.Columns {
			cols[i] = m.renderColumn(i, c)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(formatError(m.err)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(StatusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(StatusStyle.Render(helpLine(m.keys)))
	return b.String()
}

func (m Model) renderColumn(i int, c editor.Column) string {
	h := c.Header
	label := fmt.Sprintf("%s %d", h.Session, h.Count)
	if h.Max > 0 || h.Min > 0 {
		label = fmt.Sprintf("%s %d/%d-%d", h.Session, h.Count, h.Min, h.Max)
	}
	if h.OutOfBounds {
		label += " !"
	}
	head := styleFor(h.Highlight).Render(label)
	if i == m.col && m.row < 0 {
		head = CursorStyle.Render(head)
	}
	lines := []string{head}
	for r, cell := range c.Cells {
		text := cell.Member
		if cell.Occurrence > 0 {
			text = fmt.Sprintf("%s(%d)", cell.Member, cell.Occurrence)
		}
		if cell.Status == "tentative" {
			text += " △"
		}
		text = styleFor(cell.Highlight).Render(text)
		if i == m.col && r == m.row {
			text = CursorStyle.Render(text)
		}
		lines = append(lines, text)
	}
	return ColumnStyle.Render(strings.Join(lines, "\n"))
}

func formatError(err error) string {
	var cfgErr *solver.ConfigurationError
	if errors.As(err, &cfgErr) {
		parts := make([]string, len(cfgErr.Issues))
		for i, is := range cfgErr.Issues {
			parts[i] = "• " + is.String()
		}
		return "invalid settings:\n" + strings.Join(parts, "\n")
	}
	switch {
	case errors.Is(err, solver.ErrInfeasible):
		return "no assignment satisfies the settings"
	case errors.Is(err, solver.ErrTimeout):
		return "solver time limit reached"
	}
	return err.Error()
}

func helpLine(k KeyMap) string {
	parts := make([]string, 0, len(k.ShortHelp()))
	for _, b := range k.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
