package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/studymap/internal/cli/formatter"
	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type roadmapKeys struct {
	Up      key.Binding
	Down    key.Binding
	Click   key.Binding
	Advance key.Binding
	Clear   key.Binding
	Reset   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultRoadmapKeys() roadmapKeys {
	return roadmapKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Click:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select / advance")),
		Advance: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "advance")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r r", "reset progress")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k roadmapKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Advance, k.Reset, k.Help, k.Quit}
}

func (k roadmapKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Click, k.Advance},
		{k.Clear, k.Reset, k.Help, k.Quit},
	}
}

type clickedMsg struct {
	res viewmodel.ClickResult
	err error
}

type resetMsg struct{ err error }

// roadmapModel is the interactive roadmap view. Enter selects a topic and
// a second enter on the selected topic advances its status, matching a
// click on the graph.
type roadmapModel struct {
	ctx    context.Context
	vm     *viewmodel.Model
	styled bool

	keys   roadmapKeys
	help   help.Model
	cursor int
	width  int

	graph        viewmodel.Graph
	detail       string
	status       string
	confirmReset bool
}

func newRoadmapModel(ctx context.Context, vm *viewmodel.Model, styled bool) roadmapModel {
	m := roadmapModel{
		ctx:    ctx,
		vm:     vm,
		styled: styled,
		keys:   defaultRoadmapKeys(),
		help:   help.New(),
		width:  80,
	}
	m.sync()
	return m
}

func (m roadmapModel) Init() tea.Cmd { return nil }

func (m roadmapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.sync()
		return m, nil

	case clickedMsg:
		if msg.err != nil {
			m.status = formatter.StyleRed.Render(msg.err.Error())
		} else if msg.res.Advanced {
			m.status = fmt.Sprintf("%s: %s → %s", m.label(msg.res.NodeID), msg.res.Previous, msg.res.Status)
		} else {
			m.status = ""
		}
		m.sync()
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.status = formatter.StyleRed.Render(msg.err.Error())
		} else {
			m.status = "Progress reset"
		}
		m.sync()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m roadmapModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Reset) {
		m.confirmReset = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.graph.Nodes)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Click):
		if id, ok := m.current(); ok {
			return m, m.click(id, m.vm.Click)
		}
	case key.Matches(msg, m.keys.Advance):
		if id, ok := m.current(); ok {
			return m, m.click(id, m.vm.Advance)
		}
	case key.Matches(msg, m.keys.Clear):
		m.vm.Deselect()
		m.sync()
	case key.Matches(msg, m.keys.Reset):
		if !m.confirmReset {
			m.confirmReset = true
			m.status = formatter.StyleYellow.Render("Press r again to reset all progress")
			return m, nil
		}
		m.confirmReset = false
		ctx, vm := m.ctx, m.vm
		return m, func() tea.Msg { return resetMsg{err: vm.Reset(ctx)} }
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m roadmapModel) click(id string, fn func(context.Context, string) (viewmodel.ClickResult, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := fn(ctx, id)
		return clickedMsg{res: res, err: err}
	}
}

func (m roadmapModel) current() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.graph.Nodes) {
		return "", false
	}
	return m.graph.Nodes[m.cursor].ID, true
}

func (m roadmapModel) label(id string) string {
	if n, ok := m.vm.Node(id); ok {
		return n.Label
	}
	return id
}

// sync re-reads the graph and re-renders the detail panel.
func (m *roadmapModel) sync() {
	m.graph = m.vm.Graph()
	m.detail = ""
	d := m.vm.Selected()
	if d == nil {
		return
	}
	md := formatter.DetailMarkdown(*d)
	out, err := formatter.RenderMarkdown(md, max(m.width-4, 20), m.styled)
	if err != nil {
		m.detail = md
		return
	}
	m.detail = strings.Trim(out, "\n")
}

func (m roadmapModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.Header(m.graph.Topic) + "\n")
	b.WriteString(formatter.RenderProgress(m.graph.Stats.Percentage, 20))
	b.WriteString(formatter.Dim(fmt.Sprintf("  %d/%d completed", m.graph.Stats.Completed, m.graph.Stats.Total)) + "\n\n")

	if len(m.graph.Nodes) == 0 {
		b.WriteString(formatter.Dim("This plan has no roadmap topics.") + "\n")
	} else {
		lines := strings.Split(strings.TrimRight(formatter.FormatRoadmapTree(m.graph), "\n"), "\n")
		for i, line := range lines {
			marker := "  "
			if i == m.cursor {
				marker = formatter.StyleHeader.Render("› ")
			}
			if m.graph.Nodes[i].Selected {
				line += formatter.StylePurple.Render("  ◀")
			}
			b.WriteString(marker + line + "\n")
		}
	}

	if m.detail != "" {
		b.WriteString("\n" + lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(formatter.ColorDim).
			Render(m.detail) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
