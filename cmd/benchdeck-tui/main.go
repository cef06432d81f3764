// Command benchdeck-tui is a terminal client for the benchmark panel. It
// polls the run and log endpoints the way the dashboard page does and
// renders a live run table above a scrolling terminal view.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"

	"github.com/benchdeck/benchdeck/pkg/api"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2)

	logBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			Padding(0, 1).
			MarginLeft(2)

	focusedBoxStyle = logBoxStyle.
			BorderForeground(lipgloss.Color("#00FFFF"))

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			MarginLeft(2)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type pane int

const (
	runsPane pane = iota
	logsPane
)

type keyMap struct {
	Tab     key.Binding
	Refresh key.Binding
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch pane"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Refresh},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// apiClient wraps the panel's JSON endpoints.
type apiClient struct {
	base string
	http *http.Client
}

func (c apiClient) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tickMsg time.Time

type runsMsg []runner.RunInfo

type logsMsg struct {
	resp    api.LogsResponse
	initial bool
}

type fetchErrMsg struct{ err error }

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (c apiClient) fetchRuns() tea.Msg {
	var out api.RunsResponse
	if err := c.getJSON("/api/runs", &out); err != nil {
		return fetchErrMsg{err}
	}
	return runsMsg(out.Runs)
}

func (c apiClient) fetchLogs(after uint64, initial bool) tea.Cmd {
	return func() tea.Msg {
		path := "/api/logs"
		if !initial {
			path = "/api/logs?after=" + strconv.FormatUint(after, 10)
		}
		var out api.LogsResponse
		if err := c.getJSON(path, &out); err != nil {
			return fetchErrMsg{err}
		}
		return logsMsg{resp: out, initial: initial}
	}
}

type model struct {
	client   apiClient
	interval time.Duration

	runsTable table.Model
	logView   viewport.Model
	help      help.Model
	keys      keyMap

	focus    pane
	width    int
	height   int
	ready    bool
	synced   bool
	lastSeq  uint64
	logLines []string
	message  string
	failing  bool
}

func initialModel(client apiClient, interval time.Duration) model {
	columns := []table.Column{
		{Title: "Run", Width: 8},
		{Title: "Data Set", Width: 14},
		{Title: "Query", Width: 12},
		{Title: "Nodes", Width: 5},
		{Title: "State", Width: 10},
		{Title: "Duration", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(6),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#005577")).
		Bold(false)
	t.SetStyles(s)

	return model{
		client:    client,
		interval:  interval,
		runsTable: t,
		logView:   viewport.New(80, 16),
		help:      help.New(),
		keys:      keys,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.client.fetchRuns,
		m.client.fetchLogs(0, true),
		tickCmd(m.interval),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.ready = true

	case tickMsg:
		return m, tea.Batch(
			m.client.fetchRuns,
			m.client.fetchLogs(m.lastSeq, !m.synced),
			tickCmd(m.interval),
		)

	case runsMsg:
		m.setRuns(msg)
		m.failing = false
		m.message = ""

	case logsMsg:
		m.applyLogs(msg)
		m.failing = false
		m.message = ""

	case fetchErrMsg:
		m.failing = true
		m.message = msg.err.Error()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			if m.focus == runsPane {
				m.focus = logsPane
				m.runsTable.Blur()
			} else {
				m.focus = runsPane
				m.runsTable.Focus()
			}

		case key.Matches(msg, m.keys.Refresh):
			return m, tea.Batch(
				m.client.fetchRuns,
				m.client.fetchLogs(m.lastSeq, !m.synced),
			)
		}
	}

	// Route movement keys to the focused pane.
	switch m.focus {
	case runsPane:
		m.runsTable, cmd = m.runsTable.Update(msg)
		cmds = append(cmds, cmd)
	case logsPane:
		m.logView, cmd = m.logView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) resize() {
	width := m.width - 8
	if width < 40 {
		width = 40
	}
	m.logView.Width = width

	// Title, table, headers, status and help take the rest.
	height := m.height - m.runsTable.Height() - 14
	if height < 5 {
		height = 5
	}
	m.logView.Height = height
}

// setRuns refreshes the table. The server already ships newest first.
func (m *model) setRuns(runs []runner.RunInfo) {
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, table.Row{
			logring.ShortID(run.ID),
			run.Params.Dataset,
			run.Params.Query,
			strconv.Itoa(run.Params.Nodes),
			string(run.State),
			run.Duration().Round(time.Second).String(),
		})
	}
	m.runsTable.SetRows(rows)
}

// applyLogs folds a poll response into the terminal view. The first poll
// carries the whole buffer text; later polls append only new entries. A
// sequence gap means the ring wrapped past us while we were away.
func (m *model) applyLogs(msg logsMsg) {
	follow := m.logView.AtBottom() || !m.synced

	if msg.initial {
		m.logLines = nil
		if msg.resp.Text != "" {
			m.logLines = strings.Split(strings.TrimRight(msg.resp.Text, "\n"), "\n")
		}
		m.lastSeq = msg.resp.LastSeq
		m.synced = true
	} else {
		for _, entry := range msg.resp.Entries {
			if entry.Seq > m.lastSeq+1 && m.lastSeq > 0 {
				m.logLines = append(m.logLines, "... older lines dropped ...")
			}
			m.logLines = append(m.logLines, entry.Tagged())
			m.lastSeq = entry.Seq
		}
	}

	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	if follow {
		m.logView.GotoBottom()
	}
}

func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Benchdeck - Benchmark Panel"))
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render("Runs"))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.runsTable.View()))
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render("Terminal Output"))
	s.WriteString("\n")
	box := logBoxStyle
	if m.focus == logsPane {
		box = focusedBoxStyle
	}
	s.WriteString(box.Render(m.logView.View()))
	s.WriteString("\n")

	if m.failing {
		s.WriteString(statusErrStyle.Render("✗ " + m.message))
	} else {
		s.WriteString(statusOKStyle.Render("● " + m.client.base))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8050", "Panel server base URL")
	interval := flag.Duration("interval", time.Second, "Poll interval")
	flag.Parse()

	client := apiClient{
		base: strings.TrimRight(*addr, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}

	p := tea.NewProgram(initialModel(client, *interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
