// Package tui is the terminal scoreboard: a log of transitions, the
// standings, and a command line driving one match.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/match"
	"github.com/lox/coindart/internal/statistics"
	"github.com/lox/coindart/internal/store"
)

// Model is the Bubble Tea model for a match
type Model struct {
	ctx    context.Context
	match  *match.Match
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	// State
	gameLog     []string
	snap        game.Snapshot
	status      string
	statusErr   bool
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Transitions queued by the match subscriber
	mu      sync.Mutex
	pending []transition
	notify  chan struct{}

	// Dimensions
	width       int
	height      int
	initialized bool
}

type transition struct {
	event game.Event
	snap  game.Snapshot
}

// transitionMsg wakes the model to drain queued transitions.
type transitionMsg struct{}

// NewModel creates a model for m. ctx bounds store calls made by commands.
func NewModel(ctx context.Context, m *match.Match, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter darts (20 5 1), t 45, p 2 bust, u, n, help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	model := &Model{
		ctx:         ctx,
		match:       m,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		gameLog:     []string{},
		snap:        m.Snapshot(),
		notify:      make(chan struct{}, 1),
		focusedPane: 1,
	}
	m.Subscribe(model.enqueue)
	return model
}

// enqueue runs inside the match lock, so it only records the transition.
func (m *Model) enqueue(e game.Event, snap game.Snapshot) {
	m.mu.Lock()
	m.pending = append(m.pending, transition{event: e, snap: snap})
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForTransition())
}

func (m *Model) waitForTransition() tea.Cmd {
	return func() tea.Msg {
		<-m.notify
		return transitionMsg{}
	}
}

// drain applies queued transitions to the log and the standings.
func (m *Model) drain() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, t := range pending {
		if line := describe(t.event, t.snap); line != "" {
			m.AddLogEntry(line)
		}
		m.snap = t.snap
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case transitionMsg:
		m.drain()
		cmds = append(cmds, m.waitForTransition())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if cmd := m.Execute(line); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Execute runs one command line against the match. It returns tea.Quit
// for the quit command.
func (m *Model) Execute(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if err != nil {
		m.setStatus(err)
		return nil
	}
	m.status, m.statusErr = "", false

	switch cmd.Kind {
	case CommandNone:
	case CommandQuit:
		m.quitting = true
		return tea.Quit
	case CommandHelp:
		for _, l := range strings.Split(Help, "\n") {
			m.AddLogEntry(InfoStyle.Render(l))
		}
	case CommandStart:
		_, err = m.match.Start(cmd.Names, 0)
	case CommandDarts:
		_, err = m.match.SubmitTurn(cmd.Darts)
	case CommandTotal:
		_, err = m.match.SubmitTotal(cmd.Total)
	case CommandPenalty:
		if cmd.Preset != "" {
			_, err = m.match.AddPreset(cmd.Seat, cmd.Preset)
		} else {
			_, err = m.match.AddPenalty(cmd.Seat, cmd.Amount, cmd.Reason)
		}
	case CommandUndoPenalty:
		if _, applied := m.match.UndoPenalty(cmd.Seat); !applied {
			m.status = "Nothing to undo"
		}
	case CommandUndo:
		if _, applied := m.match.Undo(); !applied {
			m.status = "Nothing to undo"
		}
	case CommandNextRound:
		var rec store.GameRecord
		if rec, _, err = m.match.NextRound(m.ctx); err == nil && rec.ID != "" {
			m.status = "Recorded " + rec.ID
		}
	case CommandEnd:
		var rec store.GameRecord
		if rec, _, err = m.match.End(m.ctx); err == nil && rec.ID != "" {
			m.status = "Recorded " + rec.ID
		}
	case CommandReset:
		m.match.Reset()
	case CommandStats:
		err = m.showStatistics(cmd.Name)
	}

	if err != nil {
		m.setStatus(err)
	}
	m.drain()
	return nil
}

func (m *Model) showStatistics(name string) error {
	stats, err := m.match.Statistics(m.ctx, store.ProfileKey(name))
	if err != nil {
		return err
	}
	m.AddLogEntry(fmt.Sprintf("%s: %d games, %d wins (%.0f%%), avg %.1f, best %d, penalties %.1f",
		stats.Name, stats.TotalGames, stats.TotalWins, stats.WinRate,
		stats.AverageScore, stats.BestGame, stats.TotalPenalties))
	return nil
}

func (m *Model) setStatus(err error) {
	m.logger.Debug("Command failed", "error", err)
	m.status = err.Error()
	m.statusErr = true
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(1)).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight-2, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(0)).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderColor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return lipgloss.Color("#04B575")
	}
	return lipgloss.Color("#626262")
}

// renderSidebarPane shows the round and the standings
func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	snap := m.snap

	b.WriteString(HeaderStyle.Render(fmt.Sprintf(" Round %d ", max(snap.CurrentRound, 1))))
	b.WriteString(" ")
	b.WriteString(InfoStyle.Render(snap.State.String()))
	b.WriteString("\n\n")

	if len(snap.Players) == 0 {
		b.WriteString(InfoStyle.Render("No players. Type: start A B"))
		return b.String()
	}

	limits := m.match.Limits()
	for _, p := range snap.Players {
		line := fmt.Sprintf("%d %-10s %4d", p.ID+1, p.Name, p.Round.Score)
		if len(p.Round.Turns) > 0 {
			line += fmt.Sprintf(" avg %.1f", statistics.FromTurns(p.Round.Turns, limits).Mean())
		}
		style := PlayerStyle
		if snap.State == game.InProgress && p.ID == snap.CurrentPlayer {
			line = "▶ " + line
			style = CurrentPlayerStyle
		} else {
			line = "  " + line
		}
		b.WriteString(style.Render(line))
		if p.Ledger.Total > 0 {
			b.WriteString(" ")
			b.WriteString(PenaltyStyle.Render(strconv.FormatFloat(p.Ledger.Total, 'f', -1, 64)))
		}
		b.WriteString("\n")
	}

	if snap.Stats.TotalRounds > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Wins:"))
		b.WriteString("\n")
		for _, p := range snap.Players {
			fmt.Fprintf(&b, "  %s %d\n", p.Name, snap.Stats.Wins(p.ID))
		}
	}
	if leader, ok := snap.SessionLeader(); ok {
		b.WriteString(SuccessStyle.Render("Leader: " + leader.Name))
		b.WriteString("\n")
	}
	return b.String()
}

// renderActionPane renders the prompt and the last status line
func (m *Model) renderActionPane() string {
	var b strings.Builder

	switch m.snap.State {
	case game.InProgress:
		if p, ok := m.snap.Current(); ok {
			b.WriteString(CurrentPlayerStyle.Render(fmt.Sprintf("%s to throw, %d left", p.Name, p.Round.Score)))
		}
	case game.RoundWon:
		b.WriteString(SuccessStyle.Render(m.snap.Winner.Name + " won the round. n for next round, end to finish"))
	case game.Ended:
		b.WriteString(InfoStyle.Render("Session ended. start A B to play again"))
	default:
		b.WriteString(InfoStyle.Render("start A B [C...] to begin"))
	}
	b.WriteString("\n")

	if m.status != "" {
		style := InfoStyle
		if m.statusErr {
			style = ErrorStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	b.WriteString(InfoStyle.Render(help))
	return b.String()
}

// AddLogEntry appends a line to the log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the log lines
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// Status returns the last status line and whether it reports an error.
func (m *Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// describe renders a transition as a log line.
func describe(e game.Event, snap game.Snapshot) string {
	name := ""
	if p, ok := snap.Player(e.PlayerID); ok {
		name = p.Name
	}
	var last game.HistoryEntry
	if n := len(snap.History); n > 0 {
		last = snap.History[n-1]
	}

	switch e.Type {
	case game.EventTypeInitialized:
		names := make([]string, len(snap.Players))
		for i, p := range snap.Players {
			names[i] = p.Name
		}
		return HeaderStyle.Render(fmt.Sprintf(" %s from %d ", strings.Join(names, ", "), snap.StartingScore))
	case game.EventTypeTurn:
		return LogStyle.Render(fmt.Sprintf("%s: %s → %d", name, formatDarts(last.Darts), last.NewScore))
	case game.EventTypeBust:
		return WarningStyle.Render(fmt.Sprintf("%s: %s BUST, stays on %d", name, formatDarts(last.Darts), last.NewScore))
	case game.EventTypeWin:
		return SuccessStyle.Render(fmt.Sprintf("%s checks out with %s!", name, formatDarts(last.Darts)))
	case game.EventTypePenaltyAdded:
		p, _ := snap.Player(e.PlayerID)
		if rec, ok := p.Ledger.Last(); ok {
			return PenaltyStyle.Render(fmt.Sprintf("%s +%s (%s)", name, strconv.FormatFloat(rec.Amount, 'f', -1, 64), rec.Reason))
		}
	case game.EventTypePenaltyUndone:
		return InfoStyle.Render(name + ": penalty removed")
	case game.EventTypeUndo:
		if name == "" {
			return InfoStyle.Render("Last turn undone")
		}
		return InfoStyle.Render(name + ": turn undone")
	case game.EventTypeRoundStarted:
		return HeaderStyle.Render(fmt.Sprintf(" Round %d ", snap.CurrentRound))
	case game.EventTypeEnded:
		if leader, ok := snap.SessionLeader(); ok {
			return HeaderStyle.Render(" Session over, " + leader.Name + " leads ")
		}
		return HeaderStyle.Render(" Session over ")
	case game.EventTypeReset:
		return InfoStyle.Render("Session reset")
	}
	return ""
}

func formatDarts(darts []int) string {
	parts := make([]string, len(darts))
	total := 0
	for i, d := range darts {
		parts[i] = strconv.Itoa(d)
		total += d
	}
	if len(darts) == 1 {
		return parts[0]
	}
	return fmt.Sprintf("%s (%d)", strings.Join(parts, "+"), total)
}
