package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/engine"
	"github.com/verte-zerg/macula/internal/model"
	"github.com/verte-zerg/macula/internal/stats"
)

const tickInterval = 100 * time.Millisecond

type tickMsg time.Time

type keyMap struct {
	Toggle key.Binding
	Next   key.Binding
	Help   key.Binding
	Quit   key.Binding
	Up     key.Binding
	Down   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "start/stop timer")),
		Next:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next sentence")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "q", "esc"), key.WithHelp("q", "quit")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "scroll")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↑/↓", "scroll")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Next},
		{k.Up, k.Help, k.Quit},
	}
}

var (
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	readingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	timerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	resultStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(0, 1)
)

// Model implements the Bubble Tea reading console.
type Model struct {
	reading *engine.Reading
	log     *zap.Logger

	keys   keyMap
	help   help.Model
	bar    progress.Model
	result viewport.Model

	width  int
	height int

	last    *model.ReadingAttempt
	errMsg  string
	done    bool
	aborted bool
}

// NewModel constructs a reading console over an active session.
func NewModel(r *engine.Reading, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{
		reading: r,
		log:     log,
		keys:    defaultKeyMap(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		result:  viewport.New(0, 0),
	}
}

// Result returns the session outcome so far.
func (m *Model) Result() model.ReadingResult {
	return m.reading.Result()
}

// Completed reports whether every sentence was passed before quitting.
func (m *Model) Completed() bool {
	return m.done && !m.aborted
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tickMsg:
		if m.reading.Running() {
			return m, tick()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if !m.done {
			m.aborted = true
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.done {
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return m, cmd
	}
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleTimer()
	case key.Matches(msg, m.keys.Next):
		m.next()
	}
	return m, nil
}

func (m *Model) toggleTimer() tea.Cmd {
	m.errMsg = ""
	if !m.reading.Running() {
		if err := m.reading.StartTimer(); err != nil {
			m.errMsg = err.Error()
			return nil
		}
		return tick()
	}
	attempt, err := m.reading.StopTimer()
	if err != nil {
		m.log.Warn("timer stop failed", zap.Error(err))
		m.errMsg = err.Error()
		return nil
	}
	m.last = &attempt
	return nil
}

func (m *Model) next() {
	m.errMsg = ""
	more, err := m.reading.Next()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.last = nil
	if !more {
		m.done = true
		m.refreshResult()
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.bar.Width = max(width/2, 10)
	m.result.Width = width
	m.result.Height = max(height-2, 1)
	if m.done {
		m.refreshResult()
	}
}

func (m *Model) refreshResult() {
	var b strings.Builder
	if err := stats.RenderResult(&b, m.reading.Result(), stats.PlotOptions{Width: m.width}); err != nil {
		m.log.Warn("render result failed", zap.Error(err))
	}
	m.result.SetContent(resultStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return m.result.View() + "\n" + m.help.View(m.keys)
	}
	sentence, _, _ := m.reading.Current()
	contentWidth := int(float64(m.width) * 0.70)
	style := idleStyle
	if m.reading.Running() {
		style = readingStyle
	}
	lines := wrapWords(sentence.Text, contentWidth)
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.reading.Running() {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", timerStyle.Render(formatElapsed(m.reading.Elapsed())))
	}
	if m.errMsg != "" {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", errorStyle.Render(m.errMsg))
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}

	footer := lipgloss.JoinVertical(lipgloss.Center,
		m.bar.ViewAs(m.progress()),
		m.renderFooter(),
		m.help.View(m.keys),
	)
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
}

func (m *Model) progress() float64 {
	_, idx, _ := m.reading.Current()
	return float64(idx) / float64(m.reading.Len())
}

func (m *Model) renderFooter() string {
	_, idx, _ := m.reading.Current()
	segments := []string{fmt.Sprintf("Sentence %d/%d", idx+1, m.reading.Len())}
	if m.last != nil {
		segments = append(segments, fmt.Sprintf("Last %d WPM", m.last.WordsPerMinute))
	}
	if res := m.reading.Result(); len(res.Attempts) > 0 {
		segments = append(segments, fmt.Sprintf("Mean %.1f WPM", res.MeanWPM))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
