//go:build !gui

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metcalfc/cardr/internal/card"
	"github.com/metcalfc/cardr/internal/deck"
	"github.com/metcalfc/cardr/internal/session"
	"github.com/metcalfc/cardr/internal/watch"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(1, 3)

	imageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88AAFF")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	chapterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	tocSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF0000")).
				Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))
)

const maxCardWidth = 72

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	First  key.Binding
	Last   key.Binding
	Jump   key.Binding
	TOC    key.Binding
	Reset  key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Jump, k.TOC, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last},
		{k.Jump, k.TOC, k.Reset, k.Reload},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Next:   key.NewBinding(key.WithKeys("right", "l", " ", "pgdown"), key.WithHelp("→/space", "next")),
	Prev:   key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←", "previous")),
	First:  key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first card")),
	Last:   key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last card")),
	Jump:   key.NewBinding(key.WithKeys("g", ":"), key.WithHelp("g", "go to card")),
	TOC:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "contents")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Reload: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "reload")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:   key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// screen is the session's rendering collaborator. It records what the view
// should show; View reads it.
type screen struct {
	card        card.Card
	counter     string
	direction   session.Direction
	transitions int
}

func (s *screen) OnFullRender(c card.Card) {
	s.card = c
	s.transitions = 0
}

func (s *screen) OnTransition(t session.Transition) {
	s.card = t.Card
	s.direction = t.Direction
	s.transitions++
}

func (s *screen) OnCounterUpdate(text string) { s.counter = text }

type (
	fileChangedMsg struct{}
	deckLoadedMsg  struct{ deck deck.Deck }
	loadErrMsg     struct{ err error }
)

type model struct {
	app    *app
	screen *screen

	help    help.Model
	jump    textinput.Model
	jumping bool

	tocVisible bool
	tocCursor  int

	watcher *watch.Watcher
	err     error

	quitting bool
	width    int
	height   int
}

func newModel(a *app, scr *screen) model {
	ti := textinput.New()
	ti.Placeholder = "card number"
	ti.Prompt = "Go to: "
	ti.CharLimit = 9
	return model{
		app:    a,
		screen: scr,
		help:   help.New(),
		jump:   ti,
		width:  80,
		height: 24,
	}
}

func (m model) Init() tea.Cmd {
	return m.waitForChange()
}

// waitForChange blocks on the watcher off the event loop and reports a
// change as a message, so reloads are serialized with navigation.
func (m model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changes := m.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

func (m model) reloadCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		d, err := a.reload(context.Background())
		if err != nil {
			return loadErrMsg{err}
		}
		return deckLoadedMsg{d}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	sess := m.app.session

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case fileChangedMsg:
		return m, tea.Batch(m.reloadCmd(), m.waitForChange())

	case deckLoadedMsg:
		m.app.deck = msg.deck
		m.err = nil
		m.tocCursor = 0
		sess.Load(msg.deck.Cards)
		return m, nil

	case loadErrMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		if m.tocVisible {
			return m.updateTOC(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			sess.Next()
		case key.Matches(msg, keys.Prev):
			sess.Previous()
		case key.Matches(msg, keys.First):
			sess.JumpTo(1)
		case key.Matches(msg, keys.Last):
			sess.JumpTo(sess.Len())
		case key.Matches(msg, keys.Jump):
			if sess.Len() > 0 {
				m.jumping = true
				m.jump.SetValue("")
				return m, m.jump.Focus()
			}
		case key.Matches(msg, keys.TOC):
			if len(m.app.deck.TOC) > 0 && sess.Len() > 0 {
				m.tocVisible = true
				if i := m.app.deck.Chapter(sess.Position()); i >= 0 {
					m.tocCursor = i
				}
			}
		case key.Matches(msg, keys.Reset):
			sess.Reset()
			m.app.logger.Info("session reset")
		case key.Matches(msg, keys.Reload):
			if sess.Len() == 0 && m.app.source != "" {
				return m, m.reloadCmd()
			}
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil
	}

	return m, nil
}

func (m model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if !m.app.session.JumpToInput(m.jump.Value()) {
			m.app.logger.Debug("ignored jump", zap.String("input", m.jump.Value()))
		}
		m.jumping = false
		m.jump.Blur()
		return m, nil
	case tea.KeyEsc, tea.KeyCtrlC:
		m.jumping = false
		m.jump.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m model) updateTOC(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	toc := m.app.deck.TOC
	switch msg.String() {
	case "up", "k":
		if m.tocCursor > 0 {
			m.tocCursor--
		}
	case "down", "j":
		if m.tocCursor < len(toc)-1 {
			m.tocCursor++
		}
	case "enter":
		m.app.session.JumpTo(toc[m.tocCursor].Card + 1)
		m.tocVisible = false
	case "esc", "t", "q":
		m.tocVisible = false
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		if m.app.session.Len() > 0 && m.app.session.AtEnd() {
			return chapterStyle.Render("\n  Reading complete!\n")
		}
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")

	var body string
	switch {
	case m.tocVisible:
		body = m.tocView()
	case m.screen.card.IsEmpty():
		body = m.emptyView()
	default:
		body = m.cardView()
	}

	footer := m.help.View(keys)
	if m.jumping {
		footer = m.jump.View()
	}
	if m.err != nil {
		footer = errorStyle.Render("Error: "+m.err.Error()) + "\n" + footer
	}

	// Reserve 1 line for status at top and the footer at the bottom
	avail := m.height - 1 - lipgloss.Height(footer)
	if avail < 1 {
		avail = 1
	}
	sb.WriteString(lipgloss.Place(m.width, avail, lipgloss.Center, lipgloss.Center, body))
	sb.WriteString("\n")
	sb.WriteString(footer)
	return sb.String()
}

func (m model) statusLine() string {
	arrow := " "
	if m.screen.transitions > 0 {
		arrow = "→"
		if m.screen.direction == session.Backward {
			arrow = "←"
		}
	}
	parts := []string{arrow + " Card " + m.screen.counter}
	if m.app.deck.Title != "" {
		parts = append(parts, m.app.deck.Title)
	}
	if title := m.app.deck.ChapterTitle(m.app.session.Position()); title != "" && m.app.session.Len() > 0 {
		parts = append(parts, chapterStyle.Render(title))
	}
	return statusStyle.Render(strings.Join(parts, " | "))
}

func (m model) cardWidth() int {
	w := m.width - 8
	if w > maxCardWidth {
		w = maxCardWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m model) cardView() string {
	c := m.screen.card
	if c.Kind == card.KindImage {
		return cardStyle.Render(imageStyle.Render(c.String()))
	}
	return cardStyle.Width(m.cardWidth()).Render(c.Text)
}

func (m model) emptyView() string {
	msg := "No document loaded."
	if m.app.source != "" {
		msg += fmt.Sprintf("\nPress enter to reload %s, q to quit.", m.app.source)
	}
	return emptyStyle.Render(msg)
}

func (m model) tocView() string {
	var sb strings.Builder
	sb.WriteString(chapterStyle.Render("Table of Contents"))
	sb.WriteString("\n\n")
	for i, entry := range m.app.deck.TOC {
		line := strings.Repeat("  ", entry.Level) + entry.Title
		if i == m.tocCursor {
			line = tocSelectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(emptyStyle.Render("enter: jump  esc: close"))
	return sb.String()
}

func run(cmd *cobra.Command, opts options, args []string) error {
	ctx := cmd.Context()
	scr := &screen{}
	a, err := openApp(ctx, opts, args, scr, false)
	if err != nil {
		return err
	}
	defer a.close()

	m := newModel(a, scr)
	if opts.watch && a.source != "" {
		w, err := watch.New(a.source, watch.DefaultDebounce, a.logger)
		if err != nil {
			return fmt.Errorf("failed to watch '%s': %w", a.source, err)
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(watchCtx)
		m.watcher = w
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func main() {
	root := newRootCmd("cardr", "Cardr - page through documents one card at a time", run)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
