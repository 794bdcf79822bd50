// Package ui provides the interactive keypad dialer.
package ui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/jorabin/sounds/internal/cadence"
	"github.com/jorabin/sounds/internal/queue"
)

// Dialer plays keypad digits.
type Dialer interface {
	Dial(ctx context.Context, digits string, block bool) ([]*queue.Item, error)
	Wait(ctx context.Context, item *queue.Item) error
	CancelCurrent()
}

// NewProgram returns a new Tea program driving d.
func NewProgram(cfg Config, d Dialer) *tea.Program {
	log.Debug("Starting keypad", "altscreen", cfg.AltScreen)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, d), opts...)
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Press  key.Binding
	Cancel key.Binding
	Clear  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.Cancel, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Press, k.Cancel, k.Clear},
		{k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Press:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "press key")),
		Cancel: key.NewBinding(key.WithKeys("esc", "x"), key.WithHelp("esc", "stop tones")),
		Clear:  key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "clear number")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type (
	dialedMsg struct {
		digit rune
		items []*queue.Item
		err   error
	}
	itemDoneMsg struct {
		item *queue.Item
		err  error
	}
)

type model struct {
	cfg     Config
	dialer  Dialer
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	row, col int
	dialed   string
	pending  int
	status   string
	err      error
}

func newModel(cfg Config, d Dialer) model {
	if cfg.MaxDialed < 1 {
		cfg.MaxDialed = 32
	}

	h := help.New()
	h.ShowAll = cfg.ShowFullHelp

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(mintGreen)

	return model{
		cfg:     cfg,
		dialer:  d,
		keys:    newKeyMap(),
		help:    h,
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case dialedMsg:
		if msg.err != nil {
			log.Error("dial failed", "digit", string(msg.digit), "error", msg.err)
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		cmds := make([]tea.Cmd, 0, len(msg.items)+1)
		if m.pending == 0 {
			cmds = append(cmds, m.spinner.Tick)
		}
		m.pending += len(msg.items)
		for _, item := range msg.items {
			cmds = append(cmds, waitCmd(m.dialer, item))
		}
		return m, tea.Batch(cmds...)

	case itemDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			log.Error("tone did not finish", "item", msg.item.ID, "error", msg.err)
			m.err = msg.err
		}
		if msg.item.Status() == queue.Abandoned {
			m.status = "stopped"
		}

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.dialer.CancelCurrent()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.row = (m.row + 3) % 4
	case key.Matches(msg, m.keys.Down):
		m.row = (m.row + 1) % 4
	case key.Matches(msg, m.keys.Left):
		m.col = (m.col + 3) % 4
	case key.Matches(msg, m.keys.Right):
		m.col = (m.col + 1) % 4
	case key.Matches(msg, m.keys.Cancel):
		m.dialer.CancelCurrent()
		m.status = "stopped"
	case key.Matches(msg, m.keys.Clear):
		m.dialed = ""
		m.status = ""
	case key.Matches(msg, m.keys.Press):
		r, err := cadence.DigitAt(m.row, m.col)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m.press(r)
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		if _, err := cadence.DigitSection(msg.Runes[0]); err == nil {
			return m.press(msg.Runes[0])
		}
	}
	return m, nil
}

// press records r, moves the cursor onto it and dials it.
func (m model) press(r rune) (tea.Model, tea.Cmd) {
	r = unicode.ToUpper(r)
	m.dialed += string(r)
	if n := len(m.dialed); n > m.cfg.MaxDialed {
		m.dialed = m.dialed[n-m.cfg.MaxDialed:]
	}
	m.status = ""
	m.row, m.col = keypadPosition(r)
	return m, dialCmd(m.dialer, r)
}

func keypadPosition(r rune) (row, col int) {
	for row = 0; row < 4; row++ {
		for col = 0; col < 4; col++ {
			if d, _ := cadence.DigitAt(row, col); d == r {
				return row, col
			}
		}
	}
	return 0, 0
}

func dialCmd(d Dialer, r rune) tea.Cmd {
	return func() tea.Msg {
		items, err := d.Dial(context.Background(), string(r), false)
		return dialedMsg{digit: r, items: items, err: err}
	}
}

func waitCmd(d Dialer, item *queue.Item) tea.Cmd {
	return func() tea.Msg {
		err := d.Wait(context.Background(), item)
		return itemDoneMsg{item: item, err: err}
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle("Keypad"))
	b.WriteString("\n\n")

	number := m.dialed
	if number == "" {
		number = noteStyle("press a key to dial")
	} else {
		number = dialedStyle(number)
	}
	fmt.Fprintf(&b, "  %s\n\n", number)

	for row := 0; row < 4; row++ {
		keys := make([]string, 4)
		for col := 0; col < 4; col++ {
			r, _ := cadence.DigitAt(row, col)
			style := keyStyle
			if row == m.row && col == m.col {
				style = selectedKeyStyle
			}
			keys[col] = style.Render(string(r))
		}
		b.WriteString("  " + lipgloss.JoinHorizontal(lipgloss.Top, keys...) + "\n")
	}

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "  %s\n", errorStyle(m.err.Error()))
	case m.pending > 0:
		fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), noteStyle(fmt.Sprintf("playing %d", m.pending)))
	case m.status != "":
		fmt.Fprintf(&b, "  %s\n", noteStyle(m.status))
	default:
		b.WriteString("\n")
	}

	b.WriteString("\n  " + m.help.View(m.keys) + "\n")
	return b.String()
}
