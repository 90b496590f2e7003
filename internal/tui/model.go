// Package tui is the terminal front-end: the same portfolio rendered with
// bubbletea, panels revealing as they scroll into view.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/reveal"
	"github.com/Zachkp/termfolio/internal/theme"
	"github.com/Zachkp/termfolio/internal/typewriter"
)

const (
	// lineHeight converts scrolled lines into the pixel offsets scroll flags
	// are expressed in.
	lineHeight    = 16
	frameInterval = time.Second / 30
	navbarHeight  = 2
	footerHeight  = 1
)

type (
	roleTickMsg  struct{}
	frameTickMsg struct{}
)

// Options tunes the reveal and typewriter behaviour. A nil Threshold uses
// reveal.DefaultThreshold.
type Options struct {
	Threshold *float64
	Once      bool
	Delays    typewriter.Delays
	Now       func() time.Time
}

// Model is the bubbletea model for the portfolio.
type Model struct {
	portfolio *content.Portfolio
	themes    *theme.Store
	styles    styles
	keys      keyMap
	help      help.Model
	viewport  viewport.Model

	typer *typewriter.Machine
	role  typewriter.State

	tagline []string
	panels  []*panelView
	now     func() time.Time

	width, height int
	ready         bool
	animating     bool
	status        string
}

// New builds the model. themes is read for the initial colours and written
// when the user toggles.
func New(p *content.Portfolio, themes *theme.Store, opts Options) (Model, error) {
	if opts.Delays == (typewriter.Delays{}) {
		opts.Delays = typewriter.DefaultDelays
	}
	threshold := reveal.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	typer, err := typewriter.New(p.Profile.Roles, typewriter.WithDelays(opts.Delays))
	if err != nil {
		return Model{}, err
	}

	m := Model{
		portfolio: p,
		themes:    themes,
		styles:    newStyles(themes.Get()),
		keys:      defaultKeyMap(),
		help:      help.New(),
		viewport:  viewport.New(0, 0),
		typer:     typer,
		role:      typer.Initial(),
		now:       opts.Now,
	}
	for _, panel := range p.Panels() {
		tr := reveal.NewTracker(reveal.WithThreshold(threshold), reveal.WithOnce(opts.Once))
		m.panels = append(m.panels, &panelView{
			panel:   panel,
			tracker: tr,
			ctrl:    reveal.NewController(tr, panel.Children).WithClock(opts.Now),
		})
	}
	return m, nil
}

func tickRole(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return roleTickMsg{} })
}

func tickFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameTickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tickRole(m.role.Delay)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, m.observe()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Theme):
			next, err := m.themes.Toggle()
			m.status = ""
			if err != nil {
				m.status = "theme not saved: " + err.Error()
			}
			m.styles = newStyles(next)
			if m.ready {
				m.layout()
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.viewport.SetYOffset(m.viewport.YOffset + 1)
		case key.Matches(msg, m.keys.Up):
			m.viewport.SetYOffset(m.viewport.YOffset - 1)
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, tea.Batch(cmd, m.observe())
		}
		return m, m.observe()

	case roleTickMsg:
		m.role = m.typer.Next(m.role)
		m.refresh()
		return m, tickRole(m.role.Delay)

	case frameTickMsg:
		m.animating = false
		m.refresh()
		return m, m.animate()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, tea.Batch(cmd, m.observe())
}

// layout re-renders every block for the current size and theme and moves
// each tracker onto its panel's new rectangle.
func (m *Model) layout() {
	width := max(m.width, 20)
	m.tagline = splitLines(wrap(m.portfolio.Profile.Tagline, width))

	top := len(m.heroLines())
	for _, p := range m.panels {
		p.blocks = m.buildBlocks(p.panel, width)
		p.top = top
		p.height = 0
		for _, b := range p.blocks {
			p.height += len(b)
		}
		top += p.height
		p.tracker.Track(p.rect(width))
	}

	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-navbarHeight-footerHeight, 1)
	m.help.Width = m.width
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.document())
}

// observe feeds the visible region to every tracker and starts the frame
// loop if a panel began revealing.
func (m *Model) observe() tea.Cmd {
	if !m.ready {
		return nil
	}
	vp := reveal.Rect{
		Y: float64(m.viewport.YOffset),
		W: float64(m.width),
		H: float64(m.viewport.Height),
	}
	for _, p := range m.panels {
		p.tracker.Update(vp)
	}
	m.refresh()
	return m.animate()
}

func (m *Model) animate() tea.Cmd {
	if m.animating || m.settled() {
		return nil
	}
	m.animating = true
	return tickFrame()
}

func (m *Model) settled() bool {
	for _, p := range m.panels {
		if p.ctrl.State() == reveal.Visible && !p.ctrl.Settled() {
			return false
		}
	}
	return true
}

func (m *Model) heroLines() []string {
	prof := m.portfolio.Profile
	lines := []string{
		"",
		m.styles.Accent.Render("$ whoami"),
		m.styles.Title.Render("Hi, I'm ") + m.styles.Heading.Render(prof.Name),
		m.styles.Base.Render(m.role.Text) + m.styles.Accent.Render("_"),
	}
	for _, l := range m.tagline {
		lines = append(lines, m.styles.Muted.Render(l))
	}
	return append(lines, "")
}

func (m *Model) document() string {
	lines := m.heroLines()
	for _, p := range m.panels {
		for i, b := range p.blocks {
			lines = append(lines, m.renderChild(p.ctrl.Child(i), b)...)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) scrolledPx() float64 {
	return float64(m.viewport.YOffset * lineHeight)
}

func (m Model) navbar() string {
	left := m.styles.Accent.Render("<" + m.portfolio.Profile.Handle + "/>")
	var ids []string
	for _, p := range m.panels {
		ids = append(ids, p.panel.ID)
	}
	line := left + "  " + m.styles.Muted.Render(strings.Join(ids, "  ")) +
		"  " + m.styles.Muted.Render("["+m.themes.Get().String()+"]")

	rule := ""
	if reveal.NavbarShadow.Active(m.scrolledPx()) {
		rule = m.styles.Rule.Render(strings.Repeat("─", max(m.width, 1)))
	}
	return line + "\n" + rule
}

func (m Model) footer() string {
	s := m.help.View(m.keys)
	if reveal.BackToTop.Active(m.scrolledPx()) {
		s += "  " + m.styles.Accent.Render("↑ back to top (g)")
	}
	if m.status != "" {
		s += "  " + m.styles.Muted.Render(m.status)
	}
	return s
}

func (m Model) View() string {
	if !m.ready {
		return "loading…\n"
	}
	return m.navbar() + "\n" + m.viewport.View() + "\n" + m.footer()
}

// Close detaches every reveal controller.
func (m Model) Close() {
	for _, p := range m.panels {
		p.ctrl.Close()
		p.tracker.Close()
	}
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
