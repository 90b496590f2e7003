package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/reveal"
)

const barWidth = 20

// block is one staggered child of a panel: its heading, a card, a list.
type block []string

// panelView is a panel laid out for the current terminal width.
type panelView struct {
	panel   content.Panel
	blocks  []block
	top     int
	height  int
	tracker *reveal.Tracker
	ctrl    *reveal.Controller
}

func (p *panelView) rect(width int) *reveal.Rect {
	return &reveal.Rect{Y: float64(p.top), W: float64(width), H: float64(p.height)}
}

func splitLines(s string) block {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (m *Model) heading(title string) block {
	return block{m.styles.Heading.Render("< " + title + " />"), ""}
}

// buildBlocks renders the children of panel at width. The number of
// blocks matches the panel's Children count.
func (m *Model) buildBlocks(panel content.Panel, width int) []block {
	p := m.portfolio
	blocks := []block{m.heading(panel.Title)}

	switch panel.ID {
	case content.PanelAbout:
		about := splitLines(m.renderMarkdown(p.About, width))
		if code := strings.TrimSpace(p.AboutCode); code != "" {
			about = append(about, "")
			for _, l := range strings.Split(code, "\n") {
				about = append(about, m.styles.Muted.Render("  "+l))
			}
		}
		blocks = append(blocks, append(about, ""))

	case content.PanelSkills:
		for _, g := range p.SkillGroups {
			b := block{m.styles.Title.Render(g.Name)}
			for _, s := range g.Skills {
				b = append(b, fmt.Sprintf("  %-18s %s %3d%%", s.Name, m.bar(s.Percentage), s.Percentage))
			}
			blocks = append(blocks, append(b, ""))
		}
		tags := m.styles.Accent.Render(wrap(strings.Join(p.Tags, " · "), width))
		blocks = append(blocks, append(splitLines(tags), ""))

	case content.PanelProjects:
		inner := max(width-4, 10)
		for _, pr := range p.Projects {
			var sb strings.Builder
			sb.WriteString(m.styles.Muted.Render(pr.Filename) + "\n")
			sb.WriteString(m.styles.Title.Render(pr.Title) + "\n")
			sb.WriteString(wrap(pr.Description, inner) + "\n")
			for _, d := range pr.Details {
				sb.WriteString(wrap("• "+d, inner) + "\n")
			}
			if code := strings.TrimSpace(pr.Code); code != "" {
				sb.WriteString(m.styles.Muted.Render(code) + "\n")
			}
			sb.WriteString(m.styles.Accent.Render(strings.Join(pr.Tags, " · ")))
			if pr.GitHub != "" {
				sb.WriteString("\n" + m.styles.Link.Render(pr.GitHub))
			}
			box := m.styles.Window.Width(max(width-2, 12)).Render(sb.String())
			blocks = append(blocks, append(splitLines(box), ""))
		}

	case content.PanelCertifications:
		for _, c := range p.Certifications {
			b := block{
				m.styles.Title.Render(c.Title),
				m.styles.Muted.Render(c.Issuer + " · " + c.Year),
			}
			b = append(b, splitLines(wrap(c.Description, width))...)
			if c.Link != "" {
				b = append(b, m.styles.Link.Render(c.Link))
			}
			blocks = append(blocks, append(b, ""))
		}

	case content.PanelContact:
		box := m.styles.Window.Width(max(width-2, 12)).Render(
			m.styles.Accent.Render("$ ping "+p.Profile.Email) + "\n" +
				wrap("Run `termfolio contact` to send a message from this terminal.", max(width-6, 10)),
		)
		blocks = append(blocks, append(splitLines(box), ""))
		blocks = append(blocks, block{
			m.styles.Link.Render(p.Profile.GitHub),
			m.styles.Link.Render(p.Profile.LinkedIn),
			m.styles.Link.Render("mailto:" + p.Profile.Email),
			"",
		})
	}
	return blocks
}

func (m *Model) bar(pct int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * barWidth / 100
	return m.styles.BarFill.Render(strings.Repeat("█", filled)) +
		m.styles.BarRest.Render(strings.Repeat("░", barWidth-filled))
}

func (m *Model) renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.themes.Get().String()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return wrap(md, width)
	}
	out, err := r.Render(md)
	if err != nil {
		return wrap(md, width)
	}
	return strings.Trim(out, "\n")
}

// renderChild draws blk at frame f. The block keeps its height so the
// layout never shifts while panels animate.
func (m *Model) renderChild(f reveal.Frame, blk block) []string {
	out := make([]string, len(blk))
	if f.Opacity < 0.5 {
		return out
	}
	shift := int(math.Ceil(f.OffsetY / 10))
	for i := range out {
		src := i - shift
		if src < 0 {
			continue
		}
		line := blk[src]
		if f.Opacity < 1 {
			line = m.styles.Faint.Render(line)
		}
		out[i] = line
	}
	return out
}
