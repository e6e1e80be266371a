package tui

import "github.com/charmbracelet/lipgloss"

// Grid geometry, in terminal cells.
const (
	stepW    = 11 // one moment column
	labelW   = 7  // "q[12]" plus padding
	boxTextW = 5  // gate name inside a box
	boxW     = 7  // ┤ + boxTextW + ├
	histBarW = 40 // widest histogram bar
)

// palette is a Nord-style scheme: cool wires and gates, warm accents for
// anything classical or pending.
var palette = struct {
	frost, teal, violet, amber, orange, red, text, muted lipgloss.Color
}{
	frost:  lipgloss.Color("#88c0d0"),
	teal:   lipgloss.Color("#8fbcbb"),
	violet: lipgloss.Color("#b48ead"),
	amber:  lipgloss.Color("#ebcb8b"),
	orange: lipgloss.Color("#d08770"),
	red:    lipgloss.Color("#bf616a"),
	text:   lipgloss.Color("#e5e9f0"),
	muted:  lipgloss.Color("#4c566a"),
}

// panel is a rounded box with the given border colour and vertical padding.
func panel(border lipgloss.Color, vpad int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(vpad, 1)
}

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	diagramPanel = panel(palette.frost, 1)
	editorPanel  = panel(palette.violet, 1)
	resultsPanel = panel(palette.amber, 0)
	helpBar      = panel(palette.teal, 0)
	menuPanel    = panel(palette.orange, 0)

	heading     = fg(palette.orange).Bold(true)
	cursorMark  = fg(palette.orange).Bold(true)
	pickMark    = fg(palette.violet).Bold(true)
	pendingMark = fg(palette.amber)
	failText    = fg(palette.red)
	muted       = fg(palette.muted)

	wireLabel = fg(palette.frost)
	gateGlyph = fg(palette.teal).Bold(true)
	histBar   = fg(palette.teal)

	menuCurrent = fg(palette.orange).Bold(true)
	menuEntry   = fg(palette.text)

	clbitLabel  = fg(palette.amber)
	clbitWire   = fg(palette.muted)
	measureLink = fg(palette.amber).Bold(true)
)
