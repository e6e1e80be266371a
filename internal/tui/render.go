package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"qucom"
	"qucom/trials"
)

// ──────────────────────────── Cell model ────────────────────────────

// cellInfo describes what occupies one (step, qubit) cell of the diagram.
type cellInfo struct {
	label        string // boxed gate name, empty for wire symbols
	symbol       string // control dot, target ⊕ or swap ×
	passThrough  bool   // a connector crosses the wire here
	isBarrier    bool
	vertAbove    bool
	vertBelow    bool
	measureBelow bool // a classical connector runs down from here
}

// gateLabel returns the boxed name of a single-qubit operation.
func gateLabel(k qucom.Kind) string {
	switch k {
	case qucom.GateSdg:
		return "S†"
	case qucom.GateTdg:
		return "T†"
	case qucom.GateMeasure:
		return "M"
	case qucom.GateReset:
		return "|0⟩"
	}
	return strings.ToUpper(k.String())
}

// targetSymbol returns the wire symbol drawn on a target of a controlled gate.
func targetSymbol(k qucom.Kind) string {
	switch k {
	case qucom.GateCZ, qucom.GateMCZ:
		return "●"
	case qucom.GateSwap:
		return "×"
	}
	return "⊕"
}

// lowestMeasured returns the bottom measured qubit of any measurement in step, or -1.
func (s *scheduleView) lowestMeasured(step int) int {
	q := -1
	for _, n := range s.AtStep(step) {
		if n.Gate.Kind == qucom.GateMeasure {
			q = max(q, slices.Max(n.Gate.Targets))
		}
	}
	return q
}

// scheduleView adds diagram lookups to a schedule.
type scheduleView struct {
	*qucom.Schedule
}

func (s *scheduleView) cellInfo(step, qubit int) cellInfo {
	var info cellInfo
	if low := s.lowestMeasured(step); low >= 0 && qubit >= low {
		info.measureBelow = true
	}
	node := s.At(step, qubit)
	if node == nil {
		return info
	}
	g := node.Gate
	lo, hi := node.Span()
	info.vertAbove = qubit > lo
	info.vertBelow = qubit < hi

	switch {
	case g.Kind == qucom.GateBarrier:
		info.isBarrier = true
	case g.Kind == qucom.GateMeasure || g.Kind == qucom.GateReset:
		if slices.Contains(g.Targets, qubit) {
			info.label = gateLabel(g.Kind)
		} else {
			info.passThrough = true
		}
	case len(g.Controls) > 0 || g.Kind == qucom.GateSwap:
		switch {
		case slices.Contains(g.Controls, qubit):
			info.symbol = "●"
			if g.Kind == qucom.GateSwap {
				info.symbol = "×"
			}
		case slices.Contains(g.Targets, qubit):
			info.symbol = targetSymbol(g.Kind)
		default:
			info.passThrough = true
		}
	default:
		info.label = gateLabel(g.Kind)
	}
	return info
}

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	n := visibleLen(s)
	if n >= width {
		return string([]rune(s)[:width])
	}
	total := width - n
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
	hlTargetSelect
)

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly stepW visual characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", stepW)
	halfW := stepW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", stepW-halfW-1)
	dblVertRow := strings.Repeat(" ", halfW) + measureLink.Render("║") + strings.Repeat(" ", stepW-halfW-1)
	margin := (stepW - boxW) / 2
	rightMargin := stepW - margin - boxW

	// wire draws sym centred on a wire of width w.
	wire := func(sym string, w int) string {
		l := (w - 1) / 2
		return strings.Repeat("─", l) + sym + strings.Repeat("─", w-l-1)
	}

	if hl != hlNone {
		bdr := cursorMark
		if hl == hlTargetSelect {
			bdr = pickMark
		}
		innerW := stepW - 2
		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")
		switch {
		case info.isBarrier:
			mid = wire("│", innerW)
		case info.symbol != "":
			mid = wire(gateGlyph.Render(info.symbol), innerW)
		case info.label != "":
			mid = "─┤" + gateGlyph.Render(padCenter(info.label, boxTextW)) + "├─"
		case info.passThrough:
			mid = wire("┼", innerW)
		case info.measureBelow:
			mid = wire(measureLink.Render("╫"), innerW)
		default:
			mid = strings.Repeat("─", innerW)
		}
		mid = bdr.Render("║") + mid + bdr.Render("║")
		return
	}

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	switch {
	case info.isBarrier:
		top, bot = vertRow, vertRow
		mid = wire("│", stepW)
	case info.symbol != "":
		mid = wire(gateGlyph.Render(info.symbol), stepW)
	case info.label != "":
		top = strings.Repeat(" ", margin) + gateGlyph.Render("┌"+strings.Repeat("─", boxTextW)+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + gateGlyph.Render("┤"+padCenter(info.label, boxTextW)+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + gateGlyph.Render("└"+strings.Repeat("─", boxTextW)+"┘") + strings.Repeat(" ", rightMargin)
	case info.passThrough:
		top, bot = vertRow, vertRow
		mid = wire("┼", stepW)
	case info.measureBelow:
		// a classical connector crosses an idle wire
		if !info.vertAbove {
			top = dblVertRow
		}
		mid = wire(measureLink.Render("╫"), stepW)
	default:
		mid = strings.Repeat("─", stepW)
	}
	if info.measureBelow {
		bot = dblVertRow
	}
	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder
	view := &scheduleView{m.schedule}

	title := "Quantum Circuit"
	if m.schedule != nil {
		title += muted.Render(fmt.Sprintf("  %d qubits · depth %d · %d gates", m.n, m.schedule.Depth(), len(m.program)))
	}
	sb.WriteString(heading.Render(title))
	sb.WriteString("\n\n")

	// How many steps fit
	availWidth := width - labelW - 4
	maxSteps := max(availWidth/stepW, 1)

	startStep := 0
	if m.cursorStep >= maxSteps {
		startStep = m.cursorStep - maxSteps + 1
	}
	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing steps %d–%d\n", startStep, startStep+maxSteps-1)
	}
	steps := make([]int, maxSteps)
	for i := range steps {
		steps[i] = startStep + i
	}

	header := strings.Repeat(" ", labelW)
	for _, step := range steps {
		header += muted.Render(padCenter(strconv.Itoa(step), stepW))
	}
	sb.WriteString(header + "\n")

	selecting := m.focus == focusSelectTarget || m.focus == focusSelectControls
	for qubit := 0; qubit < m.n; qubit++ {
		topLine := strings.Repeat(" ", labelW)
		midLine := wireLabel.Render(fmt.Sprintf("%-5s", fmt.Sprintf("q[%d]", qubit))) + "──"
		botLine := strings.Repeat(" ", labelW)

		for _, step := range steps {
			hl := hlNone
			if step == m.cursorStep {
				switch {
				case qubit == m.cursorQubit && (m.focus == focusCircuit || m.focus == focusMenu || selecting):
					hl = hlCursor
				case selecting && (qubit == m.targetQubit || slices.Contains(m.controlQubits, qubit)):
					hl = hlTargetSelect
				}
			}
			top, mid, bot := renderCell(view.cellInfo(step, qubit), hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	// ── Classical register (single line) ──
	halfW := stepW / 2
	sepLine := strings.Repeat(" ", labelW)
	cbitLine := clbitLabel.Render(fmt.Sprintf("%-5s", fmt.Sprintf("c%d", m.clbits))) + clbitWire.Render("══")
	for _, step := range steps {
		cbits := m.cbitsAt(step)
		if len(cbits) == 0 {
			sepLine += strings.Repeat(" ", stepW)
			cbitLine += clbitWire.Render(strings.Repeat("═", stepW))
			continue
		}
		sepLine += strings.Repeat(" ", halfW) + measureLink.Render("║") + strings.Repeat(" ", stepW-halfW-1)
		bitLabel := strconv.Itoa(cbits[0])
		if len(cbits) > 1 {
			bitLabel = fmt.Sprintf("%d-%d", cbits[0], cbits[len(cbits)-1])
		}
		dashR := max(stepW-halfW-1-len(bitLabel), 0)
		cbitLine += clbitWire.Render(strings.Repeat("═", halfW)) +
			measureLink.Render("╩"+bitLabel) +
			clbitWire.Render(strings.Repeat("═", dashR))
	}
	sb.WriteString(sepLine + "\n")
	sb.WriteString(cbitLine + "\n")

	// Status line
	switch {
	case selecting && m.pending != nil:
		prompt := "Select target qubit: "
		if m.focus == focusSelectControls {
			prompt = "Select control qubit: "
		}
		fmt.Fprintf(&sb, "\n  %s  %s%s", pendingMark.Render(m.pending.name), prompt,
			pickMark.Render(fmt.Sprintf("q[%d]", m.targetQubit)))
		sb.WriteString(muted.Render("   ↑↓ Move  Enter Confirm  Esc Cancel"))
	default:
		fmt.Fprintf(&sb, "\n  Position: Step %d, Qubit %d", m.cursorStep, m.cursorQubit)
		if m.parseErr != nil {
			fmt.Fprintf(&sb, "  │  %s", failText.Render(m.parseErr.Error()))
		} else if m.statusMsg != "" {
			fmt.Fprintf(&sb, "  │  %s", pendingMark.Render(m.statusMsg))
		}
	}

	return diagramPanel.Width(width).Height(height).Render(sb.String())
}

// cbitsAt lists the classical bits written by measurements in step, ascending.
func (m Model) cbitsAt(step int) []int {
	if m.schedule == nil {
		return nil
	}
	var cbits []int
	for _, n := range m.schedule.AtStep(step) {
		if n.Gate.Kind == qucom.GateMeasure {
			cbits = append(cbits, n.Gate.Cbits...)
		}
	}
	slices.Sort(cbits)
	return cbits
}

// renderQASMPanel renders the QASM editor panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "QASM Editor"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(heading.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())

	return editorPanel.Width(width).Height(height).Render(sb.String())
}

// renderHistogramPanel draws the counts of the last run, most frequent first.
func (m Model) renderHistogramPanel(width, height int) string {
	var sb strings.Builder
	sb.WriteString(heading.Render("Results"))

	r := m.report
	switch {
	case m.running:
		sb.WriteString("\n" + muted.Render("Running..."))
		return resultsPanel.Width(width).Height(height).Render(sb.String())
	case r == nil:
		sb.WriteString("\n" + muted.Render("Press ^R to run the circuit"))
		return resultsPanel.Width(width).Height(height).Render(sb.String())
	}

	sb.WriteString(muted.Render(fmt.Sprintf("  run %s · %d shots", r.ID.String()[:8], r.Shots)))
	sb.WriteString("\n")

	outcomes := r.Outcomes()
	slices.SortStableFunc(outcomes, func(a, b trials.Outcome) int { return cmp.Compare(b.Count, a.Count) })
	rows := max(height-1, 1)
	if len(outcomes) > rows {
		outcomes = outcomes[:rows]
	}
	top := outcomes[0].Prob
	for _, o := range outcomes {
		bar := int(o.Prob / top * histBarW)
		fmt.Fprintf(&sb, "%s %s %s\n",
			wireLabel.Render(o.Bits),
			histBar.Render(strings.Repeat("█", max(bar, 1))),
			muted.Render(fmt.Sprintf("%d (%.1f%%)", o.Count, 100*o.Prob)))
	}

	return resultsPanel.Width(width).Height(height).Render(strings.TrimSuffix(sb.String(), "\n"))
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(pendingMark.Render("Navigate: "))
	sb.WriteString("↑↓/jk Move qubit  ←→/hl Move step  +/- Qubits")
	sb.WriteString("    ")
	sb.WriteString(pendingMark.Render("a"))
	sb.WriteString(" Add gate\n")

	sb.WriteString(pendingMark.Render("Actions:  "))
	sb.WriteString("Tab Switch focus  Bksp Delete  ^R Run  ^N Clear  ^S Save  q/^C Quit")

	return helpBar.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	for i, ovLine := range strings.Split(overlay, "\n") {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// escapeEnd returns the index just past the ANSI sequence starting at runes[i].
func escapeEnd(runes []rune, i int) int {
	for i++; i < len(runes); i++ {
		r := runes[i]
		if r != '[' && ((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return i + 1
		}
	}
	return i
}

// spliceLineAt replaces visible columns starting at x in bgLine with overlay.
// Escape sequences in the background are kept in the prefix and dropped from the
// covered span.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	var prefix strings.Builder

	col, i := 0, 0
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			end := escapeEnd(runes, i)
			prefix.WriteString(string(runes[i:end]))
			i = end
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}
	for ; col < x; col++ {
		prefix.WriteRune(' ')
	}

	for skipped, w := 0, visibleLen(overlay); i < len(runes) && skipped < w; {
		if runes[i] == '\x1b' {
			i = escapeEnd(runes, i)
			continue
		}
		skipped++
		i++
	}

	return prefix.String() + overlay + string(runes[i:])
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
