// Package tui is the terminal front end: a circuit diagram, a QASM editor kept in
// sync with it, and a histogram of the last run.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"qucom"
	"qucom/internal/config"
	"qucom/trials"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
	focusSelectTarget
	focusSelectControls
	focusInputParam
)

// runMsg carries the result of a background run.
type runMsg struct {
	report *trials.Report
	err    error
}

// Model represents the TUI application state. The program (the circuit's
// operation log) is the source of truth; the editor text and the diagram are
// derived from it, and edits to the text are parsed back into it.
type Model struct {
	cfg    *config.Config
	logger *log.Logger

	n        int
	clbits   int
	program  []qucom.Gate
	schedule *qucom.Schedule

	cursorQubit int
	cursorStep  int
	width       int
	height      int
	qasmEditor  textarea.Model
	focus       focus
	lastQASM    string
	statusMsg   string // transient status message (e.g. save confirmation)
	parseErr    error

	// Menu state
	menuCat  int
	menuItem int

	// Pending gate state
	pending       *menuItem
	targetQubit   int
	paramInput    string
	params        []float64
	controlQubits []int

	report  *trials.Report
	running bool
}

// New builds the model, loading cfg.File when it is set.
func New(cfg *config.Config, logger *log.Logger) (Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Edit QASM here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.KeyMap.InsertNewline.SetEnabled(true)

	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := Model{
		cfg:        cfg,
		logger:     logger,
		n:          cfg.Qubits,
		clbits:     cfg.Qubits,
		qasmEditor: ta,
		focus:      focusCircuit,
	}

	if cfg.File != "" {
		text, err := os.ReadFile(cfg.File)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Model{}, err
		}
		if err == nil {
			c, err := qucom.FromQASM(string(text), m.circuitOpts()...)
			if err != nil {
				return Model{}, fmt.Errorf("%s: %w", cfg.File, err)
			}
			m.adopt(c)
		}
	}
	if err := m.sync(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) circuitOpts() []qucom.Option {
	opts := []qucom.Option{
		qucom.WithMaxQubits(m.cfg.MaxQubits),
		qucom.WithLogger(m.logger),
	}
	if seed := m.cfg.SeedPtr(); seed != nil {
		opts = append(opts, qucom.WithSeed(*seed))
	}
	return opts
}

// replay applies the program to a fresh circuit.
func (m *Model) replay() (*qucom.Circuit, error) {
	c, err := qucom.New(m.n, append(m.circuitOpts(), qucom.WithClassicalBits(m.clbits))...)
	if err != nil {
		return nil, err
	}
	for i, g := range m.program {
		if err := c.Apply(g); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
	}
	return c, nil
}

// sync rebuilds the diagram and the editor text from the program.
func (m *Model) sync() error {
	c, err := m.replay()
	if err != nil {
		return err
	}
	m.adopt(c)
	qasm := c.ToQASM()
	m.qasmEditor.SetValue(qasm)
	m.lastQASM = qasm
	m.parseErr = nil
	return nil
}

func (m *Model) adopt(c *qucom.Circuit) {
	m.n = c.NQubits()
	m.clbits = c.NClbits()
	m.program = c.Log()
	m.schedule = c.Moments()
	m.cursorQubit = min(m.cursorQubit, m.n-1)
}

func (m *Model) parseQASMInput() {
	qasm := m.qasmEditor.Value()
	if qasm == m.lastQASM {
		return
	}
	m.lastQASM = qasm
	c, err := qucom.FromQASM(qasm, m.circuitOpts()...)
	if err != nil {
		m.parseErr = err
		return
	}
	m.parseErr = nil
	m.adopt(c)
}

// placeGate appends the pending gate at the end of the program.
// Returns true if placement succeeded.
func (m *Model) placeGate(item *menuItem, op operands) bool {
	defer m.clearPending()

	c, err := m.replay()
	if err != nil {
		m.statusMsg = err.Error()
		return false
	}
	before := len(m.program)
	if err := item.apply(c, op); err != nil {
		m.statusMsg = "Cannot place: " + err.Error()
		return false
	}
	m.logger.Debug("gate placed", "gate", item.name, "qubit", op.cursor, "emitted", len(c.Log())-before)
	if err := m.syncFrom(c); err != nil {
		m.statusMsg = err.Error()
		return false
	}
	if last := len(m.schedule.Nodes) - 1; last >= 0 {
		m.cursorStep = m.schedule.Nodes[last].Step + 1
	}
	return true
}

func (m *Model) syncFrom(c *qucom.Circuit) error {
	m.program = c.Log()
	return m.sync()
}

func (m *Model) clearPending() {
	m.pending = nil
	m.paramInput = ""
	m.params = nil
	m.controlQubits = nil
}

// deleteAt removes the gate drawn at (step, qubit).
func (m *Model) deleteAt(step, qubit int) {
	node := m.schedule.At(step, qubit)
	if node == nil {
		return
	}
	m.program = slices.Delete(m.program, node.Index, node.Index+1)
	if err := m.sync(); err != nil {
		m.statusMsg = err.Error()
	}
}

// resize changes the register size. Shrinking drops every gate on the removed
// qubit and trims it out of barriers, resets and measurements.
func (m *Model) resize(n int) {
	if n < 1 || n > m.cfg.MaxQubits {
		m.statusMsg = fmt.Sprintf("Register size must stay in [1, %d]", m.cfg.MaxQubits)
		return
	}
	if n < m.n {
		m.program = shrink(m.program, n)
	}
	m.n = n
	m.clbits = n
	if err := m.sync(); err != nil {
		m.statusMsg = err.Error()
	}
}

func shrink(program []qucom.Gate, n int) []qucom.Gate {
	var out []qucom.Gate
	for _, g := range program {
		if g.Cond != nil && !condFits(*g.Cond, n) {
			continue
		}
		switch g.Kind {
		case qucom.GateBarrier, qucom.GateReset, qucom.GateMeasure:
			var targets, cbits []int
			for i, q := range g.Targets {
				if q >= n || (g.Kind == qucom.GateMeasure && g.Cbits[i] >= n) {
					continue
				}
				targets = append(targets, q)
				if g.Kind == qucom.GateMeasure {
					cbits = append(cbits, g.Cbits[i])
				}
			}
			if len(targets) > 0 {
				g.Targets, g.Cbits = targets, cbits
				out = append(out, g)
			}
		default:
			if !slices.ContainsFunc(g.Qubits(), func(q int) bool { return q >= n }) {
				out = append(out, g)
			}
		}
	}
	return out
}

// condFits reports whether cond still reads a valid value of an n-bit register.
func condFits(cond qucom.Condition, n int) bool {
	if cond.Bit >= 0 {
		return cond.Bit < n
	}
	return cond.Value < 1<<n
}

// runCmd runs the current program in the background.
func (m Model) runCmd() tea.Cmd {
	qasm := m.lastQASM
	opts := trials.Options{
		Shots:     m.cfg.Shots,
		Workers:   m.cfg.Workers,
		Seed:      m.cfg.SeedPtr(),
		MaxQubits: m.cfg.MaxQubits,
		Logger:    m.logger,
	}
	return func() tea.Msg {
		build, err := trials.FromQASM(qasm)
		if err != nil {
			return runMsg{err: err}
		}
		report, err := trials.Run(context.Background(), build, opts)
		return runMsg{report: report, err: err}
	}
}

func (m *Model) save() {
	if err := os.WriteFile(m.cfg.Output, []byte(m.lastQASM), 0644); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	m.statusMsg = "Saved " + m.cfg.Output
	m.logger.Info("saved", "path", m.cfg.Output)
}

// parseParams parses a comma-separated list of angles. It returns nil if any of
// them is malformed or the list is empty.
func parseParams(s string) []float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var params []float64
	for _, part := range strings.Split(s, ",") {
		v, ok := qucom.ParseAngle(part)
		if !ok {
			return nil
		}
		params = append(params, v)
	}
	return params
}

// firstFree returns the first qubit other than the cursor and the chosen controls,
// searching from start in direction step.
func (m *Model) firstFree(start, step int) (int, bool) {
	for q := start; q >= 0 && q < m.n; q += step {
		if q != m.cursorQubit && !slices.Contains(m.controlQubits, q) {
			return q, true
		}
	}
	return 0, false
}

// beginPicks moves to qubit selection for the pending gate, or places it at once.
func (m *Model) beginPicks() {
	item := m.pending
	switch {
	case item.picks == 0:
		m.placeGate(item, operands{cursor: m.cursorQubit, params: m.params})
		m.focus = focusCircuit
	case m.n <= item.picks:
		m.statusMsg = fmt.Sprintf("%s needs %d qubits", item.name, item.picks+1)
		m.clearPending()
		m.focus = focusCircuit
	default:
		m.focus = focusSelectTarget
		if item.picks == 2 {
			m.focus = focusSelectControls
		}
		q, ok := m.firstFree(m.cursorQubit+1, 1)
		if !ok {
			q, _ = m.firstFree(m.cursorQubit-1, -1)
		}
		m.targetQubit = q
	}
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		qasmW := max(msg.Width/3-6, 20)
		m.qasmEditor.SetWidth(qasmW)
		editorH := max(m.topHeight()-6, 4)
		m.qasmEditor.SetHeight(editorH)

	case runMsg:
		m.running = false
		if msg.err != nil {
			m.statusMsg = "Run failed: " + msg.err.Error()
			break
		}
		m.report = msg.report
		m.statusMsg = fmt.Sprintf("Ran %d shots in %s", msg.report.Shots, msg.report.Elapsed.Round(time.Millisecond))

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch key {
		case "ctrl+r":
			if m.running {
				break
			}
			if m.parseErr != nil {
				m.statusMsg = "Fix the QASM before running"
				break
			}
			m.running = true
			m.statusMsg = "Running..."
			return m, m.runCmd()
		case "ctrl+s":
			m.save()
			return m, nil
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				m.qasmEditor.Focus()
			case "ctrl+n":
				m.program = nil
				m.cursorStep = 0
				m.report = nil
				if err := m.sync(); err != nil {
					m.statusMsg = err.Error()
				}
			case "up", "k":
				if m.cursorQubit > 0 {
					m.cursorQubit--
				}
			case "down", "j":
				if m.cursorQubit < m.n-1 {
					m.cursorQubit++
				}
			case "left", "h":
				if m.cursorStep > 0 {
					m.cursorStep--
				}
			case "right", "l":
				m.cursorStep++
			case "+", "=":
				m.resize(m.n + 1)
			case "-":
				m.resize(m.n - 1)
			case "a":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			case "backspace", "delete":
				m.deleteAt(m.cursorStep, m.cursorQubit)
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				cat := gateMenu[m.menuCat]
				if m.menuItem < len(cat.items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(gateMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				item := gateMenu[m.menuCat].items[m.menuItem]
				m.pending = &item
				if item.params > 0 {
					m.paramInput = ""
					m.focus = focusInputParam
					break
				}
				m.beginPicks()
			}

		case focusInputParam:
			switch key {
			case "esc":
				m.focus = focusCircuit
				m.clearPending()
			case "backspace":
				if len(m.paramInput) > 0 {
					m.paramInput = m.paramInput[:len(m.paramInput)-1]
				}
			case "enter":
				params := parseParams(m.paramInput)
				if len(params) != m.pending.params {
					m.statusMsg = fmt.Sprintf("%s takes %d angle(s), e.g. %s", m.pending.name, m.pending.params, m.pending.paramHint)
					break
				}
				m.params = params
				m.beginPicks()
			default:
				if len(key) == 1 {
					ch := key[0]
					if (ch >= '0' && ch <= '9') || ch == '.' || ch == ',' || ch == '-' || ch == '+' ||
						ch == 'e' || ch == 'p' || ch == 'i' || ch == 't' || ch == 'a' || ch == 'u' || ch == '*' || ch == '/' {
						m.paramInput += key
					}
				}
			}

		case focusSelectTarget, focusSelectControls:
			switch key {
			case "esc":
				m.focus = focusCircuit
				m.clearPending()
			case "up", "k":
				if q, ok := m.firstFree(m.targetQubit-1, -1); ok {
					m.targetQubit = q
				}
			case "down", "j":
				if q, ok := m.firstFree(m.targetQubit+1, 1); ok {
					m.targetQubit = q
				}
			case "enter":
				if m.focus == focusSelectControls {
					m.controlQubits = append(m.controlQubits, m.targetQubit)
					m.focus = focusSelectTarget
					m.targetQubit, _ = m.firstFree(0, 1)
					break
				}
				op := operands{
					cursor:   m.cursorQubit,
					target:   m.targetQubit,
					controls: m.controlQubits,
					params:   m.params,
				}
				m.placeGate(m.pending, op)
				m.focus = focusCircuit
			}

		case focusQASM:
			switch key {
			case "tab":
				m.focus = focusCircuit
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
				m.parseQASMInput()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// layout heights
const (
	controlsHeight = 6
	histHeight     = 10
)

func (m Model) topHeight() int {
	return max(m.height-controlsHeight-histHeight-2, 8)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	circuitWidth := m.width - qasmWidth - 4
	topH := m.topHeight()

	circuitPanel := m.renderCircuitPanel(circuitWidth, topH)
	qasmPanel := m.renderQASMPanel(qasmWidth, topH)
	histPanel := m.renderHistogramPanel(m.width-4, histHeight-2)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, qasmPanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, histPanel, controlsPanel)

	switch m.focus {
	case focusMenu:
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	case focusInputParam:
		frame = overlayAt(frame, m.renderParamInput(), 2, 2)
	}

	return frame
}

// renderParamInput renders parameter input overlay.
func (m Model) renderParamInput() string {
	var sb strings.Builder
	sb.WriteString(heading.Render("Enter Parameter"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Value: %s_", m.paramInput)
	sb.WriteString("\n\n")
	hint := "pi/2, 3*pi/4, 1.57"
	if m.pending != nil && m.pending.params > 1 {
		hint = m.pending.paramHint
	}
	sb.WriteString(muted.Render("Examples: " + hint))
	return menuPanel.Render(sb.String())
}
