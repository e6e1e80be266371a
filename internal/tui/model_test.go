package tui

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"qucom"
	"qucom/internal/config"
)

func newTestModel(t *testing.T, qubits int) Model {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Qubits = qubits
	cfg.MaxQubits = 5
	cfg.Shots = 32
	cfg.Seed, cfg.Seeded = 3, true
	cfg.Output = filepath.Join(t.TempDir(), "out.qasm")
	m, err := New(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func findItem(t *testing.T, symbol string) menuItem {
	t.Helper()
	for _, cat := range gateMenu {
		for _, item := range cat.items {
			if item.symbol == symbol {
				return item
			}
		}
	}
	t.Fatalf("no menu item %q", symbol)
	return menuItem{}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		in   string
		want []float64
	}{
		{"pi/2", []float64{math.Pi / 2}},
		{"0.5", []float64{0.5}},
		{"pi, -pi/4, 0", []float64{math.Pi, -math.Pi / 4, 0}},
		{"", nil},
		{"pi/", nil},
		{"1,,2", nil},
	}
	for _, tt := range tests {
		got := parseParams(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseParams(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("parseParams(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPlaceGateUpdatesEditor(t *testing.T) {
	m := newTestModel(t, 2)
	item := findItem(t, "H")
	if !m.placeGate(&item, operands{cursor: 1}) {
		t.Fatalf("placeGate failed: %s", m.statusMsg)
	}
	if got := m.qasmEditor.Value(); !strings.Contains(got, "h q[1];") {
		t.Errorf("editor = %q, want it to contain %q", got, "h q[1];")
	}
	if len(m.program) != 1 || m.cursorStep != 1 {
		t.Errorf("program = %v, cursorStep = %d", m.program, m.cursorStep)
	}
}

func TestMenuPlacesGates(t *testing.T) {
	m := newTestModel(t, 2)

	// Hadamard is the first item of the first category.
	m = press(t, m, "a", "enter")
	if m.focus != focusCircuit || len(m.program) != 1 || m.program[0].Kind != qucom.GateH {
		t.Fatalf("after H: focus %d, program %v", m.focus, m.program)
	}

	// CNOT from the cursor to the preselected next qubit.
	m = press(t, m, "a", "right", "right", "enter")
	if m.focus != focusSelectTarget || m.targetQubit != 1 {
		t.Fatalf("focus %d, target %d", m.focus, m.targetQubit)
	}
	m = press(t, m, "enter")
	want := qucom.Gate{Kind: qucom.GateCX, Controls: []int{0}, Targets: []int{1}}
	if len(m.program) != 2 || !m.program[1].Equal(want) {
		t.Fatalf("program = %v", m.program)
	}
	if !strings.Contains(m.qasmEditor.Value(), "cx q[0], q[1];") {
		t.Errorf("editor = %q", m.qasmEditor.Value())
	}
}

func TestMenuParamInput(t *testing.T) {
	m := newTestModel(t, 1)
	// Rotate X, first item of the second category.
	m = press(t, m, "a", "right", "enter")
	if m.focus != focusInputParam {
		t.Fatalf("focus = %d, want param input", m.focus)
	}
	m = press(t, m, "p", "i", "/", "2", "enter")
	if len(m.program) != 1 || m.program[0].Kind != qucom.GateRX {
		t.Fatalf("program = %v", m.program)
	}
	if got := m.program[0].Params[0]; math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("angle = %v", got)
	}
}

func TestToffoliNeedsThreeQubits(t *testing.T) {
	m := newTestModel(t, 2)
	item := findItem(t, "●─●─⊕")
	m.pending = &item
	m.beginPicks()
	if m.focus != focusCircuit || m.pending != nil || m.statusMsg == "" {
		t.Errorf("focus %d, pending %v, status %q", m.focus, m.pending, m.statusMsg)
	}
}

func TestEditorParseError(t *testing.T) {
	m := newTestModel(t, 2)
	m = press(t, m, "a", "enter")
	before := len(m.program)

	m.qasmEditor.SetValue("OPENQASM 2.0;\nqreg q[2];\nfoo q[0];\n")
	m.parseQASMInput()

	var perr *qucom.ParseError
	if !errors.As(m.parseErr, &perr) {
		t.Fatalf("parseErr = %v, want *qucom.ParseError", m.parseErr)
	}
	if perr.Line != 3 {
		t.Errorf("Line = %d, want 3", perr.Line)
	}
	if len(m.program) != before {
		t.Errorf("program changed to %v", m.program)
	}
}

func TestEditorReplacesProgram(t *testing.T) {
	m := newTestModel(t, 2)
	m.qasmEditor.SetValue("OPENQASM 2.0;\nqreg q[3];\nx q[2];\ncx q[2], q[0];\n")
	m.parseQASMInput()
	if m.parseErr != nil {
		t.Fatal(m.parseErr)
	}
	if m.n != 3 || len(m.program) != 2 {
		t.Errorf("n = %d, program = %v", m.n, m.program)
	}
	if m.schedule.Steps != 2 {
		t.Errorf("Steps = %d, want 2", m.schedule.Steps)
	}
}

func TestDeleteAtCursor(t *testing.T) {
	m := newTestModel(t, 2)
	for _, sym := range []string{"H", "X"} {
		item := findItem(t, sym)
		m.placeGate(&item, operands{cursor: 0})
	}
	m.cursorStep, m.cursorQubit = 0, 0
	m = press(t, m, "backspace")
	if len(m.program) != 1 || m.program[0].Kind != qucom.GateX {
		t.Fatalf("program = %v", m.program)
	}
	// nothing at (1, 1)
	m.deleteAt(1, 1)
	if len(m.program) != 1 {
		t.Errorf("program = %v", m.program)
	}
}

func TestResize(t *testing.T) {
	m := newTestModel(t, 3)
	m.program = []qucom.Gate{
		{Kind: qucom.GateH, Targets: []int{0}},
		{Kind: qucom.GateCX, Controls: []int{0}, Targets: []int{1}},
		{Kind: qucom.GateCX, Controls: []int{1}, Targets: []int{2}},
		{Kind: qucom.GateMeasure, Targets: []int{0, 1, 2}, Cbits: []int{0, 1, 2}},
	}
	if err := m.sync(); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "-")
	if m.n != 2 || len(m.program) != 3 {
		t.Fatalf("n = %d, program = %v", m.n, m.program)
	}
	last := m.program[2]
	if last.Kind != qucom.GateMeasure || len(last.Targets) != 2 || len(last.Cbits) != 2 {
		t.Errorf("measure = %+v", last)
	}
	if !strings.Contains(m.qasmEditor.Value(), "qreg q[2];") {
		t.Errorf("editor = %q", m.qasmEditor.Value())
	}

	m = press(t, m, "+", "+", "+", "+")
	if m.n != 5 || m.statusMsg == "" {
		t.Errorf("n = %d, status %q; want 5 and a warning", m.n, m.statusMsg)
	}
}

func TestRunCmd(t *testing.T) {
	m := newTestModel(t, 2)
	m.program = []qucom.Gate{
		{Kind: qucom.GateX, Targets: []int{0}},
		{Kind: qucom.GateMeasure, Targets: []int{0, 1}, Cbits: []int{0, 1}},
	}
	if err := m.sync(); err != nil {
		t.Fatal(err)
	}

	msg, ok := m.runCmd()().(runMsg)
	if !ok {
		t.Fatal("runCmd did not return a runMsg")
	}
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if msg.report.Counts["10"] != 32 {
		t.Errorf("Counts = %v, want all 32 shots on 10", msg.report.Counts)
	}

	next, _ := m.Update(msg)
	m = next.(Model)
	if m.report != msg.report || m.running {
		t.Error("report not stored")
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	if view := next.(Model).View(); !strings.Contains(view, "100.0%") {
		t.Error("histogram does not show the outcome")
	}
}

func TestRunFailure(t *testing.T) {
	m := newTestModel(t, 1)
	next, _ := m.Update(runMsg{err: errors.New("boom")})
	m = next.(Model)
	if m.report != nil || !strings.Contains(m.statusMsg, "boom") {
		t.Errorf("report %v, status %q", m.report, m.statusMsg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	m := newTestModel(t, 2)
	m = press(t, m, "a", "enter")
	m.save()
	data, err := os.ReadFile(m.cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != m.qasmEditor.Value() {
		t.Errorf("saved %q, editor has %q", data, m.qasmEditor.Value())
	}

	cfg := *m.cfg
	cfg.File = cfg.Output
	loaded, err := New(&cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.program) != 1 || !loaded.program[0].Equal(m.program[0]) {
		t.Errorf("loaded program = %v", loaded.program)
	}
}

func TestNewMissingFileStartsEmpty(t *testing.T) {
	cfg := config.NewConfig()
	cfg.File = filepath.Join(t.TempDir(), "new.qasm")
	m, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.n != cfg.Qubits || len(m.program) != 0 {
		t.Errorf("n = %d, program = %v", m.n, m.program)
	}
}

func TestViewRendersDiagram(t *testing.T) {
	m := newTestModel(t, 3)
	m = press(t, m, "a", "enter")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	view := next.(Model).View()
	for _, want := range []string{"Quantum Circuit", "q[2]", "QASM Editor", "Press ^R"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestCellInfo(t *testing.T) {
	c, err := qucom.New(4, qucom.WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	c.CX(0, 3).H(1).MeasureQubit(1, 1)
	view := &scheduleView{c.Moments()}

	tests := []struct {
		step, qubit int
		want        cellInfo
	}{
		{0, 0, cellInfo{symbol: "●", vertBelow: true}},
		{0, 1, cellInfo{passThrough: true, vertAbove: true, vertBelow: true}},
		{0, 3, cellInfo{symbol: "⊕", vertAbove: true}},
		{1, 1, cellInfo{label: "H"}},
		{2, 1, cellInfo{label: "M", measureBelow: true}},
		{2, 2, cellInfo{measureBelow: true}},
		{2, 0, cellInfo{}},
	}
	for _, tt := range tests {
		if got := view.cellInfo(tt.step, tt.qubit); got != tt.want {
			t.Errorf("cellInfo(%d, %d) = %+v, want %+v", tt.step, tt.qubit, got, tt.want)
		}
	}
}

func TestOverlay(t *testing.T) {
	if n := visibleLen("\x1b[1mab\x1b[0mc"); n != 3 {
		t.Errorf("visibleLen = %d, want 3", n)
	}
	bg := "0123456789\nabcdefghij"
	got := overlayAt(bg, "XY\nZ", 3, 0)
	if want := "012XY56789\nabcZefghij"; got != want {
		t.Errorf("overlayAt = %q, want %q", got, want)
	}
	if got := spliceLineAt("ab", "Z", 4); got != "ab  Z" {
		t.Errorf("spliceLineAt past the end = %q", got)
	}
	if got := spliceLineAt("\x1b[1mabc\x1b[0m", "Z", 1); got != "\x1b[1maZc\x1b[0m" {
		t.Errorf("spliceLineAt with escapes = %q", got)
	}
	if got := padCenter("M", 5); got != "  M  " {
		t.Errorf("padCenter = %q", got)
	}
}

func TestResizeDropsStaleConditions(t *testing.T) {
	onC2, reg4, reg1 := qucom.BitEquals(2, 1), qucom.RegisterEquals(4), qucom.RegisterEquals(1)
	program := []qucom.Gate{
		{Kind: qucom.GateX, Targets: []int{0}, Cond: &onC2},
		{Kind: qucom.GateX, Targets: []int{1}, Cond: &reg4},
		{Kind: qucom.GateX, Targets: []int{1}, Cond: &reg1},
		{Kind: qucom.GateDelay, Targets: []int{0}, Params: []float64{20}, Unit: "ns"},
	}
	got := shrink(program, 2)
	if len(got) != 2 || !got[0].Equal(program[2]) || !got[1].Equal(program[3]) {
		t.Errorf("shrink = %+v", got)
	}
}
