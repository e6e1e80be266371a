package tui

import (
	"fmt"
	"strings"

	"qucom"
)

// operands carries what the user picked for a pending gate.
type operands struct {
	cursor   int
	target   int
	controls []int
	params   []float64
}

// menuItem represents a single gate choice in the menu.
type menuItem struct {
	name      string
	symbol    string
	picks     int // qubits to pick after the cursor: 0, 1 (target) or 2 (control, target)
	params    int
	paramHint string
	apply     func(c *qucom.Circuit, op operands) error
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

func single(kind qucom.Kind) func(*qucom.Circuit, operands) error {
	return func(c *qucom.Circuit, op operands) error {
		return c.Apply(qucom.Gate{Kind: kind, Targets: []int{op.cursor}, Params: op.params})
	}
}

// gateMenu defines the gate picker categories and items.
var gateMenu = []menuCategory{
	{
		name: "Single Qubit",
		items: []menuItem{
			{name: "Hadamard", symbol: "H", apply: single(qucom.GateH)},
			{name: "Pauli-X (NOT)", symbol: "X", apply: single(qucom.GateX)},
			{name: "Pauli-Y", symbol: "Y", apply: single(qucom.GateY)},
			{name: "Pauli-Z", symbol: "Z", apply: single(qucom.GateZ)},
			{name: "Phase (S)", symbol: "S", apply: single(qucom.GateS)},
			{name: "Phase Dagger (S†)", symbol: "S†", apply: single(qucom.GateSdg)},
			{name: "T Gate", symbol: "T", apply: single(qucom.GateT)},
			{name: "T Dagger (T†)", symbol: "T†", apply: single(qucom.GateTdg)},
		},
	},
	{
		name: "Rotation",
		items: []menuItem{
			{name: "Rotate X", symbol: "RX", params: 1, paramHint: "pi/2", apply: single(qucom.GateRX)},
			{name: "Rotate Y", symbol: "RY", params: 1, paramHint: "pi/2", apply: single(qucom.GateRY)},
			{name: "Rotate Z", symbol: "RZ", params: 1, paramHint: "pi/2", apply: single(qucom.GateRZ)},
			{name: "Phase Shift", symbol: "P", params: 1, paramHint: "pi/4", apply: single(qucom.GatePhase)},
			{name: "Universal U", symbol: "U", params: 3, paramHint: "theta,phi,lambda", apply: single(qucom.GateU)},
		},
	},
	{
		name: "Multi Qubit",
		items: []menuItem{
			{name: "CNOT", symbol: "●─⊕", picks: 1, apply: func(c *qucom.Circuit, op operands) error { return c.CX(op.cursor, op.target).Err() }},
			{name: "Controlled-Z", symbol: "●─●", picks: 1, apply: func(c *qucom.Circuit, op operands) error { return c.CZ(op.cursor, op.target).Err() }},
			{name: "Controlled-P", symbol: "●─P", picks: 1, params: 1, paramHint: "pi/4", apply: func(c *qucom.Circuit, op operands) error {
				return c.CPhase(op.cursor, op.target, op.params[0]).Err()
			}},
			{name: "SWAP", symbol: "×─×", picks: 1, apply: func(c *qucom.Circuit, op operands) error { return c.Swap(op.cursor, op.target).Err() }},
			{name: "Toffoli (CCX)", symbol: "●─●─⊕", picks: 2, apply: func(c *qucom.Circuit, op operands) error {
				return c.Toffoli(op.cursor, op.controls[0], op.target).Err()
			}},
		},
	},
	{
		name: "Measurement",
		items: []menuItem{
			{name: "Measure", symbol: "M", apply: func(c *qucom.Circuit, op operands) error {
				return c.MeasureQubit(op.cursor, min(op.cursor, c.NClbits()-1)).Err()
			}},
			{name: "Measure All", symbol: "M*", apply: func(c *qucom.Circuit, _ operands) error { return c.Measure().Err() }},
			{name: "Reset", symbol: "|0⟩", apply: func(c *qucom.Circuit, op operands) error { return c.ResetQubit(op.cursor).Err() }},
		},
	},
	{
		name: "Special",
		items: []menuItem{
			{name: "Barrier", symbol: "┃", apply: func(c *qucom.Circuit, _ operands) error { return c.Barrier().Err() }},
			{name: "Multi-Controlled Z", symbol: "●…●", apply: func(c *qucom.Circuit, _ operands) error { return c.MCZ().Err() }},
			{name: "Fourier Transform", symbol: "QFT", apply: func(c *qucom.Circuit, _ operands) error { return c.QFT().Err() }},
			{name: "Grover Diffuser", symbol: "D", apply: func(c *qucom.Circuit, _ operands) error { return c.Diffuser().Err() }},
		},
	},
}

// renderMenu renders the floating gate-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(heading.Render("Add Gate"))
	sb.WriteString("\n")

	// Category tabs
	for i, cat := range gateMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(pendingMark.Render(name))
		} else {
			sb.WriteString(muted.Render(name))
		}
		if i < len(gateMenu)-1 {
			sb.WriteString(muted.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(muted.Render(strings.Repeat("─", 42)))
	sb.WriteString("\n")

	cat := gateMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuCurrent.Render(" ▸ "))
			sb.WriteString(menuCurrent.Render(fmt.Sprintf("%-20s", item.name)))
			sb.WriteString(gateGlyph.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuEntry.Render(fmt.Sprintf("%-20s", item.name)))
			sb.WriteString(muted.Render(item.symbol))
		}
		if item.picks > 0 {
			sb.WriteString(muted.Render(" →target"))
		}
		if item.params > 0 {
			sb.WriteString(muted.Render(fmt.Sprintf(" (%s)", item.paramHint)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(muted.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuPanel.Render(sb.String())
}
