package qucom

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regexps for QASM parsing.
var (
	versionRegex = regexp.MustCompile(`^OPENQASM\s+(\d+(?:\.\d+)?)$`)
	includeRegex = regexp.MustCompile(`^include\s+"[^"]*"$`)
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*(.*)$`)
	operandRegex = regexp.MustCompile(`^(\w+)\s*(?:\[\s*(\d+)\s*\])?$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*==\s*(\d+)\s*\)\s*(.+)$`)
	delayRegex   = regexp.MustCompile(`^delay\s*\[\s*([0-9.eE+-]+)\s*([a-z]+)\s*\]\s*(.+)$`)
)

var (
	errUnsupported  = errors.New("unsupported instruction")
	errNoQreg       = errors.New("gate before qreg declaration")
	errLateDecl     = errors.New("register declared after the first gate")
	errSecondReg    = errors.New("only one register of each kind is supported")
	errMissingQreg  = errors.New("missing qreg declaration")
	errBroadcast    = errors.New("whole-register operand not supported here")
	errBadOperand   = errors.New("malformed operand")
	errUnknownReg   = errors.New("unknown register")
	errOperandCount = errors.New("wrong number of operands")
	errParamCount   = errors.New("wrong number of parameters")
	errBadParam     = errors.New("malformed parameter")
	errVersion      = errors.New("only OPENQASM 2.0 is supported")
	errCondition    = errors.New("malformed condition")
	errDelay        = errors.New("malformed delay")
)

// gateSpec describes how a QASM gate name maps onto a Gate.
type gateSpec struct {
	kind     Kind
	params   int
	operands int // -1 for "two or more", last operand is the target
	controls int
}

var gateSpecs = map[string]gateSpec{
	"x":       {kind: GateX, operands: 1},
	"y":       {kind: GateY, operands: 1},
	"z":       {kind: GateZ, operands: 1},
	"h":       {kind: GateH, operands: 1},
	"s":       {kind: GateS, operands: 1},
	"sdg":     {kind: GateSdg, operands: 1},
	"t":       {kind: GateT, operands: 1},
	"tdg":     {kind: GateTdg, operands: 1},
	"rx":      {kind: GateRX, params: 1, operands: 1},
	"ry":      {kind: GateRY, params: 1, operands: 1},
	"rz":      {kind: GateRZ, params: 1, operands: 1},
	"p":       {kind: GatePhase, params: 1, operands: 1},
	"phase":   {kind: GatePhase, params: 1, operands: 1},
	"u1":      {kind: GatePhase, params: 1, operands: 1},
	"u":       {kind: GateU, params: 3, operands: 1},
	"u3":      {kind: GateU, params: 3, operands: 1},
	"cx":      {kind: GateCX, operands: 2, controls: 1},
	"cnot":    {kind: GateCX, operands: 2, controls: 1},
	"cz":      {kind: GateCZ, operands: 2, controls: 1},
	"swap":    {kind: GateSwap, operands: 2},
	"ccx":     {kind: GateCCX, operands: 3, controls: 2},
	"toffoli": {kind: GateCCX, operands: 3, controls: 2},
	"mcx":     {kind: GateMCX, operands: -1},
}

// parser holds the declarations seen so far. The circuit is created lazily at the
// first gate so that creg can size it.
type parser struct {
	opts    []Option
	qreg    string
	nq      int
	creg    string
	nc      int
	circuit *Circuit
}

// FromQASM builds a circuit from OPENQASM 2.0 text by replaying each statement
// through Apply, so measurements sample as they are read. Errors are *ParseError.
func FromQASM(text string, opts ...Option) (*Circuit, error) {
	p := &parser{opts: opts}
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		// a line may hold several statements; the last ";" is optional
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, &ParseError{Line: i + 1, Text: stmt, Err: err}
			}
		}
	}
	if p.qreg == "" {
		return nil, &ParseError{Line: len(lines), Err: errMissingQreg}
	}
	if err := p.ensureCircuit(); err != nil {
		return nil, &ParseError{Line: len(lines), Err: err}
	}
	return p.circuit, nil
}

func (p *parser) statement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "OPENQASM"):
		m := versionRegex.FindStringSubmatch(stmt)
		if m == nil {
			return errUnsupported
		}
		if v, _ := strconv.ParseFloat(m[1], 64); v != 2 {
			return errVersion
		}
		return nil
	case strings.HasPrefix(stmt, "include"):
		if !includeRegex.MatchString(stmt) {
			return errUnsupported
		}
		return nil
	case strings.HasPrefix(stmt, "qreg"):
		return p.declare(qregRegex, stmt, &p.qreg, &p.nq)
	case strings.HasPrefix(stmt, "creg"):
		return p.declare(cregRegex, stmt, &p.creg, &p.nc)
	}

	if err := p.ensureCircuit(); err != nil {
		return err
	}
	g, err := p.gate(stmt)
	if err != nil {
		return err
	}
	return p.circuit.Apply(g)
}

func (p *parser) declare(re *regexp.Regexp, stmt string, name *string, size *int) error {
	m := re.FindStringSubmatch(stmt)
	if m == nil {
		return errUnsupported
	}
	if p.circuit != nil {
		return errLateDecl
	}
	if *name != "" {
		return errSecondReg
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return err
	}
	*name, *size = m[1], n
	return nil
}

func (p *parser) ensureCircuit() error {
	if p.circuit != nil {
		return nil
	}
	if p.qreg == "" {
		return errNoQreg
	}
	opts := p.opts
	if p.creg != "" {
		opts = append(append([]Option{}, opts...), WithClassicalBits(p.nc))
	}
	c, err := New(p.nq, opts...)
	if err != nil {
		return err
	}
	p.circuit = c
	return nil
}

// operand resolves "q[3]" to 3, or a bare register name to -1.
func operand(s, reg string, size int) (int, error) {
	m := operandRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w %q", errBadOperand, s)
	}
	if m[1] != reg {
		return 0, fmt.Errorf("%w %q", errUnknownReg, m[1])
	}
	if m[2] == "" {
		return -1, nil
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, err
	}
	if idx >= size {
		return 0, &OutOfRangeError{What: "qubit", Index: idx, Limit: size}
	}
	return idx, nil
}

func (p *parser) qubits(list string) ([]int, error) {
	var qs []int
	for _, part := range strings.Split(list, ",") {
		q, err := operand(part, p.qreg, p.nq)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, nil
}

func (p *parser) gate(stmt string) (Gate, error) {
	if strings.HasPrefix(stmt, "if") {
		return p.conditional(stmt)
	}
	if strings.HasPrefix(stmt, "delay") {
		return p.delay(stmt)
	}
	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		return p.measure(m[1], m[2])
	}
	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return Gate{}, errUnsupported
	}
	name, paramList, operands := strings.ToLower(m[1]), m[2], m[3]

	switch name {
	case "barrier", "reset":
		qs, err := p.qubits(operands)
		if err != nil {
			return Gate{}, err
		}
		if len(qs) == 1 && qs[0] == -1 {
			qs = p.circuit.all()
		} else if containsWhole(qs) {
			return Gate{}, errBroadcast
		}
		kind := GateBarrier
		if name == "reset" {
			kind = GateReset
			if len(qs) != 1 && len(qs) != p.nq {
				return Gate{}, errOperandCount
			}
		}
		return Gate{Kind: kind, Targets: qs}, nil
	}

	spec, ok := gateSpecs[name]
	if !ok {
		return Gate{}, fmt.Errorf("%w %q", errUnsupported, name)
	}
	var params []float64
	if strings.TrimSpace(paramList) != "" {
		for _, ps := range strings.Split(paramList, ",") {
			v, ok := ParseAngle(ps)
			if !ok {
				return Gate{}, fmt.Errorf("%w %q", errBadParam, strings.TrimSpace(ps))
			}
			params = append(params, v)
		}
	}
	if len(params) != spec.params {
		return Gate{}, fmt.Errorf("%w: %s takes %d, got %d", errParamCount, name, spec.params, len(params))
	}
	qs, err := p.qubits(operands)
	if err != nil {
		return Gate{}, err
	}
	if containsWhole(qs) {
		return Gate{}, errBroadcast
	}
	switch {
	case spec.operands == -1 && len(qs) < 2,
		spec.operands >= 0 && len(qs) != spec.operands:
		return Gate{}, fmt.Errorf("%w: %s got %d", errOperandCount, name, len(qs))
	}
	controls := spec.controls
	if spec.operands == -1 {
		controls = len(qs) - 1
	}
	g := Gate{Kind: spec.kind, Params: params}
	if controls > 0 {
		g.Controls = qs[:controls]
	}
	g.Targets = qs[controls:]
	return g, nil
}

func containsWhole(qs []int) bool {
	for _, q := range qs {
		if q == -1 {
			return true
		}
	}
	return false
}

func (p *parser) measure(src, dst string) (Gate, error) {
	q, err := operand(src, p.qreg, p.nq)
	if err != nil {
		return Gate{}, err
	}
	nc := p.circuit.NClbits()
	creg := p.creg
	if creg == "" {
		creg = "c"
	}
	b, err := operand(dst, creg, nc)
	if err != nil {
		var oor *OutOfRangeError
		if errors.As(err, &oor) {
			oor.What = "classical bit"
		}
		return Gate{}, err
	}
	switch {
	case q == -1 && b == -1:
		qs := p.circuit.all()[:min(p.nq, nc)]
		return Gate{Kind: GateMeasure, Targets: qs, Cbits: qs}, nil
	case q == -1 || b == -1:
		return Gate{}, errBroadcast
	}
	return Gate{Kind: GateMeasure, Targets: []int{q}, Cbits: []int{b}}, nil
}

// conditional parses "if(c==k) <gate>" and the single-bit form "if(c[i]==v) <gate>".
func (p *parser) conditional(stmt string) (Gate, error) {
	m := ifRegex.FindStringSubmatch(stmt)
	if m == nil {
		return Gate{}, errCondition
	}
	creg := p.creg
	if creg == "" {
		creg = "c"
	}
	if m[1] != creg {
		return Gate{}, fmt.Errorf("%w %q", errUnknownReg, m[1])
	}
	value, err := strconv.Atoi(m[3])
	if err != nil {
		return Gate{}, fmt.Errorf("%w: %v", errCondition, err)
	}
	cond := RegisterEquals(value)
	if m[2] != "" {
		bit, err := strconv.Atoi(m[2])
		if err != nil {
			return Gate{}, fmt.Errorf("%w: %v", errCondition, err)
		}
		cond = BitEquals(bit, value)
	}
	inner := strings.TrimSpace(m[4])
	if strings.HasPrefix(inner, "if") {
		return Gate{}, errNestedCondition
	}
	g, err := p.gate(inner)
	if err != nil {
		return Gate{}, err
	}
	g.Cond = &cond
	return g, nil
}

// delay parses "delay[100ns] q[0]".
func (p *parser) delay(stmt string) (Gate, error) {
	m := delayRegex.FindStringSubmatch(stmt)
	if m == nil {
		return Gate{}, errDelay
	}
	d, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Gate{}, fmt.Errorf("%w: %v", errDelay, err)
	}
	q, err := operand(m[3], p.qreg, p.nq)
	if err != nil {
		return Gate{}, err
	}
	if q == -1 {
		return Gate{}, errBroadcast
	}
	return Gate{Kind: GateDelay, Targets: []int{q}, Params: []float64{d}, Unit: m[2]}, nil
}
