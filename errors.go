package qucom

import "fmt"

// OutOfRangeError reports a qubit, classical bit or size outside its valid bounds.
type OutOfRangeError struct {
	What  string // "qubit", "classical bit", "qubit count", "search target", "repeat count"
	Index int
	Limit int // valid values are [0, Limit), or [1, Limit] for counts
}

func (e *OutOfRangeError) Error() string {
	switch e.What {
	case "qubit count":
		return fmt.Sprintf("qubit count %d out of range [1, %d]", e.Index, e.Limit)
	case "classical bit count":
		return fmt.Sprintf("classical bit count %d must be positive", e.Index)
	case "repeat count":
		return fmt.Sprintf("repeat count %d must not be negative", e.Index)
	case "condition value":
		return fmt.Sprintf("condition value %d out of range [0, %d)", e.Index, e.Limit)
	}
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.What, e.Index, e.Limit)
}

// DuplicateOperandError reports a qubit used twice by one gate, either as control and
// target or repeated inside a control list.
type DuplicateOperandError struct {
	Gate  string
	Qubit int
}

func (e *DuplicateOperandError) Error() string {
	return fmt.Sprintf("%s: qubit %d used more than once", e.Gate, e.Qubit)
}

// InvalidDecompositionError reports a multi-controlled gate whose ancillas cannot
// support the requested decomposition.
type InvalidDecompositionError struct {
	Reason string
}

func (e *InvalidDecompositionError) Error() string {
	return "invalid decomposition: " + e.Reason
}

// ParseError reports malformed QASM input. Line is 1-based.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotExecutedError is returned when results are read before anything was measured.
type NotExecutedError struct{}

func (e *NotExecutedError) Error() string {
	return "circuit has not been executed"
}

// LoopLimitError reports a While loop whose condition still held after its
// iteration limit.
type LoopLimitError struct {
	Bit   int
	Value int
	Limit int
}

func (e *LoopLimitError) Error() string {
	return fmt.Sprintf("while c[%d]==%d still held after %d iterations", e.Bit, e.Value, e.Limit)
}

// BitstringError reports a malformed basis-state label.
type BitstringError struct {
	Bits   string
	Reason string
}

func (e *BitstringError) Error() string {
	return fmt.Sprintf("bitstring %q: %s", e.Bits, e.Reason)
}
