package qucom

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"
)

// Complex is the amplitude type.
type Complex = complex128

// Matrix2 is a single-qubit operator in row-major order.
type Matrix2 [2][2]Complex

// StateVector holds the 2^n amplitudes of an n-qubit register.
//
// Qubit 0 is the most significant bit of the basis index, so basis state 5 of a
// three qubit register is |101⟩ with qubit 0 and qubit 2 set.
type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

// NewStateVector returns |0...0⟩ on numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// Clone returns a deep copy of s.
func (s *StateVector) Clone() *StateVector {
	amps := make([]Complex, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// NewStateFromBits returns the basis state labelled by bits, qubit 0 first:
// "01" is |01⟩ with qubit 1 set.
func NewStateFromBits(bits string) (*StateVector, error) {
	return NewStateFromBitstrings(bits)
}

// NewStateFromBitstrings returns the normalized equal-weight sum of the given
// basis states. A label listed twice carries twice the amplitude.
func NewStateFromBitstrings(bitstrings ...string) (*StateVector, error) {
	if len(bitstrings) == 0 {
		return nil, &BitstringError{Reason: "no basis states given"}
	}
	n := len(bitstrings[0])
	idx := make([]int, len(bitstrings))
	for k, bits := range bitstrings {
		if len(bits) != n {
			return nil, &BitstringError{Bits: bits, Reason: fmt.Sprintf("length %d, want %d", len(bits), n)}
		}
		i, err := parseBits(bits)
		if err != nil {
			return nil, err
		}
		idx[k] = i
	}
	s := &StateVector{Amplitudes: make([]Complex, 1<<n), NumQubits: n}
	for _, i := range idx {
		s.Amplitudes[i]++
	}
	scale := complex(1/math.Sqrt(s.Norm()), 0)
	for _, i := range idx {
		s.Amplitudes[i] = 0
	}
	for _, i := range idx {
		s.Amplitudes[i] += scale
	}
	return s, nil
}

// parseBits turns a label into its basis index, qubit 0 most significant.
func parseBits(bits string) (int, error) {
	switch {
	case bits == "":
		return 0, &BitstringError{Reason: "empty"}
	case len(bits) > MaxQubits:
		return 0, &BitstringError{Bits: bits, Reason: fmt.Sprintf("more than %d qubits", MaxQubits)}
	}
	i := 0
	for _, r := range bits {
		switch r {
		case '0':
			i <<= 1
		case '1':
			i = i<<1 | 1
		default:
			return 0, &BitstringError{Bits: bits, Reason: fmt.Sprintf("invalid character %q", r)}
		}
	}
	return i, nil
}

func (s *StateVector) reset() {
	clear(s.Amplitudes)
	s.Amplitudes[0] = 1
}

// bit returns the index mask of qubit q.
func (s *StateVector) bit(q int) int {
	return 1 << (s.NumQubits - 1 - q)
}

// apply applies m to qubit q for every basis pair whose control bits are all set.
// ctrlMask may be zero for an uncontrolled gate.
func (s *StateVector) apply(m Matrix2, q, ctrlMask int) {
	n := len(s.Amplitudes)
	bit := s.bit(q)
	for i := 0; i < n; i++ {
		if i&bit != 0 || i&ctrlMask != ctrlMask {
			continue
		}
		j := i | bit
		a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = m[0][0]*a0 + m[0][1]*a1
		s.Amplitudes[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

func (s *StateVector) applySwap(q1, q2 int) {
	n := len(s.Amplitudes)
	bit1 := s.bit(q1)
	bit2 := s.bit(q2)
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) mask(qubits []int) int {
	m := 0
	for _, q := range qubits {
		m |= s.bit(q)
	}
	return m
}

// prob1 returns the probability of observing qubit q in |1⟩.
func (s *StateVector) prob1(q int) float64 {
	bit := s.bit(q)
	p := 0.0
	for i, a := range s.Amplitudes {
		if i&bit != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

// collapse zeroes every amplitude inconsistent with qubit q reading outcome and
// rescales the rest by 1/sqrt(p), where p is the probability of that outcome.
func (s *StateVector) collapse(q, outcome int, p float64) {
	bit := s.bit(q)
	scale := complex(1/math.Sqrt(p), 0)
	for i := range s.Amplitudes {
		set := 0
		if i&bit != 0 {
			set = 1
		}
		if set == outcome {
			s.Amplitudes[i] *= scale
		} else {
			s.Amplitudes[i] = 0
		}
	}
}

// Norm returns the sum of squared amplitude magnitudes.
func (s *StateVector) Norm() float64 {
	sum := 0.0
	for _, a := range s.Amplitudes {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}

// Bitstring renders basis index i with qubit 0 first.
func (s *StateVector) Bitstring(i int) string {
	var sb strings.Builder
	sb.Grow(s.NumQubits)
	for q := 0; q < s.NumQubits; q++ {
		if i&s.bit(q) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Probabilities maps the bitstring of every basis state with non-negligible weight
// to its Born-rule probability.
func (s *StateVector) Probabilities() map[string]float64 {
	probs := make(map[string]float64)
	for i, a := range s.Amplitudes {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p > 1e-12 {
			probs[s.Bitstring(i)] = p
		}
	}
	return probs
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

// QubitProbabilities returns the marginal distribution of every qubit, indexed
// by qubit.
func (s *StateVector) QubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i, a := range s.Amplitudes {
		p := real(a)*real(a) + imag(a)*imag(a)
		for q := 0; q < s.NumQubits; q++ {
			if i&s.bit(q) != 0 {
				probs[q].Prob1 += p
			} else {
				probs[q].Prob0 += p
			}
		}
	}
	return probs
}

// BasisState is one populated entry of the state vector.
type BasisState struct {
	Index     int
	Bits      string
	Amplitude Complex
	Prob      float64
	Phase     float64
}

// NonZero lists populated basis states, most probable first.
func (s *StateVector) NonZero() []BasisState {
	states := make([]BasisState, 0)
	for i, amp := range s.Amplitudes {
		prob := real(amp * cmplx.Conj(amp))
		if prob > 1e-10 {
			states = append(states, BasisState{
				Index:     i,
				Bits:      s.Bitstring(i),
				Amplitude: amp,
				Prob:      prob,
				Phase:     cmplx.Phase(amp),
			})
		}
	}
	sort.SliceStable(states, func(a, b int) bool {
		return states[a].Prob > states[b].Prob
	})
	return states
}
