package qucom

import (
	"math"
	"strconv"
	"strings"
)

// namedConstants are the symbols accepted inside angle expressions.
var namedConstants = map[string]float64{
	"pi":  math.Pi,
	"tau": 2 * math.Pi,
	"e":   math.E,
}

// ParseAngle parses a single angle expression. It accepts plain numbers, the
// constants pi, tau and e, products with "*" or a bare coefficient ("2pi"), and one
// optional division.
//
// Examples: "1.5707", "pi", "pi/2", "3*pi/4", "3pi/4", "-pi", "pi*3/8", "tau/4", "2e-3".
func ParseAngle(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	// Try plain number first
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	}

	sign := 1.0
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign = -1
		s = strings.TrimSpace(rest)
	} else if rest, ok := strings.CutPrefix(s, "+"); ok {
		s = strings.TrimSpace(rest)
	}

	numStr, denStr, hasDen := strings.Cut(s, "/")
	num, ok := parseProduct(numStr)
	if !ok {
		return 0, false
	}
	den := 1.0
	if hasDen {
		den, ok = parseProduct(denStr)
		if !ok || den == 0 {
			return 0, false
		}
	}
	val := sign * num / den
	return val, !math.IsNaN(val) && !math.IsInf(val, 0)
}

func parseProduct(s string) (float64, bool) {
	result := 1.0
	for _, f := range strings.Split(s, "*") {
		v, ok := parseFactor(strings.TrimSpace(f))
		if !ok {
			return 0, false
		}
		result *= v
	}
	return result, true
}

func parseFactor(f string) (float64, bool) {
	if f == "" {
		return 0, false
	}
	if v, ok := namedConstants[f]; ok {
		return v, true
	}
	if v, err := strconv.ParseFloat(f, 64); err == nil {
		return v, true
	}
	// coefficient glued to a constant: "2pi", "0.5tau"
	for name, v := range namedConstants {
		if coeff, ok := strings.CutSuffix(f, name); ok && coeff != "" {
			c, err := strconv.ParseFloat(coeff, 64)
			if err != nil {
				continue
			}
			return c * v, true
		}
	}
	return 0, false
}

// piDenominators are tried in order when printing an angle as a multiple of pi.
var piDenominators = []int{1, 2, 3, 4, 6, 8, 12, 16, 32, 64, 128, 256, 512, 1024}

// FormatAngle prints an angle as a pi fraction ("pi/2", "-3*pi/4") when it is one,
// and otherwise as the shortest decimal that parses back to the same float64.
func FormatAngle(val float64) string {
	if val == 0 {
		return "0"
	}
	for _, d := range piDenominators {
		k := val * float64(d) / math.Pi
		rk := math.Round(k)
		if rk == 0 || math.Abs(k-rk) > 1e-12 || math.Abs(rk) > 1e6 {
			continue
		}
		return piFraction(int64(rk), d)
	}
	return strconv.FormatFloat(val, 'g', -1, 64)
}

func piFraction(k int64, d int) string {
	var sb strings.Builder
	if k < 0 {
		sb.WriteByte('-')
		k = -k
	}
	if k != 1 {
		sb.WriteString(strconv.FormatInt(k, 10))
		sb.WriteByte('*')
	}
	sb.WriteString("pi")
	if d != 1 {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(d))
	}
	return sb.String()
}
