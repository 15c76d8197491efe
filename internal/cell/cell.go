// Package cell classifies single spreadsheet cells and parses the loosely
// formatted numbers found in hand-maintained financial summaries.
package cell

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classification of a trimmed cell string.
type Kind int

const (
	Empty Kind = iota
	Numeric
	Label
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Numeric:
		return "numeric"
	case Label:
		return "label"
	default:
		return "unknown"
	}
}

// Value is a classified cell. Number is set only for Numeric cells and Text
// only for Label cells.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
}

// numberPattern accepts "(1,234.50)", "$500", "-12.3%" and similar.
var numberPattern = regexp.MustCompile(`^\(?-?\$?\d[\d,]*\.?\d*\)?%?$`)

// Classify sorts a cell into Empty, Numeric or Label. A cell is Numeric only
// when it both matches the number grammar and parses.
func Classify(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{Kind: Empty}
	}
	if numberPattern.MatchString(s) {
		if v, ok := ParseNumber(s); ok {
			return Value{Kind: Numeric, Number: v}
		}
	}
	return Value{Kind: Label, Text: s}
}

// IsNumeric reports whether s classifies as Numeric.
func IsNumeric(s string) bool {
	return Classify(s).Kind == Numeric
}

// ParseNumber strips "," and "$", turns a "(...)" wrapping into a leading
// minus, strips "%" and parses what is left. Percent values keep their
// magnitude: "12.3%" is 12.3.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "$", "").Replace(s)
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	s = strings.ReplaceAll(s, "%", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// LooksNumeric is the forgiving check used when scoring destination columns:
// anything ParseNumber accepts counts, grammar or not ("1e3" included).
func LooksNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}
