package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is one extracted value in the long-form dataset: a case-folded,
// alias-resolved metric, an upper-cased firm label, and the value.
type Record struct {
	Metric string  `json:"metric"`
	Firm   string  `json:"firm"`
	Value  float64 `json:"value"`
}

// MetricKey folds a metric label into the form used for matching:
// trimmed and lower-cased.
func MetricKey(s string) string {
	// Casers carry state; one per call keeps this safe across goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// EntityKey folds a firm label into its matching form: trimmed and upper-cased.
func EntityKey(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// EntityPrefixKey folds an entity label prefix the way EntityKey folds the
// label itself, keeping trailing separators: " Firm " becomes "FIRM ".
func EntityPrefixKey(prefix string) string {
	return cases.Upper(language.Und).String(strings.TrimLeftFunc(prefix, unicode.IsSpace))
}

// Aliases maps folded metric spellings onto the spelling the dashboard uses.
type Aliases map[string]string

// Canonical returns the dashboard spelling for a folded metric, or the metric
// itself when no alias is defined.
func (a Aliases) Canonical(metric string) string {
	if to, ok := a[metric]; ok {
		return to
	}
	return metric
}
