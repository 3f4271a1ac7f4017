// Package threshold decides whether a query's issue count is within its
// configured bounds.
package threshold

import (
	"fmt"
	"strconv"
)

// Bounds holds the optional limits of a query. A nil field is unset.
type Bounds struct {
	Min *int
	Max *int
}

// Verdict is the result of evaluating one count.
type Verdict struct {
	Pass bool
	// Limits describes the bounds as the edge of the violating range,
	// e.g. "<10, >5" for max 9 and min 6.
	Limits string
}

// Evaluate checks count against b. Without a max the query always passes,
// even if a min is configured.
func Evaluate(count int, b Bounds) (Verdict, error) {
	if count < 0 {
		return Verdict{}, fmt.Errorf("issue count must not be negative, got %d", count)
	}

	v := Verdict{Pass: true, Limits: LimitsText(b)}
	if b.Max != nil {
		v.Pass = count <= *b.Max && (b.Min == nil || count >= *b.Min)
	}
	return v, nil
}

// LimitsText renders b for reports. Consumers of the report depend on the
// exact max+1 and min-1 renderings.
func LimitsText(b Bounds) string {
	var s string
	if b.Max != nil {
		s = "<" + strconv.Itoa(*b.Max+1)
	}
	if b.Min != nil {
		s += ", >" + strconv.Itoa(*b.Min-1)
	}
	return s
}
