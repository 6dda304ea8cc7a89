// pkg/core/position.go
package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Position is a point on the court expressed as percentages of the court
// width (X) and height (Y). Both axes run 0..100 from the top-left corner,
// with the net along the top edge.
type Position struct {
	X float64
	Y float64
}

// positionJSON is the persisted form: {"x":"83.33%","y":"19.44%"}.
type positionJSON struct {
	X json.RawMessage `json:"x"`
	Y json.RawMessage `json:"y"`
}

// MarshalJSON writes both axes as percent strings.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X string `json:"x"`
		Y string `json:"y"`
	}{FormatPercent(p.X), FormatPercent(p.Y)})
}

// UnmarshalJSON accepts percent strings or bare numbers for either axis.
// Anything unparseable becomes 0.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw positionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.X = decodeAxis(raw.X)
	p.Y = decodeAxis(raw.Y)
	return nil
}

func decodeAxis(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParsePercent(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	return 0
}

// FormatPercent renders v as the shortest decimal followed by "%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// ParsePercent reads the longest leading decimal number in s, ignoring
// leading whitespace and any trailing text such as "%". Input with no
// numeric prefix yields 0.
func ParsePercent(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := numericPrefixLen(s)
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// numericPrefixLen returns the length of the longest prefix of s that is a
// decimal floating point literal: [sign] digits [. digits] [e [sign] digits].
func numericPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	digits := i - intStart
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if frac := j - i - 1; frac > 0 || digits > 0 {
			digits += frac
			i = j
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
