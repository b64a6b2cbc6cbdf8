package card

import (
	"errors"
	"fmt"
	"strings"
)

// NumValues is the number of blackjack-value buckets.
const NumValues = 10

// A Value is a suit-blind blackjack card class: 0 is an Ace, 1 through 8 are
// the two through nine, and 9 is any ten-valued card (T, J, Q, K).
type Value uint8

const (
	Ace Value = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
)

var ErrInvalidValue = errors.New("invalid card value")

// Points is the hard point count of the card, with the Ace counted as one.
func (v Value) Points() int {
	return int(v) + 1
}

func (v Value) Valid() bool {
	return v < NumValues
}

func (v Value) String() string {
	switch {
	case v == Ace:
		return "A"
	case v == Ten:
		return "T"
	case v.Valid():
		return string(rune('1' + v))
	}
	return "?"
}

// ParseValue parses a single user-visible card value. Any ten-valued rank
// (T, 10, J, Q, K) maps to Ten.
func ParseValue(s string) (Value, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	switch t {
	case "A", "1", "11":
		return Ace, nil
	case "T", "10", "J", "Q", "K":
		return Ten, nil
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return Value(t[0] - '1'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidValue, s)
}

// ParseValues parses a comma- or space-separated list of card values, for
// example "A,9" or "T 6 5".
func ParseValues(s string) ([]Value, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	vals := make([]Value, 0, len(fields))
	for _, f := range fields {
		v, err := ParseValue(f)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func FormatValues(vals []Value) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(v.String())
	}
	return sb.String()
}
