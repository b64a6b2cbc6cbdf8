// Package statekey maps a game state to an order- and suit-blind string key.
// Two states that hold the same cards (in any draw order) over the same shoe
// composition map to the same key; it is used to memoize expected values.
package statekey

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/game"
)

// Key format:
//
//	[c=<total>cbji=[n0-n1-...-n9]h=[sorted hand]d=[sorted dealer]s=<stay>]
//
// Lists hold only decimal digits joined by '-', so no field can contain a
// bracket, '=' or a field tag. The layout is fixed: cache directories
// written with it stay usable.

var ErrMalformedKey = errors.New("malformed state key")

func joinInts[T ~int | ~uint8](vals []T) string {
	return strings.Join(lo.Map(vals, func(v T, _ int) string {
		return strconv.Itoa(int(v))
	}), "-")
}

func sortedCopy(vals []card.Value) []card.Value {
	s := slices.Clone(vals)
	slices.Sort(s)
	return s
}

// Key returns the canonical key for g.
func Key(g game.State) string {
	sh := g.Shoe()
	comp := sh.Composition()
	var sb strings.Builder
	sb.Grow(64)
	sb.WriteString("[c=")
	sb.WriteString(strconv.Itoa(sh.Total()))
	sb.WriteString("cbji=[")
	sb.WriteString(joinInts(comp[:]))
	sb.WriteString("]h=[")
	sb.WriteString(joinInts(sortedCopy(g.Hand())))
	sb.WriteString("]d=[")
	sb.WriteString(joinInts(sortedCopy(g.Dealer())))
	sb.WriteString("]s=")
	sb.WriteString(strconv.FormatBool(g.Stayed()))
	sb.WriteString("]")
	return sb.String()
}

// Fields are the components of a parsed key.
type Fields struct {
	Total       int
	Composition [card.NumValues]int
	Hand        []card.Value
	Dealer      []card.Value
	Stay        bool
}

var keyRe = regexp.MustCompile(`^\[c=(\d+)cbji=\[([\d-]*)\]h=\[([\d-]*)\]d=\[([\d-]*)\]s=(true|false)\]$`)

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "-")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		out[i] = n
	}
	return out, nil
}

func toValues(ns []int) ([]card.Value, error) {
	vals := make([]card.Value, len(ns))
	for i, n := range ns {
		v := card.Value(n)
		if n < 0 || !v.Valid() {
			return nil, fmt.Errorf("%w: card value %d", ErrMalformedKey, n)
		}
		vals[i] = v
	}
	return vals, nil
}

// Parse is the inverse of Key. It is used by tooling that inspects a cache
// directory.
func Parse(key string) (Fields, error) {
	m := keyRe.FindStringSubmatch(key)
	if m == nil {
		return Fields{}, ErrMalformedKey
	}
	f := Fields{Stay: m[5] == "true"}
	var err error
	f.Total, err = strconv.Atoi(m[1])
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	comp, err := splitInts(m[2])
	if err != nil {
		return Fields{}, err
	}
	if len(comp) != card.NumValues {
		return Fields{}, fmt.Errorf("%w: %d composition counts", ErrMalformedKey, len(comp))
	}
	copy(f.Composition[:], comp)
	if lo.Sum(comp) != f.Total {
		return Fields{}, fmt.Errorf("%w: total %d does not match composition", ErrMalformedKey, f.Total)
	}
	hand, err := splitInts(m[3])
	if err != nil {
		return Fields{}, err
	}
	if f.Hand, err = toValues(hand); err != nil {
		return Fields{}, err
	}
	dealer, err := splitInts(m[4])
	if err != nil {
		return Fields{}, err
	}
	if f.Dealer, err = toValues(dealer); err != nil {
		return Fields{}, err
	}
	return f, nil
}
