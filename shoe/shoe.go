// Package shoe tracks the undealt cards of a blackjack shoe as per-value
// counts. A Shoe is a small value type; every draw returns a new Shoe.
package shoe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/bjev/card"
)

var (
	ErrCardUnavailable = errors.New("no card of that value left in the shoe")
	ErrEmpty           = errors.New("shoe is empty")
	ErrNegativeCount   = errors.New("negative card count")
)

// Rand is the random source used for random draws. *frand.RNG satisfies it.
type Rand interface {
	Intn(n int) int
}

type defaultRand struct{}

func (defaultRand) Intn(n int) int { return frand.Intn(n) }

// DefaultRand draws from frand's global, crypto-seeded generator.
var DefaultRand Rand = defaultRand{}

// A Shoe is the composition of the remaining cards. The total is kept
// alongside the counts and always equals their sum.
type Shoe struct {
	composition [card.NumValues]int
	total       int
}

// New creates a shoe with the given per-value counts.
func New(composition [card.NumValues]int) (Shoe, error) {
	for i, ct := range composition {
		if ct < 0 {
			return Shoe{}, fmt.Errorf("%w: %v has %d", ErrNegativeCount, card.Value(i), ct)
		}
	}
	return Shoe{composition: composition, total: lo.Sum(composition[:])}, nil
}

// NewStandard builds a shoe of numDecks standard 52-card decks.
func NewStandard(numDecks int) Shoe {
	return FromCards(card.StandardDeck(numDecks))
}

// FromCards collapses a list of suited cards into a shoe.
func FromCards(cards []card.Card) Shoe {
	s := Shoe{}
	for _, c := range cards {
		s.composition[c.Value()]++
		s.total++
	}
	return s
}

func (s Shoe) Total() int {
	return s.total
}

func (s Shoe) Count(v card.Value) int {
	return s.composition[v]
}

// Composition returns a copy of the per-value counts.
func (s Shoe) Composition() [card.NumValues]int {
	return s.composition
}

// DrawProbabilities returns the chance that the next card falls in each
// value bucket. All zeroes for an empty shoe.
func (s Shoe) DrawProbabilities() [card.NumValues]float64 {
	var probs [card.NumValues]float64
	if s.total == 0 {
		return probs
	}
	for i, ct := range s.composition {
		probs[i] = float64(ct) / float64(s.total)
	}
	return probs
}

// Draw removes one card of value v and returns the resulting shoe.
func (s Shoe) Draw(v card.Value) (card.Value, Shoe, error) {
	if !v.Valid() {
		return 0, s, fmt.Errorf("%w: %d", card.ErrInvalidValue, v)
	}
	if s.composition[v] == 0 {
		return 0, s, fmt.Errorf("%w: %v", ErrCardUnavailable, v)
	}
	s.composition[v]--
	s.total--
	return v, s, nil
}

// drawAt draws the card "at" index idx, counting up through the buckets in
// value order.
func (s Shoe) drawAt(idx int) (card.Value, Shoe, error) {
	if idx < 0 || idx >= s.total {
		return 0, s, errors.New("card index out of range")
	}
	counter := 0
	for i, ct := range s.composition {
		counter += ct
		if counter > idx {
			return s.Draw(card.Value(i))
		}
	}
	// unreachable while total matches the composition.
	return 0, s, errors.New("shoe composition is inconsistent")
}

// DrawRandom draws a card with probability proportional to its count.
func (s Shoe) DrawRandom(rng Rand) (card.Value, Shoe, error) {
	if s.total == 0 {
		return 0, s, ErrEmpty
	}
	if rng == nil {
		rng = DefaultRand
	}
	return s.drawAt(rng.Intn(s.total))
}

// Remove draws each of the given values in turn.
func (s Shoe) Remove(vals ...card.Value) (Shoe, error) {
	var err error
	for _, v := range vals {
		_, s, err = s.Draw(v)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func (s Shoe) String() string {
	parts := lo.Map(s.composition[:], func(ct int, i int) string {
		return fmt.Sprintf("%v:%d", card.Value(i), ct)
	})
	return fmt.Sprintf("%s (%d)", strings.Join(parts, " "), s.total)
}
