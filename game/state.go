// Package game holds the immutable blackjack game state: the player's hand,
// the dealer's cards, whether the player has stayed, and the shoe the next
// cards come from. Every transition returns a new State.
package game

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/shoe"
)

const cardsPerDeal = 3

var (
	ErrShoeTooSmall = errors.New("dealing from a shoe without enough cards")
	ErrShoeEmpty    = errors.New("drawing from an empty shoe")
	ErrAlreadyDealt = errors.New("dealing to an already dealt game")
	ErrNotDealt     = errors.New("game has not been dealt")
)

// State is a snapshot of a single blackjack hand. The zero value is an
// empty game with an empty shoe.
type State struct {
	hand   []card.Value
	dealer []card.Value
	stay   bool
	shoe   shoe.Shoe
}

// NewEmpty returns an un-dealt game with an empty shoe.
func NewEmpty() State {
	return State{}
}

// NewStandard returns an un-dealt game over numDecks fresh decks.
func NewStandard(numDecks int) State {
	return State{shoe: shoe.NewStandard(numDecks)}
}

// NewFromShoe returns an un-dealt game drawing from s.
func NewFromShoe(s shoe.Shoe) State {
	return State{shoe: s}
}

// NewState builds an arbitrary position. The cards in hand and dealer must
// already be absent from s; they are not removed from it.
func NewState(hand, dealer []card.Value, stay bool, s shoe.Shoe) State {
	return State{
		hand:   slices.Clone(hand),
		dealer: slices.Clone(dealer),
		stay:   stay,
		shoe:   s,
	}
}

func (g State) Hand() []card.Value {
	return slices.Clone(g.hand)
}

func (g State) Dealer() []card.Value {
	return slices.Clone(g.dealer)
}

func (g State) Stayed() bool {
	return g.stay
}

func (g State) Shoe() shoe.Shoe {
	return g.shoe
}

func (g State) NumHandCards() int {
	return len(g.hand)
}

func (g State) NumDealerCards() int {
	return len(g.dealer)
}

// IsDealt returns true once the player has two cards and the dealer has an
// upcard.
func (g State) IsDealt() bool {
	return len(g.hand) >= 2 && len(g.dealer) >= 1
}

func (g State) checkDealable() error {
	if g.shoe.Total() < cardsPerDeal {
		return fmt.Errorf("%w: %d cards left", ErrShoeTooSmall, g.shoe.Total())
	}
	if len(g.hand) > 0 || len(g.dealer) > 0 {
		return ErrAlreadyDealt
	}
	return nil
}

// Deal draws two player cards and one dealer upcard, in that order, at
// random from the shoe.
func (g State) Deal(rng shoe.Rand) (State, error) {
	if err := g.checkDealable(); err != nil {
		return g, err
	}
	var drawn [cardsPerDeal]card.Value
	s := g.shoe
	for i := range drawn {
		var err error
		drawn[i], s, err = s.DrawRandom(rng)
		if err != nil {
			return g, fmt.Errorf("deal: %w", err)
		}
	}
	return State{
		hand:   []card.Value{drawn[0], drawn[1]},
		dealer: []card.Value{drawn[2]},
		shoe:   s,
	}, nil
}

// DealCards deals the given cards instead of random ones.
func (g State) DealCards(p1, p2, upcard card.Value) (State, error) {
	if err := g.checkDealable(); err != nil {
		return g, err
	}
	s, err := g.shoe.Remove(p1, p2, upcard)
	if err != nil {
		return g, fmt.Errorf("deal: %w", err)
	}
	return State{
		hand:   []card.Value{p1, p2},
		dealer: []card.Value{upcard},
		shoe:   s,
	}, nil
}

func (g State) checkDrawable() error {
	if !g.IsDealt() {
		return ErrNotDealt
	}
	if g.shoe.Total() < 1 {
		return ErrShoeEmpty
	}
	return nil
}

// Hit draws a random card into the player's hand.
func (g State) Hit(rng shoe.Rand) (State, error) {
	if err := g.checkDrawable(); err != nil {
		return g, fmt.Errorf("hit: %w", err)
	}
	v, s, err := g.shoe.DrawRandom(rng)
	if err != nil {
		return g, fmt.Errorf("hit: %w", err)
	}
	return g.withPlayerCard(v, s), nil
}

// HitCard draws a specific card into the player's hand.
func (g State) HitCard(v card.Value) (State, error) {
	if err := g.checkDrawable(); err != nil {
		return g, fmt.Errorf("hit: %w", err)
	}
	_, s, err := g.shoe.Draw(v)
	if err != nil {
		return g, fmt.Errorf("hit: %w", err)
	}
	return g.withPlayerCard(v, s), nil
}

// DealerHit draws a random card for the dealer.
func (g State) DealerHit(rng shoe.Rand) (State, error) {
	if err := g.checkDrawable(); err != nil {
		return g, fmt.Errorf("dealer hit: %w", err)
	}
	v, s, err := g.shoe.DrawRandom(rng)
	if err != nil {
		return g, fmt.Errorf("dealer hit: %w", err)
	}
	return g.withDealerCard(v, s, false), nil
}

// DealerHitCard draws a specific card for the dealer.
func (g State) DealerHitCard(v card.Value) (State, error) {
	if err := g.checkDrawable(); err != nil {
		return g, fmt.Errorf("dealer hit: %w", err)
	}
	_, s, err := g.shoe.Draw(v)
	if err != nil {
		return g, fmt.Errorf("dealer hit: %w", err)
	}
	return g.withDealerCard(v, s, false), nil
}

// Stay marks the player as done drawing.
func (g State) Stay() State {
	g.hand = slices.Clone(g.hand)
	g.dealer = slices.Clone(g.dealer)
	g.stay = true
	return g
}

// PlayerDraw is the successor in which the player receives a card of value
// v. The new state is never stayed. It is used by the solver, which only
// asks for values with a nonzero count.
func (g State) PlayerDraw(v card.Value) (State, error) {
	_, s, err := g.shoe.Draw(v)
	if err != nil {
		return g, err
	}
	return g.withPlayerCard(v, s), nil
}

// DealerDraw is the successor in which the dealer receives a card of value
// v. The stay flag is carried over.
func (g State) DealerDraw(v card.Value) (State, error) {
	_, s, err := g.shoe.Draw(v)
	if err != nil {
		return g, err
	}
	return g.withDealerCard(v, s, g.stay), nil
}

func (g State) withPlayerCard(v card.Value, s shoe.Shoe) State {
	hand := make([]card.Value, len(g.hand), len(g.hand)+1)
	copy(hand, g.hand)
	return State{
		hand:   append(hand, v),
		dealer: slices.Clone(g.dealer),
		shoe:   s,
	}
}

func (g State) withDealerCard(v card.Value, s shoe.Shoe, stay bool) State {
	dealer := make([]card.Value, len(g.dealer), len(g.dealer)+1)
	copy(dealer, g.dealer)
	return State{
		hand:   slices.Clone(g.hand),
		dealer: append(dealer, v),
		stay:   stay,
		shoe:   s,
	}
}

func (g State) HandValue() int {
	return Value(g.hand)
}

func (g State) DealerValue() int {
	return Value(g.dealer)
}

func (g State) IsHandBust() bool {
	return IsBust(g.hand)
}

func (g State) IsDealerBust() bool {
	return IsBust(g.dealer)
}

func (g State) IsHandBlackjack() bool {
	return IsBlackjack(g.hand)
}

// IsDealerBlackjack looks at the dealer's own card count; a dealer 21 made
// with three or more cards is not a blackjack.
func (g State) IsDealerBlackjack() bool {
	return IsBlackjack(g.dealer)
}

func (g State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hand: [%s] Value: %d Bust: %v\n",
		card.FormatValues(g.hand), g.HandValue(), g.IsHandBust())
	fmt.Fprintf(&sb, "Dealer: [%s] Value: %d Bust: %v\n",
		card.FormatValues(g.dealer), g.DealerValue(), g.IsDealerBust())
	fmt.Fprintf(&sb, "Stay: %v\n", g.stay)
	fmt.Fprintf(&sb, "Shoe: %s", g.shoe)
	return sb.String()
}
