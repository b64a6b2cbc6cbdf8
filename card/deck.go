package card

// Suit and Rank only exist at this layer. Game logic works entirely with
// Values, so suit-distinct but value-equal states collapse into one.

type Suit uint8

const (
	Spades Suit = iota
	Clubs
	Diamonds
	Hearts
)

var suits = [...]Suit{Spades, Clubs, Diamonds, Hearts}

func (s Suit) String() string {
	switch s {
	case Spades:
		return "s"
	case Clubs:
		return "c"
	case Diamonds:
		return "d"
	case Hearts:
		return "h"
	}
	return "?"
}

type Rank uint8

const (
	RankAce Rank = iota + 1
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
)

const ranksPerSuit = 13

func (r Rank) String() string {
	switch r {
	case RankAce:
		return "A"
	case RankTen:
		return "T"
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	}
	if r > RankAce && r < RankTen {
		return string(rune('0' + r))
	}
	return "?"
}

// Value collapses the rank into its blackjack-value bucket.
func (r Rank) Value() Value {
	if r >= RankTen {
		return Ten
	}
	return Value(r - 1)
}

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) Value() Value {
	return c.Rank.Value()
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// StandardDeck returns numDecks full 52-card decks, rank-major.
func StandardDeck(numDecks int) []Card {
	cards := make([]Card, 0, numDecks*ranksPerSuit*len(suits))
	for i := 0; i < numDecks; i++ {
		for r := RankAce; r <= RankKing; r++ {
			for _, s := range suits {
				cards = append(cards, Card{Rank: r, Suit: s})
			}
		}
	}
	return cards
}
