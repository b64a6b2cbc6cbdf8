package game

import "github.com/domino14/bjev/card"

const (
	// BlackjackTotal is the best possible hand total.
	BlackjackTotal = 21
	// DealerStandsOn is the total at which the dealer stops drawing.
	DealerStandsOn = 17

	acePromotion = 10
)

// Value returns the blackjack total of a set of cards. Every card counts its
// hard points; each Ace is then promoted from 1 to 11 if that keeps the
// total at or under 21. Promotion is monotonic, so the order of the cards
// does not matter.
func Value(cards []card.Value) int {
	total := 0
	aces := 0
	for _, c := range cards {
		if c == card.Ace {
			aces++
		}
		total += c.Points()
	}
	for i := 0; i < aces; i++ {
		if total+acePromotion <= BlackjackTotal {
			total += acePromotion
		}
	}
	return total
}

// IsSoft returns true if at least one Ace in the hand is currently counted
// as 11.
func IsSoft(cards []card.Value) bool {
	hard := 0
	hasAce := false
	for _, c := range cards {
		if c == card.Ace {
			hasAce = true
		}
		hard += c.Points()
	}
	return hasAce && hard+acePromotion <= BlackjackTotal
}

// IsBlackjack is a two-card 21.
func IsBlackjack(cards []card.Value) bool {
	return len(cards) == 2 && Value(cards) == BlackjackTotal
}

func IsBust(cards []card.Value) bool {
	return Value(cards) > BlackjackTotal
}
