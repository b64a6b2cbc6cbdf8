package statekey

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/shoe"
)

func TestKeyFormat(t *testing.T) {
	is := is.New(t)
	g, err := game.NewStandard(1).DealCards(card.Nine, card.Ace, card.Five)
	is.NoErr(err)
	is.Equal(Key(g), "[c=49cbji=[3-4-4-4-3-4-4-4-3-16]h=[0-8]d=[4]s=false]")
	is.Equal(Key(g.Stay()), "[c=49cbji=[3-4-4-4-3-4-4-4-3-16]h=[0-8]d=[4]s=true]")
	is.Equal(Key(game.NewEmpty()), "[c=0cbji=[0-0-0-0-0-0-0-0-0-0]h=[]d=[]s=false]")
}

func TestKeyIgnoresDrawOrder(t *testing.T) {
	is := is.New(t)
	s := shoe.NewStandard(2)
	a := game.NewState(
		[]card.Value{card.Two, card.Ten, card.Three},
		[]card.Value{card.Six, card.Ace}, true, s)
	b := game.NewState(
		[]card.Value{card.Three, card.Two, card.Ten},
		[]card.Value{card.Ace, card.Six}, true, s)
	is.Equal(Key(a), Key(b))

	// the sort must not reorder the state's own cards
	is.Equal(a.Hand(), []card.Value{card.Two, card.Ten, card.Three})
}

func TestKeyDistinguishesStates(t *testing.T) {
	is := is.New(t)
	s := shoe.NewStandard(1)
	s2, err := s.Remove(card.Ten)
	is.NoErr(err)
	base := game.NewState([]card.Value{card.Two, card.Three}, []card.Value{card.Six}, false, s)
	variants := []game.State{
		base.Stay(),
		game.NewState([]card.Value{card.Two, card.Four}, []card.Value{card.Six}, false, s),
		game.NewState([]card.Value{card.Two, card.Three}, []card.Value{card.Seven}, false, s),
		game.NewState([]card.Value{card.Two, card.Three}, []card.Value{card.Six}, false, s2),
		// moving a card from the hand to the dealer must change the key
		game.NewState([]card.Value{card.Two}, []card.Value{card.Three, card.Six}, false, s),
	}
	seen := map[string]bool{Key(base): true}
	for _, v := range variants {
		k := Key(v)
		is.True(!seen[k])
		seen[k] = true
	}
}

func TestParseRoundTrip(t *testing.T) {
	is := is.New(t)
	g, err := game.NewStandard(1).DealCards(card.Ten, card.Ace, card.Ten)
	is.NoErr(err)
	g, err = g.Stay().DealerHitCard(card.Five)
	is.NoErr(err)
	f, err := Parse(Key(g))
	is.NoErr(err)
	is.Equal(f.Total, 48)
	is.Equal(f.Composition, g.Shoe().Composition())
	is.Equal(f.Hand, []card.Value{card.Ace, card.Ten})
	is.Equal(f.Dealer, []card.Value{card.Five, card.Ten})
	is.Equal(f.Stay, false)
}

func TestParseMalformed(t *testing.T) {
	is := is.New(t)
	bad := []string{
		"",
		"[c=1cbji=[1]h=[]d=[]s=false]",
		"[c=2cbji=[1-0-0-0-0-0-0-0-0-0]h=[]d=[]s=false]",
		"[c=1cbji=[1-0-0-0-0-0-0-0-0-0]h=[12]d=[]s=false]",
		"[c=1cbji=[1-0-0-0-0-0-0-0-0-0]h=[]d=[]s=maybe]",
	}
	for _, k := range bad {
		_, err := Parse(k)
		is.True(errors.Is(err, ErrMalformedKey))
	}
}
