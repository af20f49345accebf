// Package deck implements the card model for the war-style duel: suits,
// cards, deck construction, shuffling and the 26/26 deal.
package deck

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Suit identifies one of the four card suits.
type Suit int

const (
	Clubs Suit = iota
	Spades
	Diamonds
	Hearts
)

const suitCount = 4

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	default:
		return "unknown"
	}
}

// ParseSuit maps a wire symbol to a Suit.
func ParseSuit(symbol string) (Suit, bool) {
	switch symbol {
	case "clubs":
		return Clubs, true
	case "spades":
		return Spades, true
	case "diamonds":
		return Diamonds, true
	case "hearts":
		return Hearts, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the suit as its lowercase wire symbol.
func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a lowercase wire symbol.
func (s *Suit) UnmarshalJSON(data []byte) error {
	var symbol string
	if err := json.Unmarshal(data, &symbol); err != nil {
		return err
	}
	parsed, ok := ParseSuit(symbol)
	if !ok {
		return fmt.Errorf("unknown suit %q", symbol)
	}
	*s = parsed
	return nil
}

// Card is an immutable card value. The stored Value is 1..13 with the ace
// kept as 1; Rank applies the ace-high normalization for comparisons only.
type Card struct {
	Value int  `json:"value"`
	Suit  Suit `json:"symbol"`
}

// Rank returns the comparison rank of the card: ace (stored 1) compares as
// 14, above the king.
func (c Card) Rank() int {
	if c.Value == 1 {
		return 14
	}
	return c.Value
}

// HandSize is the number of cards each player is dealt.
const HandSize = 26

// New returns the ordered 52-card deck: every suit/value combination once.
func New() []Card {
	cards := make([]Card, 0, suitCount*13)
	for s := Suit(0); s < suitCount; s++ {
		for v := 1; v <= 13; v++ {
			cards = append(cards, Card{Value: v, Suit: s})
		}
	}
	return cards
}

// Shuffle returns a uniformly shuffled copy of the given cards.
func Shuffle(cards []Card, r *rand.Rand) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal shuffles a fresh deck and splits it by alternating assignment: even
// positions go to the first hand, odd to the second. Both hands end up with
// exactly HandSize cards and cannot share a card.
func Deal(r *rand.Rand) (first, second []Card) {
	shuffled := Shuffle(New(), r)
	first = make([]Card, 0, HandSize)
	second = make([]Card, 0, HandSize)
	for i, card := range shuffled {
		if i%2 == 0 {
			first = append(first, card)
		} else {
			second = append(second, card)
		}
	}
	return first, second
}

// Remove deletes the first occurrence of card from hand, preserving order.
// The second return reports whether the card was present.
func Remove(hand []Card, card Card) ([]Card, bool) {
	for i, c := range hand {
		if c == card {
			return append(hand[:i:i], hand[i+1:]...), true
		}
	}
	return hand, false
}

// ContainsSuit reports whether hand holds at least one card of the suit.
func ContainsSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}
