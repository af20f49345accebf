package arena

import (
	"encoding/json"
	"log"

	"github.com/louisbranch/skirmish.cards/internal/deck"
)

// Outbound message kinds, discriminated by the "id" field.
const (
	msgGameStart  = "gamestart"
	msgTurn       = "turnnotif"
	msgTurnedCard = "turnedcardnotif"
	msgGameEnd    = "gameend"
)

type gameStartMessage struct {
	ID           string      `json:"id"`
	Cards        []deck.Card `json:"cards"`
	OpponentElo  int         `json:"opponent_elo"`
	OpponentName string      `json:"opponent_name"`
}

type turnMessage struct {
	ID   string `json:"id"`
	Turn string `json:"turn"`
}

type turnedCardMessage struct {
	ID     string `json:"id"`
	Value  int    `json:"value"`
	Symbol string `json:"symbol"`
}

type gameEndMessage struct {
	ID     string `json:"id"`
	Winner string `json:"winner"`
}

// notifyGameStart delivers the dealt hand plus the opponent's public profile.
func notifyGameStart(out *outbox, hand []deck.Card, opponentName string, opponentRating int) {
	send(out, gameStartMessage{
		ID:           msgGameStart,
		Cards:        hand,
		OpponentElo:  opponentRating,
		OpponentName: opponentName,
	})
}

// notifyTurn names the player currently allowed to reveal.
func notifyTurn(out *outbox, turn string) {
	send(out, turnMessage{ID: msgTurn, Turn: turn})
}

// notifyTurnedCard tells the non-acting player what was revealed. A nil card
// means no bet is pending and the payload is the empty sentinel.
func notifyTurnedCard(out *outbox, card *deck.Card) {
	msg := turnedCardMessage{ID: msgTurnedCard}
	if card != nil {
		msg.Value = card.Value
		msg.Symbol = card.Suit.String()
	}
	send(out, msg)
}

// notifyGameEnd names the winner to a player.
func notifyGameEnd(out *outbox, winner string) {
	send(out, gameEndMessage{ID: msgGameEnd, Winner: winner})
}

// send marshals and enqueues; dispatch never blocks beyond the enqueue.
func send(out *outbox, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("arena: marshal outbound message: %v", err)
		return
	}
	out.enqueue(b)
}
