package arena

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/skirmish.cards/internal/auth/user"
	"github.com/louisbranch/skirmish.cards/internal/deck"
	"github.com/louisbranch/skirmish.cards/internal/platform/random"
	"github.com/louisbranch/skirmish.cards/internal/platform/timeouts"
)

// RatingDelta is the flat rating adjustment applied to both players when a
// game ends: winner up, loser down.
const RatingDelta = 15

// Identity is the external collaborator the arena needs: credential checks,
// public profile lookups and rating adjustments. Failures are recoverable;
// the engine logs and moves on.
type Identity interface {
	Authenticate(ctx context.Context, username, password string) (user.User, error)
	Lookup(ctx context.Context, username string) (user.User, error)
	AdjustRating(ctx context.Context, username string, delta int) error
}

// participant is one side of a live session.
type participant struct {
	name string
	out  *outbox
	hand []deck.Card
}

// session is a live two-player game. Fields are owned by the engine
// goroutine; nothing outside the run loop may touch them.
//
// The state machine is implicit in pending: a nil pending means the turn
// holder may reveal freely (awaiting reveal); a non-nil pending means the
// turn holder is forced to answer the recorded card (awaiting response).
type session struct {
	id        string
	a, b      *participant
	turn      string
	pending   *deck.Card
	startedAt time.Time
}

func (s *session) player(name string) *participant {
	if s.a.name == name {
		return s.a
	}
	return s.b
}

func (s *session) opponent(name string) *participant {
	if s.a.name == name {
		return s.b
	}
	return s.a
}

// waiting is the single pending-match slot.
type waiting struct {
	name string
	out  *outbox
}

// Engine owns the pending-match slot and the session registry. All game
// state is confined to the run loop: connection goroutines submit closures
// over the ops channel, which serializes every mutation without a shared
// lock.
type Engine struct {
	identity Identity
	rng      *rand.Rand
	ops      chan func()
	done     chan struct{}

	// Owned by the run loop.
	ctx      context.Context
	pending  *waiting
	sessions map[string]*session
}

// NewEngine builds an engine around the identity collaborator. The deal and
// coin-flip randomness is crypto-seeded unless overridden with WithSeed.
func NewEngine(identity Identity, opts ...Option) *Engine {
	e := &Engine{
		identity: identity,
		ops:      make(chan func()),
		done:     make(chan struct{}),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed, err := random.NewSeed()
		if err != nil {
			log.Printf("arena: crypto seed unavailable, falling back to clock: %v", err)
			seed = time.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed))
	}
	return e
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithSeed pins the engine's randomness, making deals and coin flips
// reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// Run processes commands until the context ends. It must be called exactly
// once.
func (e *Engine) Run(ctx context.Context) {
	e.ctx = ctx
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-e.ops:
			op()
		}
	}
}

// do submits an operation to the run loop, dropping it if the engine has
// stopped.
func (e *Engine) do(op func()) {
	select {
	case e.ops <- op:
	case <-e.done:
	}
}

// FindMatch registers the player for pairing: first arrival parks in the
// pending slot, second arrival starts a game.
func (e *Engine) FindMatch(name string, out *outbox) {
	e.do(func() { e.findMatch(name, out) })
}

// TurnCard submits a reveal for resolution.
func (e *Engine) TurnCard(name string, card deck.Card) {
	e.do(func() { e.turnCard(name, card) })
}

// Leave reports a closed connection so the engine can clear the pending slot
// or force-terminate the player's session.
func (e *Engine) Leave(name string) {
	e.do(func() { e.leave(name) })
}

func (e *Engine) findMatch(name string, out *outbox) {
	if _, live := e.sessions[name]; live {
		log.Printf("arena: %s requested a match while already in a game", name)
		return
	}
	if e.pending != nil && e.pending.name == name {
		log.Printf("arena: %s requested a match while already waiting", name)
		return
	}

	if e.pending == nil {
		e.pending = &waiting{name: name, out: out}
		return
	}

	opponent := e.pending
	e.pending = nil
	e.startSession(opponent, &waiting{name: name, out: out})
}

// startSession deals a fresh deck, flips for first turn, registers the
// session and notifies both players.
func (e *Engine) startSession(first, second *waiting) {
	handA, handB := deck.Deal(e.rng)
	turn := first.name
	if e.rng.Intn(2) == 1 {
		turn = second.name
	}

	sess := &session{
		id:        uuid.NewString(),
		a:         &participant{name: first.name, out: first.out, hand: handA},
		b:         &participant{name: second.name, out: second.out, hand: handB},
		turn:      turn,
		startedAt: time.Now(),
	}
	e.sessions[first.name] = sess
	e.sessions[second.name] = sess

	notifyGameStart(sess.a.out, sess.a.hand, sess.b.name, e.lookupRating(sess.b.name))
	notifyGameStart(sess.b.out, sess.b.hand, sess.a.name, e.lookupRating(sess.a.name))
	notifyTurn(sess.a.out, sess.turn)
	notifyTurn(sess.b.out, sess.turn)

	log.Printf("arena: session %s started: %s vs %s, first turn %s", sess.id, sess.a.name, sess.b.name, sess.turn)
}

// lookupRating fetches the public rating for the game start message. A
// collaborator hiccup is not fatal to pairing; the rating just reads 0.
func (e *Engine) lookupRating(name string) int {
	ctx, cancel := context.WithTimeout(e.ctx, timeouts.Identity)
	defer cancel()
	u, err := e.identity.Lookup(ctx, name)
	if err != nil {
		log.Printf("arena: rating lookup for %s: %v", name, err)
		return 0
	}
	return u.Rating
}

// turnCard runs one transition of the session state machine.
func (e *Engine) turnCard(name string, card deck.Card) {
	sess, ok := e.sessions[name]
	if !ok {
		log.Printf("arena: %s revealed a card with no active session", name)
		return
	}
	if sess.turn != name {
		log.Printf("arena: %s revealed out of turn in session %s", name, sess.id)
		return
	}

	actor := sess.player(name)
	remaining, owned := deck.Remove(actor.hand, card)
	if !owned {
		log.Printf("arena: %s revealed %d of %s without holding it", name, card.Value, card.Suit)
		return
	}
	actor.hand = remaining

	opponent := sess.opponent(name)
	if prev := sess.pending; prev != nil {
		// Response round: the bet resolves now, win or lose.
		sess.pending = nil
		if card.Rank() < prev.Rank() {
			sess.turn = opponent.name
		}
	} else if deck.ContainsSuit(opponent.hand, card.Suit) {
		// The opponent can answer the suit, so the reveal becomes a bet.
		sess.turn = opponent.name
		pending := card
		sess.pending = &pending
	}

	notifyTurnedCard(opponent.out, sess.pending)

	if len(sess.a.hand) == 0 || len(sess.b.hand) == 0 {
		e.endSession(sess)
		return
	}

	notifyTurn(sess.a.out, sess.turn)
	notifyTurn(sess.b.out, sess.turn)
}

// endSession settles ratings, announces the winner to both players and drops
// the session from the registry.
func (e *Engine) endSession(sess *session) {
	winner := sess.turn
	loser := sess.opponent(winner).name

	e.adjustRating(winner, RatingDelta)
	e.adjustRating(loser, -RatingDelta)

	notifyGameEnd(sess.a.out, winner)
	notifyGameEnd(sess.b.out, winner)

	delete(e.sessions, sess.a.name)
	delete(e.sessions, sess.b.name)

	log.Printf("arena: session %s ended after %s, winner %s", sess.id, time.Since(sess.startedAt).Round(time.Millisecond), winner)
}

func (e *Engine) adjustRating(name string, delta int) {
	ctx, cancel := context.WithTimeout(e.ctx, timeouts.Identity)
	defer cancel()
	if err := e.identity.AdjustRating(ctx, name, delta); err != nil {
		log.Printf("arena: adjust rating for %s by %+d: %v", name, delta, err)
	}
}

// leave clears the pending slot or force-terminates the session the player
// abandoned, so the opponent is not left waiting on a turn that will never
// come.
func (e *Engine) leave(name string) {
	if e.pending != nil && e.pending.name == name {
		e.pending = nil
		return
	}

	sess, ok := e.sessions[name]
	if !ok {
		return
	}

	survivor := sess.opponent(name)
	e.adjustRating(survivor.name, RatingDelta)
	e.adjustRating(name, -RatingDelta)
	notifyGameEnd(survivor.out, survivor.name)

	delete(e.sessions, sess.a.name)
	delete(e.sessions, sess.b.name)

	log.Printf("arena: session %s forfeited by %s, winner %s", sess.id, name, survivor.name)
}
