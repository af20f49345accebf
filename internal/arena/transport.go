package arena

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/skirmish.cards/internal/deck"
	"github.com/louisbranch/skirmish.cards/internal/platform/timeouts"
)

// handshakePayload is the first frame of every connection. There is no
// re-authentication: a failed handshake closes the socket.
type handshakePayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// clientRequest is every subsequent inbound frame, discriminated by id.
type clientRequest struct {
	ID         string `json:"id"`
	CardSymbol string `json:"cardsymbol"`
	CardValue  int    `json:"cardvalue"`
}

// newHandler builds the arena routes: the websocket endpoint plus the
// identity HTTP surface when one is provided.
func newHandler(engine *Engine, identity Identity, identityRoutes http.Handler) http.Handler {
	mux := http.NewServeMux()
	if identityRoutes != nil {
		mux.Handle("/", identityRoutes)
	}

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleConn(conn, engine, identity)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
	return mux
}

// handleConn runs one connection: handshake, then the inbound request loop.
// The outbound side is a forwarder goroutine draining the player's outbox.
func handleConn(conn *websocket.Conn, engine *Engine, identity Identity) {
	defer func() {
		_ = conn.Close()
	}()

	raw, err := receiveFrame(conn)
	if err != nil {
		log.Printf("arena: handshake receive: %v", err)
		return
	}
	var handshake handshakePayload
	if err := json.Unmarshal(raw, &handshake); err != nil {
		log.Printf("arena: invalid handshake frame: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Handshake)
	u, err := identity.Authenticate(ctx, handshake.Username, handshake.Password)
	cancel()
	if err != nil {
		log.Printf("arena: authentication failed for %q: %v", handshake.Username, err)
		return
	}

	out := newOutbox()
	go forward(conn, out, u.Username)
	defer func() {
		engine.Leave(u.Username)
		out.close()
	}()

	for {
		raw, err := receiveFrame(conn)
		if err != nil {
			// Transport-level receive failure ends the connection.
			return
		}

		var req clientRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			// Frame-local: a malformed body never kills the connection.
			log.Printf("arena: frame parse error (username: %s): %v", u.Username, err)
			continue
		}

		switch req.ID {
		case "findmatch":
			engine.FindMatch(u.Username, out)
		case "turncard":
			card, ok := parseCard(req)
			if !ok {
				log.Printf("arena: malformed turncard from %s: value=%d symbol=%q", u.Username, req.CardValue, req.CardSymbol)
				continue
			}
			engine.TurnCard(u.Username, card)
		default:
			log.Printf("arena: unknown request id %q from %s", req.ID, u.Username)
		}
	}
}

// receiveFrame reads one text frame off the wire.
func receiveFrame(conn *websocket.Conn) ([]byte, error) {
	var frame string
	if err := websocket.Message.Receive(conn, &frame); err != nil {
		return nil, err
	}
	return []byte(frame), nil
}

// parseCard validates the turncard payload against the card model.
func parseCard(req clientRequest) (deck.Card, bool) {
	suit, ok := deck.ParseSuit(req.CardSymbol)
	if !ok {
		return deck.Card{}, false
	}
	if req.CardValue < 1 || req.CardValue > 13 {
		return deck.Card{}, false
	}
	return deck.Card{Value: req.CardValue, Suit: suit}, true
}

// forward drains the outbox to the wire, preserving enqueue order. A send
// failure is connection-fatal: the conn is closed so the read loop ends too.
func forward(conn *websocket.Conn, out *outbox, username string) {
	for {
		msg, ok := out.next()
		if !ok {
			return
		}
		if err := websocket.Message.Send(conn, string(msg)); err != nil {
			log.Printf("arena: websocket send error (username: %s): %v", username, err)
			_ = conn.Close()
			return
		}
	}
}
