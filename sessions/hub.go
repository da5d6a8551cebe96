// Package sessions is the websocket side of the node: a hub of live
// connections fed by the ledger's event bus. Clients obtain a single
// use gateway token over HTTP, upgrade on the gateway URL and then
// speak a small request/response protocol while subscribed event
// streams are pushed at them.
package sessions

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/staking"
)

// Hub tracks every live session and fans ledger events out to them.
// It implements core.Broadcaster; delivery to any single session is
// non blocking so a slow client never backs up the writer that mined
// a block.
type Hub struct {
	core    *core.Core
	staking *staking.Engine
	issuer  *TokenIssuer

	publicURL string

	mu       sync.RWMutex
	sessions map[*Session]struct{}

	// pending holds issued but unredeemed token ids with their expiry.
	// Redeeming deletes the id, making every token single use.
	pendingMu sync.Mutex
	pending   map[string]time.Time

	upgrader websocket.Upgrader
}

// NewHub returns a hub signing gateway tokens with a fresh random
// secret, so tokens never survive a restart. publicURL is the host
// clients are told to connect back to.
func NewHub(c *core.Core, st *staking.Engine, publicURL string) (*Hub, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return &Hub{
		core:      c,
		staking:   st,
		issuer:    NewTokenIssuer(secret, tokenTTL, c.Now),
		publicURL: publicURL,
		sessions:  make(map[*Session]struct{}),
		pending:   make(map[string]time.Time),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers are the main consumers and the API is public, so
			// any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// StartSession issues a gateway URL. With a privatekey the session is
// bound to the derived address; without one it starts as a guest.
// Returns the URL and the token lifetime in seconds.
func (h *Hub) StartSession(privatekey string, meta core.RequestMeta) (string, int, error) {
	address := ""
	if privatekey != "" {
		a, authed, err := h.core.Authenticate(privatekey, meta)
		if err != nil {
			return "", 0, err
		}
		if !authed {
			return "", 0, core.ErrAuthFailed
		}
		address = a.Address
	}
	token, id, expires, err := h.issuer.Issue(address)
	if err != nil {
		return "", 0, err
	}

	h.pendingMu.Lock()
	now := h.core.Now()
	for old, exp := range h.pending {
		if now.After(exp) {
			delete(h.pending, old)
		}
	}
	h.pending[id] = expires
	h.pendingMu.Unlock()

	return h.gatewayURL(token), int(tokenTTL.Seconds()), nil
}

// consume redeems a token id. Only the first redemption succeeds.
func (h *Hub) consume(id string) bool {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	_, ok := h.pending[id]
	delete(h.pending, id)
	return ok
}

// ServeGateway upgrades a gateway request into a live session. The
// returned error is non nil only when the token was rejected before
// the upgrade, so the HTTP layer can still answer with the usual
// error envelope.
func (h *Hub) ServeGateway(w http.ResponseWriter, r *http.Request, token string, meta core.RequestMeta) error {
	claims, err := h.issuer.Verify(token)
	if err != nil {
		return core.ErrInvalidToken
	}
	if !h.consume(claims.ID) {
		return core.ErrInvalidToken
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request.
		log.Debug("Websocket upgrade failed", "ip", meta.IP, "err", err)
		return nil
	}

	s := newSession(h, conn, claims.Subject, meta)
	s.deliver(h.helloMessage())
	h.add(s)
	log.Debug("Websocket session opened", "session", s.id, "guest", s.Address() == "", "ip", meta.IP)

	go s.writePump()
	go s.readPump()
	return nil
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast routes a ledger event to every session subscribed to its
// category. The payload is encoded once and shared.
func (h *Hub) Broadcast(ev core.Event) {
	msg, err := encodeEvent(ev)
	if err != nil {
		log.Error("Failed to encode event", "kind", ev.Kind, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if wantsEvent(s, ev) {
			s.deliver(msg)
		}
	}
}

// wantsEvent applies the session's subscription set to an event. A
// transaction goes out once even when both the transactions and the
// ownTransactions levels match it.
func wantsEvent(s *Session, ev core.Event) bool {
	switch ev.Kind {
	case core.EventBlock:
		return s.subscribed(SubBlocks)
	case core.EventTransaction:
		if s.subscribed(SubTransactions) {
			return true
		}
		if !s.subscribed(SubOwnTransactions) {
			return false
		}
		addr := s.Address()
		return addr != "" && (ev.Transaction.From == addr || ev.Transaction.To == addr)
	case core.EventName:
		return s.subscribed(SubNames)
	case core.EventStake:
		return s.subscribed(SubStake)
	case core.EventValidator:
		return s.subscribed(SubValidator)
	}
	return false
}

func encodeEvent(ev core.Event) ([]byte, error) {
	payload := map[string]interface{}{
		"type":  "event",
		"event": string(ev.Kind),
	}
	switch ev.Kind {
	case core.EventBlock:
		payload["block"] = ev.Block.View()
		payload["new_work"] = ev.NewWork
	case core.EventTransaction:
		payload["transaction"] = ev.Transaction.View()
	case core.EventName:
		payload["name"] = ev.Name.View()
	case core.EventStake:
		payload["stake"] = ev.Stake
	case core.EventValidator:
		payload["validator"] = ev.Validator
	}
	return json.Marshal(payload)
}

func (h *Hub) helloMessage() []byte {
	payload := MOTD(h.core, h.publicURL, h.core.Now())
	payload["ok"] = true
	payload["type"] = "hello"
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to encode hello message", "err", err)
		return []byte(`{"ok":true,"type":"hello"}`)
	}
	return msg
}

// gatewayURL turns the configured public URL into the websocket URL
// carrying the token. Plain http hosts get ws, everything else wss.
func (h *Hub) gatewayURL(token string) string {
	base := h.publicURL
	switch {
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case !strings.Contains(base, "://"):
		base = "wss://" + base
	}
	return strings.TrimSuffix(base, "/") + "/ws/gateway/" + token
}
