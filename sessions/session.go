package sessions

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/log"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// side gives up on it. Pings go out at pingPeriod to keep compliant
	// clients answering well inside that window.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// keepaliveInterval is how often the server pushes a keepalive
	// message so clients can detect a stalled connection themselves.
	keepaliveInterval = 10 * time.Second

	// maxMessageSize bounds inbound messages. The largest legitimate
	// message is a transaction with full metadata, well under this.
	maxMessageSize = 4096

	// sendQueueSize bounds the per session outbound queue. Events past
	// it are dropped rather than stalling the broadcaster.
	sendQueueSize = 256
)

// Subscription levels a session can route events on.
const (
	SubBlocks          = "blocks"
	SubTransactions    = "transactions"
	SubNames           = "names"
	SubOwnTransactions = "ownTransactions"
	SubStake           = "stake"
	SubValidator       = "validator"
)

var validSubscriptions = map[string]bool{
	SubBlocks:          true,
	SubTransactions:    true,
	SubNames:           true,
	SubOwnTransactions: true,
	SubStake:           true,
	SubValidator:       true,
}

// DefaultSubscriptions is what every session starts out with.
var DefaultSubscriptions = []string{SubOwnTransactions, SubBlocks}

// Session is one live websocket connection. The read pump handles
// requests in arrival order; the write pump owns the connection for
// writes, draining the send queue and emitting keepalives.
type Session struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	meta core.RequestMeta

	send chan []byte
	quit chan struct{}
	once sync.Once

	mu      sync.RWMutex
	address string

	subs mapset.Set
}

func newSession(hub *Hub, conn *websocket.Conn, address string, meta core.RequestMeta) *Session {
	s := &Session{
		id:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		meta:    meta,
		send:    make(chan []byte, sendQueueSize),
		quit:    make(chan struct{}),
		address: address,
		subs:    mapset.NewSet(),
	}
	for _, level := range DefaultSubscriptions {
		s.subs.Add(level)
	}
	return s
}

// Address returns the address the session is authenticated as, empty
// for guests.
func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

func (s *Session) setAddress(addr string) {
	s.mu.Lock()
	s.address = addr
	s.mu.Unlock()
}

func (s *Session) subscribed(level string) bool {
	return s.subs.Contains(level)
}

func (s *Session) subscriptionLevels() []string {
	raw := s.subs.ToSlice()
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out
}

// deliver queues a message without blocking. A session that cannot
// keep up loses messages, not the node.
func (s *Session) deliver(msg []byte) {
	select {
	case s.send <- msg:
	case <-s.quit:
	default:
		log.Warn("Dropping websocket message", "session", s.id, "queued", len(s.send))
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.quit)
		s.conn.Close()
		log.Debug("Websocket session closed", "session", s.id)
	})
}

func (s *Session) readPump() {
	defer s.close()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Websocket read failed", "session", s.id, "err", err)
			}
			return
		}
		s.handleMessage(raw)
	}
}

func (s *Session) writePump() {
	keepalive := time.NewTicker(keepaliveInterval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		ping.Stop()
		s.close()
	}()
	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-keepalive.C:
			msg, err := json.Marshal(map[string]interface{}{
				"type":        "keepalive",
				"server_time": s.hub.core.Now(),
			})
			if err != nil {
				continue
			}
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.quit:
			return
		}
	}
}

func (s *Session) write(messageType int, msg []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, msg)
}
