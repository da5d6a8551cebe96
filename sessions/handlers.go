package sessions

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/log"
)

// handleMessage decodes one inbound message and answers it. Requests
// are processed in arrival order on the read pump, so responses leave
// in the order the ids came in.
func (s *Session) handleMessage(raw []byte) {
	var env struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		s.respondError(0, core.ErrInvalidParameter("message"))
		return
	}
	if env.Type == "" {
		s.respondError(env.ID, core.ErrMissingParameter("type"))
		return
	}
	payload, err := s.dispatch(env.Type, raw)
	if err != nil {
		s.respondError(env.ID, err)
		return
	}
	s.respond(env.ID, env.Type, payload)
}

func (s *Session) dispatch(kind string, raw []byte) (map[string]interface{}, error) {
	switch kind {
	case "work":
		return s.handleWork()
	case "address":
		return s.handleAddress(raw)
	case "stake":
		return s.handleStake(raw)
	case "login":
		return s.handleLogin(raw)
	case "logout":
		return s.handleLogout()
	case "me":
		return s.handleMe()
	case "subscribe":
		return s.handleSubscribe(raw, true)
	case "unsubscribe":
		return s.handleSubscribe(raw, false)
	case "submit_block":
		return s.handleSubmitBlock(raw)
	case "make_transaction":
		return s.handleMakeTransaction(raw)
	}
	return nil, core.ErrInvalidParameter("type")
}

func (s *Session) handleWork() (map[string]interface{}, error) {
	return map[string]interface{}{"work": s.hub.core.CurrentWork()}, nil
}

func (s *Session) handleAddress(raw []byte) (map[string]interface{}, error) {
	var p struct {
		Address    string `json:"address"`
		FetchNames bool   `json:"fetchNames"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, core.ErrInvalidParameter("message")
	}
	if p.Address == "" {
		return nil, core.ErrMissingParameter("address")
	}
	a, err := s.hub.core.GetAddress(p.Address)
	if err != nil {
		return nil, err
	}
	var names *uint64
	if p.FetchNames {
		n, err := s.hub.core.NamesOwned(a.Address)
		if err != nil {
			return nil, err
		}
		names = &n
	}
	return map[string]interface{}{"address": a.View(names)}, nil
}

func (s *Session) handleStake(raw []byte) (map[string]interface{}, error) {
	var p struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, core.ErrInvalidParameter("message")
	}
	if p.Address == "" {
		return nil, core.ErrMissingParameter("address")
	}
	stake, err := s.hub.staking.Get(p.Address)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"stake": stake}, nil
}

func (s *Session) handleLogin(raw []byte) (map[string]interface{}, error) {
	var p struct {
		Privatekey string `json:"privatekey"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, core.ErrInvalidParameter("message")
	}
	a, authed, err := s.hub.core.Authenticate(p.Privatekey, s.meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, core.ErrAuthFailed
	}
	s.setAddress(a.Address)
	log.Debug("Websocket session logged in", "session", s.id, "address", a.Address)
	return map[string]interface{}{"isGuest": false, "address": a.View(nil)}, nil
}

func (s *Session) handleLogout() (map[string]interface{}, error) {
	s.setAddress("")
	return map[string]interface{}{"isGuest": true}, nil
}

func (s *Session) handleMe() (map[string]interface{}, error) {
	addr := s.Address()
	if addr == "" {
		return map[string]interface{}{"isGuest": true}, nil
	}
	a, err := s.hub.core.GetAddress(addr)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"isGuest": false, "address": a.View(nil)}, nil
}

func (s *Session) handleSubscribe(raw []byte, add bool) (map[string]interface{}, error) {
	var p struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, core.ErrInvalidParameter("message")
	}
	if p.Event == "" {
		return nil, core.ErrMissingParameter("event")
	}
	if !validSubscriptions[p.Event] {
		return nil, core.ErrInvalidParameter("event")
	}
	if add {
		s.subs.Add(p.Event)
	} else {
		s.subs.Remove(p.Event)
	}
	return map[string]interface{}{"subscription_level": s.subscriptionLevels()}, nil
}

func (s *Session) handleSubmitBlock(raw []byte) (map[string]interface{}, error) {
	var p struct {
		Address string          `json:"address"`
		Nonce   json.RawMessage `json:"nonce"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, core.ErrInvalidParameter("message")
	}
	nonce, err := parseNonce(p.Nonce)
	if err != nil {
		return nil, err
	}
	block, work, err := s.hub.core.SubmitBlock(p.Address, nonce, s.meta)
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"success": true,
		"work":    work,
		"block":   block.View(),
	}
	if a, err := s.hub.core.GetAddress(block.Address); err == nil {
		payload["address"] = a.View(nil)
	}
	return payload, nil
}

func (s *Session) handleMakeTransaction(raw []byte) (map[string]interface{}, error) {
	var p struct {
		Privatekey string          `json:"privatekey"`
		To         string          `json:"to"`
		Amount     json.RawMessage `json:"amount"`
		Metadata   string          `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, core.ErrInvalidParameter("message")
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	tx, err := s.hub.core.MakeTransaction(p.Privatekey, p.To, amount, p.Metadata, s.meta)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"transaction": tx.View()}, nil
}

// parseNonce accepts a nonce as either a string or an array of byte
// values, the two encodings miners send.
func parseNonce(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s), nil
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err == nil {
		out := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, core.ErrInvalidParameter("nonce")
			}
			out[i] = byte(v)
		}
		return out, nil
	}
	return nil, core.ErrInvalidParameter("nonce")
}

// parseAmount accepts an amount as a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (uint64, error) {
	if len(raw) == 0 {
		return 0, core.ErrMissingParameter("amount")
	}
	v := strings.Trim(string(raw), `"`)
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, core.ErrInvalidParameter("amount")
	}
	return n, nil
}

func (s *Session) respond(id int64, to string, payload map[string]interface{}) {
	msg := map[string]interface{}{
		"ok":            true,
		"id":            id,
		"type":          "response",
		"responding_to": to,
	}
	for k, v := range payload {
		msg[k] = v
	}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error("Failed to encode response", "session", s.id, "err", err)
		return
	}
	s.deliver(b)
}

func (s *Session) respondError(id int64, err error) {
	kind, param := core.ErrServer.Kind, ""
	var cerr *core.Error
	if errors.As(err, &cerr) {
		kind, param = cerr.Kind, cerr.Param
	} else {
		log.Error("Websocket handler failed", "session", s.id, "err", err)
	}
	msg := map[string]interface{}{
		"ok":    false,
		"id":    id,
		"type":  "error",
		"error": kind,
	}
	if param != "" {
		msg["parameter"] = param
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.deliver(b)
}
