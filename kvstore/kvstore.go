// Package kvstore is the node's fast state: the handful of mutable
// values the ledger consults on every request but never trusts across
// restarts. Everything here is recomputed or reset at boot; durable
// state belongs in the chain database.
package kvstore

import (
	"strconv"
	"sync"
	"time"
)

// Well known keys.
const (
	KeyWork           = "work"
	KeyValidator      = "validator"
	KeyMiningEnabled  = "mining-enabled"
	KeyStakingEnabled = "staking-enabled"
	KeyMOTD           = "motd"
	KeyMOTDDate       = "motd:date"
	KeyGenesisGenned  = "genesis-genned"
	KeyWorkOverTime   = "work-over-time"
	KeyFreeNonce      = "feature:free-nonce"
)

// WorkOverTimeCap bounds the work sample ring to one day of minutely
// samples.
const WorkOverTimeCap = 1440

// Store is a threadsafe string keyed value store with typed accessors
// and capped lists.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	lists  map[string][]string
}

// New returns an empty store. The chain setup seeds the initial values.
func New() *Store {
	return &Store{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

// Get returns the raw value of a key and whether it was set.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a raw value.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// GetUint64 returns a numeric value, zero when unset or malformed.
func (s *Store) GetUint64(key string) uint64 {
	v, ok := s.Get(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SetUint64 stores a numeric value.
func (s *Store) SetUint64(key string, v uint64) {
	s.Set(key, strconv.FormatUint(v, 10))
}

// GetBool returns a flag, false when unset.
func (s *Store) GetBool(key string) bool {
	v, _ := s.Get(key)
	return v == "true"
}

// SetBool stores a flag.
func (s *Store) SetBool(key string, v bool) {
	s.Set(key, strconv.FormatBool(v))
}

// Push appends to a list, trimming the oldest entries beyond cap.
func (s *Store) Push(key, value string, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := append(s.lists[key], value)
	if len(l) > max {
		l = l[len(l)-max:]
	}
	s.lists[key] = l
}

// List returns a copy of a list, oldest first.
func (s *Store) List(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.lists[key]...)
}

// Work returns the current work value.
func (s *Store) Work() uint64 {
	return s.GetUint64(KeyWork)
}

// SetWork stores the current work value.
func (s *Store) SetWork(w uint64) {
	s.SetUint64(KeyWork, w)
}

// Validator returns the currently selected validator address, empty
// when none is selected.
func (s *Store) Validator() string {
	v, _ := s.Get(KeyValidator)
	return v
}

// SetValidator stores the selected validator address.
func (s *Store) SetValidator(addr string) {
	s.Set(KeyValidator, addr)
}

// MiningEnabled reports whether proof-of-work submissions are accepted.
func (s *Store) MiningEnabled() bool {
	return s.GetBool(KeyMiningEnabled)
}

// SetMiningEnabled toggles proof-of-work submissions.
func (s *Store) SetMiningEnabled(v bool) {
	s.SetBool(KeyMiningEnabled, v)
}

// StakingEnabled reports whether the node runs validator rotation.
func (s *Store) StakingEnabled() bool {
	return s.GetBool(KeyStakingEnabled)
}

// SetStakingEnabled toggles validator rotation.
func (s *Store) SetStakingEnabled(v bool) {
	s.SetBool(KeyStakingEnabled, v)
}

// FreeNonce reports whether the work check is bypassed. Development
// only; refused on production nodes at setup time.
func (s *Store) FreeNonce() bool {
	return s.GetBool(KeyFreeNonce)
}

// SetFreeNonce toggles the work check bypass.
func (s *Store) SetFreeNonce(v bool) {
	s.SetBool(KeyFreeNonce, v)
}

// MOTD returns the message of the day and when it was set.
func (s *Store) MOTD() (string, time.Time) {
	msg, _ := s.Get(KeyMOTD)
	var when time.Time
	if raw, ok := s.Get(KeyMOTDDate); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			when = time.UnixMilli(ms).UTC()
		}
	}
	return msg, when
}

// SetMOTD stores the message of the day, stamping it with now.
func (s *Store) SetMOTD(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyMOTD] = msg
	s.values[KeyMOTDDate] = strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// PushWorkSample records a work sample for the day graph.
func (s *Store) PushWorkSample(w uint64) {
	s.Push(KeyWorkOverTime, strconv.FormatUint(w, 10), WorkOverTimeCap)
}

// WorkOverTime returns the sampled work values, oldest first.
func (s *Store) WorkOverTime() []uint64 {
	raw := s.List(KeyWorkOverTime)
	out := make([]uint64, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
