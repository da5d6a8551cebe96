package core

import (
	"github.com/tenebra-network/gtenebra/types"
)

// EventKind labels the categories the session layer routes on.
type EventKind string

const (
	EventBlock       EventKind = "block"
	EventTransaction EventKind = "transaction"
	EventName        EventKind = "name"
	EventStake       EventKind = "stake"
	EventValidator   EventKind = "validator"
)

// Event is a post-commit notification. Exactly the field matching Kind
// is populated; NewWork rides along on block events.
type Event struct {
	Kind        EventKind
	Block       *types.Block
	NewWork     uint64
	Transaction *types.Transaction
	Name        *types.Name
	Stake       *types.Stake
	Validator   string
}

// Broadcaster fans events out to subscribed sessions. Engines only see
// this interface; the websocket hub implements it. Delivery must never
// block the caller.
type Broadcaster interface {
	Broadcast(ev Event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(Event) {}

// NopBroadcaster discards every event. It is the default until the node
// wires the session hub in.
var NopBroadcaster Broadcaster = nopBroadcaster{}
