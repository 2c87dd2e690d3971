// Package pubsub pushes realtime chat events to connected websocket
// clients. It is the stand-in for the reactive subscription push the
// hosted-platform original relied on: every relevant write re-notifies the
// affected participants.
package pubsub

import (
	"encoding/json"
	"sync"
)

// Event types pushed to clients
const (
	EventMessageNew     = "message.new"
	EventMessageEdited  = "message.edited"
	EventMessageDeleted = "message.deleted"
	EventReaction       = "reaction"
	EventTyping         = "typing"
)

// Event is the envelope written over the wire
type Event struct {
	Type           string          `json:"type"`
	ConversationID uint            `json:"conversation_id"`
	Payload        json.RawMessage `json:"payload"`
}

// NewEvent marshals the payload into an event envelope
func NewEvent(eventType string, conversationID uint, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        data,
	}, nil
}

// Hub tracks connected clients by account
type Hub struct {
	mutex   sync.RWMutex
	clients map[uint]*Client
}

// Constructor method of Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]*Client),
	}
}

// Method to subscribe (join) into the event stream
func (hub *Hub) Subscribe(client *Client) {
	// Lock to prevent race condition
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	hub.clients[client.AccountID] = client
}

// Method to unsubscribe the client and clean up its connection
func (hub *Hub) Unsubscribe(client *Client) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	delete(hub.clients, client.AccountID)
	client.conn.Close()
}

// Online reports whether an account has a connected client
func (hub *Hub) Online(accountID uint) bool {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	_, ok := hub.clients[accountID]
	return ok
}

// OnlineAccounts returns the ids of all connected accounts
func (hub *Hub) OnlineAccounts() []uint {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	ids := make([]uint, 0, len(hub.clients))
	for id := range hub.clients {
		ids = append(ids, id)
	}
	return ids
}

// Push delivers an event to each listed recipient that is currently
// connected. Offline recipients are skipped; they catch up through the
// store on reconnect.
func (hub *Hub) Push(event Event, recipients []uint) (delivered int) {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	for _, id := range recipients {
		client, ok := hub.clients[id]
		if !ok {
			continue
		}
		if err := client.WriteEvent(event); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}
