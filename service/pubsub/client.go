package pubsub

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client holds an account ID and its websocket connection
type Client struct {
	AccountID uint
	conn      *websocket.Conn
	mu        sync.Mutex
}

// Constructor method for Client struct
func NewClient(accountID uint, conn *websocket.Conn) *Client {
	return &Client{
		AccountID: accountID,
		conn:      conn,
	}
}

// WriteEvent pushes one event over the websocket connection. Writes are
// serialized because both the worker and the handlers may push to the same
// client.
func (client *Client) WriteEvent(event Event) error {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.conn.WriteJSON(event)
}
