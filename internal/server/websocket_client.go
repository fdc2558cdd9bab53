package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBadRequest = errors.New("server: malformed solve request")

// WebSocketClient wraps a websocket connection carrying JSON solve traffic.
type WebSocketClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// NewWebSocketClient creates a new WebSocketClient from a websocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadRequest blocks until the client sends a solve request.
// Blank messages are skipped.
func (c *WebSocketClient) ReadRequest() (*SolveRequest, error) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		message = bytes.TrimSpace(message)
		if len(message) == 0 {
			continue
		}

		var req SolveRequest
		if err := json.Unmarshal(message, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return &req, nil
	}
}

// WriteJSON sends v as one text message.
func (c *WebSocketClient) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// WriteError sends an error message.
func (c *WebSocketClient) WriteError(err error) error {
	return c.WriteJSON(ErrorMessage{Type: MessageError, Error: err.Error()})
}

// Close closes the websocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
