package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. The gameID/playerName binding is set
// on a successful join and cleared on kick, and is only touched while the
// registry lock is held.
type Client struct {
	conn       *websocket.Conn
	send       chan Message
	gameID     string
	playerName string
	closed     bool
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan Message, 16),
	}
}

// trySend enqueues msg for the write pump without blocking. A client whose
// buffer is full is dropped rather than allowed to stall a handler. Must be
// called with the registry lock held.
func (c *Client) trySend(msg Message) {
	if c.closed {
		return
	}

	select {
	case c.send <- msg:
	default:
		c.dropLocked()
	}
}

// dropLocked closes the outbound channel, which ends the write pump and with
// it the connection. Must be called with the registry lock held.
func (c *Client) dropLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// closeWithCode sends a close frame carrying a protocol close code, then
// closes the connection. Safe to call without the registry lock; gorilla
// allows WriteControl concurrently with the write pump.
func (c *Client) closeWithCode(code int, reason string) {
	if c.conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = c.conn.Close()
}

// rejectLocked is the join-rejection path: a distinguishing close code and
// no further messages. Must be called with the registry lock held.
func (c *Client) rejectLocked(code int) {
	c.dropLocked()
	c.closeWithCode(code, closeReasons[code])
}

func (c *Client) readPump(reg *Registry) {
	defer func() {
		reg.disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		reg.dispatch(c, raw)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := newClient(conn)

		go client.writePump()
		client.readPump(reg)
	}
}

// registerGame sets up the realtime endpoint and the QR share route. Session
// creation happens in-band through the join action, not through routing.
func registerGame(cfg *Config, mux *httprouter.Router) {
	reg := newRegistry(cfg)

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, reg))
	mux.GET(cfg.prefix+"/qr/:gameid", qrHandler(cfg))
}
