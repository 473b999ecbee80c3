package websocket

import (
	"github.com/coder/websocket"
)

// Client is one browser connection subscribed to a session's updates.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	session string
}

// Message is a rendered fragment addressed to one session.
type Message struct {
	Session string
	Data    []byte
}
