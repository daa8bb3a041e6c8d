package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one live connection of a user
type Client struct {
	UserID uint

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient builds a client for conn. It is not joined yet.
func (h *Hub) NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
	}
}

// ServeWS upgrades the request, joins the connection for userID and
// starts its pumps. The connection leaves the hub when it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := h.NewClient(userID, conn)
	h.Join(c)

	go c.writePump()
	go c.readPump()
	return nil
}

// readPump only watches for disconnects and pongs; clients do not send
// anything meaningful upstream
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("connection closed unexpectedly", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// a failed write is a stale connection; readPump will notice and leave
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
