// internal/app/features/stream/client.go
package stream

import (
	"sync"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/realtime"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one websocket connection fed by a realtime subscription.
// readPump only watches for the peer going away; writePump owns all writes.
type client struct {
	conn   *websocket.Conn
	sub    *realtime.Subscription
	log    *zap.Logger
	closed chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.sub.Close()
		_ = c.conn.Close()
	})
}

func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("stream read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	events := c.sub.Events()
	for {
		select {
		case <-c.closed:
			return
		case ev, ok := <-events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
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
