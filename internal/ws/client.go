package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var ErrRoomFull = errors.New("room is full")

// Client представляет WebSocket соединение участника беседы
type Client struct {
	UserID         uint
	ConversationID uint

	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	isClosed bool
	draining bool
	log      logrus.FieldLogger
}

// NewClient создает нового клиента
func NewClient(ctx context.Context, conn *websocket.Conn, userID, conversationID uint, log logrus.FieldLogger) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		UserID:         userID,
		ConversationID: conversationID,
		ctx:            ctx,
		cancel:         cancel,
		conn:           conn,
		send:           make(chan []byte, maxSendChannelSize),
		log:            log.WithFields(logrus.Fields{"user_id": userID, "conversation_id": conversationID}),
	}
}

// ReadPump читает соединение, пока клиент его не закроет. Поток только
// исходящий, входящие сообщения отбрасываются.
func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("client read error")
			}
			return
		}
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Канал закрыт
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access revoked"))
				return nil
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// SendRaw ставит данные в очередь. Медленный клиент теряет сообщения,
// а не блокирует рассылку.
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed || c.draining {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// CloseAfterFlush закрывает очередь: WritePump допишет уже поставленные
// сообщения и завершит соединение.
func (c *Client) CloseAfterFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed || c.draining {
		return
	}
	c.draining = true
	close(c.send)
}

// Close закрывает соединение немедленно
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	if !c.draining {
		close(c.send)
	}
	c.conn.Close()
}

// IsClosed проверяет, закрыто ли соединение
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
