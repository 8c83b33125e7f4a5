// Package stream publishes simulation frames to browsers over websockets.
package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 2 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 4 * pingPeriod
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// errDisconnected ends a client's sync when the peer goes away cleanly.
var errDisconnected = errors.New("client disconnected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// A client only ever holds the newest frame; older undelivered frames are
// dropped because each frame fully describes the grid.
type client struct {
	conn   *websocket.Conn
	frames chan []byte
}

// Hub fans encoded frames out to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	logger  *log.Logger
}

// NewHub returns an empty hub logging to logger, or log.Default when nil.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues frame for every client, replacing any frame a slow client
// has not consumed yet. The frame must not be modified afterwards.
func (h *Hub) Publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.frames <- frame:
			continue
		default:
		}
		select {
		case <-c.frames:
		default:
		}
		select {
		case c.frames <- frame:
		default:
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.conn.Close()
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// ServeHTTP upgrades the request to a websocket and streams frames until the
// peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("stream: upgrade: %v", err)
		return
	}

	c := &client{conn: conn, frames: make(chan []byte, 1)}
	if !h.add(c) {
		conn.Close()
		return
	}
	defer h.remove(c)

	if err := c.sync(r.Context()); err != nil {
		h.logger.Printf("stream: client %s: %v", conn.RemoteAddr(), err)
	}
}

// sync runs the reader and writer of one client until either fails.
func (c *client) sync(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.readMessages()
	})
	group.Go(func() error {
		defer c.conn.Close()
		return c.publish(groupCtx)
	})
	if err := group.Wait(); !errors.Is(err, errDisconnected) {
		return err
	}
	return nil
}

// readMessages drains the peer so control frames are processed. The viewer
// never sends anything meaningful. It never returns nil, so that the
// publisher stops with it.
func (c *client) readMessages() error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if isError(err) {
				return err
			}
			return errDisconnected
		}
	}
}

// publish is the only writer on the connection.
func (c *client) publish(ctx context.Context) error {
	pinger := channerics.NewTicker(ctx.Done(), pingPeriod)
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case <-pinger:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return ignoreClosure(err)
			}
		case frame := <-c.frames:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return ignoreClosure(err)
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return ignoreClosure(err)
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func ignoreClosure(err error) error {
	if errors.Is(err, websocket.ErrCloseSent) || !isError(err) {
		return nil
	}
	return err
}
