package web

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/panel-power/internal/status"
)

const (
	writeWait = 5 * time.Second

	// pongWait must exceed pingPeriod.
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamer pushes compact status frames to websocket clients on a fixed interval.
type streamer struct {
	tracker  *status.Tracker
	interval time.Duration

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	done    chan struct{}
}

type wsClient struct {
	conn       *websocket.Conn
	remoteAddr string
	gone       chan struct{}
}

func newStreamer(tracker *status.Tracker, interval time.Duration) *streamer {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &streamer{
		tracker:  tracker,
		interval: interval,
		clients:  make(map[*wsClient]struct{}),
		done:     make(chan struct{}),
	}
}

func (s *streamer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *streamer) close() {
	close(s.done)
}

func (s *streamer) add(c *wsClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *streamer) remove(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *streamer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: ws upgrade failed: %v", err)
		return
	}

	c := &wsClient{conn: conn, remoteAddr: r.RemoteAddr, gone: make(chan struct{})}
	if !s.add(c) {
		conn.Close()
		return
	}

	// The pumps outlive the request context, which net/http cancels when
	// this handler returns.
	go s.writePump(c)
	go s.readPump(c)
}

func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump sends a status frame immediately and then every interval.
// It owns the connection and closes it on exit.
func (s *streamer) writePump(c *wsClient) {
	frames := time.NewTicker(s.interval)
	pings := time.NewTicker(pingPeriod)
	defer func() {
		frames.Stop()
		pings.Stop()
		s.remove(c)
		c.conn.Close()
	}()

	if err := s.writeFrame(c); err != nil {
		return
	}

	for {
		select {
		case <-s.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
			return

		case <-c.gone:
			return

		case <-frames.C:
			if err := s.writeFrame(c); err != nil {
				return
			}

		case <-pings.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Printf("web: ws %s ping failed: %v", c.remoteAddr, err)
				}
				return
			}
		}
	}
}

func (s *streamer) writeFrame(c *wsClient) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.TextMessage, status.FormatCompact(s.tracker.Snapshot()))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		if code, text, ok := closeStatus(err); ok {
			log.Printf("web: ws %s closed (%d %s)", c.remoteAddr, code, text)
		} else {
			log.Printf("web: ws %s write failed: %v", c.remoteAddr, err)
		}
	}
	return err
}

// readPump discards inbound messages so control frames are processed.
// It signals the write pump when the peer goes away.
func (s *streamer) readPump(c *wsClient) {
	defer close(c.gone)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: ws %s read failed: %v", c.remoteAddr, err)
			}
			return
		}
	}
}
