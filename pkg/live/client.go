package live

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/protocol"
)

// sendBuffer is the number of frames queued per client before it is dropped.
const sendBuffer = 64

// client is one WebSocket connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// queue enqueues a frame without blocking. It reports false when the
// client's buffer is full.
func (c *client) queue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.opts.MaxMessageSize)

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if err := s.register(c); err != nil {
		s.logger.Error("snapshot failed", "error", err)
		conn.Close()
		return
	}
	s.logger.Debug("client connected", "remote", r.RemoteAddr)

	go s.writeLoop(c)
	s.readLoop(c)
}

// register queues the current snapshot and adds c to the broadcast set in
// one step, so c sees every later batch exactly once.
func (s *Server) register(c *client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, err := s.snapshotLocked()
	if err != nil {
		return err
	}
	c.queue(protocol.NewFrame(protocol.FramePatches, batch).Encode())
	s.metrics.frame("patches", "out")
	s.clients[c] = struct{}{}
	s.metrics.clientDelta(1)
	return nil
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(c)
}

func (s *Server) dropLocked(c *client) {
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		s.metrics.clientDelta(-1)
	}
	c.close()
}

func (s *Server) broadcastLocked(frame []byte) {
	for c := range s.clients {
		if !c.queue(frame) {
			s.logger.Warn("dropping slow client")
			s.dropLocked(c)
			continue
		}
		s.metrics.frame("patches", "out")
	}
}

func (s *Server) readLoop(c *client) {
	defer s.unregister(c)

	pongWait := 2 * s.opts.PingInterval
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("client read failed", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := s.handleFrame(msg); err != nil {
			s.logger.Debug("client frame rejected", "error", err)
			c.queue(protocol.NewFrame(protocol.FrameError,
				protocol.EncodeErrorMessage(protocol.NewErrorMessage(err))).Encode())
			s.metrics.frame("error", "out")
		}
	}
}

func (s *Server) handleFrame(msg []byte) error {
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return errors.New("P001").Wrap(err)
	}
	if frame.Type != protocol.FrameEvent {
		s.metrics.frame("unknown", "in")
		return errors.New("P001").WithDetail(fmt.Sprintf("Unexpected %s frame", frame.Type))
	}
	s.metrics.frame("event", "in")

	ev, err := protocol.DecodeEvent(frame.Payload)
	if err != nil {
		return errors.New("P001").Wrap(err)
	}
	return s.Dispatch(ev)
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.unregister(c)
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.opts.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.unregister(c)
				return
			}

		case <-c.done:
			return
		}
	}
}

// snapshotLocked encodes the mirror as one batch that rebuilds it under an
// empty root, reusing the node and listener ids of the live stream.
func (s *Server) snapshotLocked() ([]byte, error) {
	var w protocol.Writer
	for _, child := range s.doc.Root().Children() {
		if err := s.snapshotNode(&w, child, protocol.RootID); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func (s *Server) snapshotNode(w *protocol.Writer, n *memdom.Node, parent protocol.NodeID) error {
	id, ok := s.mirror.ID(n)
	if !ok {
		return fmt.Errorf("mirror node %v has no wire id", n)
	}

	if n.Type() == memdom.TextNode {
		w.Write(protocol.Op{Kind: host.OpCreateText, Target: id, Value: n.Text()})
	} else {
		w.Write(protocol.Op{Kind: host.OpCreateElement, Target: id, Name: n.Tag()})

		attrs := n.Attrs()
		for _, name := range slices.Sorted(maps.Keys(attrs)) {
			w.Write(protocol.Op{Kind: host.OpSetAttribute, Target: id, Name: name, Value: attrs[name]})
		}
		for _, name := range n.StyleNames() {
			value, _ := n.Style(name)
			w.Write(protocol.Op{Kind: host.OpSetStyleProperty, Target: id, Name: name, Value: value})
		}
		for _, event := range n.Events() {
			for _, l := range n.Listeners(event) {
				lid, ok := s.mirror.ListenerID(l)
				if !ok {
					return fmt.Errorf("listener for %s on %v has no wire id", event, n)
				}
				w.Write(protocol.Op{Kind: host.OpAddEventHandler, Target: id, Name: event, Listener: lid})
			}
		}
		for _, child := range n.Children() {
			if err := s.snapshotNode(w, child, id); err != nil {
				return err
			}
		}
	}

	w.Write(protocol.Op{Kind: host.OpAppendChild, Parent: parent, Target: id})
	return nil
}
