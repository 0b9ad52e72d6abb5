package notifiers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mauro3422/lifesim/internal/sim"
)

const (
	wsSendBuffer    = 256
	wsEnqueueWait   = time.Second
	wsWriteDeadline = 10 * time.Second
)

// WebSocketNotifier fans bond events out to every connected WebSocket
// client. A single hub goroutine owns all writes, so slow or dead clients
// are detected and dropped there instead of blocking the simulation.
type WebSocketNotifier struct {
	id       string
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}

	events     chan sim.BondEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewWebSocketNotifier creates the notifier and starts its hub goroutine.
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	n := &WebSocketNotifier{
		id:         id,
		conns:      make(map[*websocket.Conn]struct{}),
		events:     make(chan sim.BondEvent, wsSendBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	n.wg.Add(1)
	go n.run()

	return n
}

// ID returns the notifier ID
func (n *WebSocketNotifier) ID() string {
	return n.id
}

// Type returns the notifier type
func (n *WebSocketNotifier) Type() string {
	return "websocket"
}

// GetUpgrader returns the WebSocket upgrader for HTTP handlers.
func (n *WebSocketNotifier) GetUpgrader() websocket.Upgrader {
	return n.upgrader
}

// ClientCount reports how many clients are currently connected.
func (n *WebSocketNotifier) ClientCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.conns)
}

// RegisterClient hands an upgraded connection to the hub. Safe to call
// after Close; the connection is then simply ignored.
func (n *WebSocketNotifier) RegisterClient(conn *websocket.Conn) {
	select {
	case n.register <- conn:
	case <-n.done:
	}
}

// UnregisterClient removes a connection from the hub and closes it.
func (n *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case n.unregister <- conn:
	case <-n.done:
	}
}

// Notify queues one bond event for broadcast. It fails when the hub's
// queue stays full for a second, so the notification manager can count
// the drop.
func (n *WebSocketNotifier) Notify(ctx context.Context, event sim.BondEvent) error {
	select {
	case n.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wsEnqueueWait):
		return fmt.Errorf("broadcast queue full")
	}
}

// run is the hub loop: it serializes membership changes and all writes.
func (n *WebSocketNotifier) run() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return

		case conn := <-n.register:
			if conn == nil {
				continue
			}
			n.mu.Lock()
			n.conns[conn] = struct{}{}
			n.mu.Unlock()

		case conn := <-n.unregister:
			n.drop(conn)

		case event := <-n.events:
			n.fanOut(event)
		}
	}
}

// fanOut writes one event to every client, dropping the ones that fail.
func (n *WebSocketNotifier) fanOut(event sim.BondEvent) {
	payload, err := event.JSON()
	if err != nil {
		return
	}

	n.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(n.conns))
	for conn := range n.conns {
		conns = append(conns, conn)
	}
	n.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			n.drop(conn)
		}
	}
}

func (n *WebSocketNotifier) drop(conn *websocket.Conn) {
	if conn == nil {
		return
	}
	n.mu.Lock()
	if _, ok := n.conns[conn]; ok {
		delete(n.conns, conn)
		conn.Close()
	}
	n.mu.Unlock()
}

// Close stops the hub and closes every client connection.
func (n *WebSocketNotifier) Close() error {
	close(n.done)
	n.wg.Wait()

	n.mu.Lock()
	for conn := range n.conns {
		conn.Close()
		delete(n.conns, conn)
	}
	n.mu.Unlock()

	return nil
}
