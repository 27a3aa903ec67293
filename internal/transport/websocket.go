// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "leopold/internal/log"
)

// WebSocketTransport broadcasts session events as JSON to every client
// connected to /events. Events queue in a bounded channel; when the
// queue is full the newest event is dropped so the session loop never
// waits on the network.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once

	server   *http.Server
	listener net.Listener
}

// NewWebSocketTransport binds addr (host:port, port 0 picks a free one)
// and starts serving. The bound address is available through Addr.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("websocket: listen on %s: %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The hub serves local observation UIs; any origin may attach.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
		done:      make(chan struct{}),
		listener:  ln,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", wst.handleEvents)
	wst.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("websocket: serving events on %s", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			applog.Errorf("websocket: server error: %v", err)
		}
	}()
	go wst.handleBroadcasts()

	return wst, nil
}

// Addr returns the bound listen address.
func (wst *WebSocketTransport) Addr() string {
	return wst.listener.Addr().String()
}

// ClientCount reports how many clients are attached.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleEvents upgrades the connection and registers the client. The
// read loop exists only to detect disconnects; clients never send.
func (wst *WebSocketTransport) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("websocket: upgrade failed: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("websocket: client connected, total %d", total)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		delete(wst.clients, conn)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		applog.Infof("websocket: client disconnected, total %d", total)
	}()
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(data); err != nil {
					applog.Warnf("websocket: dropping client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues data for broadcast. A full queue or a closed transport
// drops the event; Send never blocks.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return fmt.Errorf("websocket: transport is closed")
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		err = wst.server.Close()
		applog.Infof("websocket: server closed")
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
