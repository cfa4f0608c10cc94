package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gorilla/websocket"

	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Data interface{} `json:"data"`
	Type string      `json:"type"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn *websocket.Conn
	send chan WebSocketMessage
	hub  *WSHub
}

// WSHub maintains the set of dashboard clients and broadcasts snapshots to them
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WSClient
	unregister chan *WSClient
	done       chan struct{}
	current    func() state.Snapshot
}

// SystemStatus is the /status document
type SystemStatus struct {
	Snapshot      state.Snapshot `json:"snapshot"`
	Agents        int            `json:"agents"`
	MQTTConnected bool           `json:"mqtt_connected"`
	Time          int64          `json:"time"`
}

// NewHub creates a new WebSocket hub
func NewHub(current func() state.Snapshot) *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WebSocketMessage, 16),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
		current:    current,
	}
}

// Run services the hub until ctx is done
func (h *WSHub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return nil

		case client := <-h.register:
			h.clients[client] = true
			Logger.Info().Msg("Client connected to WebSocket")
			client.send <- WebSocketMessage{Type: "snapshot", Data: h.current()}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				Logger.Info().Msg("Client disconnected from WebSocket")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastUpdate sends an update to all connected clients
func (h *WSHub) BroadcastUpdate(messageType string, data interface{}) {
	select {
	case h.broadcast <- WebSocketMessage{Type: messageType, Data: data}:
	default:
		// Channel is full, skip this update
	}
}

// readPump drains the connection so close frames are seen
func (c *WSClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			return
		}
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		Logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// ServeWebSocket handles dashboard websocket requests
func (h *WSHub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan WebSocketMessage, 256),
		hub:  h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// APIStatus returns the current tracker state as JSON
func APIStatus(current func() state.Snapshot, agents func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := SystemStatus{
			Snapshot:      current(),
			Agents:        agents(),
			MQTTConnected: Client != nil && Client.IsConnected(),
			Time:          time.Now().Unix(),
		}

		if err := json.NewEncoder(w).Encode(status); err != nil {
			Logger.Error().Err(err).Msg("Error encoding system status")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

// EventStream fans snapshots out to server-sent event clients.
type EventStream struct {
	mu      sync.Mutex
	clients map[chan state.Snapshot]struct{}
	current func() state.Snapshot
	// closed when the server shuts down, then replaced
	done chan struct{}
}

func NewEventStream(current func() state.Snapshot) *EventStream {
	return &EventStream{
		clients: make(map[chan state.Snapshot]struct{}),
		current: current,
		done:    make(chan struct{}),
	}
}

// Disconnect ends every open stream. Streams opened afterwards are unaffected.
func (e *EventStream) Disconnect() {
	e.mu.Lock()
	close(e.done)
	e.done = make(chan struct{})
	e.mu.Unlock()
}

// Publish queues s for every client; slow clients miss updates.
func (e *EventStream) Publish(s state.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.clients {
		select {
		case ch <- s:
		default:
		}
	}
}

func (e *EventStream) subscribe() (chan state.Snapshot, <-chan struct{}) {
	ch := make(chan state.Snapshot, 8)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clients[ch] = struct{}{}
	return ch, e.done
}

func (e *EventStream) unsubscribe(ch chan state.Snapshot) {
	e.mu.Lock()
	delete(e.clients, ch)
	e.mu.Unlock()
}

func (e *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, done := e.subscribe()
	defer e.unsubscribe(ch)
	Logger.Debug().Msgf("SSE client connected from %s", r.RemoteAddr)

	send := func(s state.Snapshot) error {
		err := sse.Encode(w, sse.Event{
			Event: "snapshot",
			Id:    fmt.Sprintf("%d", time.Now().UnixNano()),
			Data:  s,
		})
		flusher.Flush()
		return err
	}
	if err := send(e.current()); err != nil {
		return
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			Logger.Debug().Msgf("SSE client %s gone", r.RemoteAddr)
			return
		case <-done:
			return
		case s := <-ch:
			if err := send(s); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": heartbeat %s\n\n", time.Now().Format(time.RFC3339)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
