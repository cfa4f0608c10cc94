// Package bridge serves the websocket the in-page agent connects to. Each
// connection mirrors one page load into a dom.Page and relays clicks back.
package bridge

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/elijahnyp/meetdeck/dom"
	. "github.com/elijahnyp/meetdeck/util"
)

const (
	TypeHello    = "hello"
	TypeUpdate   = "update"
	TypeNavigate = "navigate"
	TypeWatch    = "watch"
	TypeClick    = "click"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrAgentGone = errors.New("page agent disconnected")

// Message is the envelope for both directions of the agent protocol.
type Message struct {
	Type       string      `json:"type"`
	Path       string      `json:"path,omitempty"`
	Update     *dom.Update `json:"update,omitempty"`
	Selectors  []string    `json:"selectors,omitempty"`
	Attributes []string    `json:"attributes,omitempty"`
	Selector   string      `json:"selector,omitempty"`
}

// Poster runs closures on the tracker loop.
type Poster interface {
	Post(fn func()) bool
}

// Sessions receives a document per page load.
type Sessions interface {
	Attach(doc dom.Document)
	Detach(doc dom.Document)
}

type Bridge struct {
	loop     Poster
	sessions Sessions
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	sel    dom.Selectors
	agents map[*agent]bool
}

func New(loop Poster, sessions Sessions, sel dom.Selectors) *Bridge {
	return &Bridge{
		loop:     loop,
		sessions: sessions,
		sel:      sel,
		agents:   make(map[*agent]bool),
		upgrader: websocket.Upgrader{
			// the agent runs inside the meeting site's origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetSelectors replaces the selector table and re-sends the watch list to
// every connected agent.
func (b *Bridge) SetSelectors(sel dom.Selectors) {
	b.mu.Lock()
	b.sel = sel
	agents := make([]*agent, 0, len(b.agents))
	for a := range b.agents {
		agents = append(agents, a)
	}
	b.mu.Unlock()
	for _, a := range agents {
		if err := a.enqueue(watchMessage(sel)); err != nil {
			Logger.Debug().Msgf("agent %s: %v", a.id, err)
		}
	}
}

// Agents reports how many page agents are connected.
func (b *Bridge) Agents() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.agents)
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.Error().Err(err).Msg("agent websocket upgrade failed")
		return
	}

	a := &agent{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan Message, 64),
		bridge: b,
	}
	b.mu.Lock()
	b.agents[a] = true
	sel := b.sel
	b.mu.Unlock()
	Logger.Info().Msgf("page agent %s connected from %s", a.id, r.RemoteAddr)

	a.enqueue(watchMessage(sel))
	go a.writePump()
	go a.readPump()
}

func (b *Bridge) unregister(a *agent) {
	b.mu.Lock()
	delete(b.agents, a)
	b.mu.Unlock()
}

func watchMessage(sel dom.Selectors) Message {
	return Message{Type: TypeWatch, Selectors: sel.Watched(), Attributes: sel.Attributes()}
}

type agent struct {
	id     string
	conn   *websocket.Conn
	send   chan Message
	bridge *Bridge

	mu     sync.Mutex
	closed bool

	// only touched on the tracker loop
	page *dom.Page
}

func (a *agent) enqueue(m Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAgentGone
	}
	select {
	case a.send <- m:
		return nil
	default:
		return errors.New("agent send buffer full")
	}
}

func (a *agent) click(selector string) error {
	return a.enqueue(Message{Type: TypeClick, Selector: selector})
}

func (a *agent) handle(m Message) {
	switch m.Type {
	case TypeHello:
		a.bridge.loop.Post(func() {
			if a.page != nil {
				a.bridge.sessions.Detach(a.page)
			}
			a.page = dom.NewPage(m.Path)
			a.page.SetClickHandler(a.click)
			a.bridge.sessions.Attach(a.page)
		})
	case TypeUpdate:
		if m.Update == nil || m.Update.Selector == "" {
			return
		}
		u := *m.Update
		a.bridge.loop.Post(func() {
			if a.page != nil {
				a.page.Apply(u)
			}
		})
	case TypeNavigate:
		a.bridge.loop.Post(func() {
			if a.page != nil {
				a.page.Navigate(m.Path)
			}
		})
	default:
		Logger.Debug().Msgf("agent %s sent unknown message type %q", a.id, m.Type)
	}
}

func (a *agent) readPump() {
	defer func() {
		a.mu.Lock()
		a.closed = true
		close(a.send)
		a.mu.Unlock()
		a.bridge.unregister(a)
		a.bridge.loop.Post(func() {
			if a.page != nil {
				a.bridge.sessions.Detach(a.page)
				a.page = nil
			}
		})
		if err := a.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("error closing agent websocket")
		}
		Logger.Info().Msgf("page agent %s disconnected", a.id)
	}()

	a.conn.SetReadLimit(maxMessageSize)
	a.conn.SetReadDeadline(time.Now().Add(pongWait))
	a.conn.SetPongHandler(func(string) error {
		return a.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var m Message
		if err := a.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Logger.Warn().Err(err).Msgf("agent %s read failed", a.id)
			}
			return
		}
		a.conn.SetReadDeadline(time.Now().Add(pongWait))
		a.handle(m)
	}
}

func (a *agent) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		a.conn.Close()
	}()

	for {
		select {
		case m, ok := <-a.send:
			a.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				a.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := a.conn.WriteJSON(m); err != nil {
				Logger.Debug().Err(err).Msgf("agent %s write failed", a.id)
				return
			}
		case <-ticker.C:
			a.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := a.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
