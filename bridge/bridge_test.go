package bridge

import (
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elijahnyp/meetdeck/dom"
)

// inlineLoop runs posted closures immediately, one at a time.
type inlineLoop struct {
	mu sync.Mutex
}

func (l *inlineLoop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
	return true
}

type fakeSessions struct {
	attached chan dom.Document
	detached chan dom.Document
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		attached: make(chan dom.Document, 4),
		detached: make(chan dom.Document, 4),
	}
}

func (s *fakeSessions) Attach(doc dom.Document) { s.attached <- doc }
func (s *fakeSessions) Detach(doc dom.Document) { s.detached <- doc }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func dial(t *testing.T, b *Bridge) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/agent", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m Message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestAgentSession(t *testing.T) {
	loop := &inlineLoop{}
	sessions := newFakeSessions()
	sel := dom.DefaultSelectors()
	b := New(loop, sessions, sel)
	conn := dial(t, b)
	defer conn.Close()

	watch := readMessage(t, conn)
	if watch.Type != TypeWatch || !slices.Equal(watch.Selectors, sel.Watched()) {
		t.Fatalf("first message = %+v, expected the watch list", watch)
	}
	if !slices.Contains(watch.Attributes, sel.MutedAttr) {
		t.Errorf("watch attributes %v missing %s", watch.Attributes, sel.MutedAttr)
	}

	if err := conn.WriteJSON(Message{Type: TypeHello, Path: "/abc-defg-hij"}); err != nil {
		t.Fatal(err)
	}
	doc := receive(t, sessions.attached)
	if doc.Path() != "/abc-defg-hij" {
		t.Errorf("path = %s", doc.Path())
	}

	update := dom.Update{Selector: sel.Mic, Present: true, Attrs: map[string]string{sel.MutedAttr: "true"}}
	conn.WriteJSON(Message{Type: TypeUpdate, Update: &update})
	conn.WriteJSON(Message{Type: TypeNavigate, Path: "/"})

	deadline := time.Now().Add(2 * time.Second)
	for doc.Path() != "/" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	el, ok := doc.Query(sel.Mic)
	if !ok {
		t.Fatal("mic update was not applied")
	}
	if v, _ := el.Attr(sel.MutedAttr); v != "true" {
		t.Errorf("%s = %q, expected true", sel.MutedAttr, v)
	}

	loop.Post(func() {
		if err := doc.Click(sel.Mic); err != nil {
			t.Errorf("click: %v", err)
		}
	})
	click := readMessage(t, conn)
	if click.Type != TypeClick || click.Selector != sel.Mic {
		t.Errorf("expected a click on the mic, got %+v", click)
	}

	conn.Close()
	if gone := receive(t, sessions.detached); gone != doc {
		t.Error("detached a different document")
	}
}

func TestSetSelectorsResendsWatch(t *testing.T) {
	b := New(&inlineLoop{}, newFakeSessions(), dom.DefaultSelectors())
	conn := dial(t, b)
	defer conn.Close()
	readMessage(t, conn)

	deadline := time.Now().Add(2 * time.Second)
	for b.Agents() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	sel := dom.DefaultSelectors()
	sel.Mic = "#mic"
	b.SetSelectors(sel)
	m := readMessage(t, conn)
	if m.Type != TypeWatch || !slices.Contains(m.Selectors, "#mic") {
		t.Errorf("expected an updated watch list, got %+v", m)
	}
}

func TestMalformedUpdateIgnored(t *testing.T) {
	sessions := newFakeSessions()
	b := New(&inlineLoop{}, sessions, dom.DefaultSelectors())
	conn := dial(t, b)
	defer conn.Close()
	readMessage(t, conn)

	conn.WriteJSON(Message{Type: TypeUpdate})
	conn.WriteJSON(Message{Type: "bogus"})
	conn.WriteJSON(Message{Type: TypeHello, Path: "/"})
	doc := receive(t, sessions.attached)
	if got := doc.(*dom.Page).Selectors(); len(got) != 0 {
		t.Errorf("expected an empty page, got %v", got)
	}
}
