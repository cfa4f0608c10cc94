package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/elijahnyp/meetdeck/dom"
	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

// Tracker owns the session for whichever page is attached and replaces it on
// every page load. Apart from Snapshot and OnChange, its methods must run on
// the tracker loop.
type Tracker struct {
	loop   *Loop
	device state.Device
	icons  IconSource

	sel     dom.Selectors
	light   state.Light
	doc     dom.Document
	session *Session

	mu        sync.RWMutex
	snap      state.Snapshot
	listeners []func(state.Snapshot)
}

func New(loop *Loop, device state.Device, light state.Light, icons IconSource, sel dom.Selectors) *Tracker {
	t := &Tracker{
		loop:   loop,
		device: device,
		light:  light,
		icons:  icons,
		sel:    sel,
	}
	t.snap = t.idle()
	return t
}

func (t *Tracker) Loop() *Loop {
	return t.loop
}

// Attach starts a new session on doc, closing the one for the previous page.
func (t *Tracker) Attach(doc dom.Document) {
	if t.session != nil {
		t.session.Close()
	}
	t.doc = doc
	t.session = NewSession(doc, t.sel, t.device, t.light, t.icons)
	t.session.OnChange(t.publish)
	t.session.Start()
}

// Detach ends the session on doc, if it is still the current one, and blanks
// the panel.
func (t *Tracker) Detach(doc dom.Document) {
	if t.doc != doc || t.session == nil {
		return
	}
	t.session.Close()
	t.session = nil
	t.doc = nil
	t.device.SetRoom(state.Undefined)
	if t.device.IsConnected() {
		if err := t.device.ClearAllButtons(); err != nil {
			Logger.Debug().Msgf("unable to clear buttons: %v", err)
		}
	}
	t.publish(t.idle())
}

func (t *Tracker) Session() *Session {
	return t.session
}

func (t *Tracker) Press(id int) {
	if t.session == nil {
		Logger.Debug().Msgf("key %d pressed with no page attached", id)
		return
	}
	t.session.HandlePress(id)
}

// Reconfigure swaps the selector table and the lighting backend (l may be
// nil) and restarts the current session once on the new pair.
func (t *Tracker) Reconfigure(sel dom.Selectors, l state.Light) {
	t.sel = sel
	t.light = l
	t.restart()
}

// Redraw repaints the current room, for a panel that just connected.
func (t *Tracker) Redraw() {
	if t.session == nil {
		t.publish(t.idle())
		return
	}
	t.session.Refresh()
	t.publish(t.session.Snapshot())
}

func (t *Tracker) restart() {
	if t.doc != nil {
		t.Attach(t.doc)
	}
}

// Run feeds key presses into the loop until ctx is done or presses closes.
func (t *Tracker) Run(ctx context.Context, presses <-chan int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-presses:
			if !ok {
				return nil
			}
			t.loop.Post(func() { t.Press(id) })
		}
	}
}

func (t *Tracker) Snapshot() state.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// OnChange registers fn to receive every published snapshot. fn runs on the
// tracker loop and must not block.
func (t *Tracker) OnChange(fn func(state.Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

func (t *Tracker) publish(snap state.Snapshot) {
	t.mu.Lock()
	t.snap = snap
	listeners := append([]func(state.Snapshot){}, t.listeners...)
	t.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (t *Tracker) idle() state.Snapshot {
	return state.Snapshot{
		Room:           state.Undefined.String(),
		PanelConnected: t.device.IsConnected(),
		LightAvailable: t.light != nil,
		LastUpdate:     time.Now().Unix(),
	}
}
