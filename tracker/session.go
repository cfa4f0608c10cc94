// Package tracker follows which screen of the meeting page is showing and the
// state of its toggles, mirrors both onto the button panel, and turns button
// presses into clicks on the page.
package tracker

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/elijahnyp/meetdeck/dom"
	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

type IconSource interface {
	Icon(name string) (image.Image, error)
}

// Session tracks one page load. It is not safe for concurrent use: every
// method, and every callback the document fires, must run on the same loop.
type Session struct {
	id     string
	doc    dom.Document
	sel    dom.Selectors
	device state.Device
	light  state.Light
	icons  IconSource
	rooms  map[state.Room]roomDef

	room            state.Room
	features        state.Features
	presentingKnown bool
	tabKnown        bool
	watchers        map[state.Feature]*watcher

	stopMutations func()
	listeners     []func(state.Snapshot)
	closed        bool
}

// NewSession builds a session over doc. light may be nil.
func NewSession(doc dom.Document, sel dom.Selectors, device state.Device, light state.Light, icons IconSource) *Session {
	return &Session{
		id:       uuid.New().String(),
		doc:      doc,
		sel:      sel,
		device:   device,
		light:    light,
		icons:    icons,
		rooms:    roomTable(),
		watchers: newWatchers(sel),
	}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Room() state.Room         { return s.room }
func (s *Session) Features() state.Features { return s.features }

// OnChange registers fn to receive a snapshot after every room or feature change.
func (s *Session) OnChange(fn func(state.Snapshot)) {
	s.listeners = append(s.listeners, fn)
}

// Start subscribes to the document and classifies what is already showing.
func (s *Session) Start() {
	Logger.Info().Msgf("session %s started on %s", s.id, s.doc.Path())
	s.stopMutations = s.doc.OnMutation(s.onMutation)
	s.onMutation()
}

// Close drops every subscription the session holds.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.stopMutations != nil {
		s.stopMutations()
	}
	for _, w := range s.watchers {
		w.detach()
	}
	Logger.Info().Msgf("session %s closed", s.id)
}

// Refresh repaints the current room, for a panel that came back. Room entry
// effects such as the auto light are not repeated.
func (s *Session) Refresh() {
	if s.closed || s.room == state.Undefined {
		return
	}
	s.device.SetRoom(s.room)
	s.paint()
}

func (s *Session) Snapshot() state.Snapshot {
	return state.Snapshot{
		Session:        s.id,
		Room:           s.room.String(),
		Path:           s.doc.Path(),
		Features:       s.features,
		PanelConnected: s.device.IsConnected(),
		LightAvailable: s.light != nil,
		LastUpdate:     time.Now().Unix(),
	}
}

func (s *Session) notify() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func (s *Session) onMutation() {
	if s.closed {
		return
	}
	if room := s.classify(); room != s.room {
		s.enterRoom(room)
	}
	s.syncWatchers(true)
	// the stop-presenting control comes and goes structurally
	if s.rooms[s.room].watches(state.Presenting) {
		w := s.watchers[state.Presenting]
		el, _ := s.doc.Query(w.selector)
		s.observed(w, el)
	}
}

func (s *Session) lightControllable() bool {
	return s.light != nil && s.light.Controllable()
}

func (s *Session) setLight(on bool) {
	if s.light == nil {
		return
	}
	if err := s.light.SetOn(on); err != nil {
		Logger.Warn().Msgf("unable to switch light %s: %v", onOff(on), err)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
