package tracker

import (
	"slices"

	"github.com/elijahnyp/meetdeck/icons"
	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

// classify checks the room markers in priority order. With no marker showing
// the room only changes when the path is a lobby path.
func (s *Session) classify() state.Room {
	switch {
	case s.present(s.sel.MeetingMarker):
		return state.Meeting
	case s.present(s.sel.GreenRoomMarker):
		return state.GreenRoom
	case s.present(s.sel.ExitHallMarker):
		return state.ExitHall
	case slices.Contains(s.sel.LobbyPaths, s.doc.Path()):
		return state.Lobby
	}
	return s.room
}

func (s *Session) present(selector string) bool {
	if selector == "" {
		return false
	}
	_, ok := s.doc.Query(selector)
	return ok
}

func (s *Session) enterRoom(room state.Room) {
	Logger.Info().Msgf("room %s -> %s", s.room, room)
	s.room = room
	s.device.SetRoom(room)
	def := s.rooms[room]

	for f, w := range s.watchers {
		if !def.watches(f) {
			w.detach()
		}
	}

	s.presentingKnown = false
	s.tabKnown = false
	for _, f := range def.watchers {
		el, _ := s.doc.Query(s.watchers[f].selector)
		s.update(f, el)
	}

	s.paint()

	if s.light != nil && s.light.Auto() {
		s.setLight(def.lightOn)
	}

	s.syncWatchers(false)
	s.notify()
}

// paint clears the panel and draws the current room from the stored feature
// state. It has no effect on the page or the light.
func (s *Session) paint() {
	if s.device.IsConnected() {
		if err := s.device.ClearAllButtons(); err != nil {
			Logger.Debug().Msgf("unable to clear buttons: %v", err)
		}
	}
	for _, name := range s.rooms[s.room].icons {
		s.draw(name, s.iconFor(name))
	}
	if s.lightControllable() {
		s.draw(icons.HueOn, icons.HueOn)
		s.draw(icons.HueOff, icons.HueOff)
	}
}
