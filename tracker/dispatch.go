package tracker

import (
	"errors"

	"github.com/elijahnyp/meetdeck/dom"
	"github.com/elijahnyp/meetdeck/icons"
	. "github.com/elijahnyp/meetdeck/util"
)

// HandlePress runs the action bound to the pressed key in the current room.
// Keys bound to nothing here are ignored.
func (s *Session) HandlePress(id int) {
	if s.closed {
		return
	}
	name := s.device.NameForID(id)
	if name == "" {
		Logger.Debug().Msgf("key %d not in layout for %s", id, s.room)
		return
	}

	if s.lightControllable() {
		switch name {
		case icons.HueOn:
			s.setLight(true)
			return
		case icons.HueOff:
			s.setLight(false)
			return
		}
	}

	act, ok := s.rooms[s.room].actions[name]
	if !ok {
		Logger.Debug().Msgf("%s does nothing in %s", name, s.room)
		return
	}
	Logger.Debug().Msgf("%s pressed in %s", name, s.room)
	act(s)
}

func (s *Session) click(selector string) {
	if selector == "" {
		return
	}
	err := s.doc.Click(selector)
	switch {
	case errors.Is(err, dom.ErrNotFound):
		Logger.Debug().Msgf("nothing to click at %s", selector)
	case err != nil:
		Logger.Warn().Msgf("click %s: %v", selector, err)
	}
}

// togglePanel opens the side panel on the tab behind selector, or closes it
// when that tab is already expanded.
func (s *Session) togglePanel(selector string) {
	el, ok := s.doc.Query(selector)
	if !ok {
		Logger.Debug().Msgf("no panel button at %s", selector)
		return
	}
	if expanded, _ := el.Attr(s.sel.ExpandedAttr); expanded == "true" {
		s.click(s.sel.PanelClose)
		return
	}
	s.click(selector)
}

func (s *Session) togglePresenting() {
	if s.features.Presenting && s.present(s.sel.StopPresenting) {
		s.click(s.sel.StopPresenting)
		return
	}
	s.click(s.sel.Present)
}
