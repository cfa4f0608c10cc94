package tracker

import (
	"github.com/elijahnyp/meetdeck/dom"
	"github.com/elijahnyp/meetdeck/icons"
	"github.com/elijahnyp/meetdeck/state"
)

type action func(s *Session)

// roomDef is everything that differs between rooms. Adding a room or a
// button is a change to roomTable only.
type roomDef struct {
	icons    []string
	watchers []state.Feature
	actions  map[string]action
	// lightOn is the state an auto light takes on entry.
	lightOn bool
}

func (d roomDef) watches(f state.Feature) bool {
	for _, w := range d.watchers {
		if w == f {
			return true
		}
	}
	return false
}

func click(pick func(dom.Selectors) string) action {
	return func(s *Session) { s.click(pick(s.sel)) }
}

func togglePanel(pick func(dom.Selectors) string) action {
	return func(s *Session) { s.togglePanel(pick(s.sel)) }
}

func roomTable() map[state.Room]roomDef {
	mic := click(func(sel dom.Selectors) string { return sel.Mic })
	cam := click(func(sel dom.Selectors) string { return sel.Cam })

	return map[state.Room]roomDef{
		state.Lobby: {
			icons: []string{icons.NewMeeting},
			actions: map[string]action{
				icons.NewMeeting: click(func(sel dom.Selectors) string { return sel.NewMeeting }),
			},
		},
		state.GreenRoom: {
			icons:    []string{icons.Mic, icons.Cam, icons.Join},
			watchers: []state.Feature{state.Mic, state.Cam},
			actions: map[string]action{
				icons.Mic:  mic,
				icons.Cam:  cam,
				icons.Join: click(func(sel dom.Selectors) string { return sel.Join }),
			},
			lightOn: true,
		},
		state.Meeting: {
			icons: []string{
				icons.Mic, icons.Cam, icons.Hand, icons.Captions, icons.Present,
				icons.Users, icons.Chat, icons.EndCall,
			},
			watchers: []state.Feature{
				state.Mic, state.Cam, state.Hand, state.Captions, state.Presenting, state.SidePanel,
			},
			actions: map[string]action{
				icons.Mic:      mic,
				icons.Cam:      cam,
				icons.Hand:     click(func(sel dom.Selectors) string { return sel.Hand }),
				icons.Captions: click(func(sel dom.Selectors) string { return sel.Captions }),
				icons.Present:  (*Session).togglePresenting,
				icons.Users:    togglePanel(func(sel dom.Selectors) string { return sel.Users }),
				icons.Chat:     togglePanel(func(sel dom.Selectors) string { return sel.Chat }),
				icons.EndCall:  click(func(sel dom.Selectors) string { return sel.EndCall }),
			},
			lightOn: true,
		},
		state.ExitHall: {
			icons: []string{icons.Rejoin, icons.Home},
			actions: map[string]action{
				icons.Rejoin: click(func(sel dom.Selectors) string { return sel.Rejoin }),
				icons.Home:   click(func(sel dom.Selectors) string { return sel.Home }),
			},
		},
	}
}
