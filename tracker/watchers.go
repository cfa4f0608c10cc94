package tracker

import (
	"github.com/elijahnyp/meetdeck/dom"
	"github.com/elijahnyp/meetdeck/icons"
	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

// watcher observes one (selector, attribute filter) pair. It attaches the
// first time its element shows up and detaches when the element goes away or
// the room no longer uses it.
type watcher struct {
	feature  state.Feature
	selector string
	attrs    []string
	// recompute on detach, for features whose absence means "off"
	evalOnDetach bool
	cancel       func()
}

func (w *watcher) attached() bool {
	return w.cancel != nil
}

func (w *watcher) detach() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func newWatchers(sel dom.Selectors) map[state.Feature]*watcher {
	return map[state.Feature]*watcher{
		state.Mic:        {feature: state.Mic, selector: sel.Mic, attrs: []string{sel.MutedAttr}},
		state.Cam:        {feature: state.Cam, selector: sel.Cam, attrs: []string{sel.MutedAttr}},
		state.Hand:       {feature: state.Hand, selector: sel.Hand, attrs: []string{dom.ClassAttr}},
		state.Captions:   {feature: state.Captions, selector: sel.Captions, attrs: []string{sel.PressedAttr}},
		state.Presenting: {feature: state.Presenting, selector: sel.Present, attrs: []string{sel.PressedAttr}},
		state.SidePanel:  {feature: state.SidePanel, selector: sel.SidePanel, attrs: []string{sel.TabAttr}, evalOnDetach: true},
	}
}

// syncWatchers attaches watchers whose element appeared and detaches those
// whose element is gone, for the watchers the current room uses.
func (s *Session) syncWatchers(drawOnAttach bool) {
	def := s.rooms[s.room]
	for _, f := range def.watchers {
		w := s.watchers[f]
		if w.selector == "" {
			continue
		}
		el, present := s.doc.Query(w.selector)
		switch {
		case present && !w.attached():
			w.cancel = s.doc.Observe(w.selector, w.attrs, func(el dom.Element) { s.observed(w, el) })
			Logger.Debug().Msgf("watching %s on %s", f, w.selector)
			if drawOnAttach {
				s.update(f, el)
				s.redraw(f)
				s.notify()
			}
		case !present && w.attached():
			Logger.Debug().Msgf("%s element gone", f)
			w.detach()
			if w.evalOnDetach {
				s.observed(w, nil)
			}
		}
	}
}

// observed handles an attribute change on a watched element. Mic, cam, hand
// and captions redraw on every change; presenting and the side panel only
// when the value differs from the last one seen.
func (s *Session) observed(w *watcher, el dom.Element) {
	if s.closed {
		return
	}
	changed := s.update(w.feature, el)
	switch w.feature {
	case state.Presenting, state.SidePanel:
		if !changed {
			return
		}
	}
	s.redraw(w.feature)
	s.notify()
}

// update derives the feature value from el (nil when absent) and reports
// whether it differs from the stored value.
func (s *Session) update(f state.Feature, el dom.Element) bool {
	attrIs := func(name, value string) bool {
		if el == nil {
			return false
		}
		v, ok := el.Attr(name)
		return ok && v == value
	}

	f0 := s.features
	switch f {
	case state.Mic:
		s.features.MicMuted = attrIs(s.sel.MutedAttr, "true")
	case state.Cam:
		s.features.CamMuted = attrIs(s.sel.MutedAttr, "true")
	case state.Hand:
		s.features.HandRaised = el != nil && el.HasClass(s.sel.HandRaisedClass)
	case state.Captions:
		s.features.CaptionsOn = attrIs(s.sel.PressedAttr, "true")
	case state.Presenting:
		s.features.Presenting = attrIs(s.sel.PressedAttr, "true") || s.present(s.sel.StopPresenting)
		known := s.presentingKnown
		s.presentingKnown = true
		return !known || f0.Presenting != s.features.Presenting
	case state.SidePanel:
		tab := state.TabNone
		if el != nil {
			id, _ := el.Attr(s.sel.TabAttr)
			tab = state.ParsePanelTab(id)
		}
		s.features.SelectedTab = tab
		known := s.tabKnown
		s.tabKnown = true
		return !known || f0.SelectedTab != tab
	}
	return f0 != s.features
}

func buttonsFor(f state.Feature) []string {
	switch f {
	case state.Mic:
		return []string{icons.Mic}
	case state.Cam:
		return []string{icons.Cam}
	case state.Hand:
		return []string{icons.Hand}
	case state.Captions:
		return []string{icons.Captions}
	case state.Presenting:
		return []string{icons.Present}
	case state.SidePanel:
		return []string{icons.Users, icons.Chat}
	}
	return nil
}

func (s *Session) redraw(f state.Feature) {
	for _, button := range buttonsFor(f) {
		s.draw(button, s.iconFor(button))
	}
}
