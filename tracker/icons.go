package tracker

import (
	"github.com/elijahnyp/meetdeck/icons"
	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

// iconFor picks the icon a button shows for the current feature state.
func (s *Session) iconFor(button string) string {
	f := s.features
	pick := func(on bool, active, idle string) string {
		if on {
			return active
		}
		return idle
	}
	switch button {
	case icons.Mic:
		return pick(f.MicMuted, icons.MicDisabled, icons.Mic)
	case icons.Cam:
		return pick(f.CamMuted, icons.CamDisabled, icons.Cam)
	case icons.Hand:
		return pick(f.HandRaised, icons.HandRaised, icons.Hand)
	case icons.Captions:
		return pick(f.CaptionsOn, icons.CaptionsOn, icons.Captions)
	case icons.Present:
		return pick(f.Presenting, icons.PresentStop, icons.Present)
	case icons.Users:
		return pick(f.SelectedTab == state.TabUsers, icons.UsersOpen, icons.Users)
	case icons.Chat:
		return pick(f.SelectedTab == state.TabChat, icons.ChatOpen, icons.Chat)
	}
	return button
}

// draw fills the key bound to button with icon. Unbound buttons and a
// disconnected panel are skipped; failures are logged and dropped.
func (s *Session) draw(button, icon string) {
	id := s.device.ButtonNameToID(button)
	if id < 0 {
		Logger.Debug().Msgf("%s not in layout for %s", button, s.room)
		return
	}
	if !s.device.IsConnected() {
		return
	}
	img, err := s.icons.Icon(icon)
	if err != nil {
		Logger.Warn().Msgf("icon %s: %v", icon, err)
		return
	}
	if err := s.device.FillButtonWithImage(id, img); err != nil {
		Logger.Debug().Msgf("unable to draw %s on key %d: %v", icon, id, err)
	}
}
