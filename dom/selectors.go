package dom

import "slices"

// Selectors maps every element the tracker reads or clicks to the page's
// selector for it. The page's class names and attributes change often, so all
// of them come from configuration.
type Selectors struct {
	MeetingMarker   string   `mapstructure:"meeting_marker" json:"meeting_marker"`
	GreenRoomMarker string   `mapstructure:"green_room_marker" json:"green_room_marker"`
	ExitHallMarker  string   `mapstructure:"exit_hall_marker" json:"exit_hall_marker"`
	LobbyPaths      []string `mapstructure:"lobby_paths" json:"lobby_paths"`

	Mic             string `mapstructure:"mic" json:"mic"`
	Cam             string `mapstructure:"cam" json:"cam"`
	MutedAttr       string `mapstructure:"muted_attr" json:"muted_attr"`
	Hand            string `mapstructure:"hand" json:"hand"`
	HandRaisedClass string `mapstructure:"hand_raised_class" json:"hand_raised_class"`
	Captions        string `mapstructure:"captions" json:"captions"`
	PressedAttr     string `mapstructure:"pressed_attr" json:"pressed_attr"`
	Present         string `mapstructure:"present" json:"present"`
	StopPresenting  string `mapstructure:"stop_presenting" json:"stop_presenting"`
	SidePanel       string `mapstructure:"side_panel" json:"side_panel"`
	TabAttr         string `mapstructure:"tab_attr" json:"tab_attr"`
	Users           string `mapstructure:"users" json:"users"`
	Chat            string `mapstructure:"chat" json:"chat"`
	ExpandedAttr    string `mapstructure:"expanded_attr" json:"expanded_attr"`
	PanelClose      string `mapstructure:"panel_close" json:"panel_close"`
	EndCall         string `mapstructure:"end_call" json:"end_call"`
	Join            string `mapstructure:"join" json:"join"`
	NewMeeting      string `mapstructure:"new_meeting" json:"new_meeting"`
	Rejoin          string `mapstructure:"rejoin" json:"rejoin"`
	Home            string `mapstructure:"home" json:"home"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		MeetingMarker:   "[data-meeting-code] [data-self-name]",
		GreenRoomMarker: "[data-call-setup] [jsname='Qx7uuf']",
		ExitHallMarker:  "[data-call-ended='true']",
		LobbyPaths:      []string{"/", "/landing"},

		Mic:             "[jsname='hw0c9'][data-is-muted]",
		Cam:             "[jsname='psRWwc'][data-is-muted]",
		MutedAttr:       "data-is-muted",
		Hand:            "button[jsname='FpSaz']",
		HandRaisedClass: "raised",
		Captions:        "button[jsname='r8qRAd']",
		PressedAttr:     "aria-pressed",
		Present:         "button[jsname='hNGZQc']",
		StopPresenting:  "button[jsname='Wdcqob']",
		SidePanel:       "[data-panel-container-id]",
		TabAttr:         "data-tab-id",
		Users:           "button[data-panel-id='1']",
		Chat:            "button[data-panel-id='2']",
		ExpandedAttr:    "aria-expanded",
		PanelClose:      "[data-panel-container-id] button[jsname='QnpHgb']",
		EndCall:         "button[jsname='CQylAd']",
		Join:            "button[jsname='Qx7uuf']",
		NewMeeting:      "button[jsname='CuSyi']",
		Rejoin:          "button[jsname='oI7Fj']",
		Home:            "button[jsname='dqt8Pb']",
	}
}

// Merge fills every empty field of s from def.
func (s Selectors) Merge(def Selectors) Selectors {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&s.MeetingMarker, def.MeetingMarker)
	fill(&s.GreenRoomMarker, def.GreenRoomMarker)
	fill(&s.ExitHallMarker, def.ExitHallMarker)
	if len(s.LobbyPaths) == 0 {
		s.LobbyPaths = slices.Clone(def.LobbyPaths)
	}
	fill(&s.Mic, def.Mic)
	fill(&s.Cam, def.Cam)
	fill(&s.MutedAttr, def.MutedAttr)
	fill(&s.Hand, def.Hand)
	fill(&s.HandRaisedClass, def.HandRaisedClass)
	fill(&s.Captions, def.Captions)
	fill(&s.PressedAttr, def.PressedAttr)
	fill(&s.Present, def.Present)
	fill(&s.StopPresenting, def.StopPresenting)
	fill(&s.SidePanel, def.SidePanel)
	fill(&s.TabAttr, def.TabAttr)
	fill(&s.Users, def.Users)
	fill(&s.Chat, def.Chat)
	fill(&s.ExpandedAttr, def.ExpandedAttr)
	fill(&s.PanelClose, def.PanelClose)
	fill(&s.EndCall, def.EndCall)
	fill(&s.Join, def.Join)
	fill(&s.NewMeeting, def.NewMeeting)
	fill(&s.Rejoin, def.Rejoin)
	fill(&s.Home, def.Home)
	return s
}

// Watched lists every selector the page agent has to report on.
func (s Selectors) Watched() []string {
	all := []string{
		s.MeetingMarker, s.GreenRoomMarker, s.ExitHallMarker,
		s.Mic, s.Cam, s.Hand, s.Captions, s.Present, s.StopPresenting,
		s.SidePanel, s.Users, s.Chat, s.PanelClose,
		s.EndCall, s.Join, s.NewMeeting, s.Rejoin, s.Home,
	}
	var out []string
	for _, sel := range all {
		if sel != "" && !slices.Contains(out, sel) {
			out = append(out, sel)
		}
	}
	return out
}

// Attributes lists every attribute the page agent has to report on.
func (s Selectors) Attributes() []string {
	out := []string{ClassAttr}
	for _, a := range []string{s.MutedAttr, s.PressedAttr, s.TabAttr, s.ExpandedAttr} {
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}
