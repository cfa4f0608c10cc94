package state

import "fmt"

// Feature names a toggle control whose on-screen status is mirrored to the panel.
type Feature int

const (
	Mic Feature = iota
	Cam
	Hand
	Captions
	Presenting
	SidePanel
)

var featureNames = [...]string{"mic", "cam", "hand", "captions", "presenting", "side_panel"}

func (f Feature) String() string {
	if f < Mic || int(f) >= len(featureNames) {
		return "unknown"
	}
	return featureNames[f]
}

// PanelTab is the tab currently selected in the side panel.
type PanelTab int

const (
	TabNone PanelTab = iota
	TabUsers
	TabChat
)

// ParsePanelTab maps the page's tab id attribute to a tab.
func ParsePanelTab(id string) PanelTab {
	switch id {
	case "1":
		return TabUsers
	case "2":
		return TabChat
	default:
		return TabNone
	}
}

func (t PanelTab) String() string {
	switch t {
	case TabUsers:
		return "users"
	case TabChat:
		return "chat"
	default:
		return "none"
	}
}

func (t PanelTab) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PanelTab) UnmarshalText(text []byte) error {
	switch string(text) {
	case "users":
		*t = TabUsers
	case "chat":
		*t = TabChat
	case "none", "":
		*t = TabNone
	default:
		return fmt.Errorf("unknown panel tab %q", text)
	}
	return nil
}

// Features holds the derived state of every watched control.
type Features struct {
	MicMuted    bool     `json:"mic_muted"`
	CamMuted    bool     `json:"cam_muted"`
	HandRaised  bool     `json:"hand_raised"`
	CaptionsOn  bool     `json:"captions_on"`
	Presenting  bool     `json:"presenting"`
	SelectedTab PanelTab `json:"selected_tab"`
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	Session        string   `json:"session"`
	Room           string   `json:"room"`
	Path           string   `json:"path"`
	Features       Features `json:"features"`
	PanelConnected bool     `json:"panel_connected"`
	LightAvailable bool     `json:"light_available"`
	LastUpdate     int64    `json:"last_update"`
}

// InMeeting reports whether the snapshot was taken inside a call.
func (s Snapshot) InMeeting() bool {
	return s.Room == Meeting.String()
}
