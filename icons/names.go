// Package icons resolves symbolic icon names to images sized for the panel.
package icons

const (
	Mic         = "mic"
	MicDisabled = "mic-disabled"
	Cam         = "cam"
	CamDisabled = "cam-disabled"
	Hand        = "hand"
	HandRaised  = "hand-raised"
	Captions    = "captions"
	CaptionsOn  = "captions-on"
	Present     = "present"
	PresentStop = "present-stop"
	Users       = "users"
	UsersOpen   = "users-open"
	Chat        = "chat"
	ChatOpen    = "chat-open"
	EndCall     = "end-call"
	Join        = "join"
	NewMeeting  = "new-meeting"
	Rejoin      = "rejoin"
	Home        = "home"
	HueOn       = "hue-on"
	HueOff      = "hue-off"
)

// All is the full icon vocabulary.
var All = []string{
	Mic, MicDisabled, Cam, CamDisabled, Hand, HandRaised, Captions, CaptionsOn,
	Present, PresentStop, Users, UsersOpen, Chat, ChatOpen, EndCall,
	Join, NewMeeting, Rejoin, Home, HueOn, HueOff,
}
