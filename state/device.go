package state

import "image"

// Device is the button panel as seen by the tracker. Button names are
// resolved through the layout of the room last passed to SetRoom.
type Device interface {
	IsConnected() bool
	// ButtonNameToID returns a negative id when the name is not in the layout.
	ButtonNameToID(name string) int
	NameForID(id int) string
	FillButtonWithImage(id int, img image.Image) error
	ClearAllButtons() error
	SetRoom(room Room)
}

// Light is an optional lighting integration.
type Light interface {
	// Auto lights follow the room: on in the green room and meeting, off elsewhere.
	Auto() bool
	// Controllable lights get on/off buttons on the panel.
	Controllable() bool
	SetOn(on bool) error
}
