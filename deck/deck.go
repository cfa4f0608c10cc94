// Package deck is the button panel driver facade: room-aware layouts on top
// of a hardware or MQTT-bridged panel.
package deck

import (
	"errors"
	"image"
	"sync"

	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

// DefaultLayout is the layout key used when a room has no layout of its own.
const DefaultLayout = "default"

var ErrNotConnected = errors.New("panel not connected")

// Layouts maps a room name (or DefaultLayout) to button name -> key index.
type Layouts map[string]map[string]int

func DefaultLayouts() Layouts {
	return Layouts{
		DefaultLayout: {
			"mic": 0, "cam": 1, "hand": 2, "captions": 3, "present": 4,
			"users": 5, "chat": 6, "end-call": 7,
			"hue-on": 13, "hue-off": 14,
		},
		state.Lobby.String(): {
			"new-meeting": 0,
		},
		state.GreenRoom.String(): {
			"mic": 0, "cam": 1, "join": 2,
		},
		state.ExitHall.String(): {
			"rejoin": 0, "home": 1,
		},
	}
}

// Panel is the hardware side of a deck.
type Panel interface {
	Connected() bool
	KeySize() int
	SetImage(index int, img image.Image) error
	Clear() error
	// Keys delivers the index of every pressed key.
	Keys() <-chan int
}

// Deck implements state.Device.
type Deck struct {
	panel   Panel
	mu      sync.RWMutex
	layouts Layouts
	room    string
}

func New(panel Panel, layouts Layouts) *Deck {
	if layouts == nil {
		layouts = DefaultLayouts()
	}
	return &Deck{panel: panel, layouts: layouts, room: state.Undefined.String()}
}

func (d *Deck) SetLayouts(layouts Layouts) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layouts = layouts
}

func (d *Deck) SetRoom(room state.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.room = room.String()
}

func (d *Deck) IsConnected() bool {
	return d.panel != nil && d.panel.Connected()
}

func (d *Deck) KeySize() int {
	if d.panel == nil {
		return 0
	}
	return d.panel.KeySize()
}

// ButtonNameToID resolves name in the current room's layout, then in the
// default layout. It returns -1 when the name is not bound.
func (d *Deck) ButtonNameToID(name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if room, ok := d.layouts[d.room]; ok {
		if id, ok := room[name]; ok {
			return id
		}
	}
	if id, ok := d.layouts[DefaultLayout][name]; ok && !d.claimed(id) {
		return id
	}
	return -1
}

// NameForID is the reverse of ButtonNameToID.
func (d *Deck) NameForID(id int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if room, ok := d.layouts[d.room]; ok {
		for name, idx := range room {
			if idx == id {
				return name
			}
		}
	}
	for name, idx := range d.layouts[DefaultLayout] {
		if idx == id && !d.shadowed(name) {
			return name
		}
	}
	return ""
}

// claimed reports whether the current room layout already uses key id.
func (d *Deck) claimed(id int) bool {
	for _, idx := range d.layouts[d.room] {
		if idx == id {
			return true
		}
	}
	return false
}

// shadowed reports whether the current room layout rebinds name.
func (d *Deck) shadowed(name string) bool {
	_, ok := d.layouts[d.room][name]
	return ok
}

func (d *Deck) FillButtonWithImage(id int, img image.Image) error {
	if !d.IsConnected() {
		return ErrNotConnected
	}
	return d.panel.SetImage(id, img)
}

func (d *Deck) ClearAllButtons() error {
	if !d.IsConnected() {
		return ErrNotConnected
	}
	Logger.Trace().Msg("clearing all buttons")
	return d.panel.Clear()
}

func (d *Deck) Presses() <-chan int {
	if d.panel == nil {
		return nil
	}
	return d.panel.Keys()
}
