package state

// Room is one of the mutually exclusive screens the meeting page can show.
type Room int

const (
	Undefined Room = iota
	Lobby
	GreenRoom
	Meeting
	ExitHall
)

var roomNames = [...]string{"undefined", "lobby", "greenRoom", "meeting", "exitHall"}

func (r Room) String() string {
	if r < Undefined || int(r) >= len(roomNames) {
		return "undefined"
	}
	return roomNames[r]
}

// ParseRoom maps a room name back to its value.
func ParseRoom(name string) (Room, bool) {
	for i, n := range roomNames {
		if n == name {
			return Room(i), true
		}
	}
	return Undefined, false
}

// Rooms lists every room a page can be classified into.
func Rooms() []Room {
	return []Room{Lobby, GreenRoom, Meeting, ExitHall}
}
