package domain

import "time"

// Room capacities supported at creation. The seat array is fixed for the
// lifetime of the room.
const (
	RoomCapacitySmall = 8
	RoomCapacityLarge = 16
)

// Seat is one slot in a room. Occupant 0 means vacant. A locked seat admits
// no occupant regardless of vacancy.
type Seat struct {
	Position int   `json:"position"`
	Occupant int64 `json:"occupant,omitempty"`
	Muted    bool  `json:"muted"`
	Locked   bool  `json:"locked"`
}

// Room is a voice room with a fixed seat array.
type Room struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Capacity  int       `json:"capacity"`
	Seats     []Seat    `json:"seats"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
}

// SeatOf returns the seat occupied by userID, or -1.
func (r *Room) SeatOf(userID int64) int {
	for i := range r.Seats {
		if r.Seats[i].Occupant == userID && userID != 0 {
			return i
		}
	}
	return -1
}

// RoomEventType identifies a room state change pushed to subscribers.
type RoomEventType string

const (
	RoomEventSeatJoined RoomEventType = "seat_joined"
	RoomEventSeatLeft   RoomEventType = "seat_left"
	RoomEventSeatMuted  RoomEventType = "seat_muted"
	RoomEventSeatLocked RoomEventType = "seat_locked"
	RoomEventRoomLocked RoomEventType = "room_locked"
)

// RoomEvent is broadcast to websocket subscribers of a room.
type RoomEvent struct {
	RoomID   string        `json:"room_id"`
	Type     RoomEventType `json:"type"`
	Position int           `json:"position"`
	UserID   int64         `json:"user_id,omitempty"`
	Muted    bool          `json:"muted,omitempty"`
	Locked   bool          `json:"locked,omitempty"`
}
