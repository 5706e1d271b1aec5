// Package room holds the in-memory per-room seat state machines. Each room
// serializes its mutations through a bounded-wait lock so a contended room
// fails fast with store.ErrBusy instead of deadlocking.
package room

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/store"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomLocked      = errors.New("room locked")
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidSeat     = errors.New("invalid seat position")
	ErrSeatOccupied    = errors.New("seat occupied")
	ErrSeatLocked      = errors.New("seat locked")
	ErrAlreadySeated   = errors.New("already seated")
	ErrNotSeated       = errors.New("not seated")
	ErrNotAllowed      = errors.New("not allowed")
)

// EventFunc receives room state changes; wired to the websocket hub.
type EventFunc func(domain.RoomEvent)

type session struct {
	mu   store.TimedMutex
	room domain.Room
}

// Manager owns all room sessions. Rooms on different keys proceed fully in
// parallel; operations on one room are serialized.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*session
	lockWait time.Duration
	onEvent  EventFunc
}

func NewManager(lockWait time.Duration) *Manager {
	if lockWait <= 0 {
		lockWait = store.DefaultLockWait
	}
	return &Manager{rooms: make(map[string]*session), lockWait: lockWait}
}

// OnEvent registers the event sink. Call before the manager is shared.
func (m *Manager) OnEvent(fn EventFunc) {
	m.onEvent = fn
}

func (m *Manager) emit(ev domain.RoomEvent) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

// Create makes a room with a fixed seat array of 8 or 16.
func (m *Manager) Create(ctx context.Context, ownerID int64, capacity int) (domain.Room, error) {
	if capacity != domain.RoomCapacitySmall && capacity != domain.RoomCapacityLarge {
		return domain.Room{}, ErrInvalidCapacity
	}
	r := domain.Room{
		ID:        newRoomID(),
		OwnerID:   ownerID,
		Capacity:  capacity,
		Seats:     make([]domain.Seat, capacity),
		CreatedAt: time.Now().UTC(),
	}
	for i := range r.Seats {
		r.Seats[i].Position = i
	}

	m.mu.Lock()
	m.rooms[r.ID] = &session{room: r}
	m.mu.Unlock()
	return cloneRoom(&r), nil
}

func (m *Manager) get(roomID string) (*session, error) {
	m.mu.RLock()
	s, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

// withRoom runs fn holding the room's lock, or fails with store.ErrBusy.
func (m *Manager) withRoom(roomID string, fn func(r *domain.Room) error) error {
	s, err := m.get(roomID)
	if err != nil {
		return err
	}
	if err := s.mu.Lock(m.lockWait); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return fn(&s.room)
}

// Snapshot returns a copy of the room state.
func (m *Manager) Snapshot(ctx context.Context, roomID string) (domain.Room, error) {
	var out domain.Room
	err := m.withRoom(roomID, func(r *domain.Room) error {
		out = cloneRoom(r)
		return nil
	})
	return out, err
}

// JoinSeat seats userID at position. A freshly taken seat starts muted.
func (m *Manager) JoinSeat(ctx context.Context, roomID string, userID int64, position int) error {
	err := m.withRoom(roomID, func(r *domain.Room) error {
		if r.Locked {
			return ErrRoomLocked
		}
		if position < 0 || position >= len(r.Seats) {
			return ErrInvalidSeat
		}
		seat := &r.Seats[position]
		if seat.Locked {
			return ErrSeatLocked
		}
		if seat.Occupant != 0 {
			return ErrSeatOccupied
		}
		if r.SeatOf(userID) >= 0 {
			return ErrAlreadySeated
		}
		seat.Occupant = userID
		seat.Muted = true
		return nil
	})
	if err != nil {
		return err
	}
	m.emit(domain.RoomEvent{RoomID: roomID, Type: domain.RoomEventSeatJoined, Position: position, UserID: userID, Muted: true})
	return nil
}

// LeaveSeat vacates the user's seat, clearing the mute flag with it.
func (m *Manager) LeaveSeat(ctx context.Context, roomID string, userID int64) error {
	var position int
	err := m.withRoom(roomID, func(r *domain.Room) error {
		pos := r.SeatOf(userID)
		if pos < 0 {
			return ErrNotSeated
		}
		position = pos
		r.Seats[pos].Occupant = 0
		r.Seats[pos].Muted = false
		return nil
	})
	if err != nil {
		return err
	}
	m.emit(domain.RoomEvent{RoomID: roomID, Type: domain.RoomEventSeatLeft, Position: position, UserID: userID})
	return nil
}

// SetMute toggles the mute flag on the caller's own seat. asModerator lets
// an externally authorized caller mute any target.
func (m *Manager) SetMute(ctx context.Context, roomID string, callerID, targetID int64, muted bool, asModerator bool) error {
	if callerID != targetID && !asModerator {
		return ErrNotAllowed
	}
	var position int
	err := m.withRoom(roomID, func(r *domain.Room) error {
		pos := r.SeatOf(targetID)
		if pos < 0 {
			return ErrNotSeated
		}
		position = pos
		r.Seats[pos].Muted = muted
		return nil
	})
	if err != nil {
		return err
	}
	m.emit(domain.RoomEvent{RoomID: roomID, Type: domain.RoomEventSeatMuted, Position: position, UserID: targetID, Muted: muted})
	return nil
}

// LockSeat flips the lock flag. Locking an occupied seat does not evict the
// occupant; it only blocks joins after they leave. Moderation rights are
// checked by the caller.
func (m *Manager) LockSeat(ctx context.Context, roomID string, position int, locked bool) error {
	err := m.withRoom(roomID, func(r *domain.Room) error {
		if position < 0 || position >= len(r.Seats) {
			return ErrInvalidSeat
		}
		r.Seats[position].Locked = locked
		return nil
	})
	if err != nil {
		return err
	}
	m.emit(domain.RoomEvent{RoomID: roomID, Type: domain.RoomEventSeatLocked, Position: position, Locked: locked})
	return nil
}

// SetRoomLock flips the room-wide lock. A locked room rejects all seat joins;
// seated users stay and may still leave. Moderation rights are checked by the
// caller.
func (m *Manager) SetRoomLock(ctx context.Context, roomID string, locked bool) error {
	err := m.withRoom(roomID, func(r *domain.Room) error {
		r.Locked = locked
		return nil
	})
	if err != nil {
		return err
	}
	m.emit(domain.RoomEvent{RoomID: roomID, Type: domain.RoomEventRoomLocked, Locked: locked})
	return nil
}

// Owner returns the room owner, used for moderation checks upstream.
func (m *Manager) Owner(roomID string) (int64, error) {
	s, err := m.get(roomID)
	if err != nil {
		return 0, err
	}
	return s.room.OwnerID, nil
}

func cloneRoom(r *domain.Room) domain.Room {
	out := *r
	out.Seats = make([]domain.Seat, len(r.Seats))
	copy(out.Seats, r.Seats)
	return out
}

func newRoomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
