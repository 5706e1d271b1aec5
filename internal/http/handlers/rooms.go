package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Capacity int `json:"capacity"`
}

// CreateRoom opens a new room owned by the caller.
func (h *Handler) CreateRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Capacity == 0 {
		req.Capacity = 8
	}

	r, err := h.Rooms.Create(c.Request.Context(), userID, req.Capacity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Room returns a snapshot of the room state.
func (h *Handler) Room(c *gin.Context) {
	r, err := h.Rooms.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func seatPosition(c *gin.Context) (int, bool) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		badRequest(c, "invalid seat position")
		return 0, false
	}
	return pos, true
}

// JoinSeat seats the caller at the given position.
func (h *Handler) JoinSeat(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	pos, ok := seatPosition(c)
	if !ok {
		return
	}

	if err := h.Rooms.JoinSeat(c.Request.Context(), c.Param("id"), userID, pos); err != nil {
		fail(c, err)
		return
	}
	seatJoinsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"joined": true, "position": pos})
}

// LeaveSeat vacates the caller's seat.
func (h *Handler) LeaveSeat(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	if err := h.Rooms.LeaveSeat(c.Request.Context(), c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

type muteRequest struct {
	TargetID int64 `json:"target_id"`
	Muted    *bool `json:"muted" binding:"required"`
}

// SetMute toggles mute on the caller's seat, or on a target seat when the
// caller owns the room.
func (h *Handler) SetMute(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Muted == nil {
		badRequest(c, "muted is required")
		return
	}
	target := req.TargetID
	if target == 0 {
		target = userID
	}

	roomID := c.Param("id")
	asModerator := false
	if target != userID {
		owner, err := h.Rooms.Owner(roomID)
		if err != nil {
			fail(c, err)
			return
		}
		asModerator = owner == userID
	}

	if err := h.Rooms.SetMute(c.Request.Context(), roomID, userID, target, *req.Muted, asModerator); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"muted": *req.Muted})
}

type lockSeatRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// LockSeat flips the lock flag on a seat; room owner only.
func (h *Handler) LockSeat(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	pos, ok := seatPosition(c)
	if !ok {
		return
	}

	var req lockSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Locked == nil {
		badRequest(c, "locked is required")
		return
	}

	roomID := c.Param("id")
	owner, err := h.Rooms.Owner(roomID)
	if err != nil {
		fail(c, err)
		return
	}
	if owner != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "NOT_ALLOWED", "message": "room owner only"}})
		return
	}

	if err := h.Rooms.LockSeat(c.Request.Context(), roomID, pos, *req.Locked); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": *req.Locked})
}

type lockRoomRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// LockRoom flips the room-wide lock; room owner only. Seated users stay.
func (h *Handler) LockRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req lockRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Locked == nil {
		badRequest(c, "locked is required")
		return
	}

	roomID := c.Param("id")
	owner, err := h.Rooms.Owner(roomID)
	if err != nil {
		fail(c, err)
		return
	}
	if owner != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "NOT_ALLOWED", "message": "room owner only"}})
		return
	}

	if err := h.Rooms.SetRoomLock(c.Request.Context(), roomID, *req.Locked); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": *req.Locked})
}
