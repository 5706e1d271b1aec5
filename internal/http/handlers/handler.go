package handlers

import (
	"errors"
	"net/http"

	"voicehub/internal/economy"
	"voicehub/internal/gift"
	"voicehub/internal/referral"
	"voicehub/internal/reward"
	"voicehub/internal/room"
	"voicehub/internal/store"
	"voicehub/internal/vip"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler bundles the core services behind the HTTP surface.
type Handler struct {
	DB        *pgxpool.Pool
	Ledger    *economy.Ledger
	Rewards   *reward.Scheduler
	Vip       *vip.Registry
	Profiles  vip.ProfileStore
	Gifts     *gift.Engine
	Rooms     *room.Manager
	Referrals *referral.Ledger
}

func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "user not found"}})
}

// errorKind maps a core error to the wire code and HTTP status. Conflict-class
// conditions (funds, seats, claims, contention) come back as 409 so clients
// can retry after correcting the condition.
func errorKind(err error) (status int, code string) {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		return http.StatusConflict, "INSUFFICIENT_FUNDS"
	case errors.Is(err, economy.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, economy.ErrSameAccount):
		return http.StatusBadRequest, "SAME_ACCOUNT"
	case errors.Is(err, reward.ErrAlreadyClaimed):
		return http.StatusConflict, "ALREADY_CLAIMED"
	case errors.Is(err, gift.ErrUnknownGift):
		return http.StatusNotFound, "UNKNOWN_GIFT"
	case errors.Is(err, gift.ErrGiftDisabled):
		return http.StatusBadRequest, "GIFT_DISABLED"
	case errors.Is(err, gift.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY"
	case errors.Is(err, gift.ErrNoRecipients):
		return http.StatusBadRequest, "NO_RECIPIENTS"
	case errors.Is(err, gift.ErrSelfGift):
		return http.StatusBadRequest, "SELF_GIFT"
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound, "ROOM_NOT_FOUND"
	case errors.Is(err, room.ErrInvalidCapacity):
		return http.StatusBadRequest, "INVALID_CAPACITY"
	case errors.Is(err, room.ErrInvalidSeat):
		return http.StatusBadRequest, "INVALID_SEAT"
	case errors.Is(err, room.ErrSeatOccupied):
		return http.StatusConflict, "SEAT_OCCUPIED"
	case errors.Is(err, room.ErrSeatLocked):
		return http.StatusConflict, "SEAT_LOCKED"
	case errors.Is(err, room.ErrRoomLocked):
		return http.StatusConflict, "ROOM_LOCKED"
	case errors.Is(err, room.ErrAlreadySeated):
		return http.StatusConflict, "ALREADY_SEATED"
	case errors.Is(err, room.ErrNotSeated):
		return http.StatusConflict, "NOT_SEATED"
	case errors.Is(err, room.ErrNotAllowed):
		return http.StatusForbidden, "NOT_ALLOWED"
	case errors.Is(err, referral.ErrAlreadyBound):
		return http.StatusConflict, "ALREADY_BOUND"
	case errors.Is(err, referral.ErrInvalidCode):
		return http.StatusBadRequest, "INVALID_CODE"
	case errors.Is(err, referral.ErrBelowMinimum):
		return http.StatusBadRequest, "BELOW_MINIMUM"
	case errors.Is(err, referral.ErrCooldownActive):
		return http.StatusConflict, "COOLDOWN_ACTIVE"
	case errors.Is(err, referral.ErrBadTransition):
		return http.StatusConflict, "BAD_TRANSITION"
	case errors.Is(err, store.ErrBusy):
		return http.StatusConflict, "BUSY"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// fail writes the JSON error envelope for a core error.
func fail(c *gin.Context, err error) {
	status, code := errorKind(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": msg}})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": msg}})
}
