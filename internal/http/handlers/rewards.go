package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DailyStatus returns the caller's reward cycle position.
func (h *Handler) DailyStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	st, err := h.Rewards.Status(c.Request.Context(), userID, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DailyClaim claims today's login reward.
func (h *Handler) DailyClaim(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	res, err := h.Rewards.Claim(c.Request.Context(), userID, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	claimsTotal.Inc()
	c.JSON(http.StatusOK, res)
}
