package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type bindReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// BindReferral binds the caller to the inviter owning the code.
func (h *Handler) BindReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req bindReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}

	edge, err := h.Referrals.Bind(c.Request.Context(), userID, req.Code, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edge": edge})
}

// ReferralStats returns the caller's code, invite counts and withdrawable
// balance.
func (h *Handler) ReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	stats, err := h.Referrals.Stats(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type withdrawRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// WithdrawReferral debits the caller's withdrawable referral earnings.
func (h *Handler) WithdrawReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}

	if err := h.Referrals.Withdraw(c.Request.Context(), userID, req.Amount, time.Now()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": req.Amount})
}
