package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Balances returns the caller's coin and diamond balances.
func (h *Handler) Balances(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	acc, err := h.Ledger.Balances(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// Transactions returns the caller's transaction history, newest first.
func (h *Handler) Transactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	txs, err := h.Ledger.History(c.Request.Context(), userID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type exchangeRequest struct {
	Diamonds int64 `json:"diamonds" binding:"required"`
}

// Exchange converts the caller's diamonds to coins at the fixed rate.
func (h *Handler) Exchange(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "diamonds is required")
		return
	}

	res, err := h.Ledger.Exchange(c.Request.Context(), userID, req.Diamonds)
	if err != nil {
		fail(c, err)
		return
	}
	exchangesTotal.Inc()
	c.JSON(http.StatusOK, res)
}
