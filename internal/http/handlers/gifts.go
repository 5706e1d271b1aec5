package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GiftCatalog returns all sendable gifts.
func (h *Handler) GiftCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"gifts": h.Gifts.Catalog()})
}

type sendGiftRequest struct {
	GiftID     string  `json:"gift_id" binding:"required"`
	Recipients []int64 `json:"recipients" binding:"required"`
	Quantity   int64   `json:"quantity"`
}

// SendGift executes a gift from the caller to one or more recipients.
func (h *Handler) SendGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req sendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "gift_id and recipients are required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := h.Gifts.Send(c.Request.Context(), userID, req.Recipients, req.GiftID, req.Quantity, time.Now())
	if err != nil {
		// Legs that completed before the failure already moved funds; the
		// client needs them to reconcile.
		giftCoinsTotal.Add(float64(res.TotalCoinsSpent))
		status, code := errorKind(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
		body := gin.H{"error": gin.H{"code": code, "message": msg}}
		if res.Delivered > 0 {
			body["partial"] = res
		}
		c.JSON(status, body)
		return
	}
	giftsSentTotal.Inc()
	giftCoinsTotal.Add(float64(res.TotalCoinsSpent))
	c.JSON(http.StatusOK, res)
}
