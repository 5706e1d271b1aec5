package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// VipTiers returns the full tier table.
func (h *Handler) VipTiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": h.Vip.Tiers()})
}

// VipTier returns the caller's purchased and effective tier.
func (h *Handler) VipTier(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	p, err := h.Profiles.VipProfile(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	now := time.Now()
	effective := h.Vip.Effective(p.Tier, p.ExpiresAt, now)
	resp := gin.H{
		"tier":           p.Tier,
		"effective_tier": effective,
		"expired":        h.Vip.Expired(p.ExpiresAt, now),
		"multiplier":     h.Vip.Multiplier(effective),
	}
	if !p.ExpiresAt.IsZero() {
		resp["expires_at"] = p.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}
