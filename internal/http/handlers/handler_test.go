package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
	"voicehub/internal/gift"
	"voicehub/internal/referral"
	"voicehub/internal/reward"
	"voicehub/internal/room"
	"voicehub/internal/store/memstore"
	"voicehub/internal/vip"

	"github.com/gin-gonic/gin"
)

func newTestHandler(t *testing.T) (*Handler, *economy.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wait := 250 * time.Millisecond
	ledger := economy.NewLedger(memstore.NewAccountStore(wait))
	registry := vip.NewRegistry()
	profiles := memstore.NewVipStore()

	h := &Handler{
		Ledger:   ledger,
		Rewards:  reward.NewScheduler(memstore.NewRewardStore(wait), ledger, registry, profiles),
		Vip:      registry,
		Profiles: profiles,
		Gifts:    gift.NewEngine(gift.NewCatalog(), ledger, registry, profiles, gift.Config{}),
		Rooms:    room.NewManager(wait),
		Referrals: referral.NewLedger(memstore.NewReferralStore(wait), ledger, referral.Config{
			WithdrawMin:      1000,
			WithdrawCooldown: 24 * time.Hour,
			RewardCoins:      5000,
			RewardCash:       100,
		}),
	}
	return h, ledger
}

// asUser injects the authenticated user the way the JWT middleware does.
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error envelope: %s", w.Body.String())
	}
	if body.Error.Code == "" || body.Error.Message == "" {
		t.Fatalf("incomplete error envelope: %s", w.Body.String())
	}
	return body.Error.Code
}

func TestBalancesAndExchange(t *testing.T) {
	h, ledger := newTestHandler(t)
	if _, err := ledger.Apply(context.Background(), 1, 0, 100000, domain.TxAdminAdjust, 0); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/balances", asUser(1), h.Balances)
	r.POST("/exchange", asUser(1), h.Exchange)

	w := doJSON(t, r, http.MethodGet, "/balances", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("balances: %d %s", w.Code, w.Body.String())
	}
	var acc domain.Account
	if err := json.Unmarshal(w.Body.Bytes(), &acc); err != nil {
		t.Fatal(err)
	}
	if acc.Diamonds != 100000 {
		t.Fatalf("got %+v", acc)
	}

	w = doJSON(t, r, http.MethodPost, "/exchange", gin.H{"diamonds": 100000})
	if w.Code != http.StatusOK {
		t.Fatalf("exchange: %d %s", w.Code, w.Body.String())
	}
	var res domain.ExchangeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.CoinsCredited != 30000 {
		t.Fatalf("exchange result: %+v", res)
	}
}

func TestExchangeInsufficientIsConflict(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/exchange", asUser(1), h.Exchange)

	w := doJSON(t, r, http.MethodPost, "/exchange", gin.H{"diamonds": 5})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "INSUFFICIENT_FUNDS" {
		t.Fatalf("code = %s", code)
	}
}

func TestDailyClaimConflictOnRepeat(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/claim", asUser(1), h.DailyClaim)

	w := doJSON(t, r, http.MethodPost, "/claim", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first claim: %d %s", w.Code, w.Body.String())
	}
	var res domain.ClaimResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Day != 1 || res.TotalCoins != 5000 {
		t.Fatalf("claim result: %+v", res)
	}

	w = doJSON(t, r, http.MethodPost, "/claim", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "ALREADY_CLAIMED" {
		t.Fatalf("code = %s", code)
	}
}

func TestSendGiftUnknownIs404(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/gifts/send", asUser(1), h.SendGift)

	w := doJSON(t, r, http.MethodPost, "/gifts/send", gin.H{
		"gift_id":    "unicorn",
		"recipients": []int64{2},
		"quantity":   1,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "UNKNOWN_GIFT" {
		t.Fatalf("code = %s", code)
	}
}

func TestRoomSeatFlow(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/rooms", asUser(1), h.CreateRoom)
	r.POST("/rooms/:id/seats/:pos/join", asUser(2), h.JoinSeat)

	w := doJSON(t, r, http.MethodPost, "/rooms", gin.H{"capacity": 8})
	if w.Code != http.StatusOK {
		t.Fatalf("create room: %d %s", w.Code, w.Body.String())
	}
	var created domain.Room
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	w = doJSON(t, r, http.MethodPost, "/rooms/"+created.ID+"/seats/0/join", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}

	// Same seat again from another user is a conflict
	r2 := gin.New()
	r2.POST("/rooms/:id/seats/:pos/join", asUser(3), h.JoinSeat)
	w = doJSON(t, r2, http.MethodPost, "/rooms/"+created.ID+"/seats/0/join", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "SEAT_OCCUPIED" {
		t.Fatalf("code = %s", code)
	}
}

func TestSendGiftPartialFailureReportsLegs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accounts := memstore.NewAccountStore(20 * time.Millisecond)
	ledger := economy.NewLedger(accounts)
	registry := vip.NewRegistry()
	profiles := memstore.NewVipStore()
	h := &Handler{
		Ledger: ledger,
		Gifts:  gift.NewEngine(gift.NewCatalog(), ledger, registry, profiles, gift.Config{}),
	}
	ctx := context.Background()
	if _, err := ledger.Apply(ctx, 1, 20, 0, domain.TxAdminAdjust, 0); err != nil {
		t.Fatal(err)
	}

	// Hold recipient 3's account so the second leg fails mid-fanout.
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = accounts.Update(ctx, 3, func(acc *domain.Account) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	r := gin.New()
	r.POST("/gifts/send", asUser(1), h.SendGift)
	w := doJSON(t, r, http.MethodPost, "/gifts/send", gin.H{
		"gift_id":    "rose",
		"recipients": []int64{2, 3},
		"quantity":   1,
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "BUSY" {
		t.Fatalf("code = %s", code)
	}
	var body struct {
		Partial domain.GiftSendResult `json:"partial"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Partial.Delivered != 1 || body.Partial.TotalCoinsSpent != 10 {
		t.Fatalf("partial legs missing from error body: %s", w.Body.String())
	}
}

func TestRoomLockOwnerOnly(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/rooms", asUser(1), h.CreateRoom)
	w := doJSON(t, r, http.MethodPost, "/rooms", gin.H{"capacity": 8})
	if w.Code != http.StatusOK {
		t.Fatalf("create room: %d", w.Code)
	}
	var created domain.Room
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// Non-owner may not lock
	stranger := gin.New()
	stranger.POST("/rooms/:id/lock", asUser(2), h.LockRoom)
	w = doJSON(t, stranger, http.MethodPost, "/rooms/"+created.ID+"/lock", gin.H{"locked": true})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}

	owner := gin.New()
	owner.POST("/rooms/:id/lock", asUser(1), h.LockRoom)
	w = doJSON(t, owner, http.MethodPost, "/rooms/"+created.ID+"/lock", gin.H{"locked": true})
	if w.Code != http.StatusOK {
		t.Fatalf("owner lock: %d %s", w.Code, w.Body.String())
	}

	join := gin.New()
	join.POST("/rooms/:id/seats/:pos/join", asUser(2), h.JoinSeat)
	w = doJSON(t, join, http.MethodPost, "/rooms/"+created.ID+"/seats/0/join", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on locked room, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "ROOM_LOCKED" {
		t.Fatalf("code = %s", code)
	}
}

func TestUnauthenticatedRequest(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/balances", h.Balances)

	w := doJSON(t, r, http.MethodGet, "/balances", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
