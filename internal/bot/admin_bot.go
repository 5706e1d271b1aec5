// Package bot runs the operator Telegram bot: balance lookups, manual coin
// adjustments and VIP grants, restricted to configured admin IDs.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
	"voicehub/internal/logger"
	"voicehub/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot handles operator commands over Telegram long polling.
type AdminBot struct {
	bot      *tgbotapi.BotAPI
	ledger   *economy.Ledger
	vipRepo  *repository.VipRepository
	adminIDs []int64
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

func NewAdminBot(token string, ledger *economy.Ledger, vipRepo *repository.VipRepository, adminIDs []int64) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", api.Self.UserName)

	return &AdminBot{
		bot:      api,
		ledger:   ledger,
		vipRepo:  vipRepo,
		adminIDs: adminIDs,
		stopCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start runs the update loop until Stop is called.
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop shuts the bot down, waiting briefly for in-flight handlers.
func (b *AdminBot) Stop() {
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()
	case "balance":
		response = b.cmdBalance(ctx, args)
	case "credit":
		response = b.cmdCredit(ctx, args)
	case "vip":
		response = b.cmdVip(ctx, args)
	default:
		response = "unknown command, see /help"
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("failed to send reply", "error", err)
	}
}

func (b *AdminBot) helpMessage() string {
	return strings.Join([]string{
		"/balance <user_id> — show coin and diamond balances",
		"/credit <user_id> <coins> [diamonds] — adjust balances",
		"/vip <user_id> <tier> <days> — grant a VIP tier",
	}, "\n")
}

func (b *AdminBot) cmdBalance(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "usage: /balance <user_id>"
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "invalid user id"
	}

	acc, err := b.ledger.Balances(ctx, userID)
	if err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("user %d: %d coins, %d diamonds", acc.UserID, acc.Coins, acc.Diamonds)
}

func (b *AdminBot) cmdCredit(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "usage: /credit <user_id> <coins> [diamonds]"
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "invalid user id"
	}
	coins, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "invalid coin amount"
	}
	var diamonds int64
	if len(args) > 2 {
		if diamonds, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return "invalid diamond amount"
		}
	}

	if _, err := b.ledger.Apply(ctx, userID, coins, diamonds, domain.TxAdminAdjust, 0); err != nil {
		return "error: " + err.Error()
	}
	acc, _ := b.ledger.Balances(ctx, userID)
	return fmt.Sprintf("done, user %d now has %d coins, %d diamonds", userID, acc.Coins, acc.Diamonds)
}

func (b *AdminBot) cmdVip(ctx context.Context, args []string) string {
	if len(args) < 3 {
		return "usage: /vip <user_id> <tier> <days>"
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "invalid user id"
	}
	tier, err := strconv.Atoi(args[1])
	if err != nil || tier < 0 || tier > 10 {
		return "invalid tier (0-10)"
	}
	days, err := strconv.Atoi(args[2])
	if err != nil || days < 1 {
		return "invalid duration"
	}

	expires := time.Now().UTC().AddDate(0, 0, days)
	if err := b.vipRepo.SetProfile(ctx, userID, tier, expires); err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("user %d granted VIP %d until %s", userID, tier, expires.Format("2006-01-02"))
}
