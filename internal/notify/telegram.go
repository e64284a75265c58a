package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/model"
	"votepay-gateway/pkg/logger"
)

// Notifier sends settlement alerts to an admin Telegram chat. It is
// optional: with no token or chat ID configured every call is a no-op.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *logger.Logger
}

// New creates a notifier. A missing token disables notifications rather
// than failing startup.
func New(cfg *config.NotifyConfig, log *logger.Logger) *Notifier {
	n := &Notifier{chatID: cfg.AdminChatID, logger: log}

	if cfg.TelegramToken == "" || cfg.AdminChatID == 0 {
		log.Info("Telegram notifications disabled")
		return n
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Telegram bot, notifications disabled")
		return n
	}
	n.bot = bot
	log.Info("Telegram notifications enabled", "bot", bot.Self.UserName)
	return n
}

// Enabled reports whether notifications will actually be sent
func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

// Settlement notifies the admin chat about a terminal payment outcome
func (n *Notifier) Settlement(reference string, result *model.ConfirmationResult) {
	if n.bot == nil {
		return
	}

	var text string
	if result.Outcome == model.OutcomeSuccess && result.VoteDetails != nil {
		d := result.VoteDetails
		text = fmt.Sprintf("Payment %s settled: %d vote(s) for %s (%s, %s)",
			reference, d.NumberOfVotes, d.Nominee, d.Category, d.Award)
	} else {
		text = fmt.Sprintf("Payment %s did not settle: %s", reference, result.Message)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.WithReference(reference).WithError(err).Warn("Failed to send settlement notification")
	}
}
