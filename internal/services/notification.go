package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/irfndi/cryptogap-go/internal/telemetry"
)

// ErrNotificationsDisabled is returned when no bot token or chat is configured.
var ErrNotificationsDisabled = errors.New("telegram notifications disabled")

// Notifier delivers alerts about new top opportunities.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) error
}

// MessageSender is the part of the Telegram bot API the service uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// NotificationService sends opportunity alerts to a single Telegram chat.
type NotificationService struct {
	sender MessageSender
	chatID int64
	tracer *telemetry.BusinessTracer
	logger *slog.Logger
}

// NewNotificationService creates the Telegram bot when a token is configured.
// Without a token the service is returned disabled.
func NewNotificationService(cfg config.TelegramConfig, logger *slog.Logger) (*NotificationService, error) {
	var sender MessageSender
	if cfg.BotToken != "" {
		b, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		sender = b
	}
	return NewNotificationServiceWithSender(sender, cfg.ChatID, logger), nil
}

// NewNotificationServiceWithSender wires an existing sender.
func NewNotificationServiceWithSender(sender MessageSender, chatID int64, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		sender: sender,
		chatID: chatID,
		tracer: telemetry.NewBusinessTracer(),
		logger: logger.With("component", "notification_service"),
	}
}

// Enabled reports whether alerts can be delivered.
func (ns *NotificationService) Enabled() bool {
	return ns.sender != nil && ns.chatID != 0
}

// NotifyOpportunity sends one alert for opp.
func (ns *NotificationService) NotifyOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) (err error) {
	if !ns.Enabled() {
		return ErrNotificationsDisabled
	}

	ctx, span := ns.tracer.TraceNotification(ctx, "arbitrage_opportunity", "telegram")
	defer func() { telemetry.End(span, err) }()

	_, err = ns.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      formatOpportunityMessage(opp),
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		ns.logger.Error("Failed to send telegram alert", "symbol", opp.Symbol, "error", err)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	ns.logger.Info("Sent opportunity alert",
		"symbol", opp.Symbol,
		"market", opp.Market,
		"price_diff_pct", opp.PriceDiffPct.StringFixed(2))
	return nil
}

func formatOpportunityMessage(opp models.ArbitrageOpportunity) string {
	var sb strings.Builder
	sb.WriteString("🚨 *New Top Arbitrage Opportunity*\n\n")
	fmt.Fprintf(&sb, "💰 *%s*\n", opp.Pair())
	fmt.Fprintf(&sb, "📈 Buy on %s at %s\n", exchange.DisplayName(opp.BuyExchange), opp.BuyPrice.String())
	fmt.Fprintf(&sb, "📉 Sell on %s at %s\n", exchange.DisplayName(opp.SellExchange), opp.SellPrice.String())
	fmt.Fprintf(&sb, "💵 Gap: *%s%%*\n", opp.PriceDiffPct.StringFixed(2))
	fmt.Fprintf(&sb, "\n⏰ %s UTC", opp.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	return sb.String()
}
