// Command telegram-check verifies the Telegram alert configuration and can
// push a sample opportunity to the configured chat.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/irfndi/cryptogap-go/internal/services"
)

type botClient interface {
	services.MessageSender
	GetMe(ctx context.Context) (*tgmodels.User, error)
}

var errTokenMissing = errors.New("TELEGRAM_BOT_TOKEN is not configured")

func main() {
	sendSample := flag.Bool("send", false, "send a sample opportunity alert to the configured chat")
	flag.Parse()

	fmt.Println("🔧 Validating Telegram alert configuration...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Telegram.BotToken == "" {
		fmt.Printf("❌ %v\n", errTokenMissing)
		os.Exit(1)
	}

	b, err := bot.New(cfg.Telegram.BotToken, bot.WithSkipGetMe())
	if err != nil {
		fmt.Printf("❌ Failed to create Telegram bot: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := check(ctx, cfg.Telegram, b, *sendSample, os.Stdout); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n🎉 All Telegram checks passed!")
}

func check(ctx context.Context, cfg config.TelegramConfig, client botClient, sendSample bool, out io.Writer) error {
	if cfg.BotToken == "" {
		return errTokenMissing
	}
	fmt.Fprintf(out, "✅ TELEGRAM_BOT_TOKEN is configured (length: %d)\n", len(cfg.BotToken))

	fmt.Fprintln(out, "🔍 Testing bot API connection...")
	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	fmt.Fprintf(out, "✅ Connected as @%s (%s, id %d)\n", me.Username, me.FirstName, me.ID)

	if cfg.ChatID == 0 {
		fmt.Fprintln(out, "⚠️  TELEGRAM_CHAT_ID is not configured, alerts will not be sent")
		if sendSample {
			return errors.New("cannot send a sample alert without a chat id")
		}
		return nil
	}
	fmt.Fprintf(out, "✅ TELEGRAM_CHAT_ID is configured: %d\n", cfg.ChatID)

	if !sendSample {
		return nil
	}
	ns := services.NewNotificationServiceWithSender(client, cfg.ChatID, nil)
	if err := ns.NotifyOpportunity(ctx, sampleOpportunity(time.Now())); err != nil {
		return fmt.Errorf("failed to send sample alert: %w", err)
	}
	fmt.Fprintln(out, "✅ Sample alert sent")
	return nil
}

func sampleOpportunity(now time.Time) models.ArbitrageOpportunity {
	return models.ArbitrageOpportunity{
		Symbol:       "BTC",
		Market:       "USDT",
		BuyExchange:  "kraken",
		SellExchange: "binance",
		BuyPrice:     decimal.NewFromInt(50000),
		SellPrice:    decimal.NewFromInt(50500),
		PriceDiffPct: decimal.NewFromInt(1),
		Timestamp:    now.UTC(),
	}
}
