package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/models"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*tgmodels.Message)
	return msg, args.Error(1)
}

func alertOpportunity() models.ArbitrageOpportunity {
	return models.ArbitrageOpportunity{
		Symbol:       "ETH",
		Market:       "USDT",
		BuyExchange:  "kraken",
		SellExchange: "binance",
		BuyPrice:     decimal.RequireFromString("2000"),
		SellPrice:    decimal.RequireFromString("2040"),
		PriceDiffPct: decimal.RequireFromString("2"),
		Timestamp:    time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestNewNotificationService_WithoutToken(t *testing.T) {
	ns, err := NewNotificationService(config.TelegramConfig{ChatID: 42}, nil)
	require.NoError(t, err)
	assert.False(t, ns.Enabled())

	err = ns.NotifyOpportunity(context.Background(), alertOpportunity())
	assert.ErrorIs(t, err, ErrNotificationsDisabled)
}

func TestNotificationService_RequiresChat(t *testing.T) {
	ns := NewNotificationServiceWithSender(&mockSender{}, 0, nil)
	assert.False(t, ns.Enabled())
	assert.ErrorIs(t, ns.NotifyOpportunity(context.Background(), alertOpportunity()), ErrNotificationsDisabled)
}

func TestNotificationService_SendsToChat(t *testing.T) {
	sender := &mockSender{}
	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *bot.SendMessageParams) bool {
		return p.ChatID == int64(42) && p.ParseMode == tgmodels.ParseModeMarkdown
	})).Return(&tgmodels.Message{ID: 1}, nil).Once()

	ns := NewNotificationServiceWithSender(sender, 42, nil)
	require.NoError(t, ns.NotifyOpportunity(context.Background(), alertOpportunity()))
	sender.AssertExpectations(t)
}

func TestNotificationService_SendError(t *testing.T) {
	sender := &mockSender{}
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	ns := NewNotificationServiceWithSender(sender, 42, nil)
	err := ns.NotifyOpportunity(context.Background(), alertOpportunity())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFormatOpportunityMessage(t *testing.T) {
	msg := formatOpportunityMessage(alertOpportunity())

	assert.Contains(t, msg, "*ETH/USDT*")
	assert.Contains(t, msg, "Buy on Kraken at 2000")
	assert.Contains(t, msg, "Sell on Binance at 2040")
	assert.Contains(t, msg, "Gap: *2.00%*")
	assert.Contains(t, msg, "2024-03-01 12:30:00 UTC")
}
