package channels

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bookwormlabs/jarvisbot/pkg/bus"
	"github.com/bookwormlabs/jarvisbot/pkg/config"
	"github.com/bookwormlabs/jarvisbot/pkg/logger"
)

// Telegram caps messages at 4096 characters; leave room for a natural
// split around code blocks.
const telegramMessageLimit = 3500

// Telegram rejects callback data longer than 64 bytes.
const telegramCallbackDataLimit = 64

type TelegramChannel struct {
	*BaseChannel
	api    *tgbotapi.BotAPI
	config config.TelegramConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTelegramChannel validates the token against the API (NewBotAPI calls
// getMe), which doubles as the connectivity check.
func NewTelegramChannel(cfg config.TelegramConfig, bus *bus.MessageBus) (*TelegramChannel, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram session: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", bus, cfg.AllowFrom),
		api:         api,
		config:      cfg,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot")

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := c.api.GetUpdatesChan(updateCfg)

	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setRunning(true)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				c.handleUpdate(update)
			}
		}
	}()

	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.api.Self.UserName,
		"user_id":  c.api.Self.ID,
	})
	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot")
	c.setRunning(false)

	if c.cancel != nil {
		c.cancel()
	}
	c.api.StopReceivingUpdates()
	c.wg.Wait()
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", msg.ChatID, err)
	}
	if msg.Content == "" && len(msg.Choices) == 0 {
		return nil
	}

	chunks := splitMessage(msg.Content, telegramMessageLimit)
	for i, chunk := range chunks {
		out := tgbotapi.NewMessage(chatID, chunk)
		// Attach the reply keyboard to the final chunk only.
		if i == len(chunks)-1 && len(msg.Choices) > 0 {
			out.ReplyMarkup = choiceKeyboard(msg.Choices)
		}
		if _, err := c.api.Send(out); err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}

func choiceKeyboard(choices []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, choice := range choices {
		data := truncateBytes(choice, telegramCallbackDataLimit)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(choice, data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (c *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	// Inline keyboard taps come back as callback queries; replay them as
	// regular inbound text from that user.
	if cb := update.CallbackQuery; cb != nil && cb.From != nil && cb.Message != nil {
		if _, err := c.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			logger.WarnCF("telegram", "Failed to ack callback query", map[string]interface{}{
				"error": err.Error(),
			})
		}
		senderID := strconv.FormatInt(cb.From.ID, 10)
		chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)
		c.HandleMessage(senderID, cb.From.UserName, chatID, cb.Data, map[string]string{
			"callback": "true",
		})
		return
	}

	m := update.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return
	}
	if m.Text == "" {
		return
	}

	senderID := strconv.FormatInt(m.From.ID, 10)
	senderName := m.From.UserName
	if senderName == "" {
		senderName = m.From.FirstName
	}
	chatID := strconv.FormatInt(m.Chat.ID, 10)

	if !c.IsAllowed(senderID) {
		logger.DebugCF("telegram", "Message rejected by allowlist", map[string]interface{}{
			"user_id": senderID,
		})
		return
	}

	logger.DebugCF("telegram", "Received message", map[string]interface{}{
		"sender_name": senderName,
		"sender_id":   senderID,
		"preview":     truncate(m.Text, 50),
	})

	metadata := map[string]string{
		"message_id": strconv.Itoa(m.MessageID),
		"user_id":    senderID,
		"username":   m.From.UserName,
		"is_group":   fmt.Sprintf("%t", m.Chat.IsGroup() || m.Chat.IsSuperGroup()),
	}
	c.HandleMessage(senderID, senderName, chatID, m.Text, metadata)
}

// truncateBytes cuts s to at most max bytes without splitting a rune.
// The limit is a byte count; multi-byte text shrinks to fewer characters.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
