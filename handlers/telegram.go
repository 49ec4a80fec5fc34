package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"consultbot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TelegramMessenger implements Messenger and notification.Sender over the Bot API.
type TelegramMessenger struct {
	api *tgbotapi.BotAPI
}

func NewTelegramMessenger(token string) (*TelegramMessenger, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramMessenger{api: api}, nil
}

func (t *TelegramMessenger) API() *tgbotapi.BotAPI { return t.api }

func toMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		kb = append(kb, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func (t *TelegramMessenger) Send(_ context.Context, msg OutMessage) error {
	m := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.HTML {
		m.ParseMode = tgbotapi.ModeHTML
	}
	if len(msg.Keyboard) > 0 {
		m.ReplyMarkup = toMarkup(msg.Keyboard)
	}
	_, err := t.api.Send(m)
	return err
}

func (t *TelegramMessenger) Edit(_ context.Context, messageID int, msg OutMessage) error {
	var e tgbotapi.EditMessageTextConfig
	if len(msg.Keyboard) > 0 {
		e = tgbotapi.NewEditMessageTextAndMarkup(msg.ChatID, messageID, msg.Text, toMarkup(msg.Keyboard))
	} else {
		e = tgbotapi.NewEditMessageText(msg.ChatID, messageID, msg.Text)
	}
	if msg.HTML {
		e.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := t.api.Request(e); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return err
	}
	return nil
}

func (t *TelegramMessenger) AnswerCallback(_ context.Context, callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// SendText sends an HTML message; used for reminders.
func (t *TelegramMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	return t.Send(ctx, OutMessage{ChatID: chatID, Text: text, HTML: true})
}

// SetWebhook registers url with Telegram.
func (t *TelegramMessenger) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = t.api.Request(wh)
	return err
}

// DeleteWebhook switches the bot back to long polling.
func (t *TelegramMessenger) DeleteWebhook() error {
	_, err := t.api.Request(tgbotapi.DeleteWebhookConfig{})
	return err
}

// FromTelegram converts a Bot API update; ok is false for unsupported updates.
func FromTelegram(upd tgbotapi.Update) (Update, bool) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return Update{}, false
		}
		return Update{
			UserID:       q.From.ID,
			ChatID:       q.Message.Chat.ID,
			DisplayName:  displayName(q.From),
			CallbackID:   q.ID,
			CallbackData: q.Data,
			MessageID:    q.Message.MessageID,
		}, true
	case upd.Message != nil:
		m := upd.Message
		if m.From == nil || m.Chat == nil {
			return Update{}, false
		}
		u := Update{UserID: m.From.ID, ChatID: m.Chat.ID, DisplayName: displayName(m.From)}
		if m.IsCommand() {
			u.Command = m.Command()
		} else {
			u.Text = m.Text
		}
		return u, u.Command != "" || u.Text != ""
	}
	return Update{}, false
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RunPolling feeds long-polled updates into the bot until ctx is done.
func RunPolling(ctx context.Context, messenger *TelegramMessenger, bot *Bot, logger *zap.Logger) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := messenger.api.GetUpdatesChan(cfg)
	logger.Info("Telegram polling started", zap.String("bot", messenger.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			messenger.api.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if u, ok := FromTelegram(upd); ok {
				go bot.HandleUpdate(ctx, u)
			}
		}
	}
}

// TelegramWebhookHandler accepts updates pushed by Telegram.
func TelegramWebhookHandler(bot *Bot) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd tgbotapi.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid telegram update", err.Error())
			return
		}
		if u, ok := FromTelegram(upd); ok {
			bot.HandleUpdate(c.Request.Context(), u)
		}
		c.Status(http.StatusOK)
	}
}
