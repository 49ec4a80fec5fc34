package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"consultbot/models"
	"consultbot/utils"
)

// Sender delivers a formatted text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// NotificationService delivers booking reminders.
type NotificationService interface {
	SendReminder(ctx context.Context, b models.Booking, kind models.ReminderKind) error
}

// DefaultNotificationService renders reminders and hands them to the chat transport.
type DefaultNotificationService struct {
	sender Sender
	info   models.ServiceInfo
}

func NewDefaultNotificationService(sender Sender, info models.ServiceInfo) (*DefaultNotificationService, error) {
	if sender == nil {
		return nil, fmt.Errorf("notification service initialization error: sender is nil")
	}
	return &DefaultNotificationService{sender: sender, info: info}, nil
}

func (s *DefaultNotificationService) SendReminder(ctx context.Context, b models.Booking, kind models.ReminderKind) error {
	text := ReminderText(b, kind, s.info)
	if err := s.sender.SendText(ctx, b.UserID, text); err != nil {
		return fmt.Errorf("SendReminder: failed to send %s reminder for booking %s: %w", kind, b.ID, err)
	}
	return nil
}

// ReminderText renders the HTML reminder body for kind.
func ReminderText(b models.Booking, kind models.ReminderKind, info models.ServiceInfo) string {
	var sb strings.Builder
	switch kind {
	case models.ReminderDay:
		sb.WriteString("📅 <b>Reminder!</b>\n\n")
		when := "tomorrow"
		if info.ReminderDaysBefore != 1 {
			when = "in " + utils.CountNoun(info.ReminderDaysBefore, "a day", "days")
		}
		fmt.Fprintf(&sb, "You have a consultation %s:\n", when)
		fmt.Fprintf(&sb, "🗓 Date: %s\n", utils.FormatDate(b.Date))
		fmt.Fprintf(&sb, "🕐 Time: %s\n\n", b.Time)
		if info.Price != "" {
			fmt.Fprintf(&sb, "💰 Price: %s\n", html.EscapeString(info.Price))
		}
		if info.AdminContact != "" {
			fmt.Fprintf(&sb, "💳 Payment to the administrator: %s\n", html.EscapeString(info.AdminContact))
		}
		if info.Phone != "" {
			fmt.Fprintf(&sb, "📱 Phone: %s\n", html.EscapeString(info.Phone))
		}
		sb.WriteString("\nSee you soon!")
	default:
		sb.WriteString("⏰ <b>Reminder!</b>\n\n")
		fmt.Fprintf(&sb, "Your consultation starts in %s:\n", utils.CountNoun(info.ReminderHoursBefore, "an hour", "hours"))
		fmt.Fprintf(&sb, "🕐 Time: %s\n\n", b.Time)
		sb.WriteString("See you shortly!")
	}
	return sb.String()
}
