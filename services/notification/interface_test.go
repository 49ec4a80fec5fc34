package notification

import (
	"context"
	"errors"
	"testing"

	"consultbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	chatID int64
	text   string
	err    error
}

func (c *captureSender) SendText(_ context.Context, chatID int64, text string) error {
	c.chatID, c.text = chatID, text
	return c.err
}

func TestSendReminder(t *testing.T) {
	sender := &captureSender{}
	svc, err := NewDefaultNotificationService(sender, models.ServiceInfo{
		Price: "3000", AdminContact: "@admin", ReminderDaysBefore: 1, ReminderHoursBefore: 1,
	})
	require.NoError(t, err)

	b := models.Booking{ID: "b1", UserID: 42, Date: "2025-01-06", Time: "10:00"}
	require.NoError(t, svc.SendReminder(context.Background(), b, models.ReminderDay))
	assert.Equal(t, int64(42), sender.chatID)
	assert.Contains(t, sender.text, "tomorrow")
	assert.Contains(t, sender.text, "Monday, 6 January 2025")
	assert.Contains(t, sender.text, "@admin")

	require.NoError(t, svc.SendReminder(context.Background(), b, models.ReminderHour))
	assert.Contains(t, sender.text, "in an hour")
	assert.Contains(t, sender.text, "10:00")

	sender.err = errors.New("blocked by user")
	assert.Error(t, svc.SendReminder(context.Background(), b, models.ReminderHour))
}

func TestReminderText_ConfiguredLeadTimes(t *testing.T) {
	b := models.Booking{ID: "b1", Date: "2025-01-06", Time: "10:00"}
	info := models.ServiceInfo{AdminContact: "Anna <admin>", ReminderDaysBefore: 2, ReminderHoursBefore: 3}

	day := ReminderText(b, models.ReminderDay, info)
	assert.Contains(t, day, "in 2 days")
	assert.NotContains(t, day, "tomorrow")
	assert.Contains(t, day, "Anna &lt;admin&gt;")

	assert.Contains(t, ReminderText(b, models.ReminderHour, info), "in 3 hours")
}

func TestNewNotificationServiceRequiresSender(t *testing.T) {
	_, err := NewDefaultNotificationService(nil, models.ServiceInfo{})
	assert.Error(t, err)
}
