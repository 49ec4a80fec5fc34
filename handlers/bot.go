package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"consultbot/middleware"
	"consultbot/models"
	"consultbot/services/booking"
	"consultbot/services/session"
	"consultbot/utils"

	"go.uber.org/zap"
)

// OutMessage is a rendered chat message.
type OutMessage struct {
	ChatID   int64
	Text     string
	HTML     bool
	Keyboard [][]Button
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Send(ctx context.Context, msg OutMessage) error
	// Edit replaces the text and keyboard of an earlier message.
	Edit(ctx context.Context, messageID int, msg OutMessage) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Update is one inbound chat event. Exactly one of Command, CallbackData or Text is set.
type Update struct {
	UserID      int64
	ChatID      int64
	DisplayName string

	Command string

	CallbackID   string
	CallbackData string
	MessageID    int

	Text string
}

// Bot routes chat events through the booking flow.
type Bot struct {
	messenger Messenger
	bookings  *booking.Service
	sessions  *session.Manager
	limiter   *middleware.KeyedLimiter
	info      models.ServiceInfo
	logger    *zap.Logger

	userLocks *utils.KeyedMutex
}

func NewBot(messenger Messenger, bookings *booking.Service, sessions *session.Manager, limiter *middleware.KeyedLimiter, info models.ServiceInfo, logger *zap.Logger) *Bot {
	return &Bot{
		messenger: messenger,
		bookings:  bookings,
		sessions:  sessions,
		limiter:   limiter,
		info:      info,
		logger:    logger,
		userLocks: utils.NewKeyedMutex(),
	}
}

// HandleUpdate processes a single event; events of one user are handled one at a time. Errors are logged and turned into an
// apology with a way back to the menu.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	defer b.userLocks.Lock(strconv.FormatInt(u.UserID, 10))()

	logger := b.logger.With(zap.Int64("userId", u.UserID))

	if u.CallbackID != "" {
		text := ""
		if u.CallbackData == cbProcessing {
			text = textPleaseWait
		}
		if err := b.messenger.AnswerCallback(ctx, u.CallbackID, text); err != nil {
			logger.Warn("Failed to answer callback", zap.Error(err))
		}
		if u.CallbackData == cbProcessing {
			return
		}
	}

	if b.limiter != nil && !b.limiter.Allow(strconv.FormatInt(u.UserID, 10)) {
		logger.Warn("User rate limit exceeded")
		b.reply(ctx, u, OutMessage{Text: textRateLimited})
		return
	}

	var err error
	switch {
	case u.Command != "":
		err = b.handleCommand(ctx, u)
	case u.CallbackData != "":
		err = b.handleCallback(ctx, u)
	case u.Text != "":
		err = b.handleText(ctx, u)
	default:
		return
	}
	if err != nil {
		logger.Error("Failed to handle update", zap.String("command", u.Command), zap.String("callback", u.CallbackData), zap.Error(err))
		b.reply(ctx, u, OutMessage{Text: textGenericError, Keyboard: backToMainKeyboard()})
	}
}

func (b *Bot) handleCommand(ctx context.Context, u Update) error {
	switch u.Command {
	case "start":
		if err := b.sessions.Reset(ctx, u.UserID); err != nil {
			return err
		}
		return b.send(ctx, u, OutMessage{Text: welcomeText(b.info), Keyboard: mainMenuKeyboard(false)})
	case "help":
		return b.send(ctx, u, b.helpMessage())
	case "mybookings":
		return b.send(ctx, u, b.myBookingsMessage(ctx, u.UserID))
	default:
		return b.send(ctx, u, OutMessage{Text: textUseStart})
	}
}

func (b *Bot) handleCallback(ctx context.Context, u Update) error {
	data := u.CallbackData
	switch {
	case data == cbBookAppointment:
		return b.showDates(ctx, u)
	case strings.HasPrefix(data, cbSelectDate):
		return b.showTimes(ctx, u, strings.TrimPrefix(data, cbSelectDate))
	case strings.HasPrefix(data, cbSelectTime):
		return b.selectTime(ctx, u, strings.TrimPrefix(data, cbSelectTime))
	case data == cbConfirmBooking:
		return b.confirm(ctx, u)
	case data == cbMyBookings:
		return b.reply(ctx, u, b.myBookingsMessage(ctx, u.UserID))
	case strings.HasPrefix(data, cbCancelBooking):
		return b.cancelBooking(ctx, u, strings.TrimPrefix(data, cbCancelBooking))
	case data == cbHelp:
		return b.reply(ctx, u, b.helpMessage())
	case data == cbBackToMain:
		if err := b.sessions.Reset(ctx, u.UserID); err != nil {
			return err
		}
		return b.reply(ctx, u, OutMessage{Text: welcomeText(b.info), Keyboard: mainMenuKeyboard(false)})
	default:
		b.logger.Warn("Unknown callback", zap.String("data", data))
		return b.reply(ctx, u, OutMessage{Text: textUseStart, Keyboard: mainMenuKeyboard(false)})
	}
}

func (b *Bot) showDates(ctx context.Context, u Update) error {
	_ = b.reply(ctx, u, OutMessage{Text: textSearchingSlots, Keyboard: mainMenuKeyboard(true)})

	slots, err := b.bookings.Resolver().AvailableSlots(ctx)
	if err != nil {
		return b.reply(ctx, u, OutMessage{Text: textSlotsUnavailable, Keyboard: backToMainKeyboard()})
	}
	if len(slots) == 0 {
		return b.reply(ctx, u, OutMessage{Text: textNoSlots, Keyboard: backToMainKeyboard()})
	}
	return b.reply(ctx, u, OutMessage{Text: textChooseDate, Keyboard: datesKeyboard(slots)})
}

func (b *Bot) showTimes(ctx context.Context, u Update, date string) error {
	if _, err := b.sessions.SelectDate(ctx, u.UserID, u.DisplayName, date); err != nil {
		return err
	}
	slots, err := b.bookings.Resolver().AvailableSlots(ctx)
	if err != nil {
		return b.reply(ctx, u, OutMessage{Text: textSlotsUnavailable, Keyboard: backToMainKeyboard()})
	}
	kb := timesKeyboard(date, slots)
	if len(kb) == 1 {
		return b.reply(ctx, u, OutMessage{Text: textNoTimes, Keyboard: backToMainKeyboard()})
	}
	return b.reply(ctx, u, OutMessage{Text: chooseTimeText(date), Keyboard: kb})
}

// selectTime handles "<date>_<HH-MM>".
func (b *Bot) selectTime(ctx context.Context, u Update, arg string) error {
	date, rawTime, ok := strings.Cut(arg, "_")
	if !ok {
		return errors.New("malformed time callback " + arg)
	}
	clock := utils.TimeFromCallback(rawTime)

	if b.bookings.Resolver().IsSlotTaken(ctx, date, clock) {
		return b.reply(ctx, u, OutMessage{Text: textSlotTaken, Keyboard: backToMainKeyboard()})
	}
	if _, err := b.sessions.SelectTime(ctx, u.UserID, u.DisplayName, date, clock); err != nil {
		return err
	}
	return b.reply(ctx, u, OutMessage{Text: askContactText(date, clock, b.info), HTML: true, Keyboard: backToMainKeyboard()})
}

func (b *Bot) handleText(ctx context.Context, u Update) error {
	s, err := b.sessions.SubmitContact(ctx, u.UserID, u.Text)
	switch {
	case errors.Is(err, session.ErrNotWaitingForContact):
		return b.send(ctx, u, OutMessage{Text: textUseStart})
	case errors.Is(err, session.ErrContactTooShort):
		return b.send(ctx, u, OutMessage{Text: invalidContactText()})
	case err != nil:
		return err
	}
	return b.send(ctx, u, OutMessage{Text: confirmText(s, b.info), HTML: true, Keyboard: confirmationKeyboard(s.Date)})
}

func (b *Bot) confirm(ctx context.Context, u Update) error {
	s, err := b.sessions.Get(ctx, u.UserID)
	if err != nil {
		return err
	}
	if s.State != models.SessionContactEntered {
		return b.reply(ctx, u, OutMessage{Text: textSessionLost, Keyboard: backToMainKeyboard()})
	}
	_ = b.reply(ctx, u, OutMessage{Text: textPleaseWait, Keyboard: processingKeyboard()})

	displayName := s.DisplayName
	if displayName == "" {
		displayName = u.DisplayName
	}
	created, err := b.bookings.CreateBooking(ctx, booking.BookingRequest{
		UserID:      u.UserID,
		DisplayName: displayName,
		Date:        s.Date,
		Time:        s.Time,
		ContactInfo: s.ContactInfo,
	})
	if resetErr := b.sessions.Reset(ctx, u.UserID); resetErr != nil {
		b.logger.Warn("Failed to reset session", zap.Int64("userId", u.UserID), zap.Error(resetErr))
	}

	switch {
	case err == nil:
		return b.reply(ctx, u, OutMessage{Text: bookingSuccessText(created, b.info), HTML: true, Keyboard: backToMainKeyboard()})
	case errors.Is(err, booking.ErrSlotTaken), errors.Is(err, booking.ErrInvalidSlot):
		return b.reply(ctx, u, OutMessage{Text: textSlotTaken, Keyboard: backToMainKeyboard()})
	default:
		b.logger.Error("Booking failed", zap.Int64("userId", u.UserID), zap.Error(err))
		return b.reply(ctx, u, OutMessage{Text: textGenericError, Keyboard: backToMainKeyboard()})
	}
}

func (b *Bot) cancelBooking(ctx context.Context, u Update, bookingID string) error {
	err := b.bookings.CancelBooking(ctx, bookingID, u.UserID)
	switch {
	case err == nil:
		return b.reply(ctx, u, OutMessage{Text: textBookingCancelled, Keyboard: backToMainKeyboard()})
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrNotOwner):
		return b.reply(ctx, u, OutMessage{Text: textBookingNotFound, Keyboard: backToMainKeyboard()})
	default:
		return err
	}
}

func (b *Bot) helpMessage() OutMessage {
	return OutMessage{Text: helpText(b.info, b.bookings.Resolver().Schedule()), HTML: true, Keyboard: backToMainKeyboard()}
}

func (b *Bot) myBookingsMessage(ctx context.Context, userID int64) OutMessage {
	upcoming := b.bookings.UpcomingBookings(ctx, userID)
	return OutMessage{Text: myBookingsText(upcoming), HTML: true, Keyboard: bookingsKeyboard(upcoming)}
}

func (b *Bot) send(ctx context.Context, u Update, msg OutMessage) error {
	msg.ChatID = u.ChatID
	return b.messenger.Send(ctx, msg)
}

// reply edits the message a callback came from, or sends a new one.
func (b *Bot) reply(ctx context.Context, u Update, msg OutMessage) error {
	msg.ChatID = u.ChatID
	if u.MessageID != 0 {
		return b.messenger.Edit(ctx, u.MessageID, msg)
	}
	return b.messenger.Send(ctx, msg)
}
