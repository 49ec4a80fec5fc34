package handlers

import (
	"fmt"
	"html"
	"strings"

	"consultbot/models"
	"consultbot/utils"
)

// Callback data tokens.
const (
	cbBookAppointment = "book_appointment"
	cbSelectDate      = "select_date_"
	cbSelectTime      = "select_time_"
	cbConfirmBooking  = "confirm_booking"
	cbMyBookings      = "my_bookings"
	cbHelp            = "help"
	cbBackToMain      = "back_to_main"
	cbProcessing      = "processing"
	cbCancelBooking   = "cancel_booking_"
)

const maxDateButtons = 7

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

func mainMenuKeyboard(processing bool) [][]Button {
	first := Button{Text: "📅 Book a consultation", Data: cbBookAppointment}
	if processing {
		first = Button{Text: "⏳ Looking for free slots...", Data: cbProcessing}
	}
	return [][]Button{
		{first},
		{{Text: "📋 My bookings", Data: cbMyBookings}},
		{{Text: "ℹ️ Help", Data: cbHelp}},
	}
}

func backToMainKeyboard() [][]Button {
	return [][]Button{{{Text: "◀️ Main menu", Data: cbBackToMain}}}
}

func processingKeyboard() [][]Button {
	return [][]Button{{{Text: "⏳ Processing...", Data: cbProcessing}}}
}

// datesKeyboard lists at most maxDateButtons dates in slot order with their free-slot count.
func datesKeyboard(slots []models.TimeSlot) [][]Button {
	var dates []string
	counts := map[string]int{}
	for _, s := range slots {
		if counts[s.Date] == 0 {
			dates = append(dates, s.Date)
		}
		counts[s.Date]++
	}
	if len(dates) > maxDateButtons {
		dates = dates[:maxDateButtons]
	}

	rows := make([][]Button, 0, len(dates)+1)
	for _, d := range dates {
		rows = append(rows, []Button{{
			Text: fmt.Sprintf("%s - %d %s", utils.FormatDateShort(d), counts[d], plural(counts[d], "slot", "slots")),
			Data: cbSelectDate + d,
		}})
	}
	return append(rows, backToMainKeyboard()...)
}

func timesKeyboard(date string, slots []models.TimeSlot) [][]Button {
	var rows [][]Button
	var row []Button
	for _, s := range slots {
		if s.Date != date {
			continue
		}
		row = append(row, Button{Text: "🕐 " + s.Time, Data: cbSelectTime + date + "_" + utils.TimeToCallback(s.Time)})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []Button{{Text: "◀️ Back to dates", Data: cbBookAppointment}})
}

func confirmationKeyboard(date string) [][]Button {
	return [][]Button{
		{{Text: "✅ Confirm booking", Data: cbConfirmBooking}},
		{{Text: "◀️ Change time", Data: cbSelectDate + date}},
		{{Text: "❌ Cancel", Data: cbBackToMain}},
	}
}

func bookingsKeyboard(bookings []models.Booking) [][]Button {
	var rows [][]Button
	for _, b := range bookings {
		rows = append(rows, []Button{{
			Text: fmt.Sprintf("❌ Cancel %s %s", utils.FormatDateShort(b.Date), b.Time),
			Data: cbCancelBooking + b.ID,
		}})
	}
	return append(rows, backToMainKeyboard()...)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func welcomeText(info models.ServiceInfo) string {
	return fmt.Sprintf("👋 Welcome!\n\nHere you can book a %s.\nChoose an action below.", strings.ToLower(info.Name))
}

func helpText(info models.ServiceInfo, sched models.Schedule) string {
	var sb strings.Builder
	sb.WriteString("ℹ️ <b>How to book</b>\n\n")
	sb.WriteString("1. Press \"Book a consultation\"\n")
	sb.WriteString("2. Pick a date and a time\n")
	sb.WriteString("3. Send your contact details\n")
	sb.WriteString("4. Confirm the booking\n\n")
	fmt.Fprintf(&sb, "🕐 Working hours: %02d:00-%02d:00\n", sched.StartHour, sched.EndHour)
	fmt.Fprintf(&sb, "⏱ Duration: %s\n", sched.SlotDuration)
	if info.Price != "" {
		fmt.Fprintf(&sb, "💰 Price: %s\n", html.EscapeString(info.Price))
	}
	if info.AdminContact != "" {
		fmt.Fprintf(&sb, "👤 Administrator: %s\n", html.EscapeString(info.AdminContact))
	}
	sb.WriteString("\nCommands: /start, /mybookings, /help")
	return sb.String()
}

const (
	textSearchingSlots   = "⌛ Looking for free slots..."
	textNoSlots          = "😔 There are no free slots right now. Please try again later."
	textSlotsUnavailable = "❌ Could not load free dates. Please try again later or contact the administrator."
	textChooseDate       = "📅 Choose a date:"
	textNoTimes          = "😔 There is no free time on this date."
	textSlotTaken        = "😔 Sorry, this slot has just been taken. Please choose another time."
	textGenericError     = "❌ Something went wrong. Please try again."
	textSessionLost      = "❌ Booking details not found. Please start again."
	textUseStart         = "Use /start to open the menu."
	textRateLimited      = "⏳ Too many requests, please slow down."
	textNoBookings       = "📋 You have no upcoming bookings."
	textBookingCancelled = "✅ Your booking has been cancelled."
	textBookingNotFound  = "❌ Booking not found."
	textPleaseWait       = "Please wait..."
)

func chooseTimeText(date string) string {
	return fmt.Sprintf("🕐 Choose a time on %s:", utils.FormatDate(date))
}

func askContactText(date, clock string, info models.ServiceInfo) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Provisional booking:</b>\n\n")
	fmt.Fprintf(&sb, "📅 Date: %s\n", utils.FormatDate(date))
	fmt.Fprintf(&sb, "🕐 Time: %s\n", clock)
	if info.Price != "" {
		fmt.Fprintf(&sb, "💰 Price: %s\n", html.EscapeString(info.Price))
	}
	sb.WriteString("\n📞 Please send your contact details (name and phone or @username):")
	return sb.String()
}

func invalidContactText() string {
	return fmt.Sprintf("❌ Please send valid contact details (at least %d characters).\n\n"+
		"For example:\n• John Smith, +375 29 123 45 67\n• @john_smith", models.MinContactLength)
}

func confirmText(s *models.BookingSession, info models.ServiceInfo) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Please check your booking:</b>\n\n")
	fmt.Fprintf(&sb, "📅 Date: %s\n", utils.FormatDate(s.Date))
	fmt.Fprintf(&sb, "🕐 Time: %s\n", s.Time)
	fmt.Fprintf(&sb, "📞 Contact: %s\n", html.EscapeString(s.ContactInfo))
	if info.Price != "" {
		fmt.Fprintf(&sb, "💰 Price: %s\n", html.EscapeString(info.Price))
	}
	sb.WriteString("\nConfirm the booking?")
	return sb.String()
}

func bookingSuccessText(b *models.Booking, info models.ServiceInfo) string {
	var sb strings.Builder
	sb.WriteString("✅ <b>You are booked!</b>\n\n")
	fmt.Fprintf(&sb, "📅 Date: %s\n", utils.FormatDate(b.Date))
	fmt.Fprintf(&sb, "🕐 Time: %s\n", b.Time)
	fmt.Fprintf(&sb, "📞 Contact: %s\n\n", html.EscapeString(b.ContactInfo))
	if info.Price != "" {
		fmt.Fprintf(&sb, "💰 Price: %s\n", html.EscapeString(info.Price))
	}
	if info.AdminContact != "" {
		fmt.Fprintf(&sb, "💳 Payment to the administrator: %s\n", html.EscapeString(info.AdminContact))
	}
	if info.Phone != "" {
		fmt.Fprintf(&sb, "📱 Phone: %s\n", html.EscapeString(info.Phone))
	}
	fmt.Fprintf(&sb, "\nWe will remind you %s and %s before the appointment.",
		utils.CountNoun(info.ReminderDaysBefore, "a day", "days"),
		utils.CountNoun(info.ReminderHoursBefore, "an hour", "hours"))
	return sb.String()
}

func myBookingsText(bookings []models.Booking) string {
	if len(bookings) == 0 {
		return textNoBookings
	}
	var sb strings.Builder
	sb.WriteString("📋 <b>Your upcoming bookings:</b>\n")
	for i, b := range bookings {
		fmt.Fprintf(&sb, "\n%d. 📅 %s, 🕐 %s", i+1, utils.FormatDate(b.Date), b.Time)
	}
	return sb.String()
}
