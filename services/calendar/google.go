package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const bookingIDProperty = "booking_id"

// GoogleCalendar implements Calendar on top of the Google Calendar v3 API.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
	timeout    time.Duration
	logger     *zap.Logger
}

// NewGoogleCalendar authenticates with a service-account key file.
func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID string, loc *time.Location, timeout time.Duration, logger *zap.Logger) (*GoogleCalendar, error) {
	return NewGoogleCalendarWithOptions(ctx, calendarID, loc, timeout, logger,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
}

// NewGoogleCalendarWithOptions builds the adapter from arbitrary client options,
// e.g. a custom endpoint or HTTP client.
func NewGoogleCalendarWithOptions(ctx context.Context, calendarID string, loc *time.Location, timeout time.Duration, logger *zap.Logger, opts ...option.ClientOption) (*GoogleCalendar, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendar{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var out []Event
	call := g.svc.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := g.toEvent(item)
			if err != nil {
				g.logger.Warn("Skipping unparsable calendar event", zap.String("eventId", item.Id), zap.Error(err))
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, &TransientError{Op: "list", Err: err}
	}
	return out, nil
}

func (g *GoogleCalendar) InsertEvent(ctx context.Context, ev Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	item := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if ev.BookingID != "" {
		item.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{bookingIDProperty: ev.BookingID},
		}
	}

	created, err := g.svc.Events.Insert(g.calendarID, item).Context(ctx).Do()
	if err != nil {
		return "", &TransientError{Op: "insert", Err: err}
	}
	g.logger.Info("Calendar event created", zap.String("eventId", created.Id), zap.String("bookingId", ev.BookingID))
	return created.Id, nil
}

func (g *GoogleCalendar) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return ErrEventNotFound
		}
		return &TransientError{Op: "delete", Err: err}
	}
	return nil
}

func (g *GoogleCalendar) toEvent(item *gcal.Event) (Event, error) {
	ev := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}
	if item.ExtendedProperties != nil {
		ev.BookingID = item.ExtendedProperties.Private[bookingIDProperty]
	}
	if item.Created != "" {
		if t, err := time.Parse(time.RFC3339, item.Created); err == nil {
			ev.Created = t
		}
	}
	if item.Start == nil || item.End == nil {
		return Event{}, errors.New("event has no start or end")
	}

	if item.Start.DateTime == "" {
		// All-day event; End.Date is exclusive.
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, g.loc)
		if err != nil {
			return Event{}, err
		}
		end, err := time.ParseInLocation("2006-01-02", item.End.Date, g.loc)
		if err != nil {
			return Event{}, err
		}
		ev.Start, ev.End, ev.AllDay = start, end, true
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, err
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return Event{}, err
	}
	ev.Start, ev.End = start.In(g.loc), end.In(g.loc)
	return ev, nil
}
