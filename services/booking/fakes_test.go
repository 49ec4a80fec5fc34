package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/models"
	"consultbot/services/calendar"
	"consultbot/services/events/eventstest"

	"go.uber.org/zap"
)

var testLoc = time.FixedZone("MSK", 3*60*60)

// Sunday 2025-01-05 12:00.
var testNow = time.Date(2025, 1, 5, 12, 0, 0, 0, testLoc)

type fakeCalendar struct {
	mu        sync.Mutex
	events    map[string]calendar.Event
	seq       int
	listErr   error
	insertErr error
	deleteErr error
	deleted   []string
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]calendar.Event)}
}

func (f *fakeCalendar) ListEvents(_ context.Context, from, to time.Time) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []calendar.Event
	for _, ev := range f.events {
		if ev.Overlaps(from, to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, ev calendar.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.seq++
	ev.ID = fmt.Sprintf("evt-%d", f.seq)
	if ev.Created.IsZero() {
		ev.Created = testNow
	}
	f.events[ev.ID] = ev
	return ev.ID, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.events[id]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(f.events, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCalendar) add(ev calendar.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID] = ev
}

func (f *fakeCalendar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeReminders struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (f *fakeReminders) Schedule(_ context.Context, b models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, b.ID)
	return nil
}

func (f *fakeReminders) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

// flakyRepo injects failures into a memory repository.
type flakyRepo struct {
	*bookingsRepo.MemoryBookingRepo
	createErr   error
	isBookedErr error
	staleReads  bool
}

func (r *flakyRepo) Create(ctx context.Context, b *models.Booking) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	return r.MemoryBookingRepo.Create(ctx, b)
}

func (r *flakyRepo) IsBooked(ctx context.Context, date, clock string) (bool, error) {
	if r.isBookedErr != nil {
		return false, r.isBookedErr
	}
	if r.staleReads {
		return false, nil
	}
	return r.MemoryBookingRepo.IsBooked(ctx, date, clock)
}

var errBoom = errors.New("boom")

func testSchedule() models.Schedule {
	return models.Schedule{
		Location:     testLoc,
		WorkingDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartHour:    9,
		EndHour:      17,
		DaysAhead:    7,
		SlotDuration: time.Hour,
		MaxSlots:     50,
	}
}

type fixture struct {
	cal       *fakeCalendar
	repo      *flakyRepo
	reminders *fakeReminders
	events    *eventstest.Recorder
	resolver  *SlotResolver
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		cal:       newFakeCalendar(),
		repo:      &flakyRepo{MemoryBookingRepo: bookingsRepo.NewMemoryBookingRepo()},
		reminders: &fakeReminders{},
		events:    &eventstest.Recorder{},
	}
	f.resolver = NewSlotResolver(testSchedule(), f.cal, f.repo, zap.NewNop())
	f.resolver.Now = func() time.Time { return testNow }
	f.svc = NewService(f.resolver, f.repo, f.cal, f.reminders, f.events,
		models.ServiceInfo{Name: "Consultation", Price: "3000", AdminContact: "@admin"}, zap.NewNop())
	return f
}
