package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/models"
	"consultbot/services/calendar"
	"consultbot/services/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validRequest() BookingRequest {
	return BookingRequest{
		UserID:      42,
		DisplayName: "@alice",
		Date:        "2025-01-06",
		Time:        "10:00",
		ContactInfo: "+375 29 123-45-67",
	}
}

func TestCreateBooking_RoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, b.ID)
	require.NotEmpty(t, b.EventID)

	list := f.svc.ListUserBookings(ctx, 42)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-01-06", list[0].Date)
	assert.Equal(t, "10:00", list[0].Time)
	assert.Equal(t, "+375 29 123-45-67", list[0].ContactInfo)
	assert.Equal(t, models.BookingStatusConfirmed, list[0].Status)
	assert.Equal(t, b.EventID, list[0].EventID)

	ev := f.cal.events[b.EventID]
	assert.Equal(t, b.ID, ev.BookingID)
	assert.Equal(t, time.Hour, ev.End.Sub(ev.Start))
	assert.Contains(t, ev.Description, "+375 29 123-45-67")
	assert.Contains(t, ev.Description, "@admin")

	assert.Equal(t, []string{b.ID}, f.reminders.scheduled)
	assert.Equal(t, []string{events.BookingCreated}, f.events.Keys())
	assert.True(t, f.resolver.IsSlotTaken(ctx, "2025-01-06", "10:00"))
}

func TestCreateBooking_RejectsShortContact(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.ContactInfo = " abcd "

	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidContact)
	assert.Zero(t, f.cal.count())
}

func TestCreateBooking_RejectsInvalidSlot(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Date = "2025-01-11"

	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestCreateBooking_SlotAlreadyTaken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.UserID = 7
	_, err = f.svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 1, f.cal.count())
}

func TestCreateBooking_UnknownWhenCalendarDown(t *testing.T) {
	f := newFixture()
	f.cal.listErr = errBoom

	_, err := f.svc.CreateBooking(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotUnknown)
}

// stalledRepo never answers IsBooked until the caller gives up.
type stalledRepo struct {
	*bookingsRepo.MemoryBookingRepo
}

func (r stalledRepo) IsBooked(ctx context.Context, _, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestCreateBooking_HungStoreFailsClosedAndReleasesSlot(t *testing.T) {
	f := newFixture()
	repo := bookingsRepo.WithTimeout(stalledRepo{bookingsRepo.NewMemoryBookingRepo()}, 20*time.Millisecond)
	resolver := NewSlotResolver(testSchedule(), f.cal, repo, zap.NewNop())
	resolver.Now = func() time.Time { return testNow }
	svc := NewService(resolver, repo, f.cal, f.reminders, f.events, models.ServiceInfo{}, zap.NewNop())

	for i := 0; i < 2; i++ {
		done := make(chan error, 1)
		go func() {
			_, err := svc.CreateBooking(context.Background(), validRequest())
			done <- err
		}()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrSlotUnknown)
		case <-time.After(2 * time.Second):
			t.Fatal("CreateBooking blocked on a hung store")
		}
	}
	assert.Equal(t, 0, f.cal.count())
}

func TestCreateBooking_RemoteEventFailure(t *testing.T) {
	f := newFixture()
	f.cal.insertErr = &calendar.TransientError{Op: "insert", Err: errBoom}

	_, err := f.svc.CreateBooking(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrRemoteEventFailed)
	assert.True(t, errors.Is(err, errBoom))
	assert.Empty(t, f.svc.ListUserBookings(context.Background(), 42))
	assert.Empty(t, f.reminders.scheduled)
}

func TestCreateBooking_PersistFailureDeletesRemoteEvent(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errBoom

	_, err := f.svc.CreateBooking(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Zero(t, f.cal.count())
	assert.Len(t, f.cal.deleted, 1)
	assert.Empty(t, f.reminders.scheduled)
	assert.Empty(t, f.events.Keys())
}

func TestCreateBooking_StoreConstraintWinsOverStaleRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.repo.MemoryBookingRepo.Create(ctx, &models.Booking{UserID: 1, Date: "2025-01-06", Time: "10:00"})
	require.NoError(t, err)
	f.repo.staleReads = true

	_, err = f.svc.CreateBooking(ctx, validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Zero(t, f.cal.count(), "remote event must be compensated")
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.UserID = int64(100 + i)
			_, results[i] = f.svc.CreateBooking(ctx, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotTaken)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.cal.count())

	confirmed := f.svc.ConfirmedBookings(ctx)
	assert.Len(t, confirmed, 1)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.CancelBooking(ctx, b.ID, 999), ErrNotOwner)
	assert.ErrorIs(t, f.svc.CancelBooking(ctx, "missing", 42), ErrNotFound)

	require.NoError(t, f.svc.CancelBooking(ctx, b.ID, 42))

	got, err := f.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	assert.Zero(t, f.cal.count())
	assert.Equal(t, []string{b.ID}, f.reminders.cancelled)
	assert.Equal(t, []string{events.BookingCreated, events.BookingCancelled}, f.events.Keys())
	assert.False(t, f.resolver.IsSlotTaken(ctx, "2025-01-06", "10:00"))

	// Second cancel is a no-op.
	require.NoError(t, f.svc.CancelBooking(ctx, b.ID, 42))
	assert.Len(t, f.reminders.cancelled, 1)
}

func TestCancelBooking_RemoteAlreadyGone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)
	delete(f.cal.events, b.EventID)

	assert.NoError(t, f.svc.CancelBooking(ctx, b.ID, 0))
}

func TestUpcomingBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	future, err := f.svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)
	_, err = f.repo.MemoryBookingRepo.Create(ctx, &models.Booking{UserID: 42, Date: "2025-01-02", Time: "10:00"})
	require.NoError(t, err)
	cancelledID, err := f.repo.MemoryBookingRepo.Create(ctx, &models.Booking{UserID: 42, Date: "2025-01-07", Time: "10:00"})
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateStatus(ctx, cancelledID, models.BookingStatusCancelled, ""))

	assert.Len(t, f.svc.ListUserBookings(ctx, 42), 3)

	upcoming := f.svc.UpcomingBookings(ctx, 42)
	require.Len(t, upcoming, 1)
	assert.Equal(t, future.ID, upcoming[0].ID)
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	kept, err := f.svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	// Cancelled while the calendar refused deletes.
	req := validRequest()
	req.Time = "11:00"
	cancelled, err := f.svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	f.cal.deleteErr = errBoom
	require.NoError(t, f.svc.CancelBooking(ctx, cancelled.ID, 42))
	f.cal.deleteErr = nil
	require.Equal(t, 2, f.cal.count())

	slot := time.Date(2025, 1, 7, 9, 0, 0, 0, testLoc)
	f.cal.add(calendar.Event{ID: "old-orphan", BookingID: "ghost-1", Start: slot, End: slot.Add(time.Hour), Created: testNow.Add(-2 * time.Hour)})
	f.cal.add(calendar.Event{ID: "fresh-orphan", BookingID: "ghost-2", Start: slot.Add(time.Hour), End: slot.Add(2 * time.Hour), Created: testNow})
	f.cal.add(calendar.Event{ID: "personal", Start: slot.Add(3 * time.Hour), End: slot.Add(4 * time.Hour), Created: testNow.Add(-48 * time.Hour)})

	_, err = f.repo.MemoryBookingRepo.Create(ctx, &models.Booking{UserID: 5, Date: "2025-01-08", Time: "12:00", EventID: "vanished"})
	require.NoError(t, err)

	report, err := f.svc.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DeletedCancelled)
	assert.Equal(t, 1, report.DeletedOrphans)
	assert.Equal(t, 1, report.MissingRemote)

	_, ok := f.cal.events[kept.EventID]
	assert.True(t, ok)
	_, ok = f.cal.events[cancelled.EventID]
	assert.False(t, ok)
	_, ok = f.cal.events["old-orphan"]
	assert.False(t, ok)
	_, ok = f.cal.events["fresh-orphan"]
	assert.True(t, ok)
	_, ok = f.cal.events["personal"]
	assert.True(t, ok)
}

func TestReconcile_CalendarFailure(t *testing.T) {
	f := newFixture()
	f.cal.listErr = errBoom

	_, err := f.svc.Reconcile(context.Background(), time.Hour)
	assert.ErrorIs(t, err, errBoom)
}

func TestBookingErrorMatchesByCode(t *testing.T) {
	err := wrapErr(ErrPersistFailed, errBoom)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.ErrorIs(t, err, errBoom)
}
