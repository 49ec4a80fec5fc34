package session

import (
	"context"
	"testing"
	"time"

	"consultbot/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	store, mr := newRedisStore(t, 30*time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, &models.BookingSession{UserID: 1, State: models.SessionDateChosen, Date: "2025-01-06"}))
	assert.True(t, mr.Exists("bookingSession:1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("bookingSession:1"))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", got.Date)

	mr.FastForward(31 * time.Minute)
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &models.BookingSession{UserID: 2}))
	require.NoError(t, store.Delete(ctx, 2))
	assert.False(t, mr.Exists("bookingSession:2"))
}

func TestMemoryStore_ExpiryAndSweep(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.BookingSession{UserID: 1}))
	require.NoError(t, store.Save(ctx, &models.BookingSession{UserID: 2}))

	now = now.Add(30 * time.Second)
	require.NoError(t, store.Save(ctx, &models.BookingSession{UserID: 2}))

	now = now.Add(45 * time.Second)
	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = store.Get(ctx, 2)
	assert.NoError(t, err)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestManager_Flow(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute))
	ctx := context.Background()

	s, err := m.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SessionIdle, s.State)

	s, err = m.SelectDate(ctx, 7, "@bob", "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, models.SessionDateChosen, s.State)

	s, err = m.SelectTime(ctx, 7, "", "2025-01-06", "10:00")
	require.NoError(t, err)
	assert.Equal(t, models.SessionTimeChosen, s.State)
	assert.True(t, s.WaitingForContact)
	assert.Equal(t, "@bob", s.DisplayName)

	s, err = m.SubmitContact(ctx, 7, "  +375291234567 ")
	require.NoError(t, err)
	assert.Equal(t, models.SessionContactEntered, s.State)
	assert.False(t, s.WaitingForContact)
	assert.Equal(t, "+375291234567", s.ContactInfo)

	require.NoError(t, m.Reset(ctx, 7))
	s, err = m.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SessionIdle, s.State)
}

func TestManager_ContactLengthBoundary(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute))
	ctx := context.Background()
	_, err := m.SelectTime(ctx, 7, "@bob", "2025-01-06", "10:00")
	require.NoError(t, err)

	_, err = m.SubmitContact(ctx, 7, "abcd")
	assert.ErrorIs(t, err, ErrContactTooShort)
	s, err := m.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, s.WaitingForContact)
	assert.Equal(t, models.SessionTimeChosen, s.State)
	assert.Empty(t, s.ContactInfo)

	s, err = m.SubmitContact(ctx, 7, "abcde")
	require.NoError(t, err)
	assert.Equal(t, models.SessionContactEntered, s.State)
	assert.False(t, s.WaitingForContact)
}

func TestManager_ContactWithoutPendingSlot(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute))
	_, err := m.SubmitContact(context.Background(), 7, "+375291234567")
	assert.ErrorIs(t, err, ErrNotWaitingForContact)
}

// hangingStore blocks until the caller's context ends.
type hangingStore struct{}

func (hangingStore) Get(ctx context.Context, _ int64) (*models.BookingSession, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingStore) Save(ctx context.Context, _ *models.BookingSession) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingStore) Delete(ctx context.Context, _ int64) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWithTimeout_BoundsHungStore(t *testing.T) {
	m := NewManager(WithTimeout(hangingStore{}, 20*time.Millisecond))

	start := time.Now()
	_, err := m.SelectDate(context.Background(), 7, "@bob", "2025-01-06")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, m.Reset(context.Background(), 7), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithTimeout_PassesThrough(t *testing.T) {
	store := WithTimeout(NewMemoryStore(time.Minute), time.Second)
	m := NewManager(store)
	ctx := context.Background()

	_, err := m.SelectDate(ctx, 7, "@bob", "2025-01-06")
	require.NoError(t, err)
	s, err := m.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SessionDateChosen, s.State)

	mem := NewMemoryStore(time.Minute)
	assert.Same(t, mem, WithTimeout(mem, 0))
}
