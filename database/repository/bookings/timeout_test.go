package bookingsRepo

import (
	"context"
	"testing"
	"time"

	"consultbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangingRepo blocks every lookup until the caller's context ends.
type hangingRepo struct {
	*MemoryBookingRepo
}

func (h hangingRepo) IsBooked(ctx context.Context, _, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (h hangingRepo) GetByUser(ctx context.Context, _ int64) ([]models.Booking, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout_BoundsHungCalls(t *testing.T) {
	repo := WithTimeout(hangingRepo{NewMemoryBookingRepo()}, 20*time.Millisecond)

	start := time.Now()
	_, err := repo.IsBooked(context.Background(), "2025-03-10", "10:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), time.Second)

	_, err = repo.GetByUser(context.Background(), 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeout_PassesThrough(t *testing.T) {
	repo := WithTimeout(NewMemoryBookingRepo(), time.Second)
	ctx := context.Background()

	id, err := repo.Create(ctx, newBooking(1, "2025-03-10", "10:00"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newBooking(2, "2025-03-10", "10:00"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)

	inner := NewMemoryBookingRepo()
	assert.Same(t, inner, WithTimeout(inner, 0))
}
