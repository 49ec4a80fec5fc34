package session

import (
	"context"
	"time"

	"consultbot/models"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout runs every Store call under its own deadline. A non-positive
// timeout returns store unchanged.
func WithTimeout(store Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return store
	}
	return &timeoutStore{next: store, timeout: timeout}
}

func (t *timeoutStore) Get(ctx context.Context, userID int64) (*models.BookingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Get(ctx, userID)
}

func (t *timeoutStore) Save(ctx context.Context, s *models.BookingSession) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Save(ctx, s)
}

func (t *timeoutStore) Delete(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Delete(ctx, userID)
}
