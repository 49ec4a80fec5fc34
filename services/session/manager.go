package session

import (
	"context"
	"errors"
	"strings"

	"consultbot/models"
)

var (
	ErrNotWaitingForContact = errors.New("not waiting for contact info")
	ErrContactTooShort      = errors.New("contact info is too short")
)

// Manager drives the per-user booking flow:
// idle -> date_chosen -> time_chosen -> contact_entered -> committed or abandoned.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Get returns the user's session, or an idle one when none is live.
func (m *Manager) Get(ctx context.Context, userID int64) (*models.BookingSession, error) {
	s, err := m.store.Get(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return &models.BookingSession{UserID: userID, State: models.SessionIdle}, nil
	}
	return s, err
}

// SelectDate starts a fresh session at date_chosen.
func (m *Manager) SelectDate(ctx context.Context, userID int64, displayName, date string) (*models.BookingSession, error) {
	s := &models.BookingSession{
		UserID:      userID,
		State:       models.SessionDateChosen,
		Date:        date,
		DisplayName: displayName,
	}
	return s, m.store.Save(ctx, s)
}

// SelectTime records the chosen slot and waits for contact info.
func (m *Manager) SelectTime(ctx context.Context, userID int64, displayName, date, clock string) (*models.BookingSession, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.State = models.SessionTimeChosen
	s.Date = date
	s.Time = clock
	s.ContactInfo = ""
	s.WaitingForContact = true
	if displayName != "" {
		s.DisplayName = displayName
	}
	return s, m.store.Save(ctx, s)
}

// SubmitContact accepts free-text contact info. Text shorter than
// models.MinContactLength is rejected and the session is left as it was.
func (m *Manager) SubmitContact(ctx context.Context, userID int64, text string) (*models.BookingSession, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.WaitingForContact {
		return s, ErrNotWaitingForContact
	}
	if !models.ValidContact(text) {
		return s, ErrContactTooShort
	}
	s.ContactInfo = strings.TrimSpace(text)
	s.WaitingForContact = false
	s.State = models.SessionContactEntered
	return s, m.store.Save(ctx, s)
}

// Reset discards the session; used on commit, failure and return to menu.
func (m *Manager) Reset(ctx context.Context, userID int64) error {
	return m.store.Delete(ctx, userID)
}
