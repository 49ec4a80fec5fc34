package bookingsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultbot/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormBookingRepo struct {
	db *gorm.DB
}

// NewGormBookingRepo returns a BookingRepository backed by a relational database.
func NewGormBookingRepo(db *gorm.DB) BookingRepository {
	return &gormBookingRepo{db: db}
}

// Migrate creates the bookings table and the partial unique index on confirmed slots.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Booking{}); err != nil {
		return fmt.Errorf("auto-migrate bookings: %w", err)
	}
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_confirmed_slot
		ON bookings (date, time) WHERE status = 'confirmed'`).Error
}

func (r *gormBookingRepo) Create(ctx context.Context, booking *models.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}
	booking.CreatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrSlotTaken
		}
		return "", fmt.Errorf("insert booking: %w", err)
	}
	return booking.ID, nil
}

func (r *gormBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, eventID string) error {
	updates := map[string]interface{}{"status": status}
	if eventID != "" {
		updates["event_id"] = eventID
	}
	res := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *gormBookingRepo) GetByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, time DESC").
		Find(&out).Error
	return out, err
}

func (r *gormBookingRepo) GetConfirmed(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).Where("status = ?", models.BookingStatusConfirmed).Find(&out).Error
	return out, err
}

func (r *gormBookingRepo) GetConfirmedBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error) {
	return r.between(ctx, models.BookingStatusConfirmed, fromDate, toDate)
}

func (r *gormBookingRepo) GetCancelledBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error) {
	return r.between(ctx, models.BookingStatusCancelled, fromDate, toDate)
}

func (r *gormBookingRepo) between(ctx context.Context, status models.BookingStatus, fromDate, toDate string) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND date >= ? AND date <= ?", status, fromDate, toDate).
		Order("date, time").
		Find(&out).Error
	return out, err
}

func (r *gormBookingRepo) IsBooked(ctx context.Context, date, clock string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("date = ? AND time = ? AND status = ?", date, clock, models.BookingStatusConfirmed).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
