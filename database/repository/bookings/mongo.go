package bookingsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultbot/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRepository backed by the "bookings" collection.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	return &mongoBookingRepo{coll: db.Collection("bookings")}
}

func (r *mongoBookingRepo) Create(ctx context.Context, booking *models.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}
	booking.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrSlotTaken
		}
		return "", fmt.Errorf("insert booking: %w", err)
	}
	return booking.ID, nil
}

func (r *mongoBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, eventID string) error {
	set := bson.M{"status": status}
	if eventID != "" {
		set["event_id"] = eventID
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *mongoBookingRepo) GetByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

func (r *mongoBookingRepo) GetConfirmed(ctx context.Context) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"status": models.BookingStatusConfirmed}, nil)
}

func (r *mongoBookingRepo) GetConfirmedBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"status": models.BookingStatusConfirmed,
		"date":   bson.M{"$gte": fromDate, "$lte": toDate},
	}, nil)
}

func (r *mongoBookingRepo) GetCancelledBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"status": models.BookingStatusCancelled,
		"date":   bson.M{"$gte": fromDate, "$lte": toDate},
	}, nil)
}

func (r *mongoBookingRepo) IsBooked(ctx context.Context, date, clock string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"date":   date,
		"time":   clock,
		"status": models.BookingStatusConfirmed,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoBookingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := r.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
