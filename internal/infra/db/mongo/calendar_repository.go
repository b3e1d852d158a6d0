package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

// Calendar loads a property's calendar; a missing document is an empty calendar
// at version 0.
func (r *CalendarRepository) Calendar(ctx context.Context, id property.ID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domainavailability.NewCalendar(id), nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate()
}

// Save writes the calendar only if nobody else bumped its version since it was
// loaded.
func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uow.ErrConcurrentUpdate
		}
		return concurrentOr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID           string                `bson:"_id"`
	Reservations []reservationDocument `bson:"reservations"`
	Version      int64                 `bson:"version"`
	UpdatedAt    time.Time             `bson:"updated_at"`
}

// reservationDocument keeps dates as YYYY-MM-DD so they sort and read the same
// in any client.
type reservationDocument struct {
	Start     string `bson:"start"`
	End       string `bson:"end"`
	Reference string `bson:"reference"`
}

func newCalendarDocument(cal *domainavailability.Calendar) calendarDocument {
	doc := calendarDocument{
		ID:           string(cal.PropertyID),
		Reservations: make([]reservationDocument, 0, len(cal.Reservations)),
		Version:      cal.Version,
		UpdatedAt:    time.Now().UTC(),
	}
	for _, r := range cal.Reservations {
		doc.Reservations = append(doc.Reservations, reservationDocument{
			Start:     r.Start.String(),
			End:       r.End.String(),
			Reference: r.Reference,
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() (*domainavailability.Calendar, error) {
	cal := domainavailability.NewCalendar(property.ID(d.ID))
	cal.Version = d.Version
	for _, r := range d.Reservations {
		start, err := daterange.Parse(r.Start)
		if err != nil {
			return nil, err
		}
		end, err := daterange.Parse(r.End)
		if err != nil {
			return nil, err
		}
		cal.Reservations = append(cal.Reservations, domainavailability.ReservedInterval{Start: start, End: end, Reference: r.Reference})
	}
	return cal, nil
}
