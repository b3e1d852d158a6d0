package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store records the events a consumer group has already handled. Entries
// expire after retention so the collection stays bounded.
type Store struct {
	col      *mongo.Collection
	consumer string
}

type receipt struct {
	EventID    string    `bson:"event_id"`
	Consumer   string    `bson:"consumer"`
	ReceivedAt time.Time `bson:"received_at"`
}

func NewStore(db *mongo.Database, consumer string, retention time.Duration) *Store {
	col := db.Collection("app_inbox")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
		})
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &Store{col: col, consumer: consumer}
}

// Seen reports whether eventID was recorded for this consumer.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, receiptFilter(eventID, s.consumer), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Record stores a receipt for eventID. Recording the same id twice is not an
// error.
func (s *Store) Record(ctx context.Context, eventID string) error {
	_, err := s.col.InsertOne(ctx, receipt{EventID: eventID, Consumer: s.consumer, ReceivedAt: time.Now().UTC()})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

func receiptFilter(eventID, consumer string) bson.D {
	return bson.D{{Key: "event_id", Value: eventID}, {Key: "consumer", Value: consumer}}
}
