package history

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MsgTableName = "messages"

// MongoStore persists direct messages, one document per message.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(MsgTableName)}
}

// EnsureIndexes creates the participant-pair lookup indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}, {Key: "ts", Value: 1}}},
		{Keys: bson.D{{Key: "to", Value: 1}, {Key: "from", Value: 1}, {Key: "ts", Value: 1}}},
	})
	return errors.Wrap(err, "ensure message indexes")
}

func (s *MongoStore) Append(ctx context.Context, msg Message) error {
	_, err := s.coll.InsertOne(ctx, msg)
	return errors.Wrap(err, "append message")
}

func (s *MongoStore) Query(ctx context.Context, a, b string) ([]Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"from": a, "to": b},
		bson.M{"from": b, "to": a},
	}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "ts", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}
