package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/chat-backend/internal/models"
)

type MongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(coll *mongo.Collection) *MongoMessageRepository {
	idx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("conversation_idx"),
		},
		{
			Keys:    bson.D{{Key: "receiver_id", Value: 1}, {Key: "seen", Value: 1}},
			Options: options.Index().SetName("unseen_idx"),
		},
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), idx)
	return &MongoMessageRepository{coll: coll}
}

func (r *MongoMessageRepository) Insert(ctx context.Context, m *models.Message) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *MongoMessageRepository) ListConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (r *MongoMessageRepository) MarkSeen(ctx context.Context, receiverID string, ids []string, at time.Time) ([]*models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"_id":         bson.M{"$in": ids},
		"receiver_id": receiverID,
		"seen":        false,
	}

	// Resolve which ids actually match before updating so we can return
	// exactly the documents this call flipped.
	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var matched []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			cur.Close(ctx)
			return nil, err
		}
		matched = append(matched, doc.ID)
	}
	cur.Close(ctx)
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	update := bson.M{"$set": bson.M{"seen": true, "seen_at": at, "updated_at": at}}
	if _, err := r.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": matched}, "seen": false}, update); err != nil {
		return nil, err
	}

	cur, err = r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": matched}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}
