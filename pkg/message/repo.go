package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("messages"),
	}
}

func (r *MongoRepo) Append(ctx context.Context, roomID, senderID, body string) (*Message, error) {
	msg := &Message{
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrUnavailable, err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}
	msg.MongoID = oid
	msg.ID = oid.Hex()

	return msg, nil
}

func (r *MongoRepo) History(ctx context.Context, roomID string) ([]*Message, error) {
	// created_at is the ordering key; _id breaks ties between messages
	// persisted in the same instant.
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find failed: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var messages []*Message
	for cursor.Next(ctx) {
		var msg Message
		if err := cursor.Decode(&msg); err != nil {
			continue
		}
		msg.ID = msg.MongoID.Hex()
		messages = append(messages, &msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor failed: %v", ErrUnavailable, err)
	}

	return messages, nil
}
