package message

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnavailable wraps persistence failures. A message whose Append returned
// this was never durably written and must not be presented as sent.
var ErrUnavailable = errors.New("message store unavailable")

type Message struct {
	MongoID   primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ID        string             `json:"id" bson:"-"`
	RoomID    string             `json:"room_id" bson:"room_id"`
	SenderID  string             `json:"sender_id" bson:"sender_id"`
	Body      string             `json:"body" bson:"body"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Store is an append-only, per-room ordered log. Append must complete before
// the message counts as sent; History returns everything for the room in
// non-decreasing created_at order with the store-assigned id breaking ties.
type Store interface {
	Append(ctx context.Context, roomID, senderID, body string) (*Message, error)
	History(ctx context.Context, roomID string) ([]*Message, error)
}
