package friend

import (
	"errors"
	"time"
)

var ErrNotFriends = errors.New("not friends")

// Friendship links two users. A chat room id is assigned the moment the
// request is accepted and stays stable for the life of the relationship;
// deleting and re-adding a friend produces a fresh room id.
type Friendship struct {
	ID        int64     `json:"id"`
	UserID1   string    `json:"user_id1"`
	UserID2   string    `json:"user_id2"`
	RoomID    string    `json:"room_id"`
	IsAccept  bool      `json:"is_accept"`
	CreatedAt time.Time `json:"created_at"`
}

// Authorizer answers whether (userID, friendID) is an accepted relationship
// and which room it maps to.
type Authorizer interface {
	Authorize(userID, friendID string) (roomID string, err error)
}

type Repository interface {
	Authorizer
	Request(userID, friendID string) error
	Accept(userID, friendID string) (roomID string, err error)
	Remove(userID, friendID string) error
}
