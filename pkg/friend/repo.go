package friend

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

// Authorize resolves the room id for an accepted pair, in either order.
func (r *MySQLRepo) Authorize(userID, friendID string) (string, error) {
	var roomID string
	err := r.DB.QueryRow(`
		SELECT room_id FROM friends
		WHERE is_accept = TRUE
		  AND ((user_id1 = ? AND user_id2 = ?) OR (user_id1 = ? AND user_id2 = ?))
	`, userID, friendID, friendID, userID).Scan(&roomID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFriends
		}
		return "", err
	}

	return roomID, nil
}

func (r *MySQLRepo) Request(userID, friendID string) error {
	_, err := r.DB.Exec(`
		INSERT INTO friends (user_id1, user_id2, is_accept, created_at)
		VALUES (?, ?, FALSE, ?)
	`, userID, friendID, time.Now().UTC())
	return err
}

// Accept marks the pending request accepted and stamps a new room id. Room
// ids are never reused: a re-created friendship gets a fresh uuid here.
func (r *MySQLRepo) Accept(userID, friendID string) (string, error) {
	roomID := uuid.NewString()

	res, err := r.DB.Exec(`
		UPDATE friends SET is_accept = TRUE, room_id = ?
		WHERE user_id1 = ? AND user_id2 = ? AND is_accept = FALSE
	`, roomID, friendID, userID)
	if err != nil {
		return "", err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrNotFriends
	}

	return roomID, nil
}

func (r *MySQLRepo) Remove(userID, friendID string) error {
	_, err := r.DB.Exec(`
		DELETE FROM friends
		WHERE (user_id1 = ? AND user_id2 = ?) OR (user_id1 = ? AND user_id2 = ?)
	`, userID, friendID, friendID, userID)
	return err
}
