package friend_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"diarychat/pkg/friend"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)

	schema := `
	CREATE TABLE friends (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id1 TEXT NOT NULL,
		user_id2 TEXT NOT NULL,
		room_id TEXT UNIQUE,
		is_accept BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME
	);`

	_, err = db.Exec(schema)
	assert.NoError(t, err)

	return db
}

func TestMySQLRepo_RequestAcceptAuthorize(t *testing.T) {
	db := setupTestDB(t)
	repo := friend.NewMySQLRepo(db)

	// Nothing yet.
	_, err := repo.Authorize("alice", "bob")
	assert.ErrorIs(t, err, friend.ErrNotFriends)

	// A pending request does not authorize.
	assert.NoError(t, repo.Request("alice", "bob"))
	_, err = repo.Authorize("alice", "bob")
	assert.ErrorIs(t, err, friend.ErrNotFriends)

	// Accepted by the other side.
	roomID, err := repo.Accept("bob", "alice")
	assert.NoError(t, err)
	assert.NotEmpty(t, roomID)

	// Authorization works in both directions and maps to the same room.
	got, err := repo.Authorize("alice", "bob")
	assert.NoError(t, err)
	assert.Equal(t, roomID, got)

	got, err = repo.Authorize("bob", "alice")
	assert.NoError(t, err)
	assert.Equal(t, roomID, got)
}

func TestMySQLRepo_AcceptWithoutRequest(t *testing.T) {
	db := setupTestDB(t)
	repo := friend.NewMySQLRepo(db)

	_, err := repo.Accept("bob", "alice")
	assert.ErrorIs(t, err, friend.ErrNotFriends)
}

func TestMySQLRepo_RoomIDNeverReused(t *testing.T) {
	db := setupTestDB(t)
	repo := friend.NewMySQLRepo(db)

	assert.NoError(t, repo.Request("alice", "bob"))
	first, err := repo.Accept("bob", "alice")
	assert.NoError(t, err)

	assert.NoError(t, repo.Remove("alice", "bob"))
	_, err = repo.Authorize("alice", "bob")
	assert.ErrorIs(t, err, friend.ErrNotFriends)

	assert.NoError(t, repo.Request("bob", "alice"))
	second, err := repo.Accept("alice", "bob")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestMySQLRepo_AuthorizeUnrelatedPair(t *testing.T) {
	db := setupTestDB(t)
	repo := friend.NewMySQLRepo(db)

	assert.NoError(t, repo.Request("alice", "bob"))
	_, err := repo.Accept("bob", "alice")
	assert.NoError(t, err)

	_, err = repo.Authorize("alice", "mallory")
	assert.ErrorIs(t, err, friend.ErrNotFriends)
}
