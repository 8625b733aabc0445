package user_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"diarychat/pkg/user"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) FindByUsername(username string) (*user.User, error) {
	args := m.Called(username)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) FindByID(id string) (*user.User, error) {
	args := m.Called(id)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) Create(u *user.User) error {
	return m.Called(u).Error(0)
}

func TestService_Register(t *testing.T) {
	repo := new(mockRepo)
	svc := user.NewService(repo)

	t.Run("success", func(t *testing.T) {
		repo.On("FindByUsername", "newuser").Return(nil, nil)
		repo.On("Create", mock.AnythingOfType("*user.User")).Return(nil)

		u, err := svc.Register("newuser", "securepass")

		assert.NoError(t, err)
		assert.NotNil(t, u)
		assert.Equal(t, "newuser", u.Username)
		assert.Len(t, u.ID, 24)
	})

	t.Run("user already exists", func(t *testing.T) {
		repo.On("FindByUsername", "existing").Return(&user.User{Username: "existing"}, nil)

		u, err := svc.Register("existing", "pass")

		assert.Error(t, err)
		assert.Nil(t, u)
		assert.Equal(t, "user already exists", err.Error())
	})
}

func TestService_Login(t *testing.T) {
	repo := new(mockRepo)
	svc := user.NewService(repo)

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	assert.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		repo.On("FindByUsername", "valid").Return(&user.User{
			ID:       "uid",
			Username: "valid",
			Password: string(hashed),
		}, nil)

		u, err := svc.Login("valid", "correct")

		assert.NoError(t, err)
		assert.Equal(t, "valid", u.Username)
	})

	t.Run("not found", func(t *testing.T) {
		repo.On("FindByUsername", "ghost").Return(nil, errors.New("not found"))

		u, err := svc.Login("ghost", "any")

		assert.Error(t, err)
		assert.Nil(t, u)
		assert.Equal(t, "user not found", err.Error())
	})

	t.Run("wrong password", func(t *testing.T) {
		repo.On("FindByUsername", "valid").Return(&user.User{
			ID:       "uid",
			Username: "valid",
			Password: string(hashed),
		}, nil)

		u, err := svc.Login("valid", "wrong")

		assert.Error(t, err)
		assert.Nil(t, u)
		assert.Equal(t, "invalid credentials", err.Error())
	})
}

func TestService_DisplayName(t *testing.T) {
	repo := new(mockRepo)
	svc := user.NewService(repo)

	t.Run("success", func(t *testing.T) {
		repo.On("FindByID", "uid").Return(&user.User{ID: "uid", Username: "alice"}, nil)

		name, err := svc.DisplayName("uid")

		assert.NoError(t, err)
		assert.Equal(t, "alice", name)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo.On("FindByID", "ghost").Return(nil, errors.New("user not found"))

		name, err := svc.DisplayName("ghost")

		assert.Error(t, err)
		assert.Empty(t, name)
	})
}
