package user

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"diarychat/pkg/generator"
)

type ServiceInterface interface {
	Register(username, password string) (*User, error)
	Login(username, password string) (*User, error)
	DisplayName(userID string) (string, error)
}

type Service struct {
	Repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

func (s *Service) Register(username, password string) (*User, error) {
	exist, err := s.Repo.FindByUsername(username)
	if exist != nil && err == nil {
		return nil, errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %s", err)
	}

	userID, err := generator.GenerateRandomID(24)
	if err != nil {
		return nil, fmt.Errorf("UserID gen error: %s", err)
	}

	user := &User{
		ID:       userID,
		Username: username,
		Password: string(hashedPassword),
	}

	err = s.Repo.Create(user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Login(username, password string) (*User, error) {
	user, err := s.Repo.FindByUsername(username)
	if err != nil {
		return nil, errors.New("user not found")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	return user, nil
}

// DisplayName is what chat frames label a sender with.
func (s *Service) DisplayName(userID string) (string, error) {
	user, err := s.Repo.FindByID(userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
