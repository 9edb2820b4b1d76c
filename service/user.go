package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	log "github.com/sirupsen/logrus"

	"ecommerce-api/model"
	"ecommerce-api/store"
)

const minPasswordLength = 7

type UserService struct {
	users  store.UserStore
	hasher Hasher
}

func NewUserService(users store.UserStore, hasher Hasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// CreateUser registers a user together with an empty cart.
func (s *UserService) CreateUser(ctx context.Context, username, password, confirmPassword string) (*model.User, error) {
	entry := log.WithField("username", username)

	if passwordLength(password) < minPasswordLength {
		entry.Warn("create user rejected: password too short")
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if password != confirmPassword {
		entry.Warn("create user rejected: password confirmation mismatch")
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if strings.TrimSpace(username) == "" {
		entry.Warn("create user rejected: empty username")
		return nil, fmt.Errorf("%w: username required", ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		Cart:         model.NewCart(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			entry.Warn("create user rejected: username taken")
			return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, username)
		}
		return nil, err
	}

	entry.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return u, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return findUser(ctx, s.users, username)
}

// Authenticate does not reveal whether the username or the password was wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		log.WithField("username", username).Warn("login failed")
		return nil, ErrUnauthorized
	}
	ok, err := s.hasher.Matches(u.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		log.WithField("username", username).Warn("login failed")
		return nil, ErrUnauthorized
	}
	return u, nil
}

// passwordLength counts UTF-16 code units, so a character outside the BMP
// counts as two.
func passwordLength(p string) int {
	return len(utf16.Encode([]rune(p)))
}

// findUser normalizes a store miss into ErrNotFound.
func findUser(ctx context.Context, users store.UserStore, username string) (*model.User, error) {
	u, err := users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	return u, nil
}
