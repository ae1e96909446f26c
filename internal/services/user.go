package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yelpcamp/apiserver/internal/store"
	"github.com/yelpcamp/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates registration and credential checks.
type UserService struct {
	repo    UserRepository
	hasher  PasswordHasher
	hashers map[string]PasswordHasher

	// Unknown usernames are checked against a dummy hash of the scheme
	// most recently seen on a real account, so both failures cost the same.
	mu         sync.Mutex
	lastScheme string
	dummies    map[string]types.User
}

// NewUserService builds a UserService. The first hasher is used for new
// accounts; the others are only used to verify existing ones. With no
// hashers, PBKDF2 is the default and bcrypt is accepted.
func NewUserService(repo UserRepository, hashers ...PasswordHasher) *UserService {
	if len(hashers) == 0 {
		hashers = []PasswordHasher{NewPBKDF2Hasher(), NewBcryptHasher()}
	}
	byScheme := make(map[string]PasswordHasher, len(hashers))
	for _, h := range hashers {
		byScheme[h.Scheme()] = h
	}
	return &UserService{
		repo:       repo,
		hasher:     hashers[0],
		hashers:    byScheme,
		lastScheme: hashers[0].Scheme(),
		dummies:    map[string]types.User{},
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	return user, storeError(err)
}

// Register creates an account. The caller is expected to log the new user
// in.
func (s *UserService) Register(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, validationError(errors.New("no username was given"))
	}
	if password == "" {
		return types.User{}, validationError(errors.New("no password was given"))
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, ErrDuplicateUser
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, storeError(err)
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		HashScheme:   s.hasher.Scheme(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, storeError(err)
	}
	return user, nil
}

// Verify checks a username and password pair. A missing user and a wrong
// password both yield ErrInvalidCredentials and cost the same hash work.
func (s *UserService) Verify(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, storeError(err)
		}
		hasher, dummy := s.dummyUser()
		hasher.Verify(password, dummy.PasswordHash, dummy.PasswordSalt)
		return types.User{}, ErrInvalidCredentials
	}

	hasher, ok := s.hashers[user.HashScheme]
	if ok {
		s.mu.Lock()
		s.lastScheme = user.HashScheme
		s.mu.Unlock()
	} else {
		hasher = s.hasher
	}
	if !hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) dummyUser() (PasswordHasher, types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasher := s.hashers[s.lastScheme]
	dummy, ok := s.dummies[s.lastScheme]
	if !ok {
		hash, salt, _ := hasher.Hash("not-a-real-password")
		dummy = types.User{PasswordHash: hash, PasswordSalt: salt}
		s.dummies[s.lastScheme] = dummy
	}
	return hasher, dummy
}
