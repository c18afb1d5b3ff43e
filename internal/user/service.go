package user

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

var ErrInvalidUsername = fmt.Errorf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)

// NormalizeUsername trims surrounding whitespace and checks the length of what is left.
func NormalizeUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if n := utf8.RuneCountInString(trimmed); n < MinUsernameLength || n > MaxUsernameLength {
		return "", ErrInvalidUsername
	}
	return trimmed, nil
}

// Service holds profile operations for an already authenticated user.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetProfile(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes username and/or full name. An empty update returns the current record.
func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	if upd.Username != nil {
		username, err := NormalizeUsername(*upd.Username)
		if err != nil {
			return nil, err
		}
		upd.Username = &username
	}
	if upd.Empty() {
		return s.GetProfile(ctx, id)
	}

	var updated *User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if upd.Username != nil {
			current, err := tx.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Username != *upd.Username {
				taken, err := tx.ExistsByEmailOrUsername(ctx, "", *upd.Username)
				if err != nil {
					return err
				}
				if taken {
					return ErrAlreadyExists
				}
			}
		}

		u, err := tx.UpdateProfile(ctx, id, upd)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return updated, nil
}
