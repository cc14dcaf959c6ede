package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmcleod/gatehouse/store"
)

// ResetPasswordToken generates a one-time reset token bound to the user
// registered under email, overwriting any prior token. An unknown email
// fails with store.ErrNotFound.
func (s *Service) ResetPasswordToken(email string) (string, error) {
	user, err := s.users.FindBy(store.AttrEmail, email)
	if err != nil {
		return "", fmt.Errorf("reset token for %s: %w", email, err)
	}
	token := uuid.NewString()
	if err := s.users.Update(user.ID, store.Fields{store.AttrResetToken: token}); err != nil {
		return "", fmt.Errorf("persisting reset token: %w", err)
	}
	return token, nil
}

// UpdatePassword consumes a reset token and sets a new password. The
// token is cleared on success, so a second use fails with
// ErrInvalidToken.
func (s *Service) UpdatePassword(token, newPassword string) error {
	if token == "" {
		return ErrInvalidToken
	}
	user, err := s.users.FindBy(store.AttrResetToken, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.Update(user.ID, store.Fields{
		store.AttrHashedPassword: hash,
		store.AttrResetToken:     "",
	})
}
