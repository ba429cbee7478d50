package storefront

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/shared"
)

// ActivationValidity is how long an admin-built store waits for its seller
const ActivationValidity = 90 * 24 * time.Hour

// Activation tracks a store an admin built for a seller who has not
// claimed it yet
type Activation struct {
	IsTemporary       bool
	CreatedByAdmin    *uuid.UUID
	ActivationToken   string
	ActivationExpires *time.Time
	ActivatedAt       *time.Time
}

// MarkTemporary flags the shop as built by adminID and issues a fresh
// activation token
func (s *Shop) MarkTemporary(adminID uuid.UUID, now time.Time) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	expires := now.Add(ActivationValidity)
	s.Activation = Activation{
		IsTemporary:       true,
		CreatedByAdmin:    &adminID,
		ActivationToken:   hex.EncodeToString(buf),
		ActivationExpires: &expires,
	}
	return nil
}

// CheckActivation accepts token only while the store is unclaimed and the
// link has not expired
func (s *Shop) CheckActivation(token string, now time.Time) error {
	a := s.Activation
	if !a.IsTemporary || a.ActivationToken == "" || a.ActivationExpires == nil ||
		!now.Before(*a.ActivationExpires) ||
		subtle.ConstantTimeCompare([]byte(a.ActivationToken), []byte(token)) != 1 {
		return shared.NewDomainError("INVALID_INPUT", "Invalid or expired activation link")
	}
	return nil
}

// Activate hands the store to its seller. The token stops working.
func (s *Shop) Activate(token string, now time.Time) error {
	if err := s.CheckActivation(token, now); err != nil {
		return err
	}
	s.Activation = Activation{CreatedByAdmin: s.CreatedByAdmin, ActivatedAt: &now}
	s.touch()
	return nil
}

// RequireTemporary rejects admin store operations on claimed shops
func (s *Shop) RequireTemporary() error {
	if !s.IsTemporary {
		return shared.NewDomainError("INVALID_STATE", "This shop is not a temporary store")
	}
	return nil
}
