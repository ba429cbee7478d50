package identity

import (
	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type for user events
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered       = "UserRegistered"
	EventTypeUserRoleChanged      = "UserRoleChanged"
	EventTypeSubscriptionUpgraded = "SubscriptionUpgraded"
	EventTypeSubscriptionRenewed  = "SubscriptionRenewed"
	EventTypeSubscriptionExpired  = "SubscriptionExpired"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email      string     `json:"email"`
	ReferredBy *uuid.UUID `json:"referred_by,omitempty"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID, u.ID),
		Email:           u.Email,
		ReferredBy:      u.ReferredBy,
	}
}

// UserRoleChangedEvent is published when a user's role changes
type UserRoleChangedEvent struct {
	shared.BaseDomainEvent
	OldRole Role `json:"old_role"`
	NewRole Role `json:"new_role"`
}

// NewUserRoleChangedEvent creates a new UserRoleChangedEvent
func NewUserRoleChangedEvent(u *User, old Role) *UserRoleChangedEvent {
	return &UserRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRoleChanged, AggregateTypeUser, u.ID, u.ID),
		OldRole:         old,
		NewRole:         u.Role,
	}
}

// SubscriptionUpgradedEvent is published when a user moves to a higher plan
type SubscriptionUpgradedEvent struct {
	shared.BaseDomainEvent
	PreviousPlan  Plan          `json:"previous_plan"`
	Plan          Plan          `json:"plan"`
	BillingPeriod BillingPeriod `json:"billing_period"`
	ReferredBy    *uuid.UUID    `json:"referred_by,omitempty"`
}

// NewSubscriptionUpgradedEvent creates a new SubscriptionUpgradedEvent
func NewSubscriptionUpgradedEvent(u *User, previous Plan) *SubscriptionUpgradedEvent {
	return &SubscriptionUpgradedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionUpgraded, AggregateTypeUser, u.ID, u.ID),
		PreviousPlan:    previous,
		Plan:            u.Plan,
		BillingPeriod:   u.BillingPeriod,
		ReferredBy:      u.ReferredBy,
	}
}

// SubscriptionRenewedEvent is published when a paid plan is extended
type SubscriptionRenewedEvent struct {
	shared.BaseDomainEvent
	Plan          Plan          `json:"plan"`
	BillingPeriod BillingPeriod `json:"billing_period"`
}

// NewSubscriptionRenewedEvent creates a new SubscriptionRenewedEvent
func NewSubscriptionRenewedEvent(u *User) *SubscriptionRenewedEvent {
	return &SubscriptionRenewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionRenewed, AggregateTypeUser, u.ID, u.ID),
		Plan:            u.Plan,
		BillingPeriod:   u.BillingPeriod,
	}
}

// SubscriptionExpiredEvent is published when a user is downgraded to free
type SubscriptionExpiredEvent struct {
	shared.BaseDomainEvent
	PreviousPlan Plan `json:"previous_plan"`
}

// NewSubscriptionExpiredEvent creates a new SubscriptionExpiredEvent
func NewSubscriptionExpiredEvent(u *User, previous Plan) *SubscriptionExpiredEvent {
	return &SubscriptionExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionExpired, AggregateTypeUser, u.ID, uuid.Nil),
		PreviousPlan:    previous,
	}
}
