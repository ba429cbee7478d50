package storefront

import (
	"context"

	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultShopHandler opens a first shop for users who become sellers
type DefaultShopHandler struct {
	service *ShopService
	logger  *zap.Logger
}

// NewDefaultShopHandler creates the handler
func NewDefaultShopHandler(service *ShopService, logger *zap.Logger) *DefaultShopHandler {
	return &DefaultShopHandler{service: service, logger: logger}
}

// EventTypes returns the handled event types
func (h *DefaultShopHandler) EventTypes() []string {
	return []string{identity.EventTypeUserRoleChanged}
}

// Handle creates "<name>'s Shop" when a new seller has no shop yet
func (h *DefaultShopHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*identity.UserRoleChangedEvent)
	if !ok || e.NewRole != identity.RoleSeller {
		return nil
	}
	count, err := h.service.shops.CountByOwner(ctx, e.AggregateID())
	if err != nil || count > 0 {
		return err
	}
	user, err := h.service.users.FindByID(ctx, e.AggregateID())
	if err != nil {
		return err
	}
	shop, err := h.service.Create(ctx, CreateShopInput{
		OwnerID:  user.ID,
		ShopName: user.Name + "'s Shop",
	})
	if err != nil {
		h.logger.Warn("Could not create default shop", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}
	h.logger.Info("Default shop created", zap.String("user_id", user.ID.String()), zap.String("slug", shop.Slug))
	return nil
}
