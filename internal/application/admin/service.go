// Package admin implements platform administration: statistics, user
// moderation, manual plan grants and the platform settings document.
package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	identityapp "github.com/wazhop/backend/internal/application/identity"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"go.uber.org/zap"
)

const recentLimit = 5

// PlanEnforcer brings an owner's shops in line with their plan
type PlanEnforcer interface {
	EnforcePlanForOwner(ctx context.Context, ownerID uuid.UUID, plan identity.Plan) (int, error)
}

// UserStats counts accounts
type UserStats struct {
	Total   int64                   `json:"total"`
	Sellers int64                   `json:"sellers"`
	Buyers  int64                   `json:"buyers"`
	Admins  int64                   `json:"admins"`
	ByPlan  map[identity.Plan]int64 `json:"by_plan"`
}

// OrderStats counts orders and paid revenue
type OrderStats struct {
	Total   int64           `json:"total"`
	Revenue decimal.Decimal `json:"revenue"`
}

// PlatformStats is the admin dashboard summary
type PlatformStats struct {
	Users               UserStats              `json:"users"`
	Shops               int64                  `json:"shops"`
	Products            int64                  `json:"products"`
	Orders              OrderStats             `json:"orders"`
	ActiveSubscriptions int64                  `json:"active_subscriptions"`
	RecentUsers         []identityapp.UserInfo `json:"recent_users"`
}

// Activity lists the latest platform records
type Activity struct {
	RecentOrders   []*order.Order         `json:"recent_orders"`
	RecentUsers    []identityapp.UserInfo `json:"recent_users"`
	RecentProducts []*catalog.Product     `json:"recent_products"`
}

// SetPlanInput grants a plan by hand. DurationDays is ignored for free.
type SetPlanInput struct {
	Plan         identity.Plan
	DurationDays int
}

// ShopRemover deletes a shop with everything it holds
type ShopRemover interface {
	Remove(ctx context.Context, shopID uuid.UUID) error
}

// ProductRemover deletes a product and frees its images
type ProductRemover interface {
	Remove(ctx context.Context, id uuid.UUID) error
}

// ServiceConfig wires the admin service
type ServiceConfig struct {
	Users        identity.UserRepository
	Shops        storefront.ShopRepository
	Products     catalog.ProductRepository
	Orders       order.Repository
	Transactions billing.TransactionRepository
	Settings     settings.Repository
	Enforcer     PlanEnforcer
	ShopRemover  ShopRemover
	ItemRemover  ProductRemover
	Events       shared.EventPublisher
	Logger       *zap.Logger
}

// Service answers the admin API
type Service struct {
	users        identity.UserRepository
	shops        storefront.ShopRepository
	products     catalog.ProductRepository
	orders       order.Repository
	transactions billing.TransactionRepository
	settings     settings.Repository
	enforcer     PlanEnforcer
	shopRemover  ShopRemover
	itemRemover  ProductRemover
	events       shared.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates the admin service
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		users:        cfg.Users,
		shops:        cfg.Shops,
		products:     cfg.Products,
		orders:       cfg.Orders,
		transactions: cfg.Transactions,
		settings:     cfg.Settings,
		enforcer:     cfg.Enforcer,
		shopRemover:  cfg.ShopRemover,
		itemRemover:  cfg.ItemRemover,
		events:       cfg.Events,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

// Stats summarises the platform
func (s *Service) Stats(ctx context.Context) (*PlatformStats, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	byPlan, err := s.users.CountByPlan(ctx)
	if err != nil {
		return nil, err
	}
	shops, err := s.shops.Count(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orders.PaidRevenue(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.recentUsers(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{
		Users: UserStats{
			Sellers: byRole[identity.RoleSeller],
			Buyers:  byRole[identity.RoleBuyer],
			Admins:  byRole[identity.RoleAdmin],
			ByPlan:  byPlan,
		},
		Shops:               shops,
		Products:            products,
		Orders:              OrderStats{Total: orders, Revenue: revenue},
		ActiveSubscriptions: byPlan[identity.PlanPro] + byPlan[identity.PlanPremium],
		RecentUsers:         recent,
	}
	for _, n := range byRole {
		stats.Users.Total += n
	}
	return stats, nil
}

// Activity returns the latest orders, users and products
func (s *Service) Activity(ctx context.Context, limit int) (*Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	orders, err := s.orders.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	users, err := s.recentUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	products, err := s.products.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &Activity{RecentOrders: orders, RecentUsers: users, RecentProducts: products}, nil
}

func (s *Service) recentUsers(ctx context.Context, limit int) ([]identityapp.UserInfo, error) {
	users, _, err := s.users.FindAll(ctx, identity.UserFilter{Page: 1, PageSize: limit})
	if err != nil {
		return nil, err
	}
	return s.infos(users), nil
}

func (s *Service) infos(users []*identity.User) []identityapp.UserInfo {
	now := s.now()
	out := make([]identityapp.UserInfo, len(users))
	for i, u := range users {
		out[i] = identityapp.ToUserInfo(u, now)
	}
	return out
}

// ListUsers pages through accounts newest first
func (s *Service) ListUsers(ctx context.Context, filter identity.UserFilter) (shared.Paginated[identityapp.UserInfo], error) {
	if filter.Role != nil && !filter.Role.IsValid() {
		return shared.Paginated[identityapp.UserInfo]{}, shared.NewDomainError("INVALID_INPUT", "Invalid role")
	}
	if filter.Plan != nil && !filter.Plan.IsValid() {
		return shared.Paginated[identityapp.UserInfo]{}, shared.NewDomainError("INVALID_INPUT", "Invalid plan")
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	users, total, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[identityapp.UserInfo]{}, err
	}
	return shared.NewPaginated(s.infos(users), total, filter.Page, filter.PageSize), nil
}

// ChangeRole sets a user's role
func (s *Service) ChangeRole(ctx context.Context, adminID, userID uuid.UUID, role identity.Role) (*identityapp.UserInfo, error) {
	if adminID == userID && role != identity.RoleAdmin {
		return nil, shared.NewDomainError("INVALID_INPUT", "You cannot remove your own admin role")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User role changed",
		zap.String("admin_id", adminID.String()),
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(role)))
	s.publish(ctx, u)
	info := identityapp.ToUserInfo(u, s.now())
	return &info, nil
}

// ToggleStatus activates or deactivates an account
func (s *Service) ToggleStatus(ctx context.Context, adminID, userID uuid.UUID) (*identityapp.UserInfo, error) {
	if adminID == userID {
		return nil, shared.NewDomainError("INVALID_INPUT", "You cannot deactivate your own account")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := u.ToggleActive()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User status changed",
		zap.String("admin_id", adminID.String()),
		zap.String("user_id", u.ID.String()),
		zap.Bool("active", active))
	info := identityapp.ToUserInfo(u, s.now())
	return &info, nil
}

// SetPlan grants or removes a plan without payment and re-applies shop
// limits for the new plan.
func (s *Service) SetPlan(ctx context.Context, adminID, userID uuid.UUID, in SetPlanInput) (*identityapp.UserInfo, error) {
	if in.DurationDays < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Duration cannot be negative")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := u.Plan
	if err := u.GrantPlan(in.Plan, in.DurationDays, s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if previous != u.Plan && s.enforcer != nil {
		if _, err := s.enforcer.EnforcePlanForOwner(ctx, u.ID, u.Plan); err != nil {
			s.logger.Error("Failed to enforce plan after manual grant",
				zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}
	s.logger.Info("User plan set by admin",
		zap.String("admin_id", adminID.String()),
		zap.String("user_id", u.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(u.Plan)),
		zap.Int("duration_days", in.DurationDays))
	s.publish(ctx, u)
	info := identityapp.ToUserInfo(u, s.now())
	return &info, nil
}

// DeleteUser removes an account and everything it owns
func (s *Service) DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error {
	if adminID == userID {
		return shared.NewDomainError("INVALID_INPUT", "Cannot delete your own account")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Warn("User deleted by admin",
		zap.String("admin_id", adminID.String()),
		zap.String("user_id", u.ID.String()),
		zap.String("email", u.Email))
	return nil
}

// ListShops pages through every shop
func (s *Service) ListShops(ctx context.Context, filter storefront.ShopFilter) (shared.Paginated[*storefront.Shop], error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	shops, total, err := s.shops.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*storefront.Shop]{}, err
	}
	return shared.NewPaginated(shops, total, filter.Page, filter.PageSize), nil
}

// DeleteShop removes any shop with its products, reviews and orders
func (s *Service) DeleteShop(ctx context.Context, adminID, shopID uuid.UUID) error {
	if err := s.shopRemover.Remove(ctx, shopID); err != nil {
		return err
	}
	s.logger.Warn("Shop deleted by admin",
		zap.String("admin_id", adminID.String()),
		zap.String("shop_id", shopID.String()))
	return nil
}

// ListProducts pages through the products of every shop
func (s *Service) ListProducts(ctx context.Context, filter catalog.ProductFilter) (shared.Paginated[*catalog.Product], error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	products, total, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*catalog.Product]{}, err
	}
	return shared.NewPaginated(products, total, filter.Page, filter.PageSize), nil
}

// DeleteProduct removes any product
func (s *Service) DeleteProduct(ctx context.Context, adminID, productID uuid.UUID) error {
	if err := s.itemRemover.Remove(ctx, productID); err != nil {
		return err
	}
	s.logger.Warn("Product deleted by admin",
		zap.String("admin_id", adminID.String()),
		zap.String("product_id", productID.String()))
	return nil
}

// ListOrders pages through every order
func (s *Service) ListOrders(ctx context.Context, filter order.Filter) (shared.Paginated[*order.Order], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return shared.Paginated[*order.Order]{}, shared.NewDomainError("INVALID_INPUT", "Invalid status")
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*order.Order]{}, err
	}
	return shared.NewPaginated(orders, total, filter.Page, filter.PageSize), nil
}

// Settings returns the platform settings with secrets masked
func (s *Service) Settings(ctx context.Context) (settings.Platform, error) {
	p, err := s.settings.Get(ctx)
	if err != nil {
		return settings.Platform{}, err
	}
	return p.Masked(), nil
}

// UpdateSettings merges a partial update. Masked secrets sent back
// unchanged keep their stored value.
func (s *Service) UpdateSettings(ctx context.Context, adminID uuid.UUID, u settings.Update) (settings.Platform, error) {
	p, err := s.settings.Get(ctx)
	if err != nil {
		return settings.Platform{}, err
	}
	if err := p.Apply(u); err != nil {
		return settings.Platform{}, err
	}
	if err := s.settings.Save(ctx, p); err != nil {
		return settings.Platform{}, err
	}
	s.logger.Info("Platform settings updated",
		zap.String("admin_id", adminID.String()),
		zap.Bool("maintenance_mode", p.Features.MaintenanceMode))
	return p.Masked(), nil
}

// PublicSettings returns the settings any visitor may read
func (s *Service) PublicSettings(ctx context.Context) (settings.Public, error) {
	p, err := s.settings.Get(ctx)
	if err != nil {
		return settings.Public{}, err
	}
	return p.Public(), nil
}

func (s *Service) publish(ctx context.Context, u *identity.User) {
	if err := shared.PublishAndClear(ctx, s.events, u); err != nil {
		s.logger.Warn("Failed to publish user events", zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
