// Package order places shop orders and moves them through fulfilment.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/currency"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/domain/whatsapp"
	"go.uber.org/zap"
)

const orderNumberAttempts = 5

// StockKeeper reserves and releases tracked stock
type StockKeeper interface {
	Reserve(ctx context.Context, p *catalog.Product, qty int) error
	Release(ctx context.Context, productID uuid.UUID, qty int) error
}

// Notifier delivers a WhatsApp text message to a phone number
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// ServiceConfig wires a Service
type ServiceConfig struct {
	Orders   order.Repository
	Products catalog.ProductRepository
	Shops    storefront.ShopRepository
	Stock    StockKeeper
	Notifier Notifier
	Events   shared.EventPublisher
	// TrackingURL is the public base URL of order pages
	TrackingURL string
	Logger      *zap.Logger
}

// Service places orders and applies seller status changes
type Service struct {
	orders      order.Repository
	products    catalog.ProductRepository
	shops       storefront.ShopRepository
	stock       StockKeeper
	notifier    Notifier
	events      shared.EventPublisher
	trackingURL string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates an order service
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		orders:      cfg.Orders,
		products:    cfg.Products,
		shops:       cfg.Shops,
		stock:       cfg.Stock,
		notifier:    cfg.Notifier,
		events:      cfg.Events,
		trackingURL: strings.TrimRight(cfg.TrackingURL, "/"),
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Create prices the lines from current product data, reserves tracked
// stock and records a pending order.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*order.Order, error) {
	if len(in.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop and items are required")
	}
	shop, err := s.shops.FindByID(ctx, in.ShopID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Shop")
		}
		return nil, err
	}
	if !shop.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "This shop is not accepting orders")
	}

	lines := mergeLines(in.Items)
	products := make([]*catalog.Product, len(lines))
	items := make([]order.Item, len(lines))
	orderCurrency := ""
	for i, req := range lines {
		p, err := s.products.FindByID(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NotFound("Product")
			}
			return nil, err
		}
		if !p.BelongsTo(shop.ID) {
			return nil, shared.NewDomainError("INVALID_INPUT", p.Name+" is not sold by this shop")
		}
		if orderCurrency == "" {
			orderCurrency = p.Currency
		}
		image := ""
		if img := p.PrimaryImage(); img != nil {
			image = img.URL
		}
		item, err := order.NewItem(p.ID, p.Name, image, req.Quantity, p.Price)
		if err != nil {
			return nil, err
		}
		products[i], items[i] = p, item
	}

	o, err := order.New(order.Params{
		ShopID:          shop.ID,
		Customer:        in.Customer,
		Items:           items,
		ShippingFee:     in.ShippingFee,
		Currency:        orderCurrency,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		CustomerNotes:   strings.TrimSpace(in.CustomerNotes),
		Source:          in.Source,
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.assignNumber(ctx, o); err != nil {
		return nil, err
	}

	reserved := 0
	for i, p := range products {
		if err := s.stock.Reserve(ctx, p, items[i].Quantity); err != nil {
			s.releaseLines(ctx, items[:reserved])
			return nil, err
		}
		reserved++
	}
	if err := s.orders.Create(ctx, o); err != nil {
		s.releaseLines(ctx, items)
		return nil, err
	}
	s.logger.Info("Order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("shop_id", shop.ID.String()),
		zap.String("total", o.Total.String()))

	s.notifyPlaced(ctx, o, shop)
	s.publish(ctx, o)
	return o, nil
}

func (s *Service) assignNumber(ctx context.Context, o *order.Order) error {
	for i := 0; i < orderNumberAttempts; i++ {
		taken, err := s.orders.ExistsByNumber(ctx, o.OrderNumber)
		if err != nil {
			return err
		}
		if !taken {
			return nil
		}
		number, err := order.GenerateNumber(s.now())
		if err != nil {
			return err
		}
		o.OrderNumber = number
	}
	return shared.NewDomainError("CONCURRENCY_CONFLICT", "Could not allocate an order number, please retry")
}

func (s *Service) releaseLines(ctx context.Context, items []order.Item) {
	for _, it := range items {
		if err := s.stock.Release(ctx, it.ProductID, it.Quantity); err != nil {
			s.logger.Error("Failed to release stock",
				zap.String("product_id", it.ProductID.String()),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// Get returns an order the actor may see: its customer, the shop owner or an admin
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin || o.IsPlacedBy(actor.UserID) {
		return o, nil
	}
	shop, err := s.shops.FindByID(ctx, o.ShopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOwnedBy(actor.UserID) {
		return nil, shared.Forbidden("Not authorized to view this order")
	}
	return o, nil
}

// ListMine returns the orders a user placed, newest first
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, page, pageSize int) (shared.Paginated[*order.Order], error) {
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.orders.FindByCustomer(ctx, userID, page, pageSize)
	if err != nil {
		return shared.Paginated[*order.Order]{}, err
	}
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// ListForShop returns a page of a shop's orders
func (s *Service) ListForShop(ctx context.Context, actor Actor, shopID uuid.UUID, filter order.Filter) (shared.Paginated[*order.Order], error) {
	if _, err := s.managedShop(ctx, actor, shopID); err != nil {
		return shared.Paginated[*order.Order]{}, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return shared.Paginated[*order.Order]{}, shared.NewDomainError("INVALID_INPUT", "Invalid status")
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	items, total, err := s.orders.FindByShop(ctx, shopID, filter)
	if err != nil {
		return shared.Paginated[*order.Order]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Stats summarises a shop's orders
func (s *Service) Stats(ctx context.Context, actor Actor, shopID uuid.UUID) (order.Stats, error) {
	if _, err := s.managedShop(ctx, actor, shopID); err != nil {
		return order.Stats{}, err
	}
	all, err := s.orders.AllByShop(ctx, shopID)
	if err != nil {
		return order.Stats{}, err
	}
	return order.ComputeStats(all), nil
}

// UpdateStatus lets the shop owner or an admin move an order along.
// Cancelling through here releases stock like Cancel does.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, in UpdateStatusInput) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedShop(ctx, actor, o.ShopID); err != nil {
		return nil, err
	}
	if in.Status == order.StatusCancelled {
		return s.cancel(ctx, actor, o)
	}
	previous := o.Status
	if err := o.UpdateStatus(in.Status, actor.UserID, s.now()); err != nil {
		return nil, err
	}
	if notes := strings.TrimSpace(in.SellerNotes); notes != "" {
		o.SellerNotes = notes
	}
	if previous != o.Status {
		s.notifyStatus(ctx, o)
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)
	return o, nil
}

// Cancel cancels a pending or confirmed order for its customer, the shop
// owner or an admin, and releases reserved stock.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !o.IsPlacedBy(actor.UserID) {
		if _, err := s.managedShop(ctx, actor, o.ShopID); err != nil {
			return nil, shared.Forbidden("Not authorized to cancel this order")
		}
	}
	return s.cancel(ctx, actor, o)
}

func (s *Service) cancel(ctx context.Context, actor Actor, o *order.Order) (*order.Order, error) {
	if err := o.Cancel(actor.UserID, s.now()); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, o)
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.releaseLines(ctx, o.Items)
	s.logger.Info("Order cancelled",
		zap.String("order_number", o.OrderNumber),
		zap.String("actor_id", actor.UserID.String()))
	s.publish(ctx, o)
	return o, nil
}

func (s *Service) managedShop(ctx context.Context, actor Actor, shopID uuid.UUID) (*storefront.Shop, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !shop.IsOwnedBy(actor.UserID) {
		return nil, shared.Forbidden("Not authorized to manage orders for this shop")
	}
	return shop, nil
}

// notifyPlaced messages the customer and the seller. Delivery failures are
// logged and never fail the order.
func (s *Service) notifyPlaced(ctx context.Context, o *order.Order, shop *storefront.Shop) {
	if s.notifier == nil {
		return
	}
	total := currency.Format(o.Total, o.Currency)
	tracking := fmt.Sprintf("%s/orders/%s", s.trackingURL, o.ID)
	if s.send(ctx, o.Customer.Phone, whatsapp.OrderConfirmationMessage(o.OrderNumber, total, o.ItemCount(), tracking)) {
		o.MarkNotified(order.StatusPending)
		if err := s.orders.Update(ctx, o); err != nil {
			s.logger.Warn("Failed to record notification", zap.String("order_number", o.OrderNumber), zap.Error(err))
		}
	}
	if shop.WhatsAppNumber != "" {
		s.send(ctx, shop.WhatsAppNumber, whatsapp.NewOrderSellerMessage(shop.ShopName, o.OrderNumber, o.Customer.Name, total, o.ItemCount()))
	}
}

func (s *Service) notifyStatus(ctx context.Context, o *order.Order) {
	if s.notifier == nil {
		return
	}
	switch o.Status {
	case order.StatusProcessing, order.StatusShipped, order.StatusDelivered, order.StatusCancelled:
	default:
		return
	}
	if s.send(ctx, o.Customer.Phone, whatsapp.OrderStatusMessage(o.OrderNumber, string(o.Status), o.SellerNotes)) {
		o.MarkNotified(o.Status)
	}
}

func (s *Service) send(ctx context.Context, phone, message string) bool {
	number := whatsapp.NormalizeNumber(phone)
	if number == "" {
		return false
	}
	if err := s.notifier.Send(ctx, number, message); err != nil {
		s.logger.Warn("WhatsApp notification failed", zap.String("to", number), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	if err := shared.PublishAndClear(ctx, s.events, o); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

// mergeLines folds repeated products into one line so stock is checked
// against the combined quantity.
func mergeLines(in []ItemInput) []ItemInput {
	out := make([]ItemInput, 0, len(in))
	index := make(map[uuid.UUID]int, len(in))
	for _, it := range in {
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
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
