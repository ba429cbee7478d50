package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BoostSeller prices boosts and applies them once paid
type BoostSeller interface {
	QuoteBoost(ctx context.Context, ownerID, id uuid.UUID, req catalog.BoostRequest) (*catalogapp.BoostQuote, error)
	ApplyBoost(ctx context.Context, id uuid.UUID, req catalog.BoostRequest) (*catalog.Product, error)
}

// PaymentConfig tunes the payment service
type PaymentConfig struct {
	// CallbackURL is where the gateway returns the payer
	CallbackURL  string
	AbandonAfter time.Duration
}

// PaymentService collects gateway payments for plans and boosts and settles
// them from verification calls and webhooks.
type PaymentService struct {
	txs           billing.TransactionRepository
	users         identity.UserRepository
	gateway       Gateway
	subscriptions *SubscriptionService
	boosts        BoostSeller
	events        shared.EventPublisher
	cfg           PaymentConfig
	logger        *zap.Logger
	now           func() time.Time
}

// PaymentServiceConfig wires a PaymentService
type PaymentServiceConfig struct {
	Transactions  billing.TransactionRepository
	Users         identity.UserRepository
	Gateway       Gateway
	Subscriptions *SubscriptionService
	Boosts        BoostSeller
	Events        shared.EventPublisher
	Config        PaymentConfig
	Logger        *zap.Logger
}

// NewPaymentService creates a payment service
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	if cfg.Config.AbandonAfter <= 0 {
		cfg.Config.AbandonAfter = billing.AbandonAfter
	}
	return &PaymentService{
		txs:           cfg.Transactions,
		users:         cfg.Users,
		gateway:       cfg.Gateway,
		subscriptions: cfg.Subscriptions,
		boosts:        cfg.Boosts,
		events:        cfg.Events,
		cfg:           cfg.Config,
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// Initiate prices a purchase on the server, records the transaction and
// opens a gateway checkout for it.
func (s *PaymentService) Initiate(ctx context.Context, in InitiatePaymentInput) (*PaymentSession, error) {
	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	amount, meta, err := s.price(ctx, user, &in)
	if err != nil {
		return nil, err
	}

	tx, err := billing.NewTransaction(billing.TransactionParams{
		UserID:    user.ID,
		Reference: NewReference(),
		Type:      in.Type,
		Amount:    amount,
		Currency:  "NGN",
		Provider:  s.gateway.Provider(),
		Metadata:  meta,
		Client:    in.Client,
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.publish(ctx, tx)

	if !amount.IsPositive() {
		if err := s.settle(ctx, tx, Verification{Reference: tx.Reference, Status: billing.StatusSuccessful, Amount: amount, Currency: tx.Currency, Channel: "coupon"}); err != nil {
			return nil, err
		}
		return &PaymentSession{Transaction: tx, Settled: true}, nil
	}

	callback := in.Client.RedirectURL
	if callback == "" {
		callback = s.cfg.CallbackURL
	}
	session, err := s.gateway.Initialize(ctx, CheckoutRequest{
		Reference:   tx.Reference,
		Email:       user.Email,
		Amount:      amount,
		Currency:    tx.Currency,
		CallbackURL: callback,
		Metadata: map[string]string{
			"type":    string(tx.Type),
			"user_id": user.ID.String(),
		},
	})
	if err != nil {
		if _, uerr := tx.UpdateStatus(billing.StatusFailed, billing.StatusDetails{ErrorMessage: err.Error()}, s.now()); uerr == nil {
			if uerr := s.txs.Update(ctx, tx); uerr != nil {
				s.logger.Warn("Failed to record checkout failure", zap.String("reference", tx.Reference), zap.Error(uerr))
			}
		}
		s.logger.Error("Failed to open checkout",
			zap.String("reference", tx.Reference), zap.Error(err))
		return nil, fmt.Errorf("initialize payment: %w", err)
	}
	s.logger.Info("Payment initiated",
		zap.String("reference", tx.Reference),
		zap.String("type", string(tx.Type)),
		zap.String("amount", amount.String()))
	return &PaymentSession{Transaction: tx, AuthorizationURL: session.AuthorizationURL, AccessCode: session.AccessCode}, nil
}

func (s *PaymentService) price(ctx context.Context, user *identity.User, in *InitiatePaymentInput) (decimal.Decimal, billing.TransactionMetadata, error) {
	var meta billing.TransactionMetadata
	switch in.Type {
	case billing.TransactionSubscription, billing.TransactionUpgrade:
		q, err := s.subscriptions.Quote(ctx, user.ID, in.Plan, in.BillingPeriod, in.CouponCode)
		if err != nil {
			return decimal.Zero, meta, err
		}
		if user.Plan.IsPaid() {
			in.Type = billing.TransactionUpgrade
		} else {
			in.Type = billing.TransactionSubscription
		}
		meta.Plan, meta.BillingPeriod, meta.CouponCode = q.Plan, q.BillingPeriod, q.CouponCode
		meta.OriginalAmount, meta.DiscountApplied = q.OriginalAmount, q.DiscountAmount
		return q.FinalAmount, meta, nil
	case billing.TransactionRenewal:
		q, err := s.subscriptions.QuoteRenewal(ctx, user.ID)
		if err != nil {
			return decimal.Zero, meta, err
		}
		meta.Plan, meta.BillingPeriod = q.Plan, q.BillingPeriod
		meta.OriginalAmount, meta.DiscountApplied = q.OriginalAmount, decimal.Zero
		return q.FinalAmount, meta, nil
	case billing.TransactionBoost:
		if in.ProductID == nil {
			return decimal.Zero, meta, shared.NewDomainError("INVALID_INPUT", "Product is required for a boost")
		}
		q, err := s.boosts.QuoteBoost(ctx, user.ID, *in.ProductID, catalog.BoostRequest{Hours: in.BoostHours, State: in.BoostState, Area: in.BoostArea})
		if err != nil {
			return decimal.Zero, meta, err
		}
		meta.ProductID = in.ProductID
		meta.BoostHours = q.Hours
		meta.State, meta.Area = strings.TrimSpace(in.BoostState), strings.TrimSpace(in.BoostArea)
		meta.OriginalAmount, meta.DiscountApplied = q.Amount, decimal.Zero
		return q.Amount, meta, nil
	}
	return decimal.Zero, meta, shared.NewDomainError("INVALID_INPUT", "Invalid transaction type")
}

// Verify asks the gateway for the outcome of a user's payment and settles it
func (s *PaymentService) Verify(ctx context.Context, userID uuid.UUID, reference string) (*billing.Transaction, error) {
	tx, err := s.owned(ctx, userID, false, reference)
	if err != nil {
		return nil, err
	}
	if tx.Status.IsFinal() {
		return tx, nil
	}
	tx.RecordVerification(s.now())
	v, err := s.gateway.Verify(ctx, tx.Reference)
	if err != nil {
		if uerr := s.txs.Update(ctx, tx); uerr != nil {
			s.logger.Warn("Failed to record verification attempt", zap.String("reference", tx.Reference), zap.Error(uerr))
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if err := s.settle(ctx, tx, *v); err != nil {
		return nil, err
	}
	return tx, nil
}

// Provider names the gateway payments are taken through
func (s *PaymentService) Provider() billing.Provider {
	return s.gateway.Provider()
}

// HandleWebhook settles the payment a gateway notification refers to.
// Unknown references are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	s.logger.Info("Processing payment webhook",
		zap.String("event", evt.Event),
		zap.String("reference", evt.Verification.Reference))
	tx, err := s.txs.FindByReference(ctx, evt.Verification.Reference)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Webhook for unknown payment", zap.String("reference", evt.Verification.Reference))
			return nil
		}
		return err
	}
	return s.settle(ctx, tx, evt.Verification)
}

// settle records the gateway outcome and delivers what was paid for the
// first time the payment succeeds.
func (s *PaymentService) settle(ctx context.Context, tx *billing.Transaction, v Verification) error {
	status := v.Status
	details := billing.StatusDetails{
		ProviderTransactionID: v.ProviderTransactionID,
		PaymentMethod:         v.Channel,
	}
	if status == billing.StatusSuccessful && (v.Amount.LessThan(tx.Amount) || !strings.EqualFold(v.Currency, tx.Currency)) {
		status = billing.StatusFailed
		details.ErrorCode = "AMOUNT_MISMATCH"
		details.ErrorMessage = fmt.Sprintf("Expected %s %s, received %s %s", tx.Amount, tx.Currency, v.Amount, v.Currency)
	}
	if status != billing.StatusSuccessful && v.Message != "" && details.ErrorMessage == "" {
		details.ErrorMessage = v.Message
	}
	if !status.IsFinal() {
		if status == billing.StatusPending && tx.Status == billing.StatusInitiated {
			if _, err := tx.UpdateStatus(status, details, s.now()); err != nil {
				return err
			}
			s.publish(ctx, tx)
		}
		_, err := s.save(ctx, tx)
		return err
	}

	changed, err := tx.UpdateStatus(status, details, s.now())
	if err != nil {
		if tx.Status == billing.StatusSuccessful {
			return nil
		}
		return err
	}
	saved, err := s.save(ctx, tx)
	if err != nil || !saved {
		return err
	}
	s.publish(ctx, tx)
	if !changed || tx.Status != billing.StatusSuccessful {
		s.logger.Info("Payment settled",
			zap.String("reference", tx.Reference),
			zap.String("status", string(tx.Status)))
		return nil
	}
	s.logger.Info("Payment successful",
		zap.String("reference", tx.Reference),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()))
	return s.fulfil(ctx, tx)
}

// save stores tx. When another request stored a newer version first (a
// webhook racing a verify call) tx is reloaded and saved is false, so the
// caller must not deliver the purchase again.
func (s *PaymentService) save(ctx context.Context, tx *billing.Transaction) (saved bool, err error) {
	err = s.txs.Update(ctx, tx)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return false, err
	}
	s.logger.Info("Payment changed by another request", zap.String("reference", tx.Reference))
	fresh, err := s.txs.FindByReference(ctx, tx.Reference)
	if err != nil {
		return false, err
	}
	*tx = *fresh
	return false, nil
}

func (s *PaymentService) fulfil(ctx context.Context, tx *billing.Transaction) error {
	m := tx.Metadata
	var err error
	switch tx.Type {
	case billing.TransactionSubscription, billing.TransactionUpgrade:
		_, err = s.subscriptions.ApplyUpgrade(ctx, tx.UserID, m.Plan, m.BillingPeriod, m.CouponCode)
	case billing.TransactionRenewal:
		_, err = s.subscriptions.ApplyRenewal(ctx, tx.UserID)
	case billing.TransactionBoost:
		if m.ProductID == nil {
			return shared.NewDomainError("INVALID_STATE", "Boost payment has no product")
		}
		_, err = s.boosts.ApplyBoost(ctx, *m.ProductID, catalog.BoostRequest{Hours: m.BoostHours, State: m.State, Area: m.Area})
	}
	if err != nil {
		s.logger.Error("Paid purchase could not be delivered",
			zap.String("reference", tx.Reference),
			zap.String("type", string(tx.Type)),
			zap.Error(err))
		return fmt.Errorf("fulfil payment %s: %w", tx.Reference, err)
	}
	return nil
}

// History returns a page of the user's payments, newest first
func (s *PaymentService) History(ctx context.Context, q PaymentHistoryQuery) (shared.Paginated[*billing.Transaction], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 50
	}
	userID := q.UserID
	items, total, err := s.txs.FindAll(ctx, billing.TransactionFilter{
		Status: q.Status, Type: q.Type, UserID: &userID, Page: q.Page, PageSize: q.PageSize,
	})
	if err != nil {
		return shared.Paginated[*billing.Transaction]{}, err
	}
	return shared.NewPaginated(items, total, q.Page, q.PageSize), nil
}

// Analytics summarises payments started in the last days days. Admins see
// the whole platform, everyone else their own payments.
func (s *PaymentService) Analytics(ctx context.Context, userID uuid.UUID, isAdmin bool, days int) (*PaymentAnalytics, error) {
	days = analyticsWindow(days)
	filter := billing.AnalyticsFilter{Since: s.now().AddDate(0, 0, -days)}
	if !isAdmin {
		filter.UserID = &userID
	}
	rows, err := s.txs.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &PaymentAnalytics{Days: days, Since: filter.Since, PaymentAnalytics: billing.NewPaymentAnalytics(rows)}, nil
}

// analyticsWindow clamps a report window to 1..365 days, 30 by default
func analyticsWindow(days int) int {
	if days <= 0 {
		return 30
	}
	if days > 365 {
		return 365
	}
	return days
}

// Get returns one payment; admins may see anyone's
func (s *PaymentService) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, reference string) (*billing.Transaction, error) {
	return s.owned(ctx, userID, isAdmin, reference)
}

// MarkAbandoned abandons initiated payments older than after, or the
// configured threshold when after is zero.
func (s *PaymentService) MarkAbandoned(ctx context.Context, after time.Duration) (int64, error) {
	if after <= 0 {
		after = s.cfg.AbandonAfter
	}
	n, err := s.txs.MarkAbandoned(ctx, s.now().Add(-after),
		fmt.Sprintf("Payment not completed within %d minutes", int(after.Minutes())))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Marked abandoned payments", zap.Int64("count", n))
	}
	return n, nil
}

func (s *PaymentService) owned(ctx context.Context, userID uuid.UUID, isAdmin bool, reference string) (*billing.Transaction, error) {
	tx, err := s.txs.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !isAdmin && tx.UserID != userID {
		return nil, shared.NotFound("Transaction")
	}
	return tx, nil
}

func (s *PaymentService) publish(ctx context.Context, tx *billing.Transaction) {
	if err := shared.PublishAndClear(ctx, s.events, tx); err != nil {
		s.logger.Warn("Failed to publish payment events",
			zap.String("reference", tx.Reference), zap.Error(err))
	}
}

// NewReference returns a unique transaction reference
func NewReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "WZ-" + id[:20]
}
