package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const recentReferrals = 10

// ReferralService reports referral progress and converts reward days into
// plan time.
type ReferralService struct {
	users    identity.UserRepository
	settings settings.Repository
	enforcer PlanEnforcer
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewReferralService creates a referral service. baseURL prefixes the
// shareable registration link.
func NewReferralService(users identity.UserRepository, settingsRepo settings.Repository, enforcer PlanEnforcer, baseURL string, logger *zap.Logger) *ReferralService {
	return &ReferralService{
		users:    users,
		settings: settingsRepo,
		enforcer: enforcer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

// Validate resolves a referral code to its owner
func (s *ReferralService) Validate(ctx context.Context, code string) (*ReferrerInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Referral code is required")
	}
	u, err := s.users.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Invalid referral code")
		}
		return nil, err
	}
	return &ReferrerInfo{Name: u.Name, Code: u.ReferralCode}, nil
}

// Apply links a signed-in user who skipped the code at sign-up to its
// owner. The referrer is credited a free referral; reward days follow
// only when the user upgrades.
func (s *ReferralService) Apply(ctx context.Context, userID uuid.UUID, code string) (*ReferrerInfo, error) {
	if _, err := s.Validate(ctx, code); err != nil {
		return nil, err
	}
	referrer, err := s.users.FindByReferralCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.LinkReferrer(referrer.ID); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	referrer.RecordReferral()
	if err := s.users.Update(ctx, referrer); err != nil {
		s.logger.Error("Failed to update referrer stats",
			zap.String("referrer_id", referrer.ID.String()), zap.Error(err))
	}
	s.logger.Info("Referral applied",
		zap.String("user_id", u.ID.String()),
		zap.String("referrer_id", referrer.ID.String()))
	return &ReferrerInfo{Name: referrer.Name, Code: referrer.ReferralCode}, nil
}

// Overview returns the user's code, counters and latest referrals
func (s *ReferralService) Overview(ctx context.Context, userID uuid.UUID) (*ReferralOverview, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	referred, err := s.users.FindReferredBy(ctx, u.ID, recentReferrals)
	if err != nil {
		return nil, err
	}
	out := &ReferralOverview{
		Code:          u.ReferralCode,
		Link:          s.baseURL + "/register?ref=" + u.ReferralCode,
		Stats:         u.ReferralStats,
		AvailableDays: u.ReferralStats.AvailableDays(),
		CanClaim:      u.ReferralStats.AvailableDays() >= identity.RewardClaimBlockDays,
		Referrals:     make([]ReferredUser, len(referred)),
	}
	for i, r := range referred {
		out.Referrals[i] = ReferredUser{Name: r.Name, Plan: r.Plan, JoinedAt: r.CreatedAt}
	}
	return out, nil
}

// Claim converts whole 30-day reward blocks into plan time
func (s *ReferralService) Claim(ctx context.Context, userID uuid.UUID) (*ClaimResult, error) {
	platform, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !platform.Features.EnableReferrals {
		return nil, shared.Forbidden("Referral rewards are currently disabled")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := u.Plan
	days, err := u.ClaimRewards(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if previous != u.Plan && s.enforcer != nil {
		if _, err := s.enforcer.EnforcePlanForOwner(ctx, u.ID, u.Plan); err != nil {
			s.logger.Warn("Plan enforcement failed", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}
	s.logger.Info("Referral rewards claimed",
		zap.String("user_id", u.ID.String()),
		zap.Int("days", days),
		zap.String("plan", string(u.Plan)))
	return &ClaimResult{DaysApplied: days, Plan: u.Plan, PlanExpiry: u.PlanExpiry}, nil
}

// ReferralRewardHandler credits referrers when the users they referred
// first move from free to a paid plan.
type ReferralRewardHandler struct {
	users  identity.UserRepository
	logger *zap.Logger
}

// NewReferralRewardHandler creates a ReferralRewardHandler
func NewReferralRewardHandler(users identity.UserRepository, logger *zap.Logger) *ReferralRewardHandler {
	return &ReferralRewardHandler{users: users, logger: logger}
}

// EventTypes returns the handled event types
func (h *ReferralRewardHandler) EventTypes() []string {
	return []string{identity.EventTypeSubscriptionUpgraded}
}

// Handle credits the referrer of the upgraded user
func (h *ReferralRewardHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*identity.SubscriptionUpgradedEvent)
	if !ok || e.ReferredBy == nil || e.PreviousPlan != identity.PlanFree || !e.Plan.IsPaid() {
		return nil
	}
	referrer, err := h.users.FindByID(ctx, *e.ReferredBy)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	referrer.RecordReferralUpgrade(e.Plan)
	if err := h.users.Update(ctx, referrer); err != nil {
		return err
	}
	h.logger.Info("Referral reward credited",
		zap.String("referrer_id", referrer.ID.String()),
		zap.String("referred_id", e.AggregateID().String()),
		zap.String("plan", string(e.Plan)))
	return nil
}
