package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// referralCodeAttempts bounds regeneration when a code collides
const referralCodeAttempts = 5

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	// RefreshTokenTTL bounds how long a user-wide revocation must be remembered
	RefreshTokenTTL time.Duration
}

// AuthService handles registration, login and the account itself
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a buyer account, links a referrer when the code is valid,
// and signs the new user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := identity.NormalizeEmail(input.Email)
	s.logger.Info("Registration attempt", zap.String("email", email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
	}
	if w := strings.TrimSpace(input.WhatsApp); w != "" {
		taken, err := s.userRepo.ExistsByWhatsApp(ctx, w, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "This WhatsApp number is already registered")
		}
	}

	user, err := identity.NewUser(input.Name, email, input.Password, input.WhatsApp)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueReferralCode(ctx, user); err != nil {
		return nil, err
	}

	referrer := s.lookupReferrer(ctx, input.ReferralCode)
	if referrer != nil {
		if err := user.LinkReferrer(referrer.ID); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	if referrer != nil {
		referrer.RecordReferral()
		if err := s.userRepo.Update(ctx, referrer); err != nil {
			s.logger.Error("Failed to update referrer stats",
				zap.String("referrer_id", referrer.ID.String()), zap.Error(err))
		}
	}

	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish registration events", zap.Error(err))
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.Bool("referred", referrer != nil))

	user.RecordLoginSuccess(input.IP, s.now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to record first login", zap.Error(err))
	}
	return s.issue(user)
}

// lookupReferrer resolves a referral code. Unknown codes never block registration.
func (s *AuthService) lookupReferrer(ctx context.Context, code string) *identity.User {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	referrer, err := s.userRepo.FindByReferralCode(ctx, code)
	if err != nil {
		s.logger.Warn("Ignoring invalid referral code", zap.String("code", code), zap.Error(err))
		return nil
	}
	return referrer
}

func (s *AuthService) ensureUniqueReferralCode(ctx context.Context, user *identity.User) error {
	for i := 0; i < referralCodeAttempts; i++ {
		taken, err := s.userRepo.ExistsByReferralCode(ctx, user.ReferralCode)
		if err != nil {
			return err
		}
		if !taken {
			return nil
		}
		user.ReferralCode = identity.GenerateReferralCode()
	}
	return shared.NewDomainError("CONCURRENCY_CONFLICT", "Could not allocate a referral code, please retry")
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := identity.NormalizeEmail(input.Email)
	s.logger.Info("Login attempt", zap.String("email", email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("email", email))
			return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
		}
		return nil, err
	}

	if user.IsTemporary {
		s.logger.Warn("Login attempt for unclaimed store account", zap.String("email", email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	now := s.now()
	if user.IsLocked(now) {
		s.logger.Warn("Login attempt for locked account", zap.String("email", email))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked due to too many failed login attempts. Please try again later.")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(now)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", email),
				zap.Int("attempts", user.LoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked for 15 minutes")
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("email", email),
			zap.Int("failed_attempts", user.LoginAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if !user.IsActive {
		s.logger.Warn("Login attempt for deactivated account", zap.String("email", email))
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Your account has been deactivated. Please contact support.")
	}

	user.RecordLoginSuccess(input.IP, now)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// RefreshToken rotates a refresh token into a new pair. The old refresh
// token is revoked so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("TOKEN_INVALID", "User no longer exists")
	}
	if !user.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Your account has been deactivated. Please contact support.")
	}

	pair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, subjectOf(user))
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed", zap.String("user_id", user.ID.String()))
	return s.result(user, pair), nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked. Please log in again")
	}
	return nil
}

// Logout revokes the caller's access token and, when given, its refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI != "" {
		if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to revoke access token", zap.Error(err))
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
				s.logger.Error("Failed to revoke refresh token", zap.Error(err))
			}
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser returns the caller's account
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user, s.now())
	return &info, nil
}

// UpdateProfile changes name and WhatsApp number
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.WhatsApp != nil {
		if w := strings.TrimSpace(*input.WhatsApp); w != "" && w != user.WhatsApp {
			taken, err := s.userRepo.ExistsByWhatsApp(ctx, w, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "This WhatsApp number is already registered")
			}
		}
	}
	if err := user.UpdateProfile(input.Name, input.WhatsApp); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	info := ToUserInfo(user, s.now())
	return &info, nil
}

// ChangePassword replaces the password and revokes every token issued before now
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.CurrentPassword, input.NewPassword); err != nil {
		s.logger.Warn("Password change rejected", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.now(), s.config.RefreshTokenTTL); err != nil {
		s.logger.Error("Failed to revoke sessions after password change", zap.Error(err))
	}
	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// UpgradeToSeller turns a buyer into a seller and returns tokens carrying
// the new role. Subscribers create the seller's first shop.
func (s *AuthService) UpgradeToSeller(ctx context.Context, userID uuid.UUID) (*AuthResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpgradeToSeller(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish role change", zap.Error(err))
	}
	s.logger.Info("User upgraded to seller", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// ClaimTemporary turns the placeholder owner of an admin-built store into
// the activating seller's account and signs them in
func (s *AuthService) ClaimTemporary(ctx context.Context, userID uuid.UUID, input ClaimAccountInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsTemporary {
		return nil, shared.NewDomainError("INVALID_STATE", "This account has already been activated")
	}
	email := identity.NormalizeEmail(input.Email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email already registered. Please use a different email.")
	}
	if w := strings.TrimSpace(input.WhatsApp); w != "" {
		taken, err := s.userRepo.ExistsByWhatsApp(ctx, w, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "This WhatsApp number is already registered")
		}
	}
	if err := user.ClaimTemporary(email, input.Password, input.WhatsApp); err != nil {
		return nil, err
	}
	user.RecordLoginSuccess(input.IP, s.now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Email already registered. Please use a different email.")
		}
		return nil, err
	}
	s.logger.Info("Temporary account claimed", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

func (s *AuthService) issue(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(subjectOf(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return s.result(user, pair), nil
}

func (s *AuthService) result(user *identity.User, pair *auth.TokenPair) *AuthResult {
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user, s.now()),
	}
}

func subjectOf(u *identity.User) auth.Subject {
	return auth.Subject{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		Plan:   string(u.Plan),
	}
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
