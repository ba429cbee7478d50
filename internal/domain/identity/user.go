package identity

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is what a user may do on the platform
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleBuyer || r == RoleSeller || r == RoleAdmin
}

// SubscriptionStatus tracks the state of a paid plan
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

const (
	bcryptCost = 10

	// MaxLoginAttempts failed logins lock the account for LockDuration
	MaxLoginAttempts = 5
	LockDuration     = 15 * time.Minute

	// ReferralCodeLength is the length of generated referral codes
	ReferralCodeLength = 8

	// Reward days credited to a referrer when a referred user upgrades
	ProReferralRewardDays     = 15
	PremiumReferralRewardDays = 30
	// RewardClaimBlockDays is the smallest claimable reward block
	RewardClaimBlockDays = 30
)

var (
	emailRegex    = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	whatsappRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// ReferralStats counts a user's referrals and reward days
type ReferralStats struct {
	TotalReferrals  int `json:"total_referrals"`
	FreeReferred    int `json:"free_referred"`
	ProReferred     int `json:"pro_referred"`
	PremiumReferred int `json:"premium_referred"`
	RewardsEarned   int `json:"rewards_earned"`
	RewardsUsed     int `json:"rewards_used"`
}

// AvailableDays returns reward days not yet claimed
func (s ReferralStats) AvailableDays() int {
	return s.RewardsEarned - s.RewardsUsed
}

// User is a buyer, seller or admin account.
// It is the aggregate root for authentication, subscription and referrals.
type User struct {
	shared.BaseAggregateRoot
	Name               string
	Email              string
	PasswordHash       string
	WhatsApp           string
	Role               Role
	Plan               Plan
	PlanExpiry         *time.Time
	AutoRenew          bool
	BillingPeriod      BillingPeriod
	LastBillingDate    *time.Time
	SubscriptionStatus SubscriptionStatus
	StorageUsed        int64
	IsActive           bool
	ReferralCode       string
	ReferredBy         *uuid.UUID
	ReferralStats      ReferralStats
	LastLoginAt        *time.Time
	LastLoginIP        string
	LoginAttempts      int
	LockUntil          *time.Time
	// IsTemporary marks the placeholder owner of an admin-built store
	// until the real seller claims it
	IsTemporary bool
}

// NewUser registers a buyer on the free plan
func NewUser(name, email, password, whatsapp string) (*User, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	whatsapp = strings.TrimSpace(whatsapp)
	if err := validateWhatsApp(whatsapp); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		WhatsApp:           whatsapp,
		Role:               RoleBuyer,
		Plan:               PlanFree,
		BillingPeriod:      BillingMonthly,
		SubscriptionStatus: SubscriptionActive,
		IsActive:           true,
		ReferralCode:       GenerateReferralCode(),
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// TemporaryEmailDomain hosts the placeholder addresses of unclaimed stores
const TemporaryEmailDomain = "temporary.wazhop.ng"

// NewTemporaryUser creates the placeholder seller of an admin-built store.
// The password is random and no registration event is raised.
func NewTemporaryUser(storeName, slug string) (*User, error) {
	name := []rune(strings.TrimSpace(storeName))
	if len(name) > 50 {
		name = name[:50]
	}
	if err := validateName(string(name)); err != nil {
		return nil, err
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	hash, err := hashPassword(hex.EncodeToString(secret))
	if err != nil {
		return nil, err
	}
	return &User{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               string(name),
		Email:              "temp-" + slug + "-" + hex.EncodeToString(secret[:4]) + "@" + TemporaryEmailDomain,
		PasswordHash:       hash,
		Role:               RoleSeller,
		Plan:               PlanFree,
		BillingPeriod:      BillingMonthly,
		SubscriptionStatus: SubscriptionActive,
		IsActive:           true,
		ReferralCode:       GenerateReferralCode(),
		IsTemporary:        true,
	}, nil
}

// ClaimTemporary turns a placeholder seller into the real account of the
// person who activated the store
func (u *User) ClaimTemporary(email, password, whatsapp string) error {
	if !u.IsTemporary {
		return shared.NewDomainError("INVALID_STATE", "This account has already been activated")
	}
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	whatsapp = strings.TrimSpace(whatsapp)
	if whatsapp == "" {
		return shared.NewDomainError("INVALID_INPUT", "WhatsApp number is required")
	}
	if err := validateWhatsApp(whatsapp); err != nil {
		return err
	}
	if err := u.SetPassword(password); err != nil {
		return err
	}
	u.Email = email
	u.WhatsApp = whatsapp
	u.IsTemporary = false
	u.IsActive = true
	u.LoginAttempts = 0
	u.LockUntil = nil
	return nil
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyPassword reports whether password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after checking the current one
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("UNAUTHORIZED", "Current password is incorrect")
	}
	return u.SetPassword(next)
}

// SetPassword hashes and stores a new password
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// UpdateProfile changes the name and/or WhatsApp number; nil leaves a field as is
func (u *User) UpdateProfile(name, whatsapp *string) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if err := validateName(n); err != nil {
			return err
		}
		u.Name = n
	}
	if whatsapp != nil {
		w := strings.TrimSpace(*whatsapp)
		if err := validateWhatsApp(w); err != nil {
			return err
		}
		u.WhatsApp = w
	}
	u.touch()
	return nil
}

// IsLocked reports whether failed logins currently lock the account
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// RecordLoginSuccess clears failed attempts and stamps the login
func (u *User) RecordLoginSuccess(ip string, now time.Time) {
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.touch()
}

// RecordLoginFailure counts a failed login and returns true when the
// account became locked.
func (u *User) RecordLoginFailure(now time.Time) bool {
	if u.LockUntil != nil && !now.Before(*u.LockUntil) {
		u.LoginAttempts = 0
		u.LockUntil = nil
	}
	u.LoginAttempts++
	u.touch()
	if u.LoginAttempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		u.LockUntil = &until
		return true
	}
	return false
}

// Limits returns the limits of the user's current plan
func (u *User) Limits() PlanLimits {
	return LimitsFor(u.Plan)
}

// IsSeller reports whether the user may own shops
func (u *User) IsSeller() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}

// IsAdmin reports whether the user is a platform admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpgradeToSeller turns a buyer into a seller
func (u *User) UpgradeToSeller() error {
	if u.Role != RoleBuyer {
		return shared.NewDomainError("INVALID_STATE", "Account is already a seller")
	}
	u.Role = RoleSeller
	u.touch()
	u.AddDomainEvent(NewUserRoleChangedEvent(u, RoleBuyer))
	return nil
}

// ChangeRole sets the role; admin only
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid role. Must be buyer, seller, or admin.")
	}
	old := u.Role
	u.Role = role
	u.touch()
	if old != role {
		u.AddDomainEvent(NewUserRoleChangedEvent(u, old))
	}
	return nil
}

// ToggleActive flips the active flag and returns the new value
func (u *User) ToggleActive() bool {
	u.IsActive = !u.IsActive
	u.touch()
	return u.IsActive
}

// IsPlanExpired reports whether a paid plan's expiry has passed
func (u *User) IsPlanExpired(now time.Time) bool {
	if u.Plan == PlanFree || u.PlanExpiry == nil {
		return false
	}
	return now.After(*u.PlanExpiry)
}

// DaysRemaining returns whole days left on the plan rounded up, nil with no expiry
func (u *User) DaysRemaining(now time.Time) *int {
	if u.PlanExpiry == nil {
		return nil
	}
	days := int(math.Ceil(u.PlanExpiry.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

// ApplyUpgrade moves the user onto a paid plan starting now
func (u *User) ApplyUpgrade(plan Plan, period BillingPeriod, now time.Time) error {
	if !plan.IsPaid() {
		return shared.NewDomainError("INVALID_INPUT", `Invalid plan. Choose "pro" or "premium"`)
	}
	if !period.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", `Invalid billing period. Choose "monthly" or "yearly"`)
	}
	previous := u.Plan
	expiry := now.AddDate(0, 0, period.DurationDays())
	u.Plan = plan
	u.BillingPeriod = period
	u.PlanExpiry = &expiry
	u.LastBillingDate = &now
	u.SubscriptionStatus = SubscriptionActive
	u.touch()
	u.AddDomainEvent(NewSubscriptionUpgradedEvent(u, previous))
	return nil
}

// Renew extends the plan by one billing period, from the current expiry
// when it is still in the future and from now otherwise.
func (u *User) Renew(now time.Time) error {
	if u.Plan == PlanFree {
		return shared.NewDomainError("INVALID_STATE", "Cannot renew free plan. Please upgrade first.")
	}
	start := now
	if u.PlanExpiry != nil && u.PlanExpiry.After(now) {
		start = *u.PlanExpiry
	}
	u.extendFrom(start, now)
	return nil
}

// AutoRenewFromExpiry extends an expired plan from its old expiry, the way the
// nightly job renews auto-renewing subscribers.
func (u *User) AutoRenewFromExpiry(now time.Time) error {
	if u.Plan == PlanFree {
		return shared.NewDomainError("INVALID_STATE", "Cannot renew free plan. Please upgrade first.")
	}
	start := now
	if u.PlanExpiry != nil {
		start = *u.PlanExpiry
	}
	u.extendFrom(start, now)
	return nil
}

func (u *User) extendFrom(start, now time.Time) {
	if !u.BillingPeriod.IsValid() {
		u.BillingPeriod = BillingMonthly
	}
	expiry := start.AddDate(0, 0, u.BillingPeriod.DurationDays())
	u.PlanExpiry = &expiry
	u.LastBillingDate = &now
	u.SubscriptionStatus = SubscriptionActive
	u.touch()
	u.AddDomainEvent(NewSubscriptionRenewedEvent(u))
}

// SetAutoRenew toggles automatic renewal on a paid plan
func (u *User) SetAutoRenew(enabled bool) error {
	if u.Plan == PlanFree {
		return shared.NewDomainError("INVALID_STATE", "Auto-renewal is not available for free plan")
	}
	u.AutoRenew = enabled
	u.touch()
	return nil
}

// CancelSubscription stops renewal; the plan stays usable until expiry
func (u *User) CancelSubscription() error {
	if u.Plan == PlanFree {
		return shared.NewDomainError("INVALID_STATE", "You are already on the free plan")
	}
	u.AutoRenew = false
	u.SubscriptionStatus = SubscriptionCancelled
	u.touch()
	return nil
}

// Downgrade drops the user to the free plan after expiry
func (u *User) Downgrade() {
	previous := u.Plan
	u.Plan = PlanFree
	u.PlanExpiry = nil
	u.SubscriptionStatus = SubscriptionExpired
	u.AutoRenew = false
	u.touch()
	u.AddDomainEvent(NewSubscriptionExpiredEvent(u, previous))
}

// ReactivateIfCancelled restores a cancelled subscription that is still in
// its paid period. Returns true when it changed anything.
func (u *User) ReactivateIfCancelled(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionCancelled || u.PlanExpiry == nil || !u.PlanExpiry.After(now) {
		return false
	}
	u.SubscriptionStatus = SubscriptionActive
	u.touch()
	return true
}

// GrantPlan sets a plan by hand; paid plans last durationDays from now
func (u *User) GrantPlan(plan Plan, durationDays int, now time.Time) error {
	if !plan.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid plan")
	}
	previous := u.Plan
	u.Plan = plan
	switch {
	case plan == PlanFree:
		u.PlanExpiry = nil
		u.AutoRenew = false
		u.SubscriptionStatus = SubscriptionActive
	case durationDays > 0:
		expiry := now.AddDate(0, 0, durationDays)
		u.PlanExpiry = &expiry
		u.SubscriptionStatus = SubscriptionActive
	}
	u.touch()
	if plan.Rank() > previous.Rank() {
		u.AddDomainEvent(NewSubscriptionUpgradedEvent(u, previous))
	}
	return nil
}

// LinkReferrer records who referred this user
func (u *User) LinkReferrer(referrerID uuid.UUID) error {
	if u.ReferredBy != nil {
		return shared.NewDomainError("INVALID_STATE", "User already has a referrer")
	}
	if referrerID == u.ID {
		return shared.NewDomainError("INVALID_INPUT", "You cannot refer yourself")
	}
	u.ReferredBy = &referrerID
	u.touch()
	return nil
}

// RecordReferral counts a newly registered referral, who starts on free
func (u *User) RecordReferral() {
	u.ReferralStats.TotalReferrals++
	u.ReferralStats.FreeReferred++
	u.touch()
}

// RecordReferralUpgrade moves a referral from the free bucket to the paid
// plan's bucket and credits reward days.
func (u *User) RecordReferralUpgrade(plan Plan) {
	switch plan {
	case PlanPro:
		u.ReferralStats.ProReferred++
		u.ReferralStats.RewardsEarned += ProReferralRewardDays
	case PlanPremium:
		u.ReferralStats.PremiumReferred++
		u.ReferralStats.RewardsEarned += PremiumReferralRewardDays
	default:
		return
	}
	if u.ReferralStats.FreeReferred > 0 {
		u.ReferralStats.FreeReferred--
	}
	u.touch()
}

// ClaimRewards converts whole 30-day reward blocks into plan time: free users
// move to pro, paid plans are extended. Returns the days applied.
func (u *User) ClaimRewards(now time.Time) (int, error) {
	available := u.ReferralStats.AvailableDays()
	if available < RewardClaimBlockDays {
		return 0, shared.NewDomainError("INVALID_STATE", "Insufficient rewards. Need at least 30 days to claim.")
	}
	days := (available / RewardClaimBlockDays) * RewardClaimBlockDays

	if u.Plan == PlanFree {
		expiry := now.AddDate(0, 0, days)
		u.Plan = PlanPro
		u.PlanExpiry = &expiry
		u.SubscriptionStatus = SubscriptionActive
	} else {
		start := now
		if u.PlanExpiry != nil {
			start = *u.PlanExpiry
		}
		expiry := start.AddDate(0, 0, days)
		u.PlanExpiry = &expiry
	}
	u.ReferralStats.RewardsUsed += days
	u.touch()
	return days, nil
}

// ReserveStorage accounts for an upload against the plan's storage quota
func (u *User) ReserveStorage(bytes int64) error {
	limit := u.Limits().StorageBytes
	if limit == 0 {
		return shared.PlanLimit("Image storage is not available on the Free plan. Please upgrade to Pro or Premium to upload images.")
	}
	if u.StorageUsed+bytes > limit {
		return shared.PlanLimit("Storage limit reached for your plan")
	}
	u.StorageUsed += bytes
	u.touch()
	return nil
}

// ReleaseStorage gives back quota after a file is deleted
func (u *User) ReleaseStorage(bytes int64) {
	u.StorageUsed -= bytes
	if u.StorageUsed < 0 {
		u.StorageUsed = 0
	}
	u.touch()
}

func (u *User) touch() {
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode returns a random 8-character uppercase code
func GenerateReferralCode() string {
	return randomCode(referralAlphabet, ReferralCodeLength)
}

func randomCode(alphabet string, n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:n])
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func validateName(name string) error {
	if len([]rune(name)) < 2 {
		return shared.NewDomainError("INVALID_INPUT", "Name must be at least 2 characters")
	}
	if len([]rune(name)) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Name cannot exceed 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_INPUT", "Email is required")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_INPUT", "Please provide a valid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_INPUT", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_INPUT", "Password cannot exceed 72 characters")
	}
	return nil
}

func validateWhatsApp(number string) error {
	if number == "" {
		return nil
	}
	if !whatsappRegex.MatchString(number) {
		return shared.NewDomainError("INVALID_INPUT", "Please provide a valid WhatsApp number with country code")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
