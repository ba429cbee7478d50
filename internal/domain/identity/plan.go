package identity

// Plan is a subscription tier
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// IsValid reports whether p is a known plan
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremium:
		return true
	}
	return false
}

// IsPaid reports whether p is a paid plan
func (p Plan) IsPaid() bool {
	return p == PlanPro || p == PlanPremium
}

// Rank orders plans so that feature checks can use "at least pro"
func (p Plan) Rank() int {
	switch p {
	case PlanPro:
		return 1
	case PlanPremium:
		return 2
	default:
		return 0
	}
}

// Unlimited marks a count limit with no ceiling
const Unlimited = -1

const gib int64 = 1024 * 1024 * 1024

// Feature is a plan-gated capability
type Feature string

const (
	FeatureAnalytics           Feature = "analytics"
	FeatureCustomDomain        Feature = "customDomain"
	FeatureGradients           Feature = "gradients"
	FeatureAnimations          Feature = "animations"
	FeatureCustomCSS           Feature = "customCSS"
	FeatureAdvanced            Feature = "advancedFeatures"
	FeaturePrioritySupport     Feature = "prioritySupport"
	FeatureInventoryManagement Feature = "inventoryManagement"
	FeatureStorage             Feature = "storage"
	FeatureWhatsAppAPI         Feature = "whatsappApi"
	FeaturePaymentSettings     Feature = "paymentSettings"
	FeatureThemeMode           Feature = "themeMode"
)

// PlanLimits describes what a plan allows
type PlanLimits struct {
	Plan         Plan             `json:"plan"`
	Products     int              `json:"products"`
	Themes       int              `json:"themes"`
	MaxShops     int              `json:"max_shops"`
	StorageBytes int64            `json:"storage_bytes"`
	Features     map[Feature]bool `json:"features"`
	Highlights   []string         `json:"highlights"`
}

// AllowsCount reports whether one more item fits when current items exist
func AllowsCount(limit, current int) bool {
	return limit == Unlimited || current < limit
}

// Has reports whether the plan includes feature
func (l PlanLimits) Has(feature Feature) bool {
	return l.Features[feature]
}

var planLimits = map[Plan]PlanLimits{
	PlanFree: {
		Plan:         PlanFree,
		Products:     10,
		Themes:       1,
		MaxShops:     1,
		StorageBytes: 0,
		Features:     map[Feature]bool{},
		Highlights: []string{
			"Basic shop setup",
			"1 shop",
			"Up to 10 products",
			"1 default theme (white)",
			"Basic product management",
			"Standard support",
		},
	},
	PlanPro: {
		Plan:         PlanPro,
		Products:     100,
		Themes:       10,
		MaxShops:     2,
		StorageBytes: 65 * gib,
		Features: map[Feature]bool{
			FeatureAnalytics:           true,
			FeatureGradients:           true,
			FeatureAnimations:          true,
			FeatureAdvanced:            true,
			FeatureInventoryManagement: true,
			FeatureStorage:             true,
		},
		Highlights: []string{
			"Everything in Free",
			"2 shops",
			"Up to 100 products per shop",
			"65GB storage",
			"10 professional preset themes",
			"Beautiful gradient themes",
			"Smooth animations",
			"Inventory management system",
			"Advanced analytics dashboard",
		},
	},
	PlanPremium: {
		Plan:         PlanPremium,
		Products:     Unlimited,
		Themes:       Unlimited,
		MaxShops:     3,
		StorageBytes: 1024 * gib,
		Features: map[Feature]bool{
			FeatureAnalytics:           true,
			FeatureCustomDomain:        true,
			FeatureGradients:           true,
			FeatureAnimations:          true,
			FeatureCustomCSS:           true,
			FeatureAdvanced:            true,
			FeaturePrioritySupport:     true,
			FeatureInventoryManagement: true,
			FeatureStorage:             true,
			FeatureWhatsAppAPI:         true,
			FeaturePaymentSettings:     true,
			FeatureThemeMode:           true,
		},
		Highlights: []string{
			"Everything in Pro",
			"3 shops",
			"UNLIMITED products",
			"1TB storage",
			"UNLIMITED theme customization",
			"Custom CSS & styling",
			"Custom domain (yourshop.com)",
			"Remove WaZhop branding",
			"WhatsApp Business API",
			"Priority 24/7 support",
		},
	},
}

// LimitsFor returns the limits of plan, free limits for unknown plans
func LimitsFor(plan Plan) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// HasFeature reports whether plan includes feature
func HasFeature(plan Plan, feature Feature) bool {
	return LimitsFor(plan).Has(feature)
}

// MinimumPlanFor returns the cheapest plan that includes feature
func MinimumPlanFor(feature Feature) Plan {
	for _, p := range []Plan{PlanFree, PlanPro, PlanPremium} {
		if HasFeature(p, feature) {
			return p
		}
	}
	return PlanPremium
}

// BillingPeriod is how often a paid plan is billed
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
)

// IsValid reports whether b is a known billing period
func (b BillingPeriod) IsValid() bool {
	return b == BillingMonthly || b == BillingYearly
}

// DurationDays returns how many days one billing period buys
func (b BillingPeriod) DurationDays() int {
	if b == BillingYearly {
		return 365
	}
	return 30
}

// Label is the human wording used in renewal messages
func (b BillingPeriod) Label() string {
	if b == BillingYearly {
		return "1 year"
	}
	return "30 days"
}
