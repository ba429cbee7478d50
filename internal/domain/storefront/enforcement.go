package storefront

import "github.com/wazhop/backend/internal/domain/identity"

// EnforcePlan brings an owner's shops in line with plan. Shops must be ordered
// oldest first: the oldest MaxShops stay active and the rest are deactivated.
// Nothing is deleted. Returns the shops that changed.
func EnforcePlan(shops []*Shop, plan identity.Plan) []*Shop {
	limit := identity.LimitsFor(plan).MaxShops
	changed := make([]*Shop, 0, len(shops))
	for i, s := range shops {
		wasActive, wasBranded, wasWatermarked := s.IsActive, s.ShowBranding, s.ShowWatermark
		if i < limit {
			s.Reopen()
		} else {
			s.Deactivate()
		}
		s.ApplyPlanBranding(plan)
		if s.IsActive != wasActive || s.ShowBranding != wasBranded || s.ShowWatermark != wasWatermarked {
			changed = append(changed, s)
		}
	}
	return changed
}
