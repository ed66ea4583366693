package validation

import (
	"fmt"

	"backend/models"
)

// allowedTransitions is the BOM status state machine. No self-transitions.
var allowedTransitions = map[string][]string{
	models.BOMStatusDraft:    {models.BOMStatusActive, models.BOMStatusInactive},
	models.BOMStatusActive:   {models.BOMStatusInactive, models.BOMStatusDraft},
	models.BOMStatusInactive: {models.BOMStatusActive, models.BOMStatusDraft},
}

// AllowedTargets returns the statuses reachable from current, for UI menus.
func AllowedTargets(current string) []string {
	targets := allowedTransitions[current]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// ValidateStatusTransition checks whether a BOM may move from current to
// target given its snapshot. Returns ok plus a human reason when it may not.
//
// Guards per target:
//   - ACTIVE requires at least one material line and a positive output
//     quantity. A second ACTIVE BOM for the same product is NOT a guard here;
//     that conflict is surfaced separately so the user can choose a
//     resolution.
//   - INACTIVE requires no in-flight orders.
//   - DRAFT requires the BOM was never used by any order; once usage exists
//     the return to DRAFT is gone for good.
func ValidateStatusTransition(current, target string, bom models.BOMSnapshot) (bool, string) {
	if current == target {
		return false, fmt.Sprintf("BOM is already %s", current)
	}

	targets, known := allowedTransitions[current]
	if !known {
		return false, fmt.Sprintf("unknown BOM status %q", current)
	}
	found := false
	for _, t := range targets {
		if t == target {
			found = true
			break
		}
	}
	if !found {
		return false, fmt.Sprintf("transition %s -> %s is not allowed", current, target)
	}

	switch target {
	case models.BOMStatusActive:
		if bom.MaterialCount <= 0 {
			return false, "cannot activate a BOM without material lines"
		}
		if bom.OutputQty <= 0 {
			return false, "cannot activate a BOM with zero output quantity"
		}
	case models.BOMStatusInactive:
		if bom.ActiveOrders > 0 {
			return false, fmt.Sprintf("cannot deactivate: %d active order(s) still reference this BOM", bom.ActiveOrders)
		}
	case models.BOMStatusDraft:
		if bom.TotalUsage > 0 {
			return false, fmt.Sprintf("cannot return to DRAFT: BOM has been used by %d order(s)", bom.TotalUsage)
		}
	default:
		return false, fmt.Sprintf("unknown target status %q", target)
	}

	return true, ""
}
