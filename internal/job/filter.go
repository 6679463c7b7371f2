package job

import (
	"strings"

	"leadscout-engine/internal/domain"
)

// ShouldKeepBusiness applies a job's b2b targeting filters to one record.
// Unknown attributes never reject: a business with no employee count still
// passes a size filter.
func ShouldKeepBusiness(t domain.B2BTargeting, b domain.Business) (keep bool, reason string) {
	if t.B2COnly && b.IsB2B {
		return false, "b2c_only"
	}

	if t.Industry != "" && b.IndustryCode != "" {
		want := strings.ToLower(strings.TrimSpace(t.Industry))
		got := strings.ToLower(b.IndustryCode)
		if !strings.Contains(got, want) {
			return false, "industry"
		}
	}

	if b.EmployeeCount > 0 {
		if t.MinEmployees > 0 && b.EmployeeCount < t.MinEmployees {
			return false, "too_small"
		}
		if t.MaxEmployees > 0 && b.EmployeeCount > t.MaxEmployees {
			return false, "too_large"
		}
	}

	if t.TargetState != "" && b.Address != "" {
		state := strings.ToLower(strings.TrimSpace(t.TargetState))
		if !strings.Contains(strings.ToLower(b.Address), state) {
			return false, "state"
		}
	}

	return true, ""
}
