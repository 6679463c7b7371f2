package job

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadscout-engine/internal/domain"
)

func TestShouldKeepBusiness(t *testing.T) {
	cases := []struct {
		name   string
		t      domain.B2BTargeting
		b      domain.Business
		keep   bool
		reason string
	}{
		{
			name: "no filters keeps everything",
			b:    domain.Business{Name: "Acme"},
			keep: true,
		},
		{
			name:   "b2c only rejects b2b",
			t:      domain.B2BTargeting{B2COnly: true},
			b:      domain.Business{Name: "Acme", IsB2B: true},
			keep:   false,
			reason: "b2c_only",
		},
		{
			name: "b2c only keeps consumer business",
			t:    domain.B2BTargeting{B2COnly: true},
			b:    domain.Business{Name: "Acme"},
			keep: true,
		},
		{
			name:   "industry mismatch",
			t:      domain.B2BTargeting{Industry: "plumbing"},
			b:      domain.Business{Name: "Acme", IndustryCode: "roofing_contractors"},
			keep:   false,
			reason: "industry",
		},
		{
			name: "industry substring match",
			t:    domain.B2BTargeting{Industry: "Plumbing"},
			b:    domain.Business{Name: "Acme", IndustryCode: "plumbing_contractors"},
			keep: true,
		},
		{
			name: "unknown industry passes",
			t:    domain.B2BTargeting{Industry: "plumbing"},
			b:    domain.Business{Name: "Acme"},
			keep: true,
		},
		{
			name:   "below minimum size",
			t:      domain.B2BTargeting{MinEmployees: 10},
			b:      domain.Business{Name: "Acme", EmployeeCount: 4},
			keep:   false,
			reason: "too_small",
		},
		{
			name:   "above maximum size",
			t:      domain.B2BTargeting{MaxEmployees: 50},
			b:      domain.Business{Name: "Acme", EmployeeCount: 200},
			keep:   false,
			reason: "too_large",
		},
		{
			name: "unknown size passes a size filter",
			t:    domain.B2BTargeting{MinEmployees: 10, MaxEmployees: 50},
			b:    domain.Business{Name: "Acme"},
			keep: true,
		},
		{
			name:   "state mismatch",
			t:      domain.B2BTargeting{TargetState: "TX"},
			b:      domain.Business{Name: "Acme", Address: "12 Main St, Denver, CO 80202"},
			keep:   false,
			reason: "state",
		},
		{
			name: "state substring match is case-insensitive",
			t:    domain.B2BTargeting{TargetState: "tx"},
			b:    domain.Business{Name: "Acme", Address: "500 Congress Ave, Austin, TX 78701"},
			keep: true,
		},
		{
			name: "unknown address passes a state filter",
			t:    domain.B2BTargeting{TargetState: "TX"},
			b:    domain.Business{Name: "Acme"},
			keep: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			keep, reason := ShouldKeepBusiness(c.t, c.b)
			assert.Equal(t, c.keep, keep)
			assert.Equal(t, c.reason, reason)
		})
	}
}
