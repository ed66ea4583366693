package validation

import (
	"testing"

	"backend/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateStatusTransition(t *testing.T) {
	healthy := models.BOMSnapshot{MaterialCount: 3, OutputQty: 10}

	tests := []struct {
		name    string
		current string
		target  string
		bom     models.BOMSnapshot
		wantOK  bool
	}{
		{"draft to active", models.BOMStatusDraft, models.BOMStatusActive, healthy, true},
		{"draft to inactive", models.BOMStatusDraft, models.BOMStatusInactive, healthy, true},
		{"active to inactive", models.BOMStatusActive, models.BOMStatusInactive, healthy, true},
		{"active back to draft when unused", models.BOMStatusActive, models.BOMStatusDraft, healthy, true},
		{"inactive to active", models.BOMStatusInactive, models.BOMStatusActive, healthy, true},
		{"inactive back to draft when unused", models.BOMStatusInactive, models.BOMStatusDraft, healthy, true},

		{"self transition rejected", models.BOMStatusActive, models.BOMStatusActive, healthy, false},
		{"unknown current rejected", "ARCHIVED", models.BOMStatusActive, healthy, false},
		{"unknown target rejected", models.BOMStatusDraft, "ARCHIVED", healthy, false},

		{
			"activation needs material lines",
			models.BOMStatusDraft, models.BOMStatusActive,
			models.BOMSnapshot{MaterialCount: 0, OutputQty: 10}, false,
		},
		{
			"activation needs positive output qty",
			models.BOMStatusDraft, models.BOMStatusActive,
			models.BOMSnapshot{MaterialCount: 2, OutputQty: 0}, false,
		},
		{
			"deactivation blocked by in-flight orders",
			models.BOMStatusActive, models.BOMStatusInactive,
			models.BOMSnapshot{MaterialCount: 2, OutputQty: 10, ActiveOrders: 1}, false,
		},
		{
			"return to draft blocked by any usage",
			models.BOMStatusActive, models.BOMStatusDraft,
			models.BOMSnapshot{MaterialCount: 2, OutputQty: 10, TotalUsage: 7}, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := ValidateStatusTransition(tt.current, tt.target, tt.bom)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.NotEmpty(t, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestAllowedTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{models.BOMStatusActive, models.BOMStatusInactive},
		AllowedTargets(models.BOMStatusDraft))
	assert.Empty(t, AllowedTargets("ARCHIVED"))
}
