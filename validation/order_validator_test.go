package validation

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns canned snapshots so each rule can be triggered in
// isolation without a database.
type stubSource struct {
	bom          *models.BOMSnapshot
	bomErr       error
	activeBOMs   int
	order        *models.OrderSnapshot
	orderErr     error
	availability *models.MaterialAvailability
	issued       *models.IssuedSummary
	issuedErr    error
	duplicate    bool
}

func (s *stubSource) BOMSnapshot(bomID int) (*models.BOMSnapshot, error) {
	return s.bom, s.bomErr
}

func (s *stubSource) ActiveBOMCount(productID int) (int, error) {
	return s.activeBOMs, nil
}

func (s *stubSource) OrderSnapshot(orderID int) (*models.OrderSnapshot, error) {
	return s.order, s.orderErr
}

func (s *stubSource) MaterialAvailability(bomID int, quantity float64, warehouseID int) (*models.MaterialAvailability, error) {
	return s.availability, nil
}

func (s *stubSource) IssuedQuantity(orderID int) (*models.IssuedSummary, error) {
	return s.issued, s.issuedErr
}

func (s *stubSource) DuplicateOrderExists(productID, bomID int, scheduled time.Time, excludeOrderID int) (bool, error) {
	return s.duplicate, nil
}

// testNow is the fixed clock every date rule in this file is written against.
var testNow = time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func findResult(t *testing.T, results Results, ruleID string) Result {
	t.Helper()
	for _, r := range results {
		if r.RuleID == ruleID {
			return r
		}
	}
	t.Fatalf("rule %s not found in %v", ruleID, results.RuleIDs())
	return Result{}
}

func healthySource() *stubSource {
	return &stubSource{
		bom:          &models.BOMSnapshot{ID: 1, Status: models.BOMStatusActive, ProductID: 12, OutputQty: 100},
		activeBOMs:   1,
		availability: &models.MaterialAvailability{Total: 4, Sufficient: 4},
	}
}

func validCreateRequest() models.OrderCreateRequest {
	return models.OrderCreateRequest{
		BOMID:             1,
		ProductID:         12,
		PlannedQty:        100,
		WarehouseID:       1,
		TargetWarehouseID: 2,
		ScheduledDate:     "2025-09-15",
	}
}

func TestValidateCreate(t *testing.T) {
	t.Run("clean request passes", func(t *testing.T) {
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.True(t, results.IsValid())
	})

	t.Run("C1 missing fields short-circuits", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{}, fixedClock)
		results, err := v.ValidateCreate(models.OrderCreateRequest{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "C1", results[0].RuleID)
		assert.Equal(t, LevelBlock, results[0].Level)
		assert.ElementsMatch(t,
			[]interface{}{"bom_id", "product_id", "planned_qty", "warehouse_id", "target_warehouse_id", "scheduled_date"},
			results[0].Details["missing_fields"])
	})

	t.Run("C1 malformed date counts as missing", func(t *testing.T) {
		req := validCreateRequest()
		req.ScheduledDate = "15/09/2025"
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "C1", results[0].RuleID)
	})

	t.Run("C0 BOM not found", func(t *testing.T) {
		src := healthySource()
		src.bom = nil
		src.bomErr = ErrNotFound
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "C0", results[0].RuleID)
		assert.Equal(t, LevelBlock, results[0].Level)
	})

	t.Run("C2 negative quantity passes C1 but blocks", func(t *testing.T) {
		req := validCreateRequest()
		req.PlannedQty = -50
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		r := findResult(t, results, "C2")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("C3 non-divisible quantity warns with remainder", func(t *testing.T) {
		req := validCreateRequest()
		req.PlannedQty = 150
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		r := findResult(t, results, "C3")
		assert.Equal(t, LevelWarning, r.Level)
		assert.Equal(t, 50.0, r.Details["remainder"])
		assert.True(t, results.IsValid())
	})

	t.Run("C4 multiple active BOMs blocks", func(t *testing.T) {
		src := healthySource()
		src.activeBOMs = 2
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		r := findResult(t, results, "C4")
		assert.Equal(t, LevelBlock, r.Level)
		assert.Equal(t, 2, r.Details["active_bom_count"])
	})

	t.Run("C5 non-active BOM blocks", func(t *testing.T) {
		src := healthySource()
		src.bom.Status = models.BOMStatusDraft
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		r := findResult(t, results, "C5")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("C6 past date warns", func(t *testing.T) {
		req := validCreateRequest()
		req.ScheduledDate = "2025-08-29"
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		r := findResult(t, results, "C6")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("C6 today is not past west of UTC", func(t *testing.T) {
		westNow := func() time.Time {
			return time.Date(2025, 8, 30, 10, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
		}
		req := validCreateRequest()
		req.ScheduledDate = "2025-08-30"
		v := NewOrderValidatorWithClock(healthySource(), westNow)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "C6")
	})

	t.Run("C6 today is not past", func(t *testing.T) {
		req := validCreateRequest()
		req.ScheduledDate = "2025-08-30"
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "C6")
	})

	t.Run("C7 beyond one year warns", func(t *testing.T) {
		req := validCreateRequest()
		req.ScheduledDate = "2026-09-15"
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		r := findResult(t, results, "C7")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("C8 same source and target warehouse warns", func(t *testing.T) {
		req := validCreateRequest()
		req.TargetWarehouseID = req.WarehouseID
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		r := findResult(t, results, "C8")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("C9 all lines insufficient", func(t *testing.T) {
		src := healthySource()
		src.availability = &models.MaterialAvailability{Total: 4, Insufficient: 4}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		assert.Contains(t, results.RuleIDs(), "C9")
		assert.NotContains(t, results.RuleIDs(), "C10")
	})

	t.Run("C10 mixed availability excludes C9", func(t *testing.T) {
		src := healthySource()
		src.availability = &models.MaterialAvailability{Total: 4, Sufficient: 2, Partial: 1, Insufficient: 1}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		assert.Contains(t, results.RuleIDs(), "C10")
		assert.NotContains(t, results.RuleIDs(), "C9")
	})

	t.Run("C11 duplicate order warns", func(t *testing.T) {
		src := healthySource()
		src.duplicate = true
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCreate(validCreateRequest())
		require.NoError(t, err)
		r := findResult(t, results, "C11")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("C12 overplanned quantity warns", func(t *testing.T) {
		req := validCreateRequest()
		req.PlannedQty = 1500
		v := NewOrderValidatorWithClock(healthySource(), fixedClock)
		results, err := v.ValidateCreate(req)
		require.NoError(t, err)
		r := findResult(t, results, "C12")
		assert.Equal(t, LevelWarning, r.Level)
		// 10x exactly is still fine.
		req.PlannedQty = 1000
		results, err = v.ValidateCreate(req)
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "C12")
	})

	t.Run("same snapshot yields identical results", func(t *testing.T) {
		src := healthySource()
		src.activeBOMs = 3
		src.duplicate = true
		req := validCreateRequest()
		req.PlannedQty = 150
		v := NewOrderValidatorWithClock(src, fixedClock)
		first, err := v.ValidateCreate(req)
		require.NoError(t, err)
		second, err := v.ValidateCreate(req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func draftOrder() *models.OrderSnapshot {
	return &models.OrderSnapshot{
		ID:                41,
		Status:            models.OrderStatusDraft,
		BOMID:             1,
		ProductID:         12,
		PlannedQty:        100,
		WarehouseID:       1,
		TargetWarehouseID: 2,
		ScheduledDate:     time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		CreatedDate:       testNow.Add(-48 * time.Hour),
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

func TestValidateEdit(t *testing.T) {
	t.Run("E0 order not found", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{orderErr: ErrNotFound}, fixedClock)
		results, err := v.ValidateEdit(99, models.OrderUpdateRequest{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "E0", results[0].RuleID)
		assert.Equal(t, LevelBlock, results[0].Level)
	})

	t.Run("no-op edit on draft passes", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{Notes: strPtr("updated")})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("E1 completed order cannot be edited", func(t *testing.T) {
		order := draftOrder()
		order.Status = models.OrderStatusCompleted
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{})
		require.NoError(t, err)
		r := findResult(t, results, "E1")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("E1 confirmed order remains editable", func(t *testing.T) {
		order := draftOrder()
		order.Status = models.OrderStatusConfirmed
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{})
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "E1")
	})

	t.Run("E2 non-positive quantity blocks", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(0)})
		require.NoError(t, err)
		r := findResult(t, results, "E2")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("E3 below produced quantity blocks", func(t *testing.T) {
		order := draftOrder()
		order.ProducedQty = 60
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(50)})
		require.NoError(t, err)
		r := findResult(t, results, "E3")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("E4 reduction after issue warns", func(t *testing.T) {
		src := &stubSource{
			order:  draftOrder(),
			issued: &models.IssuedSummary{IssuedCount: 2, TotalIssued: 35.5},
		}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(80)})
		require.NoError(t, err)
		r := findResult(t, results, "E4")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("E4 silent when nothing issued", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(80)})
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "E4")
	})

	t.Run("E5 warehouse change after issue blocks", func(t *testing.T) {
		src := &stubSource{
			order:  draftOrder(),
			issued: &models.IssuedSummary{IssuedCount: 1, TotalIssued: 10},
		}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{WarehouseID: intPtr(3)})
		require.NoError(t, err)
		r := findResult(t, results, "E5")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("E6 past date warns", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{ScheduledDate: strPtr("2025-08-01")})
		require.NoError(t, err)
		r := findResult(t, results, "E6")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("E6 today is not past west of UTC", func(t *testing.T) {
		westNow := func() time.Time {
			return time.Date(2025, 8, 30, 10, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
		}
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, westNow)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{ScheduledDate: strPtr("2025-08-30")})
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "E6")
	})

	t.Run("E7 deep reduction warns", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(40)})
		require.NoError(t, err)
		r := findResult(t, results, "E7")
		assert.Equal(t, LevelWarning, r.Level)
		assert.Equal(t, 60.0, r.Details["reduction_pct"])
	})

	t.Run("E7 silent at exactly half", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(50)})
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "E7")
	})

	t.Run("E8 shortfall at new quantity warns", func(t *testing.T) {
		src := &stubSource{
			order:        draftOrder(),
			availability: &models.MaterialAvailability{Total: 4, Sufficient: 1, Partial: 2, Insufficient: 1},
		}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateEdit(41, models.OrderUpdateRequest{PlannedQty: floatPtr(80)})
		require.NoError(t, err)
		r := findResult(t, results, "E8")
		assert.Equal(t, LevelWarning, r.Level)
	})
}

func TestValidateConfirm(t *testing.T) {
	confirmSource := func() *stubSource {
		return &stubSource{
			order:        draftOrder(),
			bom:          &models.BOMSnapshot{ID: 1, Status: models.BOMStatusActive, ProductID: 12, OutputQty: 100},
			activeBOMs:   1,
			availability: &models.MaterialAvailability{Total: 4, Sufficient: 4},
		}
	}

	t.Run("clean draft confirms", func(t *testing.T) {
		v := NewOrderValidatorWithClock(confirmSource(), fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("F0 order not found", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{orderErr: ErrNotFound}, fixedClock)
		results, err := v.ValidateConfirm(99)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "F0", results[0].RuleID)
	})

	t.Run("F1 only draft confirms", func(t *testing.T) {
		src := confirmSource()
		src.order.Status = models.OrderStatusConfirmed
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		r := findResult(t, results, "F1")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("F2 deactivated BOM blocks", func(t *testing.T) {
		src := confirmSource()
		src.bom.Status = models.BOMStatusInactive
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		r := findResult(t, results, "F2")
		assert.Equal(t, LevelBlock, r.Level)
		assert.Equal(t, models.BOMStatusInactive, r.Details["bom_status"])
	})

	t.Run("F2 deleted BOM reports missing", func(t *testing.T) {
		src := confirmSource()
		src.bom = nil
		src.bomErr = ErrNotFound
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		r := findResult(t, results, "F2")
		assert.Equal(t, "missing", r.Details["bom_status"])
	})

	t.Run("F3 past scheduled date warns", func(t *testing.T) {
		src := confirmSource()
		src.order.ScheduledDate = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		r := findResult(t, results, "F3")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("F3 today is not past west of UTC", func(t *testing.T) {
		westNow := func() time.Time {
			return time.Date(2025, 8, 30, 10, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
		}
		src := confirmSource()
		src.order.ScheduledDate = time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
		v := NewOrderValidatorWithClock(src, westNow)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "F3")
	})

	t.Run("F4 under half the lines available warns", func(t *testing.T) {
		src := confirmSource()
		src.availability = &models.MaterialAvailability{Total: 4, Sufficient: 1, Partial: 2, Insufficient: 1}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		r := findResult(t, results, "F4")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("F4 silent at exactly half", func(t *testing.T) {
		src := confirmSource()
		src.availability = &models.MaterialAvailability{Total: 4, Sufficient: 2, Partial: 2}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		assert.NotContains(t, results.RuleIDs(), "F4")
	})

	t.Run("F5 conflict gained since creation blocks", func(t *testing.T) {
		src := confirmSource()
		src.activeBOMs = 2
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateConfirm(41)
		require.NoError(t, err)
		r := findResult(t, results, "F5")
		assert.Equal(t, LevelBlock, r.Level)
	})
}

func TestValidateCancel(t *testing.T) {
	t.Run("X0 order not found", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{orderErr: ErrNotFound}, fixedClock)
		results, err := v.ValidateCancel(99, "wrong product")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "X0", results[0].RuleID)
	})

	t.Run("clean cancel passes", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateCancel(41, "customer withdrew the order")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("X1 completed order cannot be cancelled", func(t *testing.T) {
		order := draftOrder()
		order.Status = models.OrderStatusCompleted
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateCancel(41, "reason")
		require.NoError(t, err)
		r := findResult(t, results, "X1")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("X2 empty reason warns", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateCancel(41, "")
		require.NoError(t, err)
		r := findResult(t, results, "X2")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("X3 issued material warns", func(t *testing.T) {
		src := &stubSource{
			order:  draftOrder(),
			issued: &models.IssuedSummary{IssuedCount: 2, TotalIssued: 35.5},
		}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateCancel(41, "reason")
		require.NoError(t, err)
		r := findResult(t, results, "X3")
		assert.Equal(t, LevelWarning, r.Level)
	})

	t.Run("X4 freshly created order warns", func(t *testing.T) {
		order := draftOrder()
		order.CreatedDate = testNow.Add(-30 * time.Minute)
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateCancel(41, "reason")
		require.NoError(t, err)
		r := findResult(t, results, "X4")
		assert.Equal(t, LevelWarning, r.Level)
	})
}

func TestValidateDelete(t *testing.T) {
	t.Run("D0 order not found", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{orderErr: ErrNotFound}, fixedClock)
		results, err := v.ValidateDelete(99)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "D0", results[0].RuleID)
	})

	t.Run("recent draft deletes cleanly", func(t *testing.T) {
		v := NewOrderValidatorWithClock(&stubSource{order: draftOrder()}, fixedClock)
		results, err := v.ValidateDelete(41)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("cancelled order deletes cleanly", func(t *testing.T) {
		order := draftOrder()
		order.Status = models.OrderStatusCancelled
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateDelete(41)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("D1 confirmed order cannot be deleted", func(t *testing.T) {
		order := draftOrder()
		order.Status = models.OrderStatusConfirmed
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateDelete(41)
		require.NoError(t, err)
		r := findResult(t, results, "D1")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("D2 issued material blocks regardless of status", func(t *testing.T) {
		src := &stubSource{
			order:  draftOrder(),
			issued: &models.IssuedSummary{IssuedCount: 1, TotalIssued: 5},
		}
		v := NewOrderValidatorWithClock(src, fixedClock)
		results, err := v.ValidateDelete(41)
		require.NoError(t, err)
		r := findResult(t, results, "D2")
		assert.Equal(t, LevelBlock, r.Level)
	})

	t.Run("D3 old order warns", func(t *testing.T) {
		order := draftOrder()
		order.CreatedDate = testNow.Add(-45 * 24 * time.Hour)
		v := NewOrderValidatorWithClock(&stubSource{order: order}, fixedClock)
		results, err := v.ValidateDelete(41)
		require.NoError(t, err)
		r := findResult(t, results, "D3")
		assert.Equal(t, LevelWarning, r.Level)
	})
}
