package validation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"backend/models"
)

// ErrNotFound is returned by SnapshotSource implementations when the
// requested entity does not exist. The validator turns it into a "<group>0"
// BLOCK result instead of failing the call.
var ErrNotFound = errors.New("entity not found")

// SnapshotSource is the read surface the validator needs from persistence.
// Implementations must not mutate anything.
type SnapshotSource interface {
	BOMSnapshot(bomID int) (*models.BOMSnapshot, error)
	ActiveBOMCount(productID int) (int, error)
	OrderSnapshot(orderID int) (*models.OrderSnapshot, error)
	MaterialAvailability(bomID int, quantity float64, warehouseID int) (*models.MaterialAvailability, error)
	IssuedQuantity(orderID int) (*models.IssuedSummary, error)
	DuplicateOrderExists(productID, bomID int, scheduled time.Time, excludeOrderID int) (bool, error)
}

// OrderValidator runs the create/edit/confirm/cancel/delete rule groups
// against fresh snapshots. It is stateless between calls; the clock is
// injectable so date rules can be tested.
type OrderValidator struct {
	src SnapshotSource
	now func() time.Time
}

// NewOrderValidator builds a validator over the given snapshot source.
func NewOrderValidator(src SnapshotSource) *OrderValidator {
	return &OrderValidator{src: src, now: time.Now}
}

// NewOrderValidatorWithClock is used by tests that need a fixed clock.
func NewOrderValidatorWithClock(src SnapshotSource, now func() time.Time) *OrderValidator {
	return &OrderValidator{src: src, now: now}
}

// ScheduledDateLayout is the wire format of scheduled dates.
const ScheduledDateLayout = "2006-01-02"

// farFutureDays is the C7 horizon; beyond it a scheduled date is suspicious.
const farFutureDays = 365

// overplanFactor is the C12 threshold: planned quantity above this multiple
// of the BOM output quantity is treated as a likely typo.
const overplanFactor = 10.0

// earlyCancelWindow is the X4 window: cancelling an order created this
// recently is probably a mistake.
const earlyCancelWindow = time.Hour

// staleOrderAge is the D3 threshold: orders older than this should be
// archived, not deleted.
const staleOrderAge = 30 * 24 * time.Hour

// dateOnly reduces a timestamp to its calendar day as seen in its own
// location. Scheduled dates parse as midnight UTC while the clock runs in the
// server zone; comparing calendar days keeps a same-day schedule from reading
// as past west of UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// notFoundBlock synthesizes the "<group>0" result used when the entity under
// validation does not exist. It is the only short-circuit besides C1.
func notFoundBlock(group string, orderID int) Result {
	return Block(group+"0",
		fmt.Sprintf("Order %d not found", orderID),
		fmt.Sprintf("Không tìm thấy lệnh sản xuất %d", orderID),
		map[string]interface{}{"order_id": orderID})
}

// ---------------------------------------------------------------------------
// Create: rules C1-C12

// createContext carries the request plus every snapshot the C rules consult,
// fetched once so rule evaluation itself stays pure.
type createContext struct {
	req          models.OrderCreateRequest
	scheduled    time.Time
	bom          *models.BOMSnapshot
	activeBOMs   int
	availability *models.MaterialAvailability
	duplicate    bool
	now          time.Time
}

// createRule pairs a stable rule id with its check. Order in the table is
// evaluation order.
type createRule struct {
	id    string
	check func(cc *createContext) *Result
}

var createRules = []createRule{
	{"C2", checkCreatePositiveQty},
	{"C3", checkCreateQtyDivisibility},
	{"C4", checkCreateActiveBOMConflict},
	{"C5", checkCreateBOMActive},
	{"C6", checkCreateDatePast},
	{"C7", checkCreateDateFarFuture},
	{"C8", checkCreateSameWarehouse},
	{"C9", checkCreateAllInsufficient},
	{"C10", checkCreateMixedAvailability},
	{"C11", checkCreateDuplicateOrder},
	{"C12", checkCreateOverplanned},
}

// ValidateCreate runs C1-C12 against the candidate order. C1 (required
// fields) short-circuits: when any required field is absent the other rules
// are not evaluated at all.
func (v *OrderValidator) ValidateCreate(req models.OrderCreateRequest) (Results, error) {
	scheduled, missing := createMissingFields(req)
	if len(missing) > 0 {
		return Results{Block("C1",
			fmt.Sprintf("Required fields missing: %v", missing),
			fmt.Sprintf("Thiếu thông tin bắt buộc: %v", missing),
			map[string]interface{}{"missing_fields": missing})}, nil
	}

	cc := &createContext{req: req, scheduled: scheduled, now: v.now()}

	bom, err := v.src.BOMSnapshot(req.BOMID)
	if errors.Is(err, ErrNotFound) {
		return Results{Block("C0",
			fmt.Sprintf("BOM %d not found", req.BOMID),
			fmt.Sprintf("Không tìm thấy BOM %d", req.BOMID),
			map[string]interface{}{"bom_id": req.BOMID})}, nil
	}
	if err != nil {
		return nil, err
	}
	cc.bom = bom

	cc.activeBOMs, err = v.src.ActiveBOMCount(req.ProductID)
	if err != nil {
		return nil, err
	}

	cc.availability, err = v.src.MaterialAvailability(req.BOMID, req.PlannedQty, req.WarehouseID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	cc.duplicate, err = v.src.DuplicateOrderExists(req.ProductID, req.BOMID, scheduled, 0)
	if err != nil {
		return nil, err
	}

	var results Results
	for _, rule := range createRules {
		if r := rule.check(cc); r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

// createMissingFields reports which required fields are absent. A zero
// planned quantity counts as absent; negative quantities pass C1 and are
// caught by C2.
func createMissingFields(req models.OrderCreateRequest) (time.Time, []string) {
	var missing []string
	if req.BOMID == 0 {
		missing = append(missing, "bom_id")
	}
	if req.ProductID == 0 {
		missing = append(missing, "product_id")
	}
	if req.PlannedQty == 0 {
		missing = append(missing, "planned_qty")
	}
	if req.WarehouseID == 0 {
		missing = append(missing, "warehouse_id")
	}
	if req.TargetWarehouseID == 0 {
		missing = append(missing, "target_warehouse_id")
	}
	var scheduled time.Time
	if req.ScheduledDate == "" {
		missing = append(missing, "scheduled_date")
	} else {
		t, err := time.Parse(ScheduledDateLayout, req.ScheduledDate)
		if err != nil {
			missing = append(missing, "scheduled_date")
		} else {
			scheduled = t
		}
	}
	return scheduled, missing
}

func checkCreatePositiveQty(cc *createContext) *Result {
	if cc.req.PlannedQty > 0 {
		return nil
	}
	r := Block("C2",
		"Planned quantity must be greater than zero",
		"Số lượng kế hoạch phải lớn hơn 0",
		map[string]interface{}{"planned_qty": cc.req.PlannedQty})
	return &r
}

func checkCreateQtyDivisibility(cc *createContext) *Result {
	if cc.bom.OutputQty <= 0 {
		return nil
	}
	remainder := math.Mod(cc.req.PlannedQty, cc.bom.OutputQty)
	if remainder == 0 {
		return nil
	}
	r := Warning("C3",
		fmt.Sprintf("Planned quantity is not a multiple of BOM output quantity %.2f (remainder %.2f)", cc.bom.OutputQty, remainder),
		fmt.Sprintf("Số lượng kế hoạch không chia hết cho sản lượng BOM %.2f (dư %.2f)", cc.bom.OutputQty, remainder),
		map[string]interface{}{"output_qty": cc.bom.OutputQty, "remainder": remainder})
	return &r
}

func checkCreateActiveBOMConflict(cc *createContext) *Result {
	if cc.activeBOMs <= 1 {
		return nil
	}
	r := Block("C4",
		fmt.Sprintf("Product %d has %d active BOMs; resolve the conflict before creating an order", cc.req.ProductID, cc.activeBOMs),
		fmt.Sprintf("Sản phẩm %d có %d BOM đang hoạt động; cần xử lý xung đột trước khi tạo lệnh", cc.req.ProductID, cc.activeBOMs),
		map[string]interface{}{"product_id": cc.req.ProductID, "active_bom_count": cc.activeBOMs})
	return &r
}

func checkCreateBOMActive(cc *createContext) *Result {
	if cc.bom.Status == models.BOMStatusActive {
		return nil
	}
	r := Block("C5",
		fmt.Sprintf("BOM %d is %s; only ACTIVE BOMs can be ordered", cc.bom.ID, cc.bom.Status),
		fmt.Sprintf("BOM %d đang ở trạng thái %s; chỉ BOM ACTIVE mới được tạo lệnh", cc.bom.ID, cc.bom.Status),
		map[string]interface{}{"bom_id": cc.bom.ID, "bom_status": cc.bom.Status})
	return &r
}

func checkCreateDatePast(cc *createContext) *Result {
	if !dateOnly(cc.scheduled).Before(dateOnly(cc.now)) {
		return nil
	}
	r := Warning("C6",
		fmt.Sprintf("Scheduled date %s is in the past", cc.scheduled.Format(ScheduledDateLayout)),
		fmt.Sprintf("Ngày kế hoạch %s đã qua", cc.scheduled.Format(ScheduledDateLayout)),
		map[string]interface{}{"scheduled_date": cc.scheduled.Format(ScheduledDateLayout)})
	return &r
}

func checkCreateDateFarFuture(cc *createContext) *Result {
	horizon := dateOnly(cc.now).AddDate(0, 0, farFutureDays)
	if !dateOnly(cc.scheduled).After(horizon) {
		return nil
	}
	r := Warning("C7",
		fmt.Sprintf("Scheduled date %s is more than %d days away", cc.scheduled.Format(ScheduledDateLayout), farFutureDays),
		fmt.Sprintf("Ngày kế hoạch %s cách hiện tại hơn %d ngày", cc.scheduled.Format(ScheduledDateLayout), farFutureDays),
		map[string]interface{}{"scheduled_date": cc.scheduled.Format(ScheduledDateLayout), "horizon_days": farFutureDays})
	return &r
}

func checkCreateSameWarehouse(cc *createContext) *Result {
	if cc.req.WarehouseID != cc.req.TargetWarehouseID {
		return nil
	}
	r := Warning("C8",
		"Source and target warehouse are the same",
		"Kho nguyên liệu và kho thành phẩm trùng nhau",
		map[string]interface{}{"warehouse_id": cc.req.WarehouseID})
	return &r
}

func checkCreateAllInsufficient(cc *createContext) *Result {
	av := cc.availability
	if av == nil || av.Total == 0 || av.Insufficient < av.Total {
		return nil
	}
	r := Warning("C9",
		fmt.Sprintf("No stock available for any of the %d required materials", av.Total),
		fmt.Sprintf("Không có tồn kho cho toàn bộ %d nguyên liệu yêu cầu", av.Total),
		map[string]interface{}{"total": av.Total, "insufficient": av.Insufficient})
	return &r
}

func checkCreateMixedAvailability(cc *createContext) *Result {
	av := cc.availability
	if av == nil || av.Total == 0 {
		return nil
	}
	short := av.Partial + av.Insufficient
	// All-insufficient is already C9; report the mixed case only.
	if short == 0 || av.Insufficient == av.Total {
		return nil
	}
	r := Warning("C10",
		fmt.Sprintf("Material availability is mixed: %d sufficient, %d partial, %d insufficient of %d lines", av.Sufficient, av.Partial, av.Insufficient, av.Total),
		fmt.Sprintf("Tồn kho nguyên liệu không đồng đều: %d đủ, %d thiếu một phần, %d không đủ trên %d dòng", av.Sufficient, av.Partial, av.Insufficient, av.Total),
		map[string]interface{}{"total": av.Total, "sufficient": av.Sufficient, "partial": av.Partial, "insufficient": av.Insufficient})
	return &r
}

func checkCreateDuplicateOrder(cc *createContext) *Result {
	if !cc.duplicate {
		return nil
	}
	r := Warning("C11",
		"An order for the same product, BOM and scheduled date already exists",
		"Đã tồn tại lệnh sản xuất cho cùng sản phẩm, BOM và ngày kế hoạch",
		map[string]interface{}{
			"product_id":     cc.req.ProductID,
			"bom_id":         cc.req.BOMID,
			"scheduled_date": cc.scheduled.Format(ScheduledDateLayout),
		})
	return &r
}

func checkCreateOverplanned(cc *createContext) *Result {
	if cc.bom.OutputQty <= 0 || cc.req.PlannedQty <= overplanFactor*cc.bom.OutputQty {
		return nil
	}
	r := Warning("C12",
		fmt.Sprintf("Planned quantity %.2f is more than %.0fx the BOM output quantity %.2f", cc.req.PlannedQty, overplanFactor, cc.bom.OutputQty),
		fmt.Sprintf("Số lượng kế hoạch %.2f vượt quá %.0f lần sản lượng BOM %.2f", cc.req.PlannedQty, overplanFactor, cc.bom.OutputQty),
		map[string]interface{}{"planned_qty": cc.req.PlannedQty, "output_qty": cc.bom.OutputQty, "factor": overplanFactor})
	return &r
}

// ---------------------------------------------------------------------------
// Edit: rules E1-E8

// editContext carries the order, the requested changes and the aggregates
// the E rules consult.
type editContext struct {
	order        *models.OrderSnapshot
	upd          models.OrderUpdateRequest
	newScheduled *time.Time
	issued       *models.IssuedSummary
	availability *models.MaterialAvailability
	now          time.Time
}

type editRule struct {
	id    string
	check func(ec *editContext) *Result
}

var editRules = []editRule{
	{"E1", checkEditStatus},
	{"E2", checkEditPositiveQty},
	{"E3", checkEditBelowProduced},
	{"E4", checkEditReducedAfterIssue},
	{"E5", checkEditWarehouseAfterIssue},
	{"E6", checkEditDatePast},
	{"E7", checkEditDeepReduction},
	{"E8", checkEditAvailability},
}

// ValidateEdit runs E1-E8 for the requested field changes. Unlike create
// there is no field short-circuit: all applicable rules are collected so the
// user sees every problem at once.
func (v *OrderValidator) ValidateEdit(orderID int, upd models.OrderUpdateRequest) (Results, error) {
	order, err := v.src.OrderSnapshot(orderID)
	if errors.Is(err, ErrNotFound) {
		return Results{notFoundBlock("E", orderID)}, nil
	}
	if err != nil {
		return nil, err
	}

	ec := &editContext{order: order, upd: upd, now: v.now()}

	if upd.ScheduledDate != nil {
		if t, perr := time.Parse(ScheduledDateLayout, *upd.ScheduledDate); perr == nil {
			ec.newScheduled = &t
		}
	}

	ec.issued, err = v.src.IssuedQuantity(orderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if upd.PlannedQty != nil && *upd.PlannedQty > 0 {
		wh := order.WarehouseID
		if upd.WarehouseID != nil {
			wh = *upd.WarehouseID
		}
		ec.availability, err = v.src.MaterialAvailability(order.BOMID, *upd.PlannedQty, wh)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	var results Results
	for _, rule := range editRules {
		if r := rule.check(ec); r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

func checkEditStatus(ec *editContext) *Result {
	s := ec.order.Status
	if s == models.OrderStatusDraft || s == models.OrderStatusConfirmed {
		return nil
	}
	r := Block("E1",
		fmt.Sprintf("Order in status %s cannot be edited", s),
		fmt.Sprintf("Lệnh ở trạng thái %s không thể chỉnh sửa", s),
		map[string]interface{}{"status": s})
	return &r
}

func checkEditPositiveQty(ec *editContext) *Result {
	if ec.upd.PlannedQty == nil || *ec.upd.PlannedQty > 0 {
		return nil
	}
	r := Block("E2",
		"New planned quantity must be greater than zero",
		"Số lượng kế hoạch mới phải lớn hơn 0",
		map[string]interface{}{"planned_qty": *ec.upd.PlannedQty})
	return &r
}

func checkEditBelowProduced(ec *editContext) *Result {
	if ec.upd.PlannedQty == nil || *ec.upd.PlannedQty >= ec.order.ProducedQty {
		return nil
	}
	r := Block("E3",
		fmt.Sprintf("New planned quantity %.2f is below quantity already produced %.2f", *ec.upd.PlannedQty, ec.order.ProducedQty),
		fmt.Sprintf("Số lượng kế hoạch mới %.2f thấp hơn số lượng đã sản xuất %.2f", *ec.upd.PlannedQty, ec.order.ProducedQty),
		map[string]interface{}{"planned_qty": *ec.upd.PlannedQty, "produced_qty": ec.order.ProducedQty})
	return &r
}

func checkEditReducedAfterIssue(ec *editContext) *Result {
	// Qualitative trigger only: materials already issued and the quantity is
	// shrinking. The exact surplus that would need returning depends on scrap
	// rates and alternatives and is left to the material-return workflow.
	if ec.issued == nil || ec.issued.TotalIssued <= 0 {
		return nil
	}
	if ec.upd.PlannedQty == nil || *ec.upd.PlannedQty >= ec.order.PlannedQty {
		return nil
	}
	r := Warning("E4",
		fmt.Sprintf("%.2f units of material already issued; reducing the quantity may require returns", ec.issued.TotalIssued),
		fmt.Sprintf("Đã xuất %.2f nguyên liệu; giảm số lượng có thể phải hoàn trả nguyên liệu", ec.issued.TotalIssued),
		map[string]interface{}{"total_issued": ec.issued.TotalIssued, "issued_count": ec.issued.IssuedCount})
	return &r
}

func checkEditWarehouseAfterIssue(ec *editContext) *Result {
	if ec.upd.WarehouseID == nil || *ec.upd.WarehouseID == ec.order.WarehouseID {
		return nil
	}
	if ec.issued == nil || ec.issued.TotalIssued <= 0 {
		return nil
	}
	r := Block("E5",
		"Source warehouse cannot change once material has been issued from it",
		"Không thể đổi kho nguyên liệu sau khi đã xuất kho",
		map[string]interface{}{"warehouse_id": ec.order.WarehouseID, "requested_warehouse_id": *ec.upd.WarehouseID})
	return &r
}

func checkEditDatePast(ec *editContext) *Result {
	if ec.newScheduled == nil || !dateOnly(*ec.newScheduled).Before(dateOnly(ec.now)) {
		return nil
	}
	r := Warning("E6",
		fmt.Sprintf("New scheduled date %s is in the past", ec.newScheduled.Format(ScheduledDateLayout)),
		fmt.Sprintf("Ngày kế hoạch mới %s đã qua", ec.newScheduled.Format(ScheduledDateLayout)),
		map[string]interface{}{"scheduled_date": ec.newScheduled.Format(ScheduledDateLayout)})
	return &r
}

func checkEditDeepReduction(ec *editContext) *Result {
	if ec.upd.PlannedQty == nil || ec.order.PlannedQty <= 0 {
		return nil
	}
	if *ec.upd.PlannedQty >= ec.order.PlannedQty/2 {
		return nil
	}
	pct := 100 * (1 - *ec.upd.PlannedQty/ec.order.PlannedQty)
	r := Warning("E7",
		fmt.Sprintf("Planned quantity reduced by %.0f%% (from %.2f to %.2f)", pct, ec.order.PlannedQty, *ec.upd.PlannedQty),
		fmt.Sprintf("Số lượng kế hoạch giảm %.0f%% (từ %.2f xuống %.2f)", pct, ec.order.PlannedQty, *ec.upd.PlannedQty),
		map[string]interface{}{"original_qty": ec.order.PlannedQty, "new_qty": *ec.upd.PlannedQty, "reduction_pct": pct})
	return &r
}

func checkEditAvailability(ec *editContext) *Result {
	av := ec.availability
	if av == nil || av.Total == 0 || av.Partial+av.Insufficient == 0 {
		return nil
	}
	r := Warning("E8",
		fmt.Sprintf("Material availability insufficient for the new quantity: %d partial, %d insufficient of %d lines", av.Partial, av.Insufficient, av.Total),
		fmt.Sprintf("Tồn kho không đủ cho số lượng mới: %d thiếu một phần, %d không đủ trên %d dòng", av.Partial, av.Insufficient, av.Total),
		map[string]interface{}{"total": av.Total, "sufficient": av.Sufficient, "partial": av.Partial, "insufficient": av.Insufficient})
	return &r
}

// ---------------------------------------------------------------------------
// Confirm: rules F1-F5

// ValidateConfirm runs F1-F5. The active-BOM conflict (F5) re-checks C4's
// condition because a second BOM may have been activated since the order was
// created.
func (v *OrderValidator) ValidateConfirm(orderID int) (Results, error) {
	order, err := v.src.OrderSnapshot(orderID)
	if errors.Is(err, ErrNotFound) {
		return Results{notFoundBlock("F", orderID)}, nil
	}
	if err != nil {
		return nil, err
	}

	var results Results
	now := v.now()

	if order.Status != models.OrderStatusDraft {
		results = append(results, Block("F1",
			fmt.Sprintf("Only DRAFT orders can be confirmed (current status %s)", order.Status),
			fmt.Sprintf("Chỉ lệnh ở trạng thái DRAFT mới được xác nhận (hiện tại %s)", order.Status),
			map[string]interface{}{"status": order.Status}))
	}

	bom, err := v.src.BOMSnapshot(order.BOMID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if bom == nil || bom.Status != models.BOMStatusActive {
		status := "missing"
		if bom != nil {
			status = bom.Status
		}
		results = append(results, Block("F2",
			fmt.Sprintf("BOM %d is no longer ACTIVE (now %s)", order.BOMID, status),
			fmt.Sprintf("BOM %d không còn ở trạng thái ACTIVE (hiện tại %s)", order.BOMID, status),
			map[string]interface{}{"bom_id": order.BOMID, "bom_status": status}))
	}

	if dateOnly(order.ScheduledDate).Before(dateOnly(now)) {
		results = append(results, Warning("F3",
			fmt.Sprintf("Scheduled date %s has already passed", order.ScheduledDate.Format(ScheduledDateLayout)),
			fmt.Sprintf("Ngày kế hoạch %s đã qua", order.ScheduledDate.Format(ScheduledDateLayout)),
			map[string]interface{}{"scheduled_date": order.ScheduledDate.Format(ScheduledDateLayout)}))
	}

	av, err := v.src.MaterialAvailability(order.BOMID, order.PlannedQty, order.WarehouseID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if av != nil && av.Total > 0 {
		ratio := float64(av.Sufficient) / float64(av.Total)
		if ratio < 0.5 {
			results = append(results, Warning("F4",
				fmt.Sprintf("Only %d of %d material lines are fully available (%.0f%%)", av.Sufficient, av.Total, 100*ratio),
				fmt.Sprintf("Chỉ %d trên %d dòng nguyên liệu sẵn sàng đầy đủ (%.0f%%)", av.Sufficient, av.Total, 100*ratio),
				map[string]interface{}{"total": av.Total, "sufficient": av.Sufficient, "ratio": ratio}))
		}
	}

	activeBOMs, err := v.src.ActiveBOMCount(order.ProductID)
	if err != nil {
		return nil, err
	}
	if activeBOMs > 1 {
		results = append(results, Block("F5",
			fmt.Sprintf("Product %d now has %d active BOMs; resolve the conflict before confirming", order.ProductID, activeBOMs),
			fmt.Sprintf("Sản phẩm %d hiện có %d BOM đang hoạt động; cần xử lý xung đột trước khi xác nhận", order.ProductID, activeBOMs),
			map[string]interface{}{"product_id": order.ProductID, "active_bom_count": activeBOMs}))
	}

	return results, nil
}

// ---------------------------------------------------------------------------
// Cancel: rules X1-X4

// ValidateCancel runs X1-X4 for a cancellation request with the supplied
// reason text.
func (v *OrderValidator) ValidateCancel(orderID int, reason string) (Results, error) {
	order, err := v.src.OrderSnapshot(orderID)
	if errors.Is(err, ErrNotFound) {
		return Results{notFoundBlock("X", orderID)}, nil
	}
	if err != nil {
		return nil, err
	}

	var results Results
	now := v.now()

	if order.Status != models.OrderStatusDraft && order.Status != models.OrderStatusConfirmed {
		results = append(results, Block("X1",
			fmt.Sprintf("Order in status %s cannot be cancelled", order.Status),
			fmt.Sprintf("Lệnh ở trạng thái %s không thể hủy", order.Status),
			map[string]interface{}{"status": order.Status}))
	}

	if reason == "" {
		results = append(results, Warning("X2",
			"No cancellation reason supplied",
			"Chưa nhập lý do hủy lệnh",
			nil))
	}

	issued, err := v.src.IssuedQuantity(orderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if issued != nil && issued.TotalIssued > 0 {
		results = append(results, Warning("X3",
			fmt.Sprintf("%.2f units of material already issued; they must be returned after cancellation", issued.TotalIssued),
			fmt.Sprintf("Đã xuất %.2f nguyên liệu; cần hoàn trả sau khi hủy", issued.TotalIssued),
			map[string]interface{}{"total_issued": issued.TotalIssued, "issued_count": issued.IssuedCount}))
	}

	if age := now.Sub(order.CreatedDate); age >= 0 && age < earlyCancelWindow {
		results = append(results, Warning("X4",
			fmt.Sprintf("Order was created %.0f minutes ago; cancelling this soon may be a mistake", age.Minutes()),
			fmt.Sprintf("Lệnh mới được tạo %.0f phút trước; hủy sớm như vậy có thể là nhầm lẫn", age.Minutes()),
			map[string]interface{}{"age_minutes": age.Minutes()}))
	}

	return results, nil
}

// ---------------------------------------------------------------------------
// Delete: rules D1-D3

// ValidateDelete runs D1-D3. Deletion is only for orders that never touched
// stock: any issuance makes deletion a hard block regardless of status.
func (v *OrderValidator) ValidateDelete(orderID int) (Results, error) {
	order, err := v.src.OrderSnapshot(orderID)
	if errors.Is(err, ErrNotFound) {
		return Results{notFoundBlock("D", orderID)}, nil
	}
	if err != nil {
		return nil, err
	}

	var results Results
	now := v.now()

	if order.Status != models.OrderStatusDraft && order.Status != models.OrderStatusCancelled {
		results = append(results, Block("D1",
			fmt.Sprintf("Order in status %s cannot be deleted", order.Status),
			fmt.Sprintf("Lệnh ở trạng thái %s không thể xóa", order.Status),
			map[string]interface{}{"status": order.Status}))
	}

	issued, err := v.src.IssuedQuantity(orderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if issued != nil && (issued.IssuedCount > 0 || issued.TotalIssued > 0) {
		results = append(results, Block("D2",
			"Material has been issued against this order; deleting it would corrupt transaction history",
			"Lệnh đã phát sinh xuất kho; xóa sẽ làm hỏng lịch sử giao dịch",
			map[string]interface{}{"issued_count": issued.IssuedCount, "total_issued": issued.TotalIssued}))
	}

	if age := now.Sub(order.CreatedDate); age > staleOrderAge {
		results = append(results, Warning("D3",
			fmt.Sprintf("Order is %.0f days old; prefer archiving over deletion", age.Hours()/24),
			fmt.Sprintf("Lệnh đã tạo %.0f ngày trước; nên lưu trữ thay vì xóa", age.Hours()/24),
			map[string]interface{}{"age_days": age.Hours() / 24}))
	}

	return results, nil
}
