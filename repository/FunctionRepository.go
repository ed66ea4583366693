package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"backend/models"
	"backend/utils"
	"backend/validation"

	"github.com/lib/pq"
)

// GenerateOrderCode builds a production order code like PO-20250830-4821.
func GenerateOrderCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("PO-%s-%04d", time.Now().Format("20060102"), rng.Intn(9000)+1000)
}

// GenerateBOMCode builds a BOM code like BOM-2025-0014.
func GenerateBOMCode(sequence int) string {
	return fmt.Sprintf("BOM-%d-%04d", time.Now().Year(), sequence)
}

// Repository implements the validation snapshot surface and the order write
// surface over the production database. All reads go through query-timeout
// contexts; mutations run in transactions.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// activeOrderStatuses are the non-terminal order statuses counted as
// "in flight" against a BOM.
var activeOrderStatuses = []string{
	models.OrderStatusDraft,
	models.OrderStatusConfirmed,
	models.OrderStatusInProgress,
}

// BOMSnapshot loads the header plus the usage aggregates the validators
// consume. The counters come straight from SQL; the core never recomputes
// them from rows.
func (r *Repository) BOMSnapshot(bomID int) (*models.BOMSnapshot, error) {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	query := `
		SELECT b.id, b.status, b.product_id, b.output_qty,
		       (SELECT COUNT(*) FROM prod_bom_detail d WHERE d.bom_id = b.id) AS material_count,
		       (SELECT COUNT(*) FROM prod_order o WHERE o.bom_id = b.id) AS total_usage,
		       (SELECT COUNT(*) FROM prod_order o WHERE o.bom_id = b.id AND o.status = ANY($2)) AS active_orders
		FROM prod_bom b
		WHERE b.id = $1 AND b.deleted_at IS NULL`

	var snap models.BOMSnapshot
	err := r.db.QueryRowContext(ctx, query, bomID, pq.Array(activeOrderStatuses)).Scan(
		&snap.ID, &snap.Status, &snap.ProductID, &snap.OutputQty,
		&snap.MaterialCount, &snap.TotalUsage, &snap.ActiveOrders,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("BOM %d: %w", bomID, validation.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load BOM snapshot: %v", err)
	}
	return &snap, nil
}

// BOMMaterials loads the detail lines with their alternatives in the same
// shape the wizard sends in memory, so persisted and in-memory checks share
// one code path.
func (r *Repository) BOMMaterials(bomID int) ([]models.BOMMaterial, error) {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bom_id, material_id, quantity, scrap_rate, material_type
		FROM prod_bom_detail
		WHERE bom_id = $1
		ORDER BY id`, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load BOM details: %v", err)
	}
	defer rows.Close()

	var materials []models.BOMMaterial
	index := map[int]int{}
	for rows.Next() {
		var m models.BOMMaterial
		if err := rows.Scan(&m.ID, &m.BOMID, &m.MaterialID, &m.Quantity, &m.ScrapRate, &m.MaterialType); err != nil {
			return nil, err
		}
		index[m.ID] = len(materials)
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	altRows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.primary_detail_id, a.alternative_material_id, a.priority, a.quantity, a.scrap_rate, a.is_active
		FROM prod_bom_alternative a
		JOIN prod_bom_detail d ON a.primary_detail_id = d.id
		WHERE d.bom_id = $1
		ORDER BY a.primary_detail_id, a.priority`, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load BOM alternatives: %v", err)
	}
	defer altRows.Close()

	for altRows.Next() {
		var a models.BOMAlternative
		if err := altRows.Scan(&a.ID, &a.PrimaryDetailID, &a.AlternativeMaterialID, &a.Priority, &a.Quantity, &a.ScrapRate, &a.IsActive); err != nil {
			return nil, err
		}
		if pos, ok := index[a.PrimaryDetailID]; ok {
			materials[pos].Alternatives = append(materials[pos].Alternatives, a)
		}
	}
	return materials, altRows.Err()
}

// ActiveBOMCount counts the ACTIVE BOMs of a product.
func (r *Repository) ActiveBOMCount(productID int) (int, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM prod_bom
		WHERE product_id = $1 AND status = $2 AND deleted_at IS NULL`,
		productID, models.BOMStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active BOMs: %v", err)
	}
	return count, nil
}

// ActiveBOMs lists the ACTIVE BOMs of a product, optionally excluding one id
// (the BOM being activated).
func (r *Repository) ActiveBOMs(productID, excludeBOMID int) ([]models.BOMSummary, error) {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.code, b.product_id, COALESCE(p.name, ''), b.status, b.version
		FROM prod_bom b
		LEFT JOIN product p ON b.product_id = p.id
		WHERE b.product_id = $1 AND b.status = $2 AND b.deleted_at IS NULL AND b.id <> $3
		ORDER BY b.id`,
		productID, models.BOMStatusActive, excludeBOMID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active BOMs: %v", err)
	}
	defer rows.Close()

	var out []models.BOMSummary
	for rows.Next() {
		var s models.BOMSummary
		if err := rows.Scan(&s.ID, &s.Code, &s.ProductID, &s.ProductName, &s.Status, &s.Version); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ProductsWithMultipleActiveBOMs returns every product in conflict with its
// ACTIVE BOM list, for the dashboard.
func (r *Repository) ProductsWithMultipleActiveBOMs() (map[int][]models.BOMSummary, error) {
	ctx, cancel := utils.GetSlowQueryContext(nil)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.code, b.product_id, COALESCE(p.name, ''), b.status, b.version
		FROM prod_bom b
		LEFT JOIN product p ON b.product_id = p.id
		WHERE b.status = $1 AND b.deleted_at IS NULL
		  AND b.product_id IN (
			SELECT product_id FROM prod_bom
			WHERE status = $1 AND deleted_at IS NULL
			GROUP BY product_id HAVING COUNT(*) > 1)
		ORDER BY b.product_id, b.id`, models.BOMStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query BOM conflicts: %v", err)
	}
	defer rows.Close()

	conflicts := map[int][]models.BOMSummary{}
	for rows.Next() {
		var s models.BOMSummary
		if err := rows.Scan(&s.ID, &s.Code, &s.ProductID, &s.ProductName, &s.Status, &s.Version); err != nil {
			return nil, err
		}
		conflicts[s.ProductID] = append(conflicts[s.ProductID], s)
	}
	return conflicts, rows.Err()
}

// OrderSnapshot loads one production order.
func (r *Repository) OrderSnapshot(orderID int) (*models.OrderSnapshot, error) {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	var snap models.OrderSnapshot
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, status, bom_id, product_id, planned_qty, produced_qty,
		       warehouse_id, target_warehouse_id, scheduled_date, created_at
		FROM prod_order
		WHERE id = $1`, orderID).Scan(
		&snap.ID, &snap.Code, &snap.Status, &snap.BOMID, &snap.ProductID,
		&snap.PlannedQty, &snap.ProducedQty, &snap.WarehouseID,
		&snap.TargetWarehouseID, &snap.ScheduledDate, &snap.CreatedDate,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", orderID, validation.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order snapshot: %v", err)
	}
	return &snap, nil
}

// MaterialAvailability classifies each required line of a BOM at the given
// production quantity against stock in the warehouse. Required per line is
// quantity * (planned / output_qty) * (1 + scrap_rate).
func (r *Repository) MaterialAvailability(bomID int, quantity float64, warehouseID int) (*models.MaterialAvailability, error) {
	ctx, cancel := utils.GetSlowQueryContext(nil)
	defer cancel()

	query := `
		WITH requirement AS (
			SELECT d.material_id,
			       d.quantity * ($2::numeric / NULLIF(b.output_qty, 0)) * (1 + d.scrap_rate) AS required_qty
			FROM prod_bom_detail d
			JOIN prod_bom b ON d.bom_id = b.id
			WHERE d.bom_id = $1
		),
		coverage AS (
			SELECT r.required_qty,
			       COALESCE((SELECT SUM(s.quantity) FROM inv_stock s
			                 WHERE s.material_id = r.material_id AND s.warehouse_id = $3), 0) AS available_qty
			FROM requirement r
		)
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE available_qty >= required_qty),
		       COUNT(*) FILTER (WHERE available_qty > 0 AND available_qty < required_qty),
		       COUNT(*) FILTER (WHERE available_qty <= 0)
		FROM coverage`

	var av models.MaterialAvailability
	err := r.db.QueryRowContext(ctx, query, bomID, quantity, warehouseID).Scan(
		&av.Total, &av.Sufficient, &av.Partial, &av.Insufficient)
	if err != nil {
		return nil, fmt.Errorf("failed to compute material availability: %v", err)
	}
	return &av, nil
}

// IssuedQuantity sums the material already issued against an order.
func (r *Repository) IssuedQuantity(orderID int) (*models.IssuedSummary, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	var sum models.IssuedSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE issued_qty > 0), COALESCE(SUM(issued_qty), 0)
		FROM prod_order_material
		WHERE order_id = $1`, orderID).Scan(&sum.IssuedCount, &sum.TotalIssued)
	if err != nil {
		return nil, fmt.Errorf("failed to load issued quantity: %v", err)
	}
	return &sum, nil
}

// DuplicateOrderExists reports whether a non-cancelled order with the same
// (product, BOM, scheduled date) triple already exists.
func (r *Repository) DuplicateOrderExists(productID, bomID int, scheduled time.Time, excludeOrderID int) (bool, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM prod_order
		WHERE product_id = $1 AND bom_id = $2 AND scheduled_date = $3
		  AND status <> $4 AND id <> $5`,
		productID, bomID, scheduled.Format("2006-01-02"), models.OrderStatusCancelled, excludeOrderID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate orders: %v", err)
	}
	return count > 0, nil
}

// PersistedDuplicates runs the duplicate detector over the stored rows of an
// existing BOM. Same detector, same semantics as the in-memory wizard check.
func (r *Repository) PersistedDuplicates(bomID int) (bool, []validation.Duplicate, error) {
	materials, err := r.BOMMaterials(bomID)
	if err != nil {
		return false, nil, err
	}
	has, dups := validation.DetectDuplicates(materials)
	return has, dups, nil
}

// ---------------------------------------------------------------------------
// Mutations

// InsertOrder writes a new DRAFT order plus its material requirement rows
// snapshotted from the BOM. The per-product advisory lock keeps the creation
// serialized against BOM activations so the C4 check stays truthful.
func (r *Repository) InsertOrder(ctx context.Context, req models.OrderCreateRequest) (*models.OrderSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, productLockKey(req.ProductID)); err != nil {
		return nil, fmt.Errorf("failed to take product lock: %v", err)
	}

	code := GenerateOrderCode()
	var snap models.OrderSnapshot
	err = tx.QueryRowContext(ctx, `
		INSERT INTO prod_order
			(code, status, bom_id, product_id, planned_qty, produced_qty,
			 warehouse_id, target_warehouse_id, scheduled_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, now(), now())
		RETURNING id, code, status, bom_id, product_id, planned_qty, produced_qty,
		          warehouse_id, target_warehouse_id, scheduled_date, created_at`,
		code, models.OrderStatusDraft, req.BOMID, req.ProductID, req.PlannedQty,
		req.WarehouseID, req.TargetWarehouseID, req.ScheduledDate, req.Notes,
	).Scan(
		&snap.ID, &snap.Code, &snap.Status, &snap.BOMID, &snap.ProductID,
		&snap.PlannedQty, &snap.ProducedQty, &snap.WarehouseID,
		&snap.TargetWarehouseID, &snap.ScheduledDate, &snap.CreatedDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %v", err)
	}

	// Snapshot the requirement lines so later BOM edits cannot change what
	// this order owes.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO prod_order_material (order_id, material_id, required_qty, issued_qty)
		SELECT $1, d.material_id,
		       d.quantity * ($2::numeric / NULLIF(b.output_qty, 0)) * (1 + d.scrap_rate), 0
		FROM prod_bom_detail d
		JOIN prod_bom b ON d.bom_id = b.id
		WHERE d.bom_id = $3`,
		snap.ID, req.PlannedQty, req.BOMID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order materials: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %v", err)
	}
	return &snap, nil
}

// UpdateOrder applies only the fields present in the request.
func (r *Repository) UpdateOrder(ctx context.Context, orderID int, upd models.OrderUpdateRequest) (*models.OrderSnapshot, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	n := 1

	if upd.PlannedQty != nil {
		sets = append(sets, fmt.Sprintf("planned_qty = $%d", n))
		args = append(args, *upd.PlannedQty)
		n++
	}
	if upd.WarehouseID != nil {
		sets = append(sets, fmt.Sprintf("warehouse_id = $%d", n))
		args = append(args, *upd.WarehouseID)
		n++
	}
	if upd.ScheduledDate != nil {
		sets = append(sets, fmt.Sprintf("scheduled_date = $%d", n))
		args = append(args, *upd.ScheduledDate)
		n++
	}
	if upd.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", n))
		args = append(args, *upd.Notes)
		n++
	}

	args = append(args, orderID)
	query := fmt.Sprintf(`
		UPDATE prod_order SET %s WHERE id = $%d
		RETURNING id, code, status, bom_id, product_id, planned_qty, produced_qty,
		          warehouse_id, target_warehouse_id, scheduled_date, created_at`,
		strings.Join(sets, ", "), n)

	var snap models.OrderSnapshot
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&snap.ID, &snap.Code, &snap.Status, &snap.BOMID, &snap.ProductID,
		&snap.PlannedQty, &snap.ProducedQty, &snap.WarehouseID,
		&snap.TargetWarehouseID, &snap.ScheduledDate, &snap.CreatedDate,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", orderID, validation.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %v", err)
	}

	// Requirement lines follow the new quantity as long as nothing has been
	// issued yet; issued lines keep their history.
	if upd.PlannedQty != nil {
		_, err = r.db.ExecContext(ctx, `
			UPDATE prod_order_material m
			SET required_qty = d.quantity * ($1::numeric / NULLIF(b.output_qty, 0)) * (1 + d.scrap_rate)
			FROM prod_order o
			JOIN prod_bom b ON o.bom_id = b.id
			JOIN prod_bom_detail d ON d.bom_id = b.id
			WHERE o.id = $2 AND m.order_id = o.id AND m.material_id = d.material_id AND m.issued_qty = 0`,
			*upd.PlannedQty, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh order materials: %v", err)
		}
	}

	return &snap, nil
}

// SetOrderStatus moves an order to the given status. Confirmation takes the
// product lock so F5 and a concurrent activation cannot both pass.
func (r *Repository) SetOrderStatus(ctx context.Context, orderID int, status, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if status == models.OrderStatusConfirmed {
		var productID int
		if err := tx.QueryRowContext(ctx, `SELECT product_id FROM prod_order WHERE id = $1`, orderID).Scan(&productID); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("order %d: %w", orderID, validation.ErrNotFound)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, productLockKey(productID)); err != nil {
			return fmt.Errorf("failed to take product lock: %v", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE prod_order
		SET status = $1, cancel_reason = NULLIF($2, ''), updated_at = now()
		WHERE id = $3`, status, reason, orderID)
	if err != nil {
		return fmt.Errorf("failed to set order status: %v", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("order %d: %w", orderID, validation.ErrNotFound)
	}
	return tx.Commit()
}

// DeleteOrder removes an order and its requirement rows. The validator has
// already guaranteed nothing was issued.
func (r *Repository) DeleteOrder(ctx context.Context, orderID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prod_order_material WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete order materials: %v", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM prod_order WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %v", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("order %d: %w", orderID, validation.ErrNotFound)
	}
	return tx.Commit()
}

// SetBOMStatus moves a BOM to the given status. Activation takes the
// per-product advisory lock; with deactivateOthers the remaining ACTIVE BOMs
// of the product are set INACTIVE in the same transaction (the
// "deactivate_others" resolution choice).
func (r *Repository) SetBOMStatus(ctx context.Context, bomID int, status string, deactivateOthers bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var productID int
	if err := tx.QueryRowContext(ctx, `SELECT product_id FROM prod_bom WHERE id = $1 AND deleted_at IS NULL`, bomID).Scan(&productID); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("BOM %d: %w", bomID, validation.ErrNotFound)
		}
		return err
	}

	if status == models.BOMStatusActive {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, productLockKey(productID)); err != nil {
			return fmt.Errorf("failed to take product lock: %v", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE prod_bom SET status = $1, updated_at = now() WHERE id = $2`, status, bomID); err != nil {
		return fmt.Errorf("failed to set BOM status: %v", err)
	}

	if deactivateOthers && status == models.BOMStatusActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE prod_bom SET status = $1, updated_at = now()
			WHERE product_id = $2 AND status = $3 AND id <> $4 AND deleted_at IS NULL`,
			models.BOMStatusInactive, productID, models.BOMStatusActive, bomID); err != nil {
			return fmt.Errorf("failed to deactivate sibling BOMs: %v", err)
		}
	}

	return tx.Commit()
}

// CircularFinding is one hit of the batch circular-dependency scan.
type CircularFinding struct {
	BOMID     int `json:"bom_id"`
	ProductID int `json:"product_id"`
	Conflicts int `json:"conflicts"`
}

// ScanCircularBOMs walks every non-deleted BOM and reports the ones whose
// output product appears among their own inputs. Existence only; the
// per-line detail endpoints serve the editing dialogs.
func (r *Repository) ScanCircularBOMs() (int, []CircularFinding, error) {
	ctx, cancel := utils.GetSlowQueryContext(nil)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id FROM prod_bom WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list BOMs for scan: %v", err)
	}
	defer rows.Close()

	type bomRef struct{ id, productID int }
	var refs []bomRef
	for rows.Next() {
		var ref bomRef
		if err := rows.Scan(&ref.id, &ref.productID); err != nil {
			return 0, nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	var findings []CircularFinding
	for _, ref := range refs {
		materials, err := r.BOMMaterials(ref.id)
		if err != nil {
			return 0, nil, err
		}
		if has, conflicts := validation.DetectCircularDependency(ref.productID, materials); has {
			findings = append(findings, CircularFinding{BOMID: ref.id, ProductID: ref.productID, Conflicts: len(conflicts)})
		}
	}
	return len(refs), findings, nil
}

// productLockKey maps a product id into the advisory-lock keyspace shared by
// BOM activation and order creation/confirmation.
func productLockKey(productID int) int64 {
	const lockNamespace = int64(7600) << 32
	return lockNamespace | int64(productID)
}
