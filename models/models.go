package models

import (
	"time"

	_ "github.com/lib/pq"
)

// BOM status values. A BOM is created as DRAFT and never hard-deleted once
// any order has referenced it.
const (
	BOMStatusDraft    = "DRAFT"
	BOMStatusActive   = "ACTIVE"
	BOMStatusInactive = "INACTIVE"
)

// Production order status values.
const (
	OrderStatusDraft      = "DRAFT"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// BOMSnapshot is the read-only view of a BOM header the validation core
// consumes. TotalUsage and ActiveOrders are aggregates computed by the
// database; the core never recomputes them from raw rows.
type BOMSnapshot struct {
	ID            int     `json:"id" example:"1"`
	Status        string  `json:"status" example:"ACTIVE"`
	ProductID     int     `json:"product_id" example:"12"`
	OutputQty     float64 `json:"output_qty" example:"100"`
	MaterialCount int     `json:"material_count" example:"4"`
	TotalUsage    int     `json:"total_usage" example:"7"`
	ActiveOrders  int     `json:"active_orders" example:"2"`
}

// BOMAlternative is a substitute material for a primary BOM line, ranked by
// priority (1 = first substitute).
type BOMAlternative struct {
	ID                    int     `json:"id,omitempty" example:"31"`
	PrimaryDetailID       int     `json:"primary_detail_id,omitempty" example:"3"`
	AlternativeMaterialID int     `json:"alternative_material_id" example:"9"`
	Priority              int     `json:"priority" example:"1"`
	Quantity              float64 `json:"quantity" example:"2.5"`
	ScrapRate             float64 `json:"scrap_rate" example:"0.02"`
	IsActive              bool    `json:"is_active" example:"true"`
}

// BOMMaterial is one detail line of a BOM together with its alternatives.
// The same shape is used for rows loaded from the database and for rows
// assembled in memory by the create/clone wizard, so both run through the
// identical detector code.
type BOMMaterial struct {
	ID           int              `json:"id,omitempty" example:"3"`
	BOMID        int              `json:"bom_id,omitempty" example:"1"`
	MaterialID   int              `json:"material_id" example:"5"`
	Quantity     float64          `json:"quantity" example:"4"`
	ScrapRate    float64          `json:"scrap_rate" example:"0.05"`
	MaterialType string           `json:"material_type,omitempty" example:"RAW"`
	Alternatives []BOMAlternative `json:"alternatives,omitempty"`
}

// BOMSummary is the short form used in conflict listings and dashboards.
type BOMSummary struct {
	ID          int    `json:"id" example:"1"`
	Code        string `json:"code" example:"BOM-2025-0014"`
	ProductID   int    `json:"product_id" example:"12"`
	ProductName string `json:"product_name,omitempty" example:"Ground Coffee 500g"`
	Status      string `json:"status" example:"ACTIVE"`
	Version     int    `json:"version,omitempty" example:"2"`
}

// OrderSnapshot is the read-only view of a production order.
type OrderSnapshot struct {
	ID                int       `json:"id" example:"41"`
	Code              string    `json:"code,omitempty" example:"PO-20250830-0041"`
	Status            string    `json:"status" example:"DRAFT"`
	BOMID             int       `json:"bom_id" example:"1"`
	ProductID         int       `json:"product_id" example:"12"`
	PlannedQty        float64   `json:"planned_qty" example:"100"`
	ProducedQty       float64   `json:"produced_qty" example:"60"`
	WarehouseID       int       `json:"warehouse_id" example:"1"`
	TargetWarehouseID int       `json:"target_warehouse_id" example:"2"`
	ScheduledDate     time.Time `json:"scheduled_date" example:"2025-09-15T00:00:00Z"`
	CreatedDate       time.Time `json:"created_date" example:"2025-08-30T08:15:00Z"`
}

// MaterialAvailability summarises stock coverage for a BOM at a given
// production quantity: per required line, SUFFICIENT / PARTIAL / INSUFFICIENT.
type MaterialAvailability struct {
	Total        int `json:"total" example:"4"`
	Sufficient   int `json:"sufficient" example:"2"`
	Partial      int `json:"partial" example:"1"`
	Insufficient int `json:"insufficient" example:"1"`
}

// IssuedSummary reports how much material has already been issued against an
// order.
type IssuedSummary struct {
	IssuedCount int     `json:"issued_count" example:"2"`
	TotalIssued float64 `json:"total_issued" example:"35.5"`
}

// OrderCreateRequest carries the candidate order the UI wants to create.
type OrderCreateRequest struct {
	BOMID             int     `json:"bom_id" example:"1"`
	ProductID         int     `json:"product_id" example:"12"`
	PlannedQty        float64 `json:"planned_qty" example:"100"`
	WarehouseID       int     `json:"warehouse_id" example:"1"`
	TargetWarehouseID int     `json:"target_warehouse_id" example:"2"`
	ScheduledDate     string  `json:"scheduled_date" example:"2025-09-15"`
	Notes             string  `json:"notes,omitempty" example:"Rush batch"`
	SkipWarnings      bool    `json:"skip_warnings" example:"false"`
}

// OrderUpdateRequest carries only the fields being changed; nil means
// "not touched".
type OrderUpdateRequest struct {
	PlannedQty    *float64 `json:"planned_qty,omitempty" example:"80"`
	WarehouseID   *int     `json:"warehouse_id,omitempty" example:"1"`
	ScheduledDate *string  `json:"scheduled_date,omitempty" example:"2025-09-20"`
	Notes         *string  `json:"notes,omitempty"`
	SkipWarnings  bool     `json:"skip_warnings" example:"false"`
}

// StatusTransitionRequest asks to move a BOM to a new status. Resolution is
// only consulted when activating a BOM whose product already has other
// ACTIVE BOMs: "deactivate_others", "keep_both" or "cancel".
type StatusTransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required" example:"ACTIVE"`
	Resolution   string `json:"resolution,omitempty" example:"deactivate_others"`
}

// CircularCheckRequest is the in-memory payload checked while a wizard is
// being assembled, before anything is persisted.
type CircularCheckRequest struct {
	OutputProductID int           `json:"output_product_id" binding:"required" example:"9"`
	Materials       []BOMMaterial `json:"materials"`
}

// DuplicateCheckRequest mirrors CircularCheckRequest for duplicate detection.
type DuplicateCheckRequest struct {
	Materials []BOMMaterial `json:"materials"`
}

// ActivityLog records who did what, mirrored into the activity_logs table.
type ActivityLog struct {
	ID           int       `json:"id,omitempty" example:"1"`
	EventContext string    `json:"event_context" example:"ORDER"`
	EventName    string    `json:"event_name" example:"Confirm"`
	Description  string    `json:"description" example:"Confirmed order PO-20250830-0041"`
	UserName     string    `json:"user_name" example:"Nguyen Van A"`
	HostName     string    `json:"host_name" example:"host-01"`
	IPAddress    string    `json:"ip_address" example:"10.0.0.5"`
	CreatedAt    time.Time `json:"created_at" example:"2025-08-30T08:15:00Z"`
}

// Session represents one logged-in device.
type Session struct {
	UserID                int       `json:"user_id" example:"1"`
	SessionID             string    `json:"session_id" example:""`
	HostName              string    `json:"host_name" example:"host-01"`
	IPAddress             string    `json:"ip_address" example:"10.0.0.5"`
	Timestamp             time.Time `json:"timestp" example:"2025-08-30T08:15:00Z"`
	ExpiresAt             time.Time `json:"expires_at" example:"2025-08-31T08:15:00Z"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

// User is the account row joined with its role.
type User struct {
	ID        int       `json:"id" example:"1"`
	Email     string    `json:"email" example:"user@example.com"`
	Password  string    `json:"password" example:""`
	FirstName string    `json:"first_name" example:"Van A"`
	LastName  string    `json:"last_name" example:"Nguyen"`
	RoleName  string    `json:"role_name,omitempty" example:"Planner"`
	Suspended bool      `json:"suspended" example:"false"`
	CreatedAt time.Time `json:"created_at" example:"2025-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2025-01-15T10:30:00Z"`
}

// LoginRequest is the credential payload for /api/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:""`
	IP       string `json:"ip" binding:"required" example:"10.0.0.5"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Message      string `json:"message" example:"Login successful"`
	AccessToken  string `json:"access_token" example:""`
	RefreshToken string `json:"refresh_token" example:""`
	SessionID    string `json:"session_id" example:""`
}

// Response is the generic success envelope.
type Response struct {
	Message string `json:"message" example:"OK"`
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Error   string `json:"error" example:"something went wrong"`
	Details string `json:"details,omitempty" example:""`
}
