package services

import (
	"context"
	"fmt"

	"backend/models"
	"backend/validation"
)

// OrderStore is the write surface of the persistence layer. Implementations
// must serialize order creation/confirmation and BOM activation per product
// (the repository uses a pg advisory lock) so the C4/F5 conflict checks see
// a consistent snapshot.
type OrderStore interface {
	InsertOrder(ctx context.Context, req models.OrderCreateRequest) (*models.OrderSnapshot, error)
	UpdateOrder(ctx context.Context, orderID int, upd models.OrderUpdateRequest) (*models.OrderSnapshot, error)
	SetOrderStatus(ctx context.Context, orderID int, status, reason string) error
	DeleteOrder(ctx context.Context, orderID int) error
}

// BlockedError is returned by the mutating wrappers when validation stopped
// the operation. The full result set travels with the error for callers that
// prefer exception-style control flow.
type BlockedError struct {
	Operation string
	Results   validation.Results
}

func (e *BlockedError) Error() string {
	if e.Results.HasBlocks() {
		return fmt.Sprintf("%s blocked by rules %v", e.Operation, e.Results.Blocks().RuleIDs())
	}
	return fmt.Sprintf("%s requires acknowledgment of warnings %v", e.Operation, e.Results.Warnings().RuleIDs())
}

// OrderService runs the matching validator before every mutation and
// enforces the block/warning gate: blocks always stop the operation;
// warnings stop it unless the caller passed skipWarnings, which represents
// the user's explicit acknowledgment.
type OrderService struct {
	validator *validation.OrderValidator
	store     OrderStore
}

func NewOrderService(validator *validation.OrderValidator, store OrderStore) *OrderService {
	return &OrderService{validator: validator, store: store}
}

// gate applies the shared decision: nil error means the mutation may run.
func gate(op string, results validation.Results, skipWarnings bool) error {
	if results.HasBlocks() {
		return &BlockedError{Operation: op, Results: results}
	}
	if results.HasWarnings() && !skipWarnings {
		return &BlockedError{Operation: op, Results: results}
	}
	return nil
}

// CreateOrder validates then inserts. On a blocked or unacknowledged outcome
// nothing is written and the results are returned alongside the error.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderCreateRequest) (*models.OrderSnapshot, validation.Results, error) {
	results, err := s.validator.ValidateCreate(req)
	if err != nil {
		return nil, nil, err
	}
	if gerr := gate("create order", results, req.SkipWarnings); gerr != nil {
		return nil, results, gerr
	}
	order, err := s.store.InsertOrder(ctx, req)
	if err != nil {
		return nil, results, err
	}
	return order, results, nil
}

// UpdateOrder validates the field changes then applies them.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID int, upd models.OrderUpdateRequest) (*models.OrderSnapshot, validation.Results, error) {
	results, err := s.validator.ValidateEdit(orderID, upd)
	if err != nil {
		return nil, nil, err
	}
	if gerr := gate("update order", results, upd.SkipWarnings); gerr != nil {
		return nil, results, gerr
	}
	order, err := s.store.UpdateOrder(ctx, orderID, upd)
	if err != nil {
		return nil, results, err
	}
	return order, results, nil
}

// ConfirmOrder moves a DRAFT order to CONFIRMED after the F rules pass.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID int, skipWarnings bool) (validation.Results, error) {
	results, err := s.validator.ValidateConfirm(orderID)
	if err != nil {
		return nil, err
	}
	if gerr := gate("confirm order", results, skipWarnings); gerr != nil {
		return results, gerr
	}
	if err := s.store.SetOrderStatus(ctx, orderID, models.OrderStatusConfirmed, ""); err != nil {
		return results, err
	}
	return results, nil
}

// CancelOrder moves a DRAFT/CONFIRMED order to CANCELLED, recording the
// reason.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int, reason string, skipWarnings bool) (validation.Results, error) {
	results, err := s.validator.ValidateCancel(orderID, reason)
	if err != nil {
		return nil, err
	}
	if gerr := gate("cancel order", results, skipWarnings); gerr != nil {
		return results, gerr
	}
	if err := s.store.SetOrderStatus(ctx, orderID, models.OrderStatusCancelled, reason); err != nil {
		return results, err
	}
	return results, nil
}

// DeleteOrder removes a DRAFT/CANCELLED order that never touched stock.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int, skipWarnings bool) (validation.Results, error) {
	results, err := s.validator.ValidateDelete(orderID)
	if err != nil {
		return nil, err
	}
	if gerr := gate("delete order", results, skipWarnings); gerr != nil {
		return results, gerr
	}
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return results, err
	}
	return results, nil
}
