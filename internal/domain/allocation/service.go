// internal/domain/allocation/service.go
package allocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caseledger-backend/internal/config"
)

// Service matches order line items against available aggregate item
// quantity. This is deliberately coarser-grained than the case ledger: it
// tracks total quantity per item, not specific lots, and walks unfulfilled
// lines in the order they were recorded rather than by receipt date.
type Service struct {
	repo   Repository
	config *config.Config
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewService creates a new allocation service
func NewService(repo Repository, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		config: cfg,
		logger: logger,
	}
}

// OrderLineRequest is one line of an incoming order
type OrderLineRequest struct {
	ItemCode  string          `json:"item_code" binding:"required"`
	Quantity  float64         `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// RecordOrderRequest is the payload for recording a new order
type RecordOrderRequest struct {
	OrderID      string             `json:"order_id" binding:"required"`
	TotalValue   decimal.Decimal    `json:"total_value"`
	IsCreditMemo bool               `json:"is_credit_memo"`
	Lines        []OrderLineRequest `json:"lines"`
}

// FulfillResult is the outcome of matching quantity against allocations.
// QuantityRemaining is the unallocated residual, a result value the
// caller inspects.
type FulfillResult struct {
	ItemCode          string            `json:"item_code"`
	FulfilledLines    int               `json:"fulfilled_lines"`
	CompletedOrders   []CompletionEvent `json:"completed_orders"`
	QuantityRemaining float64           `json:"quantity_remaining"`
}

// RecordOrder validates and stores a new order with its lines
func (s *Service) RecordOrder(ctx context.Context, req *RecordOrderRequest) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.GetOrder(ctx, req.OrderID); err == nil {
		return nil, fmt.Errorf("order %s already exists", req.OrderID)
	}

	order := &Order{
		OrderID:        req.OrderID,
		TotalValue:     req.TotalValue,
		IsCreditMemo:   req.IsCreditMemo,
		Status:         StatusPending,
		FulfilledValue: decimal.Zero,
	}

	now := time.Now().UTC()
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line %d (%s): quantity must be positive", i, line.ItemCode)
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromFloat(line.Quantity))
		order.Lines = append(order.Lines, OrderLine{
			ItemCode:  line.ItemCode,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
			CreatedAt: now,
		})
	}

	// Header-only orders are allowed; the auditor flags them separately
	if req.TotalValue.IsZero() && len(order.Lines) > 0 {
		order.TotalValue = order.SummedLineTotal()
	}

	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order %s: %w", req.OrderID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":    order.OrderID,
		"total_value": order.TotalValue.String(),
		"lines":       len(order.Lines),
		"credit_memo": order.IsCreditMemo,
	}).Info("Order recorded")

	return order, nil
}

// GetOrder returns one order by id
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// ListOrders returns all orders in recorded order
func (s *Service) ListOrders(ctx context.Context) ([]*Order, error) {
	return s.repo.ListOrders(ctx)
}

// Fulfill matches available quantity of an item against unfulfilled order
// lines, optionally scoped to a single order. Lines are visited in the
// order they were recorded. A line is only taken when its full quantity
// fits in the remaining amount. Orders whose fulfilled value reaches the
// order total within tolerance transition to completed and emit a
// completion event.
func (s *Service) Fulfill(ctx context.Context, itemCode string, quantity float64, orderID *string) (*FulfillResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	orders, err := s.ordersToMatch(ctx, orderID)
	if err != nil {
		return nil, err
	}

	tolerance := decimal.NewFromFloat(s.config.Ledger.ValueTolerance)
	result := &FulfillResult{
		ItemCode:        itemCode,
		CompletedOrders: []CompletionEvent{},
	}
	remaining := quantity

	for _, order := range orders {
		if order.Status == StatusCompleted {
			continue
		}

		touched := false
		for i := range order.Lines {
			line := &order.Lines[i]
			if line.Fulfilled || line.ItemCode != itemCode {
				continue
			}
			if line.Quantity > remaining {
				continue
			}

			line.Fulfilled = true
			remaining -= line.Quantity
			order.FulfilledValue = order.FulfilledValue.Add(line.LineTotal)
			result.FulfilledLines++
			touched = true

			if remaining <= 0 {
				break
			}
		}

		if !touched {
			continue
		}

		if order.IsComplete(tolerance) {
			order.Status = StatusCompleted
			result.CompletedOrders = append(result.CompletedOrders, CompletionEvent{
				OrderID:    order.OrderID,
				TotalValue: order.TotalValue,
				ItemCount:  len(order.Lines),
			})
		} else {
			order.Status = StatusPartial
		}

		if err := s.repo.SaveOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
		}

		if remaining <= 0 {
			break
		}
	}

	result.QuantityRemaining = remaining

	s.logger.WithFields(logrus.Fields{
		"item_code":          itemCode,
		"quantity":           quantity,
		"fulfilled_lines":    result.FulfilledLines,
		"completed_orders":   len(result.CompletedOrders),
		"quantity_remaining": result.QuantityRemaining,
	}).Info("Fulfillment matched")

	return result, nil
}

// ordersToMatch returns the candidate orders for a fulfillment pass
func (s *Service) ordersToMatch(ctx context.Context, orderID *string) ([]*Order, error) {
	if orderID != nil && *orderID != "" {
		order, err := s.repo.GetOrder(ctx, *orderID)
		if err != nil {
			return nil, err
		}
		return []*Order{order}, nil
	}
	return s.repo.ListOrders(ctx)
}
