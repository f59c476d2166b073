// internal/infrastructure/database/postgres/order_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/your-org/caseledger-backend/internal/domain/allocation"
	"gorm.io/gorm"
)

// OrderRepository is the gorm-backed allocation.Repository
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetOrder loads one order with its lines
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*allocation.Order, error) {
	var order allocation.Order
	err := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_lines.id")
	}).Where("order_id = ?", orderID).First(&order).Error
	if err == gorm.ErrRecordNotFound {
		return nil, allocation.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return &order, nil
}

// ListOrders loads all orders in the order they were recorded
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*allocation.Order, error) {
	var orders []*allocation.Order
	err := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_lines.id")
	}).Order("orders.id").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// SaveOrder persists the order and its lines in one transaction
func (r *OrderRepository) SaveOrder(ctx context.Context, order *allocation.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
	}
	return nil
}
