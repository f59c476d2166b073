// internal/interfaces/http/handlers/orders.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/allocation"
	"github.com/your-org/caseledger-backend/internal/pkg/metrics"
)

// OrderHandler handles order recording and fulfillment endpoints
type OrderHandler struct {
	allocationService *allocation.Service
	config            *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(svc *allocation.Service, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		allocationService: svc,
		config:            cfg,
	}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req allocation.RecordOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	order, err := h.allocationService.RecordOrder(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order recorded successfully",
		"data":    order,
	})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.allocationService.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// GetOrder handles GET /orders/:orderId
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.allocationService.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		if errors.Is(err, allocation.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// FulfillRequest is the fulfillment payload
type FulfillRequest struct {
	ItemCode string  `json:"item_code" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	OrderID  *string `json:"order_id"`
}

// Fulfill handles POST /orders/fulfill
func (h *OrderHandler) Fulfill(c *gin.Context) {
	var req FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
		return
	}

	result, err := h.allocationService.Fulfill(c.Request.Context(), req.ItemCode, req.Quantity, req.OrderID)
	if err != nil {
		if errors.Is(err, allocation.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match fulfillment"})
		return
	}

	metrics.FulfillmentsTotal.Inc()
	for range result.CompletedOrders {
		metrics.OrdersCompletedTotal.Inc()
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
