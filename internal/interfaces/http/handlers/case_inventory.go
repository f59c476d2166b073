// internal/interfaces/http/handlers/case_inventory.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/ledger"
	"github.com/your-org/caseledger-backend/internal/infrastructure/database/redis"
	"github.com/your-org/caseledger-backend/internal/pkg/metrics"
)

const summaryCacheKey = "case-inventory:summary"

// CaseInventoryHandler handles case ledger endpoints
type CaseInventoryHandler struct {
	ledgerService *ledger.Service
	cache         *redis.Client
	config        *config.Config
}

// NewCaseInventoryHandler creates a new case inventory handler
func NewCaseInventoryHandler(svc *ledger.Service, cache *redis.Client, cfg *config.Config) *CaseInventoryHandler {
	return &CaseInventoryHandler{
		ledgerService: svc,
		cache:         cache,
		config:        cfg,
	}
}

// ListItems handles GET /case-inventory
func (h *CaseInventoryHandler) ListItems(c *gin.Context) {
	if h.cache != nil {
		var cached []ledger.ItemSummary
		if err := h.cache.GetJSON(c.Request.Context(), summaryCacheKey, &cached); err == nil {
			c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
			return
		}
	}

	summaries, err := h.ledgerService.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve inventory",
		})
		return
	}

	if h.cache != nil {
		// Best effort; a cold cache just means the next read hits the db
		_ = h.cache.SetJSON(c.Request.Context(), summaryCacheKey, summaries, h.config.Redis.SummaryTTL)
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

// GetItem handles GET /case-inventory/:itemCode
func (h *CaseInventoryHandler) GetItem(c *gin.Context) {
	query := ledger.LotQuery{
		Status:        ledger.LotStatus(c.Query("status")),
		InvoiceNumber: c.Query("invoiceNumber"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		query.Limit = n
	}

	detail, err := h.ledgerService.GetItem(c.Request.Context(), c.Param("itemCode"), query)
	if err != nil {
		if errors.Is(err, ledger.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": detail})
}

// AddLots handles POST /case-inventory/:itemCode/lots
func (h *CaseInventoryHandler) AddLots(c *gin.Context) {
	var req ledger.AddLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	item, err := h.ledgerService.AddLots(c.Request.Context(), c.Param("itemCode"), &req)
	if err != nil {
		var vErr *ledger.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid lot records",
				"details": vErr.Problems,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add lots"})
		return
	}

	h.invalidateSummary(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"message": "Lots added successfully",
		"data":    item,
	})
}

// UseRequest is the consumption payload
type UseRequest struct {
	Quantity float64 `json:"quantity" binding:"required"`
	Reason   string  `json:"reason"`
}

// Use handles POST /case-inventory/:itemCode/use
func (h *CaseInventoryHandler) Use(c *gin.Context) {
	var req UseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.ledgerService.Consume(c.Request.Context(), c.Param("itemCode"), req.Quantity, req.Reason)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidQuantity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
			return
		}
		if errors.Is(err, ledger.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to consume stock"})
		return
	}

	metrics.ConsumptionsTotal.Inc()
	if result.Shortfall > 0 {
		metrics.ShortfallsTotal.Inc()
	}

	h.invalidateSummary(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RotationReport handles GET /case-inventory/:itemCode/rotation-report
func (h *CaseInventoryHandler) RotationReport(c *gin.Context) {
	report, err := h.ledgerService.AgingReport(c.Request.Context(), c.Param("itemCode"), time.Now().UTC())
	if err != nil {
		if errors.Is(err, ledger.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build rotation report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// PhysicalCountRequest is the reconciliation payload
type PhysicalCountRequest struct {
	CaseNumbers  []string `json:"caseNumbers" binding:"required"`
	CountDate    string   `json:"countDate" binding:"required"`  // YYYY-MM-DD
	CutoffDate   string   `json:"cutoffDate" binding:"required"` // YYYY-MM-DD
	PeopleOnSite int      `json:"peopleOnSite"`
	Notes        string   `json:"notes"`
}

// PhysicalCount handles PUT /case-inventory/:itemCode/physical-count
func (h *CaseInventoryHandler) PhysicalCount(c *gin.Context) {
	var req PhysicalCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	countDate, err := time.Parse("2006-01-02", req.CountDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid countDate, expected YYYY-MM-DD"})
		return
	}
	cutoffDate, err := time.Parse("2006-01-02", req.CutoffDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cutoffDate, expected YYYY-MM-DD"})
		return
	}

	result, err := h.ledgerService.Reconcile(c.Request.Context(), c.Param("itemCode"), &ledger.ReconcileRequest{
		CountedCaseIDs: req.CaseNumbers,
		CountDate:      countDate,
		CutoffDate:     cutoffDate,
		PeopleOnSite:   req.PeopleOnSite,
		Notes:          req.Notes,
	})
	if err != nil {
		var cutoffErr *ledger.CutoffViolationError
		if errors.As(err, &cutoffErr) {
			metrics.CutoffRejectionsTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Counted cases received after cutoff date",
				"violations": cutoffErr.Violations,
			})
			return
		}
		if errors.Is(err, ledger.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile physical count"})
		return
	}

	metrics.ReconciliationsTotal.Inc()
	h.invalidateSummary(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CountHistory handles GET /case-inventory/:itemCode/count-history
func (h *CaseInventoryHandler) CountHistory(c *gin.Context) {
	history, err := h.ledgerService.CountHistory(c.Request.Context(), c.Param("itemCode"))
	if err != nil {
		if errors.Is(err, ledger.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve count history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (h *CaseInventoryHandler) invalidateSummary(ctx context.Context) {
	if h.cache != nil {
		_ = h.cache.Del(ctx, summaryCacheKey)
	}
}
