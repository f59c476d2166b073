// internal/interfaces/http/handlers/audit.go
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/audit"
	"github.com/your-org/caseledger-backend/internal/pkg/metrics"
	"github.com/your-org/caseledger-backend/internal/pkg/pdf"
)

// AuditHandler handles discrepancy audit endpoints
type AuditHandler struct {
	auditService *audit.Service
	pdfService   *pdf.Service
	config       *config.Config
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(svc *audit.Service, pdfSvc *pdf.Service, cfg *config.Config) *AuditHandler {
	return &AuditHandler{
		auditService: svc,
		pdfService:   pdfSvc,
		config:       cfg,
	}
}

// GetDiscrepancyReport handles GET /audit/discrepancy
func (h *AuditHandler) GetDiscrepancyReport(c *gin.Context) {
	report, err := h.auditService.Audit(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run discrepancy audit"})
		return
	}

	metrics.AuditsTotal.WithLabelValues(string(report.Severity)).Inc()
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetDiscrepancyReportPDF handles GET /audit/discrepancy/pdf
func (h *AuditHandler) GetDiscrepancyReportPDF(c *gin.Context) {
	report, err := h.auditService.Audit(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run discrepancy audit"})
		return
	}

	metrics.AuditsTotal.WithLabelValues(string(report.Severity)).Inc()

	buf, err := h.pdfService.GenerateAuditReport(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render audit report PDF"})
		return
	}

	filename := fmt.Sprintf("discrepancy-audit-%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
