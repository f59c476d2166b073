// internal/interfaces/http/handlers/case_inventory_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/ledger"
)

func testConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			ValueTolerance:    0.01,
			FreshAgeDays:      14,
			AgingAgeDays:      30,
			RotationAlertDays: 21,
		},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newInventoryRouter wires the case inventory handler onto a test router
// backed by an in-memory repository and no cache.
func newInventoryRouter(t *testing.T) (*gin.Engine, *ledger.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := ledger.NewService(ledger.NewMemoryRepository(), testConfig(), testLogger())
	handler := NewCaseInventoryHandler(svc, nil, testConfig())

	router := gin.New()
	router.GET("/case-inventory", handler.ListItems)
	router.GET("/case-inventory/:itemCode", handler.GetItem)
	router.POST("/case-inventory/:itemCode/lots", handler.AddLots)
	router.POST("/case-inventory/:itemCode/use", handler.Use)
	router.GET("/case-inventory/:itemCode/rotation-report", handler.RotationReport)
	router.PUT("/case-inventory/:itemCode/physical-count", handler.PhysicalCount)
	router.GET("/case-inventory/:itemCode/count-history", handler.CountHistory)
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedChicken(t *testing.T, svc *ledger.Service) {
	t.Helper()
	_, err := svc.AddLots(context.Background(), "CHIX", &ledger.AddLotsRequest{
		Description: "Chicken breast",
		Unit:        "kg",
		Lots: []ledger.LotRecord{
			{CaseID: "CASE-001", Weight: 30, InvoiceNumber: "INV-1", ReceivedDate: "2024-01-01"},
			{CaseID: "CASE-002", Weight: 20, InvoiceNumber: "INV-2", ReceivedDate: "2024-01-10"},
		},
	})
	require.NoError(t, err)
}

func TestAddLotsEndpoint(t *testing.T) {
	router, _ := newInventoryRouter(t)

	w := doJSON(t, router, http.MethodPost, "/case-inventory/CHIX/lots", gin.H{
		"description": "Chicken breast",
		"unit":        "kg",
		"lots": []gin.H{
			{"case_id": "CASE-001", "weight": 30, "received_date": "2024-01-01"},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Malformed records come back as itemized problems
	w = doJSON(t, router, http.MethodPost, "/case-inventory/CHIX/lots", gin.H{
		"lots": []gin.H{
			{"case_id": "CASE-002", "weight": -1, "received_date": "2024-01-01"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["details"])
}

func TestUseEndpoint(t *testing.T) {
	router, svc := newInventoryRouter(t)
	seedChicken(t, svc)

	w := doJSON(t, router, http.MethodPost, "/case-inventory/CHIX/use", gin.H{
		"quantity": 35, "reason": "lunch service",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data ledger.ConsumptionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 35.0, body.Data.TotalConsumed, 1e-9)
	assert.InDelta(t, 15.0, body.Data.TotalWeight, 1e-9)
	require.Len(t, body.Data.Actions, 2)
	assert.Equal(t, "CASE-001", body.Data.Actions[0].CaseID)

	w = doJSON(t, router, http.MethodPost, "/case-inventory/MISSING/use", gin.H{
		"quantity": 5,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/case-inventory/CHIX/use", gin.H{
		"quantity": -2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetItemEndpoint(t *testing.T) {
	router, svc := newInventoryRouter(t)
	seedChicken(t, svc)

	w := doJSON(t, router, http.MethodGet, "/case-inventory/CHIX?invoiceNumber=INV-2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data ledger.ItemDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Lots, 1)
	assert.Equal(t, "CASE-002", body.Data.Lots[0].CaseID)

	w = doJSON(t, router, http.MethodGet, "/case-inventory/CHIX?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/case-inventory/MISSING", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPhysicalCountEndpoint(t *testing.T) {
	router, svc := newInventoryRouter(t)
	seedChicken(t, svc)

	w := doJSON(t, router, http.MethodPut, "/case-inventory/CHIX/physical-count", gin.H{
		"caseNumbers": []string{"CASE-002"},
		"countDate":   "2024-01-15",
		"cutoffDate":  "2024-01-12",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data ledger.CountResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"CASE-002"}, body.Data.RestoredCases)
	assert.Equal(t, []string{"CASE-001"}, body.Data.RemovedCases)

	// Counting a case received after the cutoff rejects the whole call
	w = doJSON(t, router, http.MethodPut, "/case-inventory/CHIX/physical-count", gin.H{
		"caseNumbers": []string{"CASE-002"},
		"countDate":   "2024-01-15",
		"cutoffDate":  "2024-01-05",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errBody map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.NotEmpty(t, errBody["violations"])

	w = doJSON(t, router, http.MethodPut, "/case-inventory/CHIX/physical-count", gin.H{
		"caseNumbers": []string{"CASE-002"},
		"countDate":   "15/01/2024",
		"cutoffDate":  "2024-01-12",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountHistoryEndpoint(t *testing.T) {
	router, svc := newInventoryRouter(t)
	seedChicken(t, svc)

	w := doJSON(t, router, http.MethodGet, "/case-inventory/CHIX/count-history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []ledger.CountSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data)

	w = doJSON(t, router, http.MethodPut, "/case-inventory/CHIX/physical-count", gin.H{
		"caseNumbers": []string{"CASE-001", "CASE-002"},
		"countDate":   "2024-01-15",
		"cutoffDate":  "2024-01-12",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/case-inventory/CHIX/count-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
}

func TestRotationReportEndpoint(t *testing.T) {
	router, svc := newInventoryRouter(t)
	seedChicken(t, svc)

	w := doJSON(t, router, http.MethodGet, "/case-inventory/CHIX/rotation-report", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data ledger.AgingReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.Cases, 2)

	w = doJSON(t, router, http.MethodGet, "/case-inventory/MISSING/rotation-report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListItemsEndpoint(t *testing.T) {
	router, svc := newInventoryRouter(t)
	seedChicken(t, svc)

	w := doJSON(t, router, http.MethodGet, "/case-inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []ledger.ItemSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "CHIX", body.Data[0].ItemCode)
	assert.InDelta(t, 50.0, body.Data[0].TotalWeight, 1e-9)
}
