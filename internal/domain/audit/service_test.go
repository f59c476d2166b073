// internal/domain/audit/service_test.go
package audit

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/allocation"
	"github.com/your-org/caseledger-backend/internal/domain/ledger"
)

func newTestService(t *testing.T) (*Service, *allocation.MemoryRepository, *ledger.MemoryRepository) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		Ledger: config.LedgerConfig{ValueTolerance: 0.01},
	}
	orders := allocation.NewMemoryRepository()
	items := ledger.NewMemoryRepository()
	return NewService(orders, items, cfg, logger), orders, items
}

func saveOrder(t *testing.T, repo *allocation.MemoryRepository, order *allocation.Order) {
	t.Helper()
	require.NoError(t, repo.SaveOrder(context.Background(), order))
}

func saveItem(t *testing.T, repo *ledger.MemoryRepository, item *ledger.Item) {
	t.Helper()
	require.NoError(t, repo.SaveItem(context.Background(), item))
}

// stockItem builds a ledger item with a single in-stock lot
func stockItem(code string, unitPrice decimal.Decimal, remaining float64) *ledger.Item {
	item := &ledger.Item{
		ItemCode:  code,
		Unit:      "kg",
		UnitPrice: unitPrice,
		Lots: []ledger.Lot{{
			CaseID:            "CASE-" + code,
			Weight:            remaining,
			RemainingQuantity: remaining,
			ReceivedDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:            ledger.LotStatusInStock,
		}},
	}
	return item
}

func TestAuditCriticalDiscrepancy(t *testing.T) {
	svc, orders, items := newTestService(t)

	saveOrder(t, orders, &allocation.Order{
		OrderID:    "BIG-ORDER",
		TotalValue: decimal.NewFromFloat(1091346.55),
		Status:     allocation.StatusPending,
	})
	// 650 units at 1000 each values the ledger at 650,000
	saveItem(t, items, stockItem("CHIX", decimal.NewFromInt(1000), 650))

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)

	assert.True(t, report.OrdersTotal.Equal(decimal.NewFromFloat(1091346.55)))
	assert.True(t, report.InventoryTotal.Equal(decimal.NewFromInt(650000)))
	assert.InDelta(t, 40.44, report.DiscrepancyPercent, 0.01)
	assert.Equal(t, SeverityCritical, report.Severity)
	assert.Equal(t, 1, report.OrderCount)
	assert.Equal(t, 1, report.ItemCount)
}

func TestAuditSeverityBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		ordersTotal float64
		want        Severity
	}{
		{"exact match", 1000, SeverityNormal},
		{"five percent", 1052.63, SeverityNormal},
		{"ten percent", 1111.11, SeverityWarning},
		{"thirty percent", 1428.57, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, orders, items := newTestService(t)

			saveOrder(t, orders, &allocation.Order{
				OrderID:    "O1",
				TotalValue: decimal.NewFromFloat(tt.ordersTotal),
				Status:     allocation.StatusPending,
			})
			saveItem(t, items, stockItem("A", decimal.NewFromInt(10), 100))

			report, err := svc.Audit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Severity)
		})
	}
}

func TestAuditSubtractsCreditMemos(t *testing.T) {
	svc, orders, items := newTestService(t)

	saveOrder(t, orders, &allocation.Order{
		OrderID:    "O1",
		TotalValue: decimal.NewFromInt(1500),
		Status:     allocation.StatusPending,
	})
	// Credit memos reduce the orders total by their absolute value,
	// regardless of the sign they were recorded with.
	saveOrder(t, orders, &allocation.Order{
		OrderID:      "CM-1",
		TotalValue:   decimal.NewFromInt(-300),
		IsCreditMemo: true,
		Status:       allocation.StatusPending,
	})
	saveOrder(t, orders, &allocation.Order{
		OrderID:      "CM-2",
		TotalValue:   decimal.NewFromInt(200),
		IsCreditMemo: true,
		Status:       allocation.StatusPending,
	})
	saveItem(t, items, stockItem("A", decimal.NewFromInt(10), 100))

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OrdersTotal.Equal(decimal.NewFromInt(1000)), "got %s", report.OrdersTotal)
	assert.Equal(t, SeverityNormal, report.Severity)
}

func TestAuditIgnoresUsedLotsInInventoryTotal(t *testing.T) {
	svc, _, items := newTestService(t)

	item := stockItem("A", decimal.NewFromInt(10), 40)
	item.Lots = append(item.Lots, ledger.Lot{
		CaseID:            "CASE-A-USED",
		Weight:            30,
		RemainingQuantity: 0,
		ReceivedDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Status:            ledger.LotStatusUsed,
	})
	item.Lots = append(item.Lots, ledger.Lot{
		CaseID:            "CASE-A-PART",
		Weight:            20,
		RemainingQuantity: 5,
		ReceivedDate:      time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Status:            ledger.LotStatusPartial,
	})
	saveItem(t, items, item)

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.InventoryTotal.Equal(decimal.NewFromInt(450)), "got %s", report.InventoryTotal)
}

func TestAuditRootCauseChecksAreIndependent(t *testing.T) {
	svc, orders, items := newTestService(t)

	// Header-only order
	saveOrder(t, orders, &allocation.Order{
		OrderID:    "HEADER-ONLY",
		TotalValue: decimal.NewFromInt(500),
		Status:     allocation.StatusPending,
	})
	// Header disagrees with its summed lines, and orders an unknown item
	saveOrder(t, orders, &allocation.Order{
		OrderID:    "MISMATCH",
		TotalValue: decimal.NewFromInt(1000),
		Status:     allocation.StatusPending,
		Lines: []allocation.OrderLine{{
			ItemCode:  "GHOST",
			Quantity:  10,
			UnitPrice: decimal.NewFromInt(30),
			LineTotal: decimal.NewFromInt(300),
		}},
	})
	// Unpriced ledger item that never appears on any order
	saveItem(t, items, stockItem("ORPHAN", decimal.Zero, 50))

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)

	tags := make(map[string]Finding)
	for _, f := range report.Findings {
		tags[f.Tag] = f
	}

	require.Len(t, report.Findings, 5)
	assert.Contains(t, tags, TagMissingPricing)
	assert.Contains(t, tags, TagMissingLines)
	assert.Contains(t, tags, TagHeaderLineMismatch)
	assert.Contains(t, tags, TagOrderOnlyItems)
	assert.Contains(t, tags, TagLedgerOnlyItems)

	assert.Equal(t, []string{"HEADER-ONLY"}, tags[TagMissingLines].Examples)
	assert.Equal(t, []string{"GHOST"}, tags[TagOrderOnlyItems].Examples)
	assert.Equal(t, []string{"ORPHAN"}, tags[TagLedgerOnlyItems].Examples)

	// Recommendations mirror the findings and keep their ranking order
	require.Len(t, report.Recommendations, 5)
	for i, rec := range report.Recommendations {
		assert.Equal(t, i+1, rec.Rank)
		assert.NotEmpty(t, rec.Action)
		assert.NotEmpty(t, rec.ExpectedGain)
	}
}

func TestAuditCleanBooksProduceNoFindings(t *testing.T) {
	svc, orders, items := newTestService(t)

	saveOrder(t, orders, &allocation.Order{
		OrderID:    "O1",
		TotalValue: decimal.NewFromInt(1000),
		Status:     allocation.StatusPending,
		Lines: []allocation.OrderLine{{
			ItemCode:  "A",
			Quantity:  100,
			UnitPrice: decimal.NewFromInt(10),
			LineTotal: decimal.NewFromInt(1000),
		}},
	})
	saveItem(t, items, stockItem("A", decimal.NewFromInt(10), 100))

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SeverityNormal, report.Severity)
	assert.Empty(t, report.Findings)
	assert.Empty(t, report.Recommendations)
}

func TestAuditEmptyBooks(t *testing.T) {
	svc, _, _ := newTestService(t)

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)

	assert.True(t, report.OrdersTotal.IsZero())
	assert.True(t, report.InventoryTotal.IsZero())
	assert.InDelta(t, 0.0, report.DiscrepancyPercent, 1e-9)
	assert.Equal(t, SeverityNormal, report.Severity)
}
