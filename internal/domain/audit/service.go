// internal/domain/audit/service.go
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/allocation"
	"github.com/your-org/caseledger-backend/internal/domain/ledger"
)

// Severity classifies the size of a value discrepancy
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Root-cause tags. Each check is evaluated independently; findings are
// not mutually exclusive.
const (
	TagMissingPricing     = "missing_item_pricing"
	TagMissingLines       = "orders_without_lines"
	TagHeaderLineMismatch = "order_total_line_mismatch"
	TagOrderOnlyItems     = "items_only_in_orders"
	TagLedgerOnlyItems    = "items_only_in_ledger"
)

// Finding is one root-cause observation
type Finding struct {
	Tag         string   `json:"tag"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

// Recommendation is ranked advisory text; it is never applied
// automatically.
type Recommendation struct {
	Rank         int    `json:"rank"`
	Action       string `json:"action"`
	ExpectedGain string `json:"expected_gain"`
}

// Report compares total recorded order value against total ledger value
type Report struct {
	GeneratedAt        time.Time        `json:"generated_at"`
	OrdersTotal        decimal.Decimal  `json:"orders_total"`
	InventoryTotal     decimal.Decimal  `json:"inventory_total"`
	DiscrepancyPercent float64          `json:"discrepancy_percent"`
	Severity           Severity         `json:"severity"`
	OrderCount         int              `json:"order_count"`
	ItemCount          int              `json:"item_count"`
	Findings           []Finding        `json:"findings"`
	Recommendations    []Recommendation `json:"recommendations"`
}

// Service cross-audits order totals against ledger value. Its output is
// advisory only: it never blocks, retries, or corrects any operation.
type Service struct {
	orders allocation.Repository
	items  ledger.Repository
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new discrepancy auditor
func NewService(orders allocation.Repository, items ledger.Repository, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		orders: orders,
		items:  items,
		config: cfg,
		logger: logger,
	}
}

// Audit computes the discrepancy between recorded order value and ledger
// value, classifies its severity and proposes likely root causes.
func (s *Service) Audit(ctx context.Context) (*Report, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger items: %w", err)
	}

	report := &Report{
		GeneratedAt:    time.Now().UTC(),
		OrdersTotal:    ordersTotal(orders),
		InventoryTotal: inventoryTotal(items),
		OrderCount:     len(orders),
		ItemCount:      len(items),
		Findings:       []Finding{},
	}

	if report.OrdersTotal.IsPositive() {
		diff := report.OrdersTotal.Sub(report.InventoryTotal).Abs()
		pct, _ := diff.Div(report.OrdersTotal).Mul(decimal.NewFromInt(100)).Float64()
		report.DiscrepancyPercent = pct
	}
	report.Severity = s.classify(report.DiscrepancyPercent)

	s.runRootCauseChecks(report, orders, items)
	report.Recommendations = buildRecommendations(report.Findings)

	s.logger.WithFields(logrus.Fields{
		"orders_total":        report.OrdersTotal.String(),
		"inventory_total":     report.InventoryTotal.String(),
		"discrepancy_percent": report.DiscrepancyPercent,
		"severity":            report.Severity,
		"findings":            len(report.Findings),
	}).Info("Discrepancy audit completed")

	return report, nil
}

// ordersTotal sums non-credit order values and subtracts the absolute
// value of credit memos.
func ordersTotal(orders []*allocation.Order) decimal.Decimal {
	total := decimal.Zero
	for _, order := range orders {
		if order.IsCreditMemo {
			total = total.Sub(order.TotalValue.Abs())
		} else {
			total = total.Add(order.TotalValue)
		}
	}
	return total
}

// inventoryTotal values remaining stock of active lots at item unit price
func inventoryTotal(items []*ledger.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		for i := range item.Lots {
			lot := &item.Lots[i]
			if lot.Status == ledger.LotStatusUsed {
				continue
			}
			total = total.Add(decimal.NewFromFloat(lot.RemainingQuantity).Mul(item.UnitPrice))
		}
	}
	return total
}

func (s *Service) classify(pct float64) Severity {
	switch {
	case pct <= 5:
		return SeverityNormal
	case pct <= 15:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// runRootCauseChecks evaluates every heuristic independently
func (s *Service) runRootCauseChecks(report *Report, orders []*allocation.Order, items []*ledger.Item) {
	tolerance := decimal.NewFromFloat(s.config.Ledger.ValueTolerance)

	ledgerItems := make(map[string]*ledger.Item, len(items))
	var unpriced []string
	for _, item := range items {
		ledgerItems[item.ItemCode] = item
		if item.UnitPrice.IsZero() {
			unpriced = append(unpriced, item.ItemCode)
		}
	}

	if len(unpriced) > 0 {
		report.Findings = append(report.Findings, Finding{
			Tag:         TagMissingPricing,
			Description: fmt.Sprintf("%d ledger item(s) have no unit price, so their stock contributes nothing to inventory value", len(unpriced)),
			Examples:    clip(unpriced, 5),
		})
	}

	var withoutLines, mismatched []string
	orderedItems := make(map[string]bool)
	for _, order := range orders {
		if len(order.Lines) == 0 {
			withoutLines = append(withoutLines, order.OrderID)
			continue
		}
		summed := order.SummedLineTotal()
		if order.TotalValue.Sub(summed).Abs().GreaterThan(tolerance) {
			mismatched = append(mismatched, fmt.Sprintf("%s (header %s vs lines %s)",
				order.OrderID, order.TotalValue.String(), summed.String()))
		}
		for i := range order.Lines {
			orderedItems[order.Lines[i].ItemCode] = true
		}
	}

	if len(withoutLines) > 0 {
		report.Findings = append(report.Findings, Finding{
			Tag:         TagMissingLines,
			Description: fmt.Sprintf("%d order(s) carry a total value but no line-item breakdown", len(withoutLines)),
			Examples:    clip(withoutLines, 5),
		})
	}
	if len(mismatched) > 0 {
		report.Findings = append(report.Findings, Finding{
			Tag:         TagHeaderLineMismatch,
			Description: fmt.Sprintf("%d order(s) have totals that disagree with their summed line items beyond tolerance", len(mismatched)),
			Examples:    clip(mismatched, 5),
		})
	}

	var orderOnly, ledgerOnly []string
	for code := range orderedItems {
		if _, ok := ledgerItems[code]; !ok {
			orderOnly = append(orderOnly, code)
		}
	}
	for code := range ledgerItems {
		if !orderedItems[code] {
			ledgerOnly = append(ledgerOnly, code)
		}
	}
	sort.Strings(orderOnly)
	sort.Strings(ledgerOnly)

	if len(orderOnly) > 0 {
		report.Findings = append(report.Findings, Finding{
			Tag:         TagOrderOnlyItems,
			Description: fmt.Sprintf("%d item(s) appear in orders but are absent from the ledger", len(orderOnly)),
			Examples:    clip(orderOnly, 5),
		})
	}
	if len(ledgerOnly) > 0 {
		report.Findings = append(report.Findings, Finding{
			Tag:         TagLedgerOnlyItems,
			Description: fmt.Sprintf("%d ledger item(s) never appear on any order line", len(ledgerOnly)),
			Examples:    clip(ledgerOnly, 5),
		})
	}
}

// buildRecommendations ranks advisory follow-ups by likely impact
func buildRecommendations(findings []Finding) []Recommendation {
	gains := map[string]struct {
		action string
		gain   string
	}{
		TagMissingPricing:     {"Backfill unit prices for unpriced ledger items from recent invoices", "10-25% tighter inventory valuation"},
		TagMissingLines:       {"Re-ingest line-item breakdowns for orders recorded header-only", "5-20% better order/ledger matching"},
		TagHeaderLineMismatch: {"Review orders whose header totals disagree with summed lines", "2-10% reduction in value drift"},
		TagOrderOnlyItems:     {"Register ordered items missing from the ledger so received cases are tracked", "5-15% coverage improvement"},
		TagLedgerOnlyItems:    {"Verify ledger items that never appear on orders for stale or misfiled stock", "1-5% valuation cleanup"},
	}

	// Preserve heuristic evaluation order as the ranking
	recs := make([]Recommendation, 0, len(findings))
	for i, f := range findings {
		g, ok := gains[f.Tag]
		if !ok {
			continue
		}
		recs = append(recs, Recommendation{
			Rank:         i + 1,
			Action:       g.action,
			ExpectedGain: g.gain,
		})
	}
	return recs
}

func clip(values []string, max int) []string {
	if len(values) <= max {
		return values
	}
	return values[:max]
}
