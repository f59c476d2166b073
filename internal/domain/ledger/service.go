// internal/domain/ledger/service.go
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caseledger-backend/internal/config"
)

// Service owns the case-level FIFO ledger. All mutating calls run a
// load -> mutate -> save cycle under a single mutex; the repository save
// happens before success is acknowledged, so a failed save leaves the
// stored document untouched.
type Service struct {
	repo   Repository
	config *config.Config
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewService creates a new ledger service
func NewService(repo Repository, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		config: cfg,
		logger: logger,
	}
}

// LotRecord is the validated ingestion contract for one received case.
// The ledger performs no parsing; malformed records reject the whole call.
type LotRecord struct {
	CaseID        string  `json:"case_id" binding:"required"`
	Weight        float64 `json:"weight" binding:"required"`
	InvoiceNumber string  `json:"invoice_number"`
	ReceivedDate  string  `json:"received_date" binding:"required"` // YYYY-MM-DD
}

// AddLotsRequest carries new lot records plus item metadata used when the
// item does not exist yet.
type AddLotsRequest struct {
	Description string          `json:"description"`
	Barcode     string          `json:"barcode"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Lots        []LotRecord     `json:"lots" binding:"required"`
}

// ConsumptionAction describes what happened to one lot during consumption
type ConsumptionAction struct {
	CaseID         string    `json:"case_id"`
	ShortID        string    `json:"short_id"`
	AmountUsed     float64   `json:"amount_used"`
	RemainingAfter float64   `json:"remaining_after"`
	Status         LotStatus `json:"status"`
}

// ConsumptionResult is the outcome of a FIFO consumption. Shortfall is a
// result value, not an error; callers decide how to treat backorders.
type ConsumptionResult struct {
	ItemCode      string              `json:"item_code"`
	Actions       []ConsumptionAction `json:"actions"`
	TotalConsumed float64             `json:"total_consumed"`
	Shortfall     float64             `json:"shortfall"`
	TotalCases    int                 `json:"total_cases"`
	TotalWeight   float64             `json:"total_weight"`
}

// ItemSummary is the aggregate view of one item
type ItemSummary struct {
	ItemCode       string     `json:"item_code"`
	Description    string     `json:"description"`
	Unit           string     `json:"unit"`
	TotalCases     int        `json:"total_cases"`
	TotalWeight    float64    `json:"total_weight"`
	OldestCaseDate *time.Time `json:"oldest_case_date,omitempty"`
	NewestCaseDate *time.Time `json:"newest_case_date,omitempty"`
}

// LotQuery filters the lot list returned by GetItem
type LotQuery struct {
	Limit         int
	Status        LotStatus
	InvoiceNumber string
}

// LotView is a lot annotated with its age for API responses
type LotView struct {
	Lot
	AgeDays int `json:"age_days"`
}

// ItemDetail is an item with filtered, age-annotated lots
type ItemDetail struct {
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalCases  int             `json:"total_cases"`
	TotalWeight float64         `json:"total_weight"`
	Lots        []LotView       `json:"lots"`
}

// AddLots inserts new lot records for an item, creating the item when it
// does not exist. Lots are re-sorted by received date and aggregates
// recomputed before the document is saved.
func (s *Service) AddLots(ctx context.Context, itemCode string, req *AddLotsRequest) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if itemCode == "" {
		return nil, &ValidationError{Problems: []string{"item code is required"}}
	}

	item, err := s.repo.GetItem(ctx, itemCode)
	if err == ErrItemNotFound {
		item = &Item{
			ItemCode:    itemCode,
			Description: req.Description,
			Barcode:     req.Barcode,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
		}
		if item.Unit == "" {
			item.Unit = "kg"
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", itemCode, err)
	}

	lots, problems := buildLots(item, req.Lots)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	item.Lots = append(item.Lots, lots...)
	item.sortLots()
	item.recompute()

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemCode, err)
	}

	s.logger.WithFields(logrus.Fields{
		"item_code":    itemCode,
		"lots_added":   len(lots),
		"total_cases":  item.TotalCases,
		"total_weight": item.TotalWeight,
	}).Info("Lots added to ledger")

	return item, nil
}

// buildLots validates raw records and converts them to lots. Validation is
// atomic: any bad record rejects the whole batch.
func buildLots(item *Item, records []LotRecord) ([]Lot, []string) {
	var lots []Lot
	var problems []string

	seen := make(map[string]bool)
	for idx := range item.Lots {
		seen[item.Lots[idx].CaseID] = true
	}

	for i, rec := range records {
		if rec.CaseID == "" {
			problems = append(problems, fmt.Sprintf("record %d: case id is required", i))
			continue
		}
		if seen[rec.CaseID] {
			problems = append(problems, fmt.Sprintf("record %d: duplicate case id %s", i, rec.CaseID))
			continue
		}
		if rec.Weight <= 0 {
			problems = append(problems, fmt.Sprintf("record %d (%s): weight must be positive", i, rec.CaseID))
			continue
		}
		received, err := time.Parse("2006-01-02", rec.ReceivedDate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("record %d (%s): invalid received date %q", i, rec.CaseID, rec.ReceivedDate))
			continue
		}

		seen[rec.CaseID] = true
		lots = append(lots, Lot{
			CaseID:            rec.CaseID,
			ShortID:           shortCaseID(rec.CaseID),
			Weight:            rec.Weight,
			RemainingQuantity: rec.Weight,
			ReceivedDate:      received,
			SourceInvoice:     rec.InvoiceNumber,
			Status:            LotStatusInStock,
		})
	}

	return lots, problems
}

// Consume deducts quantity from the item's lots oldest-first. Lots are
// fully used before any newer lot is touched; a partially used lot stops
// the walk. Insufficient stock is returned as Shortfall, not an error.
// The full plan commits in one save or not at all.
func (s *Service) Consume(ctx context.Context, itemCode string, quantity float64, reason string) (*ConsumptionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.repo.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	needed := quantity
	result := &ConsumptionResult{ItemCode: itemCode}

	for _, idx := range item.activeLots() {
		if needed <= 0 {
			break
		}
		lot := &item.Lots[idx]

		used := lot.RemainingQuantity
		if used > needed {
			used = needed
		}

		lot.RemainingQuantity -= used
		needed -= used
		if lot.RemainingQuantity <= 0 {
			lot.RemainingQuantity = 0
			lot.Status = LotStatusUsed
		} else {
			lot.Status = LotStatusPartial
		}

		lot.UsageHistory = append(lot.UsageHistory, UsageEvent{
			ID:             uuid.NewString(),
			Date:           now,
			AmountUsed:     used,
			RemainingAfter: lot.RemainingQuantity,
			Reason:         reason,
		})

		result.Actions = append(result.Actions, ConsumptionAction{
			CaseID:         lot.CaseID,
			ShortID:        lot.ShortID,
			AmountUsed:     used,
			RemainingAfter: lot.RemainingQuantity,
			Status:         lot.Status,
		})
		result.TotalConsumed += used
	}

	result.Shortfall = needed
	item.recompute()
	result.TotalCases = item.TotalCases
	result.TotalWeight = item.TotalWeight

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemCode, err)
	}

	entry := s.logger.WithFields(logrus.Fields{
		"item_code":      itemCode,
		"requested":      quantity,
		"total_consumed": result.TotalConsumed,
		"shortfall":      result.Shortfall,
		"reason":         reason,
	})
	if result.Shortfall > 0 {
		entry.Warn("Consumption completed with shortfall")
	} else {
		entry.Info("Consumption completed")
	}

	return result, nil
}

// ListItems returns aggregate summaries for every item in the ledger
func (s *Service) ListItems(ctx context.Context) ([]ItemSummary, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, ItemSummary{
			ItemCode:       item.ItemCode,
			Description:    item.Description,
			Unit:           item.Unit,
			TotalCases:     item.TotalCases,
			TotalWeight:    item.TotalWeight,
			OldestCaseDate: item.OldestCaseDate(),
			NewestCaseDate: item.NewestCaseDate(),
		})
	}
	return summaries, nil
}

// GetItem returns an item with its lots filtered by query and annotated
// with age in days.
func (s *Service) GetItem(ctx context.Context, itemCode string, query LotQuery) (*ItemDetail, error) {
	item, err := s.repo.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	detail := &ItemDetail{
		ItemCode:    item.ItemCode,
		Description: item.Description,
		Unit:        item.Unit,
		UnitPrice:   item.UnitPrice,
		TotalCases:  item.TotalCases,
		TotalWeight: item.TotalWeight,
		Lots:        []LotView{},
	}

	for idx := range item.Lots {
		lot := item.Lots[idx]
		if query.Status != "" && lot.Status != query.Status {
			continue
		}
		if query.InvoiceNumber != "" && lot.SourceInvoice != query.InvoiceNumber {
			continue
		}
		detail.Lots = append(detail.Lots, LotView{Lot: lot, AgeDays: lot.AgeDays(now)})
		if query.Limit > 0 && len(detail.Lots) >= query.Limit {
			break
		}
	}

	return detail, nil
}

// CountHistory returns the item's reconciliation snapshots, newest first
func (s *Service) CountHistory(ctx context.Context, itemCode string) ([]CountSnapshot, error) {
	item, err := s.repo.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	history := make([]CountSnapshot, len(item.CountHistory))
	for i := range item.CountHistory {
		history[i] = item.CountHistory[len(item.CountHistory)-1-i]
	}
	return history, nil
}
