// internal/domain/ledger/reconcile.go
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReconcileRequest carries a physical count for one item. Counted ids may
// be full case ids or short display ids.
type ReconcileRequest struct {
	CountedCaseIDs []string
	CountDate      time.Time
	CutoffDate     time.Time
	PeopleOnSite   int
	Notes          string
}

// CountResult is the outcome of a reconciliation
type CountResult struct {
	ItemCode         string        `json:"item_code"`
	CountDate        time.Time     `json:"count_date"`
	CutoffDate       time.Time     `json:"cutoff_date"`
	CasesCounted     int           `json:"cases_counted"`
	EligibleLotCount int           `json:"eligible_lot_count"`
	ExcludedLotCount int           `json:"excluded_lot_count"`
	RestoredCases    []string      `json:"restored_cases"`
	RemovedCases     []string      `json:"removed_cases"`
	UnmatchedIDs     []string      `json:"unmatched_ids,omitempty"`
	TotalCases       int           `json:"total_cases"`
	TotalWeight      float64       `json:"total_weight"`
	Snapshot         CountSnapshot `json:"snapshot"`
}

// Reconcile overwrites ledger truth with a human physical count. Physical
// reality always wins over computed FIFO state: a counted lot is restored
// to full IN_STOCK even if it had partial-use history (that history is
// superseded, a known tradeoff), and an uncounted eligible lot is forced
// to USED. Lots received after the cutoff date are untouched, annotated
// only. Re-running the identical call yields identical aggregates.
func (s *Service) Reconcile(ctx context.Context, itemCode string, req *ReconcileRequest) (*CountResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.repo.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	// Resolve counted ids up front; ids pointing at lots received after
	// the cutoff reject the entire call before any mutation.
	counted := make(map[int]bool)
	var unmatched []string
	var violations []CutoffViolation

	for _, id := range req.CountedCaseIDs {
		idx := item.findLot(id)
		if idx < 0 {
			unmatched = append(unmatched, id)
			continue
		}
		if item.Lots[idx].ReceivedDate.After(req.CutoffDate) {
			violations = append(violations, CutoffViolation{
				CaseID:       item.Lots[idx].CaseID,
				ReceivedDate: item.Lots[idx].ReceivedDate,
			})
			continue
		}
		counted[idx] = true
	}

	if len(violations) > 0 {
		return nil, &CutoffViolationError{CutoffDate: req.CutoffDate, Violations: violations}
	}

	result := &CountResult{
		ItemCode:      itemCode,
		CountDate:     req.CountDate,
		CutoffDate:    req.CutoffDate,
		CasesCounted:  len(req.CountedCaseIDs),
		RestoredCases: []string{},
		RemovedCases:  []string{},
		UnmatchedIDs:  unmatched,
	}

	eligibleCases := 0
	eligibleWeight := 0.0
	countDate := req.CountDate

	for idx := range item.Lots {
		lot := &item.Lots[idx]

		if lot.ReceivedDate.After(req.CutoffDate) {
			// Excluded from the count: annotate, never mutate state
			result.ExcludedLotCount++
			lot.CountExclusions = append(lot.CountExclusions, CountExclusion{
				CountDate:  countDate,
				CutoffDate: req.CutoffDate,
				Note:       req.Notes,
			})
			continue
		}

		result.EligibleLotCount++

		if counted[idx] {
			// Physically present: restore to full stock
			lot.Status = LotStatusInStock
			lot.RemainingQuantity = lot.Weight
			stamp := countDate
			lot.LastPhysicalCount = &stamp
			result.RestoredCases = append(result.RestoredCases, lot.CaseID)
			eligibleCases++
			eligibleWeight += lot.RemainingQuantity
		} else {
			// Not found on the floor: force used
			if lot.Status != LotStatusUsed {
				result.RemovedCases = append(result.RemovedCases, lot.CaseID)
			}
			lot.Status = LotStatusUsed
			lot.RemainingQuantity = 0
			lot.UsageHistory = append(lot.UsageHistory, UsageEvent{
				ID:             uuid.NewString(),
				Date:           countDate,
				AmountUsed:     0,
				RemainingAfter: 0,
				Reason: fmt.Sprintf("%s count=%s cutoff=%s",
					ReasonPhysicalCountAdjustment,
					req.CountDate.Format("2006-01-02"),
					req.CutoffDate.Format("2006-01-02")),
			})
		}
	}

	// Aggregates come from eligible lots only; excluded lots keep their
	// stock but do not enter this count's totals.
	item.recompute()
	result.TotalCases = item.TotalCases
	result.TotalWeight = item.TotalWeight

	snapshot := CountSnapshot{
		ID:               uuid.NewString(),
		CountDate:        req.CountDate,
		CutoffDate:       req.CutoffDate,
		PeopleOnSite:     req.PeopleOnSite,
		CasesCounted:     len(req.CountedCaseIDs),
		EligibleLotCount: result.EligibleLotCount,
		ExcludedLotCount: result.ExcludedLotCount,
		TotalCases:       eligibleCases,
		TotalWeight:      eligibleWeight,
		Notes:            req.Notes,
	}
	item.CountHistory = append(item.CountHistory, snapshot)
	result.Snapshot = snapshot

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemCode, err)
	}

	s.logger.WithFields(logrus.Fields{
		"item_code":     itemCode,
		"count_date":    req.CountDate.Format("2006-01-02"),
		"cutoff_date":   req.CutoffDate.Format("2006-01-02"),
		"restored":      len(result.RestoredCases),
		"removed":       len(result.RemovedCases),
		"excluded_lots": result.ExcludedLotCount,
		"total_weight":  result.TotalWeight,
	}).Info("Physical count reconciled")

	return result, nil
}
