// internal/domain/ledger/entity.go
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus represents the lifecycle state of a received case
type LotStatus string

const (
	LotStatusInStock LotStatus = "IN_STOCK"
	LotStatusPartial LotStatus = "PARTIAL"
	LotStatusUsed    LotStatus = "USED"
)

// Usage reasons recorded on lot history
const (
	ReasonPhysicalCountAdjustment = "PHYSICAL_COUNT_ADJUSTMENT"
)

// Item represents one tracked inventory item and its received cases
type Item struct {
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Barcode     string          `json:"barcode,omitempty"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`

	// Lots are kept sorted ascending by received date; ties keep
	// insertion order. FIFO consumption walks this slice in order.
	Lots []Lot `json:"lots"`

	// Derived aggregates over non-USED lots
	TotalCases  int     `json:"total_cases"`
	TotalWeight float64 `json:"total_weight"`

	CountHistory []CountSnapshot `json:"count_history,omitempty"`
}

// Lot represents a single received case of an item
type Lot struct {
	CaseID            string    `json:"case_id"`
	ShortID           string    `json:"short_id"`
	Weight            float64   `json:"weight"`
	RemainingQuantity float64   `json:"remaining_quantity"`
	ReceivedDate      time.Time `json:"received_date"`
	SourceInvoice     string    `json:"source_invoice"`
	Status            LotStatus `json:"status"`

	// UsageHistory is append-only
	UsageHistory      []UsageEvent     `json:"usage_history,omitempty"`
	LastPhysicalCount *time.Time       `json:"last_physical_count,omitempty"`
	CountExclusions   []CountExclusion `json:"count_exclusions,omitempty"`
}

// UsageEvent records a single deduction from a lot
type UsageEvent struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	AmountUsed     float64   `json:"amount_used"`
	RemainingAfter float64   `json:"remaining_after"`
	Reason         string    `json:"reason"`
}

// CountExclusion annotates a lot that was excluded from a physical count
// because it was received after the cutoff date. Annotation only, the lot
// itself is not touched.
type CountExclusion struct {
	CountDate  time.Time `json:"count_date"`
	CutoffDate time.Time `json:"cutoff_date"`
	Note       string    `json:"note,omitempty"`
}

// CountSnapshot is an immutable record appended to an item's history on
// every reconciliation.
type CountSnapshot struct {
	ID               string    `json:"id"`
	CountDate        time.Time `json:"count_date"`
	CutoffDate       time.Time `json:"cutoff_date"`
	PeopleOnSite     int       `json:"people_on_site,omitempty"`
	CasesCounted     int       `json:"cases_counted"`
	EligibleLotCount int       `json:"eligible_lot_count"`
	ExcludedLotCount int       `json:"excluded_lot_count"`
	TotalCases       int       `json:"total_cases"`
	TotalWeight      float64   `json:"total_weight"`
	Notes            string    `json:"notes,omitempty"`
}

// IsActive reports whether the lot still holds stock
func (l *Lot) IsActive() bool {
	return l.Status != LotStatusUsed
}

// AgeDays returns whole days elapsed since the lot was received
func (l *Lot) AgeDays(asOf time.Time) int {
	return int(asOf.Sub(l.ReceivedDate).Hours() / 24)
}

// shortCaseID derives the display id from a full case identifier
func shortCaseID(caseID string) string {
	if len(caseID) <= 8 {
		return caseID
	}
	return caseID[len(caseID)-8:]
}

// sortLots keeps lots ordered ascending by received date. The sort is
// stable so equal dates keep their insertion order.
func (i *Item) sortLots() {
	sort.SliceStable(i.Lots, func(a, b int) bool {
		return i.Lots[a].ReceivedDate.Before(i.Lots[b].ReceivedDate)
	})
}

// recompute refreshes the derived aggregates from non-USED lots
func (i *Item) recompute() {
	totalCases := 0
	totalWeight := 0.0
	for idx := range i.Lots {
		if i.Lots[idx].IsActive() {
			totalCases++
			totalWeight += i.Lots[idx].RemainingQuantity
		}
	}
	i.TotalCases = totalCases
	i.TotalWeight = totalWeight
}

// activeLots returns indexes of non-USED lots in FIFO order
func (i *Item) activeLots() []int {
	var idxs []int
	for idx := range i.Lots {
		if i.Lots[idx].IsActive() {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// findLot returns the index of the lot whose case id or short id matches,
// or -1 when no lot matches.
func (i *Item) findLot(id string) int {
	for idx := range i.Lots {
		if i.Lots[idx].CaseID == id || i.Lots[idx].ShortID == id {
			return idx
		}
	}
	return -1
}

// OldestCaseDate returns the earliest received date among active lots
func (i *Item) OldestCaseDate() *time.Time {
	for idx := range i.Lots {
		if i.Lots[idx].IsActive() {
			d := i.Lots[idx].ReceivedDate
			return &d
		}
	}
	return nil
}

// NewestCaseDate returns the latest received date among active lots
func (i *Item) NewestCaseDate() *time.Time {
	for idx := len(i.Lots) - 1; idx >= 0; idx-- {
		if i.Lots[idx].IsActive() {
			d := i.Lots[idx].ReceivedDate
			return &d
		}
	}
	return nil
}
