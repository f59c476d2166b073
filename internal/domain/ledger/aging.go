// internal/domain/ledger/aging.go
package ledger

import (
	"context"
	"time"
)

// AgingBucket classifies an active lot by days since receipt
type AgingBucket string

const (
	BucketFresh AgingBucket = "FRESH"
	BucketAging AgingBucket = "AGING"
	BucketAged  AgingBucket = "AGED"
)

// AgedCase is one active lot with its aging classification
type AgedCase struct {
	CaseID            string      `json:"case_id"`
	ShortID           string      `json:"short_id"`
	ReceivedDate      time.Time   `json:"received_date"`
	RemainingQuantity float64     `json:"remaining_quantity"`
	AgeDays           int         `json:"age_days"`
	Bucket            AgingBucket `json:"bucket"`
}

// AgingReport classifies an item's active lots into aging buckets.
// OldestAge is nil when the item has no active lots.
type AgingReport struct {
	ItemCode      string              `json:"item_code"`
	AsOfDate      time.Time           `json:"as_of_date"`
	OldestAge     *int                `json:"oldest_age,omitempty"`
	NeedsRotation bool                `json:"needs_rotation"`
	Cases         []AgedCase          `json:"cases"`
	BucketCounts  map[AgingBucket]int `json:"bucket_counts"`
}

// bucketFor classifies an age in days using the configured thresholds
func (s *Service) bucketFor(ageDays int) AgingBucket {
	switch {
	case ageDays <= s.config.Ledger.FreshAgeDays:
		return BucketFresh
	case ageDays <= s.config.Ledger.AgingAgeDays:
		return BucketAging
	default:
		return BucketAged
	}
}

// AgingReport classifies the item's active lots by age as of the given
// date. USED lots never appear. The rotation alert fires when the oldest
// active lot is older than the configured rotation threshold.
func (s *Service) AgingReport(ctx context.Context, itemCode string, asOf time.Time) (*AgingReport, error) {
	item, err := s.repo.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	report := &AgingReport{
		ItemCode:     itemCode,
		AsOfDate:     asOf,
		Cases:        []AgedCase{},
		BucketCounts: map[AgingBucket]int{BucketFresh: 0, BucketAging: 0, BucketAged: 0},
	}

	for _, idx := range item.activeLots() {
		lot := &item.Lots[idx]
		age := lot.AgeDays(asOf)
		bucket := s.bucketFor(age)

		report.Cases = append(report.Cases, AgedCase{
			CaseID:            lot.CaseID,
			ShortID:           lot.ShortID,
			ReceivedDate:      lot.ReceivedDate,
			RemainingQuantity: lot.RemainingQuantity,
			AgeDays:           age,
			Bucket:            bucket,
		})
		report.BucketCounts[bucket]++

		// Lots are FIFO-ordered, so the first active lot is the oldest
		if report.OldestAge == nil {
			oldest := age
			report.OldestAge = &oldest
		}
	}

	if report.OldestAge != nil && *report.OldestAge > s.config.Ledger.RotationAlertDays {
		report.NeedsRotation = true
	}

	return report, nil
}
