// internal/domain/ledger/reconcile_test.go
package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReconcileOverridesComputedState(t *testing.T) {
	svc, repo := newTestService(t)
	seedItemX(t, svc)

	// Counted L2 and L3; L1 was not found on the floor
	result, err := svc.Reconcile(context.Background(), "X", &ReconcileRequest{
		CountedCaseIDs: []string{"CASE-2024-L2", "CASE-2024-L3"},
		CountDate:      day("2024-01-21"),
		CutoffDate:     day("2024-01-20"),
		PeopleOnSite:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"CASE-2024-L2", "CASE-2024-L3"}, result.RestoredCases)
	assert.Equal(t, []string{"CASE-2024-L1"}, result.RemovedCases)
	assert.Equal(t, 3, result.EligibleLotCount)
	assert.Equal(t, 0, result.ExcludedLotCount)
	assert.Equal(t, 2, result.TotalCases)
	assert.InDelta(t, 45.0, result.TotalWeight, 1e-9)

	item, err := repo.GetItem(context.Background(), "X")
	require.NoError(t, err)

	assert.Equal(t, LotStatusUsed, item.Lots[0].Status)
	assert.InDelta(t, 0.0, item.Lots[0].RemainingQuantity, 1e-9)
	assert.Equal(t, LotStatusInStock, item.Lots[1].Status)
	assert.InDelta(t, 20.0, item.Lots[1].RemainingQuantity, 1e-9)
	assertConservation(t, item)

	// Removal leaves an adjustment event on the missing lot
	require.NotEmpty(t, item.Lots[0].UsageHistory)
	last := item.Lots[0].UsageHistory[len(item.Lots[0].UsageHistory)-1]
	assert.Contains(t, last.Reason, ReasonPhysicalCountAdjustment)

	// Counted lots got a physical count stamp
	require.NotNil(t, item.Lots[1].LastPhysicalCount)
	assert.Equal(t, "2024-01-21", item.Lots[1].LastPhysicalCount.Format("2006-01-02"))

	// Snapshot was appended to the item's history
	require.Len(t, item.CountHistory, 1)
	assert.Equal(t, 2, item.CountHistory[0].CasesCounted)
}

func TestReconcileRestoresPartiallyUsedLots(t *testing.T) {
	svc, repo := newTestService(t)
	seedItemX(t, svc)

	_, err := svc.Consume(context.Background(), "X", 35, "service")
	require.NoError(t, err)

	// The count finds every case intact; physical reality wins
	result, err := svc.Reconcile(context.Background(), "X", &ReconcileRequest{
		CountedCaseIDs: []string{"CASE-2024-L1", "CASE-2024-L2", "CASE-2024-L3"},
		CountDate:      day("2024-01-21"),
		CutoffDate:     day("2024-01-20"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCases)
	assert.InDelta(t, 75.0, result.TotalWeight, 1e-9)

	item, err := repo.GetItem(context.Background(), "X")
	require.NoError(t, err)
	for i := range item.Lots {
		assert.Equal(t, LotStatusInStock, item.Lots[i].Status)
		assert.InDelta(t, item.Lots[i].Weight, item.Lots[i].RemainingQuantity, 1e-9)
	}
	assertConservation(t, item)
}

func TestReconcileLeavesExcludedLotsUntouched(t *testing.T) {
	svc, repo := newTestService(t)
	seedItemX(t, svc)

	// Cutoff before L3's receipt: L3 is excluded from this count
	result, err := svc.Reconcile(context.Background(), "X", &ReconcileRequest{
		CountedCaseIDs: []string{"CASE-2024-L1"},
		CountDate:      day("2024-01-16"),
		CutoffDate:     day("2024-01-15"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.EligibleLotCount)
	assert.Equal(t, 1, result.ExcludedLotCount)
	assert.Equal(t, []string{"CASE-2024-L1"}, result.RestoredCases)
	assert.Equal(t, []string{"CASE-2024-L2"}, result.RemovedCases)

	// Item aggregates still cover all active lots, excluded L3 included
	assert.Equal(t, 2, result.TotalCases)
	assert.InDelta(t, 55.0, result.TotalWeight, 1e-9)

	// The snapshot only counts eligible stock
	assert.Equal(t, 1, result.Snapshot.TotalCases)
	assert.InDelta(t, 30.0, result.Snapshot.TotalWeight, 1e-9)

	item, err := repo.GetItem(context.Background(), "X")
	require.NoError(t, err)

	l3 := item.Lots[2]
	assert.Equal(t, LotStatusInStock, l3.Status)
	assert.InDelta(t, 25.0, l3.RemainingQuantity, 1e-9)
	assert.Nil(t, l3.LastPhysicalCount)
	require.Len(t, l3.CountExclusions, 1)
	assert.Equal(t, "2024-01-15", l3.CountExclusions[0].CutoffDate.Format("2006-01-02"))
	assertConservation(t, item)
}

func TestReconcileRejectsCountedLotsPastCutoff(t *testing.T) {
	svc, repo := newTestService(t)
	seedItemX(t, svc)

	before, err := repo.GetItem(context.Background(), "X")
	require.NoError(t, err)

	// L3 was received after the cutoff but appears in the count
	_, err = svc.Reconcile(context.Background(), "X", &ReconcileRequest{
		CountedCaseIDs: []string{"CASE-2024-L1", "CASE-2024-L3"},
		CountDate:      day("2024-01-16"),
		CutoffDate:     day("2024-01-15"),
	})

	var cvErr *CutoffViolationError
	require.ErrorAs(t, err, &cvErr)
	require.Len(t, cvErr.Violations, 1)
	assert.Equal(t, "CASE-2024-L3", cvErr.Violations[0].CaseID)

	// The rejection mutated nothing
	after, err := repo.GetItem(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReconcileMatchesShortIDs(t *testing.T) {
	svc, _ := newTestService(t)
	seedItemX(t, svc)

	result, err := svc.Reconcile(context.Background(), "X", &ReconcileRequest{
		CountedCaseIDs: []string{"-2024-L1", "NOT-A-CASE"},
		CountDate:      day("2024-01-21"),
		CutoffDate:     day("2024-01-20"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"CASE-2024-L1"}, result.RestoredCases)
	assert.Equal(t, []string{"NOT-A-CASE"}, result.UnmatchedIDs)
}

func TestReconcileIsIdempotentOnAggregates(t *testing.T) {
	svc, repo := newTestService(t)
	seedItemX(t, svc)

	req := &ReconcileRequest{
		CountedCaseIDs: []string{"CASE-2024-L2", "CASE-2024-L3"},
		CountDate:      day("2024-01-21"),
		CutoffDate:     day("2024-01-20"),
	}

	first, err := svc.Reconcile(context.Background(), "X", req)
	require.NoError(t, err)
	second, err := svc.Reconcile(context.Background(), "X", req)
	require.NoError(t, err)

	assert.Equal(t, first.TotalCases, second.TotalCases)
	assert.InDelta(t, first.TotalWeight, second.TotalWeight, 1e-9)
	assert.Equal(t, first.RestoredCases, second.RestoredCases)

	// Already-USED lots are not reported as removed again
	assert.Empty(t, second.RemovedCases)

	// Each run still appends its own snapshot
	item, err := repo.GetItem(context.Background(), "X")
	require.NoError(t, err)
	assert.Len(t, item.CountHistory, 2)
}

func TestCountHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	seedItemX(t, svc)

	for _, d := range []string{"2024-01-21", "2024-02-21"} {
		_, err := svc.Reconcile(context.Background(), "X", &ReconcileRequest{
			CountedCaseIDs: []string{"CASE-2024-L1", "CASE-2024-L2", "CASE-2024-L3"},
			CountDate:      day(d),
			CutoffDate:     day(d),
		})
		require.NoError(t, err)
	}

	history, err := svc.CountHistory(context.Background(), "X")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-02-21", history[0].CountDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-21", history[1].CountDate.Format("2006-01-02"))
}
