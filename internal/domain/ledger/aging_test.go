// internal/domain/ledger/aging_test.go
package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgingReportBuckets(t *testing.T) {
	svc, _ := newTestService(t)
	seedItemX(t, svc)

	// As of 2024-01-25: L1 is 24 days old, L2 is 15, L3 is 5
	report, err := svc.AgingReport(context.Background(), "X", day("2024-01-25"))
	require.NoError(t, err)

	require.Len(t, report.Cases, 3)
	assert.Equal(t, BucketAging, report.Cases[0].Bucket)
	assert.Equal(t, BucketAging, report.Cases[1].Bucket)
	assert.Equal(t, BucketFresh, report.Cases[2].Bucket)

	assert.Equal(t, 1, report.BucketCounts[BucketFresh])
	assert.Equal(t, 2, report.BucketCounts[BucketAging])
	assert.Equal(t, 0, report.BucketCounts[BucketAged])

	require.NotNil(t, report.OldestAge)
	assert.Equal(t, 24, *report.OldestAge)
	assert.True(t, report.NeedsRotation)
}

func TestAgingReportBucketBoundaries(t *testing.T) {
	svc, _ := newTestService(t)
	seedItemX(t, svc)

	// Exactly at the fresh threshold: L1 is 14 days old on 2024-01-15
	report, err := svc.AgingReport(context.Background(), "X", day("2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, BucketFresh, report.Cases[0].Bucket)
	assert.False(t, report.NeedsRotation)

	// Past the aging threshold: L1 is 31 days old on 2024-02-01
	report, err = svc.AgingReport(context.Background(), "X", day("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, BucketAged, report.Cases[0].Bucket)
	assert.True(t, report.NeedsRotation)
}

func TestAgingReportSkipsUsedLots(t *testing.T) {
	svc, _ := newTestService(t)
	seedItemX(t, svc)

	// Exhaust L1 so only L2 and L3 remain active
	_, err := svc.Consume(context.Background(), "X", 30, "service")
	require.NoError(t, err)

	report, err := svc.AgingReport(context.Background(), "X", day("2024-01-25"))
	require.NoError(t, err)

	require.Len(t, report.Cases, 2)
	assert.Equal(t, "CASE-2024-L2", report.Cases[0].CaseID)
	require.NotNil(t, report.OldestAge)
	assert.Equal(t, 15, *report.OldestAge)
	assert.False(t, report.NeedsRotation)
}

func TestAgingReportEmptyItem(t *testing.T) {
	svc, _ := newTestService(t)
	seedItemX(t, svc)

	_, err := svc.Consume(context.Background(), "X", 75, "deep clean")
	require.NoError(t, err)

	report, err := svc.AgingReport(context.Background(), "X", day("2024-02-01"))
	require.NoError(t, err)

	assert.Empty(t, report.Cases)
	assert.Nil(t, report.OldestAge)
	assert.False(t, report.NeedsRotation)

	_, err = svc.AgingReport(context.Background(), "MISSING", day("2024-02-01"))
	assert.ErrorIs(t, err, ErrItemNotFound)
}
