package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/service"
	"github.com/viznest/viznest-backend/internal/metrics"
)

type stubAuditor struct {
	mismatches []service.TotalMismatch
	err        error
	calls      int
}

func (s *stubAuditor) AuditTotals() ([]service.TotalMismatch, error) {
	s.calls++
	return s.mismatches, s.err
}

func newRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestOrderAudit_RunOnce(t *testing.T) {
	auditor := &stubAuditor{mismatches: []service.TotalMismatch{{OrderID: 3, StoredTotal: 1, ItemsTotal: 2}}}
	s := NewOrderAuditScheduler("0 3 * * *", auditor, metrics.NewJobMetrics(prometheus.NewRegistry()), nil)

	found, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, 1, auditor.calls)

	auditor.err = errors.New("db down")
	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestOrderAudit_SkipsWhenLockHeld(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()

	other := NewRedisLock(rdb, "viznest:lock:audit", time.Minute)
	ok, err := other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	auditor := &stubAuditor{}
	s := NewOrderAuditScheduler("0 3 * * *", auditor, nil, NewRedisLock(rdb, "viznest:lock:audit", time.Minute))

	found, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Equal(t, 0, auditor.calls)

	require.NoError(t, other.Release(ctx))
	_, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, auditor.calls)

	// released after the run
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderAudit_RejectsBadSchedule(t *testing.T) {
	s := NewOrderAuditScheduler("not a schedule", &stubAuditor{}, nil, nil)
	assert.Error(t, s.Start())
}
