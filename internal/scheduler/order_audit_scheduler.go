package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/viznest/viznest-backend/internal/app/service"
	"github.com/viznest/viznest-backend/internal/metrics"
	"github.com/viznest/viznest-backend/pkg/logger"
)

const orderAuditJob = "order_total_audit"

// TotalsAuditor is the part of the order service the audit needs
type TotalsAuditor interface {
	AuditTotals() ([]service.TotalMismatch, error)
}

// OrderAuditScheduler periodically compares stored order totals with the sum
// of their items. Mismatches are logged and exported, never corrected.
type OrderAuditScheduler struct {
	cron     *cron.Cron
	schedule string
	auditor  TotalsAuditor
	metrics  *metrics.JobMetrics
	lock     Lock
}

// NewOrderAuditScheduler builds the scheduler. jobMetrics and lock may be nil.
func NewOrderAuditScheduler(schedule string, auditor TotalsAuditor, jobMetrics *metrics.JobMetrics, lock Lock) *OrderAuditScheduler {
	return &OrderAuditScheduler{
		cron:     cron.New(),
		schedule: schedule,
		auditor:  auditor,
		metrics:  jobMetrics,
		lock:     lock,
	}
}

func (s *OrderAuditScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.Error("Scheduled order audit failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for order audit", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Order audit scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce runs a single audit and returns the mismatches found. It returns
// nil, nil when another instance holds the lock.
func (s *OrderAuditScheduler) RunOnce(ctx context.Context) ([]service.TotalMismatch, error) {
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			s.metrics.IncFailure(orderAuditJob)
			return nil, err
		}
		if !ok {
			logger.Debug("Order audit skipped: lock held elsewhere")
			return nil, nil
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				logger.Warn("Failed to release order audit lock", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	start := time.Now()
	mismatches, err := s.auditor.AuditTotals()
	s.metrics.ObserveDuration(orderAuditJob, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(orderAuditJob)
		return nil, err
	}

	s.metrics.IncSuccess(orderAuditJob)
	s.metrics.SetOrderTotalMismatches(len(mismatches))
	for _, m := range mismatches {
		logger.Warn("Order total does not match its items", map[string]interface{}{
			"order_id":     m.OrderID,
			"stored_total": m.StoredTotal,
			"items_total":  m.ItemsTotal,
		})
	}

	logger.Info("Order audit completed", map[string]interface{}{
		"mismatches": len(mismatches),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return mismatches, nil
}

func (s *OrderAuditScheduler) Stop() {
	logger.Info("Stopping order audit scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Order audit scheduler stopped")
}
