package cron

import (
	"context"
	"time"

	"consultbot/services/booking"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartReconciler runs booking/calendar reconciliation on spec (standard cron
// syntax or descriptors such as "@every 30m"). Stop the returned cron to halt it.
func StartReconciler(svc *booking.Service, spec string, grace, timeout time.Duration, loc *time.Location, logger *zap.Logger) (*robfig.Cron, error) {
	c := robfig.New(robfig.WithLocation(loc), robfig.WithChain(robfig.SkipIfStillRunning(robfig.DefaultLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := svc.Reconcile(ctx, grace); err != nil {
			logger.Error("[Reconciler] Reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("[Reconciler] Scheduled", zap.String("spec", spec))
	return c, nil
}
