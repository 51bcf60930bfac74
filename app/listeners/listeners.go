// Package listeners reacts to domain events published by the services.
package listeners

import (
	"context"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/pkg/event"
	"github.com/scholarstream/scholarstream/pkg/logger"
	"github.com/scholarstream/scholarstream/pkg/metrics"
)

// Register subscribes every listener to bus. gateway labels payment
// counters.
func Register(bus *event.Bus, gateway string) {
	bus.Listen(event.ApplicationSubmitted, applicationSubmitted)
	bus.Listen(event.ApplicationStatus, applicationStatus)
	bus.Listen(event.ReviewSubmitted, reviewSubmitted)
	bus.Listen(event.PaymentCompleted, paymentCompleted(gateway))
}

func applicationSubmitted(ctx context.Context, e event.Event) {
	a, ok := e.Payload.(models.Application)
	if !ok {
		return
	}
	metrics.ApplicationsSubmitted.Inc()
	logger.WithCtx(ctx).Info("application submitted",
		"application_id", a.ID.Hex(),
		"scholarship_id", a.ScholarshipID,
		"student", a.StudentEmail,
	)
}

func applicationStatus(ctx context.Context, e event.Event) {
	a, ok := e.Payload.(models.Application)
	if !ok {
		return
	}
	logger.WithCtx(ctx).Info("application reviewed",
		"application_id", a.ID.Hex(),
		"status", string(a.ApplicationStatus),
		"student", a.StudentEmail,
	)
}

func reviewSubmitted(ctx context.Context, e event.Event) {
	r, ok := e.Payload.(models.Review)
	if !ok {
		return
	}
	metrics.ReviewsSubmitted.Inc()
	logger.WithCtx(ctx).Info("review submitted",
		"review_id", r.ID.Hex(),
		"scholarship", r.ScholarshipName,
		"rating", r.Rating,
	)
}

func paymentCompleted(gateway string) event.Handler {
	return func(ctx context.Context, e event.Event) {
		a, ok := e.Payload.(models.Application)
		if !ok {
			return
		}
		metrics.PaymentsCompleted.WithLabelValues(gateway).Inc()

		var tracking string
		if a.TrackingID != nil {
			tracking = *a.TrackingID
		}
		logger.WithCtx(ctx).Info("payment completed",
			"application_id", a.ID.Hex(),
			"tracking_id", tracking,
			"transaction_id", a.TransactionID,
		)
	}
}
