package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"github.com/scholarstream/scholarstream/pkg/event"
	"github.com/scholarstream/scholarstream/pkg/logger"
	"github.com/scholarstream/scholarstream/pkg/metrics"
	"github.com/scholarstream/scholarstream/pkg/payment"
)

// PaymentService runs hosted checkout for application fees. The
// application id correlates the checkout session with the application.
type PaymentService struct {
	apps       repositories.ApplicationRepository
	payments   repositories.PaymentRepository
	tx         repositories.Transactor
	gateway    payment.Gateway
	bus        *event.Bus
	now        Clock
	siteDomain string
	currency   string
}

func NewPaymentService(apps repositories.ApplicationRepository, payments repositories.PaymentRepository, tx repositories.Transactor,
	gateway payment.Gateway, bus *event.Bus, now Clock, siteDomain, currency string) *PaymentService {
	return &PaymentService{
		apps:       apps,
		payments:   payments,
		tx:         tx,
		gateway:    gateway,
		bus:        bus,
		now:        now,
		siteDomain: siteDomain,
		currency:   currency,
	}
}

type InitPayment struct {
	ApplicationID string  `json:"applicationId" validate:"required,objectid"`
	Amount        float64 `json:"amount"        validate:"gte=0"`
}

type CompletePayment struct {
	ApplicationID string `json:"applicationId" validate:"omitempty,objectid"`
	SessionID     string `json:"sessionId"     validate:"required"`
}

type CheckoutLink struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type PaymentResult struct {
	Application   models.Application `json:"application"`
	TrackingID    string             `json:"trackingId"`
	TransactionID string             `json:"transactionId"`
}

// Init opens a checkout session for one of the caller's unpaid
// applications.
func (s *PaymentService) Init(ctx context.Context, email string, in InitPayment) (CheckoutLink, error) {
	a, err := s.owned(ctx, email, in.ApplicationID)
	if err != nil {
		return CheckoutLink{}, err
	}
	if a.PaymentStatus != models.PaymentPending {
		return CheckoutLink{}, apperr.Invalid("Application is already paid")
	}

	amount := a.Charge()
	if amount <= 0 {
		amount = in.Amount
	}
	if amount <= 0 {
		return CheckoutLink{}, apperr.Invalid("Nothing to pay")
	}

	id := a.ID.Hex()
	sess, err := s.gateway.CreateCheckout(ctx, payment.Checkout{
		ApplicationID: id,
		Description:   fmt.Sprintf("%s - %s", a.ScholarshipName, a.UniversityName),
		CustomerEmail: email,
		Amount:        amount,
		Currency:      s.currency,
		SuccessURL: s.siteDomain + "/dashboard/payment-success?session_id=" + payment.SessionPlaceholder +
			"&applicationId=" + url.QueryEscape(id),
		CancelURL: s.siteDomain + "/dashboard/payment-cancelled",
	})
	if err != nil {
		return CheckoutLink{}, apperr.Upstream("Could not start checkout", err)
	}

	logger.WithCtx(ctx).Info("checkout created", "application_id", id, "session_id", sess.ID, "gateway", s.gateway.Name())
	return CheckoutLink{URL: sess.URL, SessionID: sess.ID}, nil
}

// Complete records a paid checkout. The payment record and the
// application's paid state are written in one transaction; a repeat call
// for the same application is a conflict.
func (s *PaymentService) Complete(ctx context.Context, email, applicationID, sessionID string) (PaymentResult, error) {
	a, err := s.owned(ctx, email, applicationID)
	if err != nil {
		return PaymentResult{}, err
	}
	id := a.ID.Hex()

	sess, err := s.gateway.RetrieveSession(ctx, sessionID)
	if errors.Is(err, payment.ErrSessionNotFound) {
		s.reject("unknown_session")
		return PaymentResult{}, apperr.Invalid("Unknown checkout session")
	}
	if err != nil {
		return PaymentResult{}, apperr.Upstream("Could not verify payment", err)
	}
	if sess.ApplicationID != id {
		s.reject("mismatch")
		return PaymentResult{}, apperr.Invalid("Checkout session belongs to another application")
	}
	if !sess.Paid {
		s.reject("unpaid")
		return PaymentResult{}, apperr.Invalid("Payment not completed")
	}

	if a.PaymentStatus == models.PaymentPaid {
		s.reject("duplicate")
		return PaymentResult{}, apperr.Conflict("Payment already recorded")
	}
	if _, err := s.payments.FindByApplication(ctx, id); err == nil {
		s.reject("duplicate")
		return PaymentResult{}, apperr.Conflict("Payment already recorded")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return PaymentResult{}, apperr.Internal(err)
	}

	now := s.now().UTC()
	tracking, err := payment.NewTrackingID(now)
	if err != nil {
		return PaymentResult{}, apperr.Internal(err)
	}
	txID := sess.TransactionID
	if txID == "" {
		txID = sess.ID
	}
	amount := sess.Amount
	if amount <= 0 {
		amount = a.Charge()
	}
	currency := sess.Currency
	if currency == "" {
		currency = s.currency
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p := models.Payment{
			ApplicationID: id,
			ScholarshipID: a.ScholarshipID,
			CustomerEmail: email,
			Amount:        amount,
			Currency:      currency,
			Gateway:       s.gateway.Name(),
			SessionID:     sess.ID,
			TransactionID: txID,
			TrackingID:    tracking,
			PaymentStatus: models.PaymentPaid,
			PaidAt:        now,
		}
		if err := s.payments.Create(ctx, &p); err != nil {
			return err
		}
		return s.apps.MarkPaid(ctx, a.ID, models.PaymentReceipt{
			PaymentStatus:     models.PaymentPaid,
			ApplicationStatus: models.ApplicationProcessing,
			TrackingID:        tracking,
			TransactionID:     txID,
			PaidAt:            now,
		})
	})
	if errors.Is(err, repositories.ErrDuplicate) || errors.Is(err, repositories.ErrStale) {
		s.reject("duplicate")
		return PaymentResult{}, apperr.Conflict("Payment already recorded")
	}
	if err != nil {
		return PaymentResult{}, storeErr(err, "Application not found")
	}

	updated, err := s.apps.FindByID(ctx, a.ID)
	if err != nil {
		return PaymentResult{}, storeErr(err, "Application not found")
	}

	logger.WithCtx(ctx).Info("payment recorded", "application_id", id, "tracking_id", tracking, "transaction_id", txID)
	s.bus.Publish(ctx, event.PaymentCompleted, updated)

	return PaymentResult{Application: updated, TrackingID: tracking, TransactionID: txID}, nil
}

// Gateway names the provider payments are recorded against.
func (s *PaymentService) Gateway() string { return s.gateway.Name() }

func (s *PaymentService) owned(ctx context.Context, email, id string) (models.Application, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Application{}, err
	}
	a, err := s.apps.FindByID(ctx, oid)
	if err != nil {
		return models.Application{}, storeErr(err, "Application not found")
	}
	if a.StudentEmail != email {
		return models.Application{}, apperr.Forbidden("forbidden access")
	}
	return a, nil
}

func (s *PaymentService) reject(reason string) {
	metrics.PaymentsRejected.WithLabelValues(reason).Inc()
}
