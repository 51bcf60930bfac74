package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const metadataApplicationID = "applicationId"

// Stripe creates Stripe Checkout sessions.
type Stripe struct {
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	return &Stripe{api: client.New(secretKey, nil)}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateCheckout(ctx context.Context, c Checkout) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(c.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(c.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(c.Description),
				},
				UnitAmount: stripe.Int64(toMinorUnits(c.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(c.SuccessURL),
		CancelURL:  stripe.String(c.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataApplicationID, c.ApplicationID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create checkout: %w", err)
	}
	return fromStripe(sess), nil
}

func (s *Stripe) RetrieveSession(ctx context.Context, id string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("stripe: retrieve session: %w", err)
	}
	return fromStripe(sess), nil
}

func fromStripe(sess *stripe.CheckoutSession) Session {
	out := Session{
		ID:            sess.ID,
		URL:           sess.URL,
		ApplicationID: sess.Metadata[metadataApplicationID],
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Amount:        float64(sess.AmountTotal) / 100,
		Currency:      string(sess.Currency),
		CustomerEmail: sess.CustomerEmail,
	}
	if sess.PaymentIntent != nil {
		out.TransactionID = sess.PaymentIntent.ID
	}
	return out
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
