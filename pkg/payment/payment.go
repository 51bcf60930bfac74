// Package payment talks to hosted-checkout providers. Each provider is a
// Gateway; the rest of the service only sees Checkout and Session.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSessionNotFound is returned when the provider has no such session.
	ErrSessionNotFound = errors.New("payment: session not found")
	// ErrUnsupportedCurrency is returned when a provider cannot charge in
	// the checkout's currency.
	ErrUnsupportedCurrency = errors.New("payment: unsupported currency")
)

// SessionPlaceholder is replaced by the provider with the session id in the
// success URL.
const SessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// Checkout describes one hosted payment page.
type Checkout struct {
	ApplicationID string
	Description   string
	CustomerEmail string
	Amount        float64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Session is the provider's view of a checkout.
type Session struct {
	ID            string
	URL           string
	ApplicationID string
	Paid          bool
	TransactionID string
	Amount        float64
	Currency      string
	CustomerEmail string
}

type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, c Checkout) (Session, error)
	RetrieveSession(ctx context.Context, id string) (Session, error)
}

// NewTrackingID returns PRCL-YYYYMMDD-XXXXXX where the suffix is three
// random bytes in upper-case hex.
func NewTrackingID(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("payment: tracking id: %w", err)
	}
	return fmt.Sprintf("PRCL-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(b))), nil
}
