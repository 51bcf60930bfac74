package payment

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransCurrency is the only currency Snap charges in. Amounts are whole
// rupiah.
const MidtransCurrency = "idr"

// Midtrans creates Snap payment pages and reads their status through the
// Core API. The order id is "<applicationId>-<unix>", so a retried
// checkout gets a fresh order while staying correlated.
type Midtrans struct {
	snap snap.Client
	core coreapi.Client
	now  func() time.Time
}

func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	m := &Midtrans{now: time.Now}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m
}

func (m *Midtrans) Name() string { return "midtrans" }

func (m *Midtrans) CreateCheckout(_ context.Context, c Checkout) (Session, error) {
	orderID := c.ApplicationID + "-" + strconv.FormatInt(m.now().Unix(), 10)
	req, err := snapRequest(orderID, c)
	if err != nil {
		return Session{}, err
	}

	resp, mErr := m.snap.CreateTransaction(req)
	if mErr != nil {
		return Session{}, fmt.Errorf("midtrans: create transaction: %s", mErr.GetMessage())
	}

	return Session{
		ID:            orderID,
		URL:           resp.RedirectURL,
		ApplicationID: c.ApplicationID,
		Amount:        float64(req.TransactionDetails.GrossAmt),
		Currency:      MidtransCurrency,
		CustomerEmail: c.CustomerEmail,
	}, nil
}

// snapRequest builds the Snap transaction for c. Amounts in any currency
// other than rupiah are refused rather than charged at face value.
func snapRequest(orderID string, c Checkout) (*snap.Request, error) {
	if cur := strings.ToLower(c.Currency); cur != "" && cur != MidtransCurrency {
		return nil, fmt.Errorf("%w: midtrans charges %s, checkout is in %s", ErrUnsupportedCurrency, MidtransCurrency, cur)
	}
	gross := int64(math.Round(c.Amount))

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: c.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    c.ApplicationID,
			Name:  truncate(c.Description, 50),
			Price: gross,
			Qty:   1,
		}},
		Callbacks: &snap.Callbacks{
			Finish: strings.ReplaceAll(c.SuccessURL, SessionPlaceholder, orderID),
		},
	}, nil
}

func (m *Midtrans) RetrieveSession(_ context.Context, id string) (Session, error) {
	status, mErr := m.core.CheckTransaction(id)
	if mErr != nil {
		if mErr.StatusCode == http.StatusNotFound {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("midtrans: check transaction: %s", mErr.GetMessage())
	}

	gross, _ := strconv.ParseFloat(status.GrossAmount, 64)
	return Session{
		ID:            status.OrderID,
		ApplicationID: applicationFromOrder(status.OrderID),
		Paid:          midtransPaid(status.TransactionStatus, status.FraudStatus),
		TransactionID: status.TransactionID,
		Amount:        gross,
		Currency:      strings.ToLower(status.Currency),
	}, nil
}

// midtransPaid treats settlement, and capture that passed fraud screening,
// as paid.
func midtransPaid(transactionStatus, fraudStatus string) bool {
	switch strings.ToLower(transactionStatus) {
	case "settlement":
		return true
	case "capture":
		return fraudStatus == "" || strings.EqualFold(fraudStatus, "accept")
	}
	return false
}

func applicationFromOrder(orderID string) string {
	id, _, _ := strings.Cut(orderID, "-")
	return id
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
