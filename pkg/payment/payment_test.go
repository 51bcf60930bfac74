package payment

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingID_Format(t *testing.T) {
	now := time.Date(2025, 3, 9, 15, 4, 5, 0, time.UTC)
	id, err := NewTrackingID(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^PRCL-20250309-[0-9A-F]{6}$`), id)
}

func TestMidtransPaid(t *testing.T) {
	assert.True(t, midtransPaid("settlement", ""))
	assert.True(t, midtransPaid("capture", "accept"))
	assert.False(t, midtransPaid("capture", "challenge"))
	assert.False(t, midtransPaid("pending", ""))
	assert.False(t, midtransPaid("expire", ""))
}

func TestApplicationFromOrder(t *testing.T) {
	assert.Equal(t, "65f0c0ffee", applicationFromOrder("65f0c0ffee-1700000000"))
	assert.Equal(t, "65f0c0ffee", applicationFromOrder("65f0c0ffee"))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, int64(5000), toMinorUnits(50))
}

func TestFake_SettleFlow(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	s, err := f.CreateCheckout(ctx, Checkout{
		ApplicationID: "app1",
		Amount:        25,
		Currency:      "usd",
		SuccessURL:    "http://site/ok?session_id=" + SessionPlaceholder,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://site/ok?session_id="+s.ID, s.URL)

	got, err := f.RetrieveSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Paid)

	f.Settle(s.ID, "pi_123")
	got, err = f.RetrieveSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, "pi_123", got.TransactionID)
	assert.Equal(t, "app1", got.ApplicationID)

	_, err = f.RetrieveSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSnapRequest_Rupiah(t *testing.T) {
	req, err := snapRequest("app1-1700000000", Checkout{
		ApplicationID: "app1",
		Description:   "Arts Grant / Universitas Indonesia",
		CustomerEmail: "sam@example.com",
		Amount:        750000.4,
		Currency:      "IDR",
		SuccessURL:    "https://app.example.com/ok?session_id=" + SessionPlaceholder,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(750000), req.TransactionDetails.GrossAmt)
	assert.Equal(t, "app1-1700000000", req.TransactionDetails.OrderID)
	require.NotNil(t, req.Items)
	assert.Equal(t, int64(750000), (*req.Items)[0].Price)
	assert.Equal(t, "https://app.example.com/ok?session_id=app1-1700000000", req.Callbacks.Finish)
}

func TestSnapRequest_RefusesOtherCurrencies(t *testing.T) {
	_, err := snapRequest("app1-1700000000", Checkout{ApplicationID: "app1", Amount: 60, Currency: "usd"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	m := NewMidtrans("SB-Mid-server-test", false)
	_, err = m.CreateCheckout(context.Background(), Checkout{ApplicationID: "app1", Amount: 60, Currency: "usd"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestTruncate_KeepsRunes(t *testing.T) {
	name := strings.Repeat("é", 60)
	got := truncate(name, 50)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 50, utf8.RuneCountInString(got))
	assert.Equal(t, "short", truncate("short", 50))
}

func TestFake_SettleUnknownSession(t *testing.T) {
	assert.False(t, NewFake().Settle("cs_missing", "txn"))
}
