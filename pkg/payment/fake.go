package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-process Gateway for local runs and tests. Sessions start
// unpaid; Settle marks one as paid.
type Fake struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]Session
}

func NewFake() *Fake {
	return &Fake{sessions: map[string]Session{}}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) CreateCheckout(_ context.Context, c Checkout) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	id := fmt.Sprintf("cs_fake_%d", f.seq)
	s := Session{
		ID:            id,
		URL:           strings.ReplaceAll(c.SuccessURL, SessionPlaceholder, id),
		ApplicationID: c.ApplicationID,
		Amount:        c.Amount,
		Currency:      c.Currency,
		CustomerEmail: c.CustomerEmail,
	}
	f.sessions[id] = s
	return s, nil
}

func (f *Fake) RetrieveSession(_ context.Context, id string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Settle marks a session paid with the given transaction id. It reports
// false for an unknown session.
func (f *Fake) Settle(id, transactionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[id]
	if !ok {
		return false
	}
	s.Paid = true
	s.TransactionID = transactionID
	f.sessions[id] = s
	return true
}
