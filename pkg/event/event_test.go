package event

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncBus(t *testing.T) {
	b := NewBus(0)
	var got []Event
	b.Listen(PaymentCompleted, func(_ context.Context, e Event) { got = append(got, e) })

	b.Publish(context.Background(), PaymentCompleted, "PRCL-1")
	b.Publish(context.Background(), ReviewSubmitted, "ignored")

	assert.Len(t, got, 1)
	assert.Equal(t, "PRCL-1", got[0].Payload)
	assert.False(t, got[0].At.IsZero())
}

func TestAsyncBus_DeliversBeforeClose(t *testing.T) {
	b := NewBus(4)
	var n atomic.Int64
	var wg sync.WaitGroup

	b.Listen(ApplicationSubmitted, func(context.Context, Event) { n.Add(1); wg.Done() })

	const total = 5
	wg.Add(total)
	for i := 0; i < total; i++ {
		b.Publish(context.Background(), ApplicationSubmitted, i)
	}
	wg.Wait()
	b.Close()
	b.Close()

	assert.EqualValues(t, total, n.Load())

	b.Publish(context.Background(), ApplicationSubmitted, "after close")
	assert.EqualValues(t, total, n.Load())
}

func TestListenerPanicIsContained(t *testing.T) {
	b := NewBus(0)
	var after bool
	b.Listen(ReviewSubmitted, func(context.Context, Event) { panic("boom") })
	b.Listen(ReviewSubmitted, func(context.Context, Event) { after = true })

	assert.NotPanics(t, func() { b.Publish(context.Background(), ReviewSubmitted, nil) })
	assert.True(t, after)
}

func TestPublishKeepsValuesDropsCancel(t *testing.T) {
	type key struct{}
	b := NewBus(0)
	var seen any
	var cancelled bool
	b.Listen(ApplicationStatus, func(ctx context.Context, _ Event) {
		seen = ctx.Value(key{})
		cancelled = ctx.Err() != nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "rid"))
	cancel()
	b.Publish(ctx, ApplicationStatus, nil)

	assert.Equal(t, "rid", seen)
	assert.False(t, cancelled)
}
