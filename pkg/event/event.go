// Package event is an in-process publish/subscribe bus. Listeners run on a
// bounded set of workers so a slow listener never holds up a request.
package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/scholarstream/scholarstream/pkg/logger"
)

// Name identifies an event.
type Name string

const (
	ApplicationSubmitted Name = "application.submitted"
	ApplicationStatus    Name = "application.status_changed"
	ReviewSubmitted      Name = "review.submitted"
	PaymentCompleted     Name = "payment.completed"
)

type Event struct {
	Name    Name
	Payload any
	At      time.Time
}

// Handler receives an event. The context keeps the publisher's values
// (request logger, request id) but not its cancellation.
type Handler func(ctx context.Context, e Event)

type task struct {
	ctx context.Context
	h   Handler
	e   Event
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler

	tasks  chan task
	wg     sync.WaitGroup
	closed bool
}

// NewBus starts workers goroutines with a queue twice that size. With
// workers <= 0 listeners run synchronously inside Publish.
func NewBus(workers int) *Bus {
	b := &Bus{handlers: map[Name][]Handler{}}
	if workers <= 0 {
		return b
	}

	b.tasks = make(chan task, workers*2)
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

// Listen registers h for name.
func (b *Bus) Listen(name Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish hands the event to every listener. When the queue is full the
// delivery is dropped and logged.
func (b *Bus) Publish(ctx context.Context, name Name, payload any) {
	e := Event{Name: name, Payload: payload, At: time.Now()}
	ctx = context.WithoutCancel(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers[name] {
		if b.tasks == nil {
			run(task{ctx: ctx, h: h, e: e})
			continue
		}
		if b.closed {
			return
		}
		select {
		case b.tasks <- task{ctx: ctx, h: h, e: e}:
		default:
			logger.WithCtx(ctx).Warn("event dropped, queue full", "event", string(name))
		}
	}
}

// Close stops accepting events and waits for queued deliveries.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed || b.tasks == nil {
		b.closed = true
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.tasks)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for t := range b.tasks {
		run(t)
	}
}

// run recovers so a bad listener does not kill the worker.
func run(t task) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(t.ctx).Error("event listener panicked",
				"event", string(t.e.Name),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	t.h(t.ctx, t.e)
}
