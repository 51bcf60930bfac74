// Package kernel assembles the application: it picks the backing store,
// identity provider and payment gateway from config, wires them into the
// domain services and builds the HTTP handler with the global middleware.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/scholarstream/scholarstream/app/listeners"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/app/routes"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/config"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/cache"
	"github.com/scholarstream/scholarstream/pkg/database"
	"github.com/scholarstream/scholarstream/pkg/event"
	"github.com/scholarstream/scholarstream/pkg/logger"
	"github.com/scholarstream/scholarstream/pkg/metrics"
	"github.com/scholarstream/scholarstream/pkg/middleware"
	"github.com/scholarstream/scholarstream/pkg/payment"
	"github.com/scholarstream/scholarstream/pkg/reqid"
	"github.com/scholarstream/scholarstream/pkg/response"
	"github.com/scholarstream/scholarstream/pkg/router"
)

// Options are the collaborators a Kernel is built from. Zero values get
// defaults: no cache, time.Now, synchronous events, no rate limit.
type Options struct {
	Store    *repositories.Store
	Verifier auth.Verifier
	Gateway  payment.Gateway
	Cache    services.Cache

	Now           services.Clock
	EventWorkers  int
	RatePerMinute int
	LatestLimit   int
	SiteDomain    string
	Currency      string
}

type Kernel struct {
	Store    *repositories.Store
	Bus      *event.Bus
	Services routes.Services

	gateway string
	fake    *payment.Fake
	limiter *middleware.RateLimiter
	stop    chan struct{}
	closers []func(ctx context.Context) error
}

// New wires the services and listeners around opts.
func New(opts Options) *Kernel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LatestLimit <= 0 {
		opts.LatestLimit = config.LatestScholarshipsLimit()
	}
	if opts.Currency == "" {
		opts.Currency = config.PaymentCurrency()
	}
	if opts.SiteDomain == "" {
		opts.SiteDomain = config.SiteDomain()
	}

	bus := event.NewBus(opts.EventWorkers)
	listeners.Register(bus, opts.Gateway.Name())

	st := opts.Store
	k := &Kernel{
		Store: st,
		Bus:   bus,
		Services: routes.Services{
			Verifier:     opts.Verifier,
			Users:        services.NewUserService(st.Users, opts.Now),
			Scholarships: services.NewScholarshipService(st.Scholarships, opts.Cache, opts.LatestLimit, opts.Now),
			Applications: services.NewApplicationService(st.Applications, st.Scholarships, bus, opts.Now),
			Reviews:      services.NewReviewService(st.Reviews, st.Scholarships, bus, opts.Now),
			Payments: services.NewPaymentService(st.Applications, st.Payments, st.Tx, opts.Gateway, bus, opts.Now,
				opts.SiteDomain, opts.Currency),
		},
		gateway: opts.Gateway.Name(),
		stop:    make(chan struct{}),
	}
	if f, ok := opts.Gateway.(*payment.Fake); ok && !config.IsProduction() {
		k.fake = f
	}

	if opts.RatePerMinute > 0 {
		k.limiter = middleware.NewRateLimiter(opts.RatePerMinute, time.Minute)
		go k.limiter.Run(k.stop)
	}
	return k
}

// Boot connects everything named in config and returns the Kernel. Redis
// is optional; the document store, identity provider and gateway are not.
func Boot(ctx context.Context) (*Kernel, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	var closers []func(context.Context) error
	fail := func(err error) (*Kernel, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](ctx)
		}
		return nil, err
	}

	store, closeStore, err := OpenStore(ctx)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	verifier, err := NewVerifier()
	if err != nil {
		return fail(err)
	}
	gateway, err := NewGateway()
	if err != nil {
		return fail(err)
	}

	c, err := cache.Connect(ctx)
	if err != nil {
		logger.Warn("cache disabled", "error", err)
	} else {
		closers = append(closers, func(context.Context) error { return c.Close() })
	}

	k := New(Options{
		Store:         store,
		Verifier:      verifier,
		Gateway:       gateway,
		Cache:         c,
		EventWorkers:  4,
		RatePerMinute: config.RateLimitPerMinute(),
	})
	k.closers = closers

	logger.Info("kernel booted",
		"store", config.StoreDriver(),
		"identity", config.IdentityProvider(),
		"gateway", gateway.Name(),
		"cache", c.Enabled(),
	)
	return k, nil
}

// OpenStore opens the store selected by STORE_DRIVER. For MongoDB it also
// ensures the indexes and, with LOG_TO_MONGO, attaches the log sink.
func OpenStore(ctx context.Context) (*repositories.Store, func(context.Context) error, error) {
	if config.StoreDriver() == "memory" {
		return repositories.NewMemoryStore(), func(context.Context) error { return nil }, nil
	}

	m, err := database.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.EnsureIndexes(ctx, m.DB); err != nil {
		_ = m.Close(ctx)
		return nil, nil, err
	}

	flushLogs := func() {}
	if config.LogToMongo() {
		flushLogs = logger.AttachMongo(m.Client, config.MongoDatabase())
	}

	closeFn := func(ctx context.Context) error {
		flushLogs()
		return m.Close(ctx)
	}
	return repositories.NewMongoStore(m.DB), closeFn, nil
}

// providers is the configuration the identity provider and payment gateway
// are built from.
type providers struct {
	Production bool

	Identity       string
	GoogleClientID string
	JWTSecret      string

	Gateway            string
	StripeSecret       string
	MidtransServerKey  string
	MidtransProduction bool
	Currency           string
}

func providersFromConfig() providers {
	return providers{
		Production:         config.IsProduction(),
		Identity:           config.IdentityProvider(),
		GoogleClientID:     config.GoogleClientID(),
		JWTSecret:          config.JWTSecret(),
		Gateway:            config.PaymentGateway(),
		StripeSecret:       config.StripeSecret(),
		MidtransServerKey:  config.MidtransServerKey(),
		MidtransProduction: config.MidtransProduction(),
		Currency:           config.PaymentCurrency(),
	}
}

// NewVerifier returns the identity provider named by IDENTITY_PROVIDER.
func NewVerifier() (auth.Verifier, error) {
	return newVerifier(providersFromConfig())
}

func newVerifier(p providers) (auth.Verifier, error) {
	switch p.Identity {
	case "google":
		if p.GoogleClientID == "" {
			return nil, errors.New("kernel: GOOGLE_CLIENT_ID is required for the google identity provider")
		}
		return auth.NewGoogleVerifier(p.GoogleClientID), nil
	case "jwt":
		if p.Production && (p.JWTSecret == "" || config.IsDefaultJWTSecret(p.JWTSecret)) {
			return nil, errors.New("kernel: set JWT_SECRET to a private value before using the jwt identity provider in production")
		}
		return auth.NewJWTVerifier(p.JWTSecret), nil
	default:
		return nil, fmt.Errorf("kernel: unknown identity provider %q", p.Identity)
	}
}

// NewGateway returns the payment provider named by PAYMENT_GATEWAY. The
// in-process fake is refused in production.
func NewGateway() (payment.Gateway, error) {
	return newGateway(providersFromConfig())
}

func newGateway(p providers) (payment.Gateway, error) {
	switch p.Gateway {
	case "stripe":
		if p.StripeSecret == "" {
			return nil, errors.New("kernel: STRIPE_SECRET is required for the stripe gateway")
		}
		return payment.NewStripe(p.StripeSecret), nil
	case "midtrans":
		if p.MidtransServerKey == "" {
			return nil, errors.New("kernel: MIDTRANS_SERVER_KEY is required for the midtrans gateway")
		}
		if p.Currency != payment.MidtransCurrency {
			return nil, fmt.Errorf("kernel: the midtrans gateway charges in %s; PAYMENT_CURRENCY is %q", payment.MidtransCurrency, p.Currency)
		}
		return payment.NewMidtrans(p.MidtransServerKey, p.MidtransProduction), nil
	case "fake":
		if p.Production {
			return nil, errors.New("kernel: the fake gateway is not allowed in production")
		}
		return payment.NewFake(), nil
	default:
		return nil, fmt.Errorf("kernel: unknown payment gateway %q", p.Gateway)
	}
}

// Handler builds the HTTP handler.
//
// Global middleware, outermost first:
//  1. Prometheus metrics, so latency covers everything below
//  2. Request ID, before anything logs
//  3. Recovery
//  4. Logger
//  5. CORS
//  6. Rate limiter
func (k *Kernel) Handler() http.Handler {
	return k.router().Handler()
}

// Routes lists every registered endpoint.
func (k *Kernel) Routes() []router.Route {
	return k.router().Routes()
}

func (k *Kernel) router() *router.Router {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	if k.limiter != nil {
		r.Use(k.limiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.Handle("/metrics", "metrics", metrics.Handler())
	if k.fake != nil {
		r.Post("/dev/checkout/{sessionId}/settle", "dev.checkout.settle", k.settleFake)
	}
	routes.RegisterAPI(r, k.Services)
	return r
}

// settleFake marks a fake checkout session paid so a local run can
// complete payments. Only mounted outside production.
func (k *Kernel) settleFake(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	txID := "txn_" + id
	if !k.fake.Settle(id, txID) {
		response.Error(w, http.StatusNotFound, "Unknown session")
		return
	}
	response.Success(w, map[string]string{"sessionId": id, "transactionId": txID})
}

// Ping reports whether the document store answers.
func (k *Kernel) Ping(ctx context.Context) error {
	return k.Store.Ping(ctx)
}

// Shutdown drains pending events and releases connections.
func (k *Kernel) Shutdown(ctx context.Context) error {
	close(k.stop)
	k.Bus.Close()

	var errs []error
	for i := len(k.closers) - 1; i >= 0; i-- {
		if err := k.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
