package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"github.com/scholarstream/scholarstream/pkg/event"
	"github.com/scholarstream/scholarstream/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	store        *repositories.Store
	bus          *event.Bus
	gateway      *payment.Fake
	users        *UserService
	scholarships *ScholarshipService
	apps         *ApplicationService
	reviews      *ReviewService
	payments     *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	bus := event.NewBus(0)
	gw := payment.NewFake()
	return &fixture{
		store:        store,
		bus:          bus,
		gateway:      gw,
		users:        NewUserService(store.Users, clock),
		scholarships: NewScholarshipService(store.Scholarships, nil, 8, clock),
		apps:         NewApplicationService(store.Applications, store.Scholarships, bus, clock),
		reviews:      NewReviewService(store.Reviews, store.Scholarships, bus, clock),
		payments: NewPaymentService(store.Applications, store.Payments, store.Tx, gw, bus, clock,
			"https://app.example.com", "usd"),
	}
}

func (f *fixture) scholarship(t *testing.T) models.Scholarship {
	t.Helper()
	s, err := f.scholarships.Create(context.Background(), "admin@example.com", models.Scholarship{
		ScholarshipName: "Global Excellence",
		UniversityName:  "Oxford",
		Degree:          "Masters",
		ApplicationFees: 50,
		ServiceCharge:   10,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) apply(t *testing.T, email string) models.Application {
	t.Helper()
	s := f.scholarship(t)
	a, err := f.apps.Submit(context.Background(), email, NewApplication{ScholarshipID: s.ID.Hex(), StudentName: "Ana"})
	require.NoError(t, err)
	return a
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), err.Error())
}

// ── Users ────────────────────────────────────────────────────────────────────

func TestUserService_RegisterIsStudentAndUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, "ana@example.com", NewUser{Name: " Ana "})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.Equal(t, "Ana", u.Name)

	_, err = f.users.Register(ctx, "ana@example.com", NewUser{Name: "Other"})
	assertKind(t, err, apperr.KindConflict)

	all, err := f.users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserService_FindAndRoleOfUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)

	role, err := f.users.RoleOf(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, role)

	_, err = f.users.StoredRole(ctx, "nobody@example.com")
	assert.Error(t, err)
}

func TestUserService_UpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.users.Register(ctx, "ana@example.com", NewUser{})
	require.NoError(t, err)

	require.NoError(t, f.users.UpdateRole(ctx, u.ID.Hex(), models.RoleModerator))
	role, err := f.users.RoleOf(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, role)

	assertKind(t, f.users.UpdateRole(ctx, u.ID.Hex(), models.Role("Root")), apperr.KindInvalid)
	assertKind(t, f.users.UpdateRole(ctx, "not-an-id", models.RoleAdmin), apperr.KindInvalid)
	assertKind(t, f.users.UpdateRole(ctx, "64b7f0c2a1b2c3d4e5f60718", models.RoleAdmin), apperr.KindNotFound)
}

func TestUserService_UpdateProfileOnlyNonEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.Register(ctx, "ana@example.com", NewUser{Name: "Ana", Photo: "https://img.example.com/a.png"})
	require.NoError(t, err)

	name, blank := "Ana Maria", "  "
	got, err := f.users.UpdateProfile(ctx, "ana@example.com", models.ProfileUpdate{Name: &name, Photo: &blank})
	require.NoError(t, err)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Ana Maria", *got.Name)
	assert.Nil(t, got.Photo)

	u, err := f.users.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", u.Name)
	assert.Equal(t, "https://img.example.com/a.png", u.Photo)

	_, err = f.users.UpdateProfile(ctx, "ana@example.com", models.ProfileUpdate{Photo: &blank})
	assertKind(t, err, apperr.KindInvalid)

	_, err = f.users.UpdateProfile(ctx, "ghost@example.com", models.ProfileUpdate{Name: &name})
	assertKind(t, err, apperr.KindNotFound)
}

func TestUserService_AssignRoleCreatesMissingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.AssignRole(ctx, "boss@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	role, err := f.users.StoredRole(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

// ── Scholarships ─────────────────────────────────────────────────────────────

type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
	hits int
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	c.hits++
	switch d := dest.(type) {
	case *models.Scholarship:
		*d = v.(models.Scholarship)
	case *[]models.Scholarship:
		*d = v.([]models.Scholarship)
	}
	return true
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *mapCache) Forget(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
}

func TestScholarshipService_CreateDefaultsAndCacheInvalidation(t *testing.T) {
	store := repositories.NewMemoryStore()
	cache := &mapCache{data: map[string]interface{}{}}
	svc := NewScholarshipService(store.Scholarships, cache, 8, clock)
	ctx := context.Background()

	s, err := svc.Create(ctx, "admin@example.com", models.Scholarship{ScholarshipName: "A", UniversityName: "U"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", s.PostedUserEmail)
	assert.True(t, s.PostDate.Equal(fixedNow))

	_, err = svc.Find(ctx, s.ID.Hex())
	require.NoError(t, err)
	_, err = svc.Find(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	name := "B"
	updated, err := svc.Update(ctx, s.ID.Hex(), models.ScholarshipPatch{ScholarshipName: &name})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.ScholarshipName)

	got, err := svc.Find(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "B", got.ScholarshipName)

	require.NoError(t, svc.Delete(ctx, s.ID.Hex()))
	_, err = svc.Find(ctx, s.ID.Hex())
	assertKind(t, err, apperr.KindNotFound)
}

func TestScholarshipService_LatestHonoursLimit(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewScholarshipService(store.Scholarships, nil, 2, clock)
	ctx := context.Background()

	for i, name := range []string{"old", "mid", "new"} {
		_, err := svc.Create(ctx, "admin@example.com", models.Scholarship{
			ScholarshipName: name,
			UniversityName:  "U",
			PostDate:        fixedNow.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "new", latest[0].ScholarshipName)
	assert.Equal(t, "mid", latest[1].ScholarshipName)
}

// ── Applications ─────────────────────────────────────────────────────────────

func TestApplicationService_SubmitCopiesCatalogAndStartsPending(t *testing.T) {
	f := newFixture(t)
	var published []models.Application
	f.bus.Listen(event.ApplicationSubmitted, func(_ context.Context, e event.Event) {
		published = append(published, e.Payload.(models.Application))
	})

	a := f.apply(t, "ana@example.com")
	assert.Equal(t, "Global Excellence", a.ScholarshipName)
	assert.Equal(t, "Oxford", a.UniversityName)
	assert.Equal(t, 60.0, a.Charge())
	assert.Equal(t, models.ApplicationPending, a.ApplicationStatus)
	assert.Equal(t, models.PaymentPending, a.PaymentStatus)
	assert.Nil(t, a.TrackingID)
	assert.True(t, a.AppliedAt.Equal(fixedNow))
	require.Len(t, published, 1)
}

func TestApplicationService_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	_, err := f.apps.Submit(ctx, "ana@example.com", NewApplication{ScholarshipID: a.ScholarshipID})
	assertKind(t, err, apperr.KindConflict)
	assert.Equal(t, "Already applied!", apperr.Message(err))

	mine, err := f.apps.ListMine(ctx, "ana@example.com", "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestApplicationService_UnknownScholarship(t *testing.T) {
	f := newFixture(t)
	_, err := f.apps.Submit(context.Background(), "ana@example.com", NewApplication{ScholarshipID: "64b7f0c2a1b2c3d4e5f60718"})
	assertKind(t, err, apperr.KindNotFound)
}

func TestApplicationService_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	_, err := f.apps.ListMine(ctx, "bob@example.com", "ana@example.com")
	assertKind(t, err, apperr.KindForbidden)

	_, err = f.apps.FindMine(ctx, "bob@example.com", a.ID.Hex())
	assertKind(t, err, apperr.KindForbidden)

	phone := "555-0101"
	_, err = f.apps.UpdateMine(ctx, "bob@example.com", a.ID.Hex(), models.ApplicationPatch{Phone: &phone})
	assertKind(t, err, apperr.KindForbidden)

	assertKind(t, f.apps.DeleteMine(ctx, "bob@example.com", a.ID.Hex()), apperr.KindForbidden)

	updated, err := f.apps.UpdateMine(ctx, "ana@example.com", a.ID.Hex(), models.ApplicationPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0101", updated.Phone)

	require.NoError(t, f.apps.DeleteMine(ctx, "ana@example.com", a.ID.Hex()))
	_, err = f.apps.FindMine(ctx, "ana@example.com", a.ID.Hex())
	assertKind(t, err, apperr.KindNotFound)
}

func TestApplicationService_SetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	feedback := "Missing transcript"
	updated, err := f.apps.SetStatus(ctx, a.ID.Hex(), StatusUpdate{Status: "rejected", Feedback: &feedback})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, updated.ApplicationStatus)
	assert.Equal(t, feedback, updated.Feedback)

	// Any status may follow any other.
	updated, err = f.apps.SetStatus(ctx, a.ID.Hex(), StatusUpdate{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, updated.ApplicationStatus)

	_, err = f.apps.SetStatus(ctx, a.ID.Hex(), StatusUpdate{Status: "archived"})
	assertKind(t, err, apperr.KindInvalid)
}

// ── Reviews ──────────────────────────────────────────────────────────────────

func TestReviewService_SubmitOncePerScholarship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.scholarship(t)

	r, err := f.reviews.Submit(ctx, "ana@example.com", NewReview{ScholarshipID: s.ID.Hex(), Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	assert.Equal(t, "Global Excellence", r.ScholarshipName)
	assert.True(t, r.ReviewDate.Equal(fixedNow))

	_, err = f.reviews.Submit(ctx, "ana@example.com", NewReview{ScholarshipID: s.ID.Hex(), Rating: 1})
	assertKind(t, err, apperr.KindConflict)

	byName, err := f.reviews.ListForScholarship(ctx, "Global Excellence")
	require.NoError(t, err)
	assert.Len(t, byName, 1)
}

func TestReviewService_OwnerAndModeratorDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.scholarship(t)

	r, err := f.reviews.Submit(ctx, "ana@example.com", NewReview{ScholarshipID: s.ID.Hex(), Rating: 4})
	require.NoError(t, err)

	rating := 2
	_, err = f.reviews.UpdateMine(ctx, "bob@example.com", r.ID.Hex(), models.ReviewPatch{Rating: &rating})
	assertKind(t, err, apperr.KindForbidden)

	updated, err := f.reviews.UpdateMine(ctx, "ana@example.com", r.ID.Hex(), models.ReviewPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	assertKind(t, f.reviews.DeleteMine(ctx, "bob@example.com", r.ID.Hex()), apperr.KindForbidden)
	require.NoError(t, f.reviews.Delete(ctx, r.ID.Hex()))
	assertKind(t, f.reviews.Delete(ctx, r.ID.Hex()), apperr.KindNotFound)
}

// ── Payments ─────────────────────────────────────────────────────────────────

func TestPaymentService_InitBuildsCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	link, err := f.payments.Init(ctx, "ana@example.com", InitPayment{ApplicationID: a.ID.Hex(), Amount: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, link.SessionID)
	assert.Equal(t, "https://app.example.com/dashboard/payment-success?session_id="+link.SessionID+
		"&applicationId="+a.ID.Hex(), link.URL)

	sess, err := f.gateway.RetrieveSession(ctx, link.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, sess.Amount)
	assert.Equal(t, a.ID.Hex(), sess.ApplicationID)

	_, err = f.payments.Init(ctx, "bob@example.com", InitPayment{ApplicationID: a.ID.Hex()})
	assertKind(t, err, apperr.KindForbidden)
}

func TestPaymentService_CompleteRecordsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	var completed int
	f.bus.Listen(event.PaymentCompleted, func(context.Context, event.Event) { completed++ })

	link, err := f.payments.Init(ctx, "ana@example.com", InitPayment{ApplicationID: a.ID.Hex()})
	require.NoError(t, err)
	f.gateway.Settle(link.SessionID, "pi_123")

	res, err := f.payments.Complete(ctx, "ana@example.com", a.ID.Hex(), link.SessionID)
	require.NoError(t, err)
	assert.Regexp(t, `^PRCL-20250314-[0-9A-F]{6}$`, res.TrackingID)
	assert.Equal(t, "pi_123", res.TransactionID)
	assert.Equal(t, models.PaymentPaid, res.Application.PaymentStatus)
	assert.Equal(t, models.ApplicationProcessing, res.Application.ApplicationStatus)
	require.NotNil(t, res.Application.TrackingID)
	assert.Equal(t, res.TrackingID, *res.Application.TrackingID)
	assert.Equal(t, 1, completed)

	_, err = f.payments.Complete(ctx, "ana@example.com", a.ID.Hex(), link.SessionID)
	assertKind(t, err, apperr.KindConflict)
	assert.Equal(t, "Payment already recorded", apperr.Message(err))

	p, err := f.store.Payments.FindByApplication(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, res.TrackingID, p.TrackingID)
	assert.Equal(t, 60.0, p.Amount)
	assert.Equal(t, "fake", p.Gateway)

	_, err = f.payments.Init(ctx, "ana@example.com", InitPayment{ApplicationID: a.ID.Hex()})
	assertKind(t, err, apperr.KindInvalid)
}

func TestPaymentService_UnpaidLeavesApplicationPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	link, err := f.payments.Init(ctx, "ana@example.com", InitPayment{ApplicationID: a.ID.Hex()})
	require.NoError(t, err)

	_, err = f.payments.Complete(ctx, "ana@example.com", a.ID.Hex(), link.SessionID)
	assertKind(t, err, apperr.KindInvalid)
	assert.Equal(t, "Payment not completed", apperr.Message(err))

	got, err := f.apps.FindMine(ctx, "ana@example.com", a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
	assert.Nil(t, got.TrackingID)

	_, err = f.store.Payments.FindByApplication(ctx, a.ID.Hex())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPaymentService_SessionForAnotherApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.apply(t, "ana@example.com")
	second := f.apply(t, "ana@example.com")

	link, err := f.payments.Init(ctx, "ana@example.com", InitPayment{ApplicationID: first.ID.Hex()})
	require.NoError(t, err)
	f.gateway.Settle(link.SessionID, "pi_1")

	_, err = f.payments.Complete(ctx, "ana@example.com", second.ID.Hex(), link.SessionID)
	assertKind(t, err, apperr.KindInvalid)

	_, err = f.payments.Complete(ctx, "ana@example.com", first.ID.Hex(), "cs_missing")
	assertKind(t, err, apperr.KindInvalid)
}

func TestPaymentService_ConcurrentCompletesRecordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.apply(t, "ana@example.com")

	link, err := f.payments.Init(ctx, "ana@example.com", InitPayment{ApplicationID: a.ID.Hex()})
	require.NoError(t, err)
	f.gateway.Settle(link.SessionID, "pi_9")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, dup   int
		unexpects []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payments.Complete(ctx, "ana@example.com", a.ID.Hex(), link.SessionID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.Is(err, apperr.KindConflict):
				dup++
			default:
				unexpects = append(unexpects, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpects)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, dup)
}
