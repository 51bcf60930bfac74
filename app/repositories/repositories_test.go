package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScholarshipFilter_EscapesSearch(t *testing.T) {
	q := models.NewScholarshipQuery("a.b(c", "Engineering", "Full fund", "Masters", "", "")
	f := scholarshipFilter(q)

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)

	re := or[0].(bson.M)["scholarshipName"].(primitive.Regex)
	assert.Equal(t, `a\.b\(c`, re.Pattern)
	assert.Equal(t, "i", re.Options)
	assert.Equal(t, "Engineering", f["subjectCategory"])
	assert.Equal(t, "Full fund", f["scholarshipCategory"])
	assert.Equal(t, "Masters", f["degree"])
}

func TestScholarshipFilter_EmptyQueryMatchesAll(t *testing.T) {
	assert.Empty(t, scholarshipFilter(models.NewScholarshipQuery("", "", "", "", "", "")))
}

func TestScholarshipSort(t *testing.T) {
	asc := scholarshipSort(models.NewScholarshipQuery("", "", "", "", "applicationFees", "asc"))
	assert.Equal(t, bson.D{{Key: "applicationFees", Value: 1}, {Key: "_id", Value: 1}}, asc)

	def := scholarshipSort(models.NewScholarshipQuery("", "", "", "", "bogus", ""))
	assert.Equal(t, bson.D{{Key: "postDate", Value: -1}, {Key: "_id", Value: -1}}, def)
}

func TestIndexes_UniqueConstraints(t *testing.T) {
	unique := map[string]int{}
	for _, idx := range Indexes() {
		if idx.Model.Options != nil && idx.Model.Options.Unique != nil && *idx.Model.Options.Unique {
			unique[idx.Collection]++
		}
	}
	assert.Equal(t, map[string]int{
		UsersCollection:        1,
		ApplicationsCollection: 1,
		ReviewsCollection:      1,
		PaymentsCollection:     1,
	}, unique)
}

func TestMemory_UserEmailUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Users.Create(ctx, &models.User{Email: "a@x.io", Role: models.RoleStudent}))
	err := store.Users.Create(ctx, &models.User{Email: "a@x.io", Role: models.RoleStudent})
	assert.True(t, errors.Is(err, ErrDuplicate))

	all, err := store.Users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemory_UserProfilePatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users.Create(ctx, &models.User{Name: "Old", Email: "a@x.io", Photo: "p.png", Role: models.RoleStudent}))

	name := "New"
	u, err := store.Users.UpdateProfile(ctx, "a@x.io", models.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "p.png", u.Photo)
	assert.Equal(t, models.RoleStudent, u.Role)

	_, err = store.Users.UpdateProfile(ctx, "ghost@x.io", models.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_SearchAndSort(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.Scholarship{
		{ScholarshipName: "Global Excellence", UniversityName: "MIT", Degree: "Masters", ApplicationFees: 50, PostDate: base},
		{ScholarshipName: "Local Grant", UniversityName: "Oxford", Degree: "Bachelor", ApplicationFees: 10, PostDate: base.Add(time.Hour)},
		{ScholarshipName: "Science Award", UniversityName: "Global Tech", Degree: "PhD", ApplicationFees: 30, PostDate: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, store.Scholarships.Create(ctx, &seed[i]))
	}

	got, err := store.Scholarships.Search(ctx, models.NewScholarshipQuery("global", "", "", "", "applicationFees", "asc"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Science Award", got[0].ScholarshipName)
	assert.Equal(t, "Global Excellence", got[1].ScholarshipName)

	got, err = store.Scholarships.Search(ctx, models.NewScholarshipQuery(".*", "", "", "", "", ""))
	require.NoError(t, err)
	assert.Empty(t, got, "search text is literal")

	latest, err := store.Scholarships.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "Science Award", latest[0].ScholarshipName)
	assert.Equal(t, "Local Grant", latest[1].ScholarshipName)
}

func TestMemory_ApplicationUniqueAndMarkPaidOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	app := &models.Application{ScholarshipID: "s1", StudentEmail: "a@x.io", PaymentStatus: models.PaymentPending}
	require.NoError(t, store.Applications.Create(ctx, app))
	err := store.Applications.Create(ctx, &models.Application{ScholarshipID: "s1", StudentEmail: "a@x.io"})
	assert.ErrorIs(t, err, ErrDuplicate)

	receipt := models.PaymentReceipt{
		PaymentStatus:     models.PaymentPaid,
		ApplicationStatus: models.ApplicationProcessing,
		TrackingID:        "PRCL-20250101-ABCDEF",
		TransactionID:     "pi_1",
		PaidAt:            time.Now(),
	}
	require.NoError(t, store.Applications.MarkPaid(ctx, app.ID, receipt))
	assert.ErrorIs(t, store.Applications.MarkPaid(ctx, app.ID, receipt), ErrStale)

	got, err := store.Applications.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	require.NotNil(t, got.TrackingID)
	assert.Equal(t, "PRCL-20250101-ABCDEF", *got.TrackingID)
}

func TestMemory_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Payments.Create(ctx, &models.Payment{ApplicationID: "a1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Payments.FindByApplication(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	started := make(chan struct{})
	done := make(chan error, 1)
	err := store.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, store.Payments.Create(txCtx, &models.Payment{ApplicationID: "a1"}))
		go func() {
			close(started)
			done <- store.Users.Create(ctx, &models.User{Email: "other@example.com"})
		}()
		<-started
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, <-done)

	_, err = store.Users.FindByEmail(ctx, "other@example.com")
	assert.NoError(t, err)
	_, err = store.Payments.FindByApplication(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_NestedTransactionSharesLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return store.Users.Create(ctx, &models.User{Email: "nested@example.com"})
		})
	})
	require.NoError(t, err)

	_, err = store.Users.FindByEmail(ctx, "nested@example.com")
	assert.NoError(t, err)
}

func TestMemory_ReviewsByScholarshipNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Reviews.Create(ctx, &models.Review{ScholarshipID: "s1", ScholarshipName: "X", StudentEmail: "a@x.io", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Reviews.Create(ctx, &models.Review{ScholarshipID: "s1", ScholarshipName: "X", StudentEmail: "b@x.io", CreatedAt: now}))
	err := store.Reviews.Create(ctx, &models.Review{ScholarshipID: "s1", ScholarshipName: "X", StudentEmail: "b@x.io"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := store.Reviews.ListByScholarshipName(ctx, "X")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b@x.io", got[0].StudentEmail)
}
