package repositories

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/pkg/collection"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryDB keeps every collection in process. It enforces the same unique
// keys as the Mongo indexes.
type memoryDB struct {
	mu sync.RWMutex

	users        []models.User
	scholarships []models.Scholarship
	applications []models.Application
	reviews      []models.Review
	payments     []models.Payment
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *Store {
	db := &memoryDB{}
	return &Store{
		Users:        memoryUsers{db},
		Scholarships: memoryScholarships{db},
		Applications: memoryApplications{db},
		Reviews:      memoryReviews{db},
		Payments:     memoryPayments{db},
		Tx:           db,
	}
}

type txKey struct{}

// WithinTransaction holds the write lock for the whole of fn, so other
// callers wait rather than interleave, and rolls every collection back to
// its prior state when fn fails. Store calls made with the ctx passed to fn
// run under that lock.
func (db *memoryDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snap := memoryDB{
		users:        collection.Clone(db.users),
		scholarships: collection.Clone(db.scholarships),
		applications: collection.Clone(db.applications),
		reviews:      collection.Clone(db.reviews),
		payments:     collection.Clone(db.payments),
	}

	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.users, db.scholarships, db.applications = snap.users, snap.scholarships, snap.applications
		db.reviews, db.payments = snap.reviews, snap.payments
		return err
	}
	return nil
}

func (db *memoryDB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*memoryDB)
	return owner == db
}

// write takes the write lock unless ctx already runs inside a transaction
// on db. Call the returned func to release it.
func (db *memoryDB) write(ctx context.Context) func() {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *memoryDB) read(ctx context.Context) func() {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.RLock()
	return db.mu.RUnlock
}

// applyPatch round-trips rec through BSON so a patch behaves exactly like
// a Mongo $set of its non-nil fields.
func applyPatch[T any](rec T, patch interface{}) (T, error) {
	set, err := setDoc(patch)
	if err != nil {
		return rec, err
	}
	if len(set) == 0 {
		return rec, nil
	}

	cur, err := setDoc(rec)
	if err != nil {
		return rec, err
	}
	for k, v := range set {
		cur[k] = v
	}

	raw, err := bson.Marshal(cur)
	if err != nil {
		return rec, fmt.Errorf("marshal record: %w", err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return rec, fmt.Errorf("unmarshal record: %w", err)
	}
	return out, nil
}

// newestBy sorts rows by t descending, newest id first on ties.
func newestBy[T any](rows []T, t func(T) time.Time, id func(T) primitive.ObjectID) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := t(rows[i]), t(rows[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return id(rows[i]).Hex() > id(rows[j]).Hex()
	})
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ── users ────────────────────────────────────────────────────────────────────

type memoryUsers struct{ db *memoryDB }

func (r memoryUsers) Create(ctx context.Context, u *models.User) error {
	defer r.db.write(ctx)()

	if collection.IndexOf(r.db.users, func(x models.User) bool { return x.Email == u.Email }) >= 0 {
		return fmt.Errorf("%w: email %s", ErrDuplicate, u.Email)
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.db.users = append(r.db.users, *u)
	return nil
}

func (r memoryUsers) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.find(ctx, func(x models.User) bool { return x.ID == id })
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.find(ctx, func(x models.User) bool { return x.Email == email })
}

func (r memoryUsers) find(ctx context.Context, match func(models.User) bool) (models.User, error) {
	defer r.db.read(ctx)()

	if i := collection.IndexOf(r.db.users, match); i >= 0 {
		return r.db.users[i], nil
	}
	return models.User{}, ErrNotFound
}

func (r memoryUsers) All(ctx context.Context) ([]models.User, error) {
	defer r.db.read(ctx)()
	return append([]models.User{}, r.db.users...), nil
}

func (r memoryUsers) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	defer r.db.write(ctx)()

	i := collection.IndexOf(r.db.users, func(x models.User) bool { return x.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	r.db.users[i].Role = role
	return nil
}

func (r memoryUsers) UpdateProfile(ctx context.Context, email string, p models.ProfileUpdate) (models.User, error) {
	defer r.db.write(ctx)()

	i := collection.IndexOf(r.db.users, func(x models.User) bool { return x.Email == email })
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	updated, err := applyPatch(r.db.users[i], p)
	if err != nil {
		return models.User{}, err
	}
	r.db.users[i] = updated
	return updated, nil
}

func (r memoryUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.db.write(ctx)()

	i := collection.IndexOf(r.db.users, func(x models.User) bool { return x.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	r.db.users = collection.RemoveAt(r.db.users, i)
	return nil
}

// ── scholarships ─────────────────────────────────────────────────────────────

type memoryScholarships struct{ db *memoryDB }

func (r memoryScholarships) Create(ctx context.Context, s *models.Scholarship) error {
	defer r.db.write(ctx)()

	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	r.db.scholarships = append(r.db.scholarships, *s)
	return nil
}

func (r memoryScholarships) FindByID(ctx context.Context, id primitive.ObjectID) (models.Scholarship, error) {
	defer r.db.read(ctx)()

	if i := collection.IndexOf(r.db.scholarships, func(x models.Scholarship) bool { return x.ID == id }); i >= 0 {
		return r.db.scholarships[i], nil
	}
	return models.Scholarship{}, ErrNotFound
}

func (r memoryScholarships) All(ctx context.Context) ([]models.Scholarship, error) {
	return r.Search(ctx, models.NewScholarshipQuery("", "", "", "", "", ""))
}

func (r memoryScholarships) Search(ctx context.Context, q models.ScholarshipQuery) ([]models.Scholarship, error) {
	unlock := r.db.read(ctx)
	out := collection.Filter(r.db.scholarships, func(s models.Scholarship) bool { return matchScholarship(s, q) })
	unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var c int
		if q.SortField == models.SortByApplicationFees {
			c = cmp.Compare(a.ApplicationFees, b.ApplicationFees)
		} else {
			c = a.PostDate.Compare(b.PostDate)
		}
		if c == 0 {
			c = strings.Compare(a.ID.Hex(), b.ID.Hex())
		}
		if q.Ascending {
			return c < 0
		}
		return c > 0
	})
	return out, nil
}

func (r memoryScholarships) Latest(ctx context.Context, limit int) ([]models.Scholarship, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return collection.Take(all, limit), nil
}

func (r memoryScholarships) Update(ctx context.Context, id primitive.ObjectID, p models.ScholarshipPatch) (models.Scholarship, error) {
	defer r.db.write(ctx)()

	i := collection.IndexOf(r.db.scholarships, func(x models.Scholarship) bool { return x.ID == id })
	if i < 0 {
		return models.Scholarship{}, ErrNotFound
	}
	updated, err := applyPatch(r.db.scholarships[i], p)
	if err != nil {
		return models.Scholarship{}, err
	}
	r.db.scholarships[i] = updated
	return updated, nil
}

func (r memoryScholarships) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.db.write(ctx)()

	i := collection.IndexOf(r.db.scholarships, func(x models.Scholarship) bool { return x.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	r.db.scholarships = collection.RemoveAt(r.db.scholarships, i)
	return nil
}

func matchScholarship(s models.Scholarship, q models.ScholarshipQuery) bool {
	if q.Search != "" &&
		!containsFold(s.ScholarshipName, q.Search) &&
		!containsFold(s.UniversityName, q.Search) &&
		!containsFold(s.Degree, q.Search) {
		return false
	}
	if q.SubjectCategory != "" && s.SubjectCategory != q.SubjectCategory {
		return false
	}
	if q.ScholarshipCategory != "" && s.ScholarshipCategory != q.ScholarshipCategory {
		return false
	}
	if q.Degree != "" && s.Degree != q.Degree {
		return false
	}
	return true
}

// ── applications ─────────────────────────────────────────────────────────────

type memoryApplications struct{ db *memoryDB }

func (r memoryApplications) Create(ctx context.Context, a *models.Application) error {
	defer r.db.write(ctx)()

	dup := collection.IndexOf(r.db.applications, func(x models.Application) bool {
		return x.ScholarshipID == a.ScholarshipID && x.StudentEmail == a.StudentEmail
	})
	if dup >= 0 {
		return fmt.Errorf("%w: application %s/%s", ErrDuplicate, a.ScholarshipID, a.StudentEmail)
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.db.applications = append(r.db.applications, *a)
	return nil
}

func (r memoryApplications) FindByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	defer r.db.read(ctx)()

	if i := r.index(id); i >= 0 {
		return r.db.applications[i], nil
	}
	return models.Application{}, ErrNotFound
}

func (r memoryApplications) index(id primitive.ObjectID) int {
	return collection.IndexOf(r.db.applications, func(x models.Application) bool { return x.ID == id })
}

func (r memoryApplications) ListByStudent(ctx context.Context, email string) ([]models.Application, error) {
	return r.list(ctx, func(x models.Application) bool { return x.StudentEmail == email }), nil
}

func (r memoryApplications) All(ctx context.Context) ([]models.Application, error) {
	return r.list(ctx, func(models.Application) bool { return true }), nil
}

func (r memoryApplications) list(ctx context.Context, match func(models.Application) bool) []models.Application {
	unlock := r.db.read(ctx)
	out := collection.Filter(r.db.applications, match)
	unlock()

	newestBy(out,
		func(a models.Application) time.Time { return a.AppliedAt },
		func(a models.Application) primitive.ObjectID { return a.ID })
	return out
}

func (r memoryApplications) Update(ctx context.Context, id primitive.ObjectID, p models.ApplicationPatch) (models.Application, error) {
	return r.patch(ctx, id, p)
}

func (r memoryApplications) SetStatus(ctx context.Context, id primitive.ObjectID, s models.StatusChange) (models.Application, error) {
	return r.patch(ctx, id, s)
}

func (r memoryApplications) patch(ctx context.Context, id primitive.ObjectID, p interface{}) (models.Application, error) {
	defer r.db.write(ctx)()

	i := r.index(id)
	if i < 0 {
		return models.Application{}, ErrNotFound
	}
	updated, err := applyPatch(r.db.applications[i], p)
	if err != nil {
		return models.Application{}, err
	}
	r.db.applications[i] = updated
	return updated, nil
}

func (r memoryApplications) MarkPaid(ctx context.Context, id primitive.ObjectID, receipt models.PaymentReceipt) error {
	defer r.db.write(ctx)()

	i := r.index(id)
	if i < 0 || r.db.applications[i].PaymentStatus != models.PaymentPending {
		return ErrStale
	}
	a := &r.db.applications[i]
	tracking, paidAt := receipt.TrackingID, receipt.PaidAt
	a.PaymentStatus = receipt.PaymentStatus
	a.ApplicationStatus = receipt.ApplicationStatus
	a.TrackingID = &tracking
	a.TransactionID = receipt.TransactionID
	a.PaidAt = &paidAt
	return nil
}

func (r memoryApplications) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.db.write(ctx)()

	i := r.index(id)
	if i < 0 {
		return ErrNotFound
	}
	r.db.applications = collection.RemoveAt(r.db.applications, i)
	return nil
}

// ── reviews ──────────────────────────────────────────────────────────────────

type memoryReviews struct{ db *memoryDB }

func (r memoryReviews) Create(ctx context.Context, rv *models.Review) error {
	defer r.db.write(ctx)()

	dup := collection.IndexOf(r.db.reviews, func(x models.Review) bool {
		return x.ScholarshipID == rv.ScholarshipID && x.StudentEmail == rv.StudentEmail
	})
	if dup >= 0 {
		return fmt.Errorf("%w: review %s/%s", ErrDuplicate, rv.ScholarshipID, rv.StudentEmail)
	}
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	r.db.reviews = append(r.db.reviews, *rv)
	return nil
}

func (r memoryReviews) index(id primitive.ObjectID) int {
	return collection.IndexOf(r.db.reviews, func(x models.Review) bool { return x.ID == id })
}

func (r memoryReviews) FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	defer r.db.read(ctx)()

	if i := r.index(id); i >= 0 {
		return r.db.reviews[i], nil
	}
	return models.Review{}, ErrNotFound
}

func (r memoryReviews) ListByStudent(ctx context.Context, email string) ([]models.Review, error) {
	return r.list(ctx, func(x models.Review) bool { return x.StudentEmail == email },
		func(x models.Review) time.Time { return x.ReviewDate }), nil
}

func (r memoryReviews) ListByScholarshipName(ctx context.Context, name string) ([]models.Review, error) {
	return r.list(ctx, func(x models.Review) bool { return x.ScholarshipName == name },
		func(x models.Review) time.Time { return x.CreatedAt }), nil
}

func (r memoryReviews) All(ctx context.Context) ([]models.Review, error) {
	return r.list(ctx, func(models.Review) bool { return true },
		func(x models.Review) time.Time { return x.CreatedAt }), nil
}

func (r memoryReviews) list(ctx context.Context, match func(models.Review) bool, by func(models.Review) time.Time) []models.Review {
	unlock := r.db.read(ctx)
	out := collection.Filter(r.db.reviews, match)
	unlock()

	newestBy(out, by, func(x models.Review) primitive.ObjectID { return x.ID })
	return out
}

func (r memoryReviews) Update(ctx context.Context, id primitive.ObjectID, p models.ReviewPatch) (models.Review, error) {
	defer r.db.write(ctx)()

	i := r.index(id)
	if i < 0 {
		return models.Review{}, ErrNotFound
	}
	updated, err := applyPatch(r.db.reviews[i], p)
	if err != nil {
		return models.Review{}, err
	}
	r.db.reviews[i] = updated
	return updated, nil
}

func (r memoryReviews) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.db.write(ctx)()

	i := r.index(id)
	if i < 0 {
		return ErrNotFound
	}
	r.db.reviews = collection.RemoveAt(r.db.reviews, i)
	return nil
}

// ── payments ─────────────────────────────────────────────────────────────────

type memoryPayments struct{ db *memoryDB }

func (r memoryPayments) Create(ctx context.Context, p *models.Payment) error {
	defer r.db.write(ctx)()

	if collection.IndexOf(r.db.payments, func(x models.Payment) bool { return x.ApplicationID == p.ApplicationID }) >= 0 {
		return fmt.Errorf("%w: payment for %s", ErrDuplicate, p.ApplicationID)
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.db.payments = append(r.db.payments, *p)
	return nil
}

func (r memoryPayments) FindByApplication(ctx context.Context, applicationID string) (models.Payment, error) {
	defer r.db.read(ctx)()

	if i := collection.IndexOf(r.db.payments, func(x models.Payment) bool { return x.ApplicationID == applicationID }); i >= 0 {
		return r.db.payments[i], nil
	}
	return models.Payment{}, ErrNotFound
}
