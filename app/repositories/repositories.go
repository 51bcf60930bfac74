// Package repositories persists the domain models. Each collection has an
// interface with a MongoDB implementation and an in-memory one used by
// local runs (STORE_DRIVER=memory) and tests.
package repositories

import (
	"context"
	"errors"

	"github.com/scholarstream/scholarstream/app/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a conditional update matched nothing
	// because the document is no longer in the expected state.
	ErrStale = errors.New("record not in expected state")
)

// Collection names.
const (
	UsersCollection        = "users"
	ScholarshipsCollection = "scholarships"
	ApplicationsCollection = "applications"
	ReviewsCollection      = "reviews"
	PaymentsCollection     = "payments"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	All(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
	UpdateProfile(ctx context.Context, email string, p models.ProfileUpdate) (models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ScholarshipRepository interface {
	Create(ctx context.Context, s *models.Scholarship) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Scholarship, error)
	All(ctx context.Context) ([]models.Scholarship, error)
	Search(ctx context.Context, q models.ScholarshipQuery) ([]models.Scholarship, error)
	Latest(ctx context.Context, limit int) ([]models.Scholarship, error)
	Update(ctx context.Context, id primitive.ObjectID, p models.ScholarshipPatch) (models.Scholarship, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Application, error)
	ListByStudent(ctx context.Context, email string) ([]models.Application, error)
	All(ctx context.Context) ([]models.Application, error)
	Update(ctx context.Context, id primitive.ObjectID, p models.ApplicationPatch) (models.Application, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, s models.StatusChange) (models.Application, error)
	// MarkPaid applies the receipt only while paymentStatus is pending and
	// returns ErrStale otherwise.
	MarkPaid(ctx context.Context, id primitive.ObjectID, r models.PaymentReceipt) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error)
	ListByStudent(ctx context.Context, email string) ([]models.Review, error)
	ListByScholarshipName(ctx context.Context, name string) ([]models.Review, error)
	All(ctx context.Context) ([]models.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, p models.ReviewPatch) (models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByApplication(ctx context.Context, applicationID string) (models.Payment, error)
}

// Transactor runs fn so that every repository call made with the context
// it receives commits or aborts together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backing database.
type Store struct {
	Users        UserRepository
	Scholarships ScholarshipRepository
	Applications ApplicationRepository
	Reviews      ReviewRepository
	Payments     PaymentRepository
	Tx           Transactor

	ping func(ctx context.Context) error
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}
