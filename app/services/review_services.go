package services

import (
	"context"
	"errors"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"github.com/scholarstream/scholarstream/pkg/event"
	"github.com/scholarstream/scholarstream/pkg/logger"
)

type ReviewService struct {
	reviews      repositories.ReviewRepository
	scholarships repositories.ScholarshipRepository
	bus          *event.Bus
	now          Clock
}

func NewReviewService(reviews repositories.ReviewRepository, scholarships repositories.ScholarshipRepository, bus *event.Bus, now Clock) *ReviewService {
	return &ReviewService{reviews: reviews, scholarships: scholarships, bus: bus, now: now}
}

type NewReview struct {
	ScholarshipID string `json:"scholarshipId" validate:"required,objectid"`
	Rating        int    `json:"rating"        validate:"required,min=1,max=5"`
	Comment       string `json:"comment"       validate:"max=2000"`
	StudentName   string `json:"studentName"   validate:"max=120"`
	StudentImage  string `json:"studentImage"  validate:"omitempty,url"`
}

// Submit stores one review per (scholarship, student).
func (s *ReviewService) Submit(ctx context.Context, email string, in NewReview) (models.Review, error) {
	sid, err := parseID(in.ScholarshipID)
	if err != nil {
		return models.Review{}, err
	}
	sch, err := s.scholarships.FindByID(ctx, sid)
	if err != nil {
		return models.Review{}, storeErr(err, "Scholarship not found")
	}

	now := s.now().UTC()
	r := models.Review{
		ScholarshipID:   sch.ID.Hex(),
		ScholarshipName: sch.ScholarshipName,
		UniversityName:  sch.UniversityName,
		StudentName:     in.StudentName,
		StudentEmail:    email,
		StudentImage:    in.StudentImage,
		Rating:          in.Rating,
		Comment:         in.Comment,
		ReviewDate:      now,
		CreatedAt:       now,
	}

	if err := s.reviews.Create(ctx, &r); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Review{}, apperr.Conflict("Already reviewed!")
		}
		return models.Review{}, apperr.Internal(err)
	}

	s.bus.Publish(ctx, event.ReviewSubmitted, r)
	return r, nil
}

func (s *ReviewService) ListMine(ctx context.Context, principal, requested string) ([]models.Review, error) {
	email, err := ownEmail(principal, requested)
	if err != nil {
		return nil, err
	}
	list, err := s.reviews.ListByStudent(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *ReviewService) ListForScholarship(ctx context.Context, name string) ([]models.Review, error) {
	list, err := s.reviews.ListByScholarshipName(ctx, name)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *ReviewService) All(ctx context.Context) ([]models.Review, error) {
	list, err := s.reviews.All(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *ReviewService) findMine(ctx context.Context, principal, id string) (models.Review, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Review{}, err
	}
	r, err := s.reviews.FindByID(ctx, oid)
	if err != nil {
		return models.Review{}, storeErr(err, "Review not found")
	}
	if r.StudentEmail != principal {
		return models.Review{}, apperr.Forbidden("forbidden access")
	}
	return r, nil
}

func (s *ReviewService) UpdateMine(ctx context.Context, principal, id string, p models.ReviewPatch) (models.Review, error) {
	r, err := s.findMine(ctx, principal, id)
	if err != nil {
		return models.Review{}, err
	}
	updated, err := s.reviews.Update(ctx, r.ID, p)
	if err != nil {
		return models.Review{}, storeErr(err, "Review not found")
	}
	return updated, nil
}

func (s *ReviewService) DeleteMine(ctx context.Context, principal, id string) error {
	r, err := s.findMine(ctx, principal, id)
	if err != nil {
		return err
	}
	return storeErr(s.reviews.Delete(ctx, r.ID), "Review not found")
}

// Delete removes any review; moderators only.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, oid); err != nil {
		return storeErr(err, "Review not found")
	}
	logger.WithCtx(ctx).Info("review removed", "review_id", id)
	return nil
}
