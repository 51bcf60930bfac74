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

type ApplicationService struct {
	apps         repositories.ApplicationRepository
	scholarships repositories.ScholarshipRepository
	bus          *event.Bus
	now          Clock
}

func NewApplicationService(apps repositories.ApplicationRepository, scholarships repositories.ScholarshipRepository, bus *event.Bus, now Clock) *ApplicationService {
	return &ApplicationService{apps: apps, scholarships: scholarships, bus: bus, now: now}
}

// NewApplication is the submission payload. Catalog fields are copied from
// the scholarship, not trusted from the body.
type NewApplication struct {
	ScholarshipID     string `json:"scholarshipId"     validate:"required,objectid"`
	StudentName       string `json:"studentName"       validate:"max=120"`
	Phone             string `json:"phone"             validate:"max=40"`
	Photo             string `json:"photo"             validate:"omitempty,url"`
	Address           string `json:"address"           validate:"max=300"`
	Gender            string `json:"gender"            validate:"max=20"`
	PreviousEducation string `json:"previousEducation" validate:"max=300"`
	SSCResult         string `json:"sscResult"         validate:"max=20"`
	HSCResult         string `json:"hscResult"         validate:"max=20"`
	StudyGap          string `json:"studyGap"          validate:"max=40"`
}

// StatusUpdate is a moderator's decision.
type StatusUpdate struct {
	Status   string  `json:"status"   validate:"required"`
	Feedback *string `json:"feedback" validate:"omitempty,max=1000"`
}

// Submit files an application for email. A second application to the same
// scholarship is rejected by the store's unique index.
func (s *ApplicationService) Submit(ctx context.Context, email string, in NewApplication) (models.Application, error) {
	sid, err := parseID(in.ScholarshipID)
	if err != nil {
		return models.Application{}, err
	}
	sch, err := s.scholarships.FindByID(ctx, sid)
	if err != nil {
		return models.Application{}, storeErr(err, "Scholarship not found")
	}

	a := models.Application{
		ScholarshipID:       sch.ID.Hex(),
		ScholarshipName:     sch.ScholarshipName,
		UniversityName:      sch.UniversityName,
		UniversityCountry:   sch.UniversityCountry,
		SubjectCategory:     sch.SubjectCategory,
		ScholarshipCategory: sch.ScholarshipCategory,
		Degree:              sch.Degree,
		ApplicationFees:     sch.ApplicationFees,
		ServiceCharge:       sch.ServiceCharge,
		StudentEmail:        email,
		StudentName:         in.StudentName,
		Phone:               in.Phone,
		Photo:               in.Photo,
		Address:             in.Address,
		Gender:              in.Gender,
		PreviousEducation:   in.PreviousEducation,
		SSCResult:           in.SSCResult,
		HSCResult:           in.HSCResult,
		StudyGap:            in.StudyGap,
		ApplicationStatus:   models.ApplicationPending,
		PaymentStatus:       models.PaymentPending,
		AppliedAt:           s.now().UTC(),
	}

	if err := s.apps.Create(ctx, &a); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Application{}, apperr.Conflict("Already applied!")
		}
		return models.Application{}, apperr.Internal(err)
	}

	s.bus.Publish(ctx, event.ApplicationSubmitted, a)
	return a, nil
}

// ListMine lists the applications of the caller. requested may only name
// the caller.
func (s *ApplicationService) ListMine(ctx context.Context, principal, requested string) ([]models.Application, error) {
	email, err := ownEmail(principal, requested)
	if err != nil {
		return nil, err
	}
	list, err := s.apps.ListByStudent(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// FindMine returns one of the caller's applications.
func (s *ApplicationService) FindMine(ctx context.Context, principal, id string) (models.Application, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Application{}, err
	}
	a, err := s.apps.FindByID(ctx, oid)
	if err != nil {
		return models.Application{}, storeErr(err, "Application not found")
	}
	if a.StudentEmail != principal {
		return models.Application{}, apperr.Forbidden("forbidden access")
	}
	return a, nil
}

func (s *ApplicationService) UpdateMine(ctx context.Context, principal, id string, p models.ApplicationPatch) (models.Application, error) {
	a, err := s.FindMine(ctx, principal, id)
	if err != nil {
		return models.Application{}, err
	}
	updated, err := s.apps.Update(ctx, a.ID, p)
	if err != nil {
		return models.Application{}, storeErr(err, "Application not found")
	}
	return updated, nil
}

func (s *ApplicationService) DeleteMine(ctx context.Context, principal, id string) error {
	a, err := s.FindMine(ctx, principal, id)
	if err != nil {
		return err
	}
	return storeErr(s.apps.Delete(ctx, a.ID), "Application not found")
}

func (s *ApplicationService) All(ctx context.Context) ([]models.Application, error) {
	list, err := s.apps.All(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// SetStatus applies any status; there is no enforced ordering.
func (s *ApplicationService) SetStatus(ctx context.Context, id string, in StatusUpdate) (models.Application, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Application{}, err
	}
	status, err := models.ParseApplicationStatus(in.Status)
	if err != nil {
		return models.Application{}, apperr.Invalid("Invalid status")
	}

	updated, err := s.apps.SetStatus(ctx, oid, models.StatusChange{ApplicationStatus: status, Feedback: in.Feedback})
	if err != nil {
		return models.Application{}, storeErr(err, "Application not found")
	}

	logger.WithCtx(ctx).Info("application status changed", "application_id", id, "status", in.Status)
	s.bus.Publish(ctx, event.ApplicationStatus, updated)
	return updated, nil
}
