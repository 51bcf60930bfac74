package services

import (
	"context"
	"strconv"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScholarshipService struct {
	scholarships repositories.ScholarshipRepository
	cache        Cache
	latestLimit  int
	now          Clock
}

// NewScholarshipService caches single reads and the latest listing in c;
// c may be nil.
func NewScholarshipService(repo repositories.ScholarshipRepository, c Cache, latestLimit int, now Clock) *ScholarshipService {
	if c == nil {
		c = noCache{}
	}
	return &ScholarshipService{scholarships: repo, cache: c, latestLimit: latestLimit, now: now}
}

func scholarshipKey(id string) string { return "scholarship:" + id }

func (s *ScholarshipService) latestKey() string { return "latest:" + strconv.Itoa(s.latestLimit) }

// Create stores a listing posted by email. PostDate defaults to now.
func (s *ScholarshipService) Create(ctx context.Context, email string, in models.Scholarship) (models.Scholarship, error) {
	in.ID = primitive.NilObjectID
	in.PostedUserEmail = email
	if in.PostDate.IsZero() {
		in.PostDate = s.now().UTC()
	}

	if err := s.scholarships.Create(ctx, &in); err != nil {
		return models.Scholarship{}, apperr.Internal(err)
	}
	s.cache.Forget(ctx, s.latestKey())
	return in, nil
}

func (s *ScholarshipService) Update(ctx context.Context, id string, p models.ScholarshipPatch) (models.Scholarship, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Scholarship{}, err
	}

	updated, err := s.scholarships.Update(ctx, oid, p)
	if err != nil {
		return models.Scholarship{}, storeErr(err, "Scholarship not found")
	}
	s.cache.Forget(ctx, scholarshipKey(id), s.latestKey())
	return updated, nil
}

func (s *ScholarshipService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.scholarships.Delete(ctx, oid); err != nil {
		return storeErr(err, "Scholarship not found")
	}
	s.cache.Forget(ctx, scholarshipKey(id), s.latestKey())
	return nil
}

func (s *ScholarshipService) All(ctx context.Context) ([]models.Scholarship, error) {
	list, err := s.scholarships.All(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *ScholarshipService) Search(ctx context.Context, q models.ScholarshipQuery) ([]models.Scholarship, error) {
	list, err := s.scholarships.Search(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *ScholarshipService) Latest(ctx context.Context) ([]models.Scholarship, error) {
	var list []models.Scholarship
	if s.cache.Get(ctx, s.latestKey(), &list) {
		return list, nil
	}

	list, err := s.scholarships.Latest(ctx, s.latestLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.cache.Set(ctx, s.latestKey(), list)
	return list, nil
}

func (s *ScholarshipService) Find(ctx context.Context, id string) (models.Scholarship, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Scholarship{}, err
	}

	var cached models.Scholarship
	if s.cache.Get(ctx, scholarshipKey(id), &cached) {
		return cached, nil
	}

	found, err := s.scholarships.FindByID(ctx, oid)
	if err != nil {
		return models.Scholarship{}, storeErr(err, "Scholarship not found")
	}
	s.cache.Set(ctx, scholarshipKey(id), found)
	return found, nil
}
