package seeders

import (
	"context"
	"time"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
)

func init() {
	Register("scholarships", seedScholarships)
}

// seedScholarships fills an empty catalog with a few listings.
func seedScholarships(ctx context.Context, store *repositories.Store) error {
	existing, err := store.Scholarships.All(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()
	deadline := now.AddDate(0, 3, 0)
	samples := []models.Scholarship{
		{
			ScholarshipName:     "Global Engineering Excellence",
			UniversityName:      "Technical University of Munich",
			UniversityCountry:   "Germany",
			UniversityCity:      "Munich",
			UniversityWorldRank: 37,
			SubjectCategory:     "Engineering",
			ScholarshipCategory: "Full fund",
			Degree:              "Masters",
			ApplicationFees:     40,
			ServiceCharge:       10,
			ApplicationDeadline: &deadline,
		},
		{
			ScholarshipName:     "Commonwealth Agriculture Award",
			UniversityName:      "University of Melbourne",
			UniversityCountry:   "Australia",
			UniversityCity:      "Melbourne",
			UniversityWorldRank: 14,
			SubjectCategory:     "Agriculture",
			ScholarshipCategory: "Partial",
			Degree:              "Bachelor",
			ApplicationFees:     25,
			ServiceCharge:       5,
			ApplicationDeadline: &deadline,
		},
		{
			ScholarshipName:     "Doctoral Fellowship in Medicine",
			UniversityName:      "University of Toronto",
			UniversityCountry:   "Canada",
			UniversityCity:      "Toronto",
			UniversityWorldRank: 21,
			SubjectCategory:     "Doctor",
			ScholarshipCategory: "Self-fund",
			Degree:              "Diploma",
			ApplicationFees:     0,
			ServiceCharge:       15,
			ApplicationDeadline: &deadline,
		},
	}

	for i := range samples {
		samples[i].PostDate = now.Add(-time.Duration(i) * time.Hour)
		samples[i].PostedUserEmail = "seeder@scholarstream.local"
		if err := store.Scholarships.Create(ctx, &samples[i]); err != nil {
			return err
		}
	}
	return nil
}
