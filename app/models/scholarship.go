package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scholarship is a catalog listing.
type Scholarship struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"                 json:"_id"`
	ScholarshipName     string             `bson:"scholarshipName"               json:"scholarshipName"     validate:"required"`
	UniversityName      string             `bson:"universityName"                json:"universityName"      validate:"required"`
	UniversityImage     string             `bson:"universityImage,omitempty"     json:"universityImage,omitempty"`
	UniversityCountry   string             `bson:"universityCountry,omitempty"   json:"universityCountry,omitempty"`
	UniversityCity      string             `bson:"universityCity,omitempty"      json:"universityCity,omitempty"`
	UniversityWorldRank int                `bson:"universityWorldRank,omitempty" json:"universityWorldRank,omitempty" validate:"gte=0"`
	SubjectCategory     string             `bson:"subjectCategory"               json:"subjectCategory"`
	ScholarshipCategory string             `bson:"scholarshipCategory"           json:"scholarshipCategory"`
	Degree              string             `bson:"degree"                        json:"degree"`
	TuitionFees         float64            `bson:"tuitionFees,omitempty"         json:"tuitionFees,omitempty"   validate:"gte=0"`
	ApplicationFees     float64            `bson:"applicationFees"               json:"applicationFees"         validate:"gte=0"`
	ServiceCharge       float64            `bson:"serviceCharge,omitempty"       json:"serviceCharge,omitempty" validate:"gte=0"`
	ApplicationDeadline *time.Time         `bson:"applicationDeadline,omitempty" json:"applicationDeadline,omitempty"`
	PostDate            time.Time          `bson:"postDate"                      json:"postDate"`
	PostedUserEmail     string             `bson:"postedUserEmail,omitempty"     json:"postedUserEmail,omitempty"`
}

// ScholarshipPatch is a partial update; nil fields are left untouched.
type ScholarshipPatch struct {
	ScholarshipName     *string    `bson:"scholarshipName,omitempty"     json:"scholarshipName,omitempty"     validate:"omitempty,min=1"`
	UniversityName      *string    `bson:"universityName,omitempty"      json:"universityName,omitempty"      validate:"omitempty,min=1"`
	UniversityImage     *string    `bson:"universityImage,omitempty"     json:"universityImage,omitempty"`
	UniversityCountry   *string    `bson:"universityCountry,omitempty"   json:"universityCountry,omitempty"`
	UniversityCity      *string    `bson:"universityCity,omitempty"      json:"universityCity,omitempty"`
	UniversityWorldRank *int       `bson:"universityWorldRank,omitempty" json:"universityWorldRank,omitempty" validate:"omitempty,gte=0"`
	SubjectCategory     *string    `bson:"subjectCategory,omitempty"     json:"subjectCategory,omitempty"`
	ScholarshipCategory *string    `bson:"scholarshipCategory,omitempty" json:"scholarshipCategory,omitempty"`
	Degree              *string    `bson:"degree,omitempty"              json:"degree,omitempty"`
	TuitionFees         *float64   `bson:"tuitionFees,omitempty"         json:"tuitionFees,omitempty"         validate:"omitempty,gte=0"`
	ApplicationFees     *float64   `bson:"applicationFees,omitempty"     json:"applicationFees,omitempty"     validate:"omitempty,gte=0"`
	ServiceCharge       *float64   `bson:"serviceCharge,omitempty"       json:"serviceCharge,omitempty"       validate:"omitempty,gte=0"`
	ApplicationDeadline *time.Time `bson:"applicationDeadline,omitempty" json:"applicationDeadline,omitempty"`
	PostDate            *time.Time `bson:"postDate,omitempty"            json:"postDate,omitempty"`
}

// Sort fields accepted by the catalog search.
const (
	SortByPostDate        = "postDate"
	SortByApplicationFees = "applicationFees"
)

// ScholarshipQuery filters and orders a catalog search.
type ScholarshipQuery struct {
	Search              string
	SubjectCategory     string
	ScholarshipCategory string
	Degree              string
	SortField           string
	Ascending           bool
}

// NewScholarshipQuery normalizes raw query-string values: unknown sort
// fields fall back to postDate, and only "asc" selects ascending order.
func NewScholarshipQuery(search, subject, category, degree, sortField, sortOrder string) ScholarshipQuery {
	q := ScholarshipQuery{
		Search:              search,
		SubjectCategory:     subject,
		ScholarshipCategory: category,
		Degree:              degree,
		SortField:           SortByPostDate,
		Ascending:           sortOrder == "asc",
	}
	if sortField == SortByApplicationFees {
		q.SortField = SortByApplicationFees
	}
	return q
}
