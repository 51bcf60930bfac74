package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a student's rating of a scholarship.
type Review struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"            json:"_id"`
	ScholarshipID   string             `bson:"scholarshipId"            json:"scholarshipId"`
	ScholarshipName string             `bson:"scholarshipName"          json:"scholarshipName"`
	UniversityName  string             `bson:"universityName,omitempty" json:"universityName,omitempty"`
	StudentName     string             `bson:"studentName,omitempty"    json:"studentName,omitempty"`
	StudentEmail    string             `bson:"studentEmail"             json:"studentEmail"`
	StudentImage    string             `bson:"studentImage,omitempty"   json:"studentImage,omitempty"`
	Rating          int                `bson:"rating"                   json:"rating"`
	Comment         string             `bson:"comment"                  json:"comment"`
	ReviewDate      time.Time          `bson:"reviewDate"               json:"reviewDate"`
	CreatedAt       time.Time          `bson:"createdAt"                json:"createdAt"`
}

// ReviewPatch updates the reviewer-controlled fields.
type ReviewPatch struct {
	Rating  *int    `bson:"rating,omitempty"  json:"rating,omitempty"  validate:"omitempty,min=1,max=5"`
	Comment *string `bson:"comment,omitempty" json:"comment,omitempty" validate:"omitempty,max=2000"`
}
