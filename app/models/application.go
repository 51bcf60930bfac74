package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus is the review state set by moderators. Any status may
// follow any other.
type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationProcessing ApplicationStatus = "processing"
	ApplicationApproved   ApplicationStatus = "approved"
	ApplicationRejected   ApplicationStatus = "rejected"
	ApplicationCompleted  ApplicationStatus = "completed"
)

// ParseApplicationStatus rejects values outside the known set.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case ApplicationPending, ApplicationProcessing, ApplicationApproved, ApplicationRejected, ApplicationCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// PaymentStatus moves from pending to paid exactly once.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Application is a student's request for one scholarship.
type Application struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"               json:"_id"`
	ScholarshipID       string             `bson:"scholarshipId"               json:"scholarshipId"`
	ScholarshipName     string             `bson:"scholarshipName"             json:"scholarshipName"`
	UniversityName      string             `bson:"universityName"              json:"universityName"`
	UniversityCountry   string             `bson:"universityCountry,omitempty" json:"universityCountry,omitempty"`
	SubjectCategory     string             `bson:"subjectCategory,omitempty"   json:"subjectCategory,omitempty"`
	ScholarshipCategory string             `bson:"scholarshipCategory,omitempty" json:"scholarshipCategory,omitempty"`
	Degree              string             `bson:"degree,omitempty"            json:"degree,omitempty"`
	ApplicationFees     float64            `bson:"applicationFees"             json:"applicationFees"`
	ServiceCharge       float64            `bson:"serviceCharge"               json:"serviceCharge"`

	StudentEmail      string `bson:"studentEmail"                json:"studentEmail"`
	StudentName       string `bson:"studentName,omitempty"       json:"studentName,omitempty"`
	Phone             string `bson:"phone,omitempty"             json:"phone,omitempty"`
	Photo             string `bson:"photo,omitempty"             json:"photo,omitempty"`
	Address           string `bson:"address,omitempty"           json:"address,omitempty"`
	Gender            string `bson:"gender,omitempty"            json:"gender,omitempty"`
	PreviousEducation string `bson:"previousEducation,omitempty" json:"previousEducation,omitempty"`
	SSCResult         string `bson:"sscResult,omitempty"         json:"sscResult,omitempty"`
	HSCResult         string `bson:"hscResult,omitempty"         json:"hscResult,omitempty"`
	StudyGap          string `bson:"studyGap,omitempty"          json:"studyGap,omitempty"`

	ApplicationStatus ApplicationStatus `bson:"applicationStatus"       json:"applicationStatus"`
	PaymentStatus     PaymentStatus     `bson:"paymentStatus"           json:"paymentStatus"`
	Feedback          string            `bson:"feedback,omitempty"      json:"feedback,omitempty"`
	AppliedAt         time.Time         `bson:"appliedAt"               json:"appliedAt"`
	TrackingID        *string           `bson:"trackingId"              json:"trackingId"`
	TransactionID     string            `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaidAt            *time.Time        `bson:"paidAt,omitempty"        json:"paidAt,omitempty"`
}

// Charge is the amount owed at checkout.
func (a Application) Charge() float64 {
	return a.ApplicationFees + a.ServiceCharge
}

// ApplicationPatch holds the student-editable fields.
type ApplicationPatch struct {
	StudentName       *string `bson:"studentName,omitempty"       json:"studentName,omitempty"`
	Phone             *string `bson:"phone,omitempty"             json:"phone,omitempty"`
	Photo             *string `bson:"photo,omitempty"             json:"photo,omitempty"`
	Address           *string `bson:"address,omitempty"           json:"address,omitempty"`
	Gender            *string `bson:"gender,omitempty"            json:"gender,omitempty"`
	PreviousEducation *string `bson:"previousEducation,omitempty" json:"previousEducation,omitempty"`
	SSCResult         *string `bson:"sscResult,omitempty"         json:"sscResult,omitempty"`
	HSCResult         *string `bson:"hscResult,omitempty"         json:"hscResult,omitempty"`
	StudyGap          *string `bson:"studyGap,omitempty"          json:"studyGap,omitempty"`
}

// StatusChange is what a moderator may set on an application.
type StatusChange struct {
	ApplicationStatus ApplicationStatus `bson:"applicationStatus"`
	Feedback          *string           `bson:"feedback,omitempty"`
}

// PaymentReceipt is written onto an application when checkout completes.
type PaymentReceipt struct {
	PaymentStatus     PaymentStatus     `bson:"paymentStatus"`
	ApplicationStatus ApplicationStatus `bson:"applicationStatus"`
	TrackingID        string            `bson:"trackingId"`
	TransactionID     string            `bson:"transactionId"`
	PaidAt            time.Time         `bson:"paidAt"`
}
