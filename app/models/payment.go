package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an append-only record of a completed checkout. ApplicationID
// is the correlation token and is unique across the collection.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"  json:"_id"`
	ApplicationID string             `bson:"applicationId"  json:"applicationId"`
	ScholarshipID string             `bson:"scholarshipId"  json:"scholarshipId"`
	CustomerEmail string             `bson:"customerEmail"  json:"customerEmail"`
	Amount        float64            `bson:"amount"         json:"amount"`
	Currency      string             `bson:"currency"       json:"currency"`
	Gateway       string             `bson:"gateway"        json:"gateway"`
	SessionID     string             `bson:"sessionId"      json:"sessionId"`
	TransactionID string             `bson:"transactionId"  json:"transactionId"`
	TrackingID    string             `bson:"trackingId"     json:"trackingId"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus"  json:"paymentStatus"`
	PaidAt        time.Time          `bson:"paidAt"         json:"paidAt"`
}
