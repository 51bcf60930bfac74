package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index describes one index the service depends on.
type Index struct {
	Collection string
	Model      mongo.IndexModel
}

// Indexes lists the unique constraints that replace check-then-insert
// guards, plus the sort keys of the hot listings.
func Indexes() []Index {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}
	named := func(name string) *options.IndexOptions {
		return options.Index().SetName(name)
	}

	return []Index{
		{UsersCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("uniq_email")}},
		{ScholarshipsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "postDate", Value: -1}}, Options: named("post_date")}},
		{ApplicationsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "scholarshipId", Value: 1}, {Key: "studentEmail", Value: 1}},
			Options: unique("uniq_scholarship_student")}},
		{ApplicationsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "studentEmail", Value: 1}, {Key: "appliedAt", Value: -1}}, Options: named("student_applied")}},
		{ReviewsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "scholarshipId", Value: 1}, {Key: "studentEmail", Value: 1}},
			Options: unique("uniq_scholarship_student")}},
		{ReviewsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "scholarshipName", Value: 1}, {Key: "createdAt", Value: -1}}, Options: named("scholarship_created")}},
		{PaymentsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "applicationId", Value: 1}}, Options: unique("uniq_application")}},
	}
}

// EnsureIndexes creates every index in Indexes. Creating an index that
// already exists with the same keys is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range Indexes() {
		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, idx.Model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.Collection, err)
		}
	}
	return nil
}
