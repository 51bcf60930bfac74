package repositories

import (
	"context"

	"github.com/scholarstream/scholarstream/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoApplications struct {
	col *mongo.Collection
}

// Create fails with ErrDuplicate when the student already applied to the
// same scholarship.
func (r *mongoApplications) Create(ctx context.Context, a *models.Application) error {
	res, err := r.col.InsertOne(ctx, a)
	if err != nil {
		return translate(err)
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoApplications) FindByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	return findOne[models.Application](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoApplications) ListByStudent(ctx context.Context, email string) ([]models.Application, error) {
	return findAll[models.Application](ctx, r.col, bson.M{"studentEmail": email}, newestFirst("appliedAt"))
}

func (r *mongoApplications) All(ctx context.Context) ([]models.Application, error) {
	return findAll[models.Application](ctx, r.col, bson.M{}, newestFirst("appliedAt"))
}

func (r *mongoApplications) Update(ctx context.Context, id primitive.ObjectID, p models.ApplicationPatch) (models.Application, error) {
	return patchOne[models.Application](ctx, r.col, bson.M{"_id": id}, p)
}

func (r *mongoApplications) SetStatus(ctx context.Context, id primitive.ObjectID, s models.StatusChange) (models.Application, error) {
	return patchOne[models.Application](ctx, r.col, bson.M{"_id": id}, s)
}

func (r *mongoApplications) MarkPaid(ctx context.Context, id primitive.ObjectID, receipt models.PaymentReceipt) error {
	filter := bson.M{"_id": id, "paymentStatus": models.PaymentPending}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": receipt})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStale
	}
	return nil
}

func (r *mongoApplications) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}
