package repositories

import (
	"context"

	"github.com/scholarstream/scholarstream/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoReviews struct {
	col *mongo.Collection
}

func (r *mongoReviews) Create(ctx context.Context, rv *models.Review) error {
	res, err := r.col.InsertOne(ctx, rv)
	if err != nil {
		return translate(err)
	}
	rv.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoReviews) FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	return findOne[models.Review](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoReviews) ListByStudent(ctx context.Context, email string) ([]models.Review, error) {
	return findAll[models.Review](ctx, r.col, bson.M{"studentEmail": email}, newestFirst("reviewDate"))
}

func (r *mongoReviews) ListByScholarshipName(ctx context.Context, name string) ([]models.Review, error) {
	return findAll[models.Review](ctx, r.col, bson.M{"scholarshipName": name}, newestFirst("createdAt"))
}

func (r *mongoReviews) All(ctx context.Context) ([]models.Review, error) {
	return findAll[models.Review](ctx, r.col, bson.M{}, newestFirst("createdAt"))
}

func (r *mongoReviews) Update(ctx context.Context, id primitive.ObjectID, p models.ReviewPatch) (models.Review, error) {
	return patchOne[models.Review](ctx, r.col, bson.M{"_id": id}, p)
}

func (r *mongoReviews) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}
