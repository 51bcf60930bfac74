package repositories

import (
	"context"

	"github.com/scholarstream/scholarstream/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoPayments struct {
	col *mongo.Collection
}

// Create fails with ErrDuplicate when the application already has a
// payment record.
func (r *mongoPayments) Create(ctx context.Context, p *models.Payment) error {
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return translate(err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoPayments) FindByApplication(ctx context.Context, applicationID string) (models.Payment, error) {
	return findOne[models.Payment](ctx, r.col, bson.M{"applicationId": applicationID})
}
