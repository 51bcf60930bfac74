package repositories

import (
	"context"
	"regexp"

	"github.com/scholarstream/scholarstream/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoScholarships struct {
	col *mongo.Collection
}

func (r *mongoScholarships) Create(ctx context.Context, s *models.Scholarship) error {
	res, err := r.col.InsertOne(ctx, s)
	if err != nil {
		return translate(err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoScholarships) FindByID(ctx context.Context, id primitive.ObjectID) (models.Scholarship, error) {
	return findOne[models.Scholarship](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoScholarships) All(ctx context.Context) ([]models.Scholarship, error) {
	return findAll[models.Scholarship](ctx, r.col, bson.M{}, newestFirst("postDate"))
}

func (r *mongoScholarships) Search(ctx context.Context, q models.ScholarshipQuery) ([]models.Scholarship, error) {
	return findAll[models.Scholarship](ctx, r.col, scholarshipFilter(q), options.Find().SetSort(scholarshipSort(q)))
}

func (r *mongoScholarships) Latest(ctx context.Context, limit int) ([]models.Scholarship, error) {
	return findAll[models.Scholarship](ctx, r.col, bson.M{}, newestFirst("postDate").SetLimit(int64(limit)))
}

func (r *mongoScholarships) Update(ctx context.Context, id primitive.ObjectID, p models.ScholarshipPatch) (models.Scholarship, error) {
	return patchOne[models.Scholarship](ctx, r.col, bson.M{"_id": id}, p)
}

func (r *mongoScholarships) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

// scholarshipFilter turns a query into a Mongo filter. The search term is
// escaped so user input is always matched literally.
func scholarshipFilter(q models.ScholarshipQuery) bson.M {
	filter := bson.M{}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"scholarshipName": pattern},
			bson.M{"universityName": pattern},
			bson.M{"degree": pattern},
		}
	}
	if q.SubjectCategory != "" {
		filter["subjectCategory"] = q.SubjectCategory
	}
	if q.ScholarshipCategory != "" {
		filter["scholarshipCategory"] = q.ScholarshipCategory
	}
	if q.Degree != "" {
		filter["degree"] = q.Degree
	}

	return filter
}

func scholarshipSort(q models.ScholarshipQuery) bson.D {
	dir := -1
	if q.Ascending {
		dir = 1
	}
	return bson.D{{Key: q.SortField, Value: dir}, {Key: "_id", Value: dir}}
}
