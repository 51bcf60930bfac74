package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockStore(mt *mtest.T) *Store {
	return NewMongoStore(mt.DB)
}

func TestMongo_DuplicateEmailIsErrDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: email_1",
		}))

		err := mockStore(mt).Users.Create(context.Background(), &models.User{Email: "ana@example.com"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestMongo_FindOneMissingIsErrNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := mockStore(mt).Users.FindByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongo_MarkPaidRequiresPending(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()
	receipt := models.PaymentReceipt{
		PaymentStatus:     models.PaymentPaid,
		ApplicationStatus: models.ApplicationProcessing,
		TrackingID:        "PRCL-20250314-ABCDEF",
		TransactionID:     "pi_1",
		PaidAt:            time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	mt.Run("already paid", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := mockStore(mt).Applications.MarkPaid(context.Background(), id, receipt)
		assert.ErrorIs(mt, err, ErrStale)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "pending", evt.Command.Lookup("updates", "0", "q", "paymentStatus").StringValue())
		assert.Equal(mt, id, evt.Command.Lookup("updates", "0", "q", "_id").ObjectID())
	})

	mt.Run("pending", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := mockStore(mt).Applications.MarkPaid(context.Background(), id, receipt)
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		set := evt.Command.Lookup("updates", "0", "u", "$set")
		assert.Equal(mt, "PRCL-20250314-ABCDEF", set.Document().Lookup("trackingId").StringValue())
		assert.Equal(mt, "processing", set.Document().Lookup("applicationStatus").StringValue())
	})
}

func TestMongo_PatchSetsOnlyProvidedFields(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("profile", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "ana@example.com"},
			{Key: "name", Value: "Ana Lima"},
			{Key: "role", Value: "Student"},
		}}))

		name := "Ana Lima"
		got, err := mockStore(mt).Users.UpdateProfile(context.Background(), "ana@example.com", models.ProfileUpdate{Name: &name})
		require.NoError(mt, err)
		assert.Equal(mt, "Ana Lima", got.Name)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		set := evt.Command.Lookup("update", "$set").Document()
		assert.Equal(mt, "Ana Lima", set.Lookup("name").StringValue())
		_, err = set.LookupErr("photo")
		assert.Error(mt, err)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		name := "Ghost"
		_, err := mockStore(mt).Users.UpdateProfile(context.Background(), "ghost@example.com", models.ProfileUpdate{Name: &name})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestTransactionsUnsupported(t *testing.T) {
	standalone := mongo.CommandError{
		Code:    illegalOperation,
		Name:    "IllegalOperation",
		Message: "Transaction numbers are only allowed on a replica set member or mongos",
	}
	assert.True(t, transactionsUnsupported(standalone))
	assert.True(t, transactionsUnsupported(fmt.Errorf("insert payment: %w", standalone)))

	assert.False(t, transactionsUnsupported(nil))
	assert.False(t, transactionsUnsupported(mongo.CommandError{Code: illegalOperation, Message: "other"}))
	assert.False(t, transactionsUnsupported(mongo.CommandError{Code: 11000, Message: "duplicate"}))
}
