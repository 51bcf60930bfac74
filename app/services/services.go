// Package services holds the business rules. Services take repository
// interfaces and return *apperr.Error values the HTTP layer maps to
// status codes.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// Cache is the read-through cache used for catalog reads.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Forget(ctx context.Context, keys ...string)
}

type noCache struct{}

func (noCache) Get(context.Context, string, interface{}) bool { return false }
func (noCache) Set(context.Context, string, interface{})      {}
func (noCache) Forget(context.Context, ...string)             {}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid("Invalid id")
	}
	return oid, nil
}

// storeErr turns repository sentinels into client errors; anything else is
// an internal failure.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(notFound)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err)
}

// ownEmail resolves the email filter of the "my-*" listings: empty means
// the caller, anything else must be the caller.
func ownEmail(principal, requested string) (string, error) {
	if requested == "" || requested == principal {
		return principal, nil
	}
	return "", apperr.Forbidden("forbidden access")
}
