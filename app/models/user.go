package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account, keyed by email.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"       json:"_id"`
	Name      string             `bson:"name"                json:"name"`
	Email     string             `bson:"email"               json:"email"`
	Photo     string             `bson:"photo,omitempty"     json:"photo,omitempty"`
	Cover     string             `bson:"cover,omitempty"     json:"cover,omitempty"`
	Role      Role               `bson:"role"                json:"role"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// ProfileUpdate holds the self-service profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name  *string `bson:"name,omitempty"  json:"name,omitempty"`
	Photo *string `bson:"photo,omitempty" json:"photo,omitempty"`
	Cover *string `bson:"cover,omitempty" json:"cover,omitempty"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Photo == nil && p.Cover == nil
}
