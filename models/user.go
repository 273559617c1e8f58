package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"          json:"id"`
	UserName     string               `bson:"userName"               json:"userName"`
	FirstName    string               `bson:"firstName,omitempty"    json:"firstName,omitempty"`
	LastName     string               `bson:"lastName,omitempty"     json:"lastName,omitempty"`
	Email        string               `bson:"email"                  json:"email"`
	Password     string               `bson:"password"               json:"-"`
	PhoneNumber  string               `bson:"phoneNumber,omitempty"  json:"phoneNumber,omitempty"`
	ProfilePic   MediaRef             `bson:"profilePic,omitempty"   json:"profilePic,omitempty"`
	SavedRecipes []primitive.ObjectID `bson:"savedRecipes,omitempty" json:"savedRecipes,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"              json:"createdAt"`
}

// AuthorView is the subset of user fields shown next to comments, replies and
// reviews.
type AuthorView struct {
	UserName   string   `bson:"userName"             json:"userName"`
	FirstName  string   `bson:"firstName,omitempty"  json:"firstName,omitempty"`
	LastName   string   `bson:"lastName,omitempty"   json:"lastName,omitempty"`
	ProfilePic MediaRef `bson:"profilePic,omitempty" json:"profilePic,omitempty"`
}
