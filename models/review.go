package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a platform testimonial; it is not attached to a recipe.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId"        json:"userId"`
	Content   string             `bson:"content"       json:"content"`
	Rating    int                `bson:"rating"        json:"rating"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}
