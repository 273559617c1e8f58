package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reply lives inside its comment document; replies have no independent
// lifecycle and no rating.
type Reply struct {
	UserID      primitive.ObjectID `bson:"user"        json:"userId"`
	CommentText string             `bson:"commentText" json:"commentText"`
	CreatedAt   time.Time          `bson:"createdAt"   json:"createdAt"`
}

type Comment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"   json:"id"`
	RecipeID    primitive.ObjectID `bson:"recipeId"        json:"recipeId"`
	UserID      primitive.ObjectID `bson:"userId"          json:"userId"`
	Rating      int                `bson:"rating"          json:"rating"`
	CommentText string             `bson:"commentText"     json:"commentText"`
	Image       *MediaRef          `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"       json:"createdAt"`
	Replies     []Reply            `bson:"replies"         json:"replies"`
}
