package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ingredient struct {
	Quantity    string `bson:"quantity"    json:"quantity"`
	Description string `bson:"description" json:"description"`
}

var Categories = []string{
	"Appetizer",
	"Main Course",
	"Dessert",
	"Snack",
	"Beverage",
}

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

type Recipe struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"              json:"id"`
	UserID           primitive.ObjectID   `bson:"userId"                     json:"userId"`
	Title            string               `bson:"title"                      json:"title"`
	ShortDescription string               `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	Ingredients      []Ingredient         `bson:"ingredients"                json:"ingredients"`
	Instructions     string               `bson:"instructions"               json:"instructions"`
	AdditionalInfo   string               `bson:"additionalInfo,omitempty"   json:"additionalInfo,omitempty"`
	Category         string               `bson:"category"                   json:"category"`
	Thumbnail        MediaRef             `bson:"thumbnail"                  json:"thumbnail"`
	Likes            []primitive.ObjectID `bson:"likes"                      json:"likes"`
	LikeCount        int                  `bson:"likeCount"                  json:"likeCount"`
	ShareCount       int                  `bson:"shareCount"                 json:"shareCount"`
	CreatedAt        time.Time            `bson:"createdAt"                  json:"createdAt"`
}

// RecipeSummary is the projection used by list views; the full body stays out
// of lists.
type RecipeSummary struct {
	ID               primitive.ObjectID `bson:"_id"                        json:"id"`
	Title            string             `bson:"title"                      json:"title"`
	ShortDescription string             `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	Thumbnail        MediaRef           `bson:"thumbnail"                  json:"thumbnail"`
	CreatedAt        time.Time          `bson:"createdAt"                  json:"createdAt"`
}
