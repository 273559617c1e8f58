// Package engagement derives rating and comment totals for a recipe on
// demand. The numbers are never stored on the recipe document; they are
// recomputed from the comment thread on every read, with a short-lived redis
// cache in front.
package engagement

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"platera/db"
	"platera/models"
	"platera/rdx"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const cacheTTL = time.Minute

type Aggregate struct {
	AverageRating float64 `json:"averageRating"`
	TotalComments int     `json:"totalComments"`
}

// Compute is the pure aggregation: mean rating rounded to one decimal place,
// zero when there are no comments.
func Compute(comments []models.Comment) Aggregate {
	if len(comments) == 0 {
		return Aggregate{}
	}
	sum := 0
	for _, c := range comments {
		sum += c.Rating
	}
	avg := float64(sum) / float64(len(comments))
	return Aggregate{
		AverageRating: math.Round(avg*10) / 10,
		TotalComments: len(comments),
	}
}

// ForRecipe fetches the recipe's comments and aggregates them, consulting the
// cache first. Cost is linear in comment count, which is fine at this scale.
func ForRecipe(ctx context.Context, recipeID primitive.ObjectID) (Aggregate, error) {
	key := cacheKey(recipeID)
	if rdx.Conn != nil {
		if val, err := rdx.Conn.Get(ctx, key).Result(); err == nil && val != "" {
			var agg Aggregate
			if json.Unmarshal([]byte(val), &agg) == nil {
				return agg, nil
			}
		}
	}

	cursor, err := db.CommentsCollection.Find(ctx, bson.M{"recipeId": recipeID})
	if err != nil {
		return Aggregate{}, err
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return Aggregate{}, err
	}

	agg := Compute(comments)
	if rdx.Conn != nil {
		if data, err := json.Marshal(agg); err == nil {
			_ = rdx.Conn.Set(ctx, key, data, cacheTTL).Err()
		}
	}
	return agg, nil
}

// Invalidate drops the cached aggregate after a new comment lands.
func Invalidate(ctx context.Context, recipeID primitive.ObjectID) {
	if rdx.Conn != nil {
		_ = rdx.Conn.Del(ctx, cacheKey(recipeID)).Err()
	}
}

func cacheKey(recipeID primitive.ObjectID) string {
	return "engagement:" + recipeID.Hex()
}
