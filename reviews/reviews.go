package reviews

import (
	"encoding/json"
	"net/http"
	"time"

	"platera/db"
	"platera/models"
	"platera/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewView struct {
	ID        primitive.ObjectID `json:"id"`
	Author    models.AuthorView  `json:"author"`
	Content   string             `json:"content"`
	Rating    int                `json:"rating"`
	CreatedAt time.Time          `json:"createdAt"`
	IsOwn     bool               `json:"isOwn,omitempty"`
}

func CreateReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(ident.ID)

	var req struct {
		Content string `json:"content"`
		Rating  int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" || req.Rating == 0 {
		utils.Fail(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		utils.Fail(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	review := models.Review{
		UserID:    userID,
		Content:   req.Content,
		Rating:    req.Rating,
		CreatedAt: time.Now(),
	}

	res, err := db.ReviewsCollection.InsertOne(r.Context(), review)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	review.ID = res.InsertedID.(primitive.ObjectID)

	utils.Success(w, http.StatusCreated, "New review is successfully created", review)
}

func GetReviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cursor, err := db.ReviewsCollection.Find(r.Context(), bson.M{})
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cursor.Close(r.Context())

	var reviews []models.Review
	if err := cursor.All(r.Context(), &reviews); err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	ids := make([]primitive.ObjectID, 0, len(reviews))
	seen := make(map[primitive.ObjectID]bool)
	for _, rev := range reviews {
		if !seen[rev.UserID] {
			seen[rev.UserID] = true
			ids = append(ids, rev.UserID)
		}
	}

	authors := make(map[primitive.ObjectID]models.AuthorView, len(ids))
	if len(ids) > 0 {
		userCursor, err := db.UserCollection.Find(r.Context(), bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer userCursor.Close(r.Context())

		var users []models.User
		if err := userCursor.All(r.Context(), &users); err != nil {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, u := range users {
			authors[u.ID] = models.AuthorView{
				UserName:   u.UserName,
				FirstName:  u.FirstName,
				LastName:   u.LastName,
				ProfilePic: u.ProfilePic,
			}
		}
	}

	// Listing is public; a resolved identity additionally gets its own
	// reviews flagged.
	var callerID primitive.ObjectID
	if ident, ok := utils.IdentityFromContext(r.Context()); ok {
		callerID, _ = primitive.ObjectIDFromHex(ident.ID)
	}

	views := make([]reviewView, 0, len(reviews))
	for _, rev := range reviews {
		views = append(views, reviewView{
			ID:        rev.ID,
			Author:    authors[rev.UserID],
			Content:   rev.Content,
			Rating:    rev.Rating,
			CreatedAt: rev.CreatedAt,
			IsOwn:     !callerID.IsZero() && rev.UserID == callerID,
		})
	}

	utils.Success(w, http.StatusOK, "Reviews fetched", views)
}
