package comments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"platera/db"
	"platera/engagement"
	"platera/media"
	"platera/models"
	"platera/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Media is wired in main before the router starts serving.
var Media *media.Manager

const imageFolder = "comments"

type replyView struct {
	Author      models.AuthorView `json:"author"`
	CommentText string            `json:"commentText"`
	CreatedAt   time.Time         `json:"createdAt"`
	IsOwn       bool              `json:"isOwn,omitempty"`
}

type commentView struct {
	ID          primitive.ObjectID `json:"id"`
	Author      models.AuthorView  `json:"author"`
	Rating      int                `json:"rating"`
	CommentText string             `json:"commentText"`
	Image       *models.MediaRef   `json:"image,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	Replies     []replyView        `json:"replies"`
	IsOwn       bool               `json:"isOwn,omitempty"`
}

func parseRating(raw string) (int, error) {
	rating, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("Rating must be a number between 1 and 5")
	}
	if rating < 1 || rating > 5 {
		return 0, errors.New("Rating must be between 1 and 5")
	}
	return rating, nil
}

func CreateComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(ident.ID)

	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	if err := r.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	commentText := r.FormValue("commentText")
	if commentText == "" || r.FormValue("rating") == "" {
		utils.Fail(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}
	rating, err := parseRating(r.FormValue("rating"))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := db.RecipeCollection.FindOne(r.Context(), bson.M{"_id": recipeID}).Err(); err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	comment := models.Comment{
		RecipeID:    recipeID,
		UserID:      userID,
		Rating:      rating,
		CommentText: commentText,
		CreatedAt:   time.Now(),
		Replies:     []models.Reply{},
	}

	imageData, hasImage, err := utils.ReadFormFile(r, "image")
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Error reading image")
		return
	}
	if hasImage {
		ref, err := Media.Upload(r.Context(), imageData, imageFolder, commentText)
		if err != nil {
			if errors.Is(err, media.ErrNotImage) {
				utils.Fail(w, http.StatusBadRequest, err.Error())
			} else {
				utils.Fail(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		comment.Image = &ref
	}

	res, err := db.CommentsCollection.InsertOne(r.Context(), comment)
	if err != nil {
		if comment.Image != nil {
			Media.Remove(r.Context(), comment.Image.Alias)
		}
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)

	engagement.Invalidate(r.Context(), recipeID)

	utils.Success(w, http.StatusCreated, "New comment is successfully created", comment)
}

func GetComments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	// Insertion order, for the thread and for replies within it.
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := db.CommentsCollection.Find(r.Context(), bson.M{"recipeId": recipeID}, opts)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cursor.Close(r.Context())

	var comments []models.Comment
	if err := cursor.All(r.Context(), &comments); err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	authors, err := resolveAuthors(r, comments)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Anonymous callers get the thread as-is; a resolved identity additionally
	// gets its own entries flagged.
	var callerID primitive.ObjectID
	if ident, ok := utils.IdentityFromContext(r.Context()); ok {
		callerID, _ = primitive.ObjectIDFromHex(ident.ID)
	}

	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		view := commentView{
			ID:          c.ID,
			Author:      authors[c.UserID],
			Rating:      c.Rating,
			CommentText: c.CommentText,
			Image:       c.Image,
			CreatedAt:   c.CreatedAt,
			Replies:     make([]replyView, 0, len(c.Replies)),
			IsOwn:       !callerID.IsZero() && c.UserID == callerID,
		}
		for _, reply := range c.Replies {
			view.Replies = append(view.Replies, replyView{
				Author:      authors[reply.UserID],
				CommentText: reply.CommentText,
				CreatedAt:   reply.CreatedAt,
				IsOwn:       !callerID.IsZero() && reply.UserID == callerID,
			})
		}
		views = append(views, view)
	}

	utils.Success(w, http.StatusOK, "Comments fetched", views)
}

// resolveAuthors loads display fields for every distinct author in the thread
// with a single query.
func resolveAuthors(r *http.Request, comments []models.Comment) (map[primitive.ObjectID]models.AuthorView, error) {
	ids := make([]primitive.ObjectID, 0)
	seen := make(map[primitive.ObjectID]bool)
	add := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range comments {
		add(c.UserID)
		for _, reply := range c.Replies {
			add(reply.UserID)
		}
	}

	authors := make(map[primitive.ObjectID]models.AuthorView, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}

	cursor, err := db.UserCollection.Find(r.Context(), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(r.Context())

	var users []models.User
	if err := cursor.All(r.Context(), &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		authors[u.ID] = models.AuthorView{
			UserName:   u.UserName,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			ProfilePic: u.ProfilePic,
		}
	}
	return authors, nil
}

// ReplyToComment appends a reply to an existing comment. Replies carry no
// rating and any authenticated user may reply.
func ReplyToComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(ident.ID)

	commentID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Comment not found")
		return
	}

	var req struct {
		CommentText string `json:"commentText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CommentText == "" {
		utils.Fail(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}

	reply := models.Reply{
		UserID:      userID,
		CommentText: req.CommentText,
		CreatedAt:   time.Now(),
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Comment
	err = db.CommentsCollection.FindOneAndUpdate(r.Context(),
		bson.M{"_id": commentID},
		bson.M{"$push": bson.M{"replies": reply}},
		after,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		utils.Fail(w, http.StatusNotFound, "Comment not found")
		return
	}
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusCreated, "Reply is successfully created", updated)
}
