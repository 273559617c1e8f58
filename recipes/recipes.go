package recipes

import (
	"encoding/json"
	"errors"
	"net/http"
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

const thumbnailFolder = "thumbnails"

var summaryProjection = bson.M{
	"title":            1,
	"shortDescription": 1,
	"thumbnail":        1,
	"createdAt":        1,
}

type detailView struct {
	models.Recipe
	engagement.Aggregate
}

type summaryView struct {
	models.RecipeSummary
	engagement.Aggregate
}

// parseIngredients decodes the wire representation: a JSON array of
// {quantity, description} entries, both required on every entry.
func parseIngredients(raw string) ([]models.Ingredient, error) {
	if raw == "" {
		return nil, errors.New("ingredients are required")
	}
	var ingredients []models.Ingredient
	if err := json.Unmarshal([]byte(raw), &ingredients); err != nil {
		return nil, errors.New("ingredients must be a JSON array of {quantity, description}")
	}
	if len(ingredients) == 0 {
		return nil, errors.New("ingredients are required")
	}
	for _, ing := range ingredients {
		if ing.Quantity == "" || ing.Description == "" {
			return nil, errors.New("every ingredient needs a quantity and a description")
		}
	}
	return ingredients, nil
}

func CreateRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	ownerID, err := primitive.ObjectIDFromHex(ident.ID)
	if err != nil {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	if err := r.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	title := r.FormValue("title")
	instructions := r.FormValue("instructions")
	category := r.FormValue("category")
	if title == "" || instructions == "" || category == "" {
		utils.Fail(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}
	if !models.ValidCategory(category) {
		utils.Fail(w, http.StatusBadRequest, "Unknown category")
		return
	}

	ingredients, err := parseIngredients(r.FormValue("ingredients"))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	// The thumbnail must be present before anything is uploaded.
	thumbData, hasThumb, err := utils.ReadFormFile(r, "thumbnail")
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Error reading thumbnail")
		return
	}
	if !hasThumb {
		utils.Fail(w, http.StatusBadRequest, "Thumbnail is required")
		return
	}

	thumb, err := Media.Upload(r.Context(), thumbData, thumbnailFolder, title)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			utils.Fail(w, http.StatusBadRequest, err.Error())
		} else {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	recipe := models.Recipe{
		UserID:           ownerID,
		Title:            title,
		ShortDescription: r.FormValue("shortDescription"),
		Ingredients:      ingredients,
		Instructions:     instructions,
		AdditionalInfo:   r.FormValue("additionalInfo"),
		Category:         category,
		Thumbnail:        thumb,
		Likes:            []primitive.ObjectID{},
		CreatedAt:        time.Now(),
	}

	res, err := db.RecipeCollection.InsertOne(r.Context(), recipe)
	if err != nil {
		// The blob is already up; drop it so a failed insert cannot orphan it.
		Media.Remove(r.Context(), thumb.Alias)
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	recipe.ID = res.InsertedID.(primitive.ObjectID)

	utils.Success(w, http.StatusCreated, "New recipe is successfully created", recipe)
}

func listSummaries(w http.ResponseWriter, r *http.Request, filter bson.M, opts *options.FindOptions, withStats bool) {
	if opts == nil {
		opts = options.Find()
	}
	opts.SetProjection(summaryProjection)

	cursor, err := db.RecipeCollection.Find(r.Context(), filter, opts)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cursor.Close(r.Context())

	var summaries []models.RecipeSummary
	if err := cursor.All(r.Context(), &summaries); err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]summaryView, 0, len(summaries))
	for _, s := range summaries {
		view := summaryView{RecipeSummary: s}
		if withStats {
			agg, err := engagement.ForRecipe(r.Context(), s.ID)
			if err != nil {
				utils.Fail(w, http.StatusInternalServerError, err.Error())
				return
			}
			view.Aggregate = agg
		}
		views = append(views, view)
	}

	utils.Success(w, http.StatusOK, "Recipes fetched", views)
}

func GetRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	listSummaries(w, r, bson.M{}, nil, true)
}

// GetLandingRecipes serves the public landing page: the latest recipes only.
func GetLandingRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	listSummaries(w, r, bson.M{}, db.OptionsFindLatest(6), false)
}

func GetMyRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	ownerID, _ := primitive.ObjectIDFromHex(ident.ID)
	listSummaries(w, r, bson.M{"userId": ownerID}, nil, true)
}

func GetRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("recipeId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	var recipe models.Recipe
	if err := db.RecipeCollection.FindOne(r.Context(), bson.M{"_id": recipeID}).Decode(&recipe); err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	agg, err := engagement.ForRecipe(r.Context(), recipeID)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusOK, "Recipe fetched", detailView{Recipe: recipe, Aggregate: agg})
}

// buildPatch assembles the partial update from the fields present in the
// form. Absent fields stay untouched; present-but-empty strings are written
// as sent.
func buildPatch(values map[string][]string) (bson.M, error) {
	patch := bson.M{}
	for _, field := range []string{"title", "shortDescription", "instructions", "additionalInfo"} {
		if v, ok := values[field]; ok && len(v) > 0 {
			patch[field] = v[0]
		}
	}
	if v, ok := values["category"]; ok && len(v) > 0 {
		if !models.ValidCategory(v[0]) {
			return nil, errors.New("Unknown category")
		}
		patch["category"] = v[0]
	}
	if v, ok := values["ingredients"]; ok && len(v) > 0 {
		ingredients, err := parseIngredients(v[0])
		if err != nil {
			return nil, err
		}
		patch["ingredients"] = ingredients
	}
	return patch, nil
}

func UpdateRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	ownerID, _ := primitive.ObjectIDFromHex(ident.ID)

	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("recipeId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	if err := r.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	// Owner-scoped lookup: a recipe that exists but belongs to someone else
	// answers exactly like one that does not exist.
	ownerFilter := bson.M{"_id": recipeID, "userId": ownerID}
	var existing models.Recipe
	if err := db.RecipeCollection.FindOne(r.Context(), ownerFilter).Decode(&existing); err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	var values map[string][]string
	if r.MultipartForm != nil {
		values = r.MultipartForm.Value
	}
	patch, err := buildPatch(values)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	thumbData, hasThumb, err := utils.ReadFormFile(r, "thumbnail")
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Error reading thumbnail")
		return
	}
	if hasThumb {
		hint := existing.Title
		if t, ok := patch["title"].(string); ok && t != "" {
			hint = t
		}
		thumb, err := Media.Replace(r.Context(), existing.Thumbnail.Alias, thumbData, thumbnailFolder, hint)
		if err != nil {
			if errors.Is(err, media.ErrNotImage) {
				utils.Fail(w, http.StatusBadRequest, err.Error())
			} else {
				utils.Fail(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		patch["thumbnail"] = thumb
	}

	if len(patch) == 0 {
		utils.Success(w, http.StatusOK, "Recipe is successfully updated", existing)
		return
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Recipe
	err = db.RecipeCollection.FindOneAndUpdate(r.Context(), ownerFilter, bson.M{"$set": patch}, after).Decode(&updated)
	if err != nil {
		if thumb, ok := patch["thumbnail"].(models.MediaRef); ok {
			Media.Remove(r.Context(), thumb.Alias)
		}
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusOK, "Recipe is successfully updated", updated)
}

func DeleteRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	ownerID, _ := primitive.ObjectIDFromHex(ident.ID)

	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("recipeId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	// Confirm the record exists and is owned before any blob work.
	ownerFilter := bson.M{"_id": recipeID, "userId": ownerID}
	var recipe models.Recipe
	if err := db.RecipeCollection.FindOne(r.Context(), ownerFilter).Decode(&recipe); err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	Media.Remove(r.Context(), recipe.Thumbnail.Alias)

	if _, err := db.RecipeCollection.DeleteOne(r.Context(), ownerFilter); err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusOK, "Recipe is successfully deleted", recipe)
}

// ToggleLike flips the caller's membership in the liker set. The set change
// and the counter increment land in one document update, so the counter can
// never drift from the set under concurrent likers.
func ToggleLike(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(ident.ID)

	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("recipeId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Recipe
	for attempt := 0; attempt < 3; attempt++ {
		// Unlike: only matches when the caller is currently in the set.
		err = db.RecipeCollection.FindOneAndUpdate(r.Context(),
			bson.M{"_id": recipeID, "likes": userID},
			bson.M{"$pull": bson.M{"likes": userID}, "$inc": bson.M{"likeCount": -1}},
			after,
		).Decode(&updated)
		if err == nil {
			utils.Success(w, http.StatusOK, "Recipe unliked", utils.M{"liked": false, "likeCount": updated.LikeCount})
			return
		}
		if err != mongo.ErrNoDocuments {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Like: only matches when the caller is not in the set yet.
		err = db.RecipeCollection.FindOneAndUpdate(r.Context(),
			bson.M{"_id": recipeID, "likes": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"likes": userID}, "$inc": bson.M{"likeCount": 1}},
			after,
		).Decode(&updated)
		if err == nil {
			utils.Success(w, http.StatusOK, "Recipe liked", utils.M{"liked": true, "likeCount": updated.LikeCount})
			return
		}
		if err != mongo.ErrNoDocuments {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Both conditional updates missed. Either the recipe is gone, or a
		// concurrent toggle by the same caller flipped the membership between
		// the two updates. Only the first case is a 404.
		if db.RecipeCollection.FindOne(r.Context(), bson.M{"_id": recipeID}).Err() != nil {
			utils.Fail(w, http.StatusNotFound, "Recipe not found")
			return
		}
	}

	utils.Fail(w, http.StatusConflict, "Could not update like, please retry")
}

// IncrementShare counts every call; unlike likes there is no dedup.
func IncrementShare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := primitive.ObjectIDFromHex(ps.ByName("recipeId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Recipe
	err = db.RecipeCollection.FindOneAndUpdate(r.Context(),
		bson.M{"_id": recipeID},
		bson.M{"$inc": bson.M{"shareCount": 1}},
		after,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusOK, "Share counted", utils.M{"shareCount": updated.ShareCount})
}
