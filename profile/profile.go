package profile

import (
	"errors"
	"net/http"

	"platera/db"
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

const pictureFolder = "profiles"

func GetProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := primitive.ObjectIDFromHex(ps.ByName("userId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Cannot find user")
		return
	}

	var user models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.Fail(w, http.StatusNotFound, "Cannot find user")
		return
	}

	utils.Success(w, http.StatusOK, "Profile fetched", user)
}

func EditProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	// A caller may only edit their own profile; anyone else gets the same
	// answer as for a missing user.
	if ps.ByName("userId") != ident.ID {
		utils.Fail(w, http.StatusNotFound, "Cannot find user")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(ident.ID)

	if err := r.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	var existing models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"_id": userID}).Decode(&existing); err != nil {
		utils.Fail(w, http.StatusNotFound, "Cannot find user")
		return
	}

	patch := bson.M{}
	var values map[string][]string
	if r.MultipartForm != nil {
		values = r.MultipartForm.Value
	}
	for _, field := range []string{"firstName", "lastName", "email", "phoneNumber"} {
		if v, ok := values[field]; ok && len(v) > 0 {
			patch[field] = v[0]
		}
	}

	picData, hasPic, err := utils.ReadFormFile(r, "profilePicture")
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Error reading profile picture")
		return
	}
	if hasPic {
		ref, err := Media.Replace(r.Context(), existing.ProfilePic.Alias, picData, pictureFolder, existing.UserName)
		if err != nil {
			if errors.Is(err, media.ErrNotImage) {
				utils.Fail(w, http.StatusBadRequest, err.Error())
			} else {
				utils.Fail(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		patch["profilePic"] = ref
	}

	if len(patch) == 0 {
		utils.Success(w, http.StatusOK, "Profile is successfully updated", existing)
		return
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err = db.UserCollection.FindOneAndUpdate(r.Context(), bson.M{"_id": userID}, bson.M{"$set": patch}, after).Decode(&updated)
	if err != nil {
		if ref, ok := patch["profilePic"].(models.MediaRef); ok {
			Media.Remove(r.Context(), ref.Alias)
		}
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusOK, "Profile is successfully updated", updated)
}

// SaveRecipe toggles the recipe in the caller's saved set.
func SaveRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	var updated models.User
	err = db.UserCollection.FindOneAndUpdate(r.Context(),
		bson.M{"_id": userID, "savedRecipes": recipeID},
		bson.M{"$pull": bson.M{"savedRecipes": recipeID}},
		after,
	).Decode(&updated)
	if err == nil {
		utils.Success(w, http.StatusOK, "Recipe unsaved", updated.SavedRecipes)
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := db.RecipeCollection.FindOne(r.Context(), bson.M{"_id": recipeID}).Err(); err != nil {
		utils.Fail(w, http.StatusNotFound, "Recipe not found")
		return
	}

	err = db.UserCollection.FindOneAndUpdate(r.Context(),
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"savedRecipes": recipeID}},
		after,
	).Decode(&updated)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(w, http.StatusOK, "Recipe saved", updated.SavedRecipes)
}

func GetSavedRecipes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := primitive.ObjectIDFromHex(ps.ByName("userId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	var user models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	summaries := []models.RecipeSummary{}
	if len(user.SavedRecipes) > 0 {
		opts := options.Find().SetProjection(bson.M{
			"title":            1,
			"shortDescription": 1,
			"thumbnail":        1,
			"createdAt":        1,
		})
		cursor, err := db.RecipeCollection.Find(r.Context(), bson.M{"_id": bson.M{"$in": user.SavedRecipes}}, opts)
		if err != nil {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer cursor.Close(r.Context())

		if err := cursor.All(r.Context(), &summaries); err != nil {
			utils.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	utils.Success(w, http.StatusOK, "Saved recipes fetched", summaries)
}
