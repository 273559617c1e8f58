package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"platera/db"
	"platera/globals"
	"platera/media"
	"platera/models"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestParseIngredients(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []models.Ingredient
		wantErr bool
	}{
		{
			name: "valid list",
			raw:  `[{"quantity":"2 cups","description":"rice"},{"quantity":"1","description":"egg"}]`,
			want: []models.Ingredient{
				{Quantity: "2 cups", Description: "rice"},
				{Quantity: "1", Description: "egg"},
			},
		},
		{name: "empty string", raw: "", wantErr: true},
		{name: "empty array", raw: "[]", wantErr: true},
		{name: "not json", raw: "2 cups rice", wantErr: true},
		{name: "missing quantity", raw: `[{"description":"rice"}]`, wantErr: true},
		{name: "missing description", raw: `[{"quantity":"2"}]`, wantErr: true},
		{name: "object instead of array", raw: `{"quantity":"2","description":"rice"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIngredients(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPatch(t *testing.T) {
	t.Run("only present fields", func(t *testing.T) {
		patch, err := buildPatch(map[string][]string{
			"title": {"Fried Rice"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Fried Rice", patch["title"])
		assert.NotContains(t, patch, "instructions")
		assert.NotContains(t, patch, "category")
	})

	t.Run("empty form is an empty patch", func(t *testing.T) {
		patch, err := buildPatch(nil)
		require.NoError(t, err)
		assert.Empty(t, patch)
	})

	t.Run("present empty string is written as sent", func(t *testing.T) {
		patch, err := buildPatch(map[string][]string{"shortDescription": {""}})
		require.NoError(t, err)
		require.Contains(t, patch, "shortDescription")
		assert.Equal(t, "", patch["shortDescription"])
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		_, err := buildPatch(map[string][]string{"category": {"Brunch"}})
		require.Error(t, err)
	})

	t.Run("valid category accepted", func(t *testing.T) {
		patch, err := buildPatch(map[string][]string{"category": {"Main Course"}})
		require.NoError(t, err)
		assert.Equal(t, "Main Course", patch["category"])
	})

	t.Run("malformed ingredients rejected", func(t *testing.T) {
		_, err := buildPatch(map[string][]string{"ingredients": {"not json"}})
		require.Error(t, err)
	})

	t.Run("ingredients parsed into entries", func(t *testing.T) {
		patch, err := buildPatch(map[string][]string{
			"ingredients": {`[{"quantity":"1 tbsp","description":"soy sauce"}]`},
		})
		require.NoError(t, err)
		assert.Equal(t, []models.Ingredient{{Quantity: "1 tbsp", Description: "soy sauce"}}, patch["ingredients"])
	})
}

func TestValidCategory(t *testing.T) {
	for _, c := range models.Categories {
		assert.True(t, models.ValidCategory(c), c)
	}
	assert.False(t, models.ValidCategory("Makanan Utama"))
	assert.False(t, models.ValidCategory(""))
	assert.False(t, models.ValidCategory("main course"))
}

// fakeRecipeStore holds at most one recipe and answers the conditional
// updates the handlers issue the way a real single-document Mongo write
// would: the filter either matches the current state or misses.
type fakeRecipeStore struct {
	recipe    *models.Recipe
	forceMiss int // conditional updates to miss regardless of state
}

func noMatch() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (f *fakeRecipeStore) contains(id primitive.ObjectID) bool {
	for _, l := range f.recipe.Likes {
		if l == id {
			return true
		}
	}
	return false
}

func (f *fakeRecipeStore) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	q := filter.(bson.M)
	if f.recipe == nil || q["_id"] != f.recipe.ID {
		return noMatch()
	}
	if owner, scoped := q["userId"]; scoped && owner != f.recipe.UserID {
		return noMatch()
	}
	return mongo.NewSingleResultFromDocument(f.recipe, nil, nil)
}

func (f *fakeRecipeStore) FindOneAndUpdate(_ context.Context, filter, update interface{}, _ ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	q := filter.(bson.M)
	u := update.(bson.M)
	if f.recipe == nil || q["_id"] != f.recipe.ID {
		return noMatch()
	}
	if f.forceMiss > 0 {
		f.forceMiss--
		return noMatch()
	}

	switch cond := q["likes"].(type) {
	case primitive.ObjectID: // unlike, only when the caller is in the set
		if !f.contains(cond) {
			return noMatch()
		}
		kept := f.recipe.Likes[:0]
		for _, l := range f.recipe.Likes {
			if l != cond {
				kept = append(kept, l)
			}
		}
		f.recipe.Likes = kept
		f.recipe.LikeCount--
	case bson.M: // like, guarded by $ne
		id := cond["$ne"].(primitive.ObjectID)
		if f.contains(id) {
			return noMatch()
		}
		f.recipe.Likes = append(f.recipe.Likes, id)
		f.recipe.LikeCount++
	default:
		if owner, scoped := q["userId"]; scoped && owner != f.recipe.UserID {
			return noMatch()
		}
		if inc, ok := u["$inc"].(bson.M); ok {
			if _, ok := inc["shareCount"]; ok {
				f.recipe.ShareCount++
			}
		}
	}
	return mongo.NewSingleResultFromDocument(f.recipe, nil, nil)
}

func (f *fakeRecipeStore) DeleteOne(_ context.Context, _ interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.recipe = nil
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeRecipeStore) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	docs := []interface{}{}
	if f.recipe != nil {
		docs = append(docs, f.recipe)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *fakeRecipeStore) InsertOne(_ context.Context, _ interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

func (f *fakeRecipeStore) CountDocuments(_ context.Context, _ interface{}, _ ...*options.CountOptions) (int64, error) {
	return 0, nil
}

type nopBlob struct {
	delKeys []string
}

func (b *nopBlob) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, nil
}

func (b *nopBlob) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	b.delKeys = append(b.delKeys, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func seedRecipe(owner primitive.ObjectID) *fakeRecipeStore {
	return &fakeRecipeStore{recipe: &models.Recipe{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Title:     "Rendang",
		Thumbnail: models.MediaRef{URL: "https://b.s3.r.amazonaws.com/thumbnails/rendang-1.jpg", Alias: "thumbnails/rendang-1"},
		Likes:     []primitive.ObjectID{},
	}}
}

func asUser(r *http.Request, userID primitive.ObjectID) *http.Request {
	ident := globals.Identity{ID: userID.Hex(), UserName: "cook"}
	return r.WithContext(context.WithValue(r.Context(), globals.IdentityKey, ident))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Message string                 `json:"message"`
		Status  int                    `json:"status"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Data
}

func toggleLike(t *testing.T, recipeID, userID primitive.ObjectID) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	r := asUser(httptest.NewRequest(http.MethodPatch, "/recipes/"+recipeID.Hex()+"/like", nil), userID)
	ToggleLike(w, r, httprouter.Params{{Key: "recipeId", Value: recipeID.Hex()}})
	return w.Code, decodeEnvelope(t, w)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	user := primitive.NewObjectID()
	store := seedRecipe(primitive.NewObjectID())
	db.RecipeCollection = store

	code, data := toggleLike(t, store.recipe.ID, user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data["liked"])
	assert.EqualValues(t, 1, data["likeCount"])
	assert.Equal(t, len(store.recipe.Likes), store.recipe.LikeCount)

	code, data = toggleLike(t, store.recipe.ID, user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, data["liked"])
	assert.EqualValues(t, 0, data["likeCount"])
	assert.Empty(t, store.recipe.Likes)
	assert.Equal(t, 0, store.recipe.LikeCount)
}

func TestToggleLikeCounterMatchesSet(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	store := seedRecipe(primitive.NewObjectID())
	db.RecipeCollection = store

	toggleLike(t, store.recipe.ID, alice)
	toggleLike(t, store.recipe.ID, bob)
	assert.Equal(t, 2, store.recipe.LikeCount)
	assert.Equal(t, len(store.recipe.Likes), store.recipe.LikeCount)

	code, data := toggleLike(t, store.recipe.ID, alice)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, data["liked"])
	assert.Equal(t, 1, store.recipe.LikeCount)
	assert.Equal(t, []primitive.ObjectID{bob}, store.recipe.Likes)
}

func TestToggleLikeMissingRecipe(t *testing.T) {
	db.RecipeCollection = &fakeRecipeStore{}

	code, _ := toggleLike(t, primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, http.StatusNotFound, code)
}

func TestToggleLikeRetriesPastConcurrentToggle(t *testing.T) {
	user := primitive.NewObjectID()
	store := seedRecipe(primitive.NewObjectID())
	// A racing toggle by the same caller can slip between the two conditional
	// updates, making both miss once. The handler must retry, not report the
	// recipe missing.
	store.forceMiss = 2
	db.RecipeCollection = store

	code, data := toggleLike(t, store.recipe.ID, user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data["liked"])
	assert.Equal(t, 1, store.recipe.LikeCount)
}

func TestUpdateRecipeByNonOwnerIsNotFound(t *testing.T) {
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	store := seedRecipe(owner)
	db.RecipeCollection = store

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("title", "Hijacked"))
	require.NoError(t, form.Close())

	r := httptest.NewRequest(http.MethodPut, "/recipes/my-recipes/"+store.recipe.ID.Hex(), &buf)
	r.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	UpdateRecipe(w, asUser(r, intruder), httprouter.Params{{Key: "recipeId", Value: store.recipe.ID.Hex()}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Rendang", store.recipe.Title)
}

func TestDeleteRecipeByNonOwnerIsNotFound(t *testing.T) {
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	store := seedRecipe(owner)
	db.RecipeCollection = store
	blob := &nopBlob{}
	Media = media.NewWithClient(blob, "b", "r")

	r := httptest.NewRequest(http.MethodDelete, "/recipes/my-recipes/"+store.recipe.ID.Hex(), nil)
	w := httptest.NewRecorder()
	DeleteRecipe(w, asUser(r, intruder), httprouter.Params{{Key: "recipeId", Value: store.recipe.ID.Hex()}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotNil(t, store.recipe, "nothing may be deleted")
	assert.Empty(t, blob.delKeys, "no blob work before the ownership check")
}

func TestDeleteRecipeByOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	store := seedRecipe(owner)
	db.RecipeCollection = store
	blob := &nopBlob{}
	Media = media.NewWithClient(blob, "b", "r")

	r := httptest.NewRequest(http.MethodDelete, "/recipes/my-recipes/"+store.recipe.ID.Hex(), nil)
	w := httptest.NewRecorder()
	DeleteRecipe(w, asUser(r, owner), httprouter.Params{{Key: "recipeId", Value: store.recipe.ID.Hex()}})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, "Rendang", data["title"], "the deleted snapshot comes back")
	assert.Nil(t, store.recipe)
	assert.Equal(t, []string{"thumbnails/rendang-1.jpg"}, blob.delKeys)
}
