package routes

import (
	"platera/auth"
	"platera/comments"
	"platera/middleware"
	"platera/profile"
	"platera/ratelim"
	"platera/recipes"
	"platera/reviews"

	"github.com/julienschmidt/httprouter"
)

func AddUserRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/users/register", rl.Limit(auth.Register))
	router.POST("/users/login", rl.Limit(auth.Login))

	router.GET("/users/profile/:userId", middleware.Authenticate(profile.GetProfile))
	router.PUT("/users/profile/:userId", middleware.Authenticate(profile.EditProfile))
	router.PUT("/users/save-recipe/:recipeId", middleware.Authenticate(profile.SaveRecipe))
	router.GET("/users/saved-recipes/:userId", middleware.Authenticate(profile.GetSavedRecipes))
}

func AddRecipeRoutes(router *httprouter.Router) {
	router.POST("/recipes/create-recipe", middleware.Authenticate(recipes.CreateRecipe))
	router.GET("/recipes", middleware.Authenticate(recipes.GetRecipes))
	router.GET("/recipes/public/landing", recipes.GetLandingRecipes)
	router.GET("/recipes/my-recipes", middleware.Authenticate(recipes.GetMyRecipes))
	router.GET("/recipes/recipe/:recipeId", middleware.Authenticate(recipes.GetRecipe))
	router.PUT("/recipes/my-recipes/:recipeId", middleware.Authenticate(recipes.UpdateRecipe))
	router.DELETE("/recipes/my-recipes/:recipeId", middleware.Authenticate(recipes.DeleteRecipe))
	router.PATCH("/recipes/:recipeId/like", middleware.Authenticate(recipes.ToggleLike))
	router.PATCH("/recipes/:recipeId/share", recipes.IncrementShare)
}

func AddCommentsRoutes(router *httprouter.Router) {
	router.POST("/comments/:id", middleware.Authenticate(comments.CreateComment))
	router.GET("/comments/:id", middleware.OptionalAuth(comments.GetComments))
	router.POST("/comments/:id/reply", middleware.Authenticate(comments.ReplyToComment))
}

func AddReviewsRoutes(router *httprouter.Router) {
	router.POST("/reviews/create-review", middleware.Authenticate(reviews.CreateReview))
	router.GET("/reviews", middleware.OptionalAuth(reviews.GetReviews))
}
