package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"platera/comments"
	"platera/db"
	"platera/globals"
	"platera/media"
	"platera/middleware"
	"platera/profile"
	"platera/ratelim"
	"platera/rdx"
	"platera/recipes"
	"platera/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[%s] %s %s", r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func setupRouter(rl *ratelim.RateLimiter) http.Handler {
	router := httprouter.New()
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Write([]byte("200"))
	})

	routes.AddUserRoutes(router, rl)
	routes.AddRecipeRoutes(router)
	routes.AddCommentsRoutes(router)
	routes.AddReviewsRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.Recover(loggingMiddleware(securityHeaders(c.Handler(router))))
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the environment")
	}
	conf := globals.LoadConfig()

	if conf.MongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	if len(conf.JWTSecret) == 0 {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Init(ctx, conf.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			log.Printf("MongoDB disconnect failed: %v", err)
		}
	}()
	log.Println("Connected to MongoDB")

	rdx.Init(conf.RedisAddr)

	blobs, err := media.New(ctx, conf.BucketKey, conf.BucketSecret, conf.BucketRegion, conf.BucketName)
	if err != nil {
		log.Fatalf("Failed to set up blob store: %v", err)
	}
	recipes.Media = blobs
	comments.Media = blobs
	profile.Media = blobs

	handler := setupRouter(ratelim.NewRateLimiter())

	server := &http.Server{
		Addr:              ":" + conf.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server started on port %s", conf.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on port %s: %v", conf.Port, err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan

	log.Println("Shutdown signal received. Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly")
}
