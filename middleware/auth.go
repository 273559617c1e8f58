package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"platera/db"
	"platera/globals"
	"platera/models"
	"platera/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authenticate verifies the bearer token, resolves the caller's identity once
// and stores it in the request context. Handlers never re-derive it.
func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ident, code, msg := resolveIdentity(r)
		if code != 0 {
			utils.Fail(w, code, msg)
			return
		}
		ctx := context.WithValue(r.Context(), globals.IdentityKey, ident)
		next(w, r.WithContext(ctx), ps)
	}
}

// OptionalAuth resolves the identity when a valid token is present but never
// rejects the request.
func OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ident, code, _ := resolveIdentity(r); code == 0 {
			ctx := context.WithValue(r.Context(), globals.IdentityKey, ident)
			r = r.WithContext(ctx)
		}
		next(w, r, ps)
	}
}

func resolveIdentity(r *http.Request) (globals.Identity, int, string) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return globals.Identity{}, http.StatusUnauthorized, "Access denied. No token provided."
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return globals.Conf.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return globals.Identity{}, http.StatusForbidden, "Invalid or expired token."
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return globals.Identity{}, http.StatusForbidden, "Invalid or expired token."
	}
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return globals.Identity{}, http.StatusForbidden, "Invalid or expired token."
	}

	var user models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
		return globals.Identity{}, http.StatusUnauthorized, "User not found"
	}

	return globals.Identity{ID: user.ID.Hex(), UserName: user.UserName, Email: user.Email}, 0, ""
}

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic recovered: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
