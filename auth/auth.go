package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"platera/db"
	"platera/globals"
	"platera/models"
	"platera/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

type registerRequest struct {
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// GenerateToken issues an HS256 token whose subject is the user id.
func GenerateToken(userID string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserName == "" || req.Email == "" || req.Password == "" {
		utils.Fail(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}

	count, err := db.UserCollection.CountDocuments(r.Context(), bson.M{
		"$or": []bson.M{{"email": req.Email}, {"userName": req.UserName}},
	})
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if count > 0 {
		utils.Fail(w, http.StatusBadRequest, "User with this email or username is already registered")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := models.User{
		UserName:    req.UserName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    string(hashed),
		CreatedAt:   time.Now(),
	}

	res, err := db.UserCollection.InsertOne(r.Context(), user)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	utils.Success(w, http.StatusCreated, "Successfully Registered", user)
}

func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Login == "" || req.Password == "" {
		utils.Fail(w, http.StatusBadRequest, "Please fill all required fields")
		return
	}

	// Login accepts either the email or the handle.
	var user models.User
	err := db.UserCollection.FindOne(r.Context(), bson.M{
		"$or": []bson.M{{"email": req.Login}, {"userName": req.Login}},
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		utils.Fail(w, http.StatusBadRequest, "User not found")
		return
	}
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.Fail(w, http.StatusBadRequest, "Password incorrect")
		return
	}

	token, err := GenerateToken(user.ID.Hex(), globals.Conf.JWTSecret)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Login Successful",
		"status":  http.StatusOK,
		"token":   token,
		"data": utils.M{
			"id":       user.ID.Hex(),
			"userName": user.UserName,
			"email":    user.Email,
		},
	})
}
