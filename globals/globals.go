package globals

import "os"

type contextKey string

const IdentityKey contextKey = "identity"

// Identity is the resolved caller, produced once by the auth middleware and
// passed by value into handlers.
type Identity struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

// Config holds everything read from the environment at startup. Business logic
// never calls os.Getenv directly.
type Config struct {
	MongoURI     string
	RedisAddr    string
	JWTSecret    []byte
	BucketName   string
	BucketRegion string
	BucketKey    string
	BucketSecret string
	Port         string
}

var Conf Config

func LoadConfig() Config {
	Conf = Config{
		MongoURI:     os.Getenv("MONGODB_URI"),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		BucketName:   os.Getenv("BUCKET_NAME"),
		BucketRegion: getenv("BUCKET_REGION", "us-east-1"),
		BucketKey:    os.Getenv("BUCKET_KEY"),
		BucketSecret: os.Getenv("BUCKET_SECRET"),
		Port:         getenv("PORT", "3003"),
	}
	return Conf
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
