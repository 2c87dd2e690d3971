package util

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server config
	BaseURL string

	// Database config
	DBConn string

	// Redis config (task queue + periodic sweeps)
	RedisAddr string

	// Email config
	SMTPHost    string
	SMTPPort    string
	Email       string
	AppPassword string

	// Security config
	SecretKey              []byte
	TokenExpiration        time.Duration
	RefreshTokenExpiration time.Duration

	// OAuth2 config
	GoogleClientID     string
	GoogleClientSecret string

	// Accounts signing up with this email are granted the admin role
	AdminEmail string

	// Blob storage config
	S3Bucket     string
	AWSRegion    string
	UploadExpiry time.Duration

	// Rate limiting config
	MaxRequest int
	RefillRate time.Duration
}

func LoadConfig(path string) *Config {
	err := godotenv.Load(path)
	if err != nil {
		return &Config{
			BaseURL:                "localhost:8080",
			DBConn:                 os.Getenv("DB_CONN"),
			RedisAddr:              os.Getenv("REDIS_ADDRESS"),
			SMTPHost:               "smtp.gmail.com",
			SMTPPort:               "587",
			Email:                  os.Getenv("EMAIL"),
			AppPassword:            os.Getenv("APP_PASSWORD"),
			SecretKey:              []byte(os.Getenv("SECRET_KEY")),
			TokenExpiration:        time.Hour,
			RefreshTokenExpiration: time.Hour * 24,
			GoogleClientID:         os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret:     os.Getenv("GOOGLE_CLIENT_SECRET"),
			AdminEmail:             os.Getenv("ADMIN_EMAIL"),
			S3Bucket:               os.Getenv("S3_BUCKET"),
			AWSRegion:              os.Getenv("AWS_REGION"),
			UploadExpiry:           time.Minute * 15,
			MaxRequest:             100,
			RefillRate:             time.Second * 10,
		}
	}

	// Try get and parse data
	tokenExpiration, err := strconv.Atoi(os.Getenv("TOKEN_EXPIRATION"))
	if err != nil {
		// Fallback to default value (60 minutes)
		tokenExpiration = 60
	}

	refreshTokenExpiration, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_EXPIRATION"))
	if err != nil {
		// Fallback to default value (1440 minutes = 24 hours)
		refreshTokenExpiration = 1440
	}

	uploadExpiry, err := strconv.Atoi(os.Getenv("UPLOAD_EXPIRY"))
	if err != nil {
		// Fallback to default value (15 minutes)
		uploadExpiry = 15
	}

	maxRequest, err := strconv.Atoi(os.Getenv("MAX_REQUEST"))
	if err != nil {
		maxRequest = 100
	}

	refillRate, err := strconv.Atoi(os.Getenv("REFILL_RATE"))
	if err != nil {
		// Fallback to default value (10 seconds)
		refillRate = 10
	}

	return &Config{
		BaseURL:                os.Getenv("BASE_URL"),
		DBConn:                 os.Getenv("DB_CONN"),
		RedisAddr:              os.Getenv("REDIS_ADDRESS"),
		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               os.Getenv("SMTP_PORT"),
		Email:                  os.Getenv("EMAIL"),
		AppPassword:            os.Getenv("APP_PASSWORD"),
		SecretKey:              []byte(os.Getenv("SECRET_KEY")),
		TokenExpiration:        time.Minute * time.Duration(tokenExpiration),
		RefreshTokenExpiration: time.Minute * time.Duration(refreshTokenExpiration),
		GoogleClientID:         os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:     os.Getenv("GOOGLE_CLIENT_SECRET"),
		AdminEmail:             os.Getenv("ADMIN_EMAIL"),
		S3Bucket:               os.Getenv("S3_BUCKET"),
		AWSRegion:              os.Getenv("AWS_REGION"),
		UploadExpiry:           time.Minute * time.Duration(uploadExpiry),
		MaxRequest:             maxRequest,
		RefillRate:             time.Second * time.Duration(refillRate),
	}
}
