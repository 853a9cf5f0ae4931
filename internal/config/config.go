package config

import (
	"fmt"
	"os"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	JWTSecret string

	// Upload storage. Backend is "disk" or "minio".
	UploadBackend string
	UploadDir     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Load reads the environment. JWT_SECRET and MONGO_URI are mandatory;
// without them the server must not start.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDB:       getenv("MONGO_DB", "goblog"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		UploadBackend: getenv("UPLOAD_BACKEND", "disk"),
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getenv("MINIO_BUCKET", "goblog-uploads"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}
	if cfg.UploadBackend != "disk" && cfg.UploadBackend != "minio" {
		return nil, fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.UploadBackend)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
