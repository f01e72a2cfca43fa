package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application settings.
type Config struct {
	DatabaseURL  string
	ServerPort   int
	AuthMode     string
	JWTSecretKey string
	SessionTTL   time.Duration

	AllowedOrigins []string

	// Cloudflare R2, optional. Archival of approved planillas is disabled
	// when AccountID is empty.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// Background image for the rendered PDF, optional.
	PDFTemplatePath string

	// Domain used when synthesizing accounts during bulk planilla creation.
	CredentialsEmailDomain string
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present; its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	authMode := os.Getenv("AUTH_MODE")
	if authMode == "" {
		authMode = "session"
	}
	if authMode != "session" && authMode != "jwt" {
		return nil, fmt.Errorf("AUTH_MODE must be \"session\" or \"jwt\", got %q", authMode)
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if authMode == "jwt" && jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	sessionTTL := 7 * 24 * time.Hour
	if ttlStr := os.Getenv("SESSION_TTL"); ttlStr != "" {
		sessionTTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL environment variable: %w", err)
		}
		if sessionTTL <= 0 {
			return nil, fmt.Errorf("SESSION_TTL must be positive, got %v", sessionTTL)
		}
	}

	origins := []string{"*"}
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		origins = nil
		for _, o := range strings.Split(originsStr, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	emailDomain := os.Getenv("CREDENTIALS_EMAIL_DOMAIN")
	if emailDomain == "" {
		emailDomain = "valesanito.com"
	}

	cfg := &Config{
		DatabaseURL:            dbURL,
		ServerPort:             port,
		AuthMode:               authMode,
		JWTSecretKey:           jwtKey,
		SessionTTL:             sessionTTL,
		AllowedOrigins:         origins,
		R2AccountID:            os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:          os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:      os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:           os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:        os.Getenv("R2_PUBLIC_BASE_URL"),
		PDFTemplatePath:        os.Getenv("PDF_TEMPLATE_PATH"),
		CredentialsEmailDomain: emailDomain,
	}

	return cfg, nil
}
