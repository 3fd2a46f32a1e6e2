package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	IdentityFirebase = "firebase"
	IdentityLocal    = "local"

	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StoreMemory    = "memory"

	// DevJWTSecret is the local-identity signing key used when JWT_SECRET is
	// unset. It is accepted only in development.
	DevJWTSecret = "your-secret-key-change-in-production"
)

type Config struct {
	Env           string
	ServerAddress string

	IdentityBackend string
	StoreBackend    string

	// Firebase
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseCredentialsFile string
	FirebaseAPIKey          string

	// Mongo
	MongoURI string
	MongoDB  string

	// DataDir enables JSON snapshots for the memory store. Empty keeps data in memory only.
	DataDir string

	// Local identity backend
	JWTSecret string

	SessionCookieName string
	SessionHashKey    string
	SessionBlockKey   string
	CookieSecure      bool
	SessionTTL        time.Duration

	RequestTimeout     time.Duration
	CORSAllowedOrigins []string

	RecaptchaSecret string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "production")
	return &Config{
		Env:           env,
		ServerAddress: getEnv("SERVER_ADDRESS", ":"+getEnv("PORT", "3001")),

		IdentityBackend: strings.ToLower(getEnv("IDENTITY_BACKEND", IdentityFirebase)),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),

		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH"),
		FirebaseAPIKey:          os.Getenv("FIREBASE_API_KEY"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "healthtrack"),

		DataDir: os.Getenv("DATA_DIR"),

		JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),

		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session_token"),
		SessionHashKey:    os.Getenv("SESSION_HASH_KEY"),
		SessionBlockKey:   os.Getenv("SESSION_BLOCK_KEY"),
		CookieSecure:      getBool("COOKIE_SECURE", env != "development"),
		SessionTTL:        getDuration("SESSION_TTL", time.Hour),

		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 10*time.Second),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", defaultOrigins(env)),

		RecaptchaSecret: os.Getenv("RECAPTCHA_SECRET"),
	}
}

// defaultOrigins allows the local frontend in development and no cross-origin
// callers otherwise.
func defaultOrigins(env string) []string {
	if env == "development" {
		return []string{"http://localhost:3000"}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate reports backend combinations that cannot start.
func (c *Config) Validate() error {
	switch c.IdentityBackend {
	case IdentityFirebase, IdentityLocal:
	default:
		return fmt.Errorf("unknown IDENTITY_BACKEND %q", c.IdentityBackend)
	}
	switch c.StoreBackend {
	case StoreFirestore:
		if c.IdentityBackend != IdentityFirebase {
			return errors.New("STORE_BACKEND=firestore requires IDENTITY_BACKEND=firebase")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("STORE_BACKEND=mongo requires MONGO_URI")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.IdentityBackend == IdentityLocal {
		if c.JWTSecret == "" {
			return errors.New("IDENTITY_BACKEND=local requires JWT_SECRET")
		}
		if c.JWTSecret == DevJWTSecret && !c.IsDevelopment() {
			return errors.New("JWT_SECRET must be set outside development")
		}
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			return errors.New("CORS_ALLOWED_ORIGINS cannot contain * because session cookies are sent with credentials")
		}
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
