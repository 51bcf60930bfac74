package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort        = "5000"
	defaultAppEnv         = "local"
	defaultStoreDriver    = "mongo"
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDB        = "scholarStreamDB"
	defaultRedisAddr      = "localhost:6379"
	defaultJWTSecret      = "change-me-in-production"
	defaultIdentity       = "google"
	defaultGateway        = "stripe"
	defaultCurrency       = "usd"
	defaultSiteDomain     = "http://localhost:5173"
	defaultLatestLimit    = 8
	defaultCacheTTL       = 5 * time.Minute
	defaultRatePerMinute  = 200
	defaultMaxBodyBytes   = 4 << 20
	defaultMongoAppName   = "Cluster0"
	defaultShutdownPeriod = 10 * time.Second
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json and .env into the value table. Process
// environment variables always win over both files.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_PORT":          defaultAppPort,
		"APP_ENV":           defaultAppEnv,
		"STORE_DRIVER":      defaultStoreDriver,
		"MONGO_DB":          defaultMongoDB,
		"REDIS_ADDR":        defaultRedisAddr,
		"JWT_SECRET":        defaultJWTSecret,
		"IDENTITY_PROVIDER": defaultIdentity,
		"PAYMENT_GATEWAY":   defaultGateway,
		"PAYMENT_CURRENCY":  defaultCurrency,
		"SITE_DOMAIN":       defaultSiteDomain,
	}
}

// ── Application ──────────────────────────────────────────────────────────────

func AppPort() string { _ = Load(); return get("APP_PORT", defaultAppPort) }
func AppEnv() string  { _ = Load(); return get("APP_ENV", defaultAppEnv) }

func IsProduction() bool {
	switch AppEnv() {
	case "production", "prod":
		return true
	}
	return false
}

// GRPCPort is empty unless the gRPC health endpoint should be started.
func GRPCPort() string { _ = Load(); return get("GRPC_PORT", "") }

func ShutdownPeriod() time.Duration { return defaultShutdownPeriod }

func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxBodyBytes
	}
	return n
}

func RateLimitPerMinute() int {
	return intValue("RATE_LIMIT_PER_MINUTE", defaultRatePerMinute)
}

// CORSOrigins returns the allowed origins; "*" when unset.
func CORSOrigins() []string {
	_ = Load()
	raw := get("CORS_ORIGINS", "*")
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ── Store ────────────────────────────────────────────────────────────────────

// StoreDriver is "mongo" or "memory".
func StoreDriver() string {
	_ = Load()
	switch d := strings.ToLower(get("STORE_DRIVER", defaultStoreDriver)); d {
	case "mongo", "memory":
		return d
	default:
		return defaultStoreDriver
	}
}

// MongoURI prefers MONGO_URI. Otherwise it assembles an Atlas SRV URI from
// DB_USER, DB_PASS and DB_HOST, falling back to a local server.
func MongoURI() string {
	_ = Load()
	if uri := get("MONGO_URI", ""); uri != "" {
		return uri
	}
	user, pass, host := get("DB_USER", ""), get("DB_PASS", ""), get("DB_HOST", "")
	if user == "" || host == "" {
		return defaultMongoURI
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?appName=%s",
		url.QueryEscape(user), url.QueryEscape(pass), host, get("DB_APP_NAME", defaultMongoAppName))
}

func MongoDatabase() string { _ = Load(); return get("MONGO_DB", defaultMongoDB) }

func LogToMongo() bool { return boolValue("LOG_TO_MONGO") }

// ── Cache ────────────────────────────────────────────────────────────────────

func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", defaultRedisAddr) }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }

func CacheTTL() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("CACHE_TTL", ""))
	if err != nil || d <= 0 {
		return defaultCacheTTL
	}
	return d
}

// ── Identity ─────────────────────────────────────────────────────────────────

// IdentityProvider is "google" or "jwt".
func IdentityProvider() string {
	_ = Load()
	return strings.ToLower(get("IDENTITY_PROVIDER", defaultIdentity))
}

func GoogleClientID() string { _ = Load(); return get("GOOGLE_CLIENT_ID", "") }

// IsDefaultJWTSecret reports whether secret is the placeholder shipped as
// the JWT_SECRET default.
func IsDefaultJWTSecret(secret string) bool { return secret == defaultJWTSecret }
func JWTSecret() string      { _ = Load(); return get("JWT_SECRET", defaultJWTSecret) }

// ── Payments ─────────────────────────────────────────────────────────────────

// PaymentGateway is "stripe", "midtrans" or "fake".
func PaymentGateway() string {
	_ = Load()
	return strings.ToLower(get("PAYMENT_GATEWAY", defaultGateway))
}

func StripeSecret() string      { _ = Load(); return get("STRIPE_SECRET", "") }
func MidtransServerKey() string { _ = Load(); return get("MIDTRANS_SERVER_KEY", "") }
func MidtransProduction() bool  { return boolValue("MIDTRANS_PRODUCTION") }
func PaymentCurrency() string   { _ = Load(); return strings.ToLower(get("PAYMENT_CURRENCY", defaultCurrency)) }
func SiteDomain() string        { _ = Load(); return strings.TrimRight(get("SITE_DOMAIN", defaultSiteDomain), "/") }

// ── Catalog ──────────────────────────────────────────────────────────────────

// LatestScholarshipsLimit is the page size of GET /latest-scholarships.
func LatestScholarshipsLimit() int {
	return intValue("LATEST_SCHOLARSHIPS_LIMIT", defaultLatestLimit)
}

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}

	env, err := godotenv.Read(envPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", envPath, err)
	}
	for k, v := range env {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			loaded[k] = strings.TrimSpace(v)
		}
	}

	// Real environment variables override file values.
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, known := loaded[k]; known || isConfigKey(k) {
			loaded[k] = v
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

// isConfigKey keeps unrelated process variables out of the value table.
func isConfigKey(k string) bool {
	for _, prefix := range []string{"APP_", "STORE_", "MONGO_", "DB_", "REDIS_", "CACHE_", "IDENTITY_",
		"GOOGLE_", "JWT_", "PAYMENT_", "STRIPE_", "MIDTRANS_", "SITE_", "LATEST_", "GRPC_", "LOG_",
		"RATE_", "CORS_", "MAX_"} {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func intValue(key string, fallback int) int {
	_ = Load()
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func boolValue(key string) bool {
	_ = Load()
	b, _ := strconv.ParseBool(get(key, "false"))
	return b
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
