package infra

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"neogen/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	ReplicateBaseURL      string
	ReplicateAPIToken     string
	ReplicateModelVersion string
	SiteOrigin            string
	ReferenceImages       []string
	GuidanceScale         float64
	InferenceSteps        int
	PollInterval          time.Duration
	PollMaxAttempts       int
	GenerationTimeout     time.Duration
	TrustedDeliveryHosts  []string

	DatabaseURL        string
	GeoIPDBPath        string
	CORSAllowedOrigins []string
	DefaultLocale      string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Every missing required variable is reported in a single domain.ErrConfigMissing error.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		ReplicateBaseURL:      strings.TrimRight(getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"), "/"),
		ReplicateAPIToken:     strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN")),
		ReplicateModelVersion: strings.TrimSpace(os.Getenv("REPLICATE_MODEL_VERSION")),
		SiteOrigin:            siteOrigin(),
		GuidanceScale:         getEnvFloat("GUIDANCE_SCALE", domain.DefaultGuidanceScale),
		InferenceSteps:        getEnvInt("NUM_INFERENCE_STEPS", domain.DefaultInferenceSteps),
		PollInterval:          time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 1500)),
		PollMaxAttempts:       getEnvInt("POLL_MAX_ATTEMPTS", 45),
		GenerationTimeout:     time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 0)),
		TrustedDeliveryHosts:  getEnvList("TRUSTED_DELIVERY_HOSTS", []string{"replicate.delivery"}),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		GeoIPDBPath:           os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", nil),
		DefaultLocale:         getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	var missing []string
	if cfg.ReplicateAPIToken == "" {
		missing = append(missing, "REPLICATE_API_TOKEN")
	}
	if cfg.ReplicateModelVersion == "" {
		missing = append(missing, "REPLICATE_MODEL_VERSION")
	}
	if cfg.SiteOrigin == "" {
		missing = append(missing, "SITE_ORIGIN")
	}
	if len(missing) > 0 {
		return nil, domain.ConfigMissing(missing...)
	}

	names := getEnvList("REFERENCE_IMAGES", []string{"neo1.png", "neo2.png", "neo3.png", "neo4.png"})
	cfg.ReferenceImages = referenceURLs(cfg.SiteOrigin, names)
	return cfg, nil
}

// siteOrigin resolves the deployment's public origin. VERCEL_URL is a bare
// host, so a scheme is added when missing.
func siteOrigin() string {
	v := strings.TrimSpace(os.Getenv("SITE_ORIGIN"))
	if v == "" {
		v = strings.TrimSpace(os.Getenv("VERCEL_URL"))
	}
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		v = "https://" + v
	}
	return strings.TrimRight(v, "/")
}

func referenceURLs(origin string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if u, err := url.Parse(name); err == nil && u.IsAbs() {
			out = append(out, name)
			continue
		}
		out = append(out, origin+"/"+strings.TrimLeft(name, "/"))
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
