package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ImageModel struct {
	Name       string
	RemoteName string
	Kind       string
	Labels     []string
	Threshold  float64
}

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	LogLevel                string
	LogFormat               string

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	DefaultAdminUsername string
	DefaultAdminPassword string
	DefaultAdminDOB      string

	CORSOrigins      []string
	TrustedProxies   []string
	RateLimitRPM     int
	AuthRateLimitRPM int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	MaxUploadSize int64
	MaxImageBytes int64

	InferenceURL       string
	InferenceTimeout   time.Duration
	MoleModel          ImageModel
	EyeModel           ImageModel
	CycleModelArtifact string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	KafkaBrokers []string
	KafkaTopic   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8000"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 45*time.Second),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "text"),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  getInt("DB_MAX_CONNS", 10),
		DBMinConns:  getInt("DB_MIN_CONNS", 2),

		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:   getDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost: getInt("BCRYPT_COST", 12),

		DefaultAdminUsername: getEnv("DEFAULT_ADMIN_USERNAME", "admin"),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
		DefaultAdminDOB:      getEnv("DEFAULT_ADMIN_DOB", "01-01-2025"),

		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "*")),
		TrustedProxies:   splitCSV(os.Getenv("TRUSTED_PROXIES")),
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 120),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),
		RedisAddr:        strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),

		MaxUploadSize: getInt64("MAX_UPLOAD_SIZE", 16<<20),
		MaxImageBytes: getInt64("MAX_IMAGE_BYTES", 12<<20),

		InferenceURL:     strings.TrimSpace(os.Getenv("INFERENCE_URL")),
		InferenceTimeout: getDuration("INFERENCE_TIMEOUT", 15*time.Second),
		MoleModel: ImageModel{
			Name:       "mole",
			RemoteName: getEnv("MOLE_MODEL_NAME", "mole"),
			Kind:       getEnv("MOLE_MODEL_KIND", "threshold"),
			Labels:     splitCSV(getEnv("MOLE_LABELS", "Benign,Malignant")),
			Threshold:  getFloat("MOLE_THRESHOLD", 0.37),
		},
		EyeModel: ImageModel{
			Name:       "eye",
			RemoteName: getEnv("EYE_MODEL_NAME", "eye"),
			Kind:       getEnv("EYE_MODEL_KIND", "multiclass"),
			Labels:     splitCSV(getEnv("EYE_LABELS", "Normal,Cataract,Glaucoma,Diabetic Retinopathy")),
			Threshold:  getFloat("EYE_THRESHOLD", 0.5),
		},
		CycleModelArtifact: getEnv("CYCLE_MODEL_ARTIFACT", "./models/cycle_linear.json"),

		S3Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "med-predict.events"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.MaxImageBytes <= 0 || c.MaxImageBytes > c.MaxUploadSize {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive and at most MAX_UPLOAD_SIZE")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	for _, m := range []ImageModel{c.MoleModel, c.EyeModel} {
		if m.Kind != "threshold" && m.Kind != "multiclass" {
			return fmt.Errorf("%s model kind must be threshold or multiclass, got %q", m.Name, m.Kind)
		}
		if m.Kind == "threshold" && len(m.Labels) != 2 {
			return fmt.Errorf("%s threshold model needs exactly two labels", m.Name)
		}
		if len(m.Labels) < 2 {
			return fmt.Errorf("%s model needs at least two labels", m.Name)
		}
		if m.Threshold < 0 || m.Threshold > 1 {
			return fmt.Errorf("%s threshold must be within [0,1]", m.Name)
		}
	}

	if _, err := ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		return fmt.Errorf("KAFKA_TOPIC cannot be empty when KAFKA_BROKERS is set")
	}

	return nil
}

// TrustedProxyPrefixes returns the validated TRUSTED_PROXIES entries.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes, _ := ParseTrustedProxies(c.TrustedProxies)
	return prefixes
}

// ParseTrustedProxies accepts CIDR ranges and bare addresses; a bare
// address is a single-host range.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy range %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
