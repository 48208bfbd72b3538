package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend modes.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

type Config struct {
	Port      string
	GinMode   string
	JWTSecret string

	BackendMode       string
	BackendAPIURL     string
	BackendTimeout    time.Duration
	BackendMaxRetries int

	DatabaseURL string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	DirectoryCacheTTL  time.Duration
	PriceCacheTTL      time.Duration
	DirectoryCacheSize int

	PODImageBaseDir string
	PODImagesFolder string

	AllowedOrigins []string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	mode := strings.ToLower(getEnv("BACKEND_MODE", BackendRemote))
	if mode != BackendLocal {
		mode = BackendRemote
	}

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   os.Getenv("GIN_MODE"),
		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),

		BackendMode:       mode,
		BackendAPIURL:     strings.TrimRight(getEnv("BACKEND_API_URL", "http://localhost:3001/api"), "/"),
		BackendTimeout:    seconds("BACKEND_TIMEOUT_SECONDS", 15),
		BackendMaxRetries: atLeast("BACKEND_MAX_RETRIES", 2, 0),

		DatabaseURL: databaseURL(),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		DirectoryCacheTTL:  seconds("DIRECTORY_CACHE_TTL_SECONDS", 300),
		PriceCacheTTL:      seconds("PRICE_CACHE_TTL_SECONDS", 60),
		DirectoryCacheSize: atLeast("DIRECTORY_CACHE_SIZE", 2048, 1),

		PODImageBaseDir: getEnv("POD_IMAGE_BASE_DIR", "./data"),
		PODImagesFolder: getEnv("POD_IMAGES_FOLDER", "imagenes"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_*.
// It is empty when neither is configured.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return "postgres://" + getEnv("DB_USER", "postgres") + ":" + getEnv("DB_PASSWORD", "postgres") +
		"@" + host + ":" + getEnv("DB_PORT", "5432") + "/" + getEnv("DB_NAME", "postgres") +
		"?sslmode=" + getEnv("DB_SSLMODE", "disable")
}

func seconds(key string, fallback int) time.Duration {
	return time.Duration(atLeast(key, fallback, 1)) * time.Second
}

func atLeast(key string, fallback, floor int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || v < floor {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
