package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Scraper holds the browser and pacing knobs of the extractor.
type Scraper struct {
	Headless      bool
	ChromePath    string
	MaxResults    int
	LaunchTimeout time.Duration
	NavTimeout    time.Duration
	ScrollPasses  int
	ScrollPause   time.Duration
	DetailLimit   int
}

// Config is the process configuration, read from the environment.
type Config struct {
	Addr string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RunCacheTTL   time.Duration

	RulesPath   string
	DedupPolicy string

	LogLevel string
	Dev      bool

	Scraper Scraper
}

// FromEnv loads .env (when present) and builds a Config from the
// environment, falling back to defaults for anything unset.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getEnv("ADDR", ":8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "gra"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		RunCacheTTL:   getDuration("RUN_CACHE_TTL", time.Hour),
		RulesPath:     os.Getenv("RULES_PATH"),
		DedupPolicy:   getEnv("DEDUP_POLICY", "fail_open"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Dev:           strings.EqualFold(os.Getenv("APP_ENV"), "development"),
		Scraper: Scraper{
			Headless:      getBool("HEADLESS", true),
			ChromePath:    os.Getenv("CHROME_PATH"),
			MaxResults:    getInt("SCRAPE_MAX_RESULTS", 20),
			LaunchTimeout: getDuration("SCRAPE_LAUNCH_TIMEOUT", 30*time.Second),
			NavTimeout:    getDuration("SCRAPE_NAV_TIMEOUT", 30*time.Second),
			ScrollPasses:  getInt("SCRAPE_SCROLL_PASSES", 5),
			ScrollPause:   getDuration("SCRAPE_SCROLL_PAUSE", 1500*time.Millisecond),
			DetailLimit:   getInt("SCRAPE_DETAIL_LIMIT", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

// getDuration accepts Go durations ("30s") or plain milliseconds ("1500").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(raw); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
