package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

type BotConfig struct {
	Token          string
	GuildID        string
	CommandTimeout time.Duration
}

type LetterboxdConfig struct {
	BaseURL    string
	FetchDelay time.Duration
	Timeout    time.Duration
}

type MetricsConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Config struct {
	Bot        BotConfig
	Letterboxd LetterboxdConfig
	Metrics    MetricsConfig
}

func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := Config{}

	token, err := getEnvString("DISCORD_TOKEN")
	if err != nil {
		return nil, fmt.Errorf("missing env: %w", err)
	}
	cfg.Bot.Token = token

	// Empty means commands are registered globally. Scoping to a guild makes
	// new commands visible immediately, which is what you want in development.
	cfg.Bot.GuildID = os.Getenv("DISCORD_GUILD_ID")

	commandTimeout, err := getEnvTimeDefault("COMMAND_TIMEOUT", "10m")
	if err != nil {
		return nil, fmt.Errorf("invalid command timeout: %w", err)
	}
	cfg.Bot.CommandTimeout = commandTimeout

	baseURL := getEnvStringDefault("LETTERBOXD_BASE_URL", "https://letterboxd.com")
	cfg.Letterboxd.BaseURL = strings.TrimSuffix(baseURL, "/")

	fetchDelay, err := getEnvTimeDefault("FETCH_DELAY", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid fetch delay: %w", err)
	}
	cfg.Letterboxd.FetchDelay = fetchDelay

	timeout, err := getEnvTimeDefault("HTTP_CLIENT_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	cfg.Letterboxd.Timeout = timeout

	// Empty disables the metrics endpoint.
	cfg.Metrics.Addr = getEnvStringDefault("METRICS_ADDR", ":9090")

	metricsShutdown, err := getEnvTimeDefault("METRICS_SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid metrics shutdown timeout: %w", err)
	}
	cfg.Metrics.ShutdownTimeout = metricsShutdown

	return &cfg, nil
}

// loadDotEnv reads a .env file and sets any variable not already present in
// the environment. It silently does nothing if the file doesn't exist.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getEnvString(key string) (string, error) {
	result := os.Getenv(key)
	if result == "" {
		return "", fmt.Errorf("%s not defined", key)
	}
	return result, nil
}

func getEnvStringDefault(key, defaultValue string) string {
	result := os.Getenv(key)
	if result == "" {
		result = defaultValue
	}
	return result
}

func getEnvTimeDefault(key, defaultValue string) (time.Duration, error) {
	result := os.Getenv(key)
	if result == "" {
		result = defaultValue
	}

	duration, err := time.ParseDuration(result)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration: %w", err)
	}
	return duration, nil
}
