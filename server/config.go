package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server settings. Flags win over environment variables,
// which win over built-in defaults.
type Config struct {
	Addr          string
	PublicURL     string
	TickRate      int
	BroadcastRate int
	MaxClients    int
	DBPath        string
	LogFile       string
	LogLevel      string
	Secure        bool
	TokenSecret   string
	AdminHash     string
	RoundSeconds  float64
	Seed          int64
}

// LoadConfig reads .env (if present), the environment and args.
func LoadConfig(args []string) (Config, error) {
	_ = godotenv.Load()

	var c Config
	fs := flag.NewFlagSet("balloons", flag.ContinueOnError)
	fs.StringVar(&c.Addr, "addr", getEnv("BALLOONS_ADDR", ":5000"), "HTTP listen address")
	fs.StringVar(&c.PublicURL, "public-url", getEnv("BALLOONS_PUBLIC_URL", ""), "websocket URL advertised to clients (default: derived from request)")
	fs.IntVar(&c.TickRate, "tick-rate", getEnvInt("BALLOONS_TICK_RATE", TickRate), "simulation ticks per second")
	fs.IntVar(&c.BroadcastRate, "broadcast-rate", getEnvInt("BALLOONS_BROADCAST_RATE", BroadcastRate), "snapshots per second")
	fs.IntVar(&c.MaxClients, "max-clients", getEnvInt("BALLOONS_MAX_CLIENTS", DefaultMaxClients), "maximum connected clients")
	fs.StringVar(&c.DBPath, "db", getEnv("BALLOONS_DB", "balloons.db"), "SQLite database path")
	fs.StringVar(&c.LogFile, "log-file", getEnv("BALLOONS_LOG_FILE", "balloons.log"), "log file path")
	fs.StringVar(&c.LogLevel, "log-level", getEnv("BALLOONS_LOG_LEVEL", "info"), "log level")
	fs.BoolVar(&c.Secure, "secure", getEnvBool("BALLOONS_SECURE", false), "require signed connect tokens")
	fs.StringVar(&c.TokenSecret, "token-secret", getEnv("BALLOONS_TOKEN_SECRET", ""), "HMAC secret for connect tokens (random if empty)")
	fs.StringVar(&c.AdminHash, "admin-hash", getEnv("BALLOONS_ADMIN_HASH", ""), "bcrypt hash of the admin password (admin endpoints disabled if empty)")
	fs.Float64Var(&c.RoundSeconds, "round-seconds", getEnvFloat("BALLOONS_ROUND_SECONDS", 0), "round length in seconds, 0 for endless")
	fs.Int64Var(&c.Seed, "seed", getEnvInt64("BALLOONS_SEED", 0), "world seed, 0 for time based")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) GameConfig() GameConfig {
	return GameConfig{
		TickRate:      c.TickRate,
		BroadcastRate: c.BroadcastRate,
		RoundSeconds:  c.RoundSeconds,
		Seed:          c.Seed,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
